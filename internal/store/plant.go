package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rgoodwin/hearth/internal/model"
)

type PlantStore struct {
	db *sql.DB
}

func NewPlantStore(db *sql.DB) *PlantStore {
	return &PlantStore{db: db}
}

const plantCols = `id, name, location, water_interval_days, next_water_date, last_watered_at, created_at`

func scanPlant(scanner interface{ Scan(...any) error }) (*model.Plant, error) {
	var p model.Plant
	var nextWater string
	var lastWatered sql.NullTime

	err := scanner.Scan(&p.ID, &p.Name, &p.Location, &p.WaterIntervalDays, &nextWater, &lastWatered, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if p.NextWaterDate, err = time.Parse(dateLayout, nextWater); err != nil {
		return nil, fmt.Errorf("parse next water date %q: %w", nextWater, err)
	}
	p.LastWateredAt = nullTimePtr(lastWatered)
	return &p, nil
}

func (s *PlantStore) Create(name, location string, waterIntervalDays int, nextWaterDate time.Time) (*model.Plant, error) {
	result, err := s.db.Exec(
		`INSERT INTO plants (name, location, water_interval_days, next_water_date) VALUES (?, ?, ?, ?)`,
		name, location, waterIntervalDays, formatDate(nextWaterDate),
	)
	if err != nil {
		return nil, fmt.Errorf("insert plant: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PlantStore) GetByID(id int64) (*model.Plant, error) {
	row := s.db.QueryRow(`SELECT `+plantCols+` FROM plants WHERE id = ?`, id)
	p, err := scanPlant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plant: %w", err)
	}
	return p, nil
}

// NeedingWater returns plants whose next watering date is today or earlier.
func (s *PlantStore) NeedingWater(now time.Time) ([]model.Plant, error) {
	rows, err := s.db.Query(
		`SELECT `+plantCols+` FROM plants WHERE next_water_date <= ? ORDER BY next_water_date ASC`,
		formatDate(now),
	)
	if err != nil {
		return nil, fmt.Errorf("list plants needing water: %w", err)
	}
	defer rows.Close()

	var plants []model.Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plant: %w", err)
		}
		plants = append(plants, *p)
	}
	return plants, rows.Err()
}

// MarkWatered records a watering and schedules the next one from today.
func (s *PlantStore) MarkWatered(id int64, now time.Time) error {
	plant, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if plant == nil {
		return fmt.Errorf("plant %d not found", id)
	}

	next := now.AddDate(0, 0, plant.WaterIntervalDays)
	_, err = s.db.Exec(
		`UPDATE plants SET last_watered_at = ?, next_water_date = ? WHERE id = ?`,
		now.UTC(), formatDate(next), id,
	)
	if err != nil {
		return fmt.Errorf("mark plant watered: %w", err)
	}
	return nil
}
