package store

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/rgoodwin/hearth/internal/model"
)

type ContactStore struct {
	db *sql.DB
}

func NewContactStore(db *sql.DB) *ContactStore {
	return &ContactStore{db: db}
}

const contactCols = `id, name, email, birthday, created_at`

func scanContact(scanner interface{ Scan(...any) error }) (*model.Contact, error) {
	var c model.Contact
	var birthday sql.NullString

	err := scanner.Scan(&c.ID, &c.Name, &c.Email, &birthday, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if c.Birthday, err = parseDate(birthday); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ContactStore) Create(name, email string, birthday *time.Time) (*model.Contact, error) {
	result, err := s.db.Exec(
		`INSERT INTO contacts (name, email, birthday) VALUES (?, ?, ?)`,
		name, email, dateArg(birthday),
	)
	if err != nil {
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ContactStore) GetByID(id int64) (*model.Contact, error) {
	row := s.db.QueryRow(`SELECT `+contactCols+` FROM contacts WHERE id = ?`, id)
	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

// UpcomingBirthdays returns contacts whose next birthday falls within
// daysAhead days of now, annotated with days until. Birthday years are
// ignored; only month and day matter.
func (s *ContactStore) UpcomingBirthdays(now time.Time, daysAhead int) ([]model.UpcomingBirthday, error) {
	rows, err := s.db.Query(`SELECT ` + contactCols + ` FROM contacts WHERE birthday IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("list contacts with birthdays: %w", err)
	}
	defer rows.Close()

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var upcoming []model.UpcomingBirthday
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}

		next := time.Date(today.Year(), c.Birthday.Month(), c.Birthday.Day(), 0, 0, 0, 0, time.UTC)
		if next.Before(today) {
			next = next.AddDate(1, 0, 0)
		}
		days := int(next.Sub(today).Hours() / 24)
		if days <= daysAhead {
			upcoming = append(upcoming, model.UpcomingBirthday{Contact: *c, DaysUntil: days})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].DaysUntil < upcoming[j].DaysUntil })
	return upcoming, nil
}
