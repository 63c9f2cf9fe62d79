package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rgoodwin/hearth/internal/model"
)

type AssetStore struct {
	db *sql.DB
}

func NewAssetStore(db *sql.DB) *AssetStore {
	return &AssetStore{db: db}
}

const assetCols = `id, name, category, purchased_at, warranty_expires, created_at`

func scanAsset(scanner interface{ Scan(...any) error }) (*model.Asset, error) {
	var a model.Asset
	var purchasedAt, warrantyExpires sql.NullString

	err := scanner.Scan(&a.ID, &a.Name, &a.Category, &purchasedAt, &warrantyExpires, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if a.PurchasedAt, err = parseDate(purchasedAt); err != nil {
		return nil, err
	}
	if a.WarrantyExpires, err = parseDate(warrantyExpires); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AssetStore) Create(name, category string, purchasedAt, warrantyExpires *time.Time) (*model.Asset, error) {
	result, err := s.db.Exec(
		`INSERT INTO assets (name, category, purchased_at, warranty_expires) VALUES (?, ?, ?, ?)`,
		name, category, dateArg(purchasedAt), dateArg(warrantyExpires),
	)
	if err != nil {
		return nil, fmt.Errorf("insert asset: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AssetStore) GetByID(id int64) (*model.Asset, error) {
	row := s.db.QueryRow(`SELECT `+assetCols+` FROM assets WHERE id = ?`, id)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

// ExpiringWarranties returns assets whose warranty expires within daysAhead
// days of now, each annotated with whole days until expiration.
func (s *AssetStore) ExpiringWarranties(now time.Time, daysAhead int) ([]model.ExpiringWarranty, error) {
	today := formatDate(now)
	horizon := formatDate(now.AddDate(0, 0, daysAhead))

	rows, err := s.db.Query(
		`SELECT `+assetCols+` FROM assets
		 WHERE warranty_expires IS NOT NULL AND warranty_expires >= ? AND warranty_expires <= ?
		 ORDER BY warranty_expires ASC`,
		today, horizon,
	)
	if err != nil {
		return nil, fmt.Errorf("list expiring warranties: %w", err)
	}
	defer rows.Close()

	todayDate, _ := time.Parse(dateLayout, today)

	var warranties []model.ExpiringWarranty
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		days := int(a.WarrantyExpires.Sub(todayDate).Hours() / 24)
		warranties = append(warranties, model.ExpiringWarranty{Asset: *a, DaysUntilExpiration: days})
	}
	return warranties, rows.Err()
}
