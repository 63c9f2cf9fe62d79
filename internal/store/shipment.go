package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rgoodwin/hearth/internal/model"
)

// shipmentLookahead is how many days before the expected date a package
// starts showing up in notification scans.
const shipmentLookahead = 3

type ShipmentStore struct {
	db *sql.DB
}

func NewShipmentStore(db *sql.DB) *ShipmentStore {
	return &ShipmentStore{db: db}
}

const shipmentCols = `id, carrier, tracking_number, description, expected_date, delivered_at, created_at, updated_at`

func scanShipment(scanner interface{ Scan(...any) error }) (*model.Shipment, error) {
	var sh model.Shipment
	var expected sql.NullString
	var delivered sql.NullTime

	err := scanner.Scan(&sh.ID, &sh.Carrier, &sh.TrackingNumber, &sh.Description, &expected, &delivered, &sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if sh.ExpectedDate, err = parseDate(expected); err != nil {
		return nil, err
	}
	sh.DeliveredAt = nullTimePtr(delivered)
	return &sh, nil
}

func (s *ShipmentStore) Create(carrier, trackingNumber, description string, expectedDate *time.Time) (*model.Shipment, error) {
	result, err := s.db.Exec(
		`INSERT INTO shipments (carrier, tracking_number, description, expected_date) VALUES (?, ?, ?, ?)`,
		carrier, trackingNumber, description, dateArg(expectedDate),
	)
	if err != nil {
		return nil, fmt.Errorf("insert shipment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// UpsertByTracking inserts a shipment or refreshes carrier, description, and
// expected date on an existing tracking number. The email sync job writes
// through this so re-parsing the same message is harmless.
func (s *ShipmentStore) UpsertByTracking(carrier, trackingNumber, description string, expectedDate *time.Time) (*model.Shipment, error) {
	_, err := s.db.Exec(
		`INSERT INTO shipments (carrier, tracking_number, description, expected_date)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(tracking_number) DO UPDATE SET
			carrier = excluded.carrier,
			description = excluded.description,
			expected_date = excluded.expected_date,
			updated_at = CURRENT_TIMESTAMP`,
		carrier, trackingNumber, description, dateArg(expectedDate),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert shipment: %w", err)
	}
	return s.getByTracking(trackingNumber)
}

func (s *ShipmentStore) GetByID(id int64) (*model.Shipment, error) {
	row := s.db.QueryRow(`SELECT `+shipmentCols+` FROM shipments WHERE id = ?`, id)
	sh, err := scanShipment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	return sh, nil
}

func (s *ShipmentStore) getByTracking(trackingNumber string) (*model.Shipment, error) {
	row := s.db.QueryRow(`SELECT `+shipmentCols+` FROM shipments WHERE tracking_number = ?`, trackingNumber)
	sh, err := scanShipment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shipment by tracking: %w", err)
	}
	return sh, nil
}

// ForNotification returns undelivered shipments expected within the
// lookahead window, including ones already past their expected date.
func (s *ShipmentStore) ForNotification(now time.Time) ([]model.Shipment, error) {
	horizon := formatDate(now.AddDate(0, 0, shipmentLookahead))
	rows, err := s.db.Query(
		`SELECT `+shipmentCols+` FROM shipments
		 WHERE delivered_at IS NULL AND expected_date IS NOT NULL AND expected_date <= ?
		 ORDER BY expected_date ASC`,
		horizon,
	)
	if err != nil {
		return nil, fmt.Errorf("list shipments for notification: %w", err)
	}
	defer rows.Close()

	var shipments []model.Shipment
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		shipments = append(shipments, *sh)
	}
	return shipments, rows.Err()
}

func (s *ShipmentStore) MarkDelivered(id int64, now time.Time) error {
	_, err := s.db.Exec(
		`UPDATE shipments SET delivered_at = ?, updated_at = ? WHERE id = ?`,
		now.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark shipment delivered: %w", err)
	}
	return nil
}
