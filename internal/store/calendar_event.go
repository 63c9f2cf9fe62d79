package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rgoodwin/hearth/internal/model"
)

// CalendarStore holds locally cached copies of events synced from external
// calendars. The cache gives each event a stable local ID that notification
// dedup can key on, since external calendar IDs are opaque strings.
type CalendarStore struct {
	db *sql.DB
}

func NewCalendarStore(db *sql.DB) *CalendarStore {
	return &CalendarStore{db: db}
}

const eventCols = `id, calendar_id, external_id, summary, location, starts_at, ends_at, all_day, synced_at`

func scanEvent(scanner interface{ Scan(...any) error }) (*model.CalendarEvent, error) {
	var e model.CalendarEvent
	var allDay int

	err := scanner.Scan(&e.ID, &e.CalendarID, &e.ExternalID, &e.Summary, &e.Location, &e.StartsAt, &e.EndsAt, &allDay, &e.SyncedAt)
	if err != nil {
		return nil, err
	}
	e.AllDay = allDay != 0
	return &e, nil
}

// UpsertByExternalID inserts or refreshes a cached event keyed on
// (calendar_id, external_id).
func (s *CalendarStore) UpsertByExternalID(calendarID, externalID, summary, location string, startsAt, endsAt time.Time, allDay bool) (*model.CalendarEvent, error) {
	_, err := s.db.Exec(
		`INSERT INTO calendar_events (calendar_id, external_id, summary, location, starts_at, ends_at, all_day, synced_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(calendar_id, external_id) DO UPDATE SET
			summary = excluded.summary,
			location = excluded.location,
			starts_at = excluded.starts_at,
			ends_at = excluded.ends_at,
			all_day = excluded.all_day,
			synced_at = excluded.synced_at`,
		calendarID, externalID, summary, location, startsAt.UTC(), endsAt.UTC(), boolInt(allDay), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert calendar event: %w", err)
	}
	return s.getByExternalID(calendarID, externalID)
}

func (s *CalendarStore) getByExternalID(calendarID, externalID string) (*model.CalendarEvent, error) {
	row := s.db.QueryRow(
		`SELECT `+eventCols+` FROM calendar_events WHERE calendar_id = ? AND external_id = ?`,
		calendarID, externalID,
	)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get calendar event: %w", err)
	}
	return e, nil
}

// EventsInWindow returns cached events from all calendars starting in
// [start, end).
func (s *CalendarStore) EventsInWindow(start, end time.Time) ([]model.CalendarEvent, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM calendar_events
		 WHERE starts_at >= ? AND starts_at < ? ORDER BY starts_at ASC`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list calendar events in window: %w", err)
	}
	defer rows.Close()

	var events []model.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
