package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rgoodwin/hearth/internal/model"
)

type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

const notificationCols = `id, type, title, message, icon, priority, entity_type, entity_id,
	is_read, is_dismissed, scheduled_for, expires_at, created_at, read_at`

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	var entityType sql.NullString
	var entityID sql.NullInt64
	var isRead, isDismissed int
	var scheduledFor, expiresAt, readAt sql.NullTime

	err := scanner.Scan(
		&n.ID, &n.Type, &n.Title, &n.Message, &n.Icon, &n.Priority,
		&entityType, &entityID, &isRead, &isDismissed,
		&scheduledFor, &expiresAt, &n.CreatedAt, &readAt,
	)
	if err != nil {
		return nil, err
	}

	if entityType.Valid {
		n.EntityType = &entityType.String
	}
	if entityID.Valid {
		n.EntityID = &entityID.Int64
	}
	n.IsRead = isRead != 0
	n.IsDismissed = isDismissed != 0
	n.ScheduledFor = nullTimePtr(scheduledFor)
	n.ExpiresAt = nullTimePtr(expiresAt)
	n.ReadAt = nullTimePtr(readAt)
	return &n, nil
}

func (s *NotificationStore) Create(input model.NotificationInput) (*model.Notification, error) {
	var entityType any
	if input.EntityType != nil {
		entityType = *input.EntityType
	}
	var entityID any
	if input.EntityID != nil {
		entityID = *input.EntityID
	}

	result, err := s.db.Exec(
		`INSERT INTO notifications (type, title, message, icon, priority, entity_type, entity_id, scheduled_for, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		input.Type, input.Title, input.Message, input.Icon, input.Priority,
		entityType, entityID, timeArg(input.ScheduledFor), timeArg(input.ExpiresAt), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *NotificationStore) GetByID(id int64) (*model.Notification, error) {
	row := s.db.QueryRow(`SELECT `+notificationCols+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// ListVisible returns notifications that should appear in the feed: not
// dismissed, not scheduled for the future, not expired.
func (s *NotificationStore) ListVisible(now time.Time) ([]model.Notification, error) {
	rows, err := s.db.Query(
		`SELECT `+notificationCols+` FROM notifications
		 WHERE is_dismissed = 0
		   AND (scheduled_for IS NULL OR scheduled_for <= ?)
		   AND (expires_at IS NULL OR expires_at > ?)
		 ORDER BY created_at DESC`,
		now.UTC(), now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list visible notifications: %w", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (s *NotificationStore) FindByEntity(entityType string, entityID int64) ([]model.Notification, error) {
	rows, err := s.db.Query(
		`SELECT `+notificationCols+` FROM notifications
		 WHERE entity_type = ? AND entity_id = ? ORDER BY created_at DESC`,
		entityType, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("find notifications by entity: %w", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

// CreatedToday reports whether a notification of the given type already
// exists for the entity with created_at on the same calendar date as now.
func (s *NotificationStore) CreatedToday(entityType string, entityID int64, notifType string, now time.Time) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notifications
		 WHERE entity_type = ? AND entity_id = ? AND type = ? AND date(created_at) = ?`,
		entityType, entityID, notifType, formatDate(now),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check notification created today: %w", err)
	}
	return count > 0, nil
}

// ActiveExists reports whether a non-dismissed notification of the given
// type exists for the entity, regardless of date.
func (s *NotificationStore) ActiveExists(entityType string, entityID int64, notifType string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notifications
		 WHERE entity_type = ? AND entity_id = ? AND type = ? AND is_dismissed = 0`,
		entityType, entityID, notifType,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check active notification: %w", err)
	}
	return count > 0, nil
}

// MessageExistsToday reports whether a notification of the given type with
// the exact message text was created on the same calendar date as now.
func (s *NotificationStore) MessageExistsToday(notifType, message string, now time.Time) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notifications
		 WHERE type = ? AND message = ? AND date(created_at) = ?`,
		notifType, message, formatDate(now),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check notification message today: %w", err)
	}
	return count > 0, nil
}

func (s *NotificationStore) MarkRead(id int64, now time.Time) error {
	_, err := s.db.Exec(
		`UPDATE notifications SET is_read = 1, read_at = ? WHERE id = ?`,
		now.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationStore) Dismiss(id int64) error {
	_, err := s.db.Exec(`UPDATE notifications SET is_dismissed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("dismiss notification: %w", err)
	}
	return nil
}

// DeleteExpired removes notifications whose expiry has passed and returns
// how many were deleted.
func (s *NotificationStore) DeleteExpired(now time.Time) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM notifications WHERE expires_at IS NOT NULL AND expires_at < ?`,
		now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired notifications: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

func scanNotifications(rows *sql.Rows) ([]model.Notification, error) {
	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

// --- Preferences ---

const preferencesCols = `id, task_due_alerts, chore_due_alerts, game_overdue_alerts,
	warranty_expiring_alerts, plant_watering_alerts, birthday_reminders,
	seasonal_task_alerts, package_delivery_alerts, calendar_reminders,
	digest_enabled, digest_email, digest_time, calendar_reminder_minutes,
	task_reminder_minutes, vacation_mode, vacation_start_date, vacation_end_date, updated_at`

// GetPreferences returns the household preferences singleton, inserting the
// default row on first access.
func (s *NotificationStore) GetPreferences() (*model.Preferences, error) {
	p, err := s.getPreferences()
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	_, err = s.db.Exec(`INSERT OR IGNORE INTO notification_preferences (id) VALUES (1)`)
	if err != nil {
		return nil, fmt.Errorf("insert default preferences: %w", err)
	}
	return s.getPreferences()
}

func (s *NotificationStore) getPreferences() (*model.Preferences, error) {
	row := s.db.QueryRow(`SELECT ` + preferencesCols + ` FROM notification_preferences WHERE id = 1`)

	var p model.Preferences
	var taskDue, choreDue, gameOverdue, warranty, plant, birthday, seasonal, pkg, calendar int
	var digestEnabled, vacationMode int
	var vacationStart, vacationEnd sql.NullString

	err := row.Scan(
		&p.ID, &taskDue, &choreDue, &gameOverdue, &warranty, &plant, &birthday,
		&seasonal, &pkg, &calendar, &digestEnabled, &p.DigestEmail, &p.DigestTime,
		&p.CalendarReminderMinutes, &p.TaskReminderMinutes, &vacationMode,
		&vacationStart, &vacationEnd, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	p.TaskDueAlerts = taskDue != 0
	p.ChoreDueAlerts = choreDue != 0
	p.GameOverdueAlerts = gameOverdue != 0
	p.WarrantyExpiringAlerts = warranty != 0
	p.PlantWateringAlerts = plant != 0
	p.BirthdayReminders = birthday != 0
	p.SeasonalTaskAlerts = seasonal != 0
	p.PackageDeliveryAlerts = pkg != 0
	p.CalendarReminders = calendar != 0
	p.DigestEnabled = digestEnabled != 0
	p.VacationMode = vacationMode != 0

	if p.VacationStartDate, err = parseDate(vacationStart); err != nil {
		return nil, err
	}
	if p.VacationEndDate, err = parseDate(vacationEnd); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *NotificationStore) UpdatePreferences(p *model.Preferences) (*model.Preferences, error) {
	_, err := s.db.Exec(
		`UPDATE notification_preferences SET
			task_due_alerts = ?, chore_due_alerts = ?, game_overdue_alerts = ?,
			warranty_expiring_alerts = ?, plant_watering_alerts = ?, birthday_reminders = ?,
			seasonal_task_alerts = ?, package_delivery_alerts = ?, calendar_reminders = ?,
			digest_enabled = ?, digest_email = ?, digest_time = ?,
			calendar_reminder_minutes = ?, task_reminder_minutes = ?,
			vacation_mode = ?, vacation_start_date = ?, vacation_end_date = ?,
			updated_at = ?
		 WHERE id = 1`,
		boolInt(p.TaskDueAlerts), boolInt(p.ChoreDueAlerts), boolInt(p.GameOverdueAlerts),
		boolInt(p.WarrantyExpiringAlerts), boolInt(p.PlantWateringAlerts), boolInt(p.BirthdayReminders),
		boolInt(p.SeasonalTaskAlerts), boolInt(p.PackageDeliveryAlerts), boolInt(p.CalendarReminders),
		boolInt(p.DigestEnabled), p.DigestEmail, p.DigestTime,
		p.CalendarReminderMinutes, p.TaskReminderMinutes,
		boolInt(p.VacationMode), dateArg(p.VacationStartDate), dateArg(p.VacationEndDate),
		time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return s.GetPreferences()
}

// ClearVacationMode disables vacation mode and clears both dates. Called by
// the vacation gate when the end date has passed.
func (s *NotificationStore) ClearVacationMode() error {
	_, err := s.db.Exec(
		`UPDATE notification_preferences
		 SET vacation_mode = 0, vacation_start_date = NULL, vacation_end_date = NULL, updated_at = ?
		 WHERE id = 1`,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("clear vacation mode: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- Digest log ---

func (s *NotificationStore) CreateDigestLog(entry model.DigestLog) error {
	var errMsg any
	if entry.ErrorMessage != nil {
		errMsg = *entry.ErrorMessage
	}
	_, err := s.db.Exec(
		`INSERT INTO digest_log (digest_date, email_to, events_count, tasks_count, chores_count, content_summary, success, error_message, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatDate(entry.DigestDate), entry.EmailTo, entry.EventsCount, entry.TasksCount,
		entry.ChoresCount, entry.ContentSummary, boolInt(entry.Success), errMsg, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert digest log: %w", err)
	}
	return nil
}

// HasDigestBeenSent reports whether a successful digest was already logged
// for the given date and address.
func (s *NotificationStore) HasDigestBeenSent(date time.Time, email string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM digest_log WHERE digest_date = ? AND email_to = ? AND success = 1`,
		formatDate(date), email,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check digest sent: %w", err)
	}
	return count > 0, nil
}
