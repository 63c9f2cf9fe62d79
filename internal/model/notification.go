package model

import "time"

// Notification type constants
const (
	NotifTypeTaskDue             = "task_due"
	NotifTypeChoreDue            = "chore_due"
	NotifTypeGameLoanOverdue     = "game_loan_overdue"
	NotifTypeWarrantyExpiring    = "warranty_expiring"
	NotifTypePlantWatering       = "plant_watering"
	NotifTypePackageDelivery     = "package_delivery"
	NotifTypeBirthdayReminder    = "birthday_reminder"
	NotifTypeSeasonalTask        = "seasonal_task"
	NotifTypeCalendarReminder    = "calendar_reminder"
	NotifTypeAppointmentReminder = "appointment_reminder"
)

// Notification priority constants
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

type Notification struct {
	ID           int64      `json:"id"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	Icon         string     `json:"icon"`
	Priority     string     `json:"priority"`
	EntityType   *string    `json:"entity_type"`
	EntityID     *int64     `json:"entity_id"`
	IsRead       bool       `json:"is_read"`
	IsDismissed  bool       `json:"is_dismissed"`
	ScheduledFor *time.Time `json:"scheduled_for"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
	ReadAt       *time.Time `json:"read_at"`
}

// Visible reports whether the notification should appear in the feed at the
// given time: not dismissed, not scheduled for the future, not expired.
func (n *Notification) Visible(now time.Time) bool {
	if n.IsDismissed {
		return false
	}
	if n.ScheduledFor != nil && n.ScheduledFor.After(now) {
		return false
	}
	if n.ExpiresAt != nil && !n.ExpiresAt.After(now) {
		return false
	}
	return true
}

// NotificationInput holds the fields callers supply when creating a notification.
type NotificationInput struct {
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	Icon         string     `json:"icon"`
	Priority     string     `json:"priority"`
	EntityType   *string    `json:"entity_type"`
	EntityID     *int64     `json:"entity_id"`
	ScheduledFor *time.Time `json:"scheduled_for"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// Preferences is the household-wide notification settings singleton.
type Preferences struct {
	ID                      int64      `json:"id"`
	TaskDueAlerts           bool       `json:"task_due_alerts"`
	ChoreDueAlerts          bool       `json:"chore_due_alerts"`
	GameOverdueAlerts       bool       `json:"game_overdue_alerts"`
	WarrantyExpiringAlerts  bool       `json:"warranty_expiring_alerts"`
	PlantWateringAlerts     bool       `json:"plant_watering_alerts"`
	BirthdayReminders       bool       `json:"birthday_reminders"`
	SeasonalTaskAlerts      bool       `json:"seasonal_task_alerts"`
	PackageDeliveryAlerts   bool       `json:"package_delivery_alerts"`
	CalendarReminders       bool       `json:"calendar_reminders"`
	DigestEnabled           bool       `json:"digest_enabled"`
	DigestEmail             string     `json:"digest_email"`
	DigestTime              string     `json:"digest_time"`
	CalendarReminderMinutes int        `json:"calendar_reminder_minutes"`
	TaskReminderMinutes     int        `json:"task_reminder_minutes"`
	VacationMode            bool       `json:"vacation_mode"`
	VacationStartDate       *time.Time `json:"vacation_start_date"`
	VacationEndDate         *time.Time `json:"vacation_end_date"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// DigestLog records one attempted daily digest send, successful or not.
// A row with Success=true is the idempotency guard against re-sending.
type DigestLog struct {
	ID             int64     `json:"id"`
	DigestDate     time.Time `json:"digest_date"`
	EmailTo        string    `json:"email_to"`
	EventsCount    int       `json:"events_count"`
	TasksCount     int       `json:"tasks_count"`
	ChoresCount    int       `json:"chores_count"`
	ContentSummary string    `json:"content_summary"`
	Success        bool      `json:"success"`
	ErrorMessage   *string   `json:"error_message"`
	SentAt         time.Time `json:"sent_at"`
}
