package model

import "time"

// Task priority values mirror what the UI offers: low, medium, high, urgent.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	ParentID    *int64     `json:"parent_id"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Chore struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	AssignedTo string     `json:"assigned_to"`
	DueDate    *time.Time `json:"due_date"`
	Completed  bool       `json:"completed"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type SeasonalTask struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	Category           string    `json:"category"`
	DueDate            time.Time `json:"due_date"`
	ReminderDaysBefore int       `json:"reminder_days_before"`
	Completed          bool      `json:"completed"`
	CreatedAt          time.Time `json:"created_at"`
}
