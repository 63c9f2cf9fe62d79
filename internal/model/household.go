package model

import "time"

// GameLoan tracks a board or video game lent out to a friend.
type GameLoan struct {
	ID             int64      `json:"id"`
	GameTitle      string     `json:"game_title"`
	BorrowerName   string     `json:"borrower_name"`
	LoanedAt       time.Time  `json:"loaned_at"`
	ReturnedAt     *time.Time `json:"returned_at"`
	ReminderSentAt *time.Time `json:"reminder_sent_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// OverdueLoan is a GameLoan annotated with how many days it has been out
// past the loan period.
type OverdueLoan struct {
	GameLoan
	DaysOverdue int `json:"days_overdue"`
}

type Asset struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Category        string     `json:"category"`
	PurchasedAt     *time.Time `json:"purchased_at"`
	WarrantyExpires *time.Time `json:"warranty_expires"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ExpiringWarranty is an Asset annotated with days remaining on its warranty.
type ExpiringWarranty struct {
	Asset
	DaysUntilExpiration int `json:"days_until_expiration"`
}

type Plant struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Location          string     `json:"location"`
	WaterIntervalDays int        `json:"water_interval_days"`
	NextWaterDate     time.Time  `json:"next_water_date"`
	LastWateredAt     *time.Time `json:"last_watered_at"`
	CreatedAt         time.Time  `json:"created_at"`
}

type Contact struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Birthday  *time.Time `json:"birthday"`
	CreatedAt time.Time  `json:"created_at"`
}

// UpcomingBirthday is a Contact annotated with days until their next birthday.
type UpcomingBirthday struct {
	Contact
	DaysUntil int `json:"days_until"`
}

type Shipment struct {
	ID             int64      `json:"id"`
	Carrier        string     `json:"carrier"`
	TrackingNumber string     `json:"tracking_number"`
	Description    string     `json:"description"`
	ExpectedDate   *time.Time `json:"expected_date"`
	DeliveredAt    *time.Time `json:"delivered_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CalendarEvent is a locally cached copy of an event from an external
// calendar. The external string ID is kept for sync; the local int64 ID is
// the stable key notifications dedup against.
type CalendarEvent struct {
	ID         int64     `json:"id"`
	CalendarID string    `json:"calendar_id"`
	ExternalID string    `json:"external_id"`
	Summary    string    `json:"summary"`
	Location   string    `json:"location"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	AllDay     bool      `json:"all_day"`
	SyncedAt   time.Time `json:"synced_at"`
}
