package notify

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rgoodwin/hearth/internal/model"
)

// NotificationStore is the slice of the notification repository the engine
// needs. Narrow interface so tests can drive it against an in-memory db.
type NotificationStore interface {
	Create(input model.NotificationInput) (*model.Notification, error)
	CreatedToday(entityType string, entityID int64, notifType string, now time.Time) (bool, error)
	ActiveExists(entityType string, entityID int64, notifType string) (bool, error)
	GetPreferences() (*model.Preferences, error)
	ClearVacationMode() error
}

// Domain readers. Each exposes the one query the engine scans.
type (
	TaskReader interface {
		DueToday(now time.Time) ([]model.Task, error)
	}
	ChoreReader interface {
		DueToday(now time.Time) ([]model.Chore, error)
	}
	LoanReader interface {
		Overdue(now time.Time) ([]model.OverdueLoan, error)
		MarkReminderSent(id int64, now time.Time) error
	}
	WarrantyReader interface {
		ExpiringWarranties(now time.Time, daysAhead int) ([]model.ExpiringWarranty, error)
	}
	PlantReader interface {
		NeedingWater(now time.Time) ([]model.Plant, error)
	}
	BirthdayReader interface {
		UpcomingBirthdays(now time.Time, daysAhead int) ([]model.UpcomingBirthday, error)
	}
	SeasonalReader interface {
		NeedingReminders(now time.Time) ([]model.SeasonalTask, error)
	}
	ShipmentReader interface {
		ForNotification(now time.Time) ([]model.Shipment, error)
	}
	EventReader interface {
		EventsInWindow(start, end time.Time) ([]model.CalendarEvent, error)
	}
)

const (
	warrantyLookaheadDays = 30
	birthdayLookaheadDays = 7
)

// renotifyPolicy decides how often the same condition may produce a fresh
// notification for an entity.
type renotifyPolicy int

const (
	// policyDaily allows one notification per entity per calendar day.
	policyDaily renotifyPolicy = iota
	// policyUntilDismissed suppresses while an undismissed notification for
	// the entity exists, regardless of date.
	policyUntilDismissed
	// policyAlways never suppresses; cadence is the caller's problem.
	policyAlways
)

// draft is a notification the engine wants to create, keyed by the entity
// it refers to for dedup.
type draft struct {
	entityType string
	entityID   int64
	input      model.NotificationInput
}

// Engine scans the household's domains and turns due conditions into
// notifications, applying per-domain re-notify policies so the same
// condition doesn't fire every scheduler tick.
type Engine struct {
	notifications NotificationStore
	tasks         TaskReader
	chores        ChoreReader
	loans         LoanReader
	warranties    WarrantyReader
	plants        PlantReader
	birthdays     BirthdayReader
	seasonal      SeasonalReader
	shipments     ShipmentReader
	events        EventReader
	logger        *slog.Logger

	// onCreated, when set, is invoked for every persisted notification.
	// The server wires websocket broadcast and web push fan-out here.
	onCreated func(model.Notification)

	now func() time.Time
}

type EngineDeps struct {
	Notifications NotificationStore
	Tasks         TaskReader
	Chores        ChoreReader
	Loans         LoanReader
	Warranties    WarrantyReader
	Plants        PlantReader
	Birthdays     BirthdayReader
	Seasonal      SeasonalReader
	Shipments     ShipmentReader
	Events        EventReader
}

func NewEngine(deps EngineDeps, logger *slog.Logger) *Engine {
	return &Engine{
		notifications: deps.Notifications,
		tasks:         deps.Tasks,
		chores:        deps.Chores,
		loans:         deps.Loans,
		warranties:    deps.Warranties,
		plants:        deps.Plants,
		birthdays:     deps.Birthdays,
		seasonal:      deps.Seasonal,
		shipments:     deps.Shipments,
		events:        deps.Events,
		logger:        logger,
		now:           time.Now,
	}
}

// OnCreated registers a hook invoked after each notification is persisted.
func (e *Engine) OnCreated(fn func(model.Notification)) {
	e.onCreated = fn
}

// VacationSuppressed implements the vacation gate. With vacation mode on and
// no dates set, everything is suppressed until the user turns it off. With a
// date range, suppression holds only while today is inside the range; once
// the end date has passed the gate clears vacation mode itself and lets the
// current call proceed.
func (e *Engine) VacationSuppressed(now time.Time) (bool, error) {
	prefs, err := e.notifications.GetPreferences()
	if err != nil {
		return false, fmt.Errorf("get preferences: %w", err)
	}
	if !prefs.VacationMode {
		return false, nil
	}
	if prefs.VacationStartDate == nil && prefs.VacationEndDate == nil {
		return true, nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if prefs.VacationEndDate != nil && today.After(*prefs.VacationEndDate) {
		if err := e.notifications.ClearVacationMode(); err != nil {
			return false, fmt.Errorf("clear vacation mode: %w", err)
		}
		return false, nil
	}
	if prefs.VacationStartDate != nil && today.Before(*prefs.VacationStartDate) {
		return false, nil
	}
	return true, nil
}

// emit persists the drafts that pass the policy's dedup check and returns
// how many were created. Individual failures are logged and skipped so one
// bad item doesn't abort the rest of the scan.
func (e *Engine) emit(now time.Time, pol renotifyPolicy, drafts []draft) int {
	count := 0
	for _, d := range drafts {
		dup, err := e.alreadyNotified(now, pol, d)
		if err != nil {
			e.logger.Error("dedup check", "type", d.input.Type, "entity_id", d.entityID, "error", err)
			continue
		}
		if dup {
			continue
		}

		n, err := e.notifications.Create(d.input)
		if err != nil {
			e.logger.Error("create notification", "type", d.input.Type, "entity_id", d.entityID, "error", err)
			continue
		}
		count++
		if e.onCreated != nil {
			e.onCreated(*n)
		}
	}
	return count
}

func (e *Engine) alreadyNotified(now time.Time, pol renotifyPolicy, d draft) (bool, error) {
	switch pol {
	case policyDaily:
		return e.notifications.CreatedToday(d.entityType, d.entityID, d.input.Type, now)
	case policyUntilDismissed:
		return e.notifications.ActiveExists(d.entityType, d.entityID, d.input.Type)
	default:
		return false, nil
	}
}

func entityRef(entityType string, id int64) (*string, *int64) {
	return &entityType, &id
}

// GenerateTaskNotifications notifies for parent tasks due today, at most
// once per task per day. Task priority maps onto notification priority:
// urgent and high pass through, low passes through, everything else is
// normal.
func (e *Engine) GenerateTaskNotifications() (int, error) {
	now := e.now()
	prefs, err := e.notifications.GetPreferences()
	if err != nil {
		return 0, err
	}
	if !prefs.TaskDueAlerts {
		return 0, nil
	}
	if suppressed, err := e.VacationSuppressed(now); err != nil || suppressed {
		return 0, err
	}

	tasks, err := e.tasks.DueToday(now)
	if err != nil {
		return 0, fmt.Errorf("tasks due today: %w", err)
	}

	var drafts []draft
	for _, t := range tasks {
		priority := model.PriorityNormal
		switch t.Priority {
		case "urgent":
			priority = model.PriorityUrgent
		case "high":
			priority = model.PriorityHigh
		case "low":
			priority = model.PriorityLow
		}
		entityType, entityID := entityRef("task", t.ID)
		drafts = append(drafts, draft{
			entityType: "task",
			entityID:   t.ID,
			input: model.NotificationInput{
				Type:       model.NotifTypeTaskDue,
				Title:      "Task Due Today",
				Message:    t.Title,
				Icon:       "📋",
				Priority:   priority,
				EntityType: entityType,
				EntityID:   entityID,
			},
		})
	}
	return e.emit(now, policyDaily, drafts), nil
}

// GenerateChoreNotifications notifies for chores due today, once per chore
// per day.
func (e *Engine) GenerateChoreNotifications() (int, error) {
	now := e.now()
	prefs, err := e.notifications.GetPreferences()
	if err != nil {
		return 0, err
	}
	if !prefs.ChoreDueAlerts {
		return 0, nil
	}
	if suppressed, err := e.VacationSuppressed(now); err != nil || suppressed {
		return 0, err
	}

	chores, err := e.chores.DueToday(now)
	if err != nil {
		return 0, fmt.Errorf("chores due today: %w", err)
	}

	var drafts []draft
	for _, c := range chores {
		message := c.Title
		if c.AssignedTo != "" {
			message = fmt.Sprintf("%s (%s)", c.Title, c.AssignedTo)
		}
		entityType, entityID := entityRef("chore", c.ID)
		drafts = append(drafts, draft{
			entityType: "chore",
			entityID:   c.ID,
			input: model.NotificationInput{
				Type:       model.NotifTypeChoreDue,
				Title:      "Chore Due Today",
				Message:    message,
				Icon:       "🧹",
				Priority:   model.PriorityNormal,
				EntityType: entityType,
				EntityID:   entityID,
			},
		})
	}
	return e.emit(now, policyDaily, drafts), nil
}

// GenerateLoanNotifications re-notifies for every currently overdue game
// loan on every call. The scheduler invokes it weekly, not on the 15-minute
// tick, so the cadence lives with the caller. Each reminded loan is marked
// in the loan store.
func (e *Engine) GenerateLoanNotifications() (int, error) {
	now := e.now()
	prefs, err := e.notifications.GetPreferences()
	if err != nil {
		return 0, err
	}
	if !prefs.GameOverdueAlerts {
		return 0, nil
	}
	if suppressed, err := e.VacationSuppressed(now); err != nil || suppressed {
		return 0, err
	}

	loans, err := e.loans.Overdue(now)
	if err != nil {
		return 0, fmt.Errorf("overdue loans: %w", err)
	}

	var drafts []draft
	for _, l := range loans {
		entityType, entityID := entityRef("game_loan", l.ID)
		drafts = append(drafts, draft{
			entityType: "game_loan",
			entityID:   l.ID,
			input: model.NotificationInput{
				Type:       model.NotifTypeGameLoanOverdue,
				Title:      "Game Loan Overdue",
				Message:    fmt.Sprintf("%s has been with %s for %d days", l.GameTitle, l.BorrowerName, l.DaysOverdue),
				Icon:       "🎲",
				Priority:   model.PriorityHigh,
				EntityType: entityType,
				EntityID:   entityID,
			},
		})
	}

	count := e.emit(now, policyAlways, drafts)
	for _, l := range loans {
		if err := e.loans.MarkReminderSent(l.ID, now); err != nil {
			e.logger.Error("mark loan reminder sent", "loan_id", l.ID, "error", err)
		}
	}
	return count, nil
}

// GenerateWarrantyNotifications notifies for warranties expiring within 30
// days, once per asset per day. Seven days or fewer remaining is high
// priority.
func (e *Engine) GenerateWarrantyNotifications() (int, error) {
	now := e.now()
	prefs, err := e.notifications.GetPreferences()
	if err != nil {
		return 0, err
	}
	if !prefs.WarrantyExpiringAlerts {
		return 0, nil
	}
	if suppressed, err := e.VacationSuppressed(now); err != nil || suppressed {
		return 0, err
	}

	warranties, err := e.warranties.ExpiringWarranties(now, warrantyLookaheadDays)
	if err != nil {
		return 0, fmt.Errorf("expiring warranties: %w", err)
	}

	var drafts []draft
	for _, w := range warranties {
		priority := model.PriorityNormal
		if w.DaysUntilExpiration <= 7 {
			priority = model.PriorityHigh
		}
		message := fmt.Sprintf("%s warranty expires in %d days", w.Name, w.DaysUntilExpiration)
		if w.DaysUntilExpiration == 0 {
			message = fmt.Sprintf("%s warranty expires today", w.Name)
		}
		entityType, entityID := entityRef("asset", w.ID)
		drafts = append(drafts, draft{
			entityType: "asset",
			entityID:   w.ID,
			input: model.NotificationInput{
				Type:       model.NotifTypeWarrantyExpiring,
				Title:      "Warranty Expiring Soon",
				Message:    message,
				Icon:       "🛡️",
				Priority:   priority,
				EntityType: entityType,
				EntityID:   entityID,
			},
		})
	}
	return e.emit(now, policyDaily, drafts), nil
}

// GeneratePlantNotifications reminds about thirsty plants. A plant keeps its
// one active reminder until it is dismissed or the plant is watered; only
// then can a fresh reminder appear.
func (e *Engine) GeneratePlantNotifications() (int, error) {
	now := e.now()
	prefs, err := e.notifications.GetPreferences()
	if err != nil {
		return 0, err
	}
	if !prefs.PlantWateringAlerts {
		return 0, nil
	}
	if suppressed, err := e.VacationSuppressed(now); err != nil || suppressed {
		return 0, err
	}

	plants, err := e.plants.NeedingWater(now)
	if err != nil {
		return 0, fmt.Errorf("plants needing water: %w", err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var drafts []draft
	for _, p := range plants {
		overdueDays := int(today.Sub(p.NextWaterDate).Hours() / 24)

		title := "Water Your Plant"
		message := fmt.Sprintf("%s needs water today", p.Name)
		priority := model.PriorityNormal
		if overdueDays > 0 {
			title = "Plant Needs Water!"
			message = fmt.Sprintf("%s is %d days overdue for watering", p.Name, overdueDays)
			if overdueDays > 2 {
				priority = model.PriorityHigh
			}
		}

		entityType, entityID := entityRef("plant", p.ID)
		drafts = append(drafts, draft{
			entityType: "plant",
			entityID:   p.ID,
			input: model.NotificationInput{
				Type:       model.NotifTypePlantWatering,
				Title:      title,
				Message:    message,
				Icon:       "🪴",
				Priority:   priority,
				EntityType: entityType,
				EntityID:   entityID,
			},
		})
	}
	return e.emit(now, policyUntilDismissed, drafts), nil
}

// GenerateBirthdayNotifications notifies for birthdays in the next seven
// days, once per contact per day. Today or tomorrow is high priority.
func (e *Engine) GenerateBirthdayNotifications() (int, error) {
	now := e.now()
	prefs, err := e.notifications.GetPreferences()
	if err != nil {
		return 0, err
	}
	if !prefs.BirthdayReminders {
		return 0, nil
	}
	if suppressed, err := e.VacationSuppressed(now); err != nil || suppressed {
		return 0, err
	}

	birthdays, err := e.birthdays.UpcomingBirthdays(now, birthdayLookaheadDays)
	if err != nil {
		return 0, fmt.Errorf("upcoming birthdays: %w", err)
	}

	var drafts []draft
	for _, b := range birthdays {
		title := "Upcoming Birthday"
		message := fmt.Sprintf("%s's birthday is in %d days", b.Name, b.DaysUntil)
		priority := model.PriorityNormal
		switch {
		case b.DaysUntil == 0:
			title = "Birthday Today!"
			message = fmt.Sprintf("It's %s's birthday today!", b.Name)
			priority = model.PriorityHigh
		case b.DaysUntil == 1:
			message = fmt.Sprintf("%s's birthday is tomorrow", b.Name)
			priority = model.PriorityHigh
		}

		entityType, entityID := entityRef("contact", b.ID)
		drafts = append(drafts, draft{
			entityType: "contact",
			entityID:   b.ID,
			input: model.NotificationInput{
				Type:       model.NotifTypeBirthdayReminder,
				Title:      title,
				Message:    message,
				Icon:       "🎂",
				Priority:   priority,
				EntityType: entityType,
				EntityID:   entityID,
			},
		})
	}
	return e.emit(now, policyDaily, drafts), nil
}

// GenerateSeasonalNotifications notifies for seasonal tasks inside their
// reminder window, once per task per day.
//
// TODO: honor the seasonal_task_alerts preference once the intended toggle
// behavior is confirmed; the setting currently exists but is not consulted.
func (e *Engine) GenerateSeasonalNotifications() (int, error) {
	now := e.now()
	if suppressed, err := e.VacationSuppressed(now); err != nil || suppressed {
		return 0, err
	}

	tasks, err := e.seasonal.NeedingReminders(now)
	if err != nil {
		return 0, fmt.Errorf("seasonal tasks needing reminders: %w", err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var drafts []draft
	for _, t := range tasks {
		dueIn := int(t.DueDate.Sub(today).Hours() / 24)
		priority := model.PriorityNormal
		if dueIn <= 1 {
			priority = model.PriorityHigh
		}
		message := fmt.Sprintf("%s is due in %d days", t.Title, dueIn)
		if dueIn <= 0 {
			message = fmt.Sprintf("%s is due", t.Title)
		}

		entityType, entityID := entityRef("seasonal_task", t.ID)
		drafts = append(drafts, draft{
			entityType: "seasonal_task",
			entityID:   t.ID,
			input: model.NotificationInput{
				Type:       model.NotifTypeSeasonalTask,
				Title:      fmt.Sprintf("Seasonal Task: %s", t.Category),
				Message:    message,
				Icon:       "🍂",
				Priority:   priority,
				EntityType: entityType,
				EntityID:   entityID,
			},
		})
	}
	return e.emit(now, policyDaily, drafts), nil
}

// GeneratePackageNotifications notifies for packages arriving or stuck in
// transit, once per shipment per day.
func (e *Engine) GeneratePackageNotifications() (int, error) {
	now := e.now()
	prefs, err := e.notifications.GetPreferences()
	if err != nil {
		return 0, err
	}
	if !prefs.PackageDeliveryAlerts {
		return 0, nil
	}
	if suppressed, err := e.VacationSuppressed(now); err != nil || suppressed {
		return 0, err
	}

	shipments, err := e.shipments.ForNotification(now)
	if err != nil {
		return 0, fmt.Errorf("shipments for notification: %w", err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var drafts []draft
	for _, sh := range shipments {
		name := sh.Description
		if name == "" {
			name = fmt.Sprintf("%s package %s", sh.Carrier, sh.TrackingNumber)
		}

		var title, message string
		priority := model.PriorityNormal
		switch {
		case sh.ExpectedDate.Equal(today):
			title = "Package Arriving Today!"
			message = fmt.Sprintf("%s is out for delivery", name)
			priority = model.PriorityHigh
		case sh.ExpectedDate.Before(today):
			title = "Package May Be Delayed"
			message = fmt.Sprintf("%s was expected %s", name, sh.ExpectedDate.Format("Jan 2"))
			priority = model.PriorityHigh
		default:
			title = "Package Arriving Soon"
			message = fmt.Sprintf("%s arrives %s", name, sh.ExpectedDate.Format("Jan 2"))
		}

		entityType, entityID := entityRef("shipment", sh.ID)
		drafts = append(drafts, draft{
			entityType: "shipment",
			entityID:   sh.ID,
			input: model.NotificationInput{
				Type:       model.NotifTypePackageDelivery,
				Title:      title,
				Message:    message,
				Icon:       "📦",
				Priority:   priority,
				EntityType: entityType,
				EntityID:   entityID,
			},
		})
	}
	return e.emit(now, policyDaily, drafts), nil
}

// GenerateCalendarNotifications reminds about events starting within the
// configured lead time. Cached events carry stable local IDs, so dedup is
// the ordinary per-entity daily policy rather than matching message text.
func (e *Engine) GenerateCalendarNotifications() (int, error) {
	now := e.now()
	prefs, err := e.notifications.GetPreferences()
	if err != nil {
		return 0, err
	}
	if !prefs.CalendarReminders {
		return 0, nil
	}
	if suppressed, err := e.VacationSuppressed(now); err != nil || suppressed {
		return 0, err
	}

	window := time.Duration(prefs.CalendarReminderMinutes) * time.Minute
	events, err := e.events.EventsInWindow(now, now.Add(window))
	if err != nil {
		return 0, fmt.Errorf("events in window: %w", err)
	}

	var drafts []draft
	for _, ev := range events {
		expires := ev.EndsAt
		entityType, entityID := entityRef("calendar_event", ev.ID)
		drafts = append(drafts, draft{
			entityType: "calendar_event",
			entityID:   ev.ID,
			input: model.NotificationInput{
				Type:       model.NotifTypeCalendarReminder,
				Title:      "Upcoming Event",
				Message:    fmt.Sprintf("%s starts at %s", ev.Summary, ev.StartsAt.Format("3:04 PM")),
				Icon:       "📅",
				Priority:   model.PriorityNormal,
				EntityType: entityType,
				EntityID:   entityID,
				ExpiresAt:  &expires,
			},
		})
	}
	return e.emit(now, policyDaily, drafts), nil
}

// CheckDue runs the generators that belong on the frequent tick — everything
// except game loans, which re-notify unconditionally and are driven weekly.
// Each domain runs independently so one failure doesn't starve the rest.
func (e *Engine) CheckDue() int {
	return e.runGenerators([]namedGenerator{
		{"task_due", e.GenerateTaskNotifications},
		{"chore_due", e.GenerateChoreNotifications},
		{"warranty_expiring", e.GenerateWarrantyNotifications},
		{"plant_watering", e.GeneratePlantNotifications},
		{"birthday_reminder", e.GenerateBirthdayNotifications},
		{"seasonal_task", e.GenerateSeasonalNotifications},
		{"package_delivery", e.GeneratePackageNotifications},
		{"calendar_reminder", e.GenerateCalendarNotifications},
	})
}

// CheckAll runs every generator including game loans. Used by the manual
// "run now" action.
func (e *Engine) CheckAll() int {
	count := e.CheckDue()
	count += e.runGenerators([]namedGenerator{
		{"game_loan_overdue", e.GenerateLoanNotifications},
	})
	return count
}

type namedGenerator struct {
	name string
	fn   func() (int, error)
}

func (e *Engine) runGenerators(generators []namedGenerator) int {
	total := 0
	for _, g := range generators {
		count, err := g.fn()
		if err != nil {
			e.logger.Error("notification generator", "domain", g.name, "error", err)
			continue
		}
		total += count
	}
	return total
}
