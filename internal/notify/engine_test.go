package notify

import (
	"log/slog"
	"testing"
	"time"

	"github.com/rgoodwin/hearth/internal/database"
	"github.com/rgoodwin/hearth/internal/model"
	"github.com/rgoodwin/hearth/internal/store"
)

type engineFixture struct {
	engine        *Engine
	notifications *store.NotificationStore
	tasks         *store.TaskStore
	chores        *store.ChoreStore
	loans         *store.LoanStore
	assets        *store.AssetStore
	plants        *store.PlantStore
	contacts      *store.ContactStore
	seasonal      *store.SeasonalTaskStore
	shipments     *store.ShipmentStore
	events        *store.CalendarStore
}

func setupEngine(t *testing.T) *engineFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &engineFixture{
		notifications: store.NewNotificationStore(db),
		tasks:         store.NewTaskStore(db),
		chores:        store.NewChoreStore(db),
		loans:         store.NewLoanStore(db),
		assets:        store.NewAssetStore(db),
		plants:        store.NewPlantStore(db),
		contacts:      store.NewContactStore(db),
		seasonal:      store.NewSeasonalTaskStore(db),
		shipments:     store.NewShipmentStore(db),
		events:        store.NewCalendarStore(db),
	}
	f.engine = NewEngine(EngineDeps{
		Notifications: f.notifications,
		Tasks:         f.tasks,
		Chores:        f.chores,
		Loans:         f.loans,
		Warranties:    f.assets,
		Plants:        f.plants,
		Birthdays:     f.contacts,
		Seasonal:      f.seasonal,
		Shipments:     f.shipments,
		Events:        f.events,
	}, slog.Default())
	return f
}

func (f *engineFixture) setPrefs(t *testing.T, mutate func(p *model.Preferences)) {
	t.Helper()
	prefs, err := f.notifications.GetPreferences()
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	mutate(prefs)
	if _, err := f.notifications.UpdatePreferences(prefs); err != nil {
		t.Fatalf("update preferences: %v", err)
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestTaskNotificationOncePerDay(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	task, err := f.tasks.Create("Pay rent", "", "medium", timePtr(now), nil)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	count, err := f.engine.GenerateTaskNotifications()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if count != 1 {
		t.Fatalf("first run created %d notifications, want 1", count)
	}

	count, err = f.engine.GenerateTaskNotifications()
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if count != 0 {
		t.Fatalf("second run created %d notifications, want 0", count)
	}

	notifs, err := f.notifications.FindByEntity("task", task.ID)
	if err != nil {
		t.Fatalf("find by entity: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifs))
	}
	n := notifs[0]
	if n.Type != model.NotifTypeTaskDue {
		t.Errorf("Type = %q, want %q", n.Type, model.NotifTypeTaskDue)
	}
	if n.Title != "Task Due Today" {
		t.Errorf("Title = %q", n.Title)
	}
	if n.Message != "Pay rent" {
		t.Errorf("Message = %q, want %q", n.Message, "Pay rent")
	}
	if n.Priority != model.PriorityNormal {
		t.Errorf("Priority = %q, want normal", n.Priority)
	}
}

func TestTaskPriorityMapping(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	cases := map[string]string{
		"urgent": model.PriorityUrgent,
		"high":   model.PriorityHigh,
		"medium": model.PriorityNormal,
		"low":    model.PriorityLow,
	}

	ids := make(map[string]int64)
	for taskPriority := range cases {
		task, err := f.tasks.Create("Task "+taskPriority, "", taskPriority, timePtr(now), nil)
		if err != nil {
			t.Fatalf("create task: %v", err)
		}
		ids[taskPriority] = task.ID
	}

	if _, err := f.engine.GenerateTaskNotifications(); err != nil {
		t.Fatalf("generate: %v", err)
	}

	for taskPriority, want := range cases {
		notifs, err := f.notifications.FindByEntity("task", ids[taskPriority])
		if err != nil {
			t.Fatalf("find by entity: %v", err)
		}
		if len(notifs) != 1 {
			t.Fatalf("task priority %q: got %d notifications", taskPriority, len(notifs))
		}
		if notifs[0].Priority != want {
			t.Errorf("task priority %q mapped to %q, want %q", taskPriority, notifs[0].Priority, want)
		}
	}
}

func TestSubtasksNotNotified(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	parent, err := f.tasks.Create("Spring cleaning", "", "medium", timePtr(now), nil)
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := f.tasks.Create("Clean gutters", "", "medium", timePtr(now), &parent.ID)
	if err != nil {
		t.Fatalf("create subtask: %v", err)
	}

	count, err := f.engine.GenerateTaskNotifications()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if count != 1 {
		t.Fatalf("created %d notifications, want 1 (parent only)", count)
	}

	notifs, err := f.notifications.FindByEntity("task", child.ID)
	if err != nil {
		t.Fatalf("find by entity: %v", err)
	}
	if len(notifs) != 0 {
		t.Errorf("subtask produced %d notifications, want 0", len(notifs))
	}
}

func TestDisabledToggleSkipsDomain(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	if _, err := f.tasks.Create("Pay rent", "", "high", timePtr(now), nil); err != nil {
		t.Fatalf("create task: %v", err)
	}
	f.setPrefs(t, func(p *model.Preferences) { p.TaskDueAlerts = false })

	count, err := f.engine.GenerateTaskNotifications()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if count != 0 {
		t.Fatalf("created %d notifications with alerts disabled, want 0", count)
	}
}

func TestVacationModeSuppressesEverything(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	if _, err := f.tasks.Create("Pay rent", "", "high", timePtr(now), nil); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := f.plants.Create("Fern", "kitchen", 7, now); err != nil {
		t.Fatalf("create plant: %v", err)
	}
	if _, err := f.loans.Create("Catan", "Sam", now.AddDate(0, 0, -40)); err != nil {
		t.Fatalf("create loan: %v", err)
	}

	f.setPrefs(t, func(p *model.Preferences) { p.VacationMode = true })

	if count := f.engine.CheckAll(); count != 0 {
		t.Fatalf("CheckAll created %d notifications during vacation, want 0", count)
	}
}

func TestVacationWindowRespectsDates(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	// Vacation starts tomorrow: not suppressed yet.
	f.setPrefs(t, func(p *model.Preferences) {
		p.VacationMode = true
		p.VacationStartDate = timePtr(now.AddDate(0, 0, 1))
		p.VacationEndDate = timePtr(now.AddDate(0, 0, 5))
	})
	suppressed, err := f.engine.VacationSuppressed(now)
	if err != nil {
		t.Fatalf("vacation gate: %v", err)
	}
	if suppressed {
		t.Error("suppressed before vacation start date")
	}

	// Inside the window: suppressed.
	f.setPrefs(t, func(p *model.Preferences) {
		p.VacationMode = true
		p.VacationStartDate = timePtr(now.AddDate(0, 0, -1))
		p.VacationEndDate = timePtr(now.AddDate(0, 0, 1))
	})
	suppressed, err = f.engine.VacationSuppressed(now)
	if err != nil {
		t.Fatalf("vacation gate: %v", err)
	}
	if !suppressed {
		t.Error("not suppressed inside vacation window")
	}
}

func TestVacationAutoClearsAfterEndDate(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	f.setPrefs(t, func(p *model.Preferences) {
		p.VacationMode = true
		p.VacationStartDate = timePtr(now.AddDate(0, 0, -10))
		p.VacationEndDate = timePtr(now.AddDate(0, 0, -1))
	})

	suppressed, err := f.engine.VacationSuppressed(now)
	if err != nil {
		t.Fatalf("vacation gate: %v", err)
	}
	if suppressed {
		t.Fatal("suppressed after vacation end date")
	}

	prefs, err := f.notifications.GetPreferences()
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if prefs.VacationMode {
		t.Error("vacation mode still set after auto-clear")
	}
	if prefs.VacationStartDate != nil || prefs.VacationEndDate != nil {
		t.Error("vacation dates still set after auto-clear")
	}
}

func TestPlantReminderHeldUntilDismissed(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	plant, err := f.plants.Create("Fern", "kitchen", 7, now.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("create plant: %v", err)
	}

	count, err := f.engine.GeneratePlantNotifications()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if count != 1 {
		t.Fatalf("first run created %d, want 1", count)
	}

	// Still active: no new reminder even on later runs.
	f.engine.now = func() time.Time { return now.Add(48 * time.Hour) }
	count, err = f.engine.GeneratePlantNotifications()
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if count != 0 {
		t.Fatalf("second run created %d while reminder active, want 0", count)
	}

	notifs, err := f.notifications.FindByEntity("plant", plant.ID)
	if err != nil {
		t.Fatalf("find by entity: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifs))
	}
	if err := f.notifications.Dismiss(notifs[0].ID); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	count, err = f.engine.GeneratePlantNotifications()
	if err != nil {
		t.Fatalf("third generate: %v", err)
	}
	if count != 1 {
		t.Fatalf("run after dismissal created %d, want 1", count)
	}
}

func TestPlantOverduePriority(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	plant, err := f.plants.Create("Monstera", "office", 7, now.AddDate(0, 0, -3))
	if err != nil {
		t.Fatalf("create plant: %v", err)
	}

	if _, err := f.engine.GeneratePlantNotifications(); err != nil {
		t.Fatalf("generate: %v", err)
	}

	notifs, err := f.notifications.FindByEntity("plant", plant.ID)
	if err != nil {
		t.Fatalf("find by entity: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifs))
	}
	if notifs[0].Title != "Plant Needs Water!" {
		t.Errorf("Title = %q", notifs[0].Title)
	}
	if notifs[0].Priority != model.PriorityHigh {
		t.Errorf("Priority = %q, want high for >2 days overdue", notifs[0].Priority)
	}
}

func TestLoanRemindersRepeatEveryRun(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	loan, err := f.loans.Create("Catan", "Sam", now.AddDate(0, 0, -40))
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}

	for run := 1; run <= 2; run++ {
		count, err := f.engine.GenerateLoanNotifications()
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if count != 1 {
			t.Fatalf("run %d created %d notifications, want 1", run, count)
		}
	}

	got, err := f.loans.GetByID(loan.ID)
	if err != nil {
		t.Fatalf("get loan: %v", err)
	}
	if got.ReminderSentAt == nil {
		t.Error("reminder_sent_at not recorded")
	}

	notifs, err := f.notifications.FindByEntity("game_loan", loan.ID)
	if err != nil {
		t.Fatalf("find by entity: %v", err)
	}
	if len(notifs) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifs))
	}
	if notifs[0].Priority != model.PriorityHigh {
		t.Errorf("Priority = %q, want high", notifs[0].Priority)
	}
}

func TestWarrantyPriorityBoundary(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	soon, err := f.assets.Create("Dishwasher", "appliance", nil, timePtr(now.AddDate(0, 0, 7)))
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	later, err := f.assets.Create("Laptop", "electronics", nil, timePtr(now.AddDate(0, 0, 8)))
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	// Outside the 30-day lookahead entirely.
	if _, err := f.assets.Create("Fridge", "appliance", nil, timePtr(now.AddDate(0, 0, 45))); err != nil {
		t.Fatalf("create asset: %v", err)
	}

	count, err := f.engine.GenerateWarrantyNotifications()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if count != 2 {
		t.Fatalf("created %d notifications, want 2", count)
	}

	check := func(id int64, want string) {
		t.Helper()
		notifs, err := f.notifications.FindByEntity("asset", id)
		if err != nil {
			t.Fatalf("find by entity: %v", err)
		}
		if len(notifs) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(notifs))
		}
		if notifs[0].Priority != want {
			t.Errorf("asset %d priority = %q, want %q", id, notifs[0].Priority, want)
		}
	}
	check(soon.ID, model.PriorityHigh)
	check(later.ID, model.PriorityNormal)
}

func TestBirthdayTodayIsHighPriority(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	birthday := time.Date(1990, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	contact, err := f.contacts.Create("Robin", "robin@example.com", &birthday)
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}

	count, err := f.engine.GenerateBirthdayNotifications()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if count != 1 {
		t.Fatalf("created %d notifications, want 1", count)
	}

	notifs, err := f.notifications.FindByEntity("contact", contact.ID)
	if err != nil {
		t.Fatalf("find by entity: %v", err)
	}
	if notifs[0].Title != "Birthday Today!" {
		t.Errorf("Title = %q", notifs[0].Title)
	}
	if notifs[0].Priority != model.PriorityHigh {
		t.Errorf("Priority = %q, want high", notifs[0].Priority)
	}
}

func TestCalendarReminderWindow(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	inWindow, err := f.events.UpsertByExternalID("primary", "evt-1", "Dentist", "", now.Add(20*time.Minute), now.Add(50*time.Minute), false)
	if err != nil {
		t.Fatalf("upsert event: %v", err)
	}
	outOfWindow, err := f.events.UpsertByExternalID("primary", "evt-2", "Dinner", "", now.Add(2*time.Hour), now.Add(3*time.Hour), false)
	if err != nil {
		t.Fatalf("upsert event: %v", err)
	}

	// Default lead time is 30 minutes.
	count, err := f.engine.GenerateCalendarNotifications()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if count != 1 {
		t.Fatalf("created %d notifications, want 1", count)
	}

	notifs, err := f.notifications.FindByEntity("calendar_event", inWindow.ID)
	if err != nil {
		t.Fatalf("find by entity: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("expected 1 notification for event in window, got %d", len(notifs))
	}
	if notifs[0].ExpiresAt == nil {
		t.Error("calendar reminder should expire at event end")
	}

	other, err := f.notifications.FindByEntity("calendar_event", outOfWindow.ID)
	if err != nil {
		t.Fatalf("find by entity: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("event outside lead time produced %d notifications", len(other))
	}

	// Same event, same day: no duplicate.
	count, err = f.engine.GenerateCalendarNotifications()
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if count != 0 {
		t.Errorf("second run created %d, want 0", count)
	}
}

func TestSeasonalTaskReminderWindow(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	due, err := f.seasonal.Create("Clean gutters", "fall", now.AddDate(0, 0, 5), 14)
	if err != nil {
		t.Fatalf("create seasonal task: %v", err)
	}
	if _, err := f.seasonal.Create("Service furnace", "winter", now.AddDate(0, 0, 60), 14); err != nil {
		t.Fatalf("create seasonal task: %v", err)
	}

	count, err := f.engine.GenerateSeasonalNotifications()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if count != 1 {
		t.Fatalf("created %d notifications, want 1", count)
	}

	notifs, err := f.notifications.FindByEntity("seasonal_task", due.ID)
	if err != nil {
		t.Fatalf("find by entity: %v", err)
	}
	if notifs[0].Title != "Seasonal Task: fall" {
		t.Errorf("Title = %q", notifs[0].Title)
	}
}

func TestPackageArrivingToday(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	sh, err := f.shipments.Create("UPS", "1Z999AA10123456784", "New headphones", timePtr(now))
	if err != nil {
		t.Fatalf("create shipment: %v", err)
	}

	count, err := f.engine.GeneratePackageNotifications()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if count != 1 {
		t.Fatalf("created %d notifications, want 1", count)
	}

	notifs, err := f.notifications.FindByEntity("shipment", sh.ID)
	if err != nil {
		t.Fatalf("find by entity: %v", err)
	}
	if notifs[0].Title != "Package Arriving Today!" {
		t.Errorf("Title = %q", notifs[0].Title)
	}
	if notifs[0].Priority != model.PriorityHigh {
		t.Errorf("Priority = %q, want high", notifs[0].Priority)
	}
}

func TestCheckDueExcludesLoans(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	if _, err := f.loans.Create("Catan", "Sam", now.AddDate(0, 0, -40)); err != nil {
		t.Fatalf("create loan: %v", err)
	}

	if count := f.engine.CheckDue(); count != 0 {
		t.Fatalf("CheckDue created %d, want 0 (loans run on their own cadence)", count)
	}
	if count := f.engine.CheckAll(); count != 1 {
		t.Fatalf("CheckAll created %d, want 1", count)
	}
}

func TestOnCreatedHookFires(t *testing.T) {
	f := setupEngine(t)
	now := time.Now().UTC()

	if _, err := f.tasks.Create("Pay rent", "", "medium", timePtr(now), nil); err != nil {
		t.Fatalf("create task: %v", err)
	}

	var created []model.Notification
	f.engine.OnCreated(func(n model.Notification) { created = append(created, n) })

	if _, err := f.engine.GenerateTaskNotifications(); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("hook fired %d times, want 1", len(created))
	}
	if created[0].Message != "Pay rent" {
		t.Errorf("hook message = %q", created[0].Message)
	}
}
