package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rgoodwin/hearth/internal/model"
)

// DigestStore is the slice of the notification repository the scheduler's
// digest and cleanup jobs need.
type DigestStore interface {
	GetPreferences() (*model.Preferences, error)
	HasDigestBeenSent(date time.Time, email string) (bool, error)
	CreateDigestLog(entry model.DigestLog) error
	DeleteExpired(now time.Time) (int64, error)
}

// EmailSender delivers the rendered digest. One attempt per day; failures
// are logged and retried on the next day's cadence.
type EmailSender interface {
	Configured() bool
	SendDailyDigest(to string, data model.DigestData) error
}

// MailSyncer pulls shipping and appointment emails from the linked account.
type MailSyncer interface {
	Run(ctx context.Context, now time.Time) error
}

// Config holds the scheduler cadences. Zero intervals take defaults; the
// hours are taken as-is (0 is midnight), with out-of-range values falling
// back to 7 for the digest and 3 for cleanup.
type Config struct {
	CheckInterval time.Duration // notification scan, default 15m
	SyncInterval  time.Duration // email sync, default 1h
	LoanInterval  time.Duration // overdue loan reminders, default 7 days
	DigestHour    int           // wall-clock hour for the daily digest
	CleanupHour   int           // wall-clock hour for expiry cleanup
}

func (c *Config) applyDefaults() {
	if c.CheckInterval == 0 {
		c.CheckInterval = 15 * time.Minute
	}
	if c.SyncInterval == 0 {
		c.SyncInterval = time.Hour
	}
	if c.LoanInterval == 0 {
		c.LoanInterval = 7 * 24 * time.Hour
	}
	if c.DigestHour < 0 || c.DigestHour > 23 {
		c.DigestHour = 7
	}
	if c.CleanupHour < 0 || c.CleanupHour > 23 {
		c.CleanupHour = 3
	}
}

// Scheduler owns the four recurring jobs: the notification scan, the daily
// digest, the daily expiry cleanup, and the hourly email sync. Jobs tick
// independently; a failure in one never stops the others' future ticks.
type Scheduler struct {
	mu     sync.Mutex
	engine *Engine
	digest *Assembler
	store  DigestStore
	email  EmailSender
	mail   MailSyncer // nil when no account is linked at startup
	cfg    Config
	logger *slog.Logger

	lastLoanRun    time.Time
	lastDigestDay  string
	lastCleanupDay string

	digestMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}

	now func() time.Time
}

func NewScheduler(engine *Engine, digest *Assembler, store DigestStore, email EmailSender, mail MailSyncer, cfg Config, logger *slog.Logger) *Scheduler {
	cfg.applyDefaults()
	return &Scheduler{
		engine: engine,
		digest: digest,
		store:  store,
		email:  email,
		mail:   mail,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Start launches the job goroutines. The digest and cleanup jobs tick every
// minute and fire when their wall-clock hour comes around; correctness does
// not depend on the trigger time because each run re-checks its own guard.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	var wg sync.WaitGroup

	run := func(interval time.Duration, job func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					job(ctx)
				}
			}
		}()
	}

	run(s.cfg.CheckInterval, func(context.Context) { s.notificationTick() })
	run(time.Minute, func(context.Context) { s.digestTick() })
	run(time.Minute, func(context.Context) { s.cleanupTick() })
	run(s.cfg.SyncInterval, s.mailSyncTick)

	go func() {
		wg.Wait()
		close(s.done)
	}()
}

// Stop cancels the jobs and waits for in-flight ticks to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) notificationTick() {
	now := s.now()
	count := s.engine.CheckDue()

	s.mu.Lock()
	loansDue := now.Sub(s.lastLoanRun) >= s.cfg.LoanInterval
	if loansDue {
		s.lastLoanRun = now
	}
	s.mu.Unlock()

	if loansDue {
		loanCount, err := s.engine.GenerateLoanNotifications()
		if err != nil {
			s.logger.Error("loan notification scan", "error", err)
		} else {
			count += loanCount
		}
	}

	if count > 0 {
		s.logger.Info("notification scan", "created", count)
	}
}

func (s *Scheduler) digestTick() {
	now := s.now()
	if now.Hour() != s.cfg.DigestHour {
		return
	}
	day := now.Format("2006-01-02")

	s.mu.Lock()
	ran := s.lastDigestDay == day
	if !ran {
		s.lastDigestDay = day
	}
	s.mu.Unlock()

	if ran {
		return
	}
	if err := s.RunDigest(now); err != nil {
		s.logger.Error("digest job", "error", err)
	}
}

// RunDigest executes one digest pass: vacation gate, configuration checks,
// the sent-today idempotency guard, assembly, send, and logging. Also the
// entry point for the manual "send now" action.
func (s *Scheduler) RunDigest(now time.Time) error {
	// The manual trigger and the scheduled tick must not overlap: two
	// interleaved runs would each pass the sent-today guard before either
	// writes its log row.
	s.digestMu.Lock()
	defer s.digestMu.Unlock()

	suppressed, err := s.engine.VacationSuppressed(now)
	if err != nil {
		return fmt.Errorf("vacation gate: %w", err)
	}
	if suppressed {
		s.logger.Info("digest skipped: vacation mode")
		return nil
	}

	prefs, err := s.store.GetPreferences()
	if err != nil {
		return fmt.Errorf("get preferences: %w", err)
	}
	if !prefs.DigestEnabled || prefs.DigestEmail == "" {
		s.logger.Info("digest skipped: not enabled or no address")
		return nil
	}
	if !s.email.Configured() {
		s.logger.Info("digest skipped: email not configured")
		return nil
	}

	// Re-checked fresh on every run; this guard, not the trigger time, is
	// what guarantees at-most-once-per-day delivery.
	sent, err := s.store.HasDigestBeenSent(now, prefs.DigestEmail)
	if err != nil {
		return fmt.Errorf("check digest sent: %w", err)
	}
	if sent {
		return nil
	}

	data, err := s.digest.DigestData(now)
	if err != nil {
		return fmt.Errorf("assemble digest: %w", err)
	}

	entry := model.DigestLog{
		DigestDate:     now,
		EmailTo:        prefs.DigestEmail,
		EventsCount:    len(data.Events),
		TasksCount:     len(data.Tasks),
		ChoresCount:    len(data.Chores),
		ContentSummary: Summary(data),
	}

	if data.Empty() {
		// Log a successful zero-count entry so the rest of the day's ticks
		// don't retry an empty digest.
		entry.Success = true
		entry.ContentSummary = "no content"
		if err := s.store.CreateDigestLog(entry); err != nil {
			return fmt.Errorf("log empty digest: %w", err)
		}
		s.logger.Info("digest skipped: nothing to send")
		return nil
	}

	if err := s.email.SendDailyDigest(prefs.DigestEmail, data); err != nil {
		msg := err.Error()
		entry.Success = false
		entry.ErrorMessage = &msg
		if logErr := s.store.CreateDigestLog(entry); logErr != nil {
			s.logger.Error("log digest failure", "error", logErr)
		}
		return fmt.Errorf("send digest: %w", err)
	}

	entry.Success = true
	if err := s.store.CreateDigestLog(entry); err != nil {
		return fmt.Errorf("log digest: %w", err)
	}
	s.logger.Info("digest sent", "to", prefs.DigestEmail, "summary", entry.ContentSummary)
	return nil
}

func (s *Scheduler) cleanupTick() {
	now := s.now()
	if now.Hour() != s.cfg.CleanupHour {
		return
	}
	day := now.Format("2006-01-02")

	s.mu.Lock()
	ran := s.lastCleanupDay == day
	if !ran {
		s.lastCleanupDay = day
	}
	s.mu.Unlock()

	if ran {
		return
	}
	if err := s.RunCleanup(now); err != nil {
		s.logger.Error("cleanup job", "error", err)
	}
}

// RunCleanup deletes expired notifications.
func (s *Scheduler) RunCleanup(now time.Time) error {
	count, err := s.store.DeleteExpired(now)
	if err != nil {
		return fmt.Errorf("delete expired notifications: %w", err)
	}
	if count > 0 {
		s.logger.Info("expired notifications removed", "count", count)
	}
	return nil
}

func (s *Scheduler) mailSyncTick(ctx context.Context) {
	if s.mail == nil {
		return
	}
	now := s.now()

	suppressed, err := s.engine.VacationSuppressed(now)
	if err != nil {
		s.logger.Error("email sync vacation gate", "error", err)
		return
	}
	if suppressed {
		return
	}

	if err := s.mail.Run(ctx, now); err != nil {
		s.logger.Error("email sync", "error", err)
	}
}
