package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rgoodwin/hearth/internal/email"
	"github.com/rgoodwin/hearth/internal/handler"
	"github.com/rgoodwin/hearth/internal/mailsync"
	"github.com/rgoodwin/hearth/internal/middleware"
	"github.com/rgoodwin/hearth/internal/model"
	"github.com/rgoodwin/hearth/internal/notify"
	"github.com/rgoodwin/hearth/internal/push"
	"github.com/rgoodwin/hearth/internal/store"
	ws "github.com/rgoodwin/hearth/internal/websocket"
)

// Config holds the runtime knobs wired in from the environment.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Scheduler       notify.Config
}

type Server struct {
	db        *sql.DB
	hub       *ws.Hub
	scheduler *notify.Scheduler
	engine    *notify.Engine

	notificationH *handler.NotificationHandler
	pushH         *handler.PushHandler

	logger *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	notificationStore := store.NewNotificationStore(db)
	taskStore := store.NewTaskStore(db)
	choreStore := store.NewChoreStore(db)
	loanStore := store.NewLoanStore(db)
	assetStore := store.NewAssetStore(db)
	plantStore := store.NewPlantStore(db)
	contactStore := store.NewContactStore(db)
	seasonalStore := store.NewSeasonalTaskStore(db)
	shipmentStore := store.NewShipmentStore(db)
	calendarStore := store.NewCalendarStore(db)
	sessionStore := store.NewSessionStore(db)
	pushStore := store.NewPushStore(db)

	engine := notify.NewEngine(notify.EngineDeps{
		Notifications: notificationStore,
		Tasks:         taskStore,
		Chores:        choreStore,
		Loans:         loanStore,
		Warranties:    assetStore,
		Plants:        plantStore,
		Birthdays:     contactStore,
		Seasonal:      seasonalStore,
		Shipments:     shipmentStore,
		Events:        calendarStore,
	}, logger.With("component", "notify"))

	pushLogger := logger.With("component", "push")
	pushSvc := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	broadcaster := push.NewBroadcaster(pushSvc, pushStore, pushLogger)

	// Every persisted notification reaches connected clients immediately;
	// high and urgent ones additionally go out as web push.
	engine.OnCreated(func(n model.Notification) {
		hub.Broadcast(ws.NotificationCreated(n))
		broadcaster.NotificationCreated(n)
	})

	assembler := notify.NewAssembler(calendarStore, taskStore, choreStore, loanStore)

	mailJob := mailsync.NewJob(
		sessionStore,
		mailsync.NewClient(),
		shipmentStore,
		notificationStore,
		logger.With("component", "mailsync"),
	)

	scheduler := notify.NewScheduler(engine, assembler, notificationStore, emailClient, mailJob, cfg.Scheduler, logger.With("component", "scheduler"))

	return &Server{
		db:            db,
		hub:           hub,
		scheduler:     scheduler,
		engine:        engine,
		notificationH: handler.NewNotificationHandler(notificationStore, engine, scheduler, emailClient, hub, logger.With("component", "notification")),
		pushH:         handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler")),
		logger:        logger,
	}
}

// Scheduler returns the job scheduler so main can manage its lifecycle.
func (s *Server) Scheduler() *notify.Scheduler {
	return s.scheduler
}

// Router builds the HTTP handler with all routes registered.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /ws", ws.HandleWebSocket(s.hub))

	mux.HandleFunc("GET /api/notifications", s.notificationH.List)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.notificationH.MarkRead)
	mux.HandleFunc("POST /api/notifications/{id}/dismiss", s.notificationH.Dismiss)
	mux.HandleFunc("GET /api/notifications/preferences", s.notificationH.GetPreferences)
	mux.HandleFunc("PUT /api/notifications/preferences", s.notificationH.UpdatePreferences)
	mux.HandleFunc("POST /api/notifications/check", s.notificationH.Check)
	mux.HandleFunc("POST /api/notifications/digest/send", s.notificationH.SendDigest)
	mux.HandleFunc("POST /api/notifications/digest/test-email", s.notificationH.SendTestEmail)

	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
