package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rgoodwin/hearth/internal/email"
	"github.com/rgoodwin/hearth/internal/model"
	"github.com/rgoodwin/hearth/internal/notify"
	"github.com/rgoodwin/hearth/internal/store"
	"github.com/rgoodwin/hearth/internal/websocket"
)

type NotificationHandler struct {
	notifications *store.NotificationStore
	engine        *notify.Engine
	scheduler     *notify.Scheduler
	email         *email.Client
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewNotificationHandler(ns *store.NotificationStore, engine *notify.Engine, scheduler *notify.Scheduler, mail *email.Client, hub *websocket.Hub, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: ns,
		engine:        engine,
		scheduler:     scheduler,
		email:         mail,
		hub:           hub,
		logger:        logger,
	}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	notifs, err := h.notifications.ListVisible(time.Now())
	if err != nil {
		h.logger.Error("list notifications", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list notifications"})
		return
	}
	if notifs == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, notifs)
}

// MarkRead handles POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.notifications.MarkRead(id, time.Now()); err != nil {
		h.logger.Error("mark notification read", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to mark read"})
		return
	}

	h.hub.Broadcast(websocket.NotificationRead(id))
	w.WriteHeader(http.StatusNoContent)
}

// Dismiss handles POST /api/notifications/{id}/dismiss
func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.notifications.Dismiss(id); err != nil {
		h.logger.Error("dismiss notification", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to dismiss"})
		return
	}

	h.hub.Broadcast(websocket.NotificationDismissed(id))
	w.WriteHeader(http.StatusNoContent)
}

// GetPreferences handles GET /api/notifications/preferences
func (h *NotificationHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.notifications.GetPreferences()
	if err != nil {
		h.logger.Error("get preferences", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load preferences"})
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences handles PUT /api/notifications/preferences
func (h *NotificationHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs model.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if prefs.VacationStartDate != nil && prefs.VacationEndDate != nil &&
		prefs.VacationEndDate.Before(*prefs.VacationStartDate) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "vacation end date before start date"})
		return
	}

	updated, err := h.notifications.UpdatePreferences(&prefs)
	if err != nil {
		h.logger.Error("update preferences", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save preferences"})
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Check handles POST /api/notifications/check: runs every generator now.
func (h *NotificationHandler) Check(w http.ResponseWriter, r *http.Request) {
	created := h.engine.CheckAll()
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

// SendDigest handles POST /api/notifications/digest/send
func (h *NotificationHandler) SendDigest(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.RunDigest(time.Now()); err != nil {
		h.logger.Error("manual digest", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SendTestEmail handles POST /api/notifications/digest/test-email
func (h *NotificationHandler) SendTestEmail(w http.ResponseWriter, r *http.Request) {
	if !h.email.Configured() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email not configured"})
		return
	}

	prefs, err := h.notifications.GetPreferences()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load preferences"})
		return
	}
	if prefs.DigestEmail == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no digest email configured"})
		return
	}

	if err := h.email.SendTestEmail(prefs.DigestEmail); err != nil {
		h.logger.Error("send test email", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to send test email"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
