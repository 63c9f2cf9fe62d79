package mailsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rgoodwin/hearth/internal/model"
)

const (
	shippingQuery    = `newer_than:30d (subject:shipped OR subject:shipping OR subject:"on its way" OR subject:"out for delivery")`
	appointmentQuery = `newer_than:14d (subject:appointment OR subject:"appointment reminder" OR subject:"appointment confirmed")`
	searchLimit      = 50
)

// TokenSource exposes the household's stored OAuth tokens. Nil tokens mean
// no account is linked and the job is a no-op.
type TokenSource interface {
	CurrentTokens() (*model.OAuthTokens, error)
}

// ShipmentWriter is the slice of the shipment store the job writes through.
type ShipmentWriter interface {
	UpsertByTracking(carrier, trackingNumber, description string, expectedDate *time.Time) (*model.Shipment, error)
}

// NotificationWriter creates appointment notifications with exact-message
// dedup.
type NotificationWriter interface {
	Create(input model.NotificationInput) (*model.Notification, error)
	MessageExistsToday(notifType, message string, now time.Time) (bool, error)
}

// Job pulls shipping and appointment emails from the linked account:
// shipping confirmations become tracked shipments, and appointments within
// the next two days become notifications.
type Job struct {
	tokens        TokenSource
	gmail         *Client
	shipments     ShipmentWriter
	notifications NotificationWriter
	logger        *slog.Logger
}

func NewJob(tokens TokenSource, gmail *Client, shipments ShipmentWriter, notifications NotificationWriter, logger *slog.Logger) *Job {
	return &Job{
		tokens:        tokens,
		gmail:         gmail,
		shipments:     shipments,
		notifications: notifications,
		logger:        logger,
	}
}

// Run executes one sync pass. Missing tokens are a quiet no-op; per-message
// failures are logged and skipped.
func (j *Job) Run(ctx context.Context, now time.Time) error {
	toks, err := j.tokens.CurrentTokens()
	if err != nil {
		return fmt.Errorf("current tokens: %w", err)
	}
	if toks == nil {
		j.logger.Debug("email sync skipped: no linked account")
		return nil
	}

	if err := j.syncShipping(ctx, toks.AccessToken, now); err != nil {
		j.logger.Error("shipping email sync", "error", err)
	}
	if err := j.syncAppointments(ctx, toks.AccessToken, now); err != nil {
		j.logger.Error("appointment email sync", "error", err)
	}
	return nil
}

func (j *Job) syncShipping(ctx context.Context, accessToken string, now time.Time) error {
	ids, err := j.gmail.Search(ctx, accessToken, shippingQuery, searchLimit)
	if err != nil {
		return err
	}

	for _, id := range ids {
		msg, err := j.gmail.Get(ctx, accessToken, id)
		if err != nil {
			j.logger.Error("fetch shipping email", "message_id", id, "error", err)
			continue
		}
		info, ok := ParseShipping(msg, now)
		if !ok {
			continue
		}
		if _, err := j.shipments.UpsertByTracking(info.Carrier, info.TrackingNumber, info.Description, info.ExpectedDate); err != nil {
			j.logger.Error("upsert shipment", "tracking", info.TrackingNumber, "error", err)
		}
	}
	return nil
}

func (j *Job) syncAppointments(ctx context.Context, accessToken string, now time.Time) error {
	ids, err := j.gmail.Search(ctx, accessToken, appointmentQuery, searchLimit)
	if err != nil {
		return err
	}

	today := startOfDay(now)
	horizon := today.AddDate(0, 0, 3) // today, tomorrow, day after

	for _, id := range ids {
		msg, err := j.gmail.Get(ctx, accessToken, id)
		if err != nil {
			j.logger.Error("fetch appointment email", "message_id", id, "error", err)
			continue
		}
		appt, ok := ParseAppointment(msg, now)
		if !ok {
			continue
		}
		if appt.When.Before(today) || !appt.When.Before(horizon) {
			continue
		}

		message := fmt.Sprintf("%s on %s", appt.Title, FormatWhen(appt.When))
		dup, err := j.notifications.MessageExistsToday(model.NotifTypeAppointmentReminder, message, now)
		if err != nil {
			j.logger.Error("appointment dedup check", "error", err)
			continue
		}
		if dup {
			continue
		}

		priority := model.PriorityNormal
		if appt.When.Before(today.AddDate(0, 0, 1)) {
			priority = model.PriorityHigh
		}
		expires := appt.When.Add(24 * time.Hour)
		_, err = j.notifications.Create(model.NotificationInput{
			Type:      model.NotifTypeAppointmentReminder,
			Title:     "Upcoming Appointment",
			Message:   message,
			Icon:      "🗓️",
			Priority:  priority,
			ExpiresAt: &expires,
		})
		if err != nil {
			j.logger.Error("create appointment notification", "error", err)
		}
	}
	return nil
}
