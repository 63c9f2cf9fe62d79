package push

import (
	"errors"
	"log/slog"

	"github.com/rgoodwin/hearth/internal/model"
)

// SubscriptionStore is the slice of the push store the broadcaster needs.
type SubscriptionStore interface {
	List() ([]model.PushSubscription, error)
	DeleteByEndpoint(endpoint string) error
}

// Sender sends a payload to one subscription. Satisfied by *Service.
type Sender interface {
	Configured() bool
	Send(sub *model.PushSubscription, payload Payload) error
}

// Broadcaster fans a notification out to every registered device.
// Only high and urgent notifications warrant interrupting someone's day;
// everything else waits in the in-app list.
type Broadcaster struct {
	sender Sender
	subs   SubscriptionStore
	logger *slog.Logger
}

func NewBroadcaster(sender Sender, subs SubscriptionStore, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{sender: sender, subs: subs, logger: logger}
}

// NotificationCreated sends a push for notifications that cross the
// priority threshold. Expired subscriptions are pruned as they surface.
func (b *Broadcaster) NotificationCreated(n model.Notification) {
	if !b.sender.Configured() {
		return
	}
	if n.Priority != model.PriorityHigh && n.Priority != model.PriorityUrgent {
		return
	}

	subs, err := b.subs.List()
	if err != nil {
		b.logger.Error("list push subscriptions", "error", err)
		return
	}

	payload := Payload{
		Title: n.Title,
		Body:  n.Message,
		URL:   "/notifications",
		Tag:   n.Type,
	}

	for i := range subs {
		sub := &subs[i]
		if err := b.sender.Send(sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := b.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
					b.logger.Error("prune expired subscription", "error", err)
				}
				continue
			}
			b.logger.Error("send push", "endpoint", sub.Endpoint, "error", err)
		}
	}
}
