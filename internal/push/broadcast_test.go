package push

import (
	"log/slog"
	"testing"

	"github.com/rgoodwin/hearth/internal/model"
)

type fakeSender struct {
	configured bool
	errFor     map[string]error
	sent       []string
	payloads   []Payload
}

func (f *fakeSender) Configured() bool { return f.configured }

func (f *fakeSender) Send(sub *model.PushSubscription, payload Payload) error {
	if err, ok := f.errFor[sub.Endpoint]; ok {
		return err
	}
	f.sent = append(f.sent, sub.Endpoint)
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeSubs struct {
	subs    []model.PushSubscription
	deleted []string
}

func (f *fakeSubs) List() ([]model.PushSubscription, error) { return f.subs, nil }

func (f *fakeSubs) DeleteByEndpoint(endpoint string) error {
	f.deleted = append(f.deleted, endpoint)
	return nil
}

func twoDevices() *fakeSubs {
	return &fakeSubs{subs: []model.PushSubscription{
		{ID: 1, Endpoint: "https://push.example/phone"},
		{ID: 2, Endpoint: "https://push.example/laptop"},
	}}
}

func TestHighPriorityFansOutToAllDevices(t *testing.T) {
	sender := &fakeSender{configured: true}
	subs := twoDevices()
	b := NewBroadcaster(sender, subs, slog.Default())

	b.NotificationCreated(model.Notification{
		Type:     model.NotifTypePlantWatering,
		Title:    "Plant Needs Water!",
		Message:  "Monstera is 3 days overdue",
		Priority: model.PriorityHigh,
	})

	if len(sender.sent) != 2 {
		t.Fatalf("sent to %d devices, want 2", len(sender.sent))
	}
	p := sender.payloads[0]
	if p.Title != "Plant Needs Water!" || p.URL != "/notifications" || p.Tag != model.NotifTypePlantWatering {
		t.Errorf("unexpected payload %+v", p)
	}
}

func TestNormalPriorityDoesNotPush(t *testing.T) {
	sender := &fakeSender{configured: true}
	subs := twoDevices()
	b := NewBroadcaster(sender, subs, slog.Default())

	b.NotificationCreated(model.Notification{Priority: model.PriorityNormal})
	b.NotificationCreated(model.Notification{Priority: model.PriorityLow})

	if len(sender.sent) != 0 {
		t.Fatalf("sent %d pushes, want 0", len(sender.sent))
	}
}

func TestUrgentPriorityPushes(t *testing.T) {
	sender := &fakeSender{configured: true}
	b := NewBroadcaster(sender, twoDevices(), slog.Default())

	b.NotificationCreated(model.Notification{Priority: model.PriorityUrgent})

	if len(sender.sent) != 2 {
		t.Fatalf("sent to %d devices, want 2", len(sender.sent))
	}
}

func TestUnconfiguredSenderSkipsEntirely(t *testing.T) {
	sender := &fakeSender{configured: false}
	subs := twoDevices()
	b := NewBroadcaster(sender, subs, slog.Default())

	b.NotificationCreated(model.Notification{Priority: model.PriorityUrgent})

	if len(sender.sent) != 0 {
		t.Fatal("unconfigured sender should not push")
	}
}

func TestExpiredSubscriptionPruned(t *testing.T) {
	subs := twoDevices()
	sender := &fakeSender{
		configured: true,
		errFor:     map[string]error{"https://push.example/phone": ErrExpired},
	}
	b := NewBroadcaster(sender, subs, slog.Default())

	b.NotificationCreated(model.Notification{Priority: model.PriorityHigh})

	if len(subs.deleted) != 1 || subs.deleted[0] != "https://push.example/phone" {
		t.Errorf("deleted = %v, want the expired endpoint", subs.deleted)
	}
	// The healthy device still gets its push.
	if len(sender.sent) != 1 || sender.sent[0] != "https://push.example/laptop" {
		t.Errorf("sent = %v", sender.sent)
	}
}
