package store

import (
	"testing"
	"time"

	"github.com/rgoodwin/hearth/internal/database"
)

func setupShipmentTestDB(t *testing.T) *ShipmentStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewShipmentStore(db)
}

func TestUpsertByTracking(t *testing.T) {
	ss := setupShipmentTestDB(t)
	now := time.Now().UTC()

	first, err := ss.UpsertByTracking("UPS", "1Z999AA10123456784", "Headphones", nil)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Re-syncing the same email refreshes rather than duplicates.
	expected := now.AddDate(0, 0, 2)
	second, err := ss.UpsertByTracking("UPS", "1Z999AA10123456784", "Headphones", &expected)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert created new row: %d vs %d", second.ID, first.ID)
	}
	if second.ExpectedDate == nil {
		t.Fatal("expected date not updated")
	}
}

func TestShipmentsForNotification(t *testing.T) {
	ss := setupShipmentTestDB(t)
	now := time.Now().UTC()

	arriving, err := ss.Create("USPS", "9400100000000000000001", "Book", datePtr(now.AddDate(0, 0, 2)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Beyond the 3-day lookahead.
	if _, err := ss.Create("FedEx", "123456789012", "Chair", datePtr(now.AddDate(0, 0, 10))); err != nil {
		t.Fatalf("create far: %v", err)
	}
	// No expected date: nothing to say about it.
	if _, err := ss.Create("UPS", "1Z999AA10123456784", "Mystery", nil); err != nil {
		t.Fatalf("create undated: %v", err)
	}

	shipments, err := ss.ForNotification(now)
	if err != nil {
		t.Fatalf("for notification: %v", err)
	}
	if len(shipments) != 1 || shipments[0].ID != arriving.ID {
		t.Fatalf("for notification = %+v, want just the book", shipments)
	}

	if err := ss.MarkDelivered(arriving.ID, now); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	shipments, err = ss.ForNotification(now)
	if err != nil {
		t.Fatalf("for notification: %v", err)
	}
	if len(shipments) != 0 {
		t.Fatalf("delivered shipment still notifiable: %+v", shipments)
	}
}
