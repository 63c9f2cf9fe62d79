package store

import (
	"testing"
	"time"

	"github.com/rgoodwin/hearth/internal/database"
)

func setupPlantTestDB(t *testing.T) *PlantStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPlantStore(db)
}

func TestPlantsNeedingWater(t *testing.T) {
	ps := setupPlantTestDB(t)
	now := time.Now().UTC()

	thirsty, err := ps.Create("Fern", "kitchen", 7, now.AddDate(0, 0, -2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	dueToday, err := ps.Create("Monstera", "office", 10, now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := ps.Create("Cactus", "window", 30, now.AddDate(0, 0, 20)); err != nil {
		t.Fatalf("create: %v", err)
	}

	plants, err := ps.NeedingWater(now)
	if err != nil {
		t.Fatalf("needing water: %v", err)
	}
	if len(plants) != 2 {
		t.Fatalf("needing water = %d plants, want 2", len(plants))
	}
	// Most overdue first.
	if plants[0].ID != thirsty.ID || plants[1].ID != dueToday.ID {
		t.Errorf("order = %q, %q", plants[0].Name, plants[1].Name)
	}
}

func TestMarkWateredReschedules(t *testing.T) {
	ps := setupPlantTestDB(t)
	now := time.Now().UTC()

	plant, err := ps.Create("Fern", "kitchen", 7, now.AddDate(0, 0, -2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := ps.MarkWatered(plant.ID, now); err != nil {
		t.Fatalf("mark watered: %v", err)
	}

	got, err := ps.GetByID(plant.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LastWateredAt == nil {
		t.Error("last watered timestamp not recorded")
	}
	wantNext := now.AddDate(0, 0, 7).UTC().Format("2006-01-02")
	if got.NextWaterDate.Format("2006-01-02") != wantNext {
		t.Errorf("NextWaterDate = %s, want %s", got.NextWaterDate.Format("2006-01-02"), wantNext)
	}

	plants, err := ps.NeedingWater(now)
	if err != nil {
		t.Fatalf("needing water: %v", err)
	}
	if len(plants) != 0 {
		t.Fatalf("watered plant still thirsty: %+v", plants)
	}
}
