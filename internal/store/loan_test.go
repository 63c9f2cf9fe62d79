package store

import (
	"testing"
	"time"

	"github.com/rgoodwin/hearth/internal/database"
)

func setupLoanTestDB(t *testing.T) *LoanStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewLoanStore(db)
}

func TestOverdueLoanBoundary(t *testing.T) {
	ls := setupLoanTestDB(t)
	now := time.Now().UTC()

	overdue, err := ls.Create("Catan", "Sam", now.AddDate(0, 0, -45))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := ls.Create("Wingspan", "Alex", now.AddDate(0, 0, -29)); err != nil {
		t.Fatalf("create recent: %v", err)
	}

	loans, err := ls.Overdue(now)
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(loans) != 1 || loans[0].ID != overdue.ID {
		t.Fatalf("overdue = %+v, want just Catan", loans)
	}
	if loans[0].DaysOverdue != 45 {
		t.Errorf("DaysOverdue = %d, want 45", loans[0].DaysOverdue)
	}
}

func TestReturnedLoanNotOverdue(t *testing.T) {
	ls := setupLoanTestDB(t)
	now := time.Now().UTC()

	loan, err := ls.Create("Catan", "Sam", now.AddDate(0, 0, -45))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ls.MarkReturned(loan.ID, now); err != nil {
		t.Fatalf("mark returned: %v", err)
	}

	loans, err := ls.Overdue(now)
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(loans) != 0 {
		t.Fatalf("returned loan still overdue: %+v", loans)
	}
}

func TestMarkReminderSent(t *testing.T) {
	ls := setupLoanTestDB(t)
	now := time.Now().UTC()

	loan, err := ls.Create("Catan", "Sam", now.AddDate(0, 0, -45))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if loan.ReminderSentAt != nil {
		t.Fatal("new loan already has reminder timestamp")
	}

	if err := ls.MarkReminderSent(loan.ID, now); err != nil {
		t.Fatalf("mark reminder sent: %v", err)
	}
	got, err := ls.GetByID(loan.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ReminderSentAt == nil {
		t.Error("reminder timestamp not recorded")
	}
}
