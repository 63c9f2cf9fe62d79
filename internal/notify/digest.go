package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/rgoodwin/hearth/internal/model"
)

// Assembler builds the daily digest snapshot: today's calendar events, due
// parent tasks, due chores, and currently overdue game loans. Pure
// aggregation; it persists nothing.
type Assembler struct {
	events EventReader
	tasks  TaskReader
	chores ChoreReader
	loans  LoanReader
}

func NewAssembler(events EventReader, tasks TaskReader, chores ChoreReader, loans LoanReader) *Assembler {
	return &Assembler{events: events, tasks: tasks, chores: chores, loans: loans}
}

// DigestData aggregates everything that matters on the given day.
func (a *Assembler) DigestData(now time.Time) (model.DigestData, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	var data model.DigestData
	var err error

	if data.Events, err = a.events.EventsInWindow(today, tomorrow); err != nil {
		return model.DigestData{}, fmt.Errorf("digest events: %w", err)
	}
	if data.Tasks, err = a.tasks.DueToday(now); err != nil {
		return model.DigestData{}, fmt.Errorf("digest tasks: %w", err)
	}
	if data.Chores, err = a.chores.DueToday(now); err != nil {
		return model.DigestData{}, fmt.Errorf("digest chores: %w", err)
	}
	if data.OverdueLoans, err = a.loans.Overdue(now); err != nil {
		return model.DigestData{}, fmt.Errorf("digest overdue loans: %w", err)
	}
	return data, nil
}

// Summary renders the one-line content summary stored in the digest log.
func Summary(d model.DigestData) string {
	parts := []string{
		fmt.Sprintf("%d events", len(d.Events)),
		fmt.Sprintf("%d tasks", len(d.Tasks)),
		fmt.Sprintf("%d chores", len(d.Chores)),
	}
	if len(d.OverdueLoans) > 0 {
		parts = append(parts, fmt.Sprintf("%d overdue loans", len(d.OverdueLoans)))
	}
	return strings.Join(parts, ", ")
}
