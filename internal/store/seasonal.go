package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rgoodwin/hearth/internal/model"
)

type SeasonalTaskStore struct {
	db *sql.DB
}

func NewSeasonalTaskStore(db *sql.DB) *SeasonalTaskStore {
	return &SeasonalTaskStore{db: db}
}

const seasonalCols = `id, title, category, due_date, reminder_days_before, completed, created_at`

func scanSeasonalTask(scanner interface{ Scan(...any) error }) (*model.SeasonalTask, error) {
	var t model.SeasonalTask
	var dueDate string
	var completed int

	err := scanner.Scan(&t.ID, &t.Title, &t.Category, &dueDate, &t.ReminderDaysBefore, &completed, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if t.DueDate, err = time.Parse(dateLayout, dueDate); err != nil {
		return nil, fmt.Errorf("parse seasonal due date %q: %w", dueDate, err)
	}
	t.Completed = completed != 0
	return &t, nil
}

func (s *SeasonalTaskStore) Create(title, category string, dueDate time.Time, reminderDaysBefore int) (*model.SeasonalTask, error) {
	result, err := s.db.Exec(
		`INSERT INTO seasonal_tasks (title, category, due_date, reminder_days_before) VALUES (?, ?, ?, ?)`,
		title, category, formatDate(dueDate), reminderDaysBefore,
	)
	if err != nil {
		return nil, fmt.Errorf("insert seasonal task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *SeasonalTaskStore) GetByID(id int64) (*model.SeasonalTask, error) {
	row := s.db.QueryRow(`SELECT `+seasonalCols+` FROM seasonal_tasks WHERE id = ?`, id)
	t, err := scanSeasonalTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get seasonal task: %w", err)
	}
	return t, nil
}

// NeedingReminders returns incomplete seasonal tasks whose per-row reminder
// window has opened: due within reminder_days_before days of now (including
// tasks already past due).
func (s *SeasonalTaskStore) NeedingReminders(now time.Time) ([]model.SeasonalTask, error) {
	rows, err := s.db.Query(
		`SELECT `+seasonalCols+` FROM seasonal_tasks
		 WHERE completed = 0
		   AND due_date <= date(?, '+' || reminder_days_before || ' days')
		 ORDER BY due_date ASC`,
		formatDate(now),
	)
	if err != nil {
		return nil, fmt.Errorf("list seasonal tasks needing reminders: %w", err)
	}
	defer rows.Close()

	var tasks []model.SeasonalTask
	for rows.Next() {
		t, err := scanSeasonalTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seasonal task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *SeasonalTaskStore) Complete(id int64) error {
	_, err := s.db.Exec(`UPDATE seasonal_tasks SET completed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("complete seasonal task: %w", err)
	}
	return nil
}
