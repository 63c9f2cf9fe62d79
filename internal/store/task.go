package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rgoodwin/hearth/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskCols = `id, title, description, priority, due_date, parent_id, completed, created_at, updated_at`

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var dueDate sql.NullString
	var parentID sql.NullInt64
	var completed int

	err := scanner.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &dueDate, &parentID, &completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if t.DueDate, err = parseDate(dueDate); err != nil {
		return nil, err
	}
	if parentID.Valid {
		t.ParentID = &parentID.Int64
	}
	t.Completed = completed != 0
	return &t, nil
}

func (s *TaskStore) Create(title, description, priority string, dueDate *time.Time, parentID *int64) (*model.Task, error) {
	var parent any
	if parentID != nil {
		parent = *parentID
	}
	result, err := s.db.Exec(
		`INSERT INTO tasks (title, description, priority, due_date, parent_id) VALUES (?, ?, ?, ?, ?)`,
		title, description, priority, dateArg(dueDate), parent,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// DueToday returns incomplete parent tasks due on the given day. Subtasks
// are excluded; they surface through their parent.
func (s *TaskStore) DueToday(now time.Time) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks
		 WHERE completed = 0 AND parent_id IS NULL AND due_date = ?
		 ORDER BY priority DESC, title ASC`,
		formatDate(now),
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks due today: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Complete(id int64) error {
	_, err := s.db.Exec(`UPDATE tasks SET completed = 1, updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}
