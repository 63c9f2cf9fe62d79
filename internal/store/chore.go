package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rgoodwin/hearth/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

const choreCols = `id, title, assigned_to, due_date, completed, created_at, updated_at`

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var dueDate sql.NullString
	var completed int

	err := scanner.Scan(&c.ID, &c.Title, &c.AssignedTo, &dueDate, &completed, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.DueDate, err = parseDate(dueDate); err != nil {
		return nil, err
	}
	c.Completed = completed != 0
	return &c, nil
}

func (s *ChoreStore) Create(title, assignedTo string, dueDate *time.Time) (*model.Chore, error) {
	result, err := s.db.Exec(
		`INSERT INTO chores (title, assigned_to, due_date) VALUES (?, ?, ?)`,
		title, assignedTo, dateArg(dueDate),
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id int64) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// DueToday returns incomplete chores due on the given day.
func (s *ChoreStore) DueToday(now time.Time) ([]model.Chore, error) {
	rows, err := s.db.Query(
		`SELECT `+choreCols+` FROM chores WHERE completed = 0 AND due_date = ? ORDER BY title ASC`,
		formatDate(now),
	)
	if err != nil {
		return nil, fmt.Errorf("list chores due today: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Complete(id int64) error {
	_, err := s.db.Exec(`UPDATE chores SET completed = 1, updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("complete chore: %w", err)
	}
	return nil
}
