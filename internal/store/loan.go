package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rgoodwin/hearth/internal/model"
)

// loanPeriodDays is how long a game can be out before the loan counts as overdue.
const loanPeriodDays = 30

type LoanStore struct {
	db *sql.DB
}

func NewLoanStore(db *sql.DB) *LoanStore {
	return &LoanStore{db: db}
}

const loanCols = `id, game_title, borrower_name, loaned_at, returned_at, reminder_sent_at, created_at`

func scanLoan(scanner interface{ Scan(...any) error }) (*model.GameLoan, error) {
	var l model.GameLoan
	var returnedAt, reminderSentAt sql.NullTime

	err := scanner.Scan(&l.ID, &l.GameTitle, &l.BorrowerName, &l.LoanedAt, &returnedAt, &reminderSentAt, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	l.ReturnedAt = nullTimePtr(returnedAt)
	l.ReminderSentAt = nullTimePtr(reminderSentAt)
	return &l, nil
}

func (s *LoanStore) Create(gameTitle, borrowerName string, loanedAt time.Time) (*model.GameLoan, error) {
	result, err := s.db.Exec(
		`INSERT INTO game_loans (game_title, borrower_name, loaned_at) VALUES (?, ?, ?)`,
		gameTitle, borrowerName, loanedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert game loan: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *LoanStore) GetByID(id int64) (*model.GameLoan, error) {
	row := s.db.QueryRow(`SELECT `+loanCols+` FROM game_loans WHERE id = ?`, id)
	l, err := scanLoan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game loan: %w", err)
	}
	return l, nil
}

// Overdue returns unreturned loans out longer than the loan period, each
// annotated with whole days since the loan started.
func (s *LoanStore) Overdue(now time.Time) ([]model.OverdueLoan, error) {
	cutoff := now.UTC().AddDate(0, 0, -loanPeriodDays)
	rows, err := s.db.Query(
		`SELECT `+loanCols+` FROM game_loans
		 WHERE returned_at IS NULL AND loaned_at <= ? ORDER BY loaned_at ASC`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("list overdue loans: %w", err)
	}
	defer rows.Close()

	var loans []model.OverdueLoan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game loan: %w", err)
		}
		days := int(now.UTC().Sub(l.LoanedAt.UTC()).Hours() / 24)
		loans = append(loans, model.OverdueLoan{GameLoan: *l, DaysOverdue: days})
	}
	return loans, rows.Err()
}

func (s *LoanStore) MarkReminderSent(id int64, now time.Time) error {
	_, err := s.db.Exec(`UPDATE game_loans SET reminder_sent_at = ? WHERE id = ?`, now.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark loan reminder sent: %w", err)
	}
	return nil
}

func (s *LoanStore) MarkReturned(id int64, now time.Time) error {
	_, err := s.db.Exec(`UPDATE game_loans SET returned_at = ? WHERE id = ?`, now.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark loan returned: %w", err)
	}
	return nil
}
