package model

// DigestData is the cross-domain snapshot of "what matters today" that the
// daily digest email is rendered from.
type DigestData struct {
	Events       []CalendarEvent `json:"events"`
	Tasks        []Task          `json:"tasks"`
	Chores       []Chore         `json:"chores"`
	OverdueLoans []OverdueLoan   `json:"overdue_loans"`
}

// Empty reports whether there is nothing worth emailing about.
func (d DigestData) Empty() bool {
	return len(d.Events)+len(d.Tasks)+len(d.Chores)+len(d.OverdueLoans) == 0
}
