package audit

import (
	"context"
	"time"
)

// Transition (table: loan_transitions) records one lifecycle status change.
// Rows are written in the same tx as the change itself.
type Transition struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	LoanID     uint64    `gorm:"column:loan_id;not null;index:idx_loan_transitions_loan" json:"-"`
	FromStatus string    `gorm:"column:from_status;type:varchar(16)" json:"from_status"`
	ToStatus   string    `gorm:"column:to_status;type:varchar(16);not null" json:"to_status"`
	Actor      string    `gorm:"column:actor;type:varchar(64);not null" json:"actor"`
	Reason     string    `gorm:"column:reason;type:text" json:"reason,omitempty"`
	OccurredAt time.Time `gorm:"column:occurred_at;not null" json:"occurred_at"`
}

func (Transition) TableName() string { return "loan_transitions" }

// Actor used for transitions triggered by the system rather than a person.
const ActorSystem = "system"

type Repository interface {
	Create(ctx context.Context, t *Transition) error
	// ListByLoan returns transitions oldest first.
	ListByLoan(ctx context.Context, loanID uint64) ([]Transition, error)
}
