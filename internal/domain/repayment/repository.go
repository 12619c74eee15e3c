package repayment

import (
	"context"
	"time"
)

// Repository has no method that rewrites schedule columns.
type Repository interface {
	CreateBatch(ctx context.Context, items []Installment) error
	CountByLoan(ctx context.Context, loanID uint64) (int64, error)
	CountUnpaidByLoan(ctx context.Context, loanID uint64) (int64, error)
	// ListByLoan returns the schedule ordered by sequence.
	ListByLoan(ctx context.Context, loanID uint64) ([]Installment, error)
	GetByInstallmentID(ctx context.Context, installmentID string) (*Installment, error)
	// UpdatePayment persists status, paid_at, paid_amount, late_fee and payment_ref.
	UpdatePayment(ctx context.Context, inst *Installment) error
	// ListUnpaidDueBetween returns PENDING or OVERDUE installments with from <= due_date < to.
	ListUnpaidDueBetween(ctx context.Context, from, to time.Time) ([]Installment, error)
	// MarkOverdue flips PENDING installments due before cutoff to OVERDUE.
	MarkOverdue(ctx context.Context, cutoff time.Time) (int64, error)
}
