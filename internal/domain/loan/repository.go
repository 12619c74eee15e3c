package loan

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByLoanIDForUpdate locks the row until the surrounding tx ends.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*Loan, error)
	CountClosedByBorrower(ctx context.Context, borrowerID string) (completed, defaulted int, err error)
	// ListOpen returns APPROVED loans with a funding gap, oldest first.
	ListOpen(ctx context.Context) ([]Loan, error)
	ListByIDs(ctx context.Context, ids []uint64) ([]Loan, error)
	// AddFunding increments funded_amount only while the loan is APPROVED and
	// the result stays within principal. ok is false when no row matched.
	AddFunding(ctx context.Context, id uint64, amount decimal.Decimal) (ok bool, err error)
}
