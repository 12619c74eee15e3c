package investment

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	// Create fails with gorm.ErrDuplicatedKey when the investor already funded the loan.
	Create(ctx context.Context, inv *Investment) error
	GetByLoanAndInvestor(ctx context.Context, loanID uint64, investorID string) (*Investment, error)
	ListByLoan(ctx context.Context, loanID uint64) ([]Investment, error)
	ListByInvestor(ctx context.Context, investorID string) ([]Investment, error)
	SumByLoan(ctx context.Context, loanID uint64) (decimal.Decimal, error)
	MarkCompletedByLoan(ctx context.Context, loanID uint64) error
}
