package uow

import (
	"context"

	"p2p-lending/internal/domain/audit"
	"p2p-lending/internal/domain/borrower"
	"p2p-lending/internal/domain/investment"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/repayment"
)

// Repos are bound to one transaction.
type Repos struct {
	Loans        loan.Repository
	Investments  investment.Repository
	Installments repayment.Repository
	Transitions  audit.Repository
	Borrowers    borrower.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the loan row first, then pass it in; the per-loan serialization point
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
