package loanmock

import (
	"context"

	"github.com/shopspring/decimal"

	domain "p2p-lending/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset lookups return context.Canceled; unset writes are no-ops.
type Repo struct {
	CreateFn                     func(ctx context.Context, l *domain.Loan) error
	SaveFn                       func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn                func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByLoanIDForUpdateFn       func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByIDFn                    func(ctx context.Context, id uint64) (*domain.Loan, error)
	GetPendingLoanByBorrowerIDFn func(ctx context.Context, borrowerID string) (*domain.Loan, error)
	CountClosedByBorrowerFn      func(ctx context.Context, borrowerID string) (int, int, error)
	ListOpenFn                   func(ctx context.Context) ([]domain.Loan, error)
	ListByIDsFn                  func(ctx context.Context, ids []uint64) ([]domain.Loan, error)
	AddFundingFn                 func(ctx context.Context, id uint64, amount decimal.Decimal) (bool, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*domain.Loan, error) {
	if m.GetPendingLoanByBorrowerIDFn != nil {
		return m.GetPendingLoanByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) CountClosedByBorrower(ctx context.Context, borrowerID string) (int, int, error) {
	if m.CountClosedByBorrowerFn != nil {
		return m.CountClosedByBorrowerFn(ctx, borrowerID)
	}
	return 0, 0, nil
}

func (m *Repo) ListOpen(ctx context.Context) ([]domain.Loan, error) {
	if m.ListOpenFn != nil {
		return m.ListOpenFn(ctx)
	}
	return nil, nil
}

func (m *Repo) ListByIDs(ctx context.Context, ids []uint64) ([]domain.Loan, error) {
	if m.ListByIDsFn != nil {
		return m.ListByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (m *Repo) AddFunding(ctx context.Context, id uint64, amount decimal.Decimal) (bool, error) {
	if m.AddFundingFn != nil {
		return m.AddFundingFn(ctx, id, amount)
	}
	return false, context.Canceled
}
