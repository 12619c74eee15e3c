// Package funding records investments against a loan. All checks and writes
// for one investment happen inside the loan's row-locked transaction.
package funding

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"p2p-lending/internal/domain/event"
	"p2p-lending/internal/domain/investment"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/uow"
	"p2p-lending/pkg/id"
)

// Activator moves a loan whose gap just reached zero to ACTIVE within the
// same transaction.
type Activator interface {
	ActivateInTx(ctx context.Context, r uow.Repos, l *loan.Loan) (bool, error)
}

type Usecase struct {
	loans       loan.Repository
	investments investment.Repository
	uow         uow.UnitOfWork
	activator   Activator
	pub         event.Publisher
}

func NewUsecase(loans loan.Repository, investments investment.Repository, tx uow.UnitOfWork, a Activator, pub event.Publisher) *Usecase {
	return &Usecase{loans: loans, investments: investments, uow: tx, activator: a, pub: pub}
}

func validAmount(a decimal.Decimal) bool {
	return a.IsPositive() && a.Equal(a.Round(2))
}

func (u *Usecase) RecordInvestment(ctx context.Context, in InvestInput) (*InvestResult, error) {
	if !id.Valid(in.InvestorID) {
		return nil, investment.ErrInvalidInvestor
	}
	if !validAmount(in.Amount) {
		return nil, investment.ErrInvalidAmount
	}

	res := &InvestResult{}
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		res.Loan = l

		switch l.Status {
		case loan.StatusPending, loan.StatusRejected:
			return fmt.Errorf("loan %s (%s): %w", l.LoanID, l.Status, investment.ErrLoanNotOpen)
		case loan.StatusActive, loan.StatusCompleted, loan.StatusDefaulted:
			return investment.ErrAlreadyFunded
		}
		remaining := l.Remaining()
		if remaining.IsZero() {
			return investment.ErrAlreadyFunded
		}
		if l.BorrowerID == in.InvestorID {
			return investment.ErrSelfInvestment
		}

		_, err := r.Investments.GetByLoanAndInvestor(ctx, l.ID, in.InvestorID)
		switch {
		case err == nil:
			return investment.ErrDuplicateInvestor
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if in.Amount.GreaterThan(remaining) {
			return &investment.RemainingError{Remaining: remaining}
		}

		ok, err := r.Loans.AddFunding(ctx, l.ID, in.Amount)
		if err != nil {
			return err
		}
		if !ok {
			// row is locked, so only a stale read gets here
			return &investment.RemainingError{Remaining: remaining}
		}

		inv := &investment.Investment{
			InvestmentID: id.NewID32(),
			InvestorID:   in.InvestorID,
			LoanID:       l.ID,
			Amount:       in.Amount,
			Status:       investment.StatusActive,
		}
		if err := r.Investments.Create(ctx, inv); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return investment.ErrDuplicateInvestor
			}
			return err
		}
		res.Investment = inv
		l.FundedAmount = l.FundedAmount.Add(in.Amount)

		if l.FullyFunded() {
			res.FullyFunded = true
			if _, err := u.activator.ActivateInTx(ctx, r, l); err != nil {
				return fmt.Errorf("activate funded loan %s: %w", l.LoanID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l := res.Loan
	evs := []event.Event{event.New(event.InvestmentReceived, l.LoanID, res.Investment.CreatedAt, map[string]any{
		"investment_id": res.Investment.InvestmentID,
		"investor_id":   res.Investment.InvestorID,
		"amount":        res.Investment.Amount,
		"funded_amount": l.FundedAmount,
		"remaining":     l.Remaining(),
	})}
	if res.FullyFunded {
		evs = append(evs, event.New(event.LoanFullyFunded, l.LoanID, res.Investment.CreatedAt, map[string]any{
			"funded_amount": l.FundedAmount,
			"status":        l.Status,
		}))
	}
	event.Dispatch(ctx, u.pub, evs...)
	return res, nil
}

func (u *Usecase) ListByLoan(ctx context.Context, loanID string) ([]investment.Investment, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loan.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u.investments.ListByLoan(ctx, l.ID)
}
