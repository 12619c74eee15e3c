package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"p2p-lending/internal/domain/audit"
	investmentDomain "p2p-lending/internal/domain/investment"
	loanDomain "p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/uow"
	"p2p-lending/internal/testutil/dbtest"
	"p2p-lending/pkg/id"
)

func makeInvestment(loanNumericID uint64, investorID, amount string) *investmentDomain.Investment {
	return &investmentDomain.Investment{
		InvestmentID: id.NewID32(),
		InvestorID:   investorID,
		LoanID:       loanNumericID,
		Amount:       decimal.RequireFromString(amount),
		Status:       investmentDomain.StatusActive,
	}
}

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)
	trRepo := NewTransitionRepository(db)

	loanID := id.NewID32()
	var numericID uint64
	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		l := makeLoan(loanID, id.NewID32(), loanDomain.StatusPending)
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		numericID = l.ID
		return r.Transitions.Create(ctx, &audit.Transition{
			LoanID: l.ID, ToStatus: string(l.Status), Actor: "borrower", OccurredAt: time.Now().UTC(),
		})
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	if _, err := loanRepo.GetByLoanID(ctx, loanID); err != nil {
		t.Fatalf("loan not visible after commit: %v", err)
	}
	trs, err := trRepo.ListByLoan(ctx, numericID)
	if err != nil || len(trs) != 1 || trs[0].ToStatus != "PENDING" {
		t.Fatalf("transition not visible after commit: %v %+v", err, trs)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)

	loanID := id.NewID32()
	sentinel := errors.New("boom")

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, makeLoan(loanID, id.NewID32(), loanDomain.StatusPending)); err != nil {
			return err
		}
		return sentinel // force rollback
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v", err)
	}

	if _, err := loanRepo.GetByLoanID(ctx, loanID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected loan not found after rollback, got %v", err)
	}
}

func TestGormUoW_WithinLoanTx_Commit(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)
	invRepo := NewInvestmentRepository(db)

	seed := makeLoan(id.NewID32(), id.NewID32(), loanDomain.StatusApproved)
	if err := loanRepo.Create(ctx, seed); err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	investor := id.NewID32()

	if err := guow.WithinLoanTx(ctx, seed.LoanID, func(r uow.Repos, l *loanDomain.Loan) error {
		if l == nil || l.LoanID != seed.LoanID || l.Status != loanDomain.StatusApproved {
			t.Fatalf("unexpected loan passed to fn: %+v", l)
		}
		if ok, err := r.Loans.AddFunding(ctx, l.ID, amt(250_000)); err != nil || !ok {
			t.Fatalf("AddFunding ok=%v err=%v", ok, err)
		}
		return r.Investments.Create(ctx, makeInvestment(l.ID, investor, "250000"))
	}); err != nil {
		t.Fatalf("WithinLoanTx commit err: %v", err)
	}

	got, err := loanRepo.GetByLoanID(ctx, seed.LoanID)
	if err != nil {
		t.Fatalf("GetByLoanID post-commit: %v", err)
	}
	if !got.FundedAmount.Equal(amt(250_000)) {
		t.Fatalf("funded = %v", got.FundedAmount)
	}
	if _, err := invRepo.GetByLoanAndInvestor(ctx, seed.ID, investor); err != nil {
		t.Fatalf("investment not visible after commit: %v", err)
	}
}

func TestGormUoW_WithinLoanTx_Rollback(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)
	invRepo := NewInvestmentRepository(db)

	seed := makeLoan(id.NewID32(), id.NewID32(), loanDomain.StatusApproved)
	if err := loanRepo.Create(ctx, seed); err != nil {
		t.Fatalf("seed loan: %v", err)
	}

	sentinel := errors.New("stop")
	_ = guow.WithinLoanTx(ctx, seed.LoanID, func(r uow.Repos, l *loanDomain.Loan) error {
		if _, err := r.Loans.AddFunding(ctx, l.ID, amt(100_000)); err != nil {
			return err
		}
		if err := r.Investments.Create(ctx, makeInvestment(l.ID, "inv", "100000")); err != nil {
			return err
		}
		return sentinel // force rollback
	})

	got, err := loanRepo.GetByLoanID(ctx, seed.LoanID)
	if err != nil {
		t.Fatalf("post-rollback GetByLoanID: %v", err)
	}
	if !got.FundedAmount.IsZero() {
		t.Fatalf("expected funded_amount 0 after rollback, got %v", got.FundedAmount)
	}
	if n, _ := invRepo.SumByLoan(ctx, seed.ID); !n.IsZero() {
		t.Fatalf("expected no investments after rollback, got sum %v", n)
	}
}

func TestGormUoW_WithinLoanTx_LoanNotFound(t *testing.T) {
	guow := NewGormUoW(dbtest.Open(t))

	err := guow.WithinLoanTx(context.Background(), "ffffffffffffffffffffffffffffffff", func(r uow.Repos, l *loanDomain.Loan) error {
		t.Fatalf("callback should not be called when loan missing")
		return nil
	})
	if !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("expected loan.ErrNotFound, got %v", err)
	}
}
