package mysql

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	investmentDomain "p2p-lending/internal/domain/investment"
	loanDomain "p2p-lending/internal/domain/loan"
	"p2p-lending/internal/testutil/dbtest"
	"p2p-lending/pkg/id"
)

func TestInvestmentRepository(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	loans := NewLoanRepository(db)
	repo := NewInvestmentRepository(db)

	l := makeLoan(id.NewID32(), id.NewID32(), loanDomain.StatusApproved)
	other := makeLoan(id.NewID32(), id.NewID32(), loanDomain.StatusApproved)
	for _, x := range []*loanDomain.Loan{l, other} {
		if err := loans.Create(ctx, x); err != nil {
			t.Fatal(err)
		}
	}

	alice, bob := id.NewID32(), id.NewID32()
	for _, inv := range []*investmentDomain.Investment{
		makeInvestment(l.ID, alice, "600000"),
		makeInvestment(l.ID, bob, "150000.50"),
		makeInvestment(other.ID, alice, "20000"),
	} {
		if err := repo.Create(ctx, inv); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	t.Run("unique per loan and investor", func(t *testing.T) {
		err := repo.Create(ctx, makeInvestment(l.ID, alice, "1"))
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			t.Fatalf("want gorm.ErrDuplicatedKey, got %v", err)
		}
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetByLoanAndInvestor(ctx, l.ID, bob)
		if err != nil || !got.Amount.Equal(decimal.RequireFromString("150000.5")) {
			t.Fatalf("GetByLoanAndInvestor: %v %+v", err, got)
		}
		if _, err := repo.GetByLoanAndInvestor(ctx, other.ID, bob); !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Fatalf("want not found, got %v", err)
		}
	})

	t.Run("list and sum", func(t *testing.T) {
		byLoan, err := repo.ListByLoan(ctx, l.ID)
		if err != nil || len(byLoan) != 2 || byLoan[0].InvestorID != alice {
			t.Fatalf("ListByLoan: %v %+v", err, byLoan)
		}
		byInvestor, err := repo.ListByInvestor(ctx, alice)
		if err != nil || len(byInvestor) != 2 {
			t.Fatalf("ListByInvestor: %v %+v", err, byInvestor)
		}
		sum, err := repo.SumByLoan(ctx, l.ID)
		if err != nil || !sum.Equal(decimal.RequireFromString("750000.50")) {
			t.Fatalf("SumByLoan = %v, %v", sum, err)
		}
	})

	t.Run("mark completed", func(t *testing.T) {
		if err := repo.MarkCompletedByLoan(ctx, l.ID); err != nil {
			t.Fatalf("MarkCompletedByLoan: %v", err)
		}
		byLoan, _ := repo.ListByLoan(ctx, l.ID)
		for _, inv := range byLoan {
			if inv.Status != investmentDomain.StatusCompleted {
				t.Fatalf("investment %s status %s", inv.InvestmentID, inv.Status)
			}
		}
		untouched, _ := repo.GetByLoanAndInvestor(ctx, other.ID, alice)
		if untouched.Status != investmentDomain.StatusActive {
			t.Fatalf("other loan investments must stay ACTIVE")
		}
	})
}
