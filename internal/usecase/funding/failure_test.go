package funding

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/adapter/repository/mysql"
	"p2p-lending/internal/domain/apperr"
	"p2p-lending/internal/domain/investment"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/uow"
	"p2p-lending/internal/testutil/dbtest"
	"p2p-lending/internal/testutil/eventmock"
	"p2p-lending/internal/testutil/loanmock"
	"p2p-lending/internal/testutil/uowmock"
	"p2p-lending/pkg/id"
)

type noActivate struct{ called bool }

func (a *noActivate) ActivateInTx(context.Context, uow.Repos, *loan.Loan) (bool, error) {
	a.called = true
	return true, nil
}

// mockEnv runs the usecase over a scripted loan repo and a real investment table.
func mockEnv(t *testing.T, loans *loanmock.Repo) (*Usecase, *mysql.InvestmentRepository, *eventmock.Recorder) {
	t.Helper()
	investments := mysql.NewInvestmentRepository(dbtest.Open(t))
	pub := &eventmock.Recorder{}
	tx := uowmock.Passthrough(uow.Repos{Loans: loans, Investments: investments})
	return NewUsecase(loans, investments, tx, &noActivate{}, pub), investments, pub
}

func openLoan() *loan.Loan {
	return &loan.Loan{ID: 7, LoanID: id.NewID32(), BorrowerID: id.NewID32(), Principal: amt(100_000), Status: loan.StatusApproved}
}

func TestRecordInvestment_StaleCapacityCheck(t *testing.T) {
	l := openLoan()
	loans := &loanmock.Repo{
		GetByLoanIDForUpdateFn: func(context.Context, string) (*loan.Loan, error) { return l, nil },
		AddFundingFn:           func(context.Context, uint64, decimal.Decimal) (bool, error) { return false, nil },
	}
	uc, investments, pub := mockEnv(t, loans)

	_, err := uc.RecordInvestment(context.Background(), InvestInput{LoanID: l.LoanID, InvestorID: id.NewID32(), Amount: amt(10_000)})
	var re *investment.RemainingError
	if !errors.As(err, &re) || !re.Remaining.Equal(amt(100_000)) {
		t.Fatalf("want RemainingError{100000}, got %v", err)
	}
	if got, _ := investments.ListByLoan(context.Background(), l.ID); len(got) != 0 {
		t.Fatalf("no investment should be written, got %d", len(got))
	}
	if n := len(pub.Events()); n != 0 {
		t.Fatalf("events = %d, want 0", n)
	}
}

func TestRecordInvestment_StorageErrorPassesThrough(t *testing.T) {
	l := openLoan()
	down := errors.New("connection reset")
	loans := &loanmock.Repo{
		GetByLoanIDForUpdateFn: func(context.Context, string) (*loan.Loan, error) { return l, nil },
		AddFundingFn:           func(context.Context, uint64, decimal.Decimal) (bool, error) { return false, down },
	}
	uc, _, pub := mockEnv(t, loans)

	_, err := uc.RecordInvestment(context.Background(), InvestInput{LoanID: l.LoanID, InvestorID: id.NewID32(), Amount: amt(10_000)})
	if !errors.Is(err, down) {
		t.Fatalf("want storage error, got %v", err)
	}
	if apperr.KindOf(err) != "" {
		t.Fatalf("storage errors must stay outside the domain taxonomy, got kind %q", apperr.KindOf(err))
	}
	if n := len(pub.Events()); n != 0 {
		t.Fatalf("events = %d, want 0", n)
	}
}

func TestRecordInvestment_ClosingInvestmentActivates(t *testing.T) {
	l := openLoan()
	l.FundedAmount = amt(90_000)
	loans := &loanmock.Repo{
		GetByLoanIDForUpdateFn: func(context.Context, string) (*loan.Loan, error) { return l, nil },
		AddFundingFn:           func(context.Context, uint64, decimal.Decimal) (bool, error) { return true, nil },
	}
	investments := mysql.NewInvestmentRepository(dbtest.Open(t))
	act := &noActivate{}
	pub := &eventmock.Recorder{}
	uc := NewUsecase(loans, investments, uowmock.Passthrough(uow.Repos{Loans: loans, Investments: investments}), act, pub)

	res, err := uc.RecordInvestment(context.Background(), InvestInput{LoanID: l.LoanID, InvestorID: id.NewID32(), Amount: amt(10_000)})
	if err != nil {
		t.Fatal(err)
	}
	if !res.FullyFunded || !act.called {
		t.Fatalf("fully_funded=%v activator called=%v", res.FullyFunded, act.called)
	}
	if !res.Loan.FundedAmount.Equal(amt(100_000)) {
		t.Fatalf("funded = %v", res.Loan.FundedAmount)
	}
}

func TestListByLoan_StorageError(t *testing.T) {
	down := errors.New("timeout")
	uc, _, _ := mockEnv(t, &loanmock.Repo{
		GetByLoanIDFn: func(context.Context, string) (*loan.Loan, error) { return nil, down },
	})
	if _, err := uc.ListByLoan(context.Background(), id.NewID32()); !errors.Is(err, down) {
		t.Fatalf("want %v, got %v", down, err)
	}
}
