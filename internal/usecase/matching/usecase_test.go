package matching

import (
	"context"
	"errors"
	"testing"

	"p2p-lending/internal/adapter/repository/mysql"
	"p2p-lending/internal/domain/investment"
	"p2p-lending/internal/domain/lender"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/risk"
	"p2p-lending/internal/testutil/dbtest"
	"p2p-lending/pkg/id"
)

type env struct {
	uc          *Usecase
	loans       *mysql.LoanRepository
	investments *mysql.InvestmentRepository
	lenders     *mysql.LenderRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.Open(t)
	e := &env{
		loans:       mysql.NewLoanRepository(db),
		investments: mysql.NewInvestmentRepository(db),
		lenders:     mysql.NewLenderRepository(db),
	}
	e.uc = NewUsecase(e.loans, e.investments, e.lenders)
	return e
}

type loanSpec struct {
	level    risk.Level
	rate     float64
	country  string
	funded   int64
	status   loan.Status
	borrower string
}

func (e *env) loan(t *testing.T, s loanSpec) *loan.Loan {
	t.Helper()
	if s.status == "" {
		s.status = loan.StatusApproved
	}
	if s.borrower == "" {
		s.borrower = id.NewID32()
	}
	if s.rate == 0 {
		s.rate = 15
	}
	l := &loan.Loan{
		LoanID:          id.NewID32(),
		BorrowerID:      s.borrower,
		BorrowerCountry: s.country,
		Principal:       amt(100_000),
		FundedAmount:    amt(s.funded),
		DurationMonths:  12,
		InterestRate:    s.rate,
		RiskLevel:       s.level,
		Status:          s.status,
	}
	if err := e.loans.Create(context.Background(), l); err != nil {
		t.Fatal(err)
	}
	return l
}

func (e *env) invest(t *testing.T, l *loan.Loan, investor string, amount int64) {
	t.Helper()
	err := e.investments.Create(context.Background(), &investment.Investment{
		InvestmentID: id.NewID32(),
		InvestorID:   investor,
		LoanID:       l.ID,
		Amount:       amt(amount),
		Status:       investment.StatusActive,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestFindMatches_OrderingAndExclusions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	lenderID := id.NewID32()
	if err := e.lenders.Save(ctx, &lender.Preferences{
		InvestorID:    lenderID,
		CountryCode:   "ID",
		RiskTolerance: risk.LevelMedium,
		MinInvestment: amt(5_000),
		MaxInvestment: amt(100_000),
	}); err != nil {
		t.Fatal(err)
	}

	a := e.loan(t, loanSpec{level: risk.LevelMedium, country: "ID"})
	b := e.loan(t, loanSpec{level: risk.LevelHigh, rate: 20, country: "ID"})
	c := e.loan(t, loanSpec{level: risk.LevelLow, rate: 12, country: "ID"})
	d := e.loan(t, loanSpec{level: risk.LevelMedium, country: "ID"})

	held := e.loan(t, loanSpec{level: risk.LevelMedium, country: "ID"})
	e.invest(t, held, lenderID, 1_000)
	e.loan(t, loanSpec{level: risk.LevelMedium, country: "ID", borrower: lenderID})
	e.loan(t, loanSpec{level: risk.LevelMedium, country: "ID", funded: 97_000})
	e.loan(t, loanSpec{level: risk.LevelMedium, country: "ID", status: loan.StatusPending})

	got, err := e.uc.FindMatches(ctx, lenderID, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{a.LoanID, d.LoanID, b.LoanID, c.LoanID}
	if len(got) != len(want) {
		t.Fatalf("got %d matches, want %d: %+v", len(got), len(want), got)
	}
	for i, m := range got {
		if m.Loan.LoanID != want[i] {
			t.Fatalf("match %d = %s, want %s", i, m.Loan.LoanID, want[i])
		}
	}
	if got[0].MatchScore != 91.5 || got[2].MatchScore != 86 || got[3].MatchScore != 76 {
		t.Fatalf("scores = %v %v %v", got[0].MatchScore, got[2].MatchScore, got[3].MatchScore)
	}

	top, _ := e.uc.FindMatches(ctx, lenderID, 2)
	if len(top) != 2 || top[1].Loan.LoanID != d.LoanID {
		t.Fatalf("limit 2 = %+v", top)
	}
	all, _ := e.uc.FindMatches(ctx, lenderID, 10_000)
	if len(all) != 4 {
		t.Fatalf("clamped limit returned %d", len(all))
	}
}

func TestFindMatches_MinScoreCutoff(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	lenderID := id.NewID32()
	if err := e.lenders.Save(ctx, &lender.Preferences{
		InvestorID:    lenderID,
		CountryCode:   "ID",
		RiskTolerance: risk.LevelMedium,
		MaxInvestment: amt(100_000),
	}); err != nil {
		t.Fatal(err)
	}
	strong := e.loan(t, loanSpec{level: risk.LevelMedium, country: "ID"})
	e.loan(t, loanSpec{level: risk.LevelLow, rate: 12, country: "ID"})

	tests := []struct {
		name     string
		minScore float64
		want     []string
	}{
		{"default keeps both", MinScore, []string{strong.LoanID, ""}},
		{"between the two scores", 80, []string{strong.LoanID}},
		{"above every score", 95, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.uc.WithMinScore(tt.minScore).FindMatches(ctx, lenderID, 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d matches, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, m := range got {
				if m.MatchScore < tt.minScore {
					t.Fatalf("score %v below cut-off %v", m.MatchScore, tt.minScore)
				}
				if tt.want[i] != "" && m.Loan.LoanID != tt.want[i] {
					t.Fatalf("match %d = %s, want %s", i, m.Loan.LoanID, tt.want[i])
				}
			}
		})
	}
}

func TestFindMatches_UnknownLender(t *testing.T) {
	e := newEnv(t)
	if _, err := e.uc.FindMatches(context.Background(), id.NewID32(), 5); !errors.Is(err, lender.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestDiversificationRecommendations(t *testing.T) {
	ctx := context.Background()

	t.Run("empty portfolio", func(t *testing.T) {
		e := newEnv(t)
		got, err := e.uc.DiversificationRecommendations(ctx, id.NewID32())
		if err != nil || len(got) != 1 || got[0].Type != "start" || got[0].Priority != PriorityHigh {
			t.Fatalf("got %+v, %v", got, err)
		}
	})

	t.Run("concentrated", func(t *testing.T) {
		e := newEnv(t)
		investor := id.NewID32()
		for i := 0; i < 2; i++ {
			e.invest(t, e.loan(t, loanSpec{level: risk.LevelHigh, country: "KE"}), investor, 50_000)
		}
		got, err := e.uc.DiversificationRecommendations(ctx, investor)
		if err != nil {
			t.Fatal(err)
		}
		types := map[string]bool{}
		for _, r := range got {
			types[r.Type] = true
		}
		for _, want := range []string{"spread", "risk_concentration", "loan_concentration", "geo_concentration"} {
			if !types[want] {
				t.Errorf("missing %s in %+v", want, got)
			}
		}
	})

	t.Run("single loan is not flagged as loan concentration", func(t *testing.T) {
		e := newEnv(t)
		investor := id.NewID32()
		e.invest(t, e.loan(t, loanSpec{level: risk.LevelLow}), investor, 10_000)
		got, _ := e.uc.DiversificationRecommendations(ctx, investor)
		for _, r := range got {
			if r.Type == "loan_concentration" {
				t.Fatalf("unexpected %+v", r)
			}
		}
	})

	t.Run("balanced", func(t *testing.T) {
		e := newEnv(t)
		investor := id.NewID32()
		specs := []loanSpec{
			{level: risk.LevelLow, country: "KE"},
			{level: risk.LevelLow, country: "KE"},
			{level: risk.LevelMedium, country: "KE"},
			{level: risk.LevelMedium, country: "NG"},
			{level: risk.LevelHigh, country: "NG"},
		}
		for _, s := range specs {
			e.invest(t, e.loan(t, s), investor, 20_000)
		}
		got, err := e.uc.DiversificationRecommendations(ctx, investor)
		if err != nil || len(got) != 0 {
			t.Fatalf("got %+v, %v", got, err)
		}
	})
}
