// Package matching ranks open loans for a lender. It only reads.
package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"p2p-lending/internal/domain/investment"
	"p2p-lending/internal/domain/lender"
	"p2p-lending/internal/domain/loan"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Match struct {
	Loan       loan.Loan  `json:"loan"`
	MatchScore float64    `json:"match_score"`
	Components Components `json:"components"`
}

type Usecase struct {
	loans       loan.Repository
	investments investment.Repository
	lenders     lender.Repository
	now         func() time.Time
	minScore    float64
}

func NewUsecase(loans loan.Repository, investments investment.Repository, lenders lender.Repository) *Usecase {
	return &Usecase{loans: loans, investments: investments, lenders: lenders, now: time.Now, minScore: MinScore}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// WithMinScore replaces the cut-off below which a loan is not offered.
func (u *Usecase) WithMinScore(s float64) *Usecase {
	u.minScore = s
	return u
}

func (u *Usecase) FindMatches(ctx context.Context, lenderID string, limit int) ([]Match, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	prefs, err := u.lenders.Get(ctx, lenderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, lender.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	held, err := u.investments.ListByInvestor(ctx, lenderID)
	if err != nil {
		return nil, fmt.Errorf("list portfolio: %w", err)
	}
	invested := make(map[uint64]bool, len(held))
	for _, inv := range held {
		invested[inv.LoanID] = true
	}

	open, err := u.loans.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open loans: %w", err)
	}

	now := u.now()
	out := make([]Match, 0, len(open))
	for _, l := range open {
		if invested[l.ID] || l.BorrowerID == lenderID || !l.IsOpen() {
			continue
		}
		if prefs.MinInvestment.IsPositive() && l.Remaining().LessThan(prefs.MinInvestment) {
			continue
		}
		score, c := Score(prefs, &l, now)
		if score < u.minScore {
			continue
		}
		out = append(out, Match{Loan: l, MatchScore: score, Components: c})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if !a.Loan.CreatedAt.Equal(b.Loan.CreatedAt) {
			return a.Loan.CreatedAt.Before(b.Loan.CreatedAt)
		}
		return a.Loan.ID < b.Loan.ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
