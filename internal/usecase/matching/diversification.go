package matching

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/risk"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Recommendation struct {
	Type     string   `json:"type"`
	Priority Priority `json:"priority"`
	Message  string   `json:"message"`
}

// portfolio concentration thresholds
const (
	minLoans          = 5
	maxRiskShare      = 0.50
	maxSingleLoan     = 0.20
	maxCountryShare   = 0.80
	startingLoanCount = 3
)

// DiversificationRecommendations inspects the lender's investments and
// suggests how to spread risk.
func (u *Usecase) DiversificationRecommendations(ctx context.Context, lenderID string) ([]Recommendation, error) {
	held, err := u.investments.ListByInvestor(ctx, lenderID)
	if err != nil {
		return nil, fmt.Errorf("list portfolio: %w", err)
	}
	if len(held) == 0 {
		return []Recommendation{{
			Type:     "start",
			Priority: PriorityHigh,
			Message:  fmt.Sprintf("Start with small investments across at least %d loans of different risk levels.", startingLoanCount),
		}}, nil
	}

	ids := make([]uint64, 0, len(held))
	for _, inv := range held {
		ids = append(ids, inv.LoanID)
	}
	loans, err := u.loans.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load portfolio loans: %w", err)
	}
	level := make(map[uint64]risk.Level, len(loans))
	country := make(map[uint64]string, len(loans))
	for _, l := range loans {
		level[l.ID] = l.RiskLevel
		country[l.ID] = l.BorrowerCountry
	}

	total := decimal.Zero
	byLevel := map[risk.Level]decimal.Decimal{}
	byCountry := map[string]decimal.Decimal{}
	largest := decimal.Zero
	for _, inv := range held {
		amt := inv.Amount
		total = total.Add(amt)
		byLevel[level[inv.LoanID]] = byLevel[level[inv.LoanID]].Add(amt)
		byCountry[country[inv.LoanID]] = byCountry[country[inv.LoanID]].Add(amt)
		if amt.GreaterThan(largest) {
			largest = amt
		}
	}

	var out []Recommendation
	if len(held) < minLoans {
		out = append(out, Recommendation{
			Type:     "spread",
			Priority: PriorityMedium,
			Message:  fmt.Sprintf("Your portfolio holds %d loans; spreading across at least %d lowers the impact of one default.", len(held), minLoans),
		})
	}
	if total.IsZero() {
		return out, nil
	}

	share := func(d decimal.Decimal) float64 { return d.Div(total).InexactFloat64() }

	for _, lv := range []risk.Level{risk.LevelHigh, risk.LevelMedium, risk.LevelLow} {
		if s := share(byLevel[lv]); s > maxRiskShare {
			out = append(out, Recommendation{
				Type:     "risk_concentration",
				Priority: PriorityHigh,
				Message:  fmt.Sprintf("%.0f%% of your capital is in %s-risk loans; consider other risk levels.", s*100, lv),
			})
		}
	}
	// a single loan is trivially 100% of a one-loan portfolio; "spread" covers that
	if len(held) > 1 {
		if s := share(largest); s > maxSingleLoan {
			out = append(out, Recommendation{
				Type:     "loan_concentration",
				Priority: PriorityMedium,
				Message:  fmt.Sprintf("Your largest investment is %.0f%% of your portfolio; keep single loans under %.0f%%.", s*100, maxSingleLoan*100),
			})
		}
	}
	for c, amt := range byCountry {
		if s := share(amt); s > maxCountryShare && c != "" {
			out = append(out, Recommendation{
				Type:     "geo_concentration",
				Priority: PriorityLow,
				Message:  fmt.Sprintf("%.0f%% of your capital is lent in %s; consider borrowers in other countries.", s*100, c),
			})
		}
	}
	return out, nil
}
