// Package risk prices a loan request from borrower attributes.
//
// Assess is pure: identical factors always produce an identical Assessment,
// which is what lets historical pricing be reproduced for audit.
package risk

import "math"

type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Rank orders levels LOW=0, MEDIUM=1, HIGH=2; unknown levels rank HIGH.
func (l Level) Rank() int {
	switch l {
	case LevelLow:
		return 0
	case LevelMedium:
		return 1
	default:
		return 2
	}
}

func (l Level) Valid() bool { return l == LevelLow || l == LevelMedium || l == LevelHigh }

const (
	BaseRate     = 12.0
	MaxRate      = 30.0
	MaxLoanLimit = 10_000_000.0

	minCreditScore = 300.0
	maxCreditScore = 850.0
)

// sub-score weights, sum to 1
const (
	wCredit     = 0.25
	wIncome     = 0.20
	wEmployment = 0.15
	wLoanSize   = 0.15
	wDuration   = 0.15
	wHistory    = 0.10
)

var employmentScores = map[string]float64{
	"employed":      100,
	"self-employed": 75,
	"freelancer":    60,
	"student":       40,
	"unemployed":    10,
}

type Factors struct {
	CreditScore    float64
	MonthlyIncome  float64
	Employment     string
	Amount         float64
	DurationMonths int
	CompletedLoans int
	DefaultedLoans int
}

type Assessment struct {
	RiskScore           float64 `json:"risk_score"`
	RiskLevel           Level   `json:"risk_level"`
	InterestRate        float64 `json:"interest_rate"`
	MaxLoanAmount       float64 `json:"max_loan_amount"`
	RecommendedDuration int     `json:"recommended_duration"`
	Breakdown           Scores  `json:"breakdown"`
}

// Scores are the clamped sub-scores before weighting.
type Scores struct {
	Credit     float64 `json:"credit"`
	Income     float64 `json:"income"`
	Employment float64 `json:"employment"`
	LoanSize   float64 `json:"loan_size"`
	Duration   float64 `json:"duration"`
	History    float64 `json:"history"`
}

func Assess(f Factors) Assessment {
	f = sanitize(f)

	s := Scores{
		Credit:     creditScore(f.CreditScore),
		Income:     incomeScore(f.MonthlyIncome, f.Amount, f.DurationMonths),
		Employment: clamp(employmentScores[f.Employment]),
		LoanSize:   loanSizeScore(f.MonthlyIncome, f.Amount),
		Duration:   durationScore(f.DurationMonths),
		History:    historyScore(f.CompletedLoans, f.DefaultedLoans),
	}

	score := s.Credit*wCredit +
		s.Income*wIncome +
		s.Employment*wEmployment +
		s.LoanSize*wLoanSize +
		s.Duration*wDuration +
		s.History*wHistory
	score = round2(clamp(score))

	level := LevelFor(score)
	return Assessment{
		RiskScore:           score,
		RiskLevel:           level,
		InterestRate:        RateFor(score),
		MaxLoanAmount:       maxLoanAmount(f.MonthlyIncome, level),
		RecommendedDuration: recommendedDuration(f.DurationMonths, level),
		Breakdown:           s,
	}
}

func LevelFor(score float64) Level {
	switch {
	case score >= 80:
		return LevelLow
	case score >= 60:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// RateFor returns the annual interest rate in percent.
func RateFor(score float64) float64 {
	rate := BaseRate + (100-clamp(score))/10
	if rate > MaxRate {
		rate = MaxRate
	}
	return round2(rate)
}

func creditScore(cs float64) float64 {
	return clamp((cs - minCreditScore) / (maxCreditScore - minCreditScore) * 100)
}

func incomeScore(income, amount float64, months int) float64 {
	if amount <= 0 || months <= 0 {
		return 100
	}
	payment := amount / float64(months)
	return clamp(income / payment * 20)
}

func loanSizeScore(income, amount float64) float64 {
	annual := income * 12
	if annual <= 0 {
		return 0
	}
	return clamp(100 - amount/annual*100)
}

func durationScore(months int) float64 {
	switch {
	case months <= 12:
		return 100
	case months <= 24:
		return 80
	case months <= 36:
		return 60
	case months <= 48:
		return 40
	default:
		return 20
	}
}

func historyScore(completed, defaulted int) float64 {
	total := completed + defaulted
	if total == 0 {
		return 50
	}
	return clamp(float64(completed) / float64(total) * 100)
}

func maxLoanAmount(income float64, level Level) float64 {
	mult := 0.2
	switch level {
	case LevelLow:
		mult = 0.5
	case LevelMedium:
		mult = 0.35
	}
	return round2(math.Min(income*12*mult, MaxLoanLimit))
}

func recommendedDuration(requested int, level Level) int {
	limit := 12
	switch level {
	case LevelLow:
		limit = 36
	case LevelMedium:
		limit = 24
	}
	if requested <= 0 || requested > limit {
		return limit
	}
	return requested
}

// sanitize zeroes negative or non-finite inputs; borrower data quality is uneven.
func sanitize(f Factors) Factors {
	f.CreditScore = nonNeg(f.CreditScore)
	f.MonthlyIncome = nonNeg(f.MonthlyIncome)
	f.Amount = nonNeg(f.Amount)
	if f.DurationMonths < 0 {
		f.DurationMonths = 0
	}
	if f.CompletedLoans < 0 {
		f.CompletedLoans = 0
	}
	if f.DefaultedLoans < 0 {
		f.DefaultedLoans = 0
	}
	return f
}

func nonNeg(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
