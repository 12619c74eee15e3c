package matching

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/lender"
	"p2p-lending/internal/domain/loan"
)

const (
	wRisk     = 0.35
	wInterest = 0.25
	wCapital  = 0.20
	wDuration = 0.10
	wGeo      = 0.05
	wUrgency  = 0.05

	MinScore = 25.0
)

// Components are the unweighted 0-100 sub-scores of a match.
type Components struct {
	RiskAlignment float64 `json:"risk_alignment"`
	Interest      float64 `json:"interest"`
	CapitalFit    float64 `json:"capital_fit"`
	Duration      float64 `json:"duration"`
	Geography     float64 `json:"geography"`
	Urgency       float64 `json:"urgency"`
}

func Score(p *lender.Preferences, l *loan.Loan, now time.Time) (float64, Components) {
	c := Components{
		RiskAlignment: riskAlignment(p, l),
		Interest:      interestScore(l.InterestRate),
		CapitalFit:    capitalFit(l.Principal, p.MaxInvestment),
		Duration:      durationScore(p, l.DurationMonths),
		Geography:     geoScore(p, l.BorrowerCountry),
		Urgency:       urgency(l, now),
	}
	total := c.RiskAlignment*wRisk +
		c.Interest*wInterest +
		c.CapitalFit*wCapital +
		c.Duration*wDuration +
		c.Geography*wGeo +
		c.Urgency*wUrgency
	return math.Round(total*100) / 100, c
}

func riskAlignment(p *lender.Preferences, l *loan.Loan) float64 {
	d := p.RiskTolerance.Rank() - l.RiskLevel.Rank()
	switch {
	case d == 0:
		return 100
	case d == 1 || d == -1:
		return 70
	default:
		return 30
	}
}

func interestScore(rate float64) float64 {
	switch {
	case rate >= 20:
		return 100
	case rate >= 15:
		return 80
	case rate >= 12:
		return 60
	default:
		return 40
	}
}

func capitalFit(principal, capacity decimal.Decimal) float64 {
	if !capacity.IsPositive() || !principal.IsPositive() {
		return 50
	}
	return decimal.Min(principal, capacity).Div(decimal.Max(principal, capacity)).InexactFloat64() * 100
}

func durationScore(p *lender.Preferences, months int) float64 {
	preferred := months >= 6 && months <= 18
	if len(p.PreferredDurations) > 0 {
		preferred = p.PrefersDuration(months)
	}
	switch {
	case preferred:
		return 100
	case months <= 36:
		return 60
	default:
		return 30
	}
}

func geoScore(p *lender.Preferences, country string) float64 {
	switch {
	case p.PrefersCountry(country):
		return 100
	case sameRegion(p.CountryCode, country):
		return 70
	default:
		return 50
	}
}

func urgency(l *loan.Loan, now time.Time) float64 {
	var s float64
	progress := 0.0
	if l.Principal.IsPositive() {
		progress = l.FundedAmount.Div(l.Principal).InexactFloat64()
	}
	switch {
	case progress >= 0.8:
		s = 100
	case progress >= 0.5:
		s = 70
	case progress >= 0.2:
		s = 50
	default:
		s = 30
	}

	opened := l.CreatedAt
	if l.DecidedAt != nil {
		opened = *l.DecidedAt
	}
	switch age := now.Sub(opened); {
	case age >= 14*24*time.Hour:
		s += 20
	case age >= 7*24*time.Hour:
		s += 10
	}
	return math.Min(s, 100)
}

var regions = map[string]string{
	// East Africa
	"KE": "east-africa", "UG": "east-africa", "TZ": "east-africa", "RW": "east-africa",
	"BI": "east-africa", "ET": "east-africa", "SO": "east-africa", "SS": "east-africa",
	// West Africa
	"NG": "west-africa", "GH": "west-africa", "SN": "west-africa", "CI": "west-africa",
	"ML": "west-africa", "BF": "west-africa", "NE": "west-africa", "TG": "west-africa",
	"BJ": "west-africa", "SL": "west-africa", "LR": "west-africa", "GM": "west-africa",
	// Southern Africa
	"ZA": "southern-africa", "ZM": "southern-africa", "ZW": "southern-africa", "MW": "southern-africa",
	"MZ": "southern-africa", "BW": "southern-africa", "NA": "southern-africa", "LS": "southern-africa",
	// Central Africa
	"CM": "central-africa", "CD": "central-africa", "CG": "central-africa", "GA": "central-africa",
	"TD": "central-africa", "CF": "central-africa",
	// North Africa
	"EG": "north-africa", "MA": "north-africa", "TN": "north-africa", "DZ": "north-africa", "LY": "north-africa",
	// Southeast Asia
	"ID": "southeast-asia", "PH": "southeast-asia", "VN": "southeast-asia", "TH": "southeast-asia", "MY": "southeast-asia",
}

func sameRegion(a, b string) bool {
	ra, ok := regions[a]
	return ok && ra == regions[b]
}
