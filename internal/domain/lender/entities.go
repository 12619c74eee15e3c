package lender

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/apperr"
	"p2p-lending/internal/domain/risk"
)

// Preferences (table: lender_preferences).
type Preferences struct {
	InvestorID         string          `gorm:"column:investor_id;type:char(32);primaryKey" json:"investor_id"`
	CountryCode        string          `gorm:"column:country_code;type:char(2)" json:"country_code"`
	RiskTolerance      risk.Level      `gorm:"column:risk_tolerance;type:varchar(8);not null" json:"risk_tolerance"`
	MinInvestment      decimal.Decimal `gorm:"column:min_investment;type:decimal(18,2);not null;default:0" json:"min_investment"`
	MaxInvestment      decimal.Decimal `gorm:"column:max_investment;type:decimal(18,2);not null;default:0" json:"max_investment"`
	PreferredDurations []int           `gorm:"column:preferred_durations;type:text;serializer:json" json:"preferred_durations"`
	PreferredCountries []string        `gorm:"column:preferred_countries;type:text;serializer:json" json:"preferred_countries"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Preferences) TableName() string { return "lender_preferences" }

func (p *Preferences) PrefersDuration(months int) bool {
	return slices.Contains(p.PreferredDurations, months)
}

func (p *Preferences) PrefersCountry(code string) bool {
	return code != "" && (code == p.CountryCode || slices.Contains(p.PreferredCountries, code))
}

var ErrNotFound = apperr.NotFound("lender_not_found", "lender preferences not found")

type Repository interface {
	Get(ctx context.Context, investorID string) (*Preferences, error)
	Save(ctx context.Context, p *Preferences) error
}
