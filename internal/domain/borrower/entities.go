package borrower

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/apperr"
)

var EmploymentStatuses = []string{"employed", "self-employed", "freelancer", "student", "unemployed"}

// Profile (table: borrower_profiles). Maintained by the profile service; the
// lending core only reads it.
type Profile struct {
	BorrowerID       string          `gorm:"column:borrower_id;type:char(32);primaryKey" json:"borrower_id"`
	CreditScore      int             `gorm:"column:credit_score;not null" json:"credit_score"`
	MonthlyIncome    decimal.Decimal `gorm:"column:monthly_income;type:decimal(18,2);not null" json:"monthly_income"`
	EmploymentStatus string          `gorm:"column:employment_status;type:varchar(16);not null" json:"employment_status"`
	CountryCode      string          `gorm:"column:country_code;type:char(2);not null" json:"country_code"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string { return "borrower_profiles" }

var ErrNotFound = apperr.NotFound("borrower_not_found", "borrower profile not found")

type Repository interface {
	GetByBorrowerID(ctx context.Context, borrowerID string) (*Profile, error)
	// GetByBorrowerIDForUpdate row-locks the profile until the tx ends.
	GetByBorrowerIDForUpdate(ctx context.Context, borrowerID string) (*Profile, error)
	// Save inserts or replaces the profile.
	Save(ctx context.Context, p *Profile) error
}
