package loan

import (
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/risk"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusDefaulted Status = "DEFAULTED"
)

const (
	MinDuration = 1
	MaxDuration = 60
)

var (
	MinAmount = decimal.NewFromInt(1_000)
	MaxAmount = decimal.NewFromInt(10_000_000)
)

// Loan (table: loans). Loans are never deleted; status only moves forward.
type Loan struct {
	ID              uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID          string          `gorm:"column:loan_id;type:char(32);not null;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	BorrowerID      string          `gorm:"column:borrower_id;type:char(32);not null;index:idx_loans_borrower_status" json:"borrower_id"`
	BorrowerCountry string          `gorm:"column:borrower_country;type:char(2)" json:"borrower_country"`
	Principal       decimal.Decimal `gorm:"column:principal;type:decimal(18,2);not null" json:"principal"`
	DurationMonths  int             `gorm:"column:duration_months;not null" json:"duration_months"`
	Purpose         string          `gorm:"column:purpose;type:varchar(255)" json:"purpose"`
	InterestRate    float64         `gorm:"column:interest_rate;type:decimal(6,2);not null" json:"interest_rate"`
	RiskScore       float64         `gorm:"column:risk_score;type:decimal(5,2);not null" json:"risk_score"`
	RiskLevel       risk.Level      `gorm:"column:risk_level;type:varchar(8);not null" json:"risk_level"`
	FundedAmount    decimal.Decimal `gorm:"column:funded_amount;type:decimal(18,2);not null;default:0" json:"funded_amount"`
	Status          Status          `gorm:"column:status;type:varchar(16);not null;index:idx_loans_borrower_status;index:idx_loans_status" json:"status"`
	DecidedAt       *time.Time      `gorm:"column:decided_at" json:"decided_at,omitempty"`
	DecidedBy       string          `gorm:"column:decided_by;type:varchar(64)" json:"decided_by,omitempty"`
	DecisionReason  string          `gorm:"column:decision_reason;type:text" json:"decision_reason,omitempty"`
	ActivatedAt     *time.Time      `gorm:"column:activated_at" json:"activated_at,omitempty"`
	ClosedAt        *time.Time      `gorm:"column:closed_at" json:"closed_at,omitempty"`
	StatusUpdatedAt time.Time       `gorm:"column:status_updated_at" json:"status_updated_at"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Remaining is the funding gap, never negative.
func (l *Loan) Remaining() decimal.Decimal {
	r := l.Principal.Sub(l.FundedAmount)
	if r.IsPositive() {
		return r
	}
	return decimal.Zero
}

func (l *Loan) FullyFunded() bool { return l.Remaining().IsZero() }

// IsOpen reports whether the loan accepts investments.
func (l *Loan) IsOpen() bool { return l.Status == StatusApproved && !l.FullyFunded() }

// Decide moves a PENDING loan to APPROVED or REJECTED.
func (l *Loan) Decide(approved bool, actor, reason string, at time.Time) (Status, error) {
	if l.Status != StatusPending {
		return l.Status, ErrAlreadyDecided
	}
	from := l.Status
	l.Status = StatusRejected
	if approved {
		l.Status = StatusApproved
	}
	t := at.UTC()
	l.DecidedAt = &t
	l.DecidedBy = actor
	l.DecisionReason = reason
	l.StatusUpdatedAt = t
	return from, nil
}

// Activate moves a fully funded APPROVED loan to ACTIVE.
func (l *Loan) Activate(at time.Time) error {
	switch {
	case l.Status != StatusApproved:
		return ErrInvalidTransition
	case !l.FullyFunded():
		return ErrNotFullyFunded
	}
	t := at.UTC()
	l.Status = StatusActive
	l.ActivatedAt = &t
	l.StatusUpdatedAt = t
	return nil
}

func (l *Loan) Complete(at time.Time) error {
	if l.Status != StatusActive {
		return ErrInvalidTransition
	}
	l.close(StatusCompleted, at)
	return nil
}

func (l *Loan) MarkDefaulted(at time.Time) error {
	if l.Status != StatusActive {
		return ErrInvalidTransition
	}
	l.close(StatusDefaulted, at)
	return nil
}

func (l *Loan) close(s Status, at time.Time) {
	t := at.UTC()
	l.Status = s
	l.ClosedAt = &t
	l.StatusUpdatedAt = t
}

// ScheduleAnchor is the date installments are counted from.
func (l *Loan) ScheduleAnchor() time.Time {
	switch {
	case l.DecidedAt != nil:
		return *l.DecidedAt
	case l.ActivatedAt != nil:
		return *l.ActivatedAt
	default:
		return l.CreatedAt
	}
}
