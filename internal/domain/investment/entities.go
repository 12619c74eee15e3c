package investment

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/apperr"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusWithdrawn Status = "WITHDRAWN"
	StatusCompleted Status = "COMPLETED"
)

// Investment (table: investments). One per (loan, investor).
type Investment struct {
	ID           uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	InvestmentID string          `gorm:"column:investment_id;type:char(32);not null;uniqueIndex:ux_investments_investment_id" json:"investment_id"`
	InvestorID   string          `gorm:"column:investor_id;type:char(32);not null;uniqueIndex:ux_investments_loan_investor,priority:2;index:idx_investments_investor" json:"investor_id"`
	LoanID       uint64          `gorm:"column:loan_id;not null;uniqueIndex:ux_investments_loan_investor,priority:1" json:"-"`
	Amount       decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Status       Status          `gorm:"column:status;type:varchar(16);not null" json:"status"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Investment) TableName() string { return "investments" }

var (
	ErrInvalidAmount   = apperr.Validation("invalid_investment_amount", "investment amount must be positive with at most 2 decimals")
	ErrInvalidInvestor = apperr.Validation("invalid_investor", "investor_id must be 32-char lowercase hex")
	ErrSelfInvestment  = apperr.Validation("self_investment", "borrowers cannot invest in their own loan")

	ErrLoanNotOpen       = apperr.StateConflict("loan_not_open", "loan is not open for investment")
	ErrAlreadyFunded     = apperr.StateConflict("already_funded", "loan is already fully funded")
	ErrDuplicateInvestor = apperr.StateConflict("duplicate_investor", "investor already funded this loan")

	ErrExceedsRemaining = apperr.Capacity("exceeds_remaining", "investment exceeds remaining amount")
)

// RemainingError carries the gap left on the loan when an investment does not fit.
type RemainingError struct {
	Remaining decimal.Decimal
}

func (e *RemainingError) Error() string {
	return fmt.Sprintf("%s: remaining %s", ErrExceedsRemaining.Message, e.Remaining.StringFixed(2))
}

func (e *RemainingError) Unwrap() error { return ErrExceedsRemaining }
