package repayment

import (
	"time"

	"github.com/shopspring/decimal"

	domain "p2p-lending/internal/domain/repayment"
)

type PaymentInput struct {
	InstallmentID string
	Amount        decimal.Decimal
	PaidAt        time.Time
	Reference     string
}

type PaymentResult struct {
	Installment   *domain.Installment `json:"installment"`
	LoanCompleted bool                `json:"loan_completed"`
	// Replayed is true when the payment reference was already applied.
	Replayed bool `json:"replayed"`
}

type ScheduleView struct {
	LoanID       string               `json:"loan_id"`
	Installments []domain.Installment `json:"installments"`
	TotalDue     decimal.Decimal      `json:"total_due"`
	TotalPaid    decimal.Decimal      `json:"total_paid"`
	Outstanding  decimal.Decimal      `json:"outstanding"`
}

type SweepResult struct {
	MarkedOverdue int64 `json:"marked_overdue"`
	Reminders     int   `json:"reminders"`
}
