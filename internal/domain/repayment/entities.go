package repayment

import (
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/apperr"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusOverdue Status = "OVERDUE"
)

// Installment (table: installments). The schedule columns are written once at
// materialization; only the payment columns change afterwards.
type Installment struct {
	ID               uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	InstallmentID    string          `gorm:"column:installment_id;type:char(32);not null;uniqueIndex:ux_installments_installment_id" json:"installment_id"`
	LoanID           uint64          `gorm:"column:loan_id;not null;uniqueIndex:ux_installments_loan_seq,priority:1" json:"-"`
	Sequence         int             `gorm:"column:sequence;not null;uniqueIndex:ux_installments_loan_seq,priority:2" json:"sequence"`
	DueAmount        decimal.Decimal `gorm:"column:due_amount;type:decimal(18,2);not null" json:"due_amount"`
	PrincipalPortion decimal.Decimal `gorm:"column:principal_portion;type:decimal(18,2);not null" json:"principal_portion"`
	InterestPortion  decimal.Decimal `gorm:"column:interest_portion;type:decimal(18,2);not null" json:"interest_portion"`
	DueDate          time.Time       `gorm:"column:due_date;type:date;not null;index:idx_installments_status_due,priority:2" json:"due_date"`
	Status           Status          `gorm:"column:status;type:varchar(16);not null;index:idx_installments_status_due,priority:1" json:"status"`
	PaidAt           *time.Time      `gorm:"column:paid_at" json:"paid_at,omitempty"`
	PaidAmount       decimal.Decimal `gorm:"column:paid_amount;type:decimal(18,2);not null;default:0" json:"paid_amount"`
	LateFee          decimal.Decimal `gorm:"column:late_fee;type:decimal(18,2);not null;default:0" json:"late_fee"`
	PaymentRef       string          `gorm:"column:payment_ref;type:varchar(128)" json:"payment_ref,omitempty"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Installment) TableName() string { return "installments" }

func (i *Installment) Paid() bool { return i.Status == StatusPaid }

var (
	ErrInstallmentNotFound = apperr.NotFound("installment_not_found", "installment not found")

	ErrInvalidPayment = apperr.Validation("invalid_payment", "payment needs a positive amount and a paid date")
	ErrAmountMismatch = apperr.Validation("amount_mismatch", "payment amount does not match the amount due")

	ErrAlreadyPaid   = apperr.StateConflict("already_paid", "installment is already paid")
	ErrOutOfOrder    = apperr.StateConflict("out_of_order", "an earlier installment is still unpaid")
	ErrLoanNotActive = apperr.StateConflict("loan_not_active", "loan is not active")
)
