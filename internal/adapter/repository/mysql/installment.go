package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	repaymentDomain "p2p-lending/internal/domain/repayment"
)

type InstallmentRepository struct{ db *gorm.DB }

func NewInstallmentRepository(db *gorm.DB) *InstallmentRepository {
	return &InstallmentRepository{db: db}
}

func (r *InstallmentRepository) CreateBatch(ctx context.Context, items []repaymentDomain.Installment) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *InstallmentRepository) CountByLoan(ctx context.Context, loanID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&repaymentDomain.Installment{}).Where("loan_id = ?", loanID).Count(&n).Error
	return n, err
}

func (r *InstallmentRepository) CountUnpaidByLoan(ctx context.Context, loanID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&repaymentDomain.Installment{}).
		Where("loan_id = ? AND status <> ?", loanID, repaymentDomain.StatusPaid).
		Count(&n).Error
	return n, err
}

func (r *InstallmentRepository) ListByLoan(ctx context.Context, loanID uint64) ([]repaymentDomain.Installment, error) {
	var out []repaymentDomain.Installment
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("sequence ASC").Find(&out).Error
	return out, err
}

func (r *InstallmentRepository) GetByInstallmentID(ctx context.Context, installmentID string) (*repaymentDomain.Installment, error) {
	var out repaymentDomain.Installment
	res := r.db.WithContext(ctx).Where("installment_id = ?", installmentID).First(&out)
	return &out, res.Error
}

var paymentColumns = []string{"status", "paid_at", "paid_amount", "late_fee", "payment_ref", "updated_at"}

func (r *InstallmentRepository) UpdatePayment(ctx context.Context, inst *repaymentDomain.Installment) error {
	return r.db.WithContext(ctx).Model(inst).Select(paymentColumns).Updates(inst).Error
}

func (r *InstallmentRepository) ListUnpaidDueBetween(ctx context.Context, from, to time.Time) ([]repaymentDomain.Installment, error) {
	var out []repaymentDomain.Installment
	err := r.db.WithContext(ctx).
		Where("status IN ? AND due_date >= ? AND due_date < ?",
			[]repaymentDomain.Status{repaymentDomain.StatusPending, repaymentDomain.StatusOverdue},
			from.UTC(), to.UTC()).
		Order("due_date ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *InstallmentRepository) MarkOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&repaymentDomain.Installment{}).
		Where("status = ? AND due_date < ?", repaymentDomain.StatusPending, cutoff.UTC()).
		Update("status", repaymentDomain.StatusOverdue)
	return res.RowsAffected, res.Error
}
