package mysql

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	investmentDomain "p2p-lending/internal/domain/investment"
)

type InvestmentRepository struct{ db *gorm.DB }

func NewInvestmentRepository(db *gorm.DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

func (r *InvestmentRepository) Create(ctx context.Context, inv *investmentDomain.Investment) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *InvestmentRepository) GetByLoanAndInvestor(ctx context.Context, loanID uint64, investorID string) (*investmentDomain.Investment, error) {
	var out investmentDomain.Investment
	res := r.db.WithContext(ctx).
		Where("loan_id = ? AND investor_id = ?", loanID, investorID).
		First(&out)
	return &out, res.Error
}

func (r *InvestmentRepository) ListByLoan(ctx context.Context, loanID uint64) ([]investmentDomain.Investment, error) {
	var out []investmentDomain.Investment
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

func (r *InvestmentRepository) ListByInvestor(ctx context.Context, investorID string) ([]investmentDomain.Investment, error) {
	var out []investmentDomain.Investment
	err := r.db.WithContext(ctx).Where("investor_id = ?", investorID).Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

func (r *InvestmentRepository) SumByLoan(ctx context.Context, loanID uint64) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := r.db.WithContext(ctx).
		Model(&investmentDomain.Investment{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("loan_id = ?", loanID).
		Scan(&row).Error
	return row.Total.Round(2), err
}

func (r *InvestmentRepository) MarkCompletedByLoan(ctx context.Context, loanID uint64) error {
	return r.db.WithContext(ctx).
		Model(&investmentDomain.Investment{}).
		Where("loan_id = ? AND status = ?", loanID, investmentDomain.StatusActive).
		Update("status", investmentDomain.StatusCompleted).Error
}
