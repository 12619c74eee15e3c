package mysql

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	loanDomain "p2p-lending/internal/domain/loan"
)

// fundedAfter is funded_amount plus the bound amount, kept in DECIMAL(18,2)
// arithmetic on MySQL and snapped to cents on sqlite, which stores REAL.
const fundedAfter = "ROUND(funded_amount + CAST(? AS DECIMAL(18,2)), 2)"

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).First(&out, id)
	return &out, res.Error
}

func (r *LoanRepository) GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("borrower_id = ? AND status = ?", borrowerID, loanDomain.StatusPending).
		Order("status_updated_at DESC, id DESC").
		First(&out)
	return &out, res.Error
}

func (r *LoanRepository) CountClosedByBorrower(ctx context.Context, borrowerID string) (int, int, error) {
	var rows []struct {
		Status loanDomain.Status
		N      int
	}
	err := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Select("status, COUNT(*) AS n").
		Where("borrower_id = ? AND status IN ?", borrowerID,
			[]loanDomain.Status{loanDomain.StatusCompleted, loanDomain.StatusDefaulted}).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}
	var completed, defaulted int
	for _, row := range rows {
		switch row.Status {
		case loanDomain.StatusCompleted:
			completed = row.N
		case loanDomain.StatusDefaulted:
			defaulted = row.N
		}
	}
	return completed, defaulted, nil
}

func (r *LoanRepository) ListOpen(ctx context.Context) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("status = ? AND funded_amount < principal", loanDomain.StatusApproved).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) ListByIDs(ctx context.Context, ids []uint64) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&out).Error
	return out, err
}

// AddFunding is the only writer of funded_amount. The WHERE clause re-checks
// status and capacity so a stale caller can never overfund.
func (r *LoanRepository) AddFunding(ctx context.Context, id uint64, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("id = ? AND status = ? AND "+fundedAfter+" <= principal",
			id, loanDomain.StatusApproved, amount).
		Updates(map[string]any{
			"funded_amount": gorm.Expr(fundedAfter, amount),
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
