package mysql

import (
	"context"

	"gorm.io/gorm"

	auditDomain "p2p-lending/internal/domain/audit"
)

type TransitionRepository struct{ db *gorm.DB }

func NewTransitionRepository(db *gorm.DB) *TransitionRepository {
	return &TransitionRepository{db: db}
}

func (r *TransitionRepository) Create(ctx context.Context, t *auditDomain.Transition) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TransitionRepository) ListByLoan(ctx context.Context, loanID uint64) ([]auditDomain.Transition, error) {
	var out []auditDomain.Transition
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("occurred_at ASC, id ASC").Find(&out).Error
	return out, err
}
