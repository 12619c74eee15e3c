package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	borrowerDomain "p2p-lending/internal/domain/borrower"
	lenderDomain "p2p-lending/internal/domain/lender"
)

type BorrowerRepository struct{ db *gorm.DB }

func NewBorrowerRepository(db *gorm.DB) *BorrowerRepository { return &BorrowerRepository{db: db} }

func (r *BorrowerRepository) GetByBorrowerID(ctx context.Context, borrowerID string) (*borrowerDomain.Profile, error) {
	var out borrowerDomain.Profile
	res := r.db.WithContext(ctx).Where("borrower_id = ?", borrowerID).First(&out)
	return &out, res.Error
}

func (r *BorrowerRepository) GetByBorrowerIDForUpdate(ctx context.Context, borrowerID string) (*borrowerDomain.Profile, error) {
	var out borrowerDomain.Profile
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("borrower_id = ?", borrowerID).
		First(&out)
	return &out, res.Error
}

func (r *BorrowerRepository) Save(ctx context.Context, p *borrowerDomain.Profile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(p).Error
}

type LenderRepository struct{ db *gorm.DB }

func NewLenderRepository(db *gorm.DB) *LenderRepository { return &LenderRepository{db: db} }

func (r *LenderRepository) Get(ctx context.Context, investorID string) (*lenderDomain.Preferences, error) {
	var out lenderDomain.Preferences
	res := r.db.WithContext(ctx).Where("investor_id = ?", investorID).First(&out)
	return &out, res.Error
}

func (r *LenderRepository) Save(ctx context.Context, p *lenderDomain.Preferences) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(p).Error
}
