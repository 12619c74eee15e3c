package repayment

import (
	"context"

	"p2p-lending/internal/domain/loan"
	domain "p2p-lending/internal/domain/repayment"
	"p2p-lending/internal/domain/uow"
	"p2p-lending/pkg/id"
)

// Scheduler writes a loan's schedule exactly once.
type Scheduler struct{}

func NewScheduler() *Scheduler { return &Scheduler{} }

// MaterializeInTx returns the stored schedule when one exists, otherwise it
// derives and inserts it. The (loan_id, sequence) unique index rejects a
// concurrent second writer.
func (s *Scheduler) MaterializeInTx(ctx context.Context, r uow.Repos, l *loan.Loan) ([]domain.Installment, error) {
	existing, err := r.Installments.ListByLoan(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	items := domain.Materialize(l)
	for i := range items {
		items[i].InstallmentID = id.NewID32()
	}
	if err := r.Installments.CreateBatch(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}
