package repayment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"p2p-lending/internal/domain/event"
	"p2p-lending/internal/domain/loan"
	domain "p2p-lending/internal/domain/repayment"
	"p2p-lending/internal/domain/uow"
)

// Completer closes a loan once its last installment is paid.
type Completer interface {
	CompleteInTx(ctx context.Context, r uow.Repos, l *loan.Loan) error
}

// Deduper reports whether key is seen for the first time within ttl.
type Deduper interface {
	Once(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

const DefaultReminderWindow = 72 * time.Hour

type Usecase struct {
	loans        loan.Repository
	installments domain.Repository
	uow          uow.UnitOfWork
	completer    Completer
	pub          event.Publisher
	dedup        Deduper
	window       time.Duration
}

func NewUsecase(loans loan.Repository, installments domain.Repository, tx uow.UnitOfWork, c Completer, pub event.Publisher) *Usecase {
	return &Usecase{
		loans:        loans,
		installments: installments,
		uow:          tx,
		completer:    c,
		pub:          pub,
		window:       DefaultReminderWindow,
	}
}

// WithReminders enables RepaymentDue reminders for installments due within window.
func (u *Usecase) WithReminders(d Deduper, window time.Duration) *Usecase {
	u.dedup = d
	if window > 0 {
		u.window = window
	}
	return u
}

func (u *Usecase) RecordPayment(ctx context.Context, in PaymentInput) (*PaymentResult, error) {
	if !in.Amount.IsPositive() || in.PaidAt.IsZero() {
		return nil, domain.ErrInvalidPayment
	}

	inst, err := u.installments.GetByInstallmentID(ctx, in.InstallmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInstallmentNotFound
	}
	if err != nil {
		return nil, err
	}
	owner, err := u.loans.GetByID(ctx, inst.LoanID)
	if err != nil {
		return nil, fmt.Errorf("load loan of installment %s: %w", inst.InstallmentID, err)
	}

	res := &PaymentResult{}
	var l *loan.Loan
	err = u.uow.WithinLoanTx(ctx, owner.LoanID, func(r uow.Repos, locked *loan.Loan) error {
		l = locked
		// re-read under the loan lock
		cur, err := r.Installments.GetByInstallmentID(ctx, in.InstallmentID)
		if err != nil {
			return err
		}
		res.Installment = cur

		if cur.Paid() {
			if in.Reference != "" && cur.PaymentRef == in.Reference {
				res.Replayed = true
				return nil
			}
			return domain.ErrAlreadyPaid
		}
		if locked.Status != loan.StatusActive {
			return fmt.Errorf("loan %s (%s): %w", locked.LoanID, locked.Status, domain.ErrLoanNotActive)
		}

		schedule, err := r.Installments.ListByLoan(ctx, locked.ID)
		if err != nil {
			return err
		}
		for _, it := range schedule {
			if it.Sequence < cur.Sequence && !it.Paid() {
				return fmt.Errorf("installment %d unpaid: %w", it.Sequence, domain.ErrOutOfOrder)
			}
		}

		expected := domain.Expected(cur, in.PaidAt)
		if !domain.Matches(in.Amount, expected) {
			return fmt.Errorf("expected %s, got %s: %w", expected.StringFixed(2), in.Amount.StringFixed(2), domain.ErrAmountMismatch)
		}

		paidAt := in.PaidAt.UTC()
		cur.Status = domain.StatusPaid
		cur.PaidAt = &paidAt
		cur.PaidAmount = in.Amount.Round(2)
		cur.LateFee = domain.LateFee(cur, in.PaidAt)
		cur.PaymentRef = in.Reference
		if err := r.Installments.UpdatePayment(ctx, cur); err != nil {
			return err
		}

		unpaid, err := r.Installments.CountUnpaidByLoan(ctx, locked.ID)
		if err != nil {
			return err
		}
		if unpaid == 0 {
			if err := u.completer.CompleteInTx(ctx, r, locked); err != nil {
				return err
			}
			res.LoanCompleted = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Replayed {
		return res, nil
	}

	evs := []event.Event{event.New(event.RepaymentReceived, l.LoanID, *res.Installment.PaidAt, map[string]any{
		"installment_id": res.Installment.InstallmentID,
		"sequence":       res.Installment.Sequence,
		"amount":         res.Installment.PaidAmount,
		"late_fee":       res.Installment.LateFee,
		"reference":      res.Installment.PaymentRef,
	})}
	if res.LoanCompleted {
		evs = append(evs, event.New(event.LoanCompleted, l.LoanID, *l.ClosedAt, map[string]any{"principal": l.Principal}))
	}
	event.Dispatch(ctx, u.pub, evs...)
	return res, nil
}

func (u *Usecase) Schedule(ctx context.Context, loanID string) (*ScheduleView, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loan.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	items, err := u.installments.ListByLoan(ctx, l.ID)
	if err != nil {
		return nil, err
	}

	due, paid, outstanding := decimal.Zero, decimal.Zero, decimal.Zero
	for _, it := range items {
		due = due.Add(it.DueAmount)
		if it.Paid() {
			paid = paid.Add(it.PaidAmount)
		} else {
			outstanding = outstanding.Add(it.DueAmount)
		}
	}
	return &ScheduleView{
		LoanID:       l.LoanID,
		Installments: items,
		TotalDue:     due,
		TotalPaid:    paid,
		Outstanding:  outstanding,
	}, nil
}

// Sweep marks installments due before asOf's calendar day OVERDUE and sends
// one RepaymentDue reminder per unpaid installment due inside the window.
func (u *Usecase) Sweep(ctx context.Context, asOf time.Time) (*SweepResult, error) {
	today := domain.DateOnly(asOf)
	marked, err := u.installments.MarkOverdue(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("mark overdue: %w", err)
	}
	res := &SweepResult{MarkedOverdue: marked}
	if u.dedup == nil {
		return res, nil
	}

	due, err := u.installments.ListUnpaidDueBetween(ctx, today, today.Add(u.window))
	if err != nil {
		return res, fmt.Errorf("list due installments: %w", err)
	}
	if len(due) == 0 {
		return res, nil
	}

	ids := make([]uint64, 0, len(due))
	seen := map[uint64]bool{}
	for _, it := range due {
		if !seen[it.LoanID] {
			seen[it.LoanID] = true
			ids = append(ids, it.LoanID)
		}
	}
	loans, err := u.loans.ListByIDs(ctx, ids)
	if err != nil {
		return res, fmt.Errorf("load loans for reminders: %w", err)
	}
	publicID := make(map[uint64]string, len(loans))
	for _, l := range loans {
		if l.Status == loan.StatusActive {
			publicID[l.ID] = l.LoanID
		}
	}

	for _, it := range due {
		loanID, ok := publicID[it.LoanID]
		if !ok {
			continue
		}
		key := "reminder:" + it.InstallmentID + ":" + it.DueDate.Format(time.DateOnly)
		first, err := u.dedup.Once(ctx, key, u.window+24*time.Hour)
		if err != nil {
			slog.Warn("reminder dedup failed, sending anyway", "installment_id", it.InstallmentID, "err", err)
		} else if !first {
			continue
		}
		event.Dispatch(ctx, u.pub, event.New(event.RepaymentDue, loanID, asOf, map[string]any{
			"installment_id": it.InstallmentID,
			"sequence":       it.Sequence,
			"due_date":       it.DueDate.Format(time.DateOnly),
			"due_amount":     it.DueAmount,
		}))
		res.Reminders++
	}
	return res, nil
}
