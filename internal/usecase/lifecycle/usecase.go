// Package lifecycle drives a loan through its state machine. Every transition
// happens under the loan's row lock, creation under the borrower profile's,
// and writes an audit row in the same tx.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"p2p-lending/internal/domain/audit"
	"p2p-lending/internal/domain/borrower"
	"p2p-lending/internal/domain/event"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/repayment"
	"p2p-lending/internal/domain/risk"
	"p2p-lending/internal/domain/uow"
	"p2p-lending/pkg/id"
)

// Scheduler persists the repayment schedule of a freshly activated loan.
type Scheduler interface {
	MaterializeInTx(ctx context.Context, r uow.Repos, l *loan.Loan) ([]repayment.Installment, error)
}

type Usecase struct {
	loans     loan.Repository
	uow       uow.UnitOfWork
	scheduler Scheduler
	pub       event.Publisher
	now       func() time.Time
}

func NewUsecase(loans loan.Repository, tx uow.UnitOfWork, s Scheduler, pub event.Publisher) *Usecase {
	return &Usecase{
		loans:     loans,
		uow:       tx,
		scheduler: s,
		pub:       pub,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

func (u *Usecase) Request(ctx context.Context, in RequestInput) (*RequestResult, error) {
	switch {
	case !id.Valid(in.BorrowerID):
		return nil, loan.ErrInvalidBorrower
	case !validAmount(in.Amount):
		return nil, loan.ErrInvalidAmount
	case in.DurationMonths < loan.MinDuration || in.DurationMonths > loan.MaxDuration:
		return nil, loan.ErrInvalidDuration
	}

	var (
		a risk.Assessment
		l *loan.Loan
	)
	now := u.now()
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		// the profile row lock serializes requests of one borrower
		profile, err := r.Borrowers.GetByBorrowerIDForUpdate(ctx, in.BorrowerID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return borrower.ErrNotFound
		}
		if err != nil {
			return err
		}

		pending, err := r.Loans.GetPendingLoanByBorrowerID(ctx, in.BorrowerID)
		switch {
		case err == nil:
			return fmt.Errorf("borrower %s, loan %s: %w", in.BorrowerID, pending.LoanID, loan.ErrPendingLoanExists)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		completed, defaulted, err := r.Loans.CountClosedByBorrower(ctx, in.BorrowerID)
		if err != nil {
			return err
		}

		a = risk.Assess(risk.Factors{
			CreditScore:    float64(profile.CreditScore),
			MonthlyIncome:  profile.MonthlyIncome.InexactFloat64(),
			Employment:     profile.EmploymentStatus,
			Amount:         in.Amount.InexactFloat64(),
			DurationMonths: in.DurationMonths,
			CompletedLoans: completed,
			DefaultedLoans: defaulted,
		})
		l = &loan.Loan{
			LoanID:          id.NewID32(),
			BorrowerID:      in.BorrowerID,
			BorrowerCountry: profile.CountryCode,
			Principal:       in.Amount,
			DurationMonths:  in.DurationMonths,
			Purpose:         in.Purpose,
			InterestRate:    a.InterestRate,
			RiskScore:       a.RiskScore,
			RiskLevel:       a.RiskLevel,
			Status:          loan.StatusPending,
			StatusUpdatedAt: now,
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		return u.record(ctx, r, l, "", in.BorrowerID, in.Purpose)
	})
	if err != nil {
		return nil, err
	}

	event.Dispatch(ctx, u.pub, event.New(event.LoanRequested, l.LoanID, now, map[string]any{
		"borrower_id":   l.BorrowerID,
		"principal":     l.Principal,
		"risk_score":    l.RiskScore,
		"risk_level":    l.RiskLevel,
		"interest_rate": l.InterestRate,
	}))
	return &RequestResult{Loan: l, Assessment: a}, nil
}

func validAmount(a decimal.Decimal) bool {
	return a.GreaterThanOrEqual(loan.MinAmount) && a.LessThanOrEqual(loan.MaxAmount) && a.Equal(a.Round(2))
}

func (u *Usecase) Decide(ctx context.Context, in DecideInput) (*loan.Loan, error) {
	if in.ApproverID == "" {
		return nil, loan.ErrInvalidActor
	}
	var out *loan.Loan
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		from, err := l.Decide(in.Approved, in.ApproverID, in.Reason, u.now())
		if err != nil {
			return fmt.Errorf("decide loan %s (%s): %w", l.LoanID, l.Status, err)
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := u.record(ctx, r, l, from, in.ApproverID, in.Reason); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	typ := event.LoanRejected
	if out.Status == loan.StatusApproved {
		typ = event.LoanApproved
	}
	event.Dispatch(ctx, u.pub, event.New(typ, out.LoanID, *out.DecidedAt, map[string]any{
		"decided_by": out.DecidedBy,
		"reason":     out.DecisionReason,
	}))
	return out, nil
}

// OnFullyFunded activates a fully funded loan and materializes its schedule.
// Redelivery after activation is a no-op returning the current loan.
func (u *Usecase) OnFullyFunded(ctx context.Context, loanID string) (*loan.Loan, error) {
	var (
		out       *loan.Loan
		activated bool
	)
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		var err error
		activated, err = u.ActivateInTx(ctx, r, l)
		out = l
		return err
	})
	if err != nil {
		return nil, err
	}
	if activated {
		event.Dispatch(ctx, u.pub, event.New(event.LoanFullyFunded, out.LoanID, *out.ActivatedAt, map[string]any{
			"funded_amount": out.FundedAmount,
		}))
	}
	return out, nil
}

// ActivateInTx runs inside a WithinLoanTx callback owned by the caller and
// reports whether l moved to ACTIVE.
func (u *Usecase) ActivateInTx(ctx context.Context, r uow.Repos, l *loan.Loan) (bool, error) {
	switch l.Status {
	case loan.StatusActive:
		// a schedule is always written with activation; repair if it is missing
		n, err := r.Installments.CountByLoan(ctx, l.ID)
		if err != nil || n > 0 {
			return false, err
		}
		_, err = u.scheduler.MaterializeInTx(ctx, r, l)
		return false, err
	case loan.StatusCompleted, loan.StatusDefaulted:
		return false, nil
	}

	from := l.Status
	if err := l.Activate(u.now()); err != nil {
		return false, fmt.Errorf("activate loan %s (%s, funded %s of %s): %w",
			l.LoanID, l.Status, l.FundedAmount.StringFixed(2), l.Principal.StringFixed(2), err)
	}
	if err := r.Loans.Save(ctx, l); err != nil {
		return false, err
	}
	if err := u.record(ctx, r, l, from, audit.ActorSystem, "fully funded"); err != nil {
		return false, err
	}
	if _, err := u.scheduler.MaterializeInTx(ctx, r, l); err != nil {
		return false, err
	}
	return true, nil
}

func (u *Usecase) OnAllInstallmentsPaid(ctx context.Context, loanID string) (*loan.Loan, error) {
	var out *loan.Loan
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		out = l
		return u.CompleteInTx(ctx, r, l)
	})
	if err != nil {
		return nil, err
	}
	event.Dispatch(ctx, u.pub, CompletedEvent(out))
	return out, nil
}

// CompleteInTx closes an ACTIVE loan whose installments are all PAID and
// marks its investments COMPLETED.
func (u *Usecase) CompleteInTx(ctx context.Context, r uow.Repos, l *loan.Loan) error {
	if l.Status != loan.StatusActive {
		return fmt.Errorf("complete loan %s (%s): %w", l.LoanID, l.Status, loan.ErrInvalidTransition)
	}
	total, err := r.Installments.CountByLoan(ctx, l.ID)
	if err != nil {
		return err
	}
	unpaid, err := r.Installments.CountUnpaidByLoan(ctx, l.ID)
	if err != nil {
		return err
	}
	if total == 0 || unpaid > 0 {
		return fmt.Errorf("complete loan %s (%d of %d unpaid): %w", l.LoanID, unpaid, total, loan.ErrInstallmentsOutstanding)
	}

	from := l.Status
	if err := l.Complete(u.now()); err != nil {
		return err
	}
	if err := r.Loans.Save(ctx, l); err != nil {
		return err
	}
	if err := r.Investments.MarkCompletedByLoan(ctx, l.ID); err != nil {
		return err
	}
	return u.record(ctx, r, l, from, audit.ActorSystem, "all installments paid")
}

func CompletedEvent(l *loan.Loan) event.Event {
	return event.New(event.LoanCompleted, l.LoanID, *l.ClosedAt, map[string]any{"principal": l.Principal})
}

func (u *Usecase) MarkDefaulted(ctx context.Context, loanID, actor, reason string) (*loan.Loan, error) {
	if actor == "" {
		return nil, loan.ErrInvalidActor
	}
	var out *loan.Loan
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		from := l.Status
		if err := l.MarkDefaulted(u.now()); err != nil {
			return fmt.Errorf("default loan %s (%s): %w", l.LoanID, l.Status, err)
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out = l
		return u.record(ctx, r, l, from, actor, reason)
	})
	if err != nil {
		return nil, err
	}
	event.Dispatch(ctx, u.pub, event.New(event.LoanDefaulted, out.LoanID, *out.ClosedAt, map[string]any{
		"actor":  actor,
		"reason": reason,
	}))
	return out, nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*loan.Loan, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loan.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (u *Usecase) ListOpen(ctx context.Context) ([]loan.Loan, error) {
	return u.loans.ListOpen(ctx)
}

func (u *Usecase) record(ctx context.Context, r uow.Repos, l *loan.Loan, from loan.Status, actor, reason string) error {
	return r.Transitions.Create(ctx, &audit.Transition{
		LoanID:     l.ID,
		FromStatus: string(from),
		ToStatus:   string(l.Status),
		Actor:      actor,
		Reason:     reason,
		OccurredAt: l.StatusUpdatedAt,
	})
}
