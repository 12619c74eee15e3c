package repayment

import (
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/loan"
)

var (
	// LateFeeRate is applied to the due amount when paid after the due date.
	LateFeeRate = decimal.RequireFromString("0.05")
	// AmountTolerance is the accepted gap between paid and expected amounts.
	AmountTolerance = decimal.NewFromInt(1)
)

// Payment is the fixed monthly amount for principal p, annual rate in percent
// and n months, rounded to 2 dp.
func Payment(p decimal.Decimal, annualRate float64, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	months := decimal.NewFromInt(int64(n))
	r := decimal.NewFromFloat(annualRate).Div(decimal.NewFromInt(1200))
	if !r.IsPositive() {
		return p.Div(months).Round(2)
	}
	f := r.Add(decimal.NewFromInt(1)).Pow(months)
	return p.Mul(r).Mul(f).Div(f.Sub(decimal.NewFromInt(1))).Round(2)
}

// Materialize derives the amortized schedule for l. It reads nothing but l,
// so the same loan always yields the same installments. Public ids are left
// empty for the caller to assign.
func Materialize(l *loan.Loan) []Installment {
	n := l.DurationMonths
	if n <= 0 {
		return nil
	}
	pay := Payment(l.Principal, l.InterestRate, n)
	rate := decimal.NewFromFloat(l.InterestRate).Div(decimal.NewFromInt(1200))
	balance := l.Principal.Round(2)
	anchor := l.ScheduleAnchor()

	out := make([]Installment, 0, n)
	for i := 0; i < n; i++ {
		interest := balance.Mul(rate).Round(2)
		principal := pay.Sub(interest)
		if i == n-1 {
			principal = balance
			interest = pay.Sub(balance)
			if interest.IsNegative() {
				interest = decimal.Zero
				principal = pay
			}
		}
		balance = balance.Sub(principal)

		out = append(out, Installment{
			LoanID:           l.ID,
			Sequence:         i,
			DueAmount:        pay,
			PrincipalPortion: principal,
			InterestPortion:  interest,
			DueDate:          AddMonths(anchor, i+1),
			Status:           StatusPending,
		})
	}
	return out
}

// AddMonths returns the calendar date m months after t at 00:00 UTC, with the
// day clamped to the last day of the target month.
func AddMonths(t time.Time, m int) time.Time {
	y, mo, d := t.UTC().Date()
	first := time.Date(y, mo+time.Month(m), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// DateOnly truncates t to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LateFee is 5% of the due amount when paidAt falls on a later calendar day
// than the due date.
func LateFee(inst *Installment, paidAt time.Time) decimal.Decimal {
	if !DateOnly(paidAt).After(DateOnly(inst.DueDate)) {
		return decimal.Zero
	}
	return inst.DueAmount.Mul(LateFeeRate).Round(2)
}

// Expected is the transaction amount that settles inst when paid at paidAt.
func Expected(inst *Installment, paidAt time.Time) decimal.Decimal {
	return inst.DueAmount.Add(LateFee(inst, paidAt))
}

// Matches reports whether amount settles an expected amount within tolerance.
func Matches(amount, expected decimal.Decimal) bool {
	return amount.Sub(expected).Abs().LessThanOrEqual(AmountTolerance)
}
