// Package event defines the lifecycle events emitted after a transaction commits.
package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	LoanRequested      Type = "LoanRequested"
	LoanApproved       Type = "LoanApproved"
	LoanRejected       Type = "LoanRejected"
	InvestmentReceived Type = "InvestmentReceived"
	LoanFullyFunded    Type = "LoanFullyFunded"
	RepaymentDue       Type = "RepaymentDue"
	RepaymentReceived  Type = "RepaymentReceived"
	LoanCompleted      Type = "LoanCompleted"
	LoanDefaulted      Type = "LoanDefaulted"
)

type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	LoanID     string         `json:"loan_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

func New(t Type, loanID string, at time.Time, data map[string]any) Event {
	return Event{ID: uuid.NewString(), Type: t, LoanID: loanID, OccurredAt: at.UTC(), Data: data}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Dispatch publishes evs in order. Delivery failures are logged and never
// surface to the caller: the state change they describe is already committed.
func Dispatch(ctx context.Context, pub Publisher, evs ...Event) {
	if pub == nil {
		return
	}
	for _, ev := range evs {
		if err := pub.Publish(ctx, ev); err != nil {
			slog.Error("event publish failed", "type", ev.Type, "loan_id", ev.LoanID, "event_id", ev.ID, "err", err)
		}
	}
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
