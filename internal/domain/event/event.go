package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Type string

const (
	LoanRequested       Type = "loan.requested"
	LoanApproved        Type = "loan.approved"
	LoanRejected        Type = "loan.rejected"
	PaymentReceived     Type = "loan.payment_received"
	LoanSettled         Type = "loan.settled"
	LoanOverdue         Type = "loan.overdue"
	InterestDistributed Type = "loan.interest_distributed"
)

// Event is what the notification side consumes. Amount and Remaining are
// zero when they do not apply to the type.
type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	LoanID     string          `json:"loan_id"`
	MemberID   string          `json:"member_id"`
	Amount     decimal.Decimal `json:"amount"`
	Remaining  decimal.Decimal `json:"remaining"`
	Reason     string          `json:"reason,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func New(t Type, loanID, memberID string, at time.Time) Event {
	return Event{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Type:       t,
		LoanID:     loanID,
		MemberID:   memberID,
		OccurredAt: at.UTC(),
	}
}

func (e Event) WithAmounts(amount, remaining decimal.Decimal) Event {
	e.Amount = amount
	e.Remaining = remaining
	return e
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }
