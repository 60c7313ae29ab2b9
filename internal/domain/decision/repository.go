package decision

import "context"

type Repository interface {
	// Create a new decision (DB uniqueness ensures at most one per loan)
	Create(ctx context.Context, d *LoanDecision) error

	GetByLoanID(ctx context.Context, loanID string) (*LoanDecision, error)
}
