package decisionmock

import (
	"context"

	domain "community-ledger/internal/domain/decision"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn      func(ctx context.Context, d *domain.LoanDecision) error
	GetByLoanIDFn func(ctx context.Context, loanID string) (*domain.LoanDecision, error)
}

func (m *Repo) Create(ctx context.Context, d *domain.LoanDecision) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	return nil
}

// GetByLoanID defaults to ErrNotFound: no decision recorded yet.
func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.LoanDecision, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, domain.ErrNotFound
}
