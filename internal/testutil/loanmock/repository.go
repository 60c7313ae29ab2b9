package loanmock

import (
	"context"
	"time"

	domain "community-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to a no-op, reads to context.Canceled.
type Repo struct {
	CreateFn               func(ctx context.Context, l *domain.Loan) error
	SaveFn                 func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn          func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByLoanIDForUpdateFn func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetActiveByMemberIDFn  func(ctx context.Context, memberID string) (*domain.Loan, error)
	ListByMemberIDFn       func(ctx context.Context, memberID string) ([]domain.Loan, error)
	ListByStatusFn         func(ctx context.Context, status domain.Status) ([]domain.Loan, error)
	ListOverdueFn          func(ctx context.Context, now time.Time) ([]domain.Loan, error)
	OutstandingTotalFn     func(ctx context.Context, excludeLoanID string) (decimal.Decimal, error)
	OutstandingForMemberFn func(ctx context.Context, memberID string) (decimal.Decimal, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetActiveByMemberID(ctx context.Context, memberID string) (*domain.Loan, error) {
	if m.GetActiveByMemberIDFn != nil {
		return m.GetActiveByMemberIDFn(ctx, memberID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByMemberID(ctx context.Context, memberID string) ([]domain.Loan, error) {
	if m.ListByMemberIDFn != nil {
		return m.ListByMemberIDFn(ctx, memberID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByStatus(ctx context.Context, status domain.Status) ([]domain.Loan, error) {
	if m.ListByStatusFn != nil {
		return m.ListByStatusFn(ctx, status)
	}
	return nil, context.Canceled
}

func (m *Repo) ListOverdue(ctx context.Context, now time.Time) ([]domain.Loan, error) {
	if m.ListOverdueFn != nil {
		return m.ListOverdueFn(ctx, now)
	}
	return nil, context.Canceled
}

func (m *Repo) OutstandingTotal(ctx context.Context, excludeLoanID string) (decimal.Decimal, error) {
	if m.OutstandingTotalFn != nil {
		return m.OutstandingTotalFn(ctx, excludeLoanID)
	}
	return decimal.Zero, context.Canceled
}

func (m *Repo) OutstandingForMember(ctx context.Context, memberID string) (decimal.Decimal, error) {
	if m.OutstandingForMemberFn != nil {
		return m.OutstandingForMemberFn(ctx, memberID)
	}
	return decimal.Zero, context.Canceled
}
