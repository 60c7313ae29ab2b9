package uowmock

import (
	"context"
	"errors"

	"community-ledger/internal/domain/loan"
	"community-ledger/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn       func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLedgerTxFn func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn   func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error
}

// Convenience fluent setters
func New() *UoW { return &UoW{} }
func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinLedgerTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinLedgerTxFn = fn
	return m
}
func (m *UoW) WithWithinLoanTx(fn func(context.Context, string, func(uow.Repos, *loan.Loan) error) error) *UoW {
	m.WithinLoanTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

// Passing runs every body straight against r and hands l to loan bodies.
func Passing(r uow.Repos, l *loan.Loan) *UoW {
	run := func(_ context.Context, fn func(uow.Repos) error) error { return fn(r) }
	return &UoW{
		WithinTxFn:       run,
		WithinLedgerTxFn: run,
		WithinLoanTxFn: func(_ context.Context, _ string, fn func(uow.Repos, *loan.Loan) error) error {
			return fn(r, l)
		},
	}
}

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinLedgerTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinLedgerTxFn != nil {
		return m.WithinLedgerTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	if m.WithinLoanTxFn != nil {
		return m.WithinLoanTxFn(ctx, loanID, fn)
	}
	return errUnimplemented
}
