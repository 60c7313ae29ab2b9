package uowmock

import (
	"context"
	"errors"
	"testing"

	"community-ledger/internal/domain/loan"
	"community-ledger/internal/domain/uow"
	"community-ledger/internal/testutil/decisionmock"
	"community-ledger/internal/testutil/loanmock"
)

// call invokes one UnitOfWork method with a body that records whether it ran.
type call struct {
	name string
	run  func(m *UoW, body func() error) error
}

var calls = []call{
	{"WithinTx", func(m *UoW, body func() error) error {
		return m.WithinTx(context.Background(), func(uow.Repos) error { return body() })
	}},
	{"WithinLedgerTx", func(m *UoW, body func() error) error {
		return m.WithinLedgerTx(context.Background(), func(uow.Repos) error { return body() })
	}},
	{"WithinLoanTx", func(m *UoW, body func() error) error {
		return m.WithinLoanTx(context.Background(), "LN-1", func(uow.Repos, *loan.Loan) error { return body() })
	}},
}

func TestUoW_UnsetMethodsAreUnimplemented(t *testing.T) {
	for _, c := range calls {
		t.Run(c.name, func(t *testing.T) {
			ran := false
			err := c.run(New(), func() error { ran = true; return nil })
			if !errors.Is(err, errUnimplemented) {
				t.Fatalf("want errUnimplemented, got %v", err)
			}
			if ran {
				t.Fatalf("body must not run")
			}
		})
	}
}

func TestUoW_FluentSettersDelegate(t *testing.T) {
	ctx := context.Background()
	var seenLoanID string
	m := New().
		WithWithinTx(func(got context.Context, fn func(uow.Repos) error) error {
			if got != ctx {
				t.Fatalf("WithinTx: ctx mismatch")
			}
			return fn(uow.Repos{})
		}).
		WithWithinLedgerTx(func(_ context.Context, fn func(uow.Repos) error) error { return fn(uow.Repos{}) }).
		WithWithinLoanTx(func(_ context.Context, loanID string, fn func(uow.Repos, *loan.Loan) error) error {
			seenLoanID = loanID
			return fn(uow.Repos{}, &loan.Loan{LoanID: loanID})
		})

	for _, c := range calls {
		ran := false
		if err := c.run(m, func() error { ran = true; return nil }); err != nil || !ran {
			t.Fatalf("%s: err=%v ran=%v", c.name, err, ran)
		}
	}
	if seenLoanID != "LN-1" {
		t.Fatalf("WithinLoanTx got loan id %q", seenLoanID)
	}

	m.Reset()
	if m.WithinTxFn != nil || m.WithinLedgerTxFn != nil || m.WithinLoanTxFn != nil {
		t.Fatalf("Reset should clear function fields")
	}
}

func TestPassing_ForwardsReposLoanAndErrors(t *testing.T) {
	loans := &loanmock.Repo{}
	decs := &decisionmock.Repo{}
	locked := &loan.Loan{ID: 7, LoanID: "LN-7", Status: loan.StatusApproved}
	m := Passing(uow.Repos{Loans: loans, Decisions: decs}, locked)

	err := m.WithinLoanTx(context.Background(), "LN-7", func(r uow.Repos, l *loan.Loan) error {
		if r.Loans != loans || r.Decisions != decs {
			t.Fatalf("repos not forwarded")
		}
		if l != locked {
			t.Fatalf("loan not forwarded: %+v", l)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithinLoanTx: %v", err)
	}

	sentinel := errors.New("insufficient funds")
	for _, c := range calls {
		if err := c.run(m, func() error { return sentinel }); !errors.Is(err, sentinel) {
			t.Fatalf("%s: want %v, got %v", c.name, sentinel, err)
		}
	}
}
