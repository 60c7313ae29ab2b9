package uow

import (
	"context"

	"community-ledger/internal/domain/contribution"
	"community-ledger/internal/domain/decision"
	"community-ledger/internal/domain/loan"
	"community-ledger/internal/domain/member"
	"community-ledger/internal/domain/payment"
)

// Repos are bound to one transaction.
type Repos struct {
	Loans         loan.Repository
	Payments      payment.Repository
	Decisions     decision.Repository
	Contributions contribution.Store
	Members       member.Directory
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinLedgerTx serialises every operation that reads available
	// community funds and then writes against them. Only one runs at a time
	// per community.
	WithinLedgerTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: ledger tx, then lock loan and pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
