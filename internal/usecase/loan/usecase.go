package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"community-ledger/internal/domain/event"
	"community-ledger/internal/domain/loan"
	"community-ledger/internal/domain/uow"
	"community-ledger/internal/usecase/eligibility"
	"community-ledger/pkg/id"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Usecase struct {
	uow    uow.UnitOfWork
	reads  uow.Repos
	engine *eligibility.Engine
	events event.Publisher
	policy Policy
	log    *zap.Logger
	now    func() time.Time
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

// NewUsecase wires the ledger. reads serves unlocked queries; every write
// goes through tx.
func NewUsecase(tx uow.UnitOfWork, reads uow.Repos, engine *eligibility.Engine, events event.Publisher, policy Policy, log *zap.Logger, opts ...Option) *Usecase {
	u := &Usecase{
		uow:    tx,
		reads:  reads,
		engine: engine,
		events: events,
		policy: policy,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// ValidateAmount rejects non-positive amounts and sub-cent precision.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return loan.ErrNonPositiveAmount
	}
	if !amount.Equal(amount.Truncate(2)) {
		return fmt.Errorf("%w: amount %s has more than 2 decimal places", loan.ErrValidation, amount)
	}
	return nil
}

// Request creates a pending loan. Eligibility and available funds are
// computed inside the ledger transaction, so the figures the check uses are
// the ones the loan is committed against.
func (u *Usecase) Request(ctx context.Context, in RequestLoanInput) (*LoanDTO, error) {
	if in.MemberID == "" {
		return nil, fmt.Errorf("%w: member_id is required", loan.ErrValidation)
	}
	if err := ValidateAmount(in.Amount); err != nil {
		return nil, err
	}

	var created *loan.Loan
	err := u.uow.WithinLedgerTx(ctx, func(r uow.Repos) error {
		active, err := r.Members.IsActive(ctx, in.MemberID)
		if err != nil {
			return err
		}
		if !active {
			return fmt.Errorf("%w: %s", loan.ErrMemberInactive, in.MemberID)
		}

		existing, err := r.Loans.GetActiveByMemberID(ctx, in.MemberID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s (status %s)", loan.ErrOutstandingLoanExists, existing.LoanID, existing.Status)
		case !errors.Is(err, loan.ErrNotFound):
			return err
		}

		a, err := u.engine.Assess(ctx, eligibility.Sources{Contributions: r.Contributions, Loans: r.Loans}, in.MemberID, "")
		if err != nil {
			return err
		}
		if !a.MemberContributions.IsPositive() {
			return loan.ErrNoContributionHistory
		}
		// approval checks the same total against the same funds
		if total := loan.TotalFor(in.Amount, u.policy.InterestRatePercent); total.GreaterThan(a.AvailableFunds) {
			return fmt.Errorf("%w: requested %s (%s with interest), available %s", loan.ErrInsufficientFunds,
				in.Amount.StringFixed(2), total.StringFixed(2), decimal.Max(a.AvailableFunds, decimal.Zero).StringFixed(2))
		}
		if in.Amount.GreaterThan(a.MaxBorrowable) {
			return &eligibility.ExceededError{Requested: in.Amount, Assessment: a}
		}

		l := loan.New(id.NewID32(), in.MemberID, in.Purpose, in.Amount, u.policy.InterestRatePercent, u.now(), u.policy.Term)
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		created = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("loan requested",
		zap.String("loan_id", created.LoanID),
		zap.String("member_id", created.MemberID),
		zap.String("principal", created.Principal.StringFixed(2)),
		zap.String("total", created.TotalAmount.StringFixed(2)))
	u.publish(ctx, event.New(event.LoanRequested, created.LoanID, created.MemberID, created.RequestedAt).
		WithAmounts(created.Principal, created.RemainingAmount))

	return ToDTO(created, u.now()), nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.reads.Loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return ToDTO(l, u.now()), nil
}

// ListFor returns the member's loans, newest first.
func (u *Usecase) ListFor(ctx context.Context, memberID string) ([]LoanDTO, error) {
	ls, err := u.reads.Loans.ListByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return ToDTOs(ls, u.now()), nil
}

// ListPending returns pending loans, oldest first (review queue order).
func (u *Usecase) ListPending(ctx context.Context) ([]LoanDTO, error) {
	ls, err := u.reads.Loans.ListByStatus(ctx, loan.StatusPending)
	if err != nil {
		return nil, err
	}
	return ToDTOs(ls, u.now()), nil
}

// Eligibility is an unlocked read; the figure may be stale by the time a
// request commits, which Request re-checks.
func (u *Usecase) Eligibility(ctx context.Context, memberID string) (eligibility.Assessment, error) {
	if _, err := u.reads.Members.IsActive(ctx, memberID); err != nil {
		return eligibility.Assessment{}, err
	}
	return u.engine.Assess(ctx, eligibility.Sources{Contributions: u.reads.Contributions, Loans: u.reads.Loans}, memberID, "")
}

func (u *Usecase) MaxBorrowable(ctx context.Context, memberID string) (decimal.Decimal, error) {
	a, err := u.Eligibility(ctx, memberID)
	if err != nil {
		return decimal.Zero, err
	}
	return a.MaxBorrowable, nil
}

func (u *Usecase) Summary(ctx context.Context, memberID string) (*AccountSummary, error) {
	a, err := u.Eligibility(ctx, memberID)
	if err != nil {
		return nil, err
	}
	outstanding, err := u.reads.Loans.OutstandingForMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	ls, err := u.reads.Loans.ListByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	active := 0
	for i := range ls {
		if ls[i].Active() {
			active++
		}
	}
	return &AccountSummary{
		MemberID:      memberID,
		Balance:       a.MemberContributions,
		Outstanding:   outstanding,
		ActiveLoans:   active,
		Tier:          a.Tier.Tier,
		MaxLoanAmount: a.MaxBorrowable,
	}, nil
}

func (u *Usecase) publish(ctx context.Context, e event.Event) {
	if err := u.events.Publish(context.WithoutCancel(ctx), e); err != nil {
		u.log.Error("publish event", zap.String("type", string(e.Type)), zap.String("loan_id", e.LoanID), zap.Error(err))
	}
}
