package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"community-ledger/internal/domain/decision"
	"community-ledger/internal/domain/event"
	domainLoan "community-ledger/internal/domain/loan"
	"community-ledger/internal/domain/uow"
	"community-ledger/internal/usecase/eligibility"
	loanuc "community-ledger/internal/usecase/loan"
	"community-ledger/pkg/id"

	"go.uber.org/zap"
)

type Usecase struct {
	uow    uow.UnitOfWork
	engine *eligibility.Engine
	events event.Publisher
	log    *zap.Logger
	now    func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, engine *eligibility.Engine, events event.Publisher, log *zap.Logger) *Usecase {
	return &Usecase{
		uow:    tx,
		engine: engine,
		events: events,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source; tests only.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// Approve moves a pending loan to approved. Available funds are re-read with
// this loan excluded and must cover its full TotalAmount, because that is
// what becomes outstanding.
func (u *Usecase) Approve(ctx context.Context, in ApproveInput) (*loanuc.LoanDTO, error) {
	if in.ApproverID == "" {
		return nil, fmt.Errorf("%w: approver_id is required", domainLoan.ErrValidation)
	}
	at := u.now()

	var approved *domainLoan.Loan
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if err := l.Approve(in.ApproverID, at); err != nil {
			return err
		}
		if err := noPriorDecision(ctx, r, l.LoanID); err != nil {
			return err
		}

		available, err := u.engine.AvailableFunds(ctx, eligibility.Sources{Contributions: r.Contributions, Loans: r.Loans}, l.LoanID)
		if err != nil {
			return err
		}
		if l.TotalAmount.GreaterThan(available) {
			return fmt.Errorf("%w: loan %s needs %s, available %s", domainLoan.ErrInsufficientFunds,
				l.LoanID, l.TotalAmount.StringFixed(2), available.StringFixed(2))
		}

		if err := r.Decisions.Create(ctx, &decision.LoanDecision{
			DecisionID: id.NewID32(),
			LoanID:     l.LoanID,
			Decision:   decision.KindApproved,
			DecidedBy:  in.ApproverID,
			DecidedAt:  at,
		}); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		approved = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("loan approved",
		zap.String("loan_id", approved.LoanID),
		zap.String("member_id", approved.MemberID),
		zap.String("approver_id", in.ApproverID))
	u.publish(ctx, event.New(event.LoanApproved, approved.LoanID, approved.MemberID, at).
		WithAmounts(approved.Principal, approved.RemainingAmount))

	return loanuc.ToDTO(approved, at), nil
}

func (u *Usecase) Reject(ctx context.Context, in RejectInput) (*loanuc.LoanDTO, error) {
	if in.RejectorID == "" {
		return nil, fmt.Errorf("%w: rejector_id is required", domainLoan.ErrValidation)
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, domainLoan.ErrEmptyReason
	}
	at := u.now()

	var rejected *domainLoan.Loan
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if err := l.Reject(in.RejectorID, reason, at); err != nil {
			return err
		}
		if err := noPriorDecision(ctx, r, l.LoanID); err != nil {
			return err
		}
		if err := r.Decisions.Create(ctx, &decision.LoanDecision{
			DecisionID: id.NewID32(),
			LoanID:     l.LoanID,
			Decision:   decision.KindRejected,
			DecidedBy:  in.RejectorID,
			Reason:     &reason,
			DecidedAt:  at,
		}); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		rejected = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("loan rejected",
		zap.String("loan_id", rejected.LoanID),
		zap.String("member_id", rejected.MemberID),
		zap.String("rejector_id", in.RejectorID))
	e := event.New(event.LoanRejected, rejected.LoanID, rejected.MemberID, at)
	e.Reason = reason
	u.publish(ctx, e)

	return loanuc.ToDTO(rejected, at), nil
}

// noPriorDecision guards against a status column that disagrees with the
// decision log.
func noPriorDecision(ctx context.Context, r uow.Repos, loanID string) error {
	prior, err := r.Decisions.GetByLoanID(ctx, loanID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: loan %s already %s", domainLoan.ErrInvalidState, loanID, prior.Decision)
	case errors.Is(err, decision.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (u *Usecase) publish(ctx context.Context, e event.Event) {
	if err := u.events.Publish(context.WithoutCancel(ctx), e); err != nil {
		u.log.Error("publish event", zap.String("type", string(e.Type)), zap.String("loan_id", e.LoanID), zap.Error(err))
	}
}
