// Package repayment applies payments to approved loans and fires the
// settlement hook once a loan is fully paid.
package repayment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"community-ledger/internal/domain/event"
	"community-ledger/internal/domain/loan"
	"community-ledger/internal/domain/payment"
	"community-ledger/internal/domain/uow"
	"community-ledger/internal/infrastructure/worker"
	loanuc "community-ledger/internal/usecase/loan"
	"community-ledger/pkg/id"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PayInput struct {
	LoanID           string
	PayerID          string
	Amount           decimal.Decimal
	PaymentReference string
	Notes            *string
}

type PaymentResult struct {
	Loan    loanuc.LoanDTO    `json:"loan"`
	Payment loanuc.PaymentDTO `json:"payment"`
	Settled bool              `json:"settled"`
}

// SettlementHook runs once per loan, after the payment that settled it has
// committed. Its failure never undoes the payment.
type SettlementHook interface {
	Settled(ctx context.Context, l loan.Loan) error
}

// Runner accepts fire-and-forget work; *worker.Pool satisfies it.
type Runner interface {
	Submit(task worker.Task) bool
}

type Usecase struct {
	uow    uow.UnitOfWork
	reads  uow.Repos
	hook   SettlementHook
	runner Runner
	events event.Publisher
	log    *zap.Logger
	now    func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, reads uow.Repos, hook SettlementHook, runner Runner, events event.Publisher, log *zap.Logger) *Usecase {
	return &Usecase{
		uow:    tx,
		reads:  reads,
		hook:   hook,
		runner: runner,
		events: events,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// Pay appends the payment, moves the balance and, when nothing is left,
// marks the loan paid. All three commit together or not at all.
func (u *Usecase) Pay(ctx context.Context, in PayInput) (*PaymentResult, error) {
	if in.PayerID == "" {
		return nil, fmt.Errorf("%w: payer_id is required", loan.ErrValidation)
	}
	if err := loanuc.ValidateAmount(in.Amount); err != nil {
		return nil, err
	}
	ref := strings.TrimSpace(in.PaymentReference)
	if ref == "" {
		return nil, fmt.Errorf("%w: payment_reference is required", loan.ErrValidation)
	}
	at := u.now()

	var (
		paid    loan.Loan
		p       *payment.LoanPayment
		settled bool
	)
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		paidBefore, err := r.Payments.SumByLoanID(ctx, l.LoanID)
		if err != nil {
			return err
		}
		if !paidBefore.Equal(l.PaidAmount) {
			return fmt.Errorf("loan %s: payment history sums to %s but paid amount is %s",
				l.LoanID, paidBefore.StringFixed(2), l.PaidAmount.StringFixed(2))
		}

		settled, err = l.ApplyPayment(in.PayerID, in.Amount, at)
		if err != nil {
			return err
		}

		p = &payment.LoanPayment{
			PaymentID:        id.NewID32(),
			LoanID:           l.LoanID,
			MemberID:         in.PayerID,
			Amount:           in.Amount,
			PaymentReference: ref,
			PaymentDate:      at,
			Notes:            in.Notes,
		}
		if err := r.Payments.Create(ctx, p); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		paid = *l
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("payment received",
		zap.String("loan_id", paid.LoanID),
		zap.String("member_id", paid.MemberID),
		zap.String("amount", in.Amount.StringFixed(2)),
		zap.String("remaining", paid.RemainingAmount.StringFixed(2)))
	u.publish(ctx, event.New(event.PaymentReceived, paid.LoanID, paid.MemberID, at).
		WithAmounts(in.Amount, paid.RemainingAmount))

	if settled {
		u.log.Info("loan settled", zap.String("loan_id", paid.LoanID), zap.String("member_id", paid.MemberID))
		u.publish(ctx, event.New(event.LoanSettled, paid.LoanID, paid.MemberID, at).
			WithAmounts(paid.TotalAmount, decimal.Zero))
		u.settle(ctx, paid)
	}

	return &PaymentResult{
		Loan:    *loanuc.ToDTO(&paid, at),
		Payment: *loanuc.ToPaymentDTO(p),
		Settled: settled,
	}, nil
}

func (u *Usecase) settle(ctx context.Context, l loan.Loan) {
	if u.hook == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	task := func() {
		if err := u.hook.Settled(bg, l); err != nil {
			u.log.Error("settlement hook", zap.String("loan_id", l.LoanID), zap.Error(err))
		}
	}
	if !u.runner.Submit(task) {
		// pool already stopped (shutdown); do it here rather than lose it
		task()
	}
}

// ListPayments returns the loan's payments, oldest first.
func (u *Usecase) ListPayments(ctx context.Context, loanID string) ([]loanuc.PaymentDTO, error) {
	if _, err := u.reads.Loans.GetByLoanID(ctx, loanID); err != nil {
		return nil, err
	}
	ps, err := u.reads.Payments.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	out := make([]loanuc.PaymentDTO, 0, len(ps))
	for i := range ps {
		out = append(out, *loanuc.ToPaymentDTO(&ps[i]))
	}
	return out, nil
}

func (u *Usecase) publish(ctx context.Context, e event.Event) {
	if err := u.events.Publish(context.WithoutCancel(ctx), e); err != nil {
		u.log.Error("publish event", zap.String("type", string(e.Type)), zap.String("loan_id", e.LoanID), zap.Error(err))
	}
}
