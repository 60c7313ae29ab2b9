package repayment

import (
	"context"
	"time"

	"community-ledger/internal/domain/event"
	"community-ledger/internal/domain/loan"
	"community-ledger/internal/domain/uow"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var _ SettlementHook = (*InterestDistributor)(nil)

// InterestDistributor credits a settled loan's interest to every active
// member as a contribution-equivalent.
type InterestDistributor struct {
	uow    uow.UnitOfWork
	events event.Publisher
	log    *zap.Logger
	now    func() time.Time
}

func NewInterestDistributor(tx uow.UnitOfWork, events event.Publisher, log *zap.Logger) *InterestDistributor {
	return &InterestDistributor{uow: tx, events: events, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (d *InterestDistributor) Settled(ctx context.Context, l loan.Loan) error {
	interest := l.Interest()
	if !interest.IsPositive() {
		return nil
	}

	var credited int
	err := d.uow.WithinTx(ctx, func(r uow.Repos) error {
		members, err := r.Members.ListActive(ctx)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			d.log.Warn("no active members to credit", zap.String("loan_id", l.LoanID))
			return nil
		}
		ref := "loan:" + l.LoanID
		for i, share := range Split(interest, len(members)) {
			if share.IsZero() {
				continue
			}
			if err := r.Contributions.Credit(ctx, members[i], share, ref); err != nil {
				return err
			}
			credited++
		}
		return nil
	})
	if err != nil {
		return err
	}
	if credited == 0 {
		return nil
	}

	d.log.Info("interest distributed",
		zap.String("loan_id", l.LoanID),
		zap.String("interest", interest.StringFixed(2)),
		zap.Int("members", credited))
	e := event.New(event.InterestDistributed, l.LoanID, l.MemberID, d.now()).WithAmounts(interest, decimal.Zero)
	if err := d.events.Publish(ctx, e); err != nil {
		d.log.Error("publish event", zap.String("type", string(e.Type)), zap.String("loan_id", l.LoanID), zap.Error(err))
	}
	return nil
}

// Split divides total (in cents) into n shares that differ by at most one
// cent and sum to total exactly. The extra cents go to the first shares.
func Split(total decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	cents := total.Shift(2).Truncate(0).IntPart()
	base, rem := cents/int64(n), cents%int64(n)
	out := make([]decimal.Decimal, n)
	for i := range out {
		c := base
		if int64(i) < rem {
			c++
		}
		out[i] = decimal.New(c, -2)
	}
	return out
}
