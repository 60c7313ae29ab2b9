package memstore

import (
	"context"
	"sort"
	"time"

	"community-ledger/internal/domain/contribution"
	"community-ledger/internal/domain/decision"
	"community-ledger/internal/domain/loan"
	"community-ledger/internal/domain/member"
	"community-ledger/internal/domain/payment"
	"community-ledger/pkg/id"

	"github.com/shopspring/decimal"
)

type loanRepo struct{ v view }

func (r loanRepo) Create(_ context.Context, l *loan.Loan) error {
	return r.v.do(func(d *data) error {
		if _, ok := d.loans[l.LoanID]; ok {
			return ErrDuplicate
		}
		now := time.Now().UTC()
		l.ID = d.next()
		l.CreatedAt, l.UpdatedAt = now, now
		d.loans[l.LoanID] = *l
		return nil
	})
}

func (r loanRepo) Save(_ context.Context, l *loan.Loan) error {
	return r.v.do(func(d *data) error {
		l.UpdatedAt = time.Now().UTC()
		d.loans[l.LoanID] = *l
		return nil
	})
}

func (r loanRepo) GetByLoanID(_ context.Context, loanID string) (*loan.Loan, error) {
	var out *loan.Loan
	err := r.v.do(func(d *data) error {
		l, ok := d.loans[loanID]
		if !ok {
			return loan.ErrNotFound
		}
		out = &l
		return nil
	})
	return out, err
}

// GetByLoanIDForUpdate relies on the transaction already holding the store lock.
func (r loanRepo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loan.Loan, error) {
	return r.GetByLoanID(ctx, loanID)
}

func (r loanRepo) GetActiveByMemberID(_ context.Context, memberID string) (*loan.Loan, error) {
	var out *loan.Loan
	err := r.v.do(func(d *data) error {
		for _, l := range sorted(d.loans, newestFirst) {
			if l.MemberID == memberID && l.Active() {
				l := l
				out = &l
				return nil
			}
		}
		return loan.ErrNotFound
	})
	return out, err
}

func (r loanRepo) ListByMemberID(_ context.Context, memberID string) ([]loan.Loan, error) {
	return r.filter(newestFirst, func(l loan.Loan) bool { return l.MemberID == memberID })
}

func (r loanRepo) ListByStatus(_ context.Context, status loan.Status) ([]loan.Loan, error) {
	return r.filter(oldestFirst, func(l loan.Loan) bool { return l.Status == status })
}

func (r loanRepo) ListOverdue(_ context.Context, now time.Time) ([]loan.Loan, error) {
	out, err := r.filter(oldestFirst, func(l loan.Loan) bool { return loan.IsOverdue(&l, now) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out, err
}

func (r loanRepo) OutstandingTotal(_ context.Context, excludeLoanID string) (decimal.Decimal, error) {
	return r.outstanding(func(l loan.Loan) bool { return l.LoanID != excludeLoanID })
}

func (r loanRepo) OutstandingForMember(_ context.Context, memberID string) (decimal.Decimal, error) {
	return r.outstanding(func(l loan.Loan) bool { return l.MemberID == memberID })
}

func (r loanRepo) outstanding(keep func(loan.Loan) bool) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.v.do(func(d *data) error {
		for _, l := range d.loans {
			if l.Status == loan.StatusApproved && l.RemainingAmount.IsPositive() && keep(l) {
				total = total.Add(l.RemainingAmount)
			}
		}
		return nil
	})
	return total, err
}

func (r loanRepo) filter(order func(a, b loan.Loan) bool, keep func(loan.Loan) bool) ([]loan.Loan, error) {
	out := []loan.Loan{}
	err := r.v.do(func(d *data) error {
		for _, l := range sorted(d.loans, order) {
			if keep(l) {
				out = append(out, l)
			}
		}
		return nil
	})
	return out, err
}

func oldestFirst(a, b loan.Loan) bool {
	if !a.RequestedAt.Equal(b.RequestedAt) {
		return a.RequestedAt.Before(b.RequestedAt)
	}
	return a.ID < b.ID
}

func newestFirst(a, b loan.Loan) bool { return oldestFirst(b, a) }

func sorted(m map[string]loan.Loan, less func(a, b loan.Loan) bool) []loan.Loan {
	out := make([]loan.Loan, 0, len(m))
	for _, l := range m {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

type paymentRepo struct{ v view }

func (r paymentRepo) Create(_ context.Context, p *payment.LoanPayment) error {
	return r.v.do(func(d *data) error {
		p.ID = d.next()
		p.CreatedAt = time.Now().UTC()
		d.payments = append(d.payments, *p)
		return nil
	})
}

func (r paymentRepo) ListByLoanID(_ context.Context, loanID string) ([]payment.LoanPayment, error) {
	out := []payment.LoanPayment{}
	err := r.v.do(func(d *data) error {
		for _, p := range d.payments {
			if p.LoanID == loanID {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaymentDate.Before(out[j].PaymentDate) })
	return out, err
}

func (r paymentRepo) SumByLoanID(_ context.Context, loanID string) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.v.do(func(d *data) error {
		for _, p := range d.payments {
			if p.LoanID == loanID {
				total = total.Add(p.Amount)
			}
		}
		return nil
	})
	return total, err
}

type decisionRepo struct{ v view }

func (r decisionRepo) Create(_ context.Context, dec *decision.LoanDecision) error {
	return r.v.do(func(d *data) error {
		if _, ok := d.decisions[dec.LoanID]; ok {
			return ErrDuplicate
		}
		dec.ID = d.next()
		dec.CreatedAt = time.Now().UTC()
		d.decisions[dec.LoanID] = *dec
		return nil
	})
}

func (r decisionRepo) GetByLoanID(_ context.Context, loanID string) (*decision.LoanDecision, error) {
	var out *decision.LoanDecision
	err := r.v.do(func(d *data) error {
		dec, ok := d.decisions[loanID]
		if !ok {
			return decision.ErrNotFound
		}
		out = &dec
		return nil
	})
	return out, err
}

type contributionRepo struct{ v view }

func (r contributionRepo) TotalFor(_ context.Context, memberID string) (decimal.Decimal, error) {
	return r.sum(func(c contribution.Contribution) bool { return c.MemberID == memberID })
}

func (r contributionRepo) CommunityTotal(context.Context) (decimal.Decimal, error) {
	return r.sum(func(contribution.Contribution) bool { return true })
}

func (r contributionRepo) sum(keep func(contribution.Contribution) bool) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.v.do(func(d *data) error {
		for _, c := range d.contributions {
			if c.Status == contribution.StatusApproved && keep(c) {
				total = total.Add(c.Amount)
			}
		}
		return nil
	})
	return total, err
}

func (r contributionRepo) Credit(_ context.Context, memberID string, amount decimal.Decimal, reference string) error {
	return r.v.do(func(d *data) error {
		d.contributions = append(d.contributions, contribution.Contribution{
			ID: d.next(), ContributionID: id.NewID32(), MemberID: memberID, Amount: amount,
			Status: contribution.StatusApproved, Source: contribution.SourceInterestDistribution,
			Reference: reference, CreatedAt: time.Now().UTC(),
		})
		return nil
	})
}

type memberRepo struct{ v view }

func (r memberRepo) IsActive(_ context.Context, memberID string) (bool, error) {
	var active bool
	err := r.v.do(func(d *data) error {
		m, ok := d.members[memberID]
		if !ok {
			return member.ErrNotFound
		}
		active = m.Active
		return nil
	})
	return active, err
}

func (r memberRepo) ListActive(context.Context) ([]string, error) {
	out := []string{}
	err := r.v.do(func(d *data) error {
		for _, m := range d.members {
			if m.Active {
				out = append(out, m.MemberID)
			}
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}
