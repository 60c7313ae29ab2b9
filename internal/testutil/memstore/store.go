// Package memstore is an in-memory implementation of every ledger
// repository and of uow.UnitOfWork. A transaction holds the store mutex for
// its whole body and restores a snapshot when the body fails, so use case
// tests see the same serialisation and rollback as the gorm unit of work.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"community-ledger/internal/domain/contribution"
	"community-ledger/internal/domain/decision"
	"community-ledger/internal/domain/loan"
	"community-ledger/internal/domain/member"
	"community-ledger/internal/domain/payment"
	"community-ledger/internal/domain/uow"
	"community-ledger/pkg/id"

	"github.com/shopspring/decimal"
)

var ErrDuplicate = errors.New("memstore: duplicate key")

var _ uow.UnitOfWork = (*Store)(nil)

type data struct {
	loans         map[string]loan.Loan
	payments      []payment.LoanPayment
	decisions     map[string]decision.LoanDecision
	contributions []contribution.Contribution
	members       map[string]member.Member
	seq           uint64
}

func (d *data) clone() *data {
	c := &data{
		loans:         make(map[string]loan.Loan, len(d.loans)),
		payments:      append([]payment.LoanPayment(nil), d.payments...),
		decisions:     make(map[string]decision.LoanDecision, len(d.decisions)),
		contributions: append([]contribution.Contribution(nil), d.contributions...),
		members:       make(map[string]member.Member, len(d.members)),
		seq:           d.seq,
	}
	for k, v := range d.loans {
		c.loans[k] = v
	}
	for k, v := range d.decisions {
		c.decisions[k] = v
	}
	for k, v := range d.members {
		c.members[k] = v
	}
	return c
}

type Store struct {
	mu sync.Mutex
	d  *data
}

func New() *Store {
	return &Store{d: &data{
		loans:     map[string]loan.Loan{},
		decisions: map[string]decision.LoanDecision{},
		members:   map[string]member.Member{},
	}}
}

// ---- unit of work ----

func (s *Store) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(fn)
}

// WithinLedgerTx is WithinTx: the store has a single lock.
func (s *Store) WithinLedgerTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return s.WithinTx(ctx, fn)
}

func (s *Store) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return s.WithinLedgerTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}

func (s *Store) run(fn func(r uow.Repos) error) error {
	snap := s.d.clone()
	if err := fn(s.repos(false)); err != nil {
		s.d = snap
		return err
	}
	return nil
}

// Repos returns repositories that lock per call, for reads outside a tx.
func (s *Store) Repos() uow.Repos { return s.repos(true) }

func (s *Store) repos(auto bool) uow.Repos {
	v := view{s: s, auto: auto}
	return uow.Repos{
		Loans:         loanRepo{v},
		Payments:      paymentRepo{v},
		Decisions:     decisionRepo{v},
		Contributions: contributionRepo{v},
		Members:       memberRepo{v},
	}
}

type view struct {
	s    *Store
	auto bool
}

func (v view) do(fn func(d *data) error) error {
	if v.auto {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	return fn(v.s.d)
}

func (d *data) next() uint64 {
	d.seq++
	return d.seq
}

// ---- seeding and inspection ----

// AddMember registers a member. Role defaults to member.
func (s *Store) AddMember(memberID string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.members[memberID] = member.Member{ID: s.d.next(), MemberID: memberID, Role: member.RoleMember, Active: active}
}

// Contribute records an approved contribution.
func (s *Store) Contribute(memberID string, amount decimal.Decimal) {
	s.addContribution(memberID, amount, contribution.StatusApproved, "deposit")
}

// ContributePending records a contribution that does not count toward totals.
func (s *Store) ContributePending(memberID string, amount decimal.Decimal) {
	s.addContribution(memberID, amount, contribution.StatusPending, "deposit")
}

func (s *Store) addContribution(memberID string, amount decimal.Decimal, st contribution.Status, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.contributions = append(s.d.contributions, contribution.Contribution{
		ID: s.d.next(), ContributionID: id.NewID32(), MemberID: memberID,
		Amount: amount, Status: st, Source: source, CreatedAt: time.Now().UTC(),
	})
}

// PutLoan inserts or replaces a loan as-is.
func (s *Store) PutLoan(l loan.Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == 0 {
		l.ID = s.d.next()
	}
	s.d.loans[l.LoanID] = l
}

func (s *Store) Loan(loanID string) (loan.Loan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.d.loans[loanID]
	return l, ok
}

func (s *Store) Loans() []loan.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]loan.Loan, 0, len(s.d.loans))
	for _, l := range s.d.loans {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Payments(loanID string) []payment.LoanPayment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []payment.LoanPayment
	for _, p := range s.d.payments {
		if p.LoanID == loanID {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) Decision(loanID string) (decision.LoanDecision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.d.decisions[loanID]
	return d, ok
}

// Credits returns interest credits by member.
func (s *Store) Credits() map[string]decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]decimal.Decimal{}
	for _, c := range s.d.contributions {
		if c.Source == contribution.SourceInterestDistribution {
			out[c.MemberID] = out[c.MemberID].Add(c.Amount)
		}
	}
	return out
}

// Outstanding sums RemainingAmount over approved loans.
func (s *Store) Outstanding() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, l := range s.d.loans {
		if l.Status == loan.StatusApproved {
			total = total.Add(l.RemainingAmount)
		}
	}
	return total
}
