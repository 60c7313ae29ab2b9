// Package overdue periodically reports approved loans past their due date.
// It only reads: overdue is derived from status, due date and remaining
// balance at scan time, so nothing is written back.
package overdue

import (
	"context"
	"time"

	"community-ledger/internal/domain/event"
	"community-ledger/internal/domain/loan"

	"go.uber.org/zap"
)

type Scanner struct {
	loans    loan.Repository
	events   event.Publisher
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time
}

// NewScanner takes a non-transactional repository; scans never lock.
func NewScanner(loans loan.Repository, events event.Publisher, interval time.Duration, log *zap.Logger) *Scanner {
	return &Scanner{
		loans:    loans,
		events:   events,
		interval: interval,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Scanner) WithClock(now func() time.Time) *Scanner {
	s.now = now
	return s
}

// Overdue lists loans that are overdue right now, earliest due first.
func (s *Scanner) Overdue(ctx context.Context) ([]loan.Loan, error) {
	return s.overdueAt(ctx, s.now())
}

func (s *Scanner) overdueAt(ctx context.Context, now time.Time) ([]loan.Loan, error) {
	ls, err := s.loans.ListOverdue(ctx, now)
	if err != nil {
		return nil, err
	}
	out := ls[:0]
	for i := range ls {
		if loan.IsOverdue(&ls[i], now) {
			out = append(out, ls[i])
		}
	}
	return out, nil
}

// ScanOnce emits one LoanOverdue per overdue loan and returns them.
func (s *Scanner) ScanOnce(ctx context.Context) ([]loan.Loan, error) {
	now := s.now()
	ls, err := s.overdueAt(ctx, now)
	if err != nil {
		return nil, err
	}
	for i := range ls {
		l := &ls[i]
		e := event.New(event.LoanOverdue, l.LoanID, l.MemberID, now).WithAmounts(l.PaidAmount, l.RemainingAmount)
		if err := s.events.Publish(ctx, e); err != nil {
			s.log.Error("publish event", zap.String("type", string(e.Type)), zap.String("loan_id", l.LoanID), zap.Error(err))
		}
	}
	s.log.Info("overdue scan", zap.Int("overdue", len(ls)), zap.Time("at", now))
	return ls, nil
}

// Run scans immediately and then every interval until ctx is done.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.ScanOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("overdue scan failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
