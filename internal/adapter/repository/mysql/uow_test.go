package mysql

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"community-ledger/internal/domain/decision"
	loanDomain "community-ledger/internal/domain/loan"
	"community-ledger/internal/domain/uow"
	"community-ledger/pkg/id"
)

func makeDecision(loanID string, kind decision.Kind) *decision.LoanDecision {
	return &decision.LoanDecision{
		DecisionID: id.NewID32(),
		LoanID:     loanID,
		Decision:   kind,
		DecidedBy:  "admin",
		DecidedAt:  time.Now().UTC(),
	}
}

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db, "default")
	loanRepo := NewLoanRepository(db)
	decRepo := NewDecisionRepository(db)

	l := makeLoan("BR-1", "1000", loanDomain.StatusPending)
	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		return r.Decisions.Create(ctx, makeDecision(l.LoanID, decision.KindApproved))
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	if _, err := loanRepo.GetByLoanID(ctx, l.LoanID); err != nil {
		t.Fatalf("loan not visible after commit: %v", err)
	}
	if _, err := decRepo.GetByLoanID(ctx, l.LoanID); err != nil {
		t.Fatalf("decision not visible after commit: %v", err)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db, "default")
	loanRepo := NewLoanRepository(db)
	decRepo := NewDecisionRepository(db)

	sentinel := errors.New("boom")
	l := makeLoan("BR-2", "1000", loanDomain.StatusPending)
	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if err := r.Decisions.Create(ctx, makeDecision(l.LoanID, decision.KindApproved)); err != nil {
			return err
		}
		return sentinel // force rollback
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}

	if _, err := loanRepo.GetByLoanID(ctx, l.LoanID); !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("expected loan not found after rollback, got %v", err)
	}
	if _, err := decRepo.GetByLoanID(ctx, l.LoanID); !errors.Is(err, decision.ErrNotFound) {
		t.Fatalf("expected decision not found after rollback, got %v", err)
	}
}

func TestGormUoW_WithinLedgerTx_CreatesLockRowLazily(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db, "other-community")

	if err := guow.WithinLedgerTx(ctx, func(r uow.Repos) error { return nil }); err != nil {
		t.Fatalf("WithinLedgerTx: %v", err)
	}
	var n int64
	if err := db.Model(&LedgerLock{}).Where("name = ?", "other-community").Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("lock rows = %d, want 1", n)
	}
}

func TestGormUoW_WithinLedgerTx_Serialises(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db, "default")

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = guow.WithinLedgerTx(ctx, func(r uow.Repos) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()
				time.Sleep(2 * time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("max concurrent ledger txs = %d, want 1", maxSeen)
	}
}

func TestGormUoW_WithinLoanTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db, "default")
	loanRepo := NewLoanRepository(db)

	seed := makeLoan("BR-3", "2000", loanDomain.StatusPending)
	if err := loanRepo.Create(ctx, seed); err != nil {
		t.Fatalf("seed loan: %v", err)
	}

	if err := guow.WithinLoanTx(ctx, seed.LoanID, func(r uow.Repos, l *loanDomain.Loan) error {
		if l == nil || l.LoanID != seed.LoanID || l.Status != loanDomain.StatusPending {
			t.Fatalf("unexpected loan passed to fn: %+v", l)
		}
		if err := r.Decisions.Create(ctx, makeDecision(l.LoanID, decision.KindApproved)); err != nil {
			return err
		}
		if err := l.Approve("admin", time.Now().UTC()); err != nil {
			return err
		}
		return r.Loans.Save(ctx, l)
	}); err != nil {
		t.Fatalf("WithinLoanTx commit err: %v", err)
	}

	got, err := loanRepo.GetByLoanID(ctx, seed.LoanID)
	if err != nil {
		t.Fatalf("GetByLoanID post-commit: %v", err)
	}
	if got.Status != loanDomain.StatusApproved {
		t.Fatalf("loan status not updated, got=%s", got.Status)
	}
}

func TestGormUoW_WithinLoanTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db, "default")
	loanRepo := NewLoanRepository(db)
	decRepo := NewDecisionRepository(db)

	seed := makeLoan("BR-4", "3000", loanDomain.StatusPending)
	if err := loanRepo.Create(ctx, seed); err != nil {
		t.Fatalf("seed loan: %v", err)
	}

	sentinel := errors.New("stop")
	_ = guow.WithinLoanTx(ctx, seed.LoanID, func(r uow.Repos, l *loanDomain.Loan) error {
		if err := r.Decisions.Create(ctx, makeDecision(l.LoanID, decision.KindApproved)); err != nil {
			return err
		}
		l.Status = loanDomain.StatusApproved
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		return sentinel // force rollback
	})

	got, err := loanRepo.GetByLoanID(ctx, seed.LoanID)
	if err != nil {
		t.Fatalf("post-rollback GetByLoanID: %v", err)
	}
	if got.Status != loanDomain.StatusPending {
		t.Fatalf("expected pending after rollback, got %s", got.Status)
	}
	if _, err := decRepo.GetByLoanID(ctx, seed.LoanID); !errors.Is(err, decision.ErrNotFound) {
		t.Fatalf("expected decision absent after rollback, got %v", err)
	}
}

func TestGormUoW_WithinLoanTx_LoanNotFound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db, "default")

	err := guow.WithinLoanTx(ctx, "LN-NOPE", func(r uow.Repos, l *loanDomain.Loan) error {
		t.Fatalf("callback should not be called when loan missing")
		return nil
	})
	if !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound when loan missing, got %v", err)
	}
}
