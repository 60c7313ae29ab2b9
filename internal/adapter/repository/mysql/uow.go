package mysql

import (
	"context"
	"errors"
	"sync"
	"time"

	"community-ledger/internal/domain/loan"
	"community-ledger/internal/domain/uow"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerLock is the single row per community that ledger transactions lock
// before reading available funds.
type LedgerLock struct {
	Name      string    `gorm:"primaryKey;size:64"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (LedgerLock) TableName() string { return "ledger_locks" }

type GormUoW struct {
	db        *gorm.DB
	community string
	// mu keeps this process to one ledger tx at a time; the row lock covers
	// other processes.
	mu sync.Mutex
}

func NewGormUoW(db *gorm.DB, community string) *GormUoW {
	return &GormUoW{db: db, community: community}
}

func repos(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Loans:         &LoanRepository{db: tx},
		Payments:      &PaymentRepository{db: tx},
		Decisions:     &DecisionRepository{db: tx},
		Contributions: &ContributionRepository{db: tx},
		Members:       &MemberRepository{db: tx},
	}
}

// Repos returns repositories outside any transaction, for plain reads.
func (u *GormUoW) Repos() uow.Repos { return repos(u.db) }

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repos(tx))
	})
}

func (u *GormUoW) WithinLedgerTx(ctx context.Context, fn func(r uow.Repos) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCommunity(tx, u.community); err != nil {
			return err
		}
		return fn(repos(tx))
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.WithinLedgerTx(ctx, func(r uow.Repos) error {
		// community first, then the loan row; every writer uses this order
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}

func lockCommunity(tx *gorm.DB, name string) error {
	var lk LedgerLock
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("name = ?", name).First(&lk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// first use: create the row, then lock it
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&LedgerLock{Name: name}).Error; err != nil {
			return err
		}
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("name = ?", name).First(&lk).Error
	}
	return err
}
