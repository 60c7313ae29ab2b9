package mysql

import (
	"testing"
	"time"

	"community-ledger/internal/domain/contribution"
	"community-ledger/internal/domain/loan"
	"community-ledger/internal/domain/member"
	"community-ledger/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB creates an in-memory sqlite DB with the full ledger schema.
// One connection only: every new :memory: connection is a fresh database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := Migrate(db, "default"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func makeLoan(memberID, principal string, status loan.Status) *loan.Loan {
	l := loan.New(id.NewID32(), memberID, "seed", dec(principal), dec("5"), time.Now().UTC(), 30*24*time.Hour)
	l.Status = status
	return l
}

func seedContribution(t *testing.T, db *gorm.DB, memberID, amount string, status contribution.Status) {
	t.Helper()
	if err := db.Create(&contribution.Contribution{
		ContributionID: id.NewID32(),
		MemberID:       memberID,
		Amount:         dec(amount),
		Status:         status,
		Source:         "deposit",
	}).Error; err != nil {
		t.Fatalf("seed contribution: %v", err)
	}
}

func seedMember(t *testing.T, db *gorm.DB, memberID string, active bool) {
	t.Helper()
	m := &member.Member{MemberID: memberID, FullName: "M " + memberID[:4], Role: member.RoleMember, Active: active}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed member: %v", err)
	}
}
