package mysql

import (
	"community-ledger/internal/domain/contribution"
	"community-ledger/internal/domain/decision"
	"community-ledger/internal/domain/loan"
	"community-ledger/internal/domain/member"
	"community-ledger/internal/domain/payment"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Models lists every table the ledger touches.
func Models() []any {
	return []any{
		&loan.Loan{},
		&payment.LoanPayment{},
		&decision.LoanDecision{},
		&contribution.Contribution{},
		&member.Member{},
		&LedgerLock{},
	}
}

// Migrate creates or updates the schema and seeds the community lock row.
func Migrate(db *gorm.DB, community string) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&LedgerLock{Name: community}).Error
}
