package decision

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("decision not found")
)

type Kind string

const (
	KindApproved Kind = "approved"
	KindRejected Kind = "rejected"
)

// Table: loan_decisions. At most one row per loan.
type LoanDecision struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Public identifier (32-char lowercase hex)
	DecisionID string    `gorm:"column:decision_id;size:32;not null;uniqueIndex:ux_loan_decisions_decision_id"`
	LoanID     string    `gorm:"column:loan_id;size:32;not null;uniqueIndex:ux_loan_decisions_loan"`
	Decision   Kind      `gorm:"column:decision;size:16;not null"`
	DecidedBy  string    `gorm:"column:decided_by;size:32;not null"`
	Reason     *string   `gorm:"column:reason;type:text"`
	DecidedAt  time.Time `gorm:"column:decided_at;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (LoanDecision) TableName() string { return "loan_decisions" }
