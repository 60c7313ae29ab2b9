package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LoanPayment is append-only: created by repayment, never updated or deleted.
type LoanPayment struct {
	ID               uint64          `gorm:"primaryKey;column:id" json:"-"`
	PaymentID        string          `gorm:"size:32;uniqueIndex:ux_loan_payments_payment_id" json:"payment_id"`
	LoanID           string          `gorm:"size:32;index:idx_loan_payments_loan" json:"loan_id"`
	MemberID         string          `gorm:"size:32" json:"member_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	PaymentReference string          `gorm:"size:128" json:"payment_reference"`
	PaymentDate      time.Time       `json:"payment_date"`
	Notes            *string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (LoanPayment) TableName() string { return "loan_payments" }

type Repository interface {
	Create(ctx context.Context, p *LoanPayment) error
	ListByLoanID(ctx context.Context, loanID string) ([]LoanPayment, error)
	SumByLoanID(ctx context.Context, loanID string) (decimal.Decimal, error)
}
