package mysql

import (
	"context"

	paymentDomain "community-ledger/internal/domain/payment"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) *PaymentRepository { return &PaymentRepository{db: db} }

func (r *PaymentRepository) Create(ctx context.Context, p *paymentDomain.LoanPayment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) ListByLoanID(ctx context.Context, loanID string) ([]paymentDomain.LoanPayment, error) {
	var out []paymentDomain.LoanPayment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("payment_date ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *PaymentRepository) SumByLoanID(ctx context.Context, loanID string) (decimal.Decimal, error) {
	return sum(r.db.WithContext(ctx).Model(&paymentDomain.LoanPayment{}).Where("loan_id = ?", loanID), "amount")
}
