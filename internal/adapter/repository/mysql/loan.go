package mysql

import (
	"context"
	"errors"
	"time"

	loanDomain "community-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	return notFound(&out, res.Error)
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out)
	return notFound(&out, res.Error)
}

func (r *LoanRepository) GetActiveByMemberID(ctx context.Context, memberID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Where("(status = ? OR (status = ? AND remaining_amount > 0))", loanDomain.StatusPending, loanDomain.StatusApproved).
		Order("requested_at DESC, id DESC").
		First(&out)
	return notFound(&out, res.Error)
}

func (r *LoanRepository) ListByMemberID(ctx context.Context, memberID string) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("requested_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) ListByStatus(ctx context.Context, status loanDomain.Status) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("requested_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) ListOverdue(ctx context.Context, now time.Time) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("status = ? AND remaining_amount > 0 AND due_at < ?", loanDomain.StatusApproved, now.UTC()).
		Order("due_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) OutstandingTotal(ctx context.Context, excludeLoanID string) (decimal.Decimal, error) {
	q := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Where("status = ? AND remaining_amount > 0", loanDomain.StatusApproved)
	if excludeLoanID != "" {
		q = q.Where("loan_id <> ?", excludeLoanID)
	}
	return sum(q, "remaining_amount")
}

func (r *LoanRepository) OutstandingForMember(ctx context.Context, memberID string) (decimal.Decimal, error) {
	q := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Where("member_id = ? AND status = ? AND remaining_amount > 0", memberID, loanDomain.StatusApproved)
	return sum(q, "remaining_amount")
}

// sum scans COALESCE(SUM(col), 0) straight into a decimal.
func sum(q *gorm.DB, col string) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := q.Select("COALESCE(SUM(" + col + "), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func notFound(l *loanDomain.Loan, err error) (*loanDomain.Loan, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}
