package loan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByLoanIDForUpdate locks the row until the surrounding tx ends.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	// GetActiveByMemberID returns the member's pending or approved-with-remaining loan.
	GetActiveByMemberID(ctx context.Context, memberID string) (*Loan, error)
	ListByMemberID(ctx context.Context, memberID string) ([]Loan, error)
	ListByStatus(ctx context.Context, status Status) ([]Loan, error)
	ListOverdue(ctx context.Context, now time.Time) ([]Loan, error)
	ExposureReader
}

// ExposureReader answers the outstanding-balance questions eligibility needs.
type ExposureReader interface {
	// OutstandingTotal sums RemainingAmount of approved loans, skipping excludeLoanID.
	OutstandingTotal(ctx context.Context, excludeLoanID string) (decimal.Decimal, error)
	OutstandingForMember(ctx context.Context, memberID string) (decimal.Decimal, error)
}
