package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPaid     Status = "paid"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool { return s == StatusRejected || s == StatusPaid }

type Loan struct {
	ID                  uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID              string          `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	MemberID            string          `gorm:"size:32;index:idx_loans_member_status" json:"member_id"`
	Purpose             string          `gorm:"type:text" json:"purpose"`
	Principal           decimal.Decimal `gorm:"type:decimal(18,2)" json:"principal"`
	InterestRatePercent decimal.Decimal `gorm:"type:decimal(6,3)" json:"interest_rate_percent"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(18,2)" json:"total_amount"`
	RemainingAmount     decimal.Decimal `gorm:"type:decimal(18,2)" json:"remaining_amount"`
	PaidAmount          decimal.Decimal `gorm:"type:decimal(18,2)" json:"paid_amount"`
	Status              Status          `gorm:"size:16;default:'pending';index:idx_loans_member_status;index:idx_loans_status_due" json:"status"`
	RequestedAt         time.Time       `json:"requested_at"`
	DueAt               time.Time       `gorm:"index:idx_loans_status_due" json:"due_at"`
	ApprovedBy          *string         `gorm:"size:32" json:"approved_by,omitempty"`
	ApprovedAt          *time.Time      `json:"approved_at,omitempty"`
	RejectedBy          *string         `gorm:"size:32" json:"rejected_by,omitempty"`
	RejectedAt          *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason     *string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	SettledAt           *time.Time      `json:"settled_at,omitempty"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

var (
	hundred = decimal.NewFromInt(100)
	cent    = decimal.New(1, -2)
)

// TotalFor is what a loan of principal at ratePercent will owe, in cents.
func TotalFor(principal, ratePercent decimal.Decimal) decimal.Decimal {
	return principal.Add(principal.Mul(ratePercent).Div(hundred)).Round(2)
}

// MaxPrincipalFor is the largest cent amount whose TotalFor fits in budget.
func MaxPrincipalFor(budget, ratePercent decimal.Decimal) decimal.Decimal {
	if !budget.IsPositive() {
		return decimal.Zero
	}
	p := budget.Mul(hundred).Div(hundred.Add(ratePercent)).Truncate(2)
	// TotalFor rounds half up, so the quotient can be a cent off either way.
	for !TotalFor(p.Add(cent), ratePercent).GreaterThan(budget) {
		p = p.Add(cent)
	}
	for p.IsPositive() && TotalFor(p, ratePercent).GreaterThan(budget) {
		p = p.Sub(cent)
	}
	return p
}

// New builds a pending loan. Interest is fixed here and never recomputed.
func New(loanID, memberID, purpose string, principal, ratePercent decimal.Decimal, requestedAt time.Time, term time.Duration) *Loan {
	total := TotalFor(principal, ratePercent)
	return &Loan{
		LoanID:              loanID,
		MemberID:            memberID,
		Purpose:             purpose,
		Principal:           principal,
		InterestRatePercent: ratePercent,
		TotalAmount:         total,
		RemainingAmount:     total,
		PaidAmount:          decimal.Zero,
		Status:              StatusPending,
		RequestedAt:         requestedAt,
		DueAt:               requestedAt.Add(term),
	}
}

// Interest is the settlement-time profit: Principal * Rate / 100.
func (l *Loan) Interest() decimal.Decimal {
	return l.Principal.Mul(l.InterestRatePercent).Div(hundred).Round(2)
}

// Active reports whether the loan blocks its member from requesting another one.
func (l *Loan) Active() bool {
	switch l.Status {
	case StatusPending:
		return true
	case StatusApproved:
		return l.RemainingAmount.IsPositive()
	}
	return false
}

// IsOverdue is derived, never stored: approved, something still owed, and past due.
func IsOverdue(l *Loan, now time.Time) bool {
	return l.Status == StatusApproved && l.RemainingAmount.IsPositive() && now.After(l.DueAt)
}

func (l *Loan) Approve(approverID string, at time.Time) error {
	if l.Status != StatusPending {
		return invalidState(l, "approve")
	}
	l.Status = StatusApproved
	l.ApprovedBy = &approverID
	l.ApprovedAt = &at
	return nil
}

func (l *Loan) Reject(rejectorID, reason string, at time.Time) error {
	if l.Status != StatusPending {
		return invalidState(l, "reject")
	}
	if reason == "" {
		return ErrEmptyReason
	}
	l.Status = StatusRejected
	l.RejectedBy = &rejectorID
	l.RejectedAt = &at
	l.RejectionReason = &reason
	return nil
}

// ApplyPayment moves amount from remaining to paid and settles the loan when
// nothing is left. It reports whether this payment settled the loan.
func (l *Loan) ApplyPayment(payerID string, amount decimal.Decimal, at time.Time) (bool, error) {
	if payerID != l.MemberID {
		return false, ErrNotOwner
	}
	if l.Status != StatusApproved {
		return false, invalidState(l, "pay")
	}
	if !amount.IsPositive() {
		return false, ErrNonPositiveAmount
	}
	if amount.GreaterThan(l.RemainingAmount) {
		return false, ErrAmountExceedsRemaining
	}
	l.PaidAmount = l.PaidAmount.Add(amount)
	l.RemainingAmount = l.RemainingAmount.Sub(amount)
	if !l.RemainingAmount.IsZero() {
		return false, nil
	}
	l.Status = StatusPaid
	l.SettledAt = &at
	return true, nil
}
