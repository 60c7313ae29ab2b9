package loan

import (
	"time"

	"community-ledger/internal/domain/loan"
	"community-ledger/internal/domain/payment"
	"community-ledger/internal/usecase/tier"

	"github.com/shopspring/decimal"
)

type RequestLoanInput struct {
	MemberID string          `json:"member_id"`
	Amount   decimal.Decimal `json:"amount"`
	Purpose  string          `json:"purpose"`
}

// Policy is fixed at request time and copied onto each loan.
type Policy struct {
	InterestRatePercent decimal.Decimal
	Term                time.Duration
}

type LoanDTO struct {
	LoanID              string          `json:"loan_id"`
	MemberID            string          `json:"member_id"`
	Purpose             string          `json:"purpose"`
	Principal           decimal.Decimal `json:"principal"`
	InterestRatePercent decimal.Decimal `json:"interest_rate_percent"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	RemainingAmount     decimal.Decimal `json:"remaining_amount"`
	PaidAmount          decimal.Decimal `json:"paid_amount"`
	Status              string          `json:"status"`
	Overdue             bool            `json:"overdue"`
	RequestedAt         time.Time       `json:"requested_at"`
	DueAt               time.Time       `json:"due_at"`
	ApprovedBy          *string         `json:"approved_by,omitempty"`
	ApprovedAt          *time.Time      `json:"approved_at,omitempty"`
	RejectedBy          *string         `json:"rejected_by,omitempty"`
	RejectedAt          *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason     *string         `json:"rejection_reason,omitempty"`
	SettledAt           *time.Time      `json:"settled_at,omitempty"`
}

// ToDTO snapshots l; now decides the derived overdue flag.
func ToDTO(l *loan.Loan, now time.Time) *LoanDTO {
	return &LoanDTO{
		LoanID:              l.LoanID,
		MemberID:            l.MemberID,
		Purpose:             l.Purpose,
		Principal:           l.Principal,
		InterestRatePercent: l.InterestRatePercent,
		TotalAmount:         l.TotalAmount,
		RemainingAmount:     l.RemainingAmount,
		PaidAmount:          l.PaidAmount,
		Status:              string(l.Status),
		Overdue:             loan.IsOverdue(l, now),
		RequestedAt:         l.RequestedAt,
		DueAt:               l.DueAt,
		ApprovedBy:          l.ApprovedBy,
		ApprovedAt:          l.ApprovedAt,
		RejectedBy:          l.RejectedBy,
		RejectedAt:          l.RejectedAt,
		RejectionReason:     l.RejectionReason,
		SettledAt:           l.SettledAt,
	}
}

func ToDTOs(ls []loan.Loan, now time.Time) []LoanDTO {
	out := make([]LoanDTO, 0, len(ls))
	for i := range ls {
		out = append(out, *ToDTO(&ls[i], now))
	}
	return out
}

type PaymentDTO struct {
	PaymentID        string          `json:"payment_id"`
	LoanID           string          `json:"loan_id"`
	MemberID         string          `json:"member_id"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentReference string          `json:"payment_reference"`
	PaymentDate      time.Time       `json:"payment_date"`
	Notes            *string         `json:"notes,omitempty"`
}

func ToPaymentDTO(p *payment.LoanPayment) *PaymentDTO {
	return &PaymentDTO{
		PaymentID:        p.PaymentID,
		LoanID:           p.LoanID,
		MemberID:         p.MemberID,
		Amount:           p.Amount,
		PaymentReference: p.PaymentReference,
		PaymentDate:      p.PaymentDate,
		Notes:            p.Notes,
	}
}

type AccountSummary struct {
	MemberID      string          `json:"member_id"`
	Balance       decimal.Decimal `json:"balance"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	ActiveLoans   int             `json:"active_loans"`
	Tier          tier.Tier       `json:"tier"`
	MaxLoanAmount decimal.Decimal `json:"max_loan_amount"`
}
