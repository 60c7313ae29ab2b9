// Package contribution describes the contribution ledger the loan ledger
// reads from. Contributions are owned elsewhere; this side only sums
// approved rows and, at settlement, credits interest shares.
package contribution

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

const SourceInterestDistribution = "interest_distribution"

type Contribution struct {
	ID             uint64          `gorm:"primaryKey;column:id"`
	ContributionID string          `gorm:"size:32;uniqueIndex:ux_contributions_contribution_id"`
	MemberID       string          `gorm:"size:32;index:idx_contributions_member_status"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2)"`
	Status         Status          `gorm:"size:16;index:idx_contributions_member_status"`
	Source         string          `gorm:"size:32"`
	Reference      string          `gorm:"size:128"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (Contribution) TableName() string { return "contributions" }

// Ledger is the read side consumed by eligibility.
type Ledger interface {
	TotalFor(ctx context.Context, memberID string) (decimal.Decimal, error)
	CommunityTotal(ctx context.Context) (decimal.Decimal, error)
}

// Crediter records a contribution-equivalent credit, e.g. an interest share.
type Crediter interface {
	Credit(ctx context.Context, memberID string, amount decimal.Decimal, reference string) error
}

type Store interface {
	Ledger
	Crediter
}
