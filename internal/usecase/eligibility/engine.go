// Package eligibility computes how much a member may borrow right now.
//
// Nothing is cached: every call re-reads contribution totals and the
// outstanding exposure, because funds move between calls. The result is the
// minimum of three independent ceilings and the community's available funds.
package eligibility

import (
	"context"
	"fmt"

	"community-ledger/internal/domain/contribution"
	"community-ledger/internal/domain/loan"
	"community-ledger/internal/usecase/tier"

	"github.com/shopspring/decimal"
)

type Ceiling string

const (
	CeilingTierMultiplier     Ceiling = "tier_multiplier"
	CeilingTierPercentage     Ceiling = "tier_percentage"
	CeilingRegularContributor Ceiling = "regular_contributor"
	CeilingAvailableFunds     Ceiling = "available_funds"
)

var (
	hundred            = decimal.NewFromInt(100)
	regularMultiplier  = decimal.NewFromInt(1)
	regularCommunityPc = decimal.NewFromInt(10)
)

// Assessment is the full breakdown behind MaxBorrowable, kept for display.
type Assessment struct {
	MemberID                  string          `json:"member_id"`
	MemberContributions       decimal.Decimal `json:"member_contributions"`
	CommunityTotal            decimal.Decimal `json:"community_total"`
	Tier                      tier.Assessment `json:"tier"`
	TierMultiplierCeiling     decimal.Decimal `json:"tier_multiplier_ceiling"`
	TierPercentageCeiling     decimal.Decimal `json:"tier_percentage_ceiling"`
	RegularContributorCeiling decimal.Decimal `json:"regular_contributor_ceiling"`
	Outstanding               decimal.Decimal `json:"outstanding"`
	AvailableFunds            decimal.Decimal `json:"available_funds"`
	AvailableFundsCeiling     decimal.Decimal `json:"available_funds_ceiling"` // largest principal whose total fits AvailableFunds
	InterestRatePercent       decimal.Decimal `json:"interest_rate_percent"`
	MaxBorrowable             decimal.Decimal `json:"max_borrowable"`
	Binding                   Ceiling         `json:"binding"`
}

// Sources groups the reads one assessment needs. Inside a ledger transaction
// both are bound to that transaction.
type Sources struct {
	Contributions contribution.Ledger
	Loans         loan.ExposureReader
}

// Engine assesses loans at one interest rate, the rate new loans are written at.
type Engine struct {
	ratePercent decimal.Decimal
}

func NewEngine(ratePercent decimal.Decimal) *Engine { return &Engine{ratePercent: ratePercent} }

// Assess computes eligibility. excludeLoanID is left out of the outstanding
// sum (used when re-checking a loan that is itself being approved).
func (e *Engine) Assess(ctx context.Context, src Sources, memberID, excludeLoanID string) (Assessment, error) {
	memberContrib, err := src.Contributions.TotalFor(ctx, memberID)
	if err != nil {
		return Assessment{}, fmt.Errorf("member contributions: %w", err)
	}
	communityTotal, err := src.Contributions.CommunityTotal(ctx)
	if err != nil {
		return Assessment{}, fmt.Errorf("community total: %w", err)
	}
	outstanding, err := src.Loans.OutstandingTotal(ctx, excludeLoanID)
	if err != nil {
		return Assessment{}, fmt.Errorf("outstanding total: %w", err)
	}
	return Compute(memberID, memberContrib, communityTotal, outstanding, e.ratePercent), nil
}

// AvailableFunds is the community total minus approved outstanding
// balances, leaving excludeLoanID out. It may be negative.
func (e *Engine) AvailableFunds(ctx context.Context, src Sources, excludeLoanID string) (decimal.Decimal, error) {
	communityTotal, err := src.Contributions.CommunityTotal(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("community total: %w", err)
	}
	outstanding, err := src.Loans.OutstandingTotal(ctx, excludeLoanID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("outstanding total: %w", err)
	}
	return communityTotal.Sub(outstanding), nil
}

// Compute is the pure part of Assess. The available-funds candidate is a
// principal: approval checks principal plus interest against the funds.
func Compute(memberID string, memberContrib, communityTotal, outstanding, ratePercent decimal.Decimal) Assessment {
	t := tier.Classify(memberContrib)
	a := Assessment{
		MemberID:              memberID,
		MemberContributions:   memberContrib,
		CommunityTotal:        communityTotal,
		Tier:                  t,
		TierMultiplierCeiling: memberContrib.Mul(t.LoanMultiplier).Round(2),
		TierPercentageCeiling: communityTotal.Mul(t.MaxBalancePercent).Div(hundred).Round(2),
		RegularContributorCeiling: decimal.Min(
			memberContrib.Mul(regularMultiplier),
			communityTotal.Mul(regularCommunityPc).Div(hundred),
		).Round(2),
		Outstanding:         outstanding,
		AvailableFunds:      communityTotal.Sub(outstanding),
		InterestRatePercent: ratePercent,
	}
	a.AvailableFundsCeiling = loan.MaxPrincipalFor(a.AvailableFunds, ratePercent)

	// Ties resolve to the earlier candidate.
	candidates := []struct {
		c Ceiling
		v decimal.Decimal
	}{
		{CeilingTierMultiplier, a.TierMultiplierCeiling},
		{CeilingTierPercentage, a.TierPercentageCeiling},
		{CeilingRegularContributor, a.RegularContributorCeiling},
		{CeilingAvailableFunds, a.AvailableFundsCeiling},
	}
	a.Binding, a.MaxBorrowable = candidates[0].c, candidates[0].v
	for _, cand := range candidates[1:] {
		if cand.v.LessThan(a.MaxBorrowable) {
			a.Binding, a.MaxBorrowable = cand.c, cand.v
		}
	}
	if a.MaxBorrowable.IsNegative() {
		a.MaxBorrowable = decimal.Zero
	}
	return a
}

// ExceededError is returned when a request is above MaxBorrowable. It
// carries the assessment so callers can show which ceiling was binding.
type ExceededError struct {
	Requested  decimal.Decimal
	Assessment Assessment
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("%s: requested %s, max borrowable %s (binding %s)",
		loan.ErrEligibilityExceeded, e.Requested.StringFixed(2), e.Assessment.MaxBorrowable.StringFixed(2), e.Assessment.Binding)
}

func (e *ExceededError) Unwrap() error { return loan.ErrEligibilityExceeded }
