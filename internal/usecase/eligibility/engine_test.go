package eligibility

import (
	"context"
	"errors"
	"testing"

	"community-ledger/internal/domain/loan"
	"community-ledger/internal/usecase/tier"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var rate = d("5")

type fakeLedger struct {
	member, community decimal.Decimal
	err               error
}

func (f fakeLedger) TotalFor(context.Context, string) (decimal.Decimal, error) {
	return f.member, f.err
}
func (f fakeLedger) CommunityTotal(context.Context) (decimal.Decimal, error) {
	return f.community, nil
}

type fakeExposure struct {
	total    decimal.Decimal
	excluded string
}

func (f *fakeExposure) OutstandingTotal(_ context.Context, exclude string) (decimal.Decimal, error) {
	f.excluded = exclude
	return f.total, nil
}
func (f *fakeExposure) OutstandingForMember(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func TestCompute_SilverMemberRegularCeilingBinds(t *testing.T) {
	a := Compute("m", d("1000"), d("10000"), decimal.Zero, rate)

	assert.Equal(t, tier.Silver, a.Tier.Tier)
	assert.True(t, a.TierMultiplierCeiling.Equal(d("1500")), a.TierMultiplierCeiling.String())
	assert.True(t, a.TierPercentageCeiling.Equal(d("1500")), a.TierPercentageCeiling.String())
	assert.True(t, a.RegularContributorCeiling.Equal(d("1000")), a.RegularContributorCeiling.String())
	assert.True(t, a.AvailableFunds.Equal(d("10000")))
	assert.True(t, a.MaxBorrowable.Equal(d("1000")), a.MaxBorrowable.String())
	assert.Equal(t, CeilingRegularContributor, a.Binding)
}

func TestCompute_AvailableFundsBinds(t *testing.T) {
	a := Compute("m", d("6000"), d("20000"), d("19500"), rate)

	assert.Equal(t, tier.Platinum, a.Tier.Tier)
	assert.True(t, a.AvailableFunds.Equal(d("500")))
	// 476.19 owes 500.00 with interest, 476.20 would owe 500.01
	assert.True(t, a.AvailableFundsCeiling.Equal(d("476.19")), a.AvailableFundsCeiling.String())
	assert.True(t, a.MaxBorrowable.Equal(d("476.19")), a.MaxBorrowable.String())
	assert.Equal(t, CeilingAvailableFunds, a.Binding)
}

func TestCompute_ZeroRateCeilingIsAvailableFunds(t *testing.T) {
	a := Compute("m", d("6000"), d("20000"), d("19500"), decimal.Zero)

	assert.True(t, a.MaxBorrowable.Equal(d("500")))
	assert.Equal(t, CeilingAvailableFunds, a.Binding)
}

func TestCompute_QuotedMaximumAlwaysFitsWithInterest(t *testing.T) {
	for _, outstanding := range []string{"9900.01", "9950", "9999.99", "9523.81", "0"} {
		a := Compute("m", d("5000"), d("10000"), d(outstanding), rate)
		total := loan.TotalFor(a.MaxBorrowable, rate)
		assert.False(t, total.GreaterThan(a.AvailableFunds),
			"outstanding %s: max %s owes %s, available %s", outstanding, a.MaxBorrowable, total, a.AvailableFunds)
	}
}

func TestCompute_FloorsAtZero(t *testing.T) {
	a := Compute("m", d("800"), d("10000"), d("10500"), rate)

	assert.True(t, a.AvailableFunds.Equal(d("-500")))
	assert.True(t, a.MaxBorrowable.IsZero())
	assert.Equal(t, CeilingAvailableFunds, a.Binding)
}

func TestCompute_BronzeMember(t *testing.T) {
	a := Compute("m", d("300"), d("50000"), decimal.Zero, rate)

	assert.Equal(t, tier.Bronze, a.Tier.Tier)
	assert.True(t, a.TierMultiplierCeiling.Equal(d("300")))
	assert.True(t, a.TierPercentageCeiling.Equal(d("5000")))
	assert.True(t, a.MaxBorrowable.Equal(d("300")))
	assert.Equal(t, CeilingTierMultiplier, a.Binding)
}

func TestCompute_LowBalanceCommunityCapsPlatinum(t *testing.T) {
	// A platinum member in a small community: the percentage ceiling wins over the multiplier.
	a := Compute("m", d("5000"), d("6000"), decimal.Zero, rate)

	assert.True(t, a.TierMultiplierCeiling.Equal(d("15000")))
	assert.True(t, a.TierPercentageCeiling.Equal(d("1500")))
	assert.True(t, a.RegularContributorCeiling.Equal(d("600")))
	assert.True(t, a.MaxBorrowable.Equal(d("600")))
}

func TestCompute_NoContributions(t *testing.T) {
	a := Compute("m", decimal.Zero, d("10000"), decimal.Zero, rate)
	assert.True(t, a.MaxBorrowable.IsZero())
}

func TestEngine_Assess(t *testing.T) {
	exp := &fakeExposure{total: d("2000")}
	a, err := NewEngine(rate).Assess(context.Background(), Sources{
		Contributions: fakeLedger{member: d("1000"), community: d("10000")},
		Loans:         exp,
	}, "m", "skip-me")
	require.NoError(t, err)

	assert.Equal(t, "skip-me", exp.excluded)
	assert.True(t, a.Outstanding.Equal(d("2000")))
	assert.True(t, a.AvailableFunds.Equal(d("8000")))
	assert.True(t, a.MaxBorrowable.Equal(d("1000")))
}

func TestEngine_AvailableFunds(t *testing.T) {
	exp := &fakeExposure{total: d("10500")}
	got, err := NewEngine(rate).AvailableFunds(context.Background(), Sources{
		Contributions: fakeLedger{community: d("10000")},
		Loans:         exp,
	}, "loan-1")
	require.NoError(t, err)

	assert.Equal(t, "loan-1", exp.excluded)
	assert.True(t, got.Equal(d("-500")), got.String())
}

func TestEngine_Assess_PropagatesLedgerError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewEngine(rate).Assess(context.Background(), Sources{
		Contributions: fakeLedger{err: boom},
		Loans:         &fakeExposure{},
	}, "m", "")
	require.ErrorIs(t, err, boom)
}

func TestExceededError(t *testing.T) {
	err := error(&ExceededError{Requested: d("1200"), Assessment: Compute("m", d("1000"), d("10000"), decimal.Zero, rate)})

	assert.ErrorIs(t, err, loan.ErrEligibilityExceeded)
	assert.Contains(t, err.Error(), "max borrowable 1000.00")
	assert.Contains(t, err.Error(), string(CeilingRegularContributor))

	var ee *ExceededError
	require.True(t, errors.As(err, &ee))
	assert.True(t, ee.Requested.Equal(d("1200")))
}
