// Package tier maps a member's lifetime approved contributions to a loan tier.
package tier

import "github.com/shopspring/decimal"

type Tier string

const (
	Bronze   Tier = "bronze"
	Silver   Tier = "silver"
	Gold     Tier = "gold"
	Platinum Tier = "platinum"
)

// Assessment is derived on every call and never stored.
type Assessment struct {
	Tier              Tier            `json:"tier"`
	LoanMultiplier    decimal.Decimal `json:"loan_multiplier"`
	MaxBalancePercent decimal.Decimal `json:"max_balance_percent"`
}

type band struct {
	min        decimal.Decimal
	assessment Assessment
}

// Highest threshold first; lower bounds are inclusive.
var bands = []band{
	{decimal.NewFromInt(5000), Assessment{Platinum, decimal.NewFromInt(3), decimal.NewFromInt(25)}},
	{decimal.NewFromInt(2000), Assessment{Gold, decimal.NewFromInt(2), decimal.NewFromInt(20)}},
	{decimal.NewFromInt(500), Assessment{Silver, decimal.RequireFromString("1.5"), decimal.NewFromInt(15)}},
}

var bronze = Assessment{Bronze, decimal.NewFromInt(1), decimal.NewFromInt(10)}

func Classify(totalContributions decimal.Decimal) Assessment {
	for _, b := range bands {
		if totalContributions.GreaterThanOrEqual(b.min) {
			return b.assessment
		}
	}
	return bronze
}
