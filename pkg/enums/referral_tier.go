package enums

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ReferralTier maps to referral_tracking.tier. Tiers only ever move upwards.
type ReferralTier string

const (
	ReferralTierBronze   ReferralTier = "bronze"
	ReferralTierSilver   ReferralTier = "silver"
	ReferralTierGold     ReferralTier = "gold"
	ReferralTierPlatinum ReferralTier = "platinum"
)

// ordered lowest to highest; Rank relies on the order.
var validReferralTiers = []ReferralTier{
	ReferralTierBronze,
	ReferralTierSilver,
	ReferralTierGold,
	ReferralTierPlatinum,
}

var tierCommissionRates = map[ReferralTier]decimal.Decimal{
	ReferralTierBronze:   decimal.RequireFromString("0.05"),
	ReferralTierSilver:   decimal.RequireFromString("0.075"),
	ReferralTierGold:     decimal.RequireFromString("0.10"),
	ReferralTierPlatinum: decimal.RequireFromString("0.15"),
}

// IsValid reports whether the value matches a known tier.
func (t ReferralTier) IsValid() bool {
	return t.Rank() >= 0
}

// Rank returns the tier's position (bronze=0) or -1 when unknown.
func (t ReferralTier) Rank() int {
	for i, candidate := range validReferralTiers {
		if candidate == t {
			return i
		}
	}
	return -1
}

// CommissionRate returns the fixed commission fraction for the tier.
func (t ReferralTier) CommissionRate() decimal.Decimal {
	if rate, ok := tierCommissionRates[t]; ok {
		return rate
	}
	return tierCommissionRates[ReferralTierBronze]
}

// Below returns the tiers ranked strictly lower than t.
func (t ReferralTier) Below() []ReferralTier {
	rank := t.Rank()
	if rank <= 0 {
		return nil
	}
	out := make([]ReferralTier, rank)
	copy(out, validReferralTiers[:rank])
	return out
}

// ParseReferralTier converts raw input into ReferralTier.
func ParseReferralTier(value string) (ReferralTier, error) {
	for _, candidate := range validReferralTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid referral tier %q", value)
}
