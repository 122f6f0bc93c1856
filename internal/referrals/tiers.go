package referrals

import (
	"github.com/shopspring/decimal"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
)

var (
	silverThreshold   = decimal.NewFromInt(5000)
	goldThreshold     = decimal.NewFromInt(25000)
	platinumThreshold = decimal.NewFromInt(100000)
)

// TierFor maps cumulative earnings to a tier.
func TierFor(total decimal.Decimal) enums.ReferralTier {
	switch {
	case total.LessThan(silverThreshold):
		return enums.ReferralTierBronze
	case total.LessThan(goldThreshold):
		return enums.ReferralTierSilver
	case total.LessThan(platinumThreshold):
		return enums.ReferralTierGold
	default:
		return enums.ReferralTierPlatinum
	}
}
