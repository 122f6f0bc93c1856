package enums

import "testing"

func TestReferralTierRankAndRates(t *testing.T) {
	tests := []struct {
		tier ReferralTier
		rank int
		rate string
	}{
		{ReferralTierBronze, 0, "0.05"},
		{ReferralTierSilver, 1, "0.075"},
		{ReferralTierGold, 2, "0.1"},
		{ReferralTierPlatinum, 3, "0.15"},
	}
	for _, tt := range tests {
		if got := tt.tier.Rank(); got != tt.rank {
			t.Fatalf("%s rank: expected %d got %d", tt.tier, tt.rank, got)
		}
		if got := tt.tier.CommissionRate().String(); got != tt.rate {
			t.Fatalf("%s rate: expected %s got %s", tt.tier, tt.rate, got)
		}
	}
	if ReferralTier("diamond").IsValid() {
		t.Fatalf("unknown tier should be invalid")
	}
}

func TestReferralTierBelow(t *testing.T) {
	if below := ReferralTierBronze.Below(); len(below) != 0 {
		t.Fatalf("bronze has nothing below, got %v", below)
	}
	below := ReferralTierGold.Below()
	if len(below) != 2 || below[0] != ReferralTierBronze || below[1] != ReferralTierSilver {
		t.Fatalf("unexpected tiers below gold: %v", below)
	}
}

func TestParseReferralStatus(t *testing.T) {
	status, err := ParseReferralStatus("verified")
	if err != nil || status != ReferralStatusVerified {
		t.Fatalf("expected verified, got %q err=%v", status, err)
	}
	if _, err := ParseReferralStatus("deleted"); err == nil {
		t.Fatalf("expected invalid status error")
	}
	if !ReferralStatusInactive.IsExternallyDriven() || ReferralStatusVerified.IsExternallyDriven() {
		t.Fatalf("only active/inactive are externally driven")
	}
}

func TestActivityTypeEarning(t *testing.T) {
	if !ActivityAutoShare.IsEarning() || ActivityLikeReceived.IsEarning() {
		t.Fatalf("unexpected earning classification")
	}
	if _, err := ParseActivityType("like_received"); err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
}
