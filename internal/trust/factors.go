package trust

import (
	"math"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db/models"
)

// Factors are the behavioral inputs to a trust score. Derived on demand, never stored.
type Factors struct {
	EngagementQuality    float64 `json:"engagement_quality"`
	ActivityConsistency  float64 `json:"activity_consistency"`
	PeerValidation       float64 `json:"peer_validation"`
	SpamIncidents        int     `json:"spam_incidents"`
	ProfileCompleteness  float64 `json:"profile_completeness"`
	AccountAgeDays       int     `json:"account_age_days"`
	VerifiedTransactions int     `json:"verified_transactions"`
}

// engagementQuality scales engagement events received in the trailing window.
func engagementQuality(count int) float64 {
	c := float64(count)
	switch {
	case count < 10:
		return 10 + c*3
	case count < 50:
		return 40 + ((c-10)/40)*30
	default:
		return 70 + math.Min((c-50)/100, 1)*30
	}
}

// activityConsistency scales the current daily streak.
func activityConsistency(streak int) float64 {
	s := float64(streak)
	switch {
	case streak <= 0:
		return 0
	case streak <= 3:
		return 10 + (s/3)*20
	case streak <= 7:
		return 30 + ((s-3)/4)*20
	case streak <= 30:
		return 50 + ((s-7)/23)*30
	default:
		return math.Min(80+(s-30)/100, 100)
	}
}

// peerValidation scales the number of the user's verified referrals.
func peerValidation(verified int) float64 {
	n := float64(verified)
	switch {
	case verified <= 0:
		return 30
	case verified <= 3:
		return 30 + (n/3)*20
	case verified <= 10:
		return 50 + ((n-3)/7)*30
	default:
		return math.Min(80+(n-10)/50, 100)
	}
}

const (
	profileFieldCount    = 6
	verifiedProfileBonus = 10
)

func profileCompleteness(profile models.Profile) float64 {
	score := float64(profile.PopulatedFields()) * (100.0 / profileFieldCount)
	if profile.IsVerified {
		score += verifiedProfileBonus
	}
	return math.Min(score, 100)
}
