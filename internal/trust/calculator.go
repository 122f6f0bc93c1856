package trust

import (
	"fmt"
	"math"
)

const (
	weightEngagement  = 0.4
	weightConsistency = 0.2
	weightValidation  = 0.2
	weightProfile     = 0.1

	spamPenaltyPerIncident = 5
	spamPenaltyCap         = 30

	maxScore = 100
	maxDecay = 30
)

// Calculation is the result of scoring one user.
type Calculation struct {
	Factors     Factors  `json:"factors"`
	BaseScore   float64  `json:"base_score"`
	DecayAmount float64  `json:"decay_amount"`
	FinalScore  int      `json:"final_score"`
	Changes     []string `json:"changes"`
}

// Calculate turns factors and an inactivity decay into a bounded score. Pure.
func Calculate(factors Factors, decay float64) Calculation {
	var changes []string

	base := factors.EngagementQuality*weightEngagement +
		factors.ActivityConsistency*weightConsistency +
		factors.PeerValidation*weightValidation +
		factors.ProfileCompleteness*weightProfile

	if factors.SpamIncidents > 0 {
		penalty := math.Min(float64(factors.SpamIncidents*spamPenaltyPerIncident), spamPenaltyCap)
		base -= penalty
		changes = append(changes, fmt.Sprintf("Spam penalty: -%s", formatPoints(penalty)))
	}

	if bonus, label := ageBonus(factors.AccountAgeDays); bonus > 0 {
		base += bonus
		changes = append(changes, fmt.Sprintf("%s: +%s", label, formatPoints(bonus)))
	}

	base = clamp(base, 0, maxScore)

	if decay > 0 {
		changes = append(changes, fmt.Sprintf("Inactivity decay: -%s", formatPoints(decay)))
	}

	return Calculation{
		Factors:     factors,
		BaseScore:   base,
		DecayAmount: decay,
		FinalScore:  int(math.Round(clamp(base-decay, 0, maxScore))),
		Changes:     changes,
	}
}

func ageBonus(days int) (float64, string) {
	switch {
	case days < 7:
		return 10, "New account bonus"
	case days <= 30:
		return 5, "Young account bonus"
	case days > 365:
		return 3, "Established account bonus"
	default:
		return 0, ""
	}
}

// Decay returns the inactivity penalty for the days since the user's last activity.
// A nil value means no activity was ever recorded and yields no decay.
func Decay(daysSinceActivity *int) float64 {
	if daysSinceActivity == nil {
		return 0
	}
	d := float64(*daysSinceActivity)
	var decay float64
	switch {
	case d <= 7:
		decay = 0
	case d <= 14:
		decay = d - 7
	case d <= 30:
		decay = 7 + (d-14)*1.5
	default:
		decay = 7 + 16*1.5 + (d-30)*2
	}
	return math.Min(decay, maxDecay)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func formatPoints(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
