package enums

// TrustFactorType tags the factor that triggered a trust score update.
type TrustFactorType string

const (
	TrustFactorEngagement  TrustFactorType = "engagement"
	TrustFactorConsistency TrustFactorType = "consistency"
	TrustFactorValidation  TrustFactorType = "validation"
	TrustFactorSpam        TrustFactorType = "spam"
	TrustFactorProfile     TrustFactorType = "profile"
	TrustFactorDecay       TrustFactorType = "decay"
	TrustFactorRecalc      TrustFactorType = "recalculation"
)

var validTrustFactorTypes = []TrustFactorType{
	TrustFactorEngagement,
	TrustFactorConsistency,
	TrustFactorValidation,
	TrustFactorSpam,
	TrustFactorProfile,
	TrustFactorDecay,
	TrustFactorRecalc,
}

// IsValid reports whether the value matches a known factor type.
func (f TrustFactorType) IsValid() bool {
	for _, candidate := range validTrustFactorTypes {
		if candidate == f {
			return true
		}
	}
	return false
}
