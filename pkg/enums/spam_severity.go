package enums

// SpamSeverity maps to spam_detection.severity.
type SpamSeverity string

const (
	SpamSeverityLow    SpamSeverity = "low"
	SpamSeverityMedium SpamSeverity = "medium"
	SpamSeverityHigh   SpamSeverity = "high"
)

// IsValid reports whether the value matches a known severity.
func (s SpamSeverity) IsValid() bool {
	switch s {
	case SpamSeverityLow, SpamSeverityMedium, SpamSeverityHigh:
		return true
	}
	return false
}
