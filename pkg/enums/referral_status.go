package enums

import "fmt"

// ReferralStatus maps to referral_tracking.status.
type ReferralStatus string

const (
	ReferralStatusPending  ReferralStatus = "pending"
	ReferralStatusVerified ReferralStatus = "verified"
	ReferralStatusActive   ReferralStatus = "active"
	ReferralStatusInactive ReferralStatus = "inactive"
)

var validReferralStatuses = []ReferralStatus{
	ReferralStatusPending,
	ReferralStatusVerified,
	ReferralStatusActive,
	ReferralStatusInactive,
}

// ReferralStatuses returns every status in lifecycle order.
func ReferralStatuses() []ReferralStatus {
	out := make([]ReferralStatus, len(validReferralStatuses))
	copy(out, validReferralStatuses)
	return out
}

// IsValid reports whether the value matches a known referral status.
func (s ReferralStatus) IsValid() bool {
	for _, candidate := range validReferralStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsExternallyDriven reports whether the status is set by outside policy (active/inactive).
func (s ReferralStatus) IsExternallyDriven() bool {
	return s == ReferralStatusActive || s == ReferralStatusInactive
}

// ParseReferralStatus converts raw input into ReferralStatus.
func ParseReferralStatus(value string) (ReferralStatus, error) {
	for _, candidate := range validReferralStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid referral status %q", value)
}
