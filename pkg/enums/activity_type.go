package enums

import "fmt"

// ActivityType maps to activity_transactions.activity_type.
type ActivityType string

const (
	ActivityReferralCommission  ActivityType = "referral_commission"
	ActivityReferralSignupBonus ActivityType = "referral_signup_bonus"
	ActivityAutoShare           ActivityType = "auto_share"
	ActivityLikeReceived        ActivityType = "like_received"
	ActivityCommentReceived     ActivityType = "comment_received"
	ActivityShareReceived       ActivityType = "share_received"
	ActivityPostCreated         ActivityType = "post_created"
)

var validActivityTypes = []ActivityType{
	ActivityReferralCommission,
	ActivityReferralSignupBonus,
	ActivityAutoShare,
	ActivityLikeReceived,
	ActivityCommentReceived,
	ActivityShareReceived,
	ActivityPostCreated,
}

// EngagementActivityTypes are the events counted as engagement received.
func EngagementActivityTypes() []ActivityType {
	return []ActivityType{ActivityLikeReceived, ActivityCommentReceived, ActivityShareReceived}
}

// IsValid reports whether the value matches a known activity type.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsEarning reports whether the activity moves value to the user.
func (a ActivityType) IsEarning() bool {
	switch a {
	case ActivityReferralCommission, ActivityReferralSignupBonus, ActivityAutoShare:
		return true
	}
	return false
}

// ParseActivityType converts raw input into ActivityType.
func ParseActivityType(value string) (ActivityType, error) {
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}
