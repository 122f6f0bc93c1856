package referrals

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
	pkgerrors "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/errors"
)

// ReferralStats aggregates every referral a user has made.
type ReferralStats struct {
	TotalReferrals        int                          `json:"total_referrals"`
	ByStatus              map[enums.ReferralStatus]int `json:"by_status"`
	TotalEarnings         decimal.Decimal              `json:"total_earnings"`
	EarningsThisMonth     decimal.Decimal              `json:"earnings_this_month"`
	EarningsLastMonth     decimal.Decimal              `json:"earnings_last_month"`
	AutoShareTotal        decimal.Decimal              `json:"auto_share_total"`
	AverageCommissionRate decimal.Decimal              `json:"average_commission_rate"`
	Tier                  enums.ReferralTier           `json:"tier"`
	CommissionRate        decimal.Decimal              `json:"commission_rate"`
}

// GetReferralStats is read-only. A user with no referrals gets bronze at the bronze rate.
func (s *service) GetReferralStats(ctx context.Context, userID uuid.UUID) (*ReferralStats, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	records, err := s.repo.ListByReferrer(ctx, userID)
	if err != nil {
		return nil, s.fail(s.logg.WithUserID(ctx, userID.String()), err, "load referral stats")
	}

	stats := &ReferralStats{
		TotalReferrals: len(records),
		ByStatus:       make(map[enums.ReferralStatus]int, len(enums.ReferralStatuses())),
	}
	for _, status := range enums.ReferralStatuses() {
		stats.ByStatus[status] = 0
	}

	weighted := decimal.Zero
	rateSum := decimal.Zero
	for _, record := range records {
		stats.ByStatus[record.Status]++
		stats.TotalEarnings = stats.TotalEarnings.Add(record.EarningsTotal)
		stats.EarningsThisMonth = stats.EarningsThisMonth.Add(record.EarningsThisMonth)
		stats.EarningsLastMonth = stats.EarningsLastMonth.Add(record.EarningsLastMonth)
		stats.AutoShareTotal = stats.AutoShareTotal.Add(record.AutoShareTotal)
		weighted = weighted.Add(record.EarningsTotal.Mul(record.CommissionPercentage))
		rateSum = rateSum.Add(record.CommissionPercentage)
	}

	stats.Tier = TierFor(stats.TotalEarnings)
	stats.CommissionRate = stats.Tier.CommissionRate()
	switch {
	case stats.TotalEarnings.IsPositive():
		stats.AverageCommissionRate = weighted.Div(stats.TotalEarnings).Round(commissionScale)
	case len(records) > 0:
		stats.AverageCommissionRate = rateSum.Div(decimal.NewFromInt(int64(len(records)))).Round(commissionScale)
	default:
		stats.AverageCommissionRate = stats.CommissionRate
	}
	return stats, nil
}
