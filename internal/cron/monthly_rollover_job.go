package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
)

const monthLayout = "2006-01"

type MonthlyRolloverJobParams struct {
	Logger    *logger.Logger
	Referrals monthRoller
}

// NewMonthlyRolloverJob closes last month's referral earnings buckets. Rows already tagged with
// the current month are left alone, so repeated runs inside one month are no-ops.
func NewMonthlyRolloverJob(params MonthlyRolloverJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Referrals == nil {
		return nil, fmt.Errorf("referral repository required")
	}
	return &monthlyRolloverJob{
		logg:      params.Logger,
		referrals: params.Referrals,
		now:       utcNow,
	}, nil
}

type monthlyRolloverJob struct {
	logg      *logger.Logger
	referrals monthRoller
	now       func() time.Time
}

func (j *monthlyRolloverJob) Name() string { return "referral-month-rollover" }

func (j *monthlyRolloverJob) Run(ctx context.Context) error {
	now := j.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	month := first.Format(monthLayout)
	previous := first.AddDate(0, -1, 0).Format(monthLayout)

	rolled, err := j.referrals.RolloverMonth(ctx, month, previous)
	if err != nil {
		return fmt.Errorf("referral month rollover: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"month":       month,
		"rows_rolled": rolled,
	}), "referral month rollover complete")
	return nil
}
