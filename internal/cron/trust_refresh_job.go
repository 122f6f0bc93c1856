package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/trust"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
)

const trustRefreshReason = "scheduled_refresh"

type TrustRefreshJobParams struct {
	Logger    *logger.Logger
	Summaries summaryPager
	Trust     trustUpdater
	BatchSize int
}

// NewTrustRefreshJob re-scores every user holding a rewards summary so inactivity decay shows
// up without the user acting. One user's failure does not stop the sweep.
func NewTrustRefreshJob(params TrustRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Summaries == nil {
		return nil, fmt.Errorf("rewards summary repository required")
	}
	if params.Trust == nil {
		return nil, fmt.Errorf("trust service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &trustRefreshJob{
		logg:      params.Logger,
		summaries: params.Summaries,
		trust:     params.Trust,
		batch:     batch,
	}, nil
}

type trustRefreshJob struct {
	logg      *logger.Logger
	summaries summaryPager
	trust     trustUpdater
	batch     int
}

func (j *trustRefreshJob) Name() string { return "trust-refresh" }

func (j *trustRefreshJob) Run(ctx context.Context) error {
	var (
		after     uuid.UUID
		refreshed int
		errs      error
	)
	for {
		ids, err := j.summaries.ListUserIDs(ctx, after, j.batch)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("list summary users: %w", err))
		}
		for _, id := range ids {
			_, err := j.trust.UpdateTrustScore(ctx, trust.UpdateInput{
				UserID:     id,
				Reason:     trustRefreshReason,
				FactorType: enums.TrustFactorDecay,
			})
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("refresh user %s: %w", id, err))
				continue
			}
			refreshed++
		}
		if len(ids) < j.batch {
			break
		}
		after = ids[len(ids)-1]
	}

	failed := len(multierr.Errors(errs))
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"users_refreshed": refreshed,
		"users_failed":    failed,
	}), "trust refresh complete")
	if errs != nil {
		return fmt.Errorf("trust refresh: %d users failed: %w", failed, errs)
	}
	return nil
}
