package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
)

type LedgerReconcileJobParams struct {
	Logger    *logger.Logger
	Referrals referralPager
	Ledger    ledgerTotals
	Metrics   driftGauge
	BatchSize int
}

// NewLedgerReconcileJob compares each referral's stored earnings_total with the sum of its
// ledger entries. Drift is reported, never repaired.
func NewLedgerReconcileJob(params LedgerReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Referrals == nil {
		return nil, fmt.Errorf("referral repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &ledgerReconcileJob{
		logg:      params.Logger,
		referrals: params.Referrals,
		ledger:    params.Ledger,
		metrics:   params.Metrics,
		batch:     batch,
	}, nil
}

type ledgerReconcileJob struct {
	logg      *logger.Logger
	referrals referralPager
	ledger    ledgerTotals
	metrics   driftGauge
	batch     int
}

func (j *ledgerReconcileJob) Name() string { return "referral-ledger-reconcile" }

func (j *ledgerReconcileJob) Run(ctx context.Context) error {
	var (
		after   uuid.UUID
		checked int
		drifted int
	)
	for {
		records, err := j.referrals.ListAfter(ctx, after, j.batch)
		if err != nil {
			return fmt.Errorf("list referrals: %w", err)
		}
		for _, record := range records {
			total, err := j.ledger.EarningsForReferral(ctx, record.ID)
			if err != nil {
				return fmt.Errorf("ledger total for referral %s: %w", record.ID, err)
			}
			checked++
			if total.Equal(record.EarningsTotal) {
				continue
			}
			drifted++
			j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
				"referral_id":    record.ID.String(),
				"stored_total":   record.EarningsTotal.String(),
				"ledger_total":   total.String(),
				"drift_absolute": record.EarningsTotal.Sub(total).Abs().String(),
			}), "referral earnings drift from ledger")
		}
		if len(records) < j.batch {
			break
		}
		after = records[len(records)-1].ID
	}

	if j.metrics != nil {
		j.metrics.SetLedgerDrift(drifted)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"referrals_checked": checked,
		"referrals_drifted": drifted,
	}), "referral ledger reconcile complete")
	return nil
}
