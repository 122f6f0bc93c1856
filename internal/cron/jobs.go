package cron

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/trust"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db/models"
)

const defaultBatchSize = 200

type monthRoller interface {
	RolloverMonth(ctx context.Context, month, previousMonth string) (int64, error)
}

type referralPager interface {
	ListAfter(ctx context.Context, after uuid.UUID, limit int) ([]models.ReferralRecord, error)
}

type ledgerTotals interface {
	EarningsForReferral(ctx context.Context, referralID uuid.UUID) (decimal.Decimal, error)
}

type driftGauge interface {
	SetLedgerDrift(count int)
}

type summaryPager interface {
	ListUserIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type trustUpdater interface {
	UpdateTrustScore(ctx context.Context, input trust.UpdateInput) (*int, error)
}

func utcNow() time.Time { return time.Now().UTC() }
