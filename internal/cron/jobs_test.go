package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/trust"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db/models"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
)

func testLogger() *logger.Logger { return logger.New(logger.Options{ServiceName: "cron-test"}) }

type fakeRoller struct {
	month, previous string
	err             error
}

func (f *fakeRoller) RolloverMonth(_ context.Context, month, previous string) (int64, error) {
	f.month, f.previous = month, previous
	return 3, f.err
}

func TestMonthlyRolloverJobUsesCalendarMonths(t *testing.T) {
	roller := &fakeRoller{}
	jobIface, err := NewMonthlyRolloverJob(MonthlyRolloverJobParams{Logger: testLogger(), Referrals: roller})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	job := jobIface.(*monthlyRolloverJob)
	job.now = func() time.Time { return time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC) }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if roller.month != "2026-03" || roller.previous != "2026-02" {
		t.Fatalf("unexpected months %s/%s", roller.month, roller.previous)
	}

	job.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	_ = job.Run(context.Background())
	if roller.previous != "2025-12" {
		t.Fatalf("expected year wrap, got %s", roller.previous)
	}

	roller.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

type fakePager struct {
	records []models.ReferralRecord
	calls   int
}

func (f *fakePager) ListAfter(_ context.Context, after uuid.UUID, limit int) ([]models.ReferralRecord, error) {
	f.calls++
	start := 0
	if after != uuid.Nil {
		for i, r := range f.records {
			if r.ID == after {
				start = i + 1
			}
		}
	}
	end := start + limit
	if end > len(f.records) {
		end = len(f.records)
	}
	return f.records[start:end], nil
}

type fakeLedgerTotals map[uuid.UUID]decimal.Decimal

func (f fakeLedgerTotals) EarningsForReferral(_ context.Context, id uuid.UUID) (decimal.Decimal, error) {
	return f[id], nil
}

type gauge struct{ value int }

func (g *gauge) SetLedgerDrift(count int) { g.value = count }

func TestLedgerReconcileJobReportsDrift(t *testing.T) {
	pager := &fakePager{}
	totals := fakeLedgerTotals{}
	for i := 0; i < 5; i++ {
		record := models.ReferralRecord{ID: uuid.New(), EarningsTotal: decimal.NewFromInt(100)}
		pager.records = append(pager.records, record)
		totals[record.ID] = decimal.NewFromInt(100)
	}
	totals[pager.records[1].ID] = decimal.NewFromInt(90)
	totals[pager.records[4].ID] = decimal.NewFromInt(120)

	g := &gauge{}
	job, err := NewLedgerReconcileJob(LedgerReconcileJobParams{
		Logger:    testLogger(),
		Referrals: pager,
		Ledger:    totals,
		Metrics:   g,
		BatchSize: 2,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if g.value != 2 {
		t.Fatalf("expected drift 2, got %d", g.value)
	}
	if pager.calls != 3 {
		t.Fatalf("expected 3 pages, got %d", pager.calls)
	}
}

type fakeSummaryPager struct{ ids []uuid.UUID }

func (f fakeSummaryPager) ListUserIDs(_ context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	start := 0
	for i, id := range f.ids {
		if id == after {
			start = i + 1
		}
	}
	end := start + limit
	if end > len(f.ids) {
		end = len(f.ids)
	}
	return f.ids[start:end], nil
}

type fakeTrust struct {
	failFor map[uuid.UUID]bool
	inputs  []trust.UpdateInput
}

func (f *fakeTrust) UpdateTrustScore(_ context.Context, input trust.UpdateInput) (*int, error) {
	f.inputs = append(f.inputs, input)
	if f.failFor[input.UserID] {
		return nil, errors.New("collect failed")
	}
	score := 50
	return &score, nil
}

func TestTrustRefreshJobContinuesPastFailures(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	updater := &fakeTrust{failFor: map[uuid.UUID]bool{ids[1]: true}}
	job, err := NewTrustRefreshJob(TrustRefreshJobParams{
		Logger:    testLogger(),
		Summaries: fakeSummaryPager{ids: ids},
		Trust:     updater,
		BatchSize: 2,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	err = job.Run(context.Background())
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if len(updater.inputs) != 3 {
		t.Fatalf("expected every user refreshed, got %d", len(updater.inputs))
	}
	for _, input := range updater.inputs {
		if input.Reason != trustRefreshReason {
			t.Fatalf("unexpected reason %q", input.Reason)
		}
	}
}
