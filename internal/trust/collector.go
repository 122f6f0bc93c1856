package trust

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
)

const (
	signalWindow   = 30 * 24 * time.Hour
	streakLookback = 730 * 24 * time.Hour
	day            = 24 * time.Hour
)

// ledgerReader is the slice of the activity ledger the collector reads.
type ledgerReader interface {
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CountByTypesSince(ctx context.Context, userID uuid.UUID, types []enums.ActivityType, since time.Time) (int64, error)
	LastActivityAt(ctx context.Context, userID uuid.UUID) (*time.Time, error)
}

// Signals are the collected factors plus the inactivity gap used for decay.
type Signals struct {
	Factors           Factors
	DaysSinceActivity *int
}

// Collector gathers the raw behavioral signals for one user.
type Collector struct {
	repo   Repository
	ledger ledgerReader
	now    func() time.Time
}

// NewCollector wires a collector over the trust repository and the activity ledger.
func NewCollector(repo Repository, ledger ledgerReader) (*Collector, error) {
	if repo == nil {
		return nil, fmt.Errorf("trust repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger reader required")
	}
	return &Collector{repo: repo, ledger: ledger, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Collect returns nil, nil when the user has no profile. The independent reads run concurrently.
func (c *Collector) Collect(ctx context.Context, userID uuid.UUID) (*Signals, error) {
	profile, err := c.repo.FindProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, nil
	}

	now := c.now()
	windowStart := now.Add(-signalWindow)

	var (
		engagement   int64
		activeDays   []time.Time
		verified     int64
		spam         int64
		transactions int64
		lastActivity *time.Time
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		engagement, err = c.ledger.CountByTypesSince(gctx, userID, enums.EngagementActivityTypes(), windowStart)
		return wrapSignal("engagement", err)
	})
	g.Go(func() error {
		var err error
		activeDays, err = c.repo.ActiveDaysSince(gctx, userID, now.Add(-streakLookback))
		return wrapSignal("daily activity", err)
	})
	g.Go(func() error {
		var err error
		verified, err = c.repo.CountVerifiedReferrals(gctx, userID)
		return wrapSignal("verified referrals", err)
	})
	g.Go(func() error {
		var err error
		spam, err = c.repo.CountOpenSpamSince(gctx, userID, enums.SpamSeverityHigh, windowStart)
		return wrapSignal("spam reports", err)
	})
	g.Go(func() error {
		var err error
		transactions, err = c.ledger.CountByUser(gctx, userID)
		return wrapSignal("ledger entries", err)
	})
	g.Go(func() error {
		var err error
		lastActivity, err = c.ledger.LastActivityAt(gctx, userID)
		return wrapSignal("last activity", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	signals := &Signals{
		Factors: Factors{
			EngagementQuality:    engagementQuality(int(engagement)),
			ActivityConsistency:  activityConsistency(currentStreak(activeDays, now)),
			PeerValidation:       peerValidation(int(verified)),
			SpamIncidents:        int(spam),
			ProfileCompleteness:  profileCompleteness(*profile),
			AccountAgeDays:       wholeDays(now.Sub(profile.CreatedAt)),
			VerifiedTransactions: int(transactions),
		},
	}
	if lastActivity != nil {
		days := wholeDays(now.Sub(*lastActivity))
		signals.DaysSinceActivity = &days
	}
	return signals, nil
}

func wrapSignal(name string, err error) error {
	if err != nil {
		return fmt.Errorf("collect %s: %w", name, err)
	}
	return nil
}

// currentStreak counts consecutive active calendar days ending today (UTC).
func currentStreak(activeDays []time.Time, now time.Time) int {
	seen := make(map[string]struct{}, len(activeDays))
	for _, d := range activeDays {
		seen[d.UTC().Format(time.DateOnly)] = struct{}{}
	}
	streak := 0
	for cursor := now.UTC(); ; cursor = cursor.Add(-day) {
		if _, ok := seen[cursor.Format(time.DateOnly)]; !ok {
			return streak
		}
		streak++
	}
}

func wholeDays(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / day)
}
