package trust

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/notify"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/rewards"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db/models"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
	pkgerrors "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/errors"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/pagination"
)

const (
	idempotencyConstraint    = "idempotency_key"
	defaultIdempotencyWindow = time.Minute

	outcomeUpdated  = "updated"
	outcomeReplayed = "replayed"
	outcomeFailed   = "failed"
)

var errReplayedUpdate = errors.New("trust update already recorded")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type signalCollector interface {
	Collect(ctx context.Context, userID uuid.UUID) (*Signals, error)
}

type updateMetrics interface {
	IncTrustUpdate(outcome string)
}

type noopMetrics struct{}

func (noopMetrics) IncTrustUpdate(string) {}

// Service scores users and records score transitions.
type Service interface {
	CalculateTrustScore(ctx context.Context, userID uuid.UUID) (*Calculation, error)
	UpdateTrustScore(ctx context.Context, input UpdateInput) (*int, error)
	ListHistory(ctx context.Context, userID uuid.UUID, params pagination.Params) (*HistoryPage, error)
}

// UpdateInput names the user and why their score is being recomputed.
type UpdateInput struct {
	UserID     uuid.UUID
	Reason     string
	FactorType enums.TrustFactorType
	Metadata   map[string]any
}

// HistoryPage is one page of score transitions, newest first.
type HistoryPage struct {
	Entries    []models.TrustHistoryEntry `json:"entries"`
	NextCursor string                     `json:"next_cursor,omitempty"`
}

// ServiceParams groups the collaborators of the trust service.
type ServiceParams struct {
	Repo              Repository
	Summaries         rewards.Repository
	Collector         signalCollector
	Tx                txRunner
	Publisher         notify.Publisher
	Metrics           updateMetrics
	Logger            *logger.Logger
	IdempotencyWindow time.Duration
}

type service struct {
	repo      Repository
	summaries rewards.Repository
	collector signalCollector
	tx        txRunner
	publisher notify.Publisher
	metrics   updateMetrics
	logg      *logger.Logger
	window    time.Duration
	now       func() time.Time
}

// NewService builds the trust service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("trust repository required")
	}
	if params.Summaries == nil {
		return nil, fmt.Errorf("rewards summary repository required")
	}
	if params.Collector == nil {
		return nil, fmt.Errorf("signal collector required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	publisher := params.Publisher
	if publisher == nil {
		publisher = notify.Discard{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	window := params.IdempotencyWindow
	if window <= 0 {
		window = defaultIdempotencyWindow
	}
	return &service{
		repo:      params.Repo,
		summaries: params.Summaries,
		collector: params.Collector,
		tx:        params.Tx,
		publisher: publisher,
		metrics:   metrics,
		logg:      logg,
		window:    window,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// CalculateTrustScore is read-only. It returns nil, nil when the user has no profile.
func (s *service) CalculateTrustScore(ctx context.Context, userID uuid.UUID) (*Calculation, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	signals, err := s.collector.Collect(ctx, userID)
	if err != nil {
		err = pkgerrors.WrapUntyped(pkgerrors.CodeDependency, err, "collect trust factors")
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "trust score calculation failed", err)
		return nil, err
	}
	if signals == nil {
		return nil, nil
	}
	calc := Calculate(signals.Factors, Decay(signals.DaysSinceActivity))
	return &calc, nil
}

// UpdateTrustScore recomputes the score and, in one transaction, appends a history entry and
// upserts the summary. A retry inside the same idempotency window returns the stored score.
func (s *service) UpdateTrustScore(ctx context.Context, input UpdateInput) (*int, error) {
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "change reason is required")
	}
	factorType := input.FactorType
	if factorType == "" {
		factorType = enums.TrustFactorRecalc
	}
	if !factorType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid factor type %q", factorType))
	}

	calc, err := s.CalculateTrustScore(ctx, input.UserID)
	if err != nil || calc == nil {
		return nil, err
	}
	ctx = s.logg.WithUserID(ctx, input.UserID.String())

	metadata, err := json.Marshal(historyMetadata(input.Metadata, calc))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal trust metadata")
	}

	var entry *models.TrustHistoryEntry
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		summaries := s.summaries.WithTx(tx)
		current, err := summaries.FindByUserIDForUpdate(ctx, input.UserID)
		if err != nil {
			return err
		}
		oldScore := current.TrustScore

		entry = &models.TrustHistoryEntry{
			UserID:           input.UserID,
			OldScore:         oldScore,
			NewScore:         calc.FinalScore,
			ChangeAmount:     calc.FinalScore - oldScore,
			ChangePercentage: changePercentage(oldScore, calc.FinalScore),
			ChangeReason:     input.Reason,
			FactorType:       factorType,
			Metadata:         metadata,
			IdempotencyKey:   s.idempotencyKey(input.UserID, input.Reason),
		}
		if err := s.repo.WithTx(tx).CreateHistory(ctx, entry); err != nil {
			if db.IsUniqueViolation(err, idempotencyConstraint) {
				return errReplayedUpdate
			}
			return err
		}
		return summaries.UpsertTrustScore(ctx, input.UserID, calc.FinalScore)
	})

	if errors.Is(err, errReplayedUpdate) {
		s.metrics.IncTrustUpdate(outcomeReplayed)
		s.logg.Info(ctx, "trust update replayed within idempotency window")
		stored, err := s.summaries.FindByUserID(ctx, input.UserID)
		if err != nil {
			return nil, s.fail(ctx, err)
		}
		if stored == nil {
			return nil, nil
		}
		score := stored.TrustScore
		return &score, nil
	}
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	s.metrics.IncTrustUpdate(outcomeUpdated)
	s.publisher.Publish(ctx, notify.NewEvent(notify.ChannelTrust, input.UserID, notify.OperationInsert, entry))
	score := calc.FinalScore
	return &score, nil
}

func (s *service) fail(ctx context.Context, err error) error {
	s.metrics.IncTrustUpdate(outcomeFailed)
	err = pkgerrors.WrapUntyped(pkgerrors.CodeDependency, err, "update trust score")
	s.logg.Error(ctx, "trust score update failed", err)
	return err
}

func (s *service) ListHistory(ctx context.Context, userID uuid.UUID, params pagination.Params) (*HistoryPage, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	entries, err := s.repo.ListHistory(ctx, userID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		err = pkgerrors.WrapUntyped(pkgerrors.CodeDependency, err, "list trust history")
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "trust history read failed", err)
		return nil, err
	}

	page := &HistoryPage{}
	page.Entries, page.NextCursor = pagination.Trim(entries, params.Limit, func(e models.TrustHistoryEntry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	})
	return page, nil
}

func (s *service) idempotencyKey(userID uuid.UUID, reason string) string {
	bucket := s.now().Truncate(s.window).Unix()
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", userID, reason, bucket)))
	return hex.EncodeToString(sum[:])
}

func changePercentage(oldScore, newScore int) decimal.Decimal {
	if oldScore == 0 {
		if newScore == 0 {
			return decimal.Zero
		}
		return decimal.NewFromInt(100)
	}
	delta := decimal.NewFromInt(int64(newScore - oldScore))
	return delta.Div(decimal.NewFromInt(int64(oldScore))).Mul(decimal.NewFromInt(100)).Round(2)
}

func historyMetadata(extra map[string]any, calc *Calculation) map[string]any {
	out := make(map[string]any, len(extra)+3)
	for k, v := range extra {
		out[k] = v
	}
	out["factors"] = calc.Factors
	out["decay_amount"] = calc.DecayAmount
	out["changes"] = calc.Changes
	return out
}
