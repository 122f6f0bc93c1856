package referrals

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/ledger"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/notify"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db/models"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
	pkgerrors "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/errors"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/wallet"
)

const commissionScale = 4

// EarningInput describes a base amount on which the referrer earns commission. When
// ReferralID is nil the referrer's aggregate tier rate applies.
type EarningInput struct {
	ReferrerID uuid.UUID
	Amount     decimal.Decimal
	Reason     string
	ReferralID *uuid.UUID
	Type       enums.ActivityType
}

type earning struct {
	referrerID  uuid.UUID
	referralID  *uuid.UUID
	base        decimal.Decimal
	rate        *decimal.Decimal
	kind        enums.ActivityType
	description string
}

type earningMetadata struct {
	Rate       string `json:"rate"`
	Amount     string `json:"amount"`
	Commission string `json:"commission"`
	Reason     string `json:"reason,omitempty"`
}

// RecordReferralEarning books commission on amount for the referrer. Ledger entry, referral
// counters, tier upgrade, summary refresh and wallet credit commit together or not at all.
func (s *service) RecordReferralEarning(ctx context.Context, input EarningInput) error {
	kind := input.Type
	if kind == "" {
		kind = enums.ActivityReferralCommission
	}
	switch {
	case input.ReferrerID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "referrer id is required")
	case !input.Amount.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "earning amount must be positive")
	case input.Reason == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "earning reason is required")
	case !kind.IsEarning():
		return pkgerrors.New(pkgerrors.CodeValidation, "activity type is not an earning type")
	}
	ctx = s.logg.WithUserID(ctx, input.ReferrerID.String())

	e := earning{
		referrerID:  input.ReferrerID,
		referralID:  input.ReferralID,
		base:        input.Amount,
		kind:        kind,
		description: input.Reason,
	}
	if input.ReferralID == nil {
		stats, err := s.GetReferralStats(ctx, input.ReferrerID)
		if err != nil {
			s.metrics.IncEarningFailure(string(kind))
			return err
		}
		e.rate = ptrDecimal(stats.CommissionRate)
	} else {
		ctx = s.logg.WithReferralID(ctx, input.ReferralID.String())
	}

	_, err := s.applyEarning(ctx, e)
	return err
}

func (s *service) applyEarning(ctx context.Context, e earning) (*models.ReferralRecord, error) {
	var (
		record     *models.ReferralRecord
		commission decimal.Decimal
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		record, commission, err = s.applyEarningTx(ctx, tx, e)
		return err
	})
	if err != nil {
		s.metrics.IncEarningFailure(string(e.kind))
		return nil, s.fail(ctx, err, "record referral earning")
	}

	s.metrics.IncEarning(string(e.kind))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"activity_type": e.kind,
		"commission":    commission.String(),
	}), "referral earning recorded")
	if record != nil {
		s.publisher.Publish(ctx, notify.NewEvent(notify.ChannelReferrals, record.ReferrerID, notify.OperationUpdate, record))
	}
	return record, nil
}

// applyEarningTx runs every step of an earning on tx. It returns the refreshed referral row
// (nil for aggregate earnings) and the commission credited.
func (s *service) applyEarningTx(ctx context.Context, tx *gorm.DB, e earning) (*models.ReferralRecord, decimal.Decimal, error) {
	repo := s.repo.WithTx(tx)

	var record *models.ReferralRecord
	rate := decimal.Zero
	if e.rate != nil {
		rate = *e.rate
	}
	if e.referralID != nil {
		current, err := repo.FindByID(ctx, *e.referralID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if current == nil {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "referral not found")
		}
		if current.ReferrerID != e.referrerID {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "referral does not belong to referrer")
		}
		if e.rate == nil {
			rate = current.CommissionPercentage
		}
		record = current
	}

	commission := e.base.Mul(rate).Round(commissionScale)
	metadata, err := json.Marshal(earningMetadata{
		Rate:       rate.String(),
		Amount:     e.base.String(),
		Commission: commission.String(),
		Reason:     e.description,
	})
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal earning metadata")
	}
	if _, err := s.ledger.RecordEntry(ctx, tx, ledger.RecordEntryInput{
		UserID:      e.referrerID,
		Type:        e.kind,
		Amount:      commission,
		Description: e.description,
		ReferralID:  e.referralID,
		Metadata:    metadata,
	}); err != nil {
		return nil, decimal.Zero, err
	}

	if record != nil {
		month, previous := monthsAround(s.now())
		if err := repo.IncrementEarnings(ctx, record.ID, commission, month, previous); err != nil {
			if errors.Is(err, ErrReferralNotFound) {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "referral not found")
			}
			return nil, decimal.Zero, err
		}
		if record, err = s.progressTier(ctx, repo, record.ID); err != nil {
			return nil, decimal.Zero, err
		}
	}

	total, err := s.ledger.EarningsForUser(ctx, tx, e.referrerID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if err := s.summaries.WithTx(tx).ApplyEarning(ctx, e.referrerID, total, commission); err != nil {
		return nil, decimal.Zero, err
	}

	if err := s.wallet.CreditBalance(ctx, wallet.Credit{
		UserID: e.referrerID,
		Amount: commission,
		Type:   string(e.kind),
	}); err != nil {
		return nil, decimal.Zero, err
	}
	return record, commission, nil
}

// progressTier re-reads the row and moves it up to the tier its lifetime earnings qualify for.
func (s *service) progressTier(ctx context.Context, repo Repository, referralID uuid.UUID) (*models.ReferralRecord, error) {
	record, err := repo.FindByID(ctx, referralID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "referral not found")
	}
	target := TierFor(record.EarningsTotal)
	if target.Rank() <= record.Tier.Rank() {
		return record, nil
	}
	upgraded, err := repo.UpgradeTier(ctx, referralID, target)
	if err != nil {
		return nil, err
	}
	if upgraded {
		s.logg.Info(s.logg.WithField(ctx, "tier", target), "referral tier upgraded")
		record.Tier = target
		record.CommissionPercentage = target.CommissionRate()
	}
	return record, nil
}
