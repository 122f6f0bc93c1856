package referrals

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/notify"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
	pkgerrors "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/errors"
)

var autoShareScale = decimal.RequireFromString("0.01")

// ProcessAutoSharing passes a slice of the referred user's earnings up to each verified
// referrer. Sharing is single hop; every row commits on its own and failures are aggregated.
func (s *service) ProcessAutoSharing(ctx context.Context, referredUserID uuid.UUID, earnings decimal.Decimal) error {
	if referredUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "referred user id is required")
	}
	if !earnings.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "earnings must be positive")
	}
	ctx = s.logg.WithUserID(ctx, referredUserID.String())

	records, err := s.repo.ListVerifiedByReferred(ctx, referredUserID)
	if err != nil {
		return s.fail(ctx, err, "list upstream referrals")
	}

	var errs error
	for _, record := range records {
		if record.ReferrerID == record.ReferredUserID {
			continue
		}
		share := earnings.Mul(record.AutoSharePercentage).Mul(autoShareScale).Round(commissionScale)
		if !share.IsPositive() {
			continue
		}
		referralID := record.ID
		rowCtx := s.logg.WithReferralID(ctx, referralID.String())

		var commission decimal.Decimal
		err := s.tx.WithTx(rowCtx, func(tx *gorm.DB) error {
			updated, credited, err := s.applyEarningTx(rowCtx, tx, earning{
				referrerID:  record.ReferrerID,
				referralID:  &referralID,
				base:        share,
				kind:        enums.ActivityAutoShare,
				description: "Auto-share from referred user earnings",
			})
			if err != nil {
				return err
			}
			commission = credited
			if err := s.repo.WithTx(tx).IncrementAutoShareTotal(rowCtx, referralID, share); err != nil {
				return err
			}
			updated.AutoShareTotal = updated.AutoShareTotal.Add(share)
			record = *updated
			return nil
		})
		if err != nil {
			s.metrics.IncEarningFailure(string(enums.ActivityAutoShare))
			errs = multierr.Append(errs, fmt.Errorf("referral %s: %w", referralID, s.fail(rowCtx, err, "auto-share earning")))
			continue
		}
		s.metrics.IncEarning(string(enums.ActivityAutoShare))
		s.logg.Info(s.logg.WithField(rowCtx, "commission", commission.String()), "auto-share recorded")
		s.publisher.Publish(rowCtx, notify.NewEvent(notify.ChannelReferrals, record.ReferrerID, notify.OperationUpdate, record))
	}
	return errs
}
