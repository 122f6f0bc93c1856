package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db/models"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
	pkgerrors "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/errors"
)

const sourceTypeReferral = "referral"

// Service defines operations that record and reconstruct ledger entries.
type Service interface {
	RecordEntry(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.ActivityTransaction, error)
	EarningsForReferral(ctx context.Context, referralID uuid.UUID) (decimal.Decimal, error)
	EarningsForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (decimal.Decimal, error)
}

type service struct {
	repo Repository
}

// RecordEntryInput captures the immutable data a ledger entry requires.
type RecordEntryInput struct {
	UserID      uuid.UUID          `json:"user_id"`
	Type        enums.ActivityType `json:"type"`
	Amount      decimal.Decimal    `json:"amount"`
	Description string             `json:"description"`
	ReferralID  *uuid.UUID         `json:"referral_id,omitempty"`
	Metadata    json.RawMessage    `json:"metadata"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

// RecordEntry appends one entry. A non-nil tx binds the write to the caller's transaction.
func (s *service) RecordEntry(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.ActivityTransaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ledger user id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid activity type %q", input.Type))
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ledger amount must not be negative")
	}

	entry := &models.ActivityTransaction{
		UserID:       input.UserID,
		ActivityType: input.Type,
		AmountEloits: input.Amount,
		Description:  input.Description,
		SourceID:     input.ReferralID,
		Metadata:     input.Metadata,
	}
	if input.ReferralID != nil {
		entry.SourceType = sourceTypeReferral
	}

	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// EarningsForReferral sums the earning entries recorded against a referral.
func (s *service) EarningsForReferral(ctx context.Context, referralID uuid.UUID) (decimal.Decimal, error) {
	if referralID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "referral id is required")
	}
	return s.repo.SumBySource(ctx, referralID)
}

// EarningsForUser sums every earning entry credited to the user. A non-nil tx sees the
// caller's uncommitted entries.
func (s *service) EarningsForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (decimal.Decimal, error) {
	if userID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.WithTx(tx).SumEarningsByUser(ctx, userID)
}
