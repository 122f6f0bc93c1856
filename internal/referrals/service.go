package referrals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/ledger"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/notify"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/rewards"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db/models"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
	pkgerrors "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/errors"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/wallet"
)

const (
	codeConstraint      = "referral_code"
	defaultCodeAttempts = 3
	monthLayout         = "2006-01"
)

var (
	defaultSignupBonus   = decimal.NewFromInt(500)
	defaultAutoSharePct  = decimal.RequireFromString("0.5")
	autoShareMax         = decimal.NewFromInt(1)
	errReferralMissing   = errors.New("referral missing")
	externallyDrivenFrom = []enums.ReferralStatus{enums.ReferralStatusVerified, enums.ReferralStatusActive, enums.ReferralStatusInactive}
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type walletCrediter interface {
	CreditBalance(ctx context.Context, credit wallet.Credit) error
}

type earningMetrics interface {
	IncEarning(activityType string)
	IncEarningFailure(activityType string)
}

type noopMetrics struct{}

func (noopMetrics) IncEarning(string)        {}
func (noopMetrics) IncEarningFailure(string) {}

// Service tracks referrals and books the commissions they earn.
type Service interface {
	TrackReferral(ctx context.Context, referrerID, referredUserID uuid.UUID) (*models.ReferralRecord, error)
	ActivateReferral(ctx context.Context, referralID uuid.UUID) (*models.ReferralRecord, error)
	VerifyReferralCode(ctx context.Context, code string) (*models.ReferralRecord, error)
	SetReferralStatus(ctx context.Context, referralID uuid.UUID, status enums.ReferralStatus) (*models.ReferralRecord, error)
	UpdateAutoSharePercentage(ctx context.Context, referralID uuid.UUID, pct decimal.Decimal) (*models.ReferralRecord, error)
	ListReferrals(ctx context.Context, referrerID uuid.UUID) ([]models.ReferralRecord, error)
	RecordReferralEarning(ctx context.Context, input EarningInput) error
	ProcessAutoSharing(ctx context.Context, referredUserID uuid.UUID, earnings decimal.Decimal) error
	GetReferralStats(ctx context.Context, userID uuid.UUID) (*ReferralStats, error)
}

// ServiceParams groups the collaborators of the referral service.
type ServiceParams struct {
	Repo                Repository
	Ledger              ledger.Service
	Summaries           rewards.Repository
	Wallet              walletCrediter
	Tx                  txRunner
	Publisher           notify.Publisher
	Metrics             earningMetrics
	Logger              *logger.Logger
	Codes               CodeGenerator
	CodeAttempts        int
	SignupBonus         decimal.Decimal
	DefaultAutoSharePct *decimal.Decimal
}

type service struct {
	repo         Repository
	ledger       ledger.Service
	summaries    rewards.Repository
	wallet       walletCrediter
	tx           txRunner
	publisher    notify.Publisher
	metrics      earningMetrics
	logg         *logger.Logger
	codes        CodeGenerator
	codeAttempts int
	signupBonus  decimal.Decimal
	autoSharePct decimal.Decimal
	now          func() time.Time
}

// NewService builds the referral service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("referral repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Summaries == nil {
		return nil, fmt.Errorf("rewards summary repository required")
	}
	if params.Wallet == nil {
		return nil, fmt.Errorf("wallet client required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}

	s := &service{
		repo:         params.Repo,
		ledger:       params.Ledger,
		summaries:    params.Summaries,
		wallet:       params.Wallet,
		tx:           params.Tx,
		publisher:    params.Publisher,
		metrics:      params.Metrics,
		logg:         params.Logger,
		codes:        params.Codes,
		codeAttempts: params.CodeAttempts,
		signupBonus:  params.SignupBonus,
		autoSharePct: defaultAutoSharePct,
		now:          func() time.Time { return time.Now().UTC() },
	}
	if s.publisher == nil {
		s.publisher = notify.Discard{}
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if s.codes == nil {
		s.codes = GenerateReferralCode
	}
	if s.codeAttempts <= 0 {
		s.codeAttempts = defaultCodeAttempts
	}
	if s.signupBonus.IsZero() {
		s.signupBonus = defaultSignupBonus
	}
	if pct := params.DefaultAutoSharePct; pct != nil {
		if !autoShareInRange(*pct) {
			return nil, fmt.Errorf("default auto-share percentage %s out of range", pct)
		}
		s.autoSharePct = *pct
	}
	return s, nil
}

// TrackReferral creates a pending referral with a fresh code, retrying when a code collides.
func (s *service) TrackReferral(ctx context.Context, referrerID, referredUserID uuid.UUID) (*models.ReferralRecord, error) {
	if referrerID == uuid.Nil || referredUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "referrer and referred user are required")
	}
	if referrerID == referredUserID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users cannot refer themselves")
	}
	ctx = s.logg.WithUserID(ctx, referrerID.String())

	for attempt := 1; attempt <= s.codeAttempts; attempt++ {
		now := s.now()
		code, err := s.codes(referrerID, now)
		if err != nil {
			return nil, s.fail(ctx, err, "generate referral code")
		}
		tier := enums.ReferralTierBronze
		record := &models.ReferralRecord{
			ReferrerID:           referrerID,
			ReferredUserID:       referredUserID,
			ReferralCode:         code,
			Status:               enums.ReferralStatusPending,
			ReferralDate:         now,
			EarningsTotal:        decimal.Zero,
			EarningsThisMonth:    decimal.Zero,
			EarningsLastMonth:    decimal.Zero,
			EarningsMonth:        now.Format(monthLayout),
			Tier:                 tier,
			CommissionPercentage: tier.CommissionRate(),
			AutoShareTotal:       decimal.Zero,
			AutoSharePercentage:  s.autoSharePct,
			CreatedAt:            now,
			UpdatedAt:            now,
		}

		err = s.repo.Create(ctx, record)
		switch {
		case err == nil:
			s.publisher.Publish(ctx, notify.NewEvent(notify.ChannelReferrals, referrerID, notify.OperationInsert, record))
			return record, nil
		case db.IsUniqueViolation(err, codeConstraint):
			s.logg.Warn(ctx, fmt.Sprintf("referral code collision on attempt %d", attempt))
			continue
		case db.IsUniqueViolation(err, ""):
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "referral already tracked for this user")
		default:
			return nil, s.fail(ctx, err, "create referral")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique referral code")
}

// ActivateReferral verifies a pending referral and pays the signup bonus exactly once.
// Activating an already verified referral returns the current row unchanged.
func (s *service) ActivateReferral(ctx context.Context, referralID uuid.UUID) (*models.ReferralRecord, error) {
	if referralID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "referral id is required")
	}
	ctx = s.logg.WithReferralID(ctx, referralID.String())

	var (
		record  *models.ReferralRecord
		awarded bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, referralID)
		if err != nil {
			return err
		}
		if current == nil {
			return errReferralMissing
		}
		transitioned, err := repo.MarkVerified(ctx, referralID, s.now())
		if err != nil {
			return err
		}
		if !transitioned {
			record = current
			return nil
		}
		record, _, err = s.applyEarningTx(ctx, tx, earning{
			referrerID:  current.ReferrerID,
			referralID:  &referralID,
			base:        s.signupBonus,
			rate:        ptrDecimal(decimal.NewFromInt(1)),
			kind:        enums.ActivityReferralSignupBonus,
			description: "Referral signup bonus",
		})
		awarded = err == nil
		return err
	})
	if errors.Is(err, errReferralMissing) {
		return nil, nil
	}
	if err != nil {
		s.metrics.IncEarningFailure(string(enums.ActivityReferralSignupBonus))
		return nil, s.fail(ctx, err, "activate referral")
	}
	if awarded {
		s.metrics.IncEarning(string(enums.ActivityReferralSignupBonus))
		s.publisher.Publish(ctx, notify.NewEvent(notify.ChannelReferrals, record.ReferrerID, notify.OperationUpdate, record))
	}
	return record, nil
}

// VerifyReferralCode resolves a code to its verified referral, or nil when none matches.
func (s *service) VerifyReferralCode(ctx context.Context, code string) (*models.ReferralRecord, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "referral code is required")
	}
	record, err := s.repo.FindVerifiedByCode(ctx, code)
	if err != nil {
		return nil, s.fail(ctx, err, "verify referral code")
	}
	return record, nil
}

// SetReferralStatus applies an externally decided active/inactive transition.
func (s *service) SetReferralStatus(ctx context.Context, referralID uuid.UUID, status enums.ReferralStatus) (*models.ReferralRecord, error) {
	if !status.IsExternallyDriven() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("status %q cannot be set directly", status))
	}
	ctx = s.logg.WithReferralID(ctx, referralID.String())

	changed, err := s.repo.TransitionStatus(ctx, referralID, status, externallyDrivenFrom)
	if err != nil {
		return nil, s.fail(ctx, err, "set referral status")
	}
	record, err := s.repo.FindByID(ctx, referralID)
	if err != nil {
		return nil, s.fail(ctx, err, "load referral")
	}
	if record == nil {
		return nil, nil
	}
	if !changed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "referral has not been verified yet")
	}
	s.publisher.Publish(ctx, notify.NewEvent(notify.ChannelReferrals, record.ReferrerID, notify.OperationUpdate, record))
	return record, nil
}

// UpdateAutoSharePercentage stores a new percentage in [0,1]. Out-of-range values are rejected.
func (s *service) UpdateAutoSharePercentage(ctx context.Context, referralID uuid.UUID, pct decimal.Decimal) (*models.ReferralRecord, error) {
	if !autoShareInRange(pct) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auto-share percentage must be within [0,1]").
			WithDetails(map[string]any{"auto_share_percentage": pct.String()})
	}
	ctx = s.logg.WithReferralID(ctx, referralID.String())

	updated, err := s.repo.SetAutoSharePercentage(ctx, referralID, pct)
	if err != nil {
		return nil, s.fail(ctx, err, "update auto-share percentage")
	}
	if !updated {
		return nil, nil
	}
	record, err := s.repo.FindByID(ctx, referralID)
	if err != nil {
		return nil, s.fail(ctx, err, "load referral")
	}
	if record != nil {
		s.publisher.Publish(ctx, notify.NewEvent(notify.ChannelReferrals, record.ReferrerID, notify.OperationUpdate, record))
	}
	return record, nil
}

func (s *service) ListReferrals(ctx context.Context, referrerID uuid.UUID) ([]models.ReferralRecord, error) {
	if referrerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "referrer id is required")
	}
	records, err := s.repo.ListByReferrer(ctx, referrerID)
	if err != nil {
		return nil, s.fail(s.logg.WithUserID(ctx, referrerID.String()), err, "list referrals")
	}
	return records, nil
}

func (s *service) fail(ctx context.Context, err error, msg string) error {
	err = pkgerrors.WrapUntyped(pkgerrors.CodeDependency, err, msg)
	s.logg.Error(ctx, msg+" failed", err)
	return err
}

func autoShareInRange(pct decimal.Decimal) bool {
	return !pct.IsNegative() && !pct.GreaterThan(autoShareMax)
}

func ptrDecimal(d decimal.Decimal) *decimal.Decimal { return &d }

func monthsAround(now time.Time) (string, string) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.Format(monthLayout), first.AddDate(0, -1, 0).Format(monthLayout)
}
