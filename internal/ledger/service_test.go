package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db/models"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
)

type fakeRepository struct {
	createFn func(ctx context.Context, entry *models.ActivityTransaction) error
	sumFn    func(ctx context.Context, sourceID uuid.UUID) (decimal.Decimal, error)
	userSum  func(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	txSeen   *gorm.DB
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	f.txSeen = tx
	return f
}

func (f *fakeRepository) Create(ctx context.Context, entry *models.ActivityTransaction) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepository) ListBySource(ctx context.Context, sourceID uuid.UUID) ([]models.ActivityTransaction, error) {
	return nil, nil
}

func (f *fakeRepository) SumBySource(ctx context.Context, sourceID uuid.UUID) (decimal.Decimal, error) {
	if f.sumFn != nil {
		return f.sumFn(ctx, sourceID)
	}
	return decimal.Zero, nil
}

func (f *fakeRepository) SumEarningsByUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	if f.userSum != nil {
		return f.userSum(ctx, userID)
	}
	return decimal.Zero, nil
}

func (f *fakeRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) CountByTypesSince(ctx context.Context, userID uuid.UUID, types []enums.ActivityType, since time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) LastActivityAt(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	return nil, nil
}

func TestService_RecordEntry(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	referralID := uuid.New()
	metadata := json.RawMessage(`{"rate":"0.05","amount":"1000"}`)
	input := RecordEntryInput{
		UserID:      uuid.New(),
		Type:        enums.ActivityReferralCommission,
		Amount:      decimal.NewFromInt(50),
		Description: "purchase",
		ReferralID:  &referralID,
		Metadata:    metadata,
	}

	var created *models.ActivityTransaction
	repo.createFn = func(ctx context.Context, entry *models.ActivityTransaction) error {
		created = entry
		return nil
	}

	got, err := svc.RecordEntry(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("RecordEntry error: %v", err)
	}
	if created == nil {
		t.Fatal("expected ledger entry to be created")
	}
	if created.UserID != input.UserID || created.ActivityType != input.Type || !created.AmountEloits.Equal(input.Amount) {
		t.Fatalf("unexpected ledger entry data: %+v", created)
	}
	if created.SourceID == nil || *created.SourceID != referralID || created.SourceType != "referral" {
		t.Fatalf("missing referral source: %+v", created)
	}
	if string(created.Metadata) != string(metadata) {
		t.Fatalf("metadata mismatch: %s", created.Metadata)
	}
	if got != created {
		t.Fatalf("service should return created entry")
	}
}

func TestService_RecordEntryUsesCallerTx(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo)
	tx := &gorm.DB{}
	if _, err := svc.RecordEntry(context.Background(), tx, RecordEntryInput{
		UserID: uuid.New(),
		Type:   enums.ActivityAutoShare,
		Amount: decimal.NewFromInt(1),
	}); err != nil {
		t.Fatalf("RecordEntry error: %v", err)
	}
	if repo.txSeen != tx {
		t.Fatalf("expected repository to be bound to caller tx")
	}
}

func TestService_RecordEntryValidation(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	tests := []struct {
		name  string
		input RecordEntryInput
	}{
		{
			name:  "missing user",
			input: RecordEntryInput{Type: enums.ActivityReferralCommission, Amount: decimal.NewFromInt(1)},
		},
		{
			name:  "invalid type",
			input: RecordEntryInput{UserID: uuid.New(), Type: "not_real", Amount: decimal.NewFromInt(1)},
		},
		{
			name:  "negative amount",
			input: RecordEntryInput{UserID: uuid.New(), Type: enums.ActivityAutoShare, Amount: decimal.NewFromInt(-1)},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.RecordEntry(context.Background(), nil, tc.input); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestService_RecordEntryRepoError(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	expectedErr := errors.New("boom")
	repo.createFn = func(ctx context.Context, entry *models.ActivityTransaction) error {
		return expectedErr
	}

	if _, err := svc.RecordEntry(context.Background(), nil, RecordEntryInput{
		UserID: uuid.New(),
		Type:   enums.ActivityReferralSignupBonus,
		Amount: decimal.NewFromInt(500),
	}); !errors.Is(err, expectedErr) {
		t.Fatalf("expected repo error to bubble up, got %v", err)
	}
}

func TestService_EarningsForReferral(t *testing.T) {
	referralID := uuid.New()
	repo := &fakeRepository{sumFn: func(ctx context.Context, sourceID uuid.UUID) (decimal.Decimal, error) {
		if sourceID != referralID {
			t.Fatalf("unexpected source id %s", sourceID)
		}
		return decimal.NewFromInt(550), nil
	}}
	svc, _ := NewService(repo)
	got, err := svc.EarningsForReferral(context.Background(), referralID)
	if err != nil || !got.Equal(decimal.NewFromInt(550)) {
		t.Fatalf("expected 550, got %s err=%v", got, err)
	}
	if _, err := svc.EarningsForReferral(context.Background(), uuid.Nil); err == nil {
		t.Fatalf("expected validation error for nil referral id")
	}
}

func TestService_EarningsForUserUsesCallerTx(t *testing.T) {
	userID := uuid.New()
	repo := &fakeRepository{userSum: func(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
		if id != userID {
			t.Fatalf("unexpected user id %s", id)
		}
		return decimal.NewFromInt(50), nil
	}}
	svc, _ := NewService(repo)
	tx := &gorm.DB{}
	got, err := svc.EarningsForUser(context.Background(), tx, userID)
	if err != nil || !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected 50, got %s err=%v", got, err)
	}
	if repo.txSeen != tx {
		t.Fatalf("expected the caller transaction to be used")
	}
	if _, err := svc.EarningsForUser(context.Background(), nil, uuid.Nil); err == nil {
		t.Fatalf("expected validation error for nil user id")
	}
}
