package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/api/middleware"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/referrals"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/trust"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db/models"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/pagination"
)

type testTrustService struct {
	calculateFn func(ctx context.Context, userID uuid.UUID) (*trust.Calculation, error)
	updateFn    func(ctx context.Context, input trust.UpdateInput) (*int, error)
	historyFn   func(ctx context.Context, userID uuid.UUID, params pagination.Params) (*trust.HistoryPage, error)
}

func (s *testTrustService) CalculateTrustScore(ctx context.Context, userID uuid.UUID) (*trust.Calculation, error) {
	if s.calculateFn != nil {
		return s.calculateFn(ctx, userID)
	}
	return nil, nil
}

func (s *testTrustService) UpdateTrustScore(ctx context.Context, input trust.UpdateInput) (*int, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, input)
	}
	return nil, nil
}

func (s *testTrustService) ListHistory(ctx context.Context, userID uuid.UUID, params pagination.Params) (*trust.HistoryPage, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, userID, params)
	}
	return &trust.HistoryPage{}, nil
}

type testReferralService struct {
	trackFn     func(ctx context.Context, referrerID, referredUserID uuid.UUID) (*models.ReferralRecord, error)
	activateFn  func(ctx context.Context, referralID uuid.UUID) (*models.ReferralRecord, error)
	verifyFn    func(ctx context.Context, code string) (*models.ReferralRecord, error)
	statusFn    func(ctx context.Context, referralID uuid.UUID, status enums.ReferralStatus) (*models.ReferralRecord, error)
	autoShareFn func(ctx context.Context, referralID uuid.UUID, pct decimal.Decimal) (*models.ReferralRecord, error)
	listFn      func(ctx context.Context, referrerID uuid.UUID) ([]models.ReferralRecord, error)
	earningFn   func(ctx context.Context, input referrals.EarningInput) error
	processFn   func(ctx context.Context, referredUserID uuid.UUID, earnings decimal.Decimal) error
	statsFn     func(ctx context.Context, userID uuid.UUID) (*referrals.ReferralStats, error)
}

func (s *testReferralService) TrackReferral(ctx context.Context, referrerID, referredUserID uuid.UUID) (*models.ReferralRecord, error) {
	if s.trackFn != nil {
		return s.trackFn(ctx, referrerID, referredUserID)
	}
	return nil, nil
}

func (s *testReferralService) ActivateReferral(ctx context.Context, referralID uuid.UUID) (*models.ReferralRecord, error) {
	if s.activateFn != nil {
		return s.activateFn(ctx, referralID)
	}
	return nil, nil
}

func (s *testReferralService) VerifyReferralCode(ctx context.Context, code string) (*models.ReferralRecord, error) {
	if s.verifyFn != nil {
		return s.verifyFn(ctx, code)
	}
	return nil, nil
}

func (s *testReferralService) SetReferralStatus(ctx context.Context, referralID uuid.UUID, status enums.ReferralStatus) (*models.ReferralRecord, error) {
	if s.statusFn != nil {
		return s.statusFn(ctx, referralID, status)
	}
	return nil, nil
}

func (s *testReferralService) UpdateAutoSharePercentage(ctx context.Context, referralID uuid.UUID, pct decimal.Decimal) (*models.ReferralRecord, error) {
	if s.autoShareFn != nil {
		return s.autoShareFn(ctx, referralID, pct)
	}
	return nil, nil
}

func (s *testReferralService) ListReferrals(ctx context.Context, referrerID uuid.UUID) ([]models.ReferralRecord, error) {
	if s.listFn != nil {
		return s.listFn(ctx, referrerID)
	}
	return nil, nil
}

func (s *testReferralService) RecordReferralEarning(ctx context.Context, input referrals.EarningInput) error {
	if s.earningFn != nil {
		return s.earningFn(ctx, input)
	}
	return nil
}

func (s *testReferralService) ProcessAutoSharing(ctx context.Context, referredUserID uuid.UUID, earnings decimal.Decimal) error {
	if s.processFn != nil {
		return s.processFn(ctx, referredUserID, earnings)
	}
	return nil
}

func (s *testReferralService) GetReferralStats(ctx context.Context, userID uuid.UUID) (*referrals.ReferralStats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx, userID)
	}
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

// newRequest builds a request carrying the caller identity and chi route params.
func newRequest(method, target, body string, caller uuid.UUID, role enums.UserRole, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := req.Context()
	if caller != uuid.Nil {
		ctx = middleware.WithIdentity(ctx, caller, role)
	}
	routeCtx := chi.NewRouteContext()
	for k, v := range params {
		routeCtx.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func decodeErrorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error.Code
}
