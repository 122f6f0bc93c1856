package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/trust"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
	pkgerrors "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/errors"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/pagination"
)

func TestGetMyTrustScoreUsesCaller(t *testing.T) {
	caller := uuid.New()
	svc := &testTrustService{
		calculateFn: func(ctx context.Context, userID uuid.UUID) (*trust.Calculation, error) {
			if userID != caller {
				t.Fatalf("unexpected user %s", userID)
			}
			return &trust.Calculation{FinalScore: 42}, nil
		},
	}
	resp := httptest.NewRecorder()
	GetMyTrustScore(svc, testLogger())(resp, newRequest(http.MethodGet, "/api/v1/trust/me", "", caller, enums.UserRoleUser, nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var calc trust.Calculation
	decodeData(t, resp, &calc)
	if calc.FinalScore != 42 {
		t.Fatalf("unexpected score %d", calc.FinalScore)
	}
}

func TestGetTrustScoreMissingProfileIs404(t *testing.T) {
	target := uuid.New()
	resp := httptest.NewRecorder()
	GetTrustScore(&testTrustService{}, testLogger())(resp, newRequest(http.MethodGet, "/", "", uuid.New(), enums.UserRoleUser,
		map[string]string{"userId": target.String()}))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestGetMyTrustScoreRequiresCaller(t *testing.T) {
	resp := httptest.NewRecorder()
	GetMyTrustScore(&testTrustService{}, testLogger())(resp, newRequest(http.MethodGet, "/", "", uuid.Nil, "", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestRefreshTrustScore(t *testing.T) {
	caller := uuid.New()
	other := uuid.New()

	cases := []struct {
		name   string
		role   enums.UserRole
		target uuid.UUID
		body   string
		status int
		called bool
	}{
		{"self", enums.UserRoleUser, caller, `{"reason":"profile_updated","factor_type":"profile"}`, http.StatusOK, true},
		{"other user forbidden", enums.UserRoleUser, other, `{"reason":"x"}`, http.StatusForbidden, false},
		{"service refreshes anyone", enums.UserRoleService, other, `{"reason":"spam_resolved","factor_type":"spam"}`, http.StatusOK, true},
		{"missing reason", enums.UserRoleUser, caller, `{}`, http.StatusBadRequest, false},
		{"blank reason", enums.UserRoleUser, caller, `{"reason":"  \n "}`, http.StatusBadRequest, false},
		{"unknown factor", enums.UserRoleUser, caller, `{"reason":"x","factor_type":"karma"}`, http.StatusBadRequest, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			svc := &testTrustService{
				updateFn: func(ctx context.Context, input trust.UpdateInput) (*int, error) {
					called = true
					if input.UserID != tc.target {
						t.Fatalf("unexpected user %s", input.UserID)
					}
					if input.Reason == "" {
						t.Fatal("expected reason")
					}
					score := 77
					return &score, nil
				},
			}
			resp := httptest.NewRecorder()
			req := newRequest(http.MethodPost, "/", tc.body, caller, tc.role, map[string]string{"userId": tc.target.String()})
			RefreshTrustScore(svc, testLogger())(resp, req)

			if resp.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, resp.Code)
			}
			if called != tc.called {
				t.Fatalf("expected called=%v", tc.called)
			}
			if tc.status == http.StatusOK {
				var body trustScoreResponse
				decodeData(t, resp, &body)
				if body.Score != 77 || body.UserID != tc.target {
					t.Fatalf("unexpected body %+v", body)
				}
			}
		})
	}
}

func TestRefreshTrustScoreSurfacesDependencyErrors(t *testing.T) {
	caller := uuid.New()
	svc := &testTrustService{
		updateFn: func(context.Context, trust.UpdateInput) (*int, error) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "update trust score")
		},
	}
	resp := httptest.NewRecorder()
	RefreshTrustScore(svc, testLogger())(resp, newRequest(http.MethodPost, "/", `{"reason":"x"}`, caller, enums.UserRoleUser,
		map[string]string{"userId": caller.String()}))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestListTrustHistoryPassesPaging(t *testing.T) {
	caller := uuid.New()
	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), ID: uuid.New()})
	svc := &testTrustService{
		historyFn: func(ctx context.Context, userID uuid.UUID, params pagination.Params) (*trust.HistoryPage, error) {
			if params.Limit != 5 || params.Cursor != cursor {
				t.Fatalf("unexpected params %+v", params)
			}
			return &trust.HistoryPage{NextCursor: "next"}, nil
		},
	}
	resp := httptest.NewRecorder()
	ListTrustHistory(svc, testLogger())(resp, newRequest(http.MethodGet, "/x?limit=5&cursor="+cursor, "", caller, enums.UserRoleUser,
		map[string]string{"userId": caller.String()}))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var page trust.HistoryPage
	decodeData(t, resp, &page)
	if page.NextCursor != "next" {
		t.Fatalf("unexpected cursor %q", page.NextCursor)
	}
}

func TestListTrustHistoryRejectsGarbageCursor(t *testing.T) {
	caller := uuid.New()
	resp := httptest.NewRecorder()
	ListTrustHistory(&testTrustService{}, testLogger())(resp, newRequest(http.MethodGet, "/x?cursor=abc", "", caller, enums.UserRoleUser,
		map[string]string{"userId": caller.String()}))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestListTrustHistoryRejectsBadLimit(t *testing.T) {
	caller := uuid.New()
	resp := httptest.NewRecorder()
	ListTrustHistory(&testTrustService{}, testLogger())(resp, newRequest(http.MethodGet, "/x?limit=500", "", caller, enums.UserRoleUser,
		map[string]string{"userId": caller.String()}))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}
