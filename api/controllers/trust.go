package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/api/middleware"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/api/responses"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/api/validators"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/trust"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
	pkgerrors "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/errors"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
)

const maxReasonLength = 200

type refreshTrustRequest struct {
	Reason     string         `json:"reason" validate:"required,max=200"`
	FactorType string         `json:"factor_type" validate:"omitempty,oneof=engagement consistency validation spam profile decay recalculation"`
	Metadata   map[string]any `json:"metadata"`
}

type trustScoreResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Score  int       `json:"score"`
}

// GetMyTrustScore scores the calling user.
func GetMyTrustScore(svc trust.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerOrReject(w, r, logg)
		if !ok {
			return
		}
		writeCalculation(w, r, svc, logg, userID)
	}
}

// GetTrustScore scores any user by id.
func GetTrustScore(svc trust.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.PathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCalculation(w, r, svc, logg, userID)
	}
}

func writeCalculation(w http.ResponseWriter, r *http.Request, svc trust.Service, logg *logger.Logger, userID uuid.UUID) {
	calc, err := svc.CalculateTrustScore(r.Context(), userID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	if calc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found"))
		return
	}
	responses.WriteSuccess(w, calc)
}

// RefreshTrustScore recomputes and stores a user's score. Callers may refresh themselves;
// admin and service roles may refresh anyone.
func RefreshTrustScore(svc trust.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := subjectOrReject(w, r, logg)
		if !ok {
			return
		}

		var body refreshTrustRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason := validators.SanitizeString(body.Reason, maxReasonLength)
		if reason == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reason is required"))
			return
		}

		score, err := svc.UpdateTrustScore(r.Context(), trust.UpdateInput{
			UserID:     userID,
			Reason:     reason,
			FactorType: enums.TrustFactorType(strings.TrimSpace(body.FactorType)),
			Metadata:   body.Metadata,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if score == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found"))
			return
		}
		responses.WriteSuccess(w, trustScoreResponse{UserID: userID, Score: *score})
	}
}

// ListTrustHistory pages through a user's score transitions, newest first.
func ListTrustHistory(svc trust.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := subjectOrReject(w, r, logg)
		if !ok {
			return
		}
		params, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListHistory(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func callerOrReject(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	userID := middleware.CallerID(r.Context())
	if userID == uuid.Nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return uuid.Nil, false
	}
	return userID, true
}

// subjectOrReject resolves {userId} and allows it only for the caller or a privileged role.
func subjectOrReject(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	caller, ok := callerOrReject(w, r, logg)
	if !ok {
		return uuid.Nil, false
	}
	userID, err := validators.PathUUID(r, "userId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, false
	}
	if userID != caller && !middleware.RoleFromContext(r.Context()).IsPrivileged() {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "cannot act on another user's trust score"))
		return uuid.Nil, false
	}
	return userID, true
}
