package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/api/responses"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/api/validators"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/referrals"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db/models"
	pkgerrors "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/errors"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
)

type trackReferralRequest struct {
	ReferredUserID string `json:"referred_user_id" validate:"required,uuid"`
}

type referralListResponse struct {
	Referrals []models.ReferralRecord `json:"referrals"`
}

// TrackReferral records that the caller referred another user.
func TrackReferral(svc referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		referrerID, ok := callerOrReject(w, r, logg)
		if !ok {
			return
		}
		var body trackReferralRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.TrackReferral(r.Context(), referrerID, uuid.MustParse(body.ReferredUserID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, record)
	}
}

func ListReferrals(svc referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		referrerID, ok := callerOrReject(w, r, logg)
		if !ok {
			return
		}
		records, err := svc.ListReferrals(r.Context(), referrerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if records == nil {
			records = []models.ReferralRecord{}
		}
		responses.WriteSuccess(w, referralListResponse{Referrals: records})
	}
}

func GetReferralStats(svc referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerOrReject(w, r, logg)
		if !ok {
			return
		}
		stats, err := svc.GetReferralStats(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// VerifyReferralCode resolves a verified referral by its code.
func VerifyReferralCode(svc referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := referrals.NormalizeCode(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "code is required"))
			return
		}
		record, err := svc.VerifyReferralCode(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if record == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "referral code not found"))
			return
		}
		responses.WriteSuccess(w, record)
	}
}
