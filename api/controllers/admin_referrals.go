package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/api/responses"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/api/validators"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/referrals"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db/models"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/enums"
	pkgerrors "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/errors"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
)

type referralStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type autoShareRequest struct {
	AutoSharePercentage decimal.Decimal `json:"auto_share_percentage" validate:"dec_fraction"`
}

type recordEarningRequest struct {
	ReferrerID string          `json:"referrer_id" validate:"required,uuid"`
	Amount     decimal.Decimal `json:"amount" validate:"dec_positive"`
	Reason     string          `json:"reason" validate:"required,max=200"`
	ReferralID string          `json:"referral_id" validate:"omitempty,uuid"`
	Type       string          `json:"type"`
}

type processAutoShareRequest struct {
	ReferredUserID string          `json:"referred_user_id" validate:"required,uuid"`
	Earnings       decimal.Decimal `json:"earnings" validate:"dec_positive"`
}

type acceptedResponse struct {
	Status string `json:"status"`
}

// AdminActivateReferral verifies a pending referral and pays the signup bonus once.
func AdminActivateReferral(svc referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		referralID, err := validators.PathUUID(r, "referralId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.ActivateReferral(r.Context(), referralID)
		writeReferral(w, r, logg, record, err)
	}
}

func AdminSetReferralStatus(svc referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		referralID, err := validators.PathUUID(r, "referralId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body referralStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.SetReferralStatus(r.Context(), referralID, enums.ReferralStatus(body.Status))
		writeReferral(w, r, logg, record, err)
	}
}

func AdminUpdateAutoShare(svc referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		referralID, err := validators.PathUUID(r, "referralId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body autoShareRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.UpdateAutoSharePercentage(r.Context(), referralID, body.AutoSharePercentage)
		writeReferral(w, r, logg, record, err)
	}
}

// AdminRecordEarning books a commission for a referrer, against one referral when referral_id is set.
func AdminRecordEarning(svc referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body recordEarningRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := referrals.EarningInput{
			ReferrerID: uuid.MustParse(body.ReferrerID),
			Amount:     body.Amount,
			Reason:     validators.SanitizeString(body.Reason, maxReasonLength),
		}
		if body.ReferralID != "" {
			id := uuid.MustParse(body.ReferralID)
			input.ReferralID = &id
		}
		if body.Type != "" {
			kind, err := enums.ParseActivityType(body.Type)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid earning type"))
				return
			}
			input.Type = kind
		}
		if err := svc.RecordReferralEarning(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, acceptedResponse{Status: "recorded"})
	}
}

// AdminProcessAutoShare runs auto-sharing for every verified referral of the referred user.
func AdminProcessAutoShare(svc referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body processAutoShareRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ProcessAutoSharing(r.Context(), uuid.MustParse(body.ReferredUserID), body.Earnings); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, acceptedResponse{Status: "processed"})
	}
}

func writeReferral(w http.ResponseWriter, r *http.Request, logg *logger.Logger, record *models.ReferralRecord, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	if record == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "referral not found"))
		return
	}
	responses.WriteSuccess(w, record)
}
