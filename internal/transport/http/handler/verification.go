package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/lead-verify/internal/application/verification"
	"github.com/lead-verify/internal/domain"
)

// VerificationHandler handles the email link and phone OTP endpoints.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

func (h *VerificationHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Token == "" {
		writeError(w, http.StatusBadRequest, "Token is required")
		return
	}
	res, err := h.svc.VerifyEmail(r.Context(), body.Token)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, EmailVerifiedEnvelope{
			Success:                true,
			Message:                res.Message,
			NeedsPhoneVerification: res.NeedsPhoneVerification,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Invalid or expired verification link")
	case errors.Is(err, domain.ErrExpired):
		writeJSON(w, http.StatusBadRequest, ErrorEnvelope{Error: "expired", Message: "This verification link has expired"})
	default:
		slog.ErrorContext(r.Context(), "email verification failed", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func (h *VerificationHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		LeadID string `json:"leadId"`
		Phone  string `json:"phone"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.LeadID == "" || body.Phone == "" {
		writeError(w, http.StatusBadRequest, "Lead ID and phone are required")
		return
	}
	err := h.svc.SendOTP(r.Context(), body.LeadID, body.Phone)
	var verr *domain.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, SuccessEnvelope{Success: true, Message: "OTP sent successfully"})
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Msg)
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "Phone number does not match this lead")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Lead not found")
	default:
		slog.ErrorContext(r.Context(), "send otp failed", "lead_id", body.LeadID, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to send OTP")
	}
}

func (h *VerificationHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		LeadID string `json:"leadId"`
		OTP    string `json:"otp"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.LeadID == "" || body.OTP == "" {
		writeError(w, http.StatusBadRequest, "Lead ID and OTP are required")
		return
	}
	res, err := h.svc.VerifyOTP(r.Context(), body.LeadID, body.OTP)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, OTPVerifiedEnvelope{
			Success:         true,
			Message:         res.Message,
			IsFullyVerified: res.IsFullyVerified,
		})
	case errors.Is(err, domain.ErrInvalidCredential):
		writeError(w, http.StatusBadRequest, "Invalid OTP code")
	case errors.Is(err, domain.ErrExpired):
		writeJSON(w, http.StatusBadRequest, ErrorEnvelope{Error: "expired", Message: "OTP has expired. Please request a new code."})
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "Lead ID and OTP are required")
	default:
		slog.ErrorContext(r.Context(), "otp verification failed", "lead_id", body.LeadID, "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}
