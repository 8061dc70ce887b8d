package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/lead-verify/internal/application/lead"
	"github.com/lead-verify/internal/domain"
)

// LeadHandler handles lead intake and the verification email endpoint.
type LeadHandler struct {
	svc lead.Service
}

func NewLeadHandler(svc lead.Service) *LeadHandler { return &LeadHandler{svc: svc} }

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	l, err := h.svc.Create(r.Context(), req)
	var ve *domain.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, LeadEnvelope{ID: l.LeadID, Phone: l.Phone})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ErrorEnvelope{Error: "validation error", Message: ve.Msg})
	case l != nil:
		writeJSON(w, http.StatusInternalServerError, ErrorEnvelope{
			Error: "Failed to send verification email",
			ID:    l.LeadID,
		})
	default:
		slog.ErrorContext(r.Context(), "lead intake failed", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func (h *LeadHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Email == "" || body.Token == "" {
		writeError(w, http.StatusBadRequest, "Email and token are required")
		return
	}
	if err := h.svc.SendVerification(r.Context(), body.Email, body.Token); err != nil {
		if errors.Is(err, domain.ErrBadRequest) {
			writeError(w, http.StatusBadRequest, "Email and token are required")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to send email")
		return
	}
	writeJSON(w, http.StatusOK, SuccessEnvelope{Success: true})
}
