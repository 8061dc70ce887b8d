package handler

import (
	"encoding/json"
	"net/http"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorEnvelope is written for every failed request. ID is set when a lead
// was created before the failure.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
}

// LeadEnvelope wraps a successful intake.
type LeadEnvelope struct {
	ID    string `json:"id"`
	Phone string `json:"phone"`
}

// SuccessEnvelope wraps send-verification and send-otp responses.
type SuccessEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// EmailVerifiedEnvelope wraps verify-email responses.
type EmailVerifiedEnvelope struct {
	Success                bool   `json:"success"`
	Message                string `json:"message"`
	NeedsPhoneVerification bool   `json:"needsPhoneVerification"`
}

// OTPVerifiedEnvelope wraps verify-otp responses.
type OTPVerifiedEnvelope struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	IsFullyVerified bool   `json:"isFullyVerified"`
}

const maxBodyBytes = 1 << 16

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: msg})
}

const msgInternal = "Internal server error"
