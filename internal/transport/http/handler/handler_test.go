package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/lead-verify/internal/application/verification"
	"github.com/lead-verify/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockLeadSvc struct{ mock.Mock }

func (m *mockLeadSvc) Create(ctx context.Context, req domain.CreateLeadRequest) (*domain.Lead, error) {
	args := m.Called(ctx, req)
	if l, _ := args.Get(0).(*domain.Lead); l != nil {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLeadSvc) SendVerification(ctx context.Context, email, token string) error {
	return m.Called(ctx, email, token).Error(0)
}

type mockVerificationSvc struct{ mock.Mock }

func (m *mockVerificationSvc) VerifyEmail(ctx context.Context, token string) (*verification.EmailResult, error) {
	args := m.Called(ctx, token)
	if r, _ := args.Get(0).(*verification.EmailResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVerificationSvc) SendOTP(ctx context.Context, leadID, phone string) error {
	return m.Called(ctx, leadID, phone).Error(0)
}

func (m *mockVerificationSvc) VerifyOTP(ctx context.Context, leadID, otp string) (*verification.PhoneResult, error) {
	args := m.Called(ctx, leadID, otp)
	if r, _ := args.Get(0).(*verification.PhoneResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

// --- helpers ---

func post(t *testing.T, h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b)))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// --- intake ---

func TestCreateLead_Created(t *testing.T) {
	svc := &mockLeadSvc{}
	req := domain.CreateLeadRequest{Name: "Thandi", Email: "t@e.com", Phone: "0821234567", VehicleMake: "VW"}
	svc.On("Create", mock.Anything, req).Return(&domain.Lead{LeadID: "01HX", Phone: "+27821234567"}, nil)

	rec := post(t, NewLeadHandler(svc).Create, map[string]string{
		"name": "Thandi", "email": "t@e.com", "phone": "0821234567", "vehicleMake": "VW",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"01HX","phone":"+27821234567"}`, rec.Body.String())
}

func TestCreateLead_ValidationError(t *testing.T) {
	svc := &mockLeadSvc{}
	svc.On("Create", mock.Anything, mock.Anything).Return(nil, &domain.ValidationError{Msg: "Name is required"})

	rec := post(t, NewLeadHandler(svc).Create, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"validation error","message":"Name is required"}`, rec.Body.String())
}

func TestCreateLead_EmailFailureReturnsLeadID(t *testing.T) {
	svc := &mockLeadSvc{}
	svc.On("Create", mock.Anything, mock.Anything).
		Return(&domain.Lead{LeadID: "01HX"}, fmt.Errorf("send: %w", domain.ErrUpstream))

	rec := post(t, NewLeadHandler(svc).Create, map[string]string{"name": "x"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "01HX", decode(t, rec)["id"])
}

func TestCreateLead_InvalidBody(t *testing.T) {
	rec := httptest.NewRecorder()
	NewLeadHandler(&mockLeadSvc{}).Create(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- send-verification ---

func TestSendVerification_MissingFields(t *testing.T) {
	rec := post(t, NewLeadHandler(&mockLeadSvc{}).SendVerification, map[string]string{"email": "a@b.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendVerification_Success(t *testing.T) {
	svc := &mockLeadSvc{}
	svc.On("SendVerification", mock.Anything, "a@b.com", "tok").Return(nil)
	rec := post(t, NewLeadHandler(svc).SendVerification, map[string]string{"email": "a@b.com", "token": "tok"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestSendVerification_SendFailure(t *testing.T) {
	svc := &mockLeadSvc{}
	svc.On("SendVerification", mock.Anything, mock.Anything, mock.Anything).Return(domain.ErrUpstream)
	rec := post(t, NewLeadHandler(svc).SendVerification, map[string]string{"email": "a@b.com", "token": "tok"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// --- verify-email ---

func TestVerifyEmail_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"not found", fmt.Errorf("x: %w", domain.ErrNotFound), http.StatusNotFound, `{"error":"Invalid or expired verification link"}`},
		{"expired", fmt.Errorf("x: %w", domain.ErrExpired), http.StatusBadRequest, `{"error":"expired","message":"This verification link has expired"}`},
		{"upstream", errors.New("boom"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc := &mockVerificationSvc{}
			svc.On("VerifyEmail", mock.Anything, "tok").Return(nil, c.err)
			rec := post(t, NewVerificationHandler(svc).VerifyEmail, map[string]string{"token": "tok"})
			assert.Equal(t, c.status, rec.Code)
			assert.JSONEq(t, c.body, rec.Body.String())
		})
	}
}

func TestVerifyEmail_MissingToken(t *testing.T) {
	rec := post(t, NewVerificationHandler(&mockVerificationSvc{}).VerifyEmail, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Token is required"}`, rec.Body.String())
}

func TestVerifyEmail_Success(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("VerifyEmail", mock.Anything, "tok").Return(&verification.EmailResult{Message: "ok", NeedsPhoneVerification: true}, nil)
	rec := post(t, NewVerificationHandler(svc).VerifyEmail, map[string]string{"token": "tok"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"ok","needsPhoneVerification":true}`, rec.Body.String())
}

// --- send-otp ---

func TestSendOTP_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"ok", nil, http.StatusOK},
		{"mismatch", fmt.Errorf("x: %w", domain.ErrBadRequest), http.StatusBadRequest},
		{"unknown lead", fmt.Errorf("x: %w", domain.ErrNotFound), http.StatusNotFound},
		{"gateway", fmt.Errorf("x: %w", domain.ErrUpstream), http.StatusInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc := &mockVerificationSvc{}
			svc.On("SendOTP", mock.Anything, "L1", "0821234567").Return(c.err)
			rec := post(t, NewVerificationHandler(svc).SendOTP, map[string]string{"leadId": "L1", "phone": "0821234567"})
			assert.Equal(t, c.status, rec.Code)
		})
	}
}

func TestSendOTP_BadPhoneMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"malformed", &domain.ValidationError{Msg: "Invalid phone number format"}, "Invalid phone number format"},
		{"mismatch", fmt.Errorf("phone does not match lead: %w", domain.ErrBadRequest), "Phone number does not match this lead"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc := &mockVerificationSvc{}
			svc.On("SendOTP", mock.Anything, "L1", "082 123").Return(c.err)
			rec := post(t, NewVerificationHandler(svc).SendOTP, map[string]string{"leadId": "L1", "phone": "082 123"})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, c.want, decode(t, rec)["error"])
		})
	}
}

func TestSendOTP_MissingFields(t *testing.T) {
	rec := post(t, NewVerificationHandler(&mockVerificationSvc{}).SendOTP, map[string]string{"leadId": "L1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- verify-otp ---

func TestVerifyOTP_SuccessThenReplay(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("VerifyOTP", mock.Anything, "L", "123456").
		Return(&verification.PhoneResult{Message: "Phone verified!", IsFullyVerified: false}, nil).Once()
	svc.On("VerifyOTP", mock.Anything, "L", "123456").
		Return(nil, fmt.Errorf("invalid OTP code: %w", domain.ErrInvalidCredential)).Once()
	h := NewVerificationHandler(svc).VerifyOTP

	rec := post(t, h, map[string]string{"leadId": "L", "otp": "123456"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Phone verified!","isFullyVerified":false}`, rec.Body.String())

	rec = post(t, h, map[string]string{"leadId": "L", "otp": "123456"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid OTP code"}`, rec.Body.String())
}

func TestVerifyOTP_Expired(t *testing.T) {
	svc := &mockVerificationSvc{}
	svc.On("VerifyOTP", mock.Anything, "L", "123456").Return(nil, fmt.Errorf("x: %w", domain.ErrExpired))
	rec := post(t, NewVerificationHandler(svc).VerifyOTP, map[string]string{"leadId": "L", "otp": "123456"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "expired", decode(t, rec)["error"])
}

func TestVerifyOTP_MissingFields(t *testing.T) {
	rec := post(t, NewVerificationHandler(&mockVerificationSvc{}).VerifyOTP, map[string]string{"otp": "123456"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Lead ID and OTP are required"}`, rec.Body.String())
}

// --- health ---

func healthReq(action string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/health-check/"+action, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("action", action)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(stubPinger{}).Ping(rec, healthReq("ping"))
	assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewHealthHandler(stubPinger{}).Ping(rec, healthReq("db"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler(stubPinger{err: errors.New("down")}).Ping(rec, healthReq("db"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler(stubPinger{}).Ping(rec, healthReq("nope"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
