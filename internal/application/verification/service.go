package verification

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lead-verify/internal/domain"
	"github.com/lead-verify/internal/pkg/phone"
	pkgtoken "github.com/lead-verify/internal/pkg/token"
)

// EmailResult is returned by a successful email verification.
type EmailResult struct {
	Message                string
	NeedsPhoneVerification bool
}

// PhoneResult is returned by a successful OTP verification.
type PhoneResult struct {
	Message         string
	IsFullyVerified bool
}

type Service interface {
	VerifyEmail(ctx context.Context, token string) (*EmailResult, error)
	SendOTP(ctx context.Context, leadID, phoneNumber string) error
	VerifyOTP(ctx context.Context, leadID, otp string) (*PhoneResult, error)
}

// leadStore consumes credentials with a single conditional write that also
// sets lead_status from both channel flags. The Consume* methods return
// domain.ErrNotFound when the stored credential no longer matches.
type leadStore interface {
	Get(ctx context.Context, leadID string) (*domain.Lead, error)
	GetByEmailToken(ctx context.Context, token string) (*domain.Lead, error)
	SetPhoneOTP(ctx context.Context, leadID, otp string, expiresAt time.Time) error
	ConsumeEmailToken(ctx context.Context, leadID, token string) (*domain.Lead, error)
	ConsumePhoneOTP(ctx context.Context, leadID, otp string) (*domain.Lead, error)
}

type otpSender interface {
	SendOTP(ctx context.Context, phoneNumber, otp string) error
}

type service struct {
	repo        leadStore
	otpSender   otpSender
	phoneOTPTTL time.Duration
	newOTP      func() (string, error)
	now         func() time.Time
}

type ServiceDeps struct {
	LeadRepo    leadStore
	OTPSender   otpSender
	PhoneOTPTTL time.Duration
	NewOTP      func() (string, error)
	Now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:        deps.LeadRepo,
		otpSender:   deps.OTPSender,
		phoneOTPTTL: deps.PhoneOTPTTL,
		newOTP:      deps.NewOTP,
		now:         deps.Now,
	}
	if s.phoneOTPTTL <= 0 {
		s.phoneOTPTTL = 10 * time.Minute
	}
	if s.newOTP == nil {
		s.newOTP = pkgtoken.NewOTP
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) VerifyEmail(ctx context.Context, token string) (*EmailResult, error) {
	if token == "" {
		return nil, fmt.Errorf("token is required: %w", domain.ErrBadRequest)
	}
	l, err := s.repo.GetByEmailToken(ctx, token)
	if err != nil {
		return nil, storeErr(err, domain.ErrNotFound, "invalid or expired verification link")
	}
	if expired(l.EmailVerificationTokenExpires, s.now()) {
		return nil, fmt.Errorf("verification link has expired: %w", domain.ErrExpired)
	}
	updated, err := s.repo.ConsumeEmailToken(ctx, l.LeadID, token)
	if err != nil {
		return nil, storeErr(err, domain.ErrNotFound, "invalid or expired verification link")
	}
	slog.InfoContext(ctx, "email verified", "lead_id", updated.LeadID, "state", updated.State().String())

	res := &EmailResult{
		Message:                "Your email has been verified successfully!",
		NeedsPhoneVerification: !updated.PhoneVerified,
	}
	if res.NeedsPhoneVerification {
		res.Message += " Please also verify your phone number."
	}
	return res, nil
}

func (s *service) SendOTP(ctx context.Context, leadID, phoneNumber string) error {
	if leadID == "" || phoneNumber == "" {
		return fmt.Errorf("lead ID and phone are required: %w", domain.ErrBadRequest)
	}
	if !phone.Valid(phoneNumber) {
		return &domain.ValidationError{Msg: "Invalid phone number format"}
	}
	l, err := s.repo.Get(ctx, leadID)
	if err != nil {
		return storeErr(err, domain.ErrNotFound, "lead not found")
	}
	if phone.Normalize(phoneNumber) != l.Phone {
		return fmt.Errorf("phone does not match lead: %w", domain.ErrBadRequest)
	}

	otp, err := s.newOTP()
	if err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrUpstream)
	}
	// A new code replaces any earlier unconsumed one.
	if err := s.repo.SetPhoneOTP(ctx, leadID, otp, s.now().Add(s.phoneOTPTTL)); err != nil {
		return storeErr(err, domain.ErrNotFound, "lead not found")
	}
	if err := s.otpSender.SendOTP(ctx, l.Phone, otp); err != nil {
		return fmt.Errorf("failed to send OTP: %w", domain.ErrUpstream)
	}
	return nil
}

func (s *service) VerifyOTP(ctx context.Context, leadID, otp string) (*PhoneResult, error) {
	if leadID == "" || otp == "" {
		return nil, fmt.Errorf("lead ID and OTP are required: %w", domain.ErrBadRequest)
	}
	l, err := s.repo.Get(ctx, leadID)
	if err != nil {
		return nil, storeErr(err, domain.ErrInvalidCredential, "invalid OTP code")
	}
	if l.PhoneOTP == nil || subtle.ConstantTimeCompare([]byte(*l.PhoneOTP), []byte(otp)) != 1 {
		return nil, fmt.Errorf("invalid OTP code: %w", domain.ErrInvalidCredential)
	}
	if expired(l.PhoneOTPExpires, s.now()) {
		return nil, fmt.Errorf("OTP has expired, please request a new code: %w", domain.ErrExpired)
	}
	updated, err := s.repo.ConsumePhoneOTP(ctx, leadID, otp)
	if err != nil {
		return nil, storeErr(err, domain.ErrInvalidCredential, "invalid OTP code")
	}
	slog.InfoContext(ctx, "phone verified", "lead_id", updated.LeadID, "state", updated.State().String())

	res := &PhoneResult{IsFullyVerified: updated.State() == domain.FullyVerified}
	if res.IsFullyVerified {
		res.Message = "Phone verified! Your account is now fully verified."
	} else {
		res.Message = "Phone verified! Please also verify your email to complete registration."
	}
	return res, nil
}

// expired reports whether now is strictly past the expiry. A missing expiry
// counts as expired.
func expired(expiresAt *time.Time, now time.Time) bool {
	return expiresAt == nil || now.After(*expiresAt)
}

// storeErr maps a store miss to miss and anything else to ErrUpstream.
func storeErr(err, miss error, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s: %w", msg, miss)
	}
	return fmt.Errorf("lead store: %v: %w", err, domain.ErrUpstream)
}
