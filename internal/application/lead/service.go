package lead

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lead-verify/internal/domain"
	"github.com/lead-verify/internal/pkg/id"
	"github.com/lead-verify/internal/pkg/phone"
	pkgtoken "github.com/lead-verify/internal/pkg/token"
	"github.com/lead-verify/internal/pkg/validate"
)

type Service interface {
	// Create validates the form, persists a new unverified lead and emails its
	// verification link. When only the email fails, the persisted lead is
	// returned together with an ErrUpstream error.
	Create(ctx context.Context, req domain.CreateLeadRequest) (*domain.Lead, error)
	SendVerification(ctx context.Context, email, token string) error
}

type leadStore interface {
	Put(ctx context.Context, l *domain.Lead) error
}

type emailSender interface {
	SendVerificationEmail(ctx context.Context, to, token string) error
}

type service struct {
	repo          leadStore
	emailSender   emailSender
	emailTokenTTL time.Duration
	now           func() time.Time
}

type ServiceDeps struct {
	LeadRepo      leadStore
	EmailSender   emailSender
	EmailTokenTTL time.Duration
	Now           func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:          deps.LeadRepo,
		emailSender:   deps.EmailSender,
		emailTokenTTL: deps.EmailTokenTTL,
		now:           deps.Now,
	}
	if s.emailTokenTTL <= 0 {
		s.emailTokenTTL = 24 * time.Hour
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// normalize trims the form and lower-cases the email before validation.
func normalize(req domain.CreateLeadRequest) domain.CreateLeadRequest {
	return domain.CreateLeadRequest{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       strings.TrimSpace(req.Phone),
		VehicleMake: strings.TrimSpace(req.VehicleMake),
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateLeadRequest) (*domain.Lead, error) {
	req = normalize(req)
	if err := validate.Struct(req); err != nil {
		return nil, &domain.ValidationError{Msg: err.Error()}
	}
	token, err := pkgtoken.NewEmailToken()
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrUpstream)
	}
	now := s.now().UTC()
	expires := now.Add(s.emailTokenTTL)
	l := &domain.Lead{
		LeadID:                        id.New(),
		Name:                          req.Name,
		Email:                         req.Email,
		Phone:                         phone.Normalize(req.Phone),
		VehicleMake:                   req.VehicleMake,
		LeadStatus:                    domain.LeadStatusUnverified,
		EmailVerificationToken:        &token,
		EmailVerificationTokenExpires: &expires,
		CreatedAt:                     now,
		UpdatedAt:                     now,
	}
	if err := s.repo.Put(ctx, l); err != nil {
		slog.ErrorContext(ctx, "failed to persist lead", "err", err)
		return nil, fmt.Errorf("save lead: %v: %w", err, domain.ErrUpstream)
	}
	slog.InfoContext(ctx, "lead created", "lead_id", l.LeadID, "vehicle_make", l.VehicleMake)

	// The lead stays in place with a valid token if the email cannot be sent.
	if err := s.emailSender.SendVerificationEmail(ctx, l.Email, token); err != nil {
		return l, fmt.Errorf("failed to send verification email: %w", domain.ErrUpstream)
	}
	return l, nil
}

func (s *service) SendVerification(ctx context.Context, email, token string) error {
	if strings.TrimSpace(email) == "" || token == "" {
		return fmt.Errorf("email and token are required: %w", domain.ErrBadRequest)
	}
	if err := s.emailSender.SendVerificationEmail(ctx, strings.ToLower(strings.TrimSpace(email)), token); err != nil {
		return fmt.Errorf("failed to send email: %w", domain.ErrUpstream)
	}
	return nil
}
