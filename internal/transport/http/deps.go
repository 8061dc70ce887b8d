package http

import (
	"context"
	"time"

	"github.com/lead-verify/internal/application/notify"
	"github.com/lead-verify/internal/domain"
	"github.com/redis/go-redis/v9"
)

// LeadRepository is the minimal interface the router requires from a lead store.
// Both the DynamoDB and PostgreSQL repos satisfy it.
type LeadRepository interface {
	Put(ctx context.Context, l *domain.Lead) error
	Get(ctx context.Context, leadID string) (*domain.Lead, error)
	GetByEmailToken(ctx context.Context, token string) (*domain.Lead, error)
	SetPhoneOTP(ctx context.Context, leadID, otp string, expiresAt time.Time) error
	// ConsumeEmailToken and ConsumePhoneOTP clear the credential and write
	// lead_status in the same write, only if the credential still matches.
	// They return domain.ErrNotFound otherwise.
	ConsumeEmailToken(ctx context.Context, leadID, token string) (*domain.Lead, error)
	ConsumePhoneOTP(ctx context.Context, leadID, otp string) (*domain.Lead, error)
	Ping(ctx context.Context) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	LeadRepo   LeadRepository
	Mailer     notify.Mailer
	SMSGateway notify.SMSGateway
	// Redis is optional. When set, rate-limit buckets are shared across instances.
	Redis redis.UniversalClient
}
