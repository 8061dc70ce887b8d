package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lead-verify/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeadRepo stores leads in a single relational table.
type LeadRepo struct {
	db *gorm.DB
}

func NewLeadRepo(db *gorm.DB) *LeadRepo {
	return &LeadRepo{db: db}
}

func (r *LeadRepo) Put(ctx context.Context, l *domain.Lead) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LeadRepo) Get(ctx context.Context, leadID string) (*domain.Lead, error) {
	return r.first(ctx, "id = ?", leadID)
}

func (r *LeadRepo) GetByEmailToken(ctx context.Context, token string) (*domain.Lead, error) {
	return r.first(ctx, "email_verification_token = ?", token)
}

// SetPhoneOTP stores a fresh OTP, replacing any earlier one.
func (r *LeadRepo) SetPhoneOTP(ctx context.Context, leadID, otp string, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("id = ?", leadID).
		Updates(map[string]interface{}{
			"phone_otp":         otp,
			"phone_otp_expires": expiresAt.UTC(),
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("lead not found: %w", domain.ErrNotFound)
	}
	return nil
}

// ConsumeEmailToken marks the email channel verified, clears the token and
// sets lead_status in one UPDATE guarded by the current token value.
func (r *LeadRepo) ConsumeEmailToken(ctx context.Context, leadID, token string) (*domain.Lead, error) {
	return r.consume(ctx, leadID, "email_verification_token = ?", token, map[string]interface{}{
		"email_verified":                   true,
		"email_verification_token":         nil,
		"email_verification_token_expires": nil,
		"lead_status":                      statusWhen("phone_verified"),
	})
}

// ConsumePhoneOTP marks the phone channel verified, clears the OTP and sets
// lead_status in one UPDATE guarded by the current OTP value.
func (r *LeadRepo) ConsumePhoneOTP(ctx context.Context, leadID, otp string) (*domain.Lead, error) {
	return r.consume(ctx, leadID, "phone_otp = ?", otp, map[string]interface{}{
		"phone_verified":    true,
		"phone_otp":         nil,
		"phone_otp_expires": nil,
		"lead_status":       statusWhen("email_verified"),
	})
}

func (r *LeadRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// consume applies updates only while guard still matches credential, then
// reads the row back. Flags never revert, so the re-read is at least as new
// as the update.
func (r *LeadRepo) consume(ctx context.Context, leadID, guard string, credential string, updates map[string]interface{}) (*domain.Lead, error) {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("id = ?", leadID).
		Where(guard, credential).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("lead %s: credential not matched: %w", leadID, domain.ErrNotFound)
	}
	return r.Get(ctx, leadID)
}

// statusWhen evaluates to verified when the other channel's flag is already
// set on the row being updated.
func statusWhen(otherFlag string) clause.Expr {
	return gorm.Expr("CASE WHEN "+otherFlag+" THEN ? ELSE ? END",
		string(domain.LeadStatusVerified), string(domain.LeadStatusUnverified))
}

func (r *LeadRepo) first(ctx context.Context, query string, arg interface{}) (*domain.Lead, error) {
	var l domain.Lead
	err := r.db.WithContext(ctx).Where(query, arg).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lead not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}
