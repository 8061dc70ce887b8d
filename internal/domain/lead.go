package domain

import "time"

type LeadStatus string

const (
	LeadStatusUnverified LeadStatus = "unverified"
	LeadStatusVerified   LeadStatus = "verified"
)

// Lead is one submitted lead-capture form together with its email and
// phone verification sub-states.
type Lead struct {
	LeadID                        string     `json:"id" dynamodbav:"lead_id" gorm:"column:id;primaryKey;size:26"`
	Name                          string     `json:"name" dynamodbav:"name" gorm:"size:100;not null"`
	Email                         string     `json:"email" dynamodbav:"email" gorm:"size:320;index;not null"`
	Phone                         string     `json:"phone" dynamodbav:"phone" gorm:"size:20;not null"`
	VehicleMake                   string     `json:"vehicle_make" dynamodbav:"vehicle_make" gorm:"size:100;not null"`
	EmailVerified                 bool       `json:"email_verified" dynamodbav:"email_verified" gorm:"not null;default:false"`
	PhoneVerified                 bool       `json:"phone_verified" dynamodbav:"phone_verified" gorm:"not null;default:false"`
	LeadStatus                    LeadStatus `json:"lead_status" dynamodbav:"lead_status" gorm:"size:16;not null;default:'unverified'"`
	EmailVerificationToken        *string    `json:"-" dynamodbav:"email_verification_token,omitempty" gorm:"size:64;uniqueIndex"`
	EmailVerificationTokenExpires *time.Time `json:"-" dynamodbav:"email_verification_token_expires,omitempty"`
	PhoneOTP                      *string    `json:"-" dynamodbav:"phone_otp,omitempty" gorm:"column:phone_otp;size:6"`
	PhoneOTPExpires               *time.Time `json:"-" dynamodbav:"phone_otp_expires,omitempty" gorm:"column:phone_otp_expires"`
	CreatedAt                     time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt                     time.Time  `json:"updated" dynamodbav:"updated_at"`
}

func (Lead) TableName() string { return "leads" }

// State returns the verification state derived from the two channel flags.
func (l *Lead) State() VerificationState {
	return DeriveState(l.EmailVerified, l.PhoneVerified)
}

// CreateLeadRequest is the lead-capture form payload.
type CreateLeadRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,za_phone"`
	VehicleMake string `json:"vehicleMake" validate:"required"`
}
