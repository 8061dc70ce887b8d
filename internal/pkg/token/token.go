package token

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	otpMin   = 100000
	otpRange = 900000
)

// NewEmailToken returns a random UUIDv4 string for an email verification link.
func NewEmailToken() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate email token: %w", err)
	}
	return u.String(), nil
}

// NewOTP returns a 6-digit code drawn uniformly from 100000-999999.
func NewOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}
