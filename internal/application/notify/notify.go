// Package notify delivers lead verification credentials: the email link and
// the phone OTP. Senders make exactly one delivery attempt.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"time"

	"github.com/lead-verify/internal/pkg/phone"
)

// Mailer is the minimal interface the email sender requires from a mail transport.
type Mailer interface {
	SendEmail(to, subject, htmlBody string) error
}

// SMSGateway is the minimal interface the OTP sender requires from an SMS/WhatsApp provider.
type SMSGateway interface {
	SendSMS(ctx context.Context, to, message string) error
}

const verificationSubject = "Verify your email - Phik'a Vehicle Protection"

// EmailSender emails verification links pointing at {baseURL}/verify-email.
type EmailSender struct {
	mailer  Mailer
	baseURL string
}

func NewEmailSender(mailer Mailer, baseURL string) *EmailSender {
	return &EmailSender{mailer: mailer, baseURL: baseURL}
}

// VerificationURL embeds token as the token query parameter.
func VerificationURL(baseURL, token string) string {
	return baseURL + "/verify-email?" + url.Values{"token": {token}}.Encode()
}

func (s *EmailSender) SendVerificationEmail(ctx context.Context, to, token string) error {
	link := VerificationURL(s.baseURL, token)
	if err := s.mailer.SendEmail(to, verificationSubject, verificationBody(link)); err != nil {
		slog.ErrorContext(ctx, "verification email failed", "to", to, "err", err)
		return fmt.Errorf("send verification email: %w", err)
	}
	slog.InfoContext(ctx, "verification email sent", "to", to)
	return nil
}

func verificationBody(link string) string {
	l := html.EscapeString(link)
	return `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Welcome to Phik'a Vehicle Protection!</h1>
  <p>Thank you for your interest in protecting your vehicle's value.</p>
  <p>Please verify your email address by clicking the link below:</p>
  <p><a href="` + l + `">Verify Email Address</a></p>
  <p>Or copy and paste this link into your browser:<br/>` + l + `</p>
  <p style="color: #666; font-size: 12px;">If you didn't request this, you can safely ignore this email.</p>
</div>`
}

// OTPSender texts one-time codes through an SMS gateway. ttl is only quoted
// in the message; expiry is enforced by the verification service.
type OTPSender struct {
	gateway     SMSGateway
	countryCode string
	ttl         time.Duration
}

func NewOTPSender(gateway SMSGateway, countryCode string, ttl time.Duration) *OTPSender {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OTPSender{gateway: gateway, countryCode: countryCode, ttl: ttl}
}

// OTPMessage is the text delivered with a code valid for ttl.
func OTPMessage(otp string, ttl time.Duration) string {
	return fmt.Sprintf("Your Phik'a verification code is: %s. Valid for %s.", otp, humanDuration(ttl))
}

// humanDuration renders d in the largest whole unit, e.g. "5 minutes".
func humanDuration(d time.Duration) string {
	n, unit := int64(d.Round(time.Second)/time.Second), "second"
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		n, unit = int64(d/time.Hour), "hour"
	case d >= time.Minute && d%time.Minute == 0:
		n, unit = int64(d/time.Minute), "minute"
	}
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", n, unit)
}

func (s *OTPSender) SendOTP(ctx context.Context, phoneNumber, otp string) error {
	to := phone.Dialable(phoneNumber, s.countryCode)
	if err := s.gateway.SendSMS(ctx, to, OTPMessage(otp, s.ttl)); err != nil {
		slog.ErrorContext(ctx, "otp delivery failed", "to", to, "err", err)
		return fmt.Errorf("send otp: %w", err)
	}
	slog.InfoContext(ctx, "otp sent", "to", to)
	return nil
}

// LogGateway is an SMSGateway for development that only logs messages.
type LogGateway struct {
	logger *slog.Logger
}

func NewLogGateway(logger *slog.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) SendSMS(ctx context.Context, to, message string) error {
	g.logger.InfoContext(ctx, "sms not delivered (log gateway)", "to", to, "message", message)
	return nil
}
