package domain

// VerificationState is the combined state of the email and phone channels.
// Flags only move from false to true, so transitions are additive.
type VerificationState int

const (
	Unverified VerificationState = iota
	EmailOnly
	PhoneOnly
	FullyVerified
)

func (s VerificationState) String() string {
	switch s {
	case EmailOnly:
		return "email_only"
	case PhoneOnly:
		return "phone_only"
	case FullyVerified:
		return "fully_verified"
	default:
		return "unverified"
	}
}

// DeriveState maps the two channel flags to a VerificationState.
func DeriveState(emailVerified, phoneVerified bool) VerificationState {
	switch {
	case emailVerified && phoneVerified:
		return FullyVerified
	case emailVerified:
		return EmailOnly
	case phoneVerified:
		return PhoneOnly
	default:
		return Unverified
	}
}

// Status is the persisted lead_status for the state.
func (s VerificationState) Status() LeadStatus {
	if s == FullyVerified {
		return LeadStatusVerified
	}
	return LeadStatusUnverified
}
