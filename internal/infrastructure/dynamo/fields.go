package dynamo

// DynamoDB attribute names used in update and condition expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldLeadID            = "lead_id"
	fieldEmailVerified     = "email_verified"
	fieldPhoneVerified     = "phone_verified"
	fieldLeadStatus        = "lead_status"
	fieldEmailToken        = "email_verification_token"
	fieldEmailTokenExpires = "email_verification_token_expires"
	fieldPhoneOTP          = "phone_otp"
	fieldPhoneOTPExpires   = "phone_otp_expires"
	fieldUpdatedAt         = "updated_at"
)

const indexEmailToken = "email_verification_token-index"
