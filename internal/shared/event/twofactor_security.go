package event

const TwoFactorSecurityDestination string = "twofactor_security"
const TwoFactorSecurityConsumerNotification string = "twofactor_security_notification"

// Kinds of TwoFactorSecurityMessage.
const (
	TwoFactorSecurityMismatch string = "mismatch"
	TwoFactorSecurityLockout  string = "lockout"
	TwoFactorSecurityVerified string = "verified"
)

type TwoFactorSecurityMessage struct {
	Kind       string `json:"kind"`
	IdentityID string `json:"identity_id"`
	Email      string `json:"email"`
	// OwnerID is the identity the record belongs to, set on mismatch events.
	OwnerID    string `json:"owner_id,omitempty"`
	OccurredAt int64  `json:"occurred_at"`
}
