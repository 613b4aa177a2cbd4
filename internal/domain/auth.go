package domain

import "time"

// IdentityClaim is the payload carried by a session token.
// ExpiresAt is always IssuedAt plus the configured token lifetime.
type IdentityClaim struct {
	SubjectID string
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity is the verified caller forwarded to protected handlers.
type Identity struct {
	SubjectID string
	Email     string
	Role      Role
}
