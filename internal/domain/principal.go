package domain

import "time"

// TokenVerifier verifies a bearer token and returns the authenticated principal ID.
type TokenVerifier interface {
	Verify(token string) (principalID string, err error)
}

// TokenIssuer issues bearer tokens. Used by operators' tooling and tests.
type TokenIssuer interface {
	Issue(principalID string, expiry time.Duration) (string, error)
}
