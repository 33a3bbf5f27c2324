package domain

import "time"

// Session owns one active refresh-token correlation per login. Sessions are
// created on successful authentication, rotated on every refresh (same id,
// new token id) and revoked on logout or mass invalidation. They are never
// deleted; revoked rows remain as an audit trail.
type Session struct {
	ID        string
	SubjectID string
	Kind      PrincipalKind

	// TokenID is the correlation id of the current refresh token. Unique
	// across live sessions; replaced wholesale on rotation.
	TokenID string

	// RefreshTokenHash is the SHA-256 fingerprint of the current signed
	// refresh token. The raw token string is never persisted.
	RefreshTokenHash string

	// RefreshExpiresAt is the absolute expiry of the current refresh token.
	// A session past this instant is non-live without a state transition.
	RefreshExpiresAt time.Time

	UserAgent string
	IP        string

	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// Rotate replaces the current refresh token, keeping the session id.
func (s *Session) Rotate(tokenID, tokenHash string, expiresAt time.Time, now time.Time) {
	s.TokenID = tokenID
	s.RefreshTokenHash = tokenHash
	s.RefreshExpiresAt = expiresAt
	s.UpdatedAt = now
}

// Revoke marks the session revoked. Revoking twice is a no-op.
func (s *Session) Revoke(at time.Time) {
	if s.RevokedAt != nil {
		return
	}
	s.RevokedAt = &at
	s.UpdatedAt = at
}

// Live reports whether the session is neither revoked nor past its refresh
// token's expiry.
func (s *Session) Live(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.RefreshExpiresAt)
}
