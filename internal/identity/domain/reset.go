package domain

import "time"

// ResetStatus is the password-reset request state machine:
//
//	pending -> otp_verified -> completed        (success path)
//	pending -> expired                          (liveness failure)
//	pending | otp_verified -> revoked           (superseded, brute force, abuse)
//
// completed, expired and revoked are terminal.
type ResetStatus string

const (
	ResetPending     ResetStatus = "pending"
	ResetOTPVerified ResetStatus = "otp_verified"
	ResetCompleted   ResetStatus = "completed"
	ResetExpired     ResetStatus = "expired"
	ResetRevoked     ResetStatus = "revoked"
)

// PasswordResetRequest drives the dual-channel (link token + OTP) reset
// flow. Only hashes of the token and OTP are ever stored; the plaintext
// secrets exist once, at creation, on their way to the notification
// dispatcher.
type PasswordResetRequest struct {
	ID          string
	SubjectID   string
	SubjectType SubjectType

	TokenHash string
	OTPHash   string

	Status       ResetStatus
	AttemptCount int
	MaxAttempts  int

	TokenExpiresAt time.Time
	OTPExpiresAt   time.Time

	VerifiedAt    *time.Time
	CompletedAt   *time.Time
	RevokedAt     *time.Time
	LastAttemptAt *time.Time

	UserAgent string
	IP        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPasswordResetRequest starts a reset flow in the pending state.
func NewPasswordResetRequest(
	id, subjectID string,
	subjectType SubjectType,
	tokenHash, otpHash string,
	maxAttempts int,
	tokenExpiresAt, otpExpiresAt time.Time,
	meta RequestMeta,
	now time.Time,
) (*PasswordResetRequest, error) {
	if maxAttempts <= 0 {
		return nil, NewInvalidInput("Reset max attempts must be positive")
	}

	return &PasswordResetRequest{
		ID:             id,
		SubjectID:      subjectID,
		SubjectType:    subjectType,
		TokenHash:      tokenHash,
		OTPHash:        otpHash,
		Status:         ResetPending,
		MaxAttempts:    maxAttempts,
		TokenExpiresAt: tokenExpiresAt,
		OTPExpiresAt:   otpExpiresAt,
		UserAgent:      meta.UserAgent,
		IP:             meta.IP,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsTerminal reports whether the request can no longer transition.
func (r *PasswordResetRequest) IsTerminal() bool {
	switch r.Status {
	case ResetCompleted, ResetExpired, ResetRevoked:
		return true
	default:
		return false
	}
}

// Active reports whether the request is still actionable (pending or
// otp_verified).
func (r *PasswordResetRequest) Active() bool {
	return r.Status == ResetPending || r.Status == ResetOTPVerified
}

// MarkOTPVerified moves pending -> otp_verified. If either expiry has
// passed, the request transitions to expired instead and the call fails.
func (r *PasswordResetRequest) MarkOTPVerified(at time.Time) error {
	if r.Status == ResetRevoked {
		return NewInvalidOperation("Password reset request has been revoked")
	}
	if r.Status != ResetPending {
		return NewInvalidState("Password reset request is not pending")
	}
	if r.expired(at) {
		r.Expire(at)
		return NewInvalidOperation("Password reset request has expired")
	}

	r.Status = ResetOTPVerified
	r.VerifiedAt = &at
	r.UpdatedAt = at
	return nil
}

// RegisterFailedOTPAttempt records a wrong OTP. Once the attempt count
// reaches the configured maximum the request is forcibly revoked: the
// attempt is still recorded even though the aggregate is now terminal.
func (r *PasswordResetRequest) RegisterFailedOTPAttempt(at time.Time) error {
	if r.Status == ResetRevoked {
		return NewInvalidOperation("Password reset request has been revoked")
	}
	if r.Status != ResetPending {
		return NewInvalidState("Password reset request is not pending")
	}
	if r.expired(at) {
		r.Expire(at)
		return NewInvalidOperation("Password reset request has expired")
	}

	r.AttemptCount++
	r.LastAttemptAt = &at
	r.UpdatedAt = at

	if r.AttemptCount >= r.MaxAttempts {
		r.Status = ResetRevoked
		r.RevokedAt = &at
	}
	return nil
}

// MarkCompleted moves otp_verified -> completed. The token expiry is
// re-checked: it may have lapsed between verification and completion.
func (r *PasswordResetRequest) MarkCompleted(at time.Time) error {
	if r.Status != ResetOTPVerified {
		return NewInvalidState("Password reset request is not OTP-verified")
	}
	if at.After(r.TokenExpiresAt) {
		r.Expire(at)
		return NewInvalidOperation("Password reset token has expired")
	}

	r.Status = ResetCompleted
	r.CompletedAt = &at
	r.UpdatedAt = at
	return nil
}

// Revoke terminates the request. A completed flow cannot be resurrected or
// revoked; revoking an already revoked request is a no-op.
func (r *PasswordResetRequest) Revoke(at time.Time) error {
	if r.Status == ResetCompleted {
		return NewInvalidState("Cannot revoke a completed password reset request")
	}
	if r.Status == ResetRevoked {
		return nil
	}

	r.Status = ResetRevoked
	r.RevokedAt = &at
	r.UpdatedAt = at
	return nil
}

// Expire forces the expired state. No-op when the request is already
// terminal; this is the designed outcome of any liveness check failing
// during a guarded transition.
func (r *PasswordResetRequest) Expire(at time.Time) {
	if r.IsTerminal() {
		return
	}
	r.Status = ResetExpired
	r.RevokedAt = &at
	r.UpdatedAt = at
}

func (r *PasswordResetRequest) expired(at time.Time) bool {
	return at.After(r.TokenExpiresAt) || at.After(r.OTPExpiresAt)
}

// ResetReceipt is returned by reset initiation. It is structurally identical
// whether or not the email resolved to an account, to resist enumeration.
type ResetReceipt struct {
	RequestID    string    `json:"request_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	OTPExpiresAt time.Time `json:"otp_expires_at"`
}
