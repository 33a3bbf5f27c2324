package store

import (
	"context"
	"errors"
	"time"

	"github.com/innkeep/innkeep/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrStale reports a conditional update whose guard no longer matched,
	// e.g. a session rotation racing another rotation of the same token.
	ErrStale = errors.New("store: stale update")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable.
type Store interface {
	Sessions() Sessions
	ResetRequests() ResetRequests
	StaffAccounts() Accounts
	CustomerAccounts() Accounts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to handle multi-step operations that must be atomic
	// (e.g. reset completion plus mass session revocation).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Sessions interface {
	// CreateSession stores a new session row.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByTokenID returns the session owning the given refresh
	// token correlation id.
	GetSessionByTokenID(ctx context.Context, tokenID string) (domain.Session, error)

	// RotateSession replaces the session's refresh token in a single
	// conditional update: it only applies while the stored token id still
	// equals prevTokenID. Returns ErrStale when a concurrent rotation won.
	RotateSession(ctx context.Context, sessionID, prevTokenID, tokenID, tokenHash string, expiresAt, now time.Time) error

	// RevokeSession stamps revoked_at if it is still null. Revoking an
	// already revoked session is a no-op.
	RevokeSession(ctx context.Context, sessionID string, at time.Time) error

	// RevokeAllSubjectSessions bulk-revokes every live session for a
	// subject of the given kind (password reset, account compromise).
	RevokeAllSubjectSessions(ctx context.Context, subjectID string, kind domain.PrincipalKind, at time.Time) error

	// ListSubjectSessions returns all sessions for a subject, newest first.
	ListSubjectSessions(ctx context.Context, subjectID string, kind domain.PrincipalKind) ([]domain.Session, error)
}

type ResetRequests interface {
	// CreateResetRequest stores a freshly minted reset request.
	CreateResetRequest(ctx context.Context, r domain.PasswordResetRequest) error

	// GetResetRequestByID returns a request by id.
	GetResetRequestByID(ctx context.Context, id string) (domain.PasswordResetRequest, error)

	// GetResetRequestByTokenHash returns a request by the fingerprint of
	// its link token. The hash is the lookup key at completion.
	GetResetRequestByTokenHash(ctx context.Context, hash string) (domain.PasswordResetRequest, error)

	// UpdateResetRequest persists the aggregate's mutable state (status,
	// attempts, timestamps).
	UpdateResetRequest(ctx context.Context, r domain.PasswordResetRequest) error

	// RegisterFailedOTPAttempt counts one wrong OTP against a pending
	// request in a single conditional update, revoking the request once
	// attempt_count reaches max_attempts. Concurrent submissions each
	// land exactly once. Returns the post-increment row, or ErrStale
	// when the request was no longer pending.
	RegisterFailedOTPAttempt(ctx context.Context, id string, at time.Time) (domain.PasswordResetRequest, error)

	// RevokeActiveSubjectRequests revokes any pending or otp_verified
	// request for the subject so only one request is actionable at a time.
	RevokeActiveSubjectRequests(ctx context.Context, subjectID string, subjectType domain.SubjectType, at time.Time) error

	// ExpireStaleResetRequests forces expired on active requests whose
	// token expiry has passed. Housekeeping backstop; expiry is otherwise
	// evaluated lazily on access.
	ExpireStaleResetRequests(ctx context.Context, now time.Time) error
}

// Accounts is the credential backing store for one subject type.
type Accounts interface {
	// GetAccountByEmail resolves the authentication record for a login.
	GetAccountByEmail(ctx context.Context, email domain.Email) (domain.Credential, error)

	// CreateAccount inserts a new account (id is provided by app via ULID).
	CreateAccount(ctx context.Context, c domain.Credential) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, accountID, newHash string) error

	// SetAccountActive toggles the active flag.
	SetAccountActive(ctx context.Context, accountID string, active bool) error
}
