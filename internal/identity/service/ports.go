package service

import (
	"context"
	"time"

	"github.com/innkeep/innkeep/internal/identity/domain"
)

// PasswordHasher is the one-way credential hash used for login verification
// and password updates. Compare returns an error on mismatch.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, encodedHash string) error
}

// CredentialDirectory resolves authentication records for one subject type
// and applies password updates back to it. Implementations translate their
// own absence signal into a domain not-found error.
type CredentialDirectory interface {
	FindForAuthentication(ctx context.Context, email domain.Email) (domain.Credential, error)
	UpdatePasswordHash(ctx context.Context, subjectID, newHash string) error
}

// Directories routes credential operations to the directory owning each
// subject type. Staff and customer credentials live in separate directories
// so the orchestrators never mix them up.
type Directories struct {
	Staff    CredentialDirectory
	Customer CredentialDirectory
}

// For resolves the directory for a subject type.
func (d Directories) For(t domain.SubjectType) (CredentialDirectory, error) {
	switch t {
	case domain.SubjectStaff:
		if d.Staff == nil {
			return nil, domain.NewInvalidInput("Staff directory is not configured")
		}
		return d.Staff, nil
	case domain.SubjectCustomer:
		if d.Customer == nil {
			return nil, domain.NewInvalidInput("Customer directory is not configured")
		}
		return d.Customer, nil
	default:
		return nil, domain.NewInvalidInput("Unknown subject type")
	}
}

// ResetInstructions carries the only plaintext copies of the reset token and
// OTP, on their way to the delivery provider. Never persisted, never logged
// above debug level.
type ResetInstructions struct {
	Email        domain.Email
	SubjectType  domain.SubjectType
	Token        string
	OTP          string
	RequestID    string
	ExpiresAt    time.Time
	OTPExpiresAt time.Time
}

// Notifier dispatches reset instructions out of band. Fire-and-forget from
// the orchestrator's perspective; delivery failures are the provider's to
// report and must not fail the reset flow.
type Notifier interface {
	SendResetInstructions(ctx context.Context, in ResetInstructions) error
}

// EventLog records security-relevant events with structured context. Values
// passed as attrs must never include plaintext secrets.
type EventLog interface {
	Record(ctx context.Context, event string, attrs ...any)
}
