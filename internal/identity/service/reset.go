package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/innkeep/innkeep/internal/identity/domain"
	"github.com/innkeep/innkeep/internal/identity/store"
	"github.com/innkeep/innkeep/pkg/cryptox"
	"github.com/innkeep/innkeep/pkg/idx"
)

const minPasswordLength = 8

// ResetConfig tunes the password-reset flow.
type ResetConfig struct {
	TokenTTL    time.Duration
	OTPTTL      time.Duration
	MaxAttempts int
	OTPDigits   int
}

// ResetService drives the dual-channel password-reset flow: a high-entropy
// link token plus a numeric OTP, both required to complete. Failures at
// every stage surface the same generic errors so requests cannot be probed
// for account existence or request state.
type ResetService struct {
	Store       store.Store
	Hasher      PasswordHasher
	Directories Directories
	Notifier    Notifier
	Events      EventLog
	Logger      *slog.Logger
	Config      ResetConfig

	Now func() time.Time
}

func NewResetService(st store.Store, hasher PasswordHasher, dirs Directories, notifier Notifier, events EventLog, logger *slog.Logger, cfg ResetConfig) *ResetService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * time.Minute
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.OTPDigits <= 0 {
		cfg.OTPDigits = 6
	}

	return &ResetService{
		Store:       st,
		Hasher:      hasher,
		Directories: dirs,
		Notifier:    notifier,
		Events:      events,
		Logger:      logger,
		Config:      cfg,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

// Request initiates a reset flow for the email, if it resolves to an active
// account. When it does not, the response is structurally identical to the
// success case so the endpoint cannot be used to enumerate accounts.
func (s *ResetService) Request(ctx context.Context, subjectType domain.SubjectType, email string, meta domain.RequestMeta) (domain.ResetReceipt, error) {
	em, err := domain.NewEmail(email)
	if err != nil {
		return domain.ResetReceipt{}, err
	}

	dir, err := s.Directories.For(subjectType)
	if err != nil {
		return domain.ResetReceipt{}, err
	}

	now := s.Now()
	receipt := domain.ResetReceipt{
		RequestID:    idx.New().String(),
		ExpiresAt:    now.Add(s.Config.TokenTTL),
		OTPExpiresAt: now.Add(s.Config.OTPTTL),
	}

	cred, err := dir.FindForAuthentication(ctx, em)
	if err != nil && domain.KindOf(err) != domain.KindNotFound {
		return domain.ResetReceipt{}, err
	}
	known := err == nil && cred.IsActive

	// Unknown and inactive accounts run the same secret generation and
	// supersede transaction under a decoy subject id; only the insert
	// and the dispatch are skipped.
	subjectID := receipt.RequestID
	if known {
		subjectID = cred.ID
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.ResetReceipt{}, err
	}
	otp, err := cryptox.GenerateOTP(s.Config.OTPDigits)
	if err != nil {
		return domain.ResetReceipt{}, err
	}

	req, err := domain.NewPasswordResetRequest(
		receipt.RequestID,
		subjectID,
		subjectType,
		cryptox.FingerprintToken(token),
		cryptox.FingerprintToken(otp),
		s.Config.MaxAttempts,
		receipt.ExpiresAt,
		receipt.OTPExpiresAt,
		meta,
		now,
	)
	if err != nil {
		return domain.ResetReceipt{}, err
	}

	// A new request supersedes any earlier actionable one for the subject.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.ResetRequests().RevokeActiveSubjectRequests(ctx, subjectID, subjectType, now); err != nil {
			return err
		}
		if !known {
			return nil
		}
		return tx.ResetRequests().CreateResetRequest(ctx, *req)
	})
	if err != nil {
		return domain.ResetReceipt{}, err
	}
	if !known {
		return receipt, nil
	}

	// Delivery failures are the provider's to report; the flow proceeds.
	if err := s.Notifier.SendResetInstructions(ctx, ResetInstructions{
		Email:        cred.Email,
		SubjectType:  subjectType,
		Token:        token,
		OTP:          otp,
		RequestID:    req.ID,
		ExpiresAt:    req.TokenExpiresAt,
		OTPExpiresAt: req.OTPExpiresAt,
	}); err != nil {
		s.Logger.Warn("reset instructions dispatch failed",
			"request_id", req.ID,
			"error", err,
		)
	}

	s.Events.Record(ctx, "password_reset.requested",
		"subject_id", cred.ID,
		"subject_type", subjectType.String(),
		"request_id", req.ID,
	)

	return receipt, nil
}

// VerifyOTP checks the OTP for a pending request. Any failure, missing
// request, wrong subject type, mismatch, expiry or revocation, surfaces the
// same generic error. Mismatches count against the attempt limit and force
// revocation once it is reached.
func (s *ResetService) VerifyOTP(ctx context.Context, requestID string, subjectType domain.SubjectType, otp string) error {
	genericErr := domain.NewInvalidOperation("Invalid or expired OTP")

	req, err := s.Store.ResetRequests().GetResetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return genericErr
		}
		return err
	}
	if req.SubjectType != subjectType {
		return genericErr
	}

	now := s.Now()
	if !cryptox.MatchesFingerprint(otp, req.OTPHash) {
		if now.After(req.TokenExpiresAt) || now.After(req.OTPExpiresAt) {
			req.Expire(now)
			if err := s.Store.ResetRequests().UpdateResetRequest(ctx, req); err != nil {
				return err
			}
			return genericErr
		}

		// The increment is a conditional update in the store; each
		// concurrent wrong submission counts exactly once.
		after, err := s.Store.ResetRequests().RegisterFailedOTPAttempt(ctx, requestID, now)
		if err != nil {
			if errors.Is(err, store.ErrStale) {
				return genericErr
			}
			return err
		}
		if after.Status == domain.ResetRevoked {
			s.Events.Record(ctx, "password_reset.revoked_brute_force",
				"subject_id", after.SubjectID,
				"subject_type", after.SubjectType.String(),
				"request_id", after.ID,
			)
		}
		return genericErr
	}

	if err := req.MarkOTPVerified(now); err != nil {
		if err := s.Store.ResetRequests().UpdateResetRequest(ctx, req); err != nil {
			return err
		}
		return genericErr
	}

	if err := s.Store.ResetRequests().UpdateResetRequest(ctx, req); err != nil {
		return err
	}

	s.Events.Record(ctx, "password_reset.otp_verified",
		"subject_id", req.SubjectID,
		"subject_type", req.SubjectType.String(),
		"request_id", req.ID,
	)
	return nil
}

// Complete finishes a verified reset: updates the password hash, marks the
// request completed and revokes every live session for the subject before
// returning. The link token's fingerprint is the lookup key; the supplied
// request id and subject type must match the stored request.
func (s *ResetService) Complete(ctx context.Context, requestID string, subjectType domain.SubjectType, token, newPassword string) error {
	genericErr := domain.NewInvalidOperation("Invalid or expired reset token")

	if len(newPassword) < minPasswordLength {
		return domain.NewInvalidInput("Password must be at least 8 characters")
	}

	req, err := s.Store.ResetRequests().GetResetRequestByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return genericErr
		}
		return err
	}
	if req.ID != requestID || req.SubjectType != subjectType {
		return genericErr
	}

	now := s.Now()
	if err := req.MarkCompleted(now); err != nil {
		if err := s.Store.ResetRequests().UpdateResetRequest(ctx, req); err != nil {
			return err
		}
		return genericErr
	}

	newHash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	dir, err := s.Directories.For(subjectType)
	if err != nil {
		return err
	}
	if err := dir.UpdatePasswordHash(ctx, req.SubjectID, newHash); err != nil {
		return err
	}

	// Completion and mass revocation commit together: no window where the
	// password is changed but old sessions stay valid.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.ResetRequests().UpdateResetRequest(ctx, req); err != nil {
			return err
		}
		return tx.Sessions().RevokeAllSubjectSessions(ctx, req.SubjectID, subjectType.Principal(), now)
	})
	if err != nil {
		return err
	}

	s.Events.Record(ctx, "password_reset.completed",
		"subject_id", req.SubjectID,
		"subject_type", req.SubjectType.String(),
		"request_id", req.ID,
	)
	return nil
}
