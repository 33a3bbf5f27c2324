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
	"github.com/innkeep/innkeep/pkg/jwtx"
)

// RefreshService rotates access/refresh token pairs against their session.
type RefreshService struct {
	Store  store.Store
	Codec  *jwtx.Codec
	Events EventLog
	Logger *slog.Logger

	Now func() time.Time
}

func NewRefreshService(st store.Store, codec *jwtx.Codec, events EventLog, logger *slog.Logger) *RefreshService {
	return &RefreshService{
		Store:  st,
		Codec:  codec,
		Events: events,
		Logger: logger,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// Refresh verifies a refresh token, checks its session is live and rotates
// the pair. The rotation is a conditional update keyed on the token id read
// here, so of two concurrent refreshes carrying the same token exactly one
// wins; the loser observes the session as no longer live.
func (s *RefreshService) Refresh(ctx context.Context, refreshToken string, meta domain.RequestMeta) (domain.TokenResponse, error) {
	claims, err := s.Codec.VerifyRefreshToken(refreshToken)
	if err != nil {
		return domain.TokenResponse{}, domain.NewUnauthorized("Invalid or expired refresh token")
	}
	if claims.ID == "" {
		return domain.TokenResponse{}, domain.NewInvalidInput("Refresh token missing token identifier")
	}

	sess, err := s.Store.Sessions().GetSessionByTokenID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenResponse{}, domain.NewNotFound("Session not found")
		}
		return domain.TokenResponse{}, err
	}

	now := s.Now()
	if !sess.Live(now) {
		return domain.TokenResponse{}, domain.NewInvalidOperation("Refresh token expired or revoked")
	}

	// The presented token must be the session's current token, not merely
	// one sharing its correlation id.
	if !cryptox.MatchesFingerprint(refreshToken, sess.RefreshTokenHash) {
		return domain.TokenResponse{}, domain.NewInvalidOperation("Refresh token expired or revoked")
	}

	kind, err := domain.ParsePrincipalKind(claims.Kind)
	if err != nil {
		return domain.TokenResponse{}, domain.NewUnauthorized("Invalid or expired refresh token")
	}

	// All claim fields carry over; only the correlation id is regenerated.
	tokenID := idx.New().String()
	payload, err := domain.NewClaimPayload(claims.Subject, domain.Email(claims.Email), claims.Roles, claims.Permissions, kind, tokenID)
	if err != nil {
		return domain.TokenResponse{}, err
	}

	pair, err := issuePair(s.Codec, payload)
	if err != nil {
		return domain.TokenResponse{}, err
	}

	err = s.Store.Sessions().RotateSession(ctx,
		sess.ID,
		sess.TokenID,
		tokenID,
		cryptox.FingerprintToken(pair.Refresh.Value()),
		pair.Refresh.ExpiresAt(),
		now,
	)
	if err != nil {
		if errors.Is(err, store.ErrStale) {
			return domain.TokenResponse{}, domain.NewInvalidOperation("Refresh token expired or revoked")
		}
		return domain.TokenResponse{}, err
	}

	s.Events.Record(ctx, "auth.refresh",
		"subject_id", sess.SubjectID,
		"kind", sess.Kind.String(),
		"session_id", sess.ID,
	)

	return tokenResponse(pair), nil
}
