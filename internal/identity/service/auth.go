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

// AuthService authenticates staff and customer principals, opens sessions
// and handles logout.
type AuthService struct {
	Store       store.Store
	Codec       *jwtx.Codec
	Hasher      PasswordHasher
	Directories Directories
	Events      EventLog
	Logger      *slog.Logger

	// Now is the clock; overridable in tests.
	Now func() time.Time
}

func NewAuthService(st store.Store, codec *jwtx.Codec, hasher PasswordHasher, dirs Directories, events EventLog, logger *slog.Logger) *AuthService {
	return &AuthService{
		Store:       st,
		Codec:       codec,
		Hasher:      hasher,
		Directories: dirs,
		Events:      events,
		Logger:      logger,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

// Authenticate validates credentials for the given principal kind and opens
// a fresh session. Every credential failure surfaces the same generic error
// so callers cannot tell which check failed.
func (s *AuthService) Authenticate(ctx context.Context, kind domain.PrincipalKind, email, password string, meta domain.RequestMeta) (domain.TokenResponse, error) {
	em, err := domain.NewEmail(email)
	if err != nil {
		return domain.TokenResponse{}, err
	}

	dir, err := s.Directories.For(kind.Subject())
	if err != nil {
		return domain.TokenResponse{}, err
	}

	cred, err := dir.FindForAuthentication(ctx, em)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return domain.TokenResponse{}, domain.NewUnauthorized("Invalid credentials")
		}
		return domain.TokenResponse{}, err
	}

	if err := s.Hasher.Compare(password, cred.PasswordHash); err != nil {
		return domain.TokenResponse{}, domain.NewUnauthorized("Invalid credentials")
	}

	if !cred.IsActive {
		return domain.TokenResponse{}, domain.NewInvalidState(titleKind(kind) + " account is not active")
	}

	tokenID := idx.New().String()
	payload, err := domain.NewClaimPayload(cred.ID, cred.Email, cred.Roles, cred.Permissions, kind, tokenID)
	if err != nil {
		return domain.TokenResponse{}, err
	}

	pair, err := s.issuePair(payload)
	if err != nil {
		return domain.TokenResponse{}, err
	}

	now := s.Now()
	session := domain.Session{
		ID:               idx.New().String(),
		SubjectID:        cred.ID,
		Kind:             kind,
		TokenID:          tokenID,
		RefreshTokenHash: cryptox.FingerprintToken(pair.Refresh.Value()),
		RefreshExpiresAt: pair.Refresh.ExpiresAt(),
		UserAgent:        meta.UserAgent,
		IP:               meta.IP,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		return domain.TokenResponse{}, err
	}

	s.Events.Record(ctx, "auth.login",
		"subject_id", cred.ID,
		"kind", kind.String(),
		"session_id", session.ID,
	)

	return tokenResponse(pair), nil
}

// Logout revokes the session owning the given refresh token. Logout of an
// unknown session is a silent no-op so repeated logouts stay idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.Codec.VerifyRefreshToken(refreshToken)
	if err != nil {
		return domain.NewUnauthorized("Invalid or expired refresh token")
	}
	if claims.ID == "" {
		return domain.NewInvalidInput("Refresh token missing token identifier")
	}

	sess, err := s.Store.Sessions().GetSessionByTokenID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.Store.Sessions().RevokeSession(ctx, sess.ID, s.Now()); err != nil {
		return err
	}

	s.Events.Record(ctx, "auth.logout",
		"subject_id", sess.SubjectID,
		"kind", sess.Kind.String(),
		"session_id", sess.ID,
	)
	return nil
}

// issuePair signs an access/refresh pair for the payload and wraps the raw
// strings in their domain value objects.
func (s *AuthService) issuePair(payload domain.ClaimPayload) (domain.TokenPair, error) {
	return issuePair(s.Codec, payload)
}

func issuePair(codec *jwtx.Codec, payload domain.ClaimPayload) (domain.TokenPair, error) {
	signed, err := codec.IssueTokenPair(claimsFor(payload))
	if err != nil {
		return domain.TokenPair{}, err
	}

	access, err := domain.NewAccessToken(signed.AccessToken, codec.AccessTTL())
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := domain.NewRefreshToken(signed.RefreshToken, signed.RefreshExpiresAt, payload.TokenID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{Access: access, Refresh: refresh}, nil
}

func claimsFor(payload domain.ClaimPayload) jwtx.Claims {
	claims := jwtx.Claims{
		Email:       payload.Email.String(),
		Roles:       payload.Roles,
		Permissions: payload.Permissions,
		Kind:        payload.Kind.String(),
	}
	claims.Subject = payload.SubjectID
	claims.ID = payload.TokenID
	return claims
}

func tokenResponse(pair domain.TokenPair) domain.TokenResponse {
	return domain.TokenResponse{
		AccessToken:  pair.Access.Value(),
		RefreshToken: pair.Refresh.Value(),
		TokenType:    domain.TokenTypeBearer,
		ExpiresIn:    pair.Access.ExpiresIn(),
	}
}

func titleKind(kind domain.PrincipalKind) string {
	switch kind {
	case domain.PrincipalStaff:
		return "Staff"
	case domain.PrincipalCustomer:
		return "Customer"
	default:
		return "Account"
	}
}
