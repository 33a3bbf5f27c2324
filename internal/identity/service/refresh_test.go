package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/innkeep/innkeep/internal/identity/domain"
	"github.com/innkeep/innkeep/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	env.createAccount(t, domain.SubjectCustomer, "guest@example.com", "guest-password", true)

	login, err := env.auth.Authenticate(ctx, domain.PrincipalCustomer, "guest@example.com", "guest-password", domain.RequestMeta{})
	require.NoError(t, err)

	t.Run("rotation issues a new pair and invalidates the old token", func(t *testing.T) {
		rotated, err := env.refresh.Refresh(ctx, login.RefreshToken, domain.RequestMeta{})
		require.NoError(t, err)
		require.NotEqual(t, login.RefreshToken, rotated.RefreshToken)
		require.Equal(t, int64(900), rotated.ExpiresIn)

		// The claims round-trip with a fresh correlation id.
		oldClaims, err := env.codec.VerifyRefreshToken(login.RefreshToken)
		require.NoError(t, err)
		newClaims, err := env.codec.VerifyRefreshToken(rotated.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, oldClaims.ID, newClaims.ID)
		require.Equal(t, oldClaims.Subject, newClaims.Subject)
		require.Equal(t, oldClaims.Kind, newClaims.Kind)

		// Replaying the rotated-away token finds no session: its correlation
		// id was replaced.
		_, err = env.refresh.Refresh(ctx, login.RefreshToken, domain.RequestMeta{})
		require.Error(t, err)
		require.Equal(t, domain.KindNotFound, domain.KindOf(err))
		require.Equal(t, "Session not found", err.Error())

		// The new token keeps working.
		_, err = env.refresh.Refresh(ctx, rotated.RefreshToken, domain.RequestMeta{})
		require.NoError(t, err)
	})

	t.Run("invalid signature leaves sessions untouched", func(t *testing.T) {
		fresh, err := env.auth.Authenticate(ctx, domain.PrincipalCustomer, "guest@example.com", "guest-password", domain.RequestMeta{})
		require.NoError(t, err)

		_, err = env.refresh.Refresh(ctx, fresh.RefreshToken+"tampered", domain.RequestMeta{})
		require.Error(t, err)
		require.Equal(t, domain.KindUnauthorized, domain.KindOf(err))

		// The untampered token still rotates.
		_, err = env.refresh.Refresh(ctx, fresh.RefreshToken, domain.RequestMeta{})
		require.NoError(t, err)
	})

	t.Run("refresh token without correlation id", func(t *testing.T) {
		claims := jwtx.Claims{Kind: "customer", Email: "guest@example.com"}
		claims.Subject = "subject-1"
		claims.IssuedAt = jwt.NewNumericDate(time.Now())
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))

		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testRefreshSecret)
		require.NoError(t, err)

		_, err = env.refresh.Refresh(ctx, signed, domain.RequestMeta{})
		require.Error(t, err)
		require.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
		require.Equal(t, "Refresh token missing token identifier", err.Error())
	})

	t.Run("session past its refresh expiry", func(t *testing.T) {
		fresh, err := env.auth.Authenticate(ctx, domain.PrincipalCustomer, "guest@example.com", "guest-password", domain.RequestMeta{})
		require.NoError(t, err)

		env.refresh.Now = func() time.Time { return time.Now().UTC().Add(8 * 24 * time.Hour) }
		defer func() { env.refresh.Now = func() time.Time { return time.Now().UTC() } }()

		_, err = env.refresh.Refresh(ctx, fresh.RefreshToken, domain.RequestMeta{})
		require.Error(t, err)
		require.Equal(t, domain.KindInvalidOperation, domain.KindOf(err))
		require.Equal(t, "Refresh token expired or revoked", err.Error())
	})
}

func TestRefreshConcurrentRotation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	env.createAccount(t, domain.SubjectCustomer, "guest@example.com", "guest-password", true)

	login, err := env.auth.Authenticate(ctx, domain.PrincipalCustomer, "guest@example.com", "guest-password", domain.RequestMeta{})
	require.NoError(t, err)

	// Sequential calls with the same token model the race outcome: the
	// conditional update lets exactly one rotation win.
	_, firstErr := env.refresh.Refresh(ctx, login.RefreshToken, domain.RequestMeta{})
	_, secondErr := env.refresh.Refresh(ctx, login.RefreshToken, domain.RequestMeta{})

	require.NoError(t, firstErr)
	require.Error(t, secondErr)
}
