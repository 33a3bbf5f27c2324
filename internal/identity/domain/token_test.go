package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const wellFormedToken = "eyJhbGciOiJIUzI1NiJ9.payload.signature"

func TestNewAccessToken(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		tok, err := NewAccessToken(wellFormedToken, 15*time.Minute)
		require.NoError(t, err)
		require.Equal(t, wellFormedToken, tok.Value())
		require.Equal(t, int64(900), tok.ExpiresIn())
	})

	t.Run("rejects short values", func(t *testing.T) {
		_, err := NewAccessToken("short", 15*time.Minute)
		require.Error(t, err)
		require.Equal(t, KindInvalidInput, KindOf(err))
	})

	t.Run("rejects non-positive lifetime", func(t *testing.T) {
		_, err := NewAccessToken(wellFormedToken, 0)
		require.Error(t, err)
		require.Equal(t, KindInvalidInput, KindOf(err))
	})
}

func TestNewRefreshToken(t *testing.T) {
	t.Parallel()
	expiry := time.Now().Add(7 * 24 * time.Hour)

	t.Run("valid", func(t *testing.T) {
		tok, err := NewRefreshToken(wellFormedToken, expiry, "token-id")
		require.NoError(t, err)
		require.Equal(t, "token-id", tok.TokenID())
		require.Equal(t, expiry, tok.ExpiresAt())
	})

	t.Run("correlation id is mandatory", func(t *testing.T) {
		_, err := NewRefreshToken(wellFormedToken, expiry, "")
		require.Error(t, err)
		require.Equal(t, KindInvalidInput, KindOf(err))
		require.Contains(t, err.Error(), "missing token identifier")
	})
}

func TestNewEmail(t *testing.T) {
	t.Parallel()

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		email, err := NewEmail("  Guest@Example.COM ")
		require.NoError(t, err)
		require.Equal(t, "guest@example.com", email.String())
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := NewEmail("   ")
		require.Error(t, err)
		require.Equal(t, KindInvalidInput, KindOf(err))
	})

	t.Run("rejects malformed", func(t *testing.T) {
		for _, bad := range []string{"not-an-email", "a@", "Name <a@b.com>"} {
			_, err := NewEmail(bad)
			require.Error(t, err, bad)
		}
	})
}

func TestNewClaimPayload(t *testing.T) {
	t.Parallel()

	email, err := NewEmail("staff@example.com")
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		payload, err := NewClaimPayload("subject-1", email, []string{"admin"}, []string{"bookings:write"}, PrincipalStaff, "token-1")
		require.NoError(t, err)
		require.Equal(t, PrincipalStaff, payload.Kind)
	})

	t.Run("requires subject and email", func(t *testing.T) {
		_, err := NewClaimPayload("", email, nil, nil, PrincipalStaff, "t")
		require.Equal(t, KindInvalidInput, KindOf(err))

		_, err = NewClaimPayload("subject-1", "", nil, nil, PrincipalStaff, "t")
		require.Equal(t, KindInvalidInput, KindOf(err))
	})

	t.Run("with token id copies everything else", func(t *testing.T) {
		payload, err := NewClaimPayload("subject-1", email, []string{"admin"}, nil, PrincipalStaff, "token-1")
		require.NoError(t, err)

		rotated := payload.WithTokenID("token-2")
		require.Equal(t, "token-2", rotated.TokenID)
		require.Equal(t, "token-1", payload.TokenID)
		require.Equal(t, payload.SubjectID, rotated.SubjectID)
	})
}

func TestParseEnums(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"staff", "customer"} {
		kind, err := ParsePrincipalKind(valid)
		require.NoError(t, err)
		require.Equal(t, valid, kind.String())

		st, err := ParseSubjectType(valid)
		require.NoError(t, err)
		require.Equal(t, valid, st.String())
		require.Equal(t, kind, st.Principal())
	}

	for _, invalid := range []string{"", "admin", "Staff", strings.ToUpper("customer")} {
		_, err := ParsePrincipalKind(invalid)
		require.Error(t, err)

		_, err = ParseSubjectType(invalid)
		require.Error(t, err)
	}
}
