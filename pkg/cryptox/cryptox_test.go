package cryptox

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.Contains(t, hash, "$argon2id$v=19$")

	t.Run("accepts the right password", func(t *testing.T) {
		require.NoError(t, VerifyPassword("correct horse battery staple", hash))
	})

	t.Run("rejects the wrong password", func(t *testing.T) {
		require.Error(t, VerifyPassword("wrong password", hash))
	})

	t.Run("rejects malformed hashes", func(t *testing.T) {
		require.Error(t, VerifyPassword("anything", "not-a-phc-hash"))
	})

	t.Run("salts produce distinct hashes", func(t *testing.T) {
		other, err := HashPassword("correct horse battery staple")
		require.NoError(t, err)
		require.NotEqual(t, hash, other)
	})
}

func TestArgon2HasherPort(t *testing.T) {
	t.Parallel()

	hasher := Argon2Hasher{}
	hash, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)
	require.NoError(t, hasher.Compare("s3cret-pass", hash))
	require.Error(t, hasher.Compare("other", hash))
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	t.Run("expected encoded lengths", func(t *testing.T) {
		tok, err := GenerateToken(TokenSize256)
		require.NoError(t, err)
		require.Len(t, tok, 43)
	})

	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := GenerateToken(0)
		require.Error(t, err)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		a, err := GenerateToken(TokenSize128)
		require.NoError(t, err)
		b, err := GenerateToken(TokenSize128)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	fp := FingerprintToken("some-token")
	require.Len(t, fp, 43)
	require.Equal(t, fp, FingerprintToken("some-token"))
	require.NotEqual(t, fp, FingerprintToken("other-token"))

	require.True(t, MatchesFingerprint("some-token", fp))
	require.False(t, MatchesFingerprint("other-token", fp))
}

func TestGenerateOTP(t *testing.T) {
	t.Parallel()

	t.Run("fixed length, digits only", func(t *testing.T) {
		for range 50 {
			otp, err := GenerateOTP(6)
			require.NoError(t, err)
			require.Len(t, otp, 6)
			for _, c := range otp {
				require.True(t, c >= '0' && c <= '9')
			}
		}
	})

	t.Run("rejects out of range digit counts", func(t *testing.T) {
		_, err := GenerateOTP(0)
		require.Error(t, err)
		_, err = GenerateOTP(11)
		require.Error(t, err)
	})
}

func TestPepperConcurrentLoad(t *testing.T) {
	SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	results := make([]string, 8)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = GetPepper()
		}()
	}
	wg.Wait()

	require.NotEmpty(t, results[0])
	for _, p := range results {
		require.Equal(t, results[0], p)
	}
}
