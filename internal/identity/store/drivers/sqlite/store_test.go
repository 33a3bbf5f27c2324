package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/innkeep/innkeep/internal/identity/domain"
	"github.com/innkeep/innkeep/internal/identity/store"
	"github.com/innkeep/innkeep/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newStoredSession(t *testing.T, st *Store, subjectID string, kind domain.PrincipalKind) domain.Session {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	s := domain.Session{
		ID:               idx.New().String(),
		SubjectID:        subjectID,
		Kind:             kind,
		TokenID:          idx.New().String(),
		RefreshTokenHash: "hash-" + idx.New().String(),
		RefreshExpiresAt: now.Add(time.Hour),
		UserAgent:        "test-agent",
		IP:               "127.0.0.1",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, st.Sessions().CreateSession(context.Background(), s))
	return s
}

func TestSessionsRoundTrip(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	created := newStoredSession(t, st, "subject-1", domain.PrincipalCustomer)

	got, err := st.Sessions().GetSessionByTokenID(ctx, created.TokenID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, created.SubjectID, got.SubjectID)
	require.Equal(t, created.Kind, got.Kind)
	require.Equal(t, created.RefreshTokenHash, got.RefreshTokenHash)
	require.Equal(t, "test-agent", got.UserAgent)
	require.Nil(t, got.RevokedAt)

	_, err = st.Sessions().GetSessionByTokenID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSessionsUniqueTokenID(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	created := newStoredSession(t, st, "subject-1", domain.PrincipalStaff)

	dup := created
	dup.ID = idx.New().String()
	err := st.Sessions().CreateSession(ctx, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestRotateSession(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	created := newStoredSession(t, st, "subject-1", domain.PrincipalCustomer)

	t.Run("rotation replaces the token", func(t *testing.T) {
		nextID := idx.New().String()
		err := st.Sessions().RotateSession(ctx, created.ID, created.TokenID, nextID, "next-hash", now.Add(2*time.Hour), now)
		require.NoError(t, err)

		got, err := st.Sessions().GetSessionByTokenID(ctx, nextID)
		require.NoError(t, err)
		require.Equal(t, created.ID, got.ID)
		require.Equal(t, "next-hash", got.RefreshTokenHash)

		// The old correlation id no longer resolves.
		_, err = st.Sessions().GetSessionByTokenID(ctx, created.TokenID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("stale rotation loses", func(t *testing.T) {
		// created.TokenID was already rotated away above.
		err := st.Sessions().RotateSession(ctx, created.ID, created.TokenID, idx.New().String(), "hash", now.Add(time.Hour), now)
		require.ErrorIs(t, err, store.ErrStale)
	})

	t.Run("revoked sessions cannot rotate", func(t *testing.T) {
		other := newStoredSession(t, st, "subject-2", domain.PrincipalCustomer)
		require.NoError(t, st.Sessions().RevokeSession(ctx, other.ID, now))

		err := st.Sessions().RotateSession(ctx, other.ID, other.TokenID, idx.New().String(), "hash", now.Add(time.Hour), now)
		require.ErrorIs(t, err, store.ErrStale)
	})
}

func TestRevokeSessionIdempotent(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	created := newStoredSession(t, st, "subject-1", domain.PrincipalStaff)

	require.NoError(t, st.Sessions().RevokeSession(ctx, created.ID, now))

	got, err := st.Sessions().GetSessionByTokenID(ctx, created.TokenID)
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	first := *got.RevokedAt

	// Second revoke keeps the original timestamp.
	require.NoError(t, st.Sessions().RevokeSession(ctx, created.ID, now.Add(time.Hour)))
	got, err = st.Sessions().GetSessionByTokenID(ctx, created.TokenID)
	require.NoError(t, err)
	require.Equal(t, first, *got.RevokedAt)
}

func TestRevokeAllSubjectSessions(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	a := newStoredSession(t, st, "subject-1", domain.PrincipalCustomer)
	b := newStoredSession(t, st, "subject-1", domain.PrincipalCustomer)
	// Same subject id under the other kind must be untouched.
	c := newStoredSession(t, st, "subject-1", domain.PrincipalStaff)

	require.NoError(t, st.Sessions().RevokeAllSubjectSessions(ctx, "subject-1", domain.PrincipalCustomer, now))

	for _, tokenID := range []string{a.TokenID, b.TokenID} {
		got, err := st.Sessions().GetSessionByTokenID(ctx, tokenID)
		require.NoError(t, err)
		require.NotNil(t, got.RevokedAt)
	}

	got, err := st.Sessions().GetSessionByTokenID(ctx, c.TokenID)
	require.NoError(t, err)
	require.Nil(t, got.RevokedAt)

	sessions, err := st.Sessions().ListSubjectSessions(ctx, "subject-1", domain.PrincipalCustomer)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
}

func newStoredResetRequest(t *testing.T, st *Store, subjectID string, status domain.ResetStatus) domain.PasswordResetRequest {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	req, err := domain.NewPasswordResetRequest(
		idx.New().String(), subjectID, domain.SubjectCustomer,
		"token-hash-"+idx.New().String(), "otp-hash",
		3,
		now.Add(30*time.Minute), now.Add(10*time.Minute),
		domain.RequestMeta{UserAgent: "test", IP: "127.0.0.1"},
		now,
	)
	require.NoError(t, err)
	req.Status = status

	require.NoError(t, st.ResetRequests().CreateResetRequest(context.Background(), *req))
	return *req
}

func TestResetRequestsRoundTrip(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	created := newStoredResetRequest(t, st, "subject-1", domain.ResetPending)

	byID, err := st.ResetRequests().GetResetRequestByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.TokenHash, byID.TokenHash)
	require.Equal(t, domain.SubjectCustomer, byID.SubjectType)
	require.Equal(t, domain.ResetPending, byID.Status)

	byHash, err := st.ResetRequests().GetResetRequestByTokenHash(ctx, created.TokenHash)
	require.NoError(t, err)
	require.Equal(t, created.ID, byHash.ID)

	_, err = st.ResetRequests().GetResetRequestByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegisterFailedOTPAttempt(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	created := newStoredResetRequest(t, st, "subject-1", domain.ResetPending)

	t.Run("increments while pending", func(t *testing.T) {
		for want := 1; want < created.MaxAttempts; want++ {
			got, err := st.ResetRequests().RegisterFailedOTPAttempt(ctx, created.ID, now)
			require.NoError(t, err)
			require.Equal(t, want, got.AttemptCount)
			require.Equal(t, domain.ResetPending, got.Status)
			require.NotNil(t, got.LastAttemptAt)
		}
	})

	t.Run("the final attempt revokes", func(t *testing.T) {
		got, err := st.ResetRequests().RegisterFailedOTPAttempt(ctx, created.ID, now)
		require.NoError(t, err)
		require.Equal(t, created.MaxAttempts, got.AttemptCount)
		require.Equal(t, domain.ResetRevoked, got.Status)
		require.NotNil(t, got.RevokedAt)
	})

	t.Run("non-pending requests are stale", func(t *testing.T) {
		_, err := st.ResetRequests().RegisterFailedOTPAttempt(ctx, created.ID, now)
		require.ErrorIs(t, err, store.ErrStale)

		verified := newStoredResetRequest(t, st, "subject-2", domain.ResetOTPVerified)
		_, err = st.ResetRequests().RegisterFailedOTPAttempt(ctx, verified.ID, now)
		require.ErrorIs(t, err, store.ErrStale)
	})
}

func TestUpdateResetRequest(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	req := newStoredResetRequest(t, st, "subject-1", domain.ResetPending)

	require.NoError(t, req.MarkOTPVerified(now))
	require.NoError(t, st.ResetRequests().UpdateResetRequest(ctx, req))

	got, err := st.ResetRequests().GetResetRequestByID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ResetOTPVerified, got.Status)
	require.NotNil(t, got.VerifiedAt)

	missing := req
	missing.ID = "missing"
	require.ErrorIs(t, st.ResetRequests().UpdateResetRequest(ctx, missing), store.ErrNotFound)
}

func TestRevokeActiveSubjectRequests(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	pending := newStoredResetRequest(t, st, "subject-1", domain.ResetPending)
	verified := newStoredResetRequest(t, st, "subject-1", domain.ResetOTPVerified)
	completed := newStoredResetRequest(t, st, "subject-1", domain.ResetCompleted)
	otherSubject := newStoredResetRequest(t, st, "subject-2", domain.ResetPending)

	require.NoError(t, st.ResetRequests().RevokeActiveSubjectRequests(ctx, "subject-1", domain.SubjectCustomer, now))

	for _, id := range []string{pending.ID, verified.ID} {
		got, err := st.ResetRequests().GetResetRequestByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, domain.ResetRevoked, got.Status)
	}

	got, err := st.ResetRequests().GetResetRequestByID(ctx, completed.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ResetCompleted, got.Status)

	got, err = st.ResetRequests().GetResetRequestByID(ctx, otherSubject.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ResetPending, got.Status)
}

func TestExpireStaleResetRequests(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	stale := newStoredResetRequest(t, st, "subject-1", domain.ResetPending)
	fresh := newStoredResetRequest(t, st, "subject-2", domain.ResetPending)

	// Sweep from the far future: the stale one expires, a terminal one is untouched.
	future := time.Now().UTC().Add(2 * time.Hour)
	require.NoError(t, st.ResetRequests().ExpireStaleResetRequests(ctx, future))

	got, err := st.ResetRequests().GetResetRequestByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ResetExpired, got.Status)

	// Sweep again at present time: fresh request still pending.
	require.NoError(t, st.ResetRequests().ExpireStaleResetRequests(ctx, time.Now().UTC()))
	got, err = st.ResetRequests().GetResetRequestByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ResetExpired, got.Status) // expired by the first future sweep
}

func TestAccounts(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	email, err := domain.NewEmail("guest@example.com")
	require.NoError(t, err)

	cred := domain.Credential{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "argon2-hash",
		IsActive:     true,
		Roles:        []string{"admin", "ops"},
		Permissions:  []string{"bookings:write"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.CustomerAccounts().CreateAccount(ctx, cred))

	t.Run("lookup by email", func(t *testing.T) {
		got, err := st.CustomerAccounts().GetAccountByEmail(ctx, email)
		require.NoError(t, err)
		require.Equal(t, cred.ID, got.ID)
		require.Equal(t, []string{"admin", "ops"}, got.Roles)
		require.Equal(t, []string{"bookings:write"}, got.Permissions)
		require.True(t, got.IsActive)
	})

	t.Run("subject types are partitioned", func(t *testing.T) {
		_, err := st.StaffAccounts().GetAccountByEmail(ctx, email)
		require.ErrorIs(t, err, store.ErrNotFound)

		// Same email is allowed under the other subject type.
		staff := cred
		staff.ID = idx.New().String()
		require.NoError(t, st.StaffAccounts().CreateAccount(ctx, staff))
	})

	t.Run("duplicate email rejected per subject type", func(t *testing.T) {
		dup := cred
		dup.ID = idx.New().String()
		require.ErrorIs(t, st.CustomerAccounts().CreateAccount(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("password hash update", func(t *testing.T) {
		require.NoError(t, st.CustomerAccounts().UpdatePasswordHash(ctx, cred.ID, "new-hash"))

		got, err := st.CustomerAccounts().GetAccountByEmail(ctx, email)
		require.NoError(t, err)
		require.Equal(t, "new-hash", got.PasswordHash)

		require.ErrorIs(t, st.CustomerAccounts().UpdatePasswordHash(ctx, "missing", "x"), store.ErrNotFound)
	})

	t.Run("deactivation", func(t *testing.T) {
		require.NoError(t, st.CustomerAccounts().SetAccountActive(ctx, cred.ID, false))

		got, err := st.CustomerAccounts().GetAccountByEmail(ctx, email)
		require.NoError(t, err)
		require.False(t, got.IsActive)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	boom := domain.NewInvalidOperation("boom")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		s := domain.Session{
			ID:               idx.New().String(),
			SubjectID:        "subject-1",
			Kind:             domain.PrincipalStaff,
			TokenID:          "tx-token",
			RefreshTokenHash: "hash",
			RefreshExpiresAt: time.Now().UTC().Add(time.Hour),
			CreatedAt:        time.Now().UTC(),
			UpdatedAt:        time.Now().UTC(),
		}
		if err := tx.Sessions().CreateSession(ctx, s); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Sessions().GetSessionByTokenID(ctx, "tx-token")
	require.ErrorIs(t, err, store.ErrNotFound)
}
