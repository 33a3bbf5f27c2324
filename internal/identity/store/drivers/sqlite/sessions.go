package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/innkeep/innkeep/internal/identity/domain"
	"github.com/innkeep/innkeep/internal/identity/store"
)

type sessionsRepo struct {
	db dbtx
}

const sessionColumns = `id, subject_id, principal_kind, token_id, refresh_token_hash,
	refresh_expires_at, user_agent, ip, created_at, updated_at, revoked_at`

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.SubjectID,
		string(s.Kind),
		s.TokenID,
		s.RefreshTokenHash,
		s.RefreshExpiresAt,
		mapStringNull(s.UserAgent),
		mapStringNull(s.IP),
		s.CreatedAt,
		s.UpdatedAt,
		mapOptionalTime(s.RevokedAt),
	)
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *sessionsRepo) GetSessionByTokenID(ctx context.Context, tokenID string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE token_id = ?`,
		tokenID,
	)
	return scanSession(row)
}

func (r *sessionsRepo) RotateSession(ctx context.Context, sessionID, prevTokenID, tokenID, tokenHash string, expiresAt, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET token_id = ?, refresh_token_hash = ?, refresh_expires_at = ?, updated_at = ?
		WHERE id = ? AND token_id = ? AND revoked_at IS NULL`,
		tokenID,
		tokenHash,
		expiresAt,
		now,
		sessionID,
		prevTokenID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrStale
	}
	return nil
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, sessionID string, at time.Time) error {
	// Already-revoked rows are left untouched so the original revocation
	// timestamp survives repeated logouts.
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET revoked_at = ?, updated_at = ?
		WHERE id = ? AND revoked_at IS NULL`,
		at, at, sessionID,
	)
	return err
}

func (r *sessionsRepo) RevokeAllSubjectSessions(ctx context.Context, subjectID string, kind domain.PrincipalKind, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET revoked_at = ?, updated_at = ?
		WHERE subject_id = ? AND principal_kind = ? AND revoked_at IS NULL`,
		at, at, subjectID, string(kind),
	)
	return err
}

func (r *sessionsRepo) ListSubjectSessions(ctx context.Context, subjectID string, kind domain.PrincipalKind) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE subject_id = ? AND principal_kind = ?
		ORDER BY created_at DESC`,
		subjectID, string(kind),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.Session, error) {
	var (
		s         domain.Session
		kind      string
		userAgent sql.NullString
		ip        sql.NullString
		revokedAt sql.NullTime
	)
	err := row.Scan(
		&s.ID,
		&s.SubjectID,
		&kind,
		&s.TokenID,
		&s.RefreshTokenHash,
		&s.RefreshExpiresAt,
		&userAgent,
		&ip,
		&s.CreatedAt,
		&s.UpdatedAt,
		&revokedAt,
	)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}

	s.Kind = domain.PrincipalKind(kind)
	s.UserAgent = mapNullString(userAgent)
	s.IP = mapNullString(ip)
	s.RevokedAt = mapNullTimePtr(revokedAt)
	return s, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// modernc.org/sqlite surfaces SQLITE_CONSTRAINT_UNIQUE in the message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
