package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/innkeep/innkeep/internal/identity/domain"
	"github.com/innkeep/innkeep/internal/identity/store"
)

type resetRequestsRepo struct {
	db dbtx
}

const resetColumns = `id, subject_id, subject_type, token_hash, otp_hash, status,
	attempt_count, max_attempts, token_expires_at, otp_expires_at,
	verified_at, completed_at, revoked_at, last_attempt_at,
	user_agent, ip, created_at, updated_at`

func (r *resetRequestsRepo) CreateResetRequest(ctx context.Context, req domain.PasswordResetRequest) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reset_requests (`+resetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID,
		req.SubjectID,
		string(req.SubjectType),
		req.TokenHash,
		req.OTPHash,
		string(req.Status),
		req.AttemptCount,
		req.MaxAttempts,
		req.TokenExpiresAt,
		req.OTPExpiresAt,
		mapOptionalTime(req.VerifiedAt),
		mapOptionalTime(req.CompletedAt),
		mapOptionalTime(req.RevokedAt),
		mapOptionalTime(req.LastAttemptAt),
		mapStringNull(req.UserAgent),
		mapStringNull(req.IP),
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *resetRequestsRepo) GetResetRequestByID(ctx context.Context, id string) (domain.PasswordResetRequest, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+resetColumns+`
		FROM reset_requests
		WHERE id = ?`,
		id,
	)
	return scanResetRequest(row)
}

func (r *resetRequestsRepo) GetResetRequestByTokenHash(ctx context.Context, hash string) (domain.PasswordResetRequest, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+resetColumns+`
		FROM reset_requests
		WHERE token_hash = ?`,
		hash,
	)
	return scanResetRequest(row)
}

func (r *resetRequestsRepo) UpdateResetRequest(ctx context.Context, req domain.PasswordResetRequest) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reset_requests
		SET status = ?, attempt_count = ?, verified_at = ?, completed_at = ?,
			revoked_at = ?, last_attempt_at = ?, updated_at = ?
		WHERE id = ?`,
		string(req.Status),
		req.AttemptCount,
		mapOptionalTime(req.VerifiedAt),
		mapOptionalTime(req.CompletedAt),
		mapOptionalTime(req.RevokedAt),
		mapOptionalTime(req.LastAttemptAt),
		req.UpdatedAt,
		req.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *resetRequestsRepo) RegisterFailedOTPAttempt(ctx context.Context, id string, at time.Time) (domain.PasswordResetRequest, error) {
	// The increment and the limit check happen in one statement so
	// concurrent wrong submissions cannot overwrite each other's count.
	res, err := r.db.ExecContext(ctx, `
		UPDATE reset_requests
		SET attempt_count = attempt_count + 1,
			status = CASE WHEN attempt_count + 1 >= max_attempts THEN ? ELSE status END,
			revoked_at = CASE WHEN attempt_count + 1 >= max_attempts THEN ? ELSE revoked_at END,
			last_attempt_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(domain.ResetRevoked),
		at, at, at,
		id,
		string(domain.ResetPending),
	)
	if err != nil {
		return domain.PasswordResetRequest{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.PasswordResetRequest{}, err
	}
	if n == 0 {
		return domain.PasswordResetRequest{}, store.ErrStale
	}
	return r.GetResetRequestByID(ctx, id)
}

func (r *resetRequestsRepo) RevokeActiveSubjectRequests(ctx context.Context, subjectID string, subjectType domain.SubjectType, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE reset_requests
		SET status = ?, revoked_at = ?, updated_at = ?
		WHERE subject_id = ? AND subject_type = ? AND status IN (?, ?)`,
		string(domain.ResetRevoked),
		at, at,
		subjectID,
		string(subjectType),
		string(domain.ResetPending),
		string(domain.ResetOTPVerified),
	)
	return err
}

func (r *resetRequestsRepo) ExpireStaleResetRequests(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE reset_requests
		SET status = ?, revoked_at = ?, updated_at = ?
		WHERE status IN (?, ?) AND token_expires_at < ?`,
		string(domain.ResetExpired),
		now, now,
		string(domain.ResetPending),
		string(domain.ResetOTPVerified),
		now,
	)
	return err
}

func scanResetRequest(row rowScanner) (domain.PasswordResetRequest, error) {
	var (
		req           domain.PasswordResetRequest
		subjectType   string
		status        string
		verifiedAt    sql.NullTime
		completedAt   sql.NullTime
		revokedAt     sql.NullTime
		lastAttemptAt sql.NullTime
		userAgent     sql.NullString
		ip            sql.NullString
	)
	err := row.Scan(
		&req.ID,
		&req.SubjectID,
		&subjectType,
		&req.TokenHash,
		&req.OTPHash,
		&status,
		&req.AttemptCount,
		&req.MaxAttempts,
		&req.TokenExpiresAt,
		&req.OTPExpiresAt,
		&verifiedAt,
		&completedAt,
		&revokedAt,
		&lastAttemptAt,
		&userAgent,
		&ip,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return domain.PasswordResetRequest{}, mapNotFound(err)
	}

	req.SubjectType = domain.SubjectType(subjectType)
	req.Status = domain.ResetStatus(status)
	req.VerifiedAt = mapNullTimePtr(verifiedAt)
	req.CompletedAt = mapNullTimePtr(completedAt)
	req.RevokedAt = mapNullTimePtr(revokedAt)
	req.LastAttemptAt = mapNullTimePtr(lastAttemptAt)
	req.UserAgent = mapNullString(userAgent)
	req.IP = mapNullString(ip)
	return req, nil
}
