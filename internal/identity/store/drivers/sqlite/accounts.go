package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/innkeep/innkeep/internal/identity/domain"
	"github.com/innkeep/innkeep/internal/identity/store"
)

// accountsRepo serves one subject type over the shared accounts table.
// Staff and customer directories are the same schema partitioned by the
// subject_type column.
type accountsRepo struct {
	db          dbtx
	subjectType string
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email domain.Email) (domain.Credential, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, is_active, roles, permissions, created_at, updated_at
		FROM accounts
		WHERE subject_type = ? AND email = ?`,
		r.subjectType, email.String(),
	)

	var (
		c           domain.Credential
		emailRaw    string
		roles       string
		permissions string
	)
	err := row.Scan(
		&c.ID,
		&emailRaw,
		&c.PasswordHash,
		&c.IsActive,
		&roles,
		&permissions,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return domain.Credential{}, mapNotFound(err)
	}

	c.Email = domain.Email(emailRaw)
	c.Roles = splitAndFilter(roles)
	c.Permissions = splitAndFilter(permissions)
	return c, nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, c domain.Credential) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, subject_type, email, password_hash, is_active, roles, permissions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		r.subjectType,
		c.Email.String(),
		c.PasswordHash,
		c.IsActive,
		strings.Join(c.Roles, " "),
		strings.Join(c.Permissions, " "),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, accountID, newHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET password_hash = ?, updated_at = ?
		WHERE id = ? AND subject_type = ?`,
		newHash, time.Now().UTC(), accountID, r.subjectType,
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

func (r *accountsRepo) SetAccountActive(ctx context.Context, accountID string, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET is_active = ?, updated_at = ?
		WHERE id = ? AND subject_type = ?`,
		active, time.Now().UTC(), accountID, r.subjectType,
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
