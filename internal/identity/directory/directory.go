// Package directory adapts the accounts store into the credential directory
// ports consumed by the orchestrators. In a split deployment these would be
// clients of the staff and customer services; here they are views over the
// local accounts table.
package directory

import (
	"context"
	"errors"

	"github.com/innkeep/innkeep/internal/identity/domain"
	"github.com/innkeep/innkeep/internal/identity/service"
	"github.com/innkeep/innkeep/internal/identity/store"
)

// StoreDirectory serves one subject type from an accounts repository.
type StoreDirectory struct {
	accounts store.Accounts
}

func New(accounts store.Accounts) *StoreDirectory {
	return &StoreDirectory{accounts: accounts}
}

// NewSet builds the directory pair over a store's staff and customer views.
func NewSet(st store.Store) service.Directories {
	return service.Directories{
		Staff:    New(st.StaffAccounts()),
		Customer: New(st.CustomerAccounts()),
	}
}

func (d *StoreDirectory) FindForAuthentication(ctx context.Context, email domain.Email) (domain.Credential, error) {
	cred, err := d.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Credential{}, domain.NewNotFound("Account not found")
		}
		return domain.Credential{}, err
	}
	return cred, nil
}

func (d *StoreDirectory) UpdatePasswordHash(ctx context.Context, subjectID, newHash string) error {
	err := d.accounts.UpdatePasswordHash(ctx, subjectID, newHash)
	if errors.Is(err, store.ErrNotFound) {
		return domain.NewNotFound("Account not found")
	}
	return err
}
