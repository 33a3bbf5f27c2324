package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/innkeep/innkeep/internal/identity/domain"
	"github.com/innkeep/innkeep/internal/identity/store"
	"github.com/innkeep/innkeep/pkg/cryptox"
	"github.com/innkeep/innkeep/pkg/idx"
)

// seedAccounts provisions initial accounts from the environment. Meant for
// dev and first-boot provisioning; existing accounts are left untouched.
func (app *Application) seedAccounts(ctx context.Context) error {
	seeds := []struct {
		email    string
		password string
		accounts store.Accounts
		kind     domain.SubjectType
		roles    []string
	}{
		{app.cfg.SeedStaffEmail, app.cfg.SeedStaffPassword, app.db.StaffAccounts(), domain.SubjectStaff, []string{"admin"}},
		{app.cfg.SeedCustomerEmail, app.cfg.SeedCustomerPassword, app.db.CustomerAccounts(), domain.SubjectCustomer, nil},
	}

	for _, seed := range seeds {
		if seed.email == "" || seed.password == "" {
			continue
		}

		email, err := domain.NewEmail(seed.email)
		if err != nil {
			return fmt.Errorf("invalid seed email for %s: %w", seed.kind, err)
		}

		if _, err := seed.accounts.GetAccountByEmail(ctx, email); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		hash, err := cryptox.HashPassword(seed.password)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		err = seed.accounts.CreateAccount(ctx, domain.Credential{
			ID:           idx.New().String(),
			Email:        email,
			PasswordHash: hash,
			IsActive:     true,
			Roles:        seed.roles,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return err
		}

		app.logger.Info("seeded account", "kind", seed.kind.String(), "email", email.String())
	}

	return nil
}
