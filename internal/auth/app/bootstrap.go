package app

import (
	"context"

	"github.com/rollcall-hq/rollcall/internal/auth/domain"
	"github.com/rollcall-hq/rollcall/pkg/cryptox"
)

// bootstrap seeds the first admin account when the user table is empty, so a
// fresh deployment is immediately usable. Existing installs are untouched.
func (app *Application) bootstrap(ctx context.Context) error {
	empty, err := app.db.Users().IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}

	password := app.cfg.BootstrapAdminPassword
	generated := false
	if password == "" {
		pw, err := cryptox.GeneratePassword()
		if err != nil {
			return err
		}
		password = pw
		generated = true
	}

	admin, err := app.userService.CreateUser(
		ctx,
		app.cfg.BootstrapAdminEmail,
		"Administrator",
		password,
		domain.RoleAdmin,
	)
	if err != nil {
		return err
	}

	if generated {
		// Printed exactly once, on first boot. Change it after logging in.
		app.logger.Warn("bootstrap admin account created with generated password",
			"email", admin.Email,
			"password", password,
		)
	} else {
		app.logger.Info("bootstrap admin account created", "email", admin.Email)
	}

	return nil
}
