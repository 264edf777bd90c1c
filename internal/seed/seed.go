// Package seed creates the data a fresh installation needs to be usable.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/auth"
)

// AdminStore is the part of the user repository the seed needs
type AdminStore interface {
	CountByRole(ctx context.Context, role models.RoleType) (int64, error)
	CreateAdmin(ctx context.Context, user *models.User) error
}

// CreateDefaultAdmin adds an admin account when none exists yet. An empty
// email or password disables seeding.
func CreateDefaultAdmin(ctx context.Context, users AdminStore, email, password string, lgr zerolog.Logger) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		lgr.Debug().Msg("Admin seeding disabled")
		return nil
	}

	count, err := users.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("error counting admins: %w", err)
	}
	if count > 0 {
		lgr.Info().Int64("admins", count).Msg("Admin user already exists, skipping creation")
		return nil
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("error hashing admin password: %w", err)
	}

	admin := &models.User{
		Email:     email,
		Password:  hashed,
		FirstName: "System",
		LastName:  "Administrator",
		RoleType:  models.RoleAdmin,
		IsActive:  true,
	}
	if err := users.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			lgr.Warn().Str("email", email).Msg("Seed admin email belongs to a non-admin user")
			return nil
		}
		return fmt.Errorf("error creating admin user: %w", err)
	}

	lgr.Info().Int64("adminID", admin.ID).Str("email", email).Msg("Default admin user created")
	return nil
}
