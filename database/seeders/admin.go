package seeders

import (
	"context"
	"errors"
	"strings"

	"github.com/shashiranjanraj/kabadi/app/models"
	"github.com/shashiranjanraj/kabadi/app/repositories"
	"github.com/shashiranjanraj/kabadi/config"
	"github.com/shashiranjanraj/kabadi/pkg/auth"
	"github.com/shashiranjanraj/kabadi/pkg/logger"
)

func init() {
	Register("admin", SeedAdmin)
}

// SeedAdmin creates the admin account named by ADMIN_EMAIL and ADMIN_PASSWORD.
// An existing account with that email is left alone.
func SeedAdmin(ctx context.Context, store repositories.Store) error {
	return seedAdmin(ctx, store, config.AdminEmail(), config.AdminPassword())
}

func seedAdmin(ctx context.Context, store repositories.Store, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if password == "" {
		return errors.New("ADMIN_PASSWORD is not set")
	}

	_, err := store.Users().FindByEmail(ctx, email)
	if err == nil {
		logger.Info("seed: admin already exists", "email", email)
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u := models.User{Name: "Administrator", Email: email, Password: hash, Role: models.RoleAdmin}
	if err := store.Users().Create(ctx, &u); err != nil {
		return err
	}
	logger.Info("seed: admin created", "email", email, "user_id", u.ID.Hex())
	return nil
}
