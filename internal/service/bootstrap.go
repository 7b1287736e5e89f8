package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/eurobrokers/leadcapture/internal/domain"
	"github.com/eurobrokers/leadcapture/internal/platform/auth"
	"github.com/eurobrokers/leadcapture/internal/repo/sqlite"
	"github.com/eurobrokers/leadcapture/pkg/logger"
)

type BootstrapResult int

const (
	BootstrapUnchanged BootstrapResult = iota
	BootstrapCreated
	BootstrapReset
)

func (r BootstrapResult) String() string {
	switch r {
	case BootstrapCreated:
		return "created"
	case BootstrapReset:
		return "reset"
	}
	return "unchanged"
}

type AdminSeed struct {
	Email    string
	Password string
	// Reset overwrites the password of an existing admin.
	Reset bool
}

// EnsureAdmin makes sure the configured admin account exists. An existing
// account is only touched when seed.Reset is set.
func EnsureAdmin(ctx context.Context, users sqlite.UsersRepo, hasher auth.PasswordHasher, seed AdminSeed) (BootstrapResult, error) {
	if seed.Email == "" || seed.Password == "" {
		return BootstrapUnchanged, errors.New("admin email and password are required")
	}

	_, err := users.FindByEmail(ctx, seed.Email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		hash, err := hasher.Hash(seed.Password)
		if err != nil {
			return BootstrapUnchanged, fmt.Errorf("failed to hash password: %w", err)
		}
		if _, err := users.Create(ctx, seed.Email, hash); err != nil {
			return BootstrapUnchanged, fmt.Errorf("failed to create admin: %w", err)
		}
		logger.InfoContext(ctx, "Admin account created", "email", seed.Email)
		return BootstrapCreated, nil
	case err != nil:
		return BootstrapUnchanged, fmt.Errorf("failed to find admin: %w", err)
	case !seed.Reset:
		return BootstrapUnchanged, nil
	}

	hash, err := hasher.Hash(seed.Password)
	if err != nil {
		return BootstrapUnchanged, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := users.UpdatePasswordHash(ctx, seed.Email, hash); err != nil {
		return BootstrapUnchanged, fmt.Errorf("failed to reset admin password: %w", err)
	}
	logger.InfoContext(ctx, "Admin password reset", "email", seed.Email)
	return BootstrapReset, nil
}
