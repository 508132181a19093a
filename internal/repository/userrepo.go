// Package repository defines storage interfaces implemented by the postgres package.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/model"
)

// UserRepository stores user accounts.
type UserRepository interface {
	// Create inserts a new user. Returns errs.ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u *model.User) error
	// GetByID selects a user by id. Returns errs.ErrNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail selects a user by email. Returns errs.ErrNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}
