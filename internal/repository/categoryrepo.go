package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/model"
)

// CategoryRepository stores per-user expense categories.
type CategoryRepository interface {
	// Create inserts a new category.
	Create(ctx context.Context, c *model.Category) error
	// GetOwned selects a category by (id, owner) in a single query.
	// Returns errs.ErrNotFound when absent or owned by someone else.
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*model.Category, error)
	// ListByUser returns all categories of a user ordered by name.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Category, error)
	// NameExists reports whether the user already has a category with the
	// exact name, excluding excludeID (pass uuid.Nil to exclude nothing).
	NameExists(ctx context.Context, userID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
	// Rename updates the category name.
	Rename(ctx context.Context, id uuid.UUID, name string) error
	// Delete removes the category row. Referential checks happen in the service.
	Delete(ctx context.Context, id uuid.UUID) error
}
