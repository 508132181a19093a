package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/model"
)

// BudgetRepository stores per-period spending caps.
type BudgetRepository interface {
	// Create inserts a budget and its category links.
	Create(ctx context.Context, b *model.Budget) error
	// GetOwned selects a non-deleted budget (with its category ids) by
	// (id, owner) in a single combined query.
	// Returns errs.ErrAccessDenied when absent, foreign, or soft-deleted.
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*model.Budget, error)
	// Update persists amount, year, month and replaces category links.
	Update(ctx context.Context, b *model.Budget) error
	// SoftDelete stamps deleted_at if not already set; reports whether the
	// row transitioned on this call.
	SoftDelete(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error)
	// ListByUser returns non-deleted budgets ordered year desc, month desc.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Budget, error)
	// PeriodExists reports whether a non-deleted budget occupies the
	// (user, year, month) period key, excluding excludeID (uuid.Nil excludes
	// nothing). month == nil matches only yearly budgets.
	PeriodExists(ctx context.Context, userID uuid.UUID, year int, month *int, excludeID uuid.UUID) (bool, error)
	// FindForPeriodAndCategory returns non-deleted monthly budgets for
	// (user, year, month) whose category set contains categoryID.
	FindForPeriodAndCategory(ctx context.Context, userID uuid.UUID, year, month int, categoryID uuid.UUID) ([]model.Budget, error)
	// ExistsForCategory reports whether any non-deleted budget references
	// the category.
	ExistsForCategory(ctx context.Context, categoryID uuid.UUID) (bool, error)
}
