package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/model"
	"github.com/spendwise/api/internal/query"
)

// ExpenseRepository stores the soft-deletable expense journal.
type ExpenseRepository interface {
	// Create inserts a new active expense.
	Create(ctx context.Context, e *model.Expense) error
	// GetOwned selects a non-deleted expense by (id, owner) in a single
	// combined query so existence of foreign rows is never revealed.
	// Returns errs.ErrAccessDenied when absent, foreign, or soft-deleted.
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*model.Expense, error)
	// Update persists category, amount, description and date of an expense.
	Update(ctx context.Context, e *model.Expense) error
	// SoftDelete stamps deleted_at if not already set. It is idempotent and
	// reports whether the row transitioned on this call.
	SoftDelete(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error)
	// SumForPeriod sums non-deleted spend for (user, category) within the
	// inclusive date range, excluding excludeID (uuid.Nil excludes nothing).
	// An absent sum is zero, never an error.
	SumForPeriod(ctx context.Context, userID, categoryID uuid.UUID, from, to time.Time, excludeID uuid.UUID) (model.Money, error)
	// SumForCategories sums non-deleted spend for the user across the given
	// categories within the inclusive date range.
	SumForCategories(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID, from, to time.Time) (model.Money, error)
	// List runs the composed filter with the given sort and page, returning
	// the page content and the total matching row count.
	List(ctx context.Context, userID uuid.UUID, f query.ExpenseFilter, sort query.Sort, page query.PageRequest) ([]model.Expense, int64, error)
	// ExistsForCategory reports whether any non-deleted expense references
	// the category.
	ExistsForCategory(ctx context.Context, categoryID uuid.UUID) (bool, error)
}
