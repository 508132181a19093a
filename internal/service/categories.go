// Package service contains application services: authentication, the
// category directory, the expense ledger with budget enforcement, and the
// budget directory.
package service

import (
	"context"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/errs"
	"github.com/spendwise/api/internal/model"
	"github.com/spendwise/api/internal/repository"
)

const maxCategoryNameLen = 100

// CategoryService manages per-user expense categories.
type CategoryService interface {
	// Create adds a category; the name must be unique for the user.
	Create(ctx context.Context, userID uuid.UUID, name string) (*model.Category, error)
	// Get returns an owned category by id.
	Get(ctx context.Context, userID, categoryID uuid.UUID) (*model.Category, error)
	// List returns all categories of the user.
	List(ctx context.Context, userID uuid.UUID) ([]model.Category, error)
	// Rename changes a category name with the same uniqueness rule.
	Rename(ctx context.Context, userID, categoryID uuid.UUID, name string) (*model.Category, error)
	// Delete removes a category unless a non-deleted expense or budget references it.
	Delete(ctx context.Context, userID, categoryID uuid.UUID) error
}

type CategoryServiceImpl struct {
	categories repository.CategoryRepository
	expenses   repository.ExpenseRepository
	budgets    repository.BudgetRepository
	users      repository.UserRepository
}

// NewCategoryService constructs CategoryService with required dependencies.
func NewCategoryService(
	categories repository.CategoryRepository,
	expenses repository.ExpenseRepository,
	budgets repository.BudgetRepository,
	users repository.UserRepository,
) *CategoryServiceImpl {
	return &CategoryServiceImpl{categories: categories, expenses: expenses, budgets: budgets, users: users}
}

// Create adds a category for the user. Name comparison is case-sensitive on
// the trimmed name.
func (s *CategoryServiceImpl) Create(ctx context.Context, userID uuid.UUID, name string) (*model.Category, error) {
	name, err := normalizeCategoryName(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	taken, err := s.categories.NameExists(ctx, userID, name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errs.Validation("name", "a category with this name already exists")
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	c := &model.Category{ID: id, UserID: userID, Name: name}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns an owned category.
func (s *CategoryServiceImpl) Get(ctx context.Context, userID, categoryID uuid.UUID) (*model.Category, error) {
	return s.categories.GetOwned(ctx, categoryID, userID)
}

// List returns the user's categories.
func (s *CategoryServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]model.Category, error) {
	return s.categories.ListByUser(ctx, userID)
}

// Rename changes the category name, re-checking uniqueness against the
// user's other categories.
func (s *CategoryServiceImpl) Rename(ctx context.Context, userID, categoryID uuid.UUID, name string) (*model.Category, error) {
	name, err := normalizeCategoryName(name)
	if err != nil {
		return nil, err
	}

	c, err := s.categories.GetOwned(ctx, categoryID, userID)
	if err != nil {
		return nil, err
	}
	if name != c.Name {
		taken, err := s.categories.NameExists(ctx, userID, name, categoryID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, errs.Validation("name", "a category with this name already exists")
		}
		if err := s.categories.Rename(ctx, categoryID, name); err != nil {
			return nil, err
		}
	}
	c.Name = name
	return c, nil
}

// Delete removes a category. It is refused while any non-deleted expense or
// budget still references it; soft-deleted referents keep the category
// deletable, but the check must not rely on storage-level cascading since
// those referents remain in the store.
func (s *CategoryServiceImpl) Delete(ctx context.Context, userID, categoryID uuid.UUID) error {
	c, err := s.categories.GetOwned(ctx, categoryID, userID)
	if err != nil {
		return err
	}

	used, err := s.expenses.ExistsForCategory(ctx, c.ID)
	if err != nil {
		return err
	}
	if used {
		return errs.Validation("category", "cannot delete category: it is used by expenses")
	}
	used, err = s.budgets.ExistsForCategory(ctx, c.ID)
	if err != nil {
		return err
	}
	if used {
		return errs.Validation("category", "cannot delete category: it is used by budgets")
	}

	return s.categories.Delete(ctx, c.ID)
}

func normalizeCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	fe := errs.FieldErrors{}
	if name == "" {
		fe.Add("name", "must not be empty")
	}
	if len(name) > maxCategoryNameLen {
		fe.Add("name", "must be at most 100 characters")
	}
	if err := fe.OrNil(); err != nil {
		return "", err
	}
	return name, nil
}
