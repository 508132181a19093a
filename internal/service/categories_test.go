package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/errs"
	"github.com/spendwise/api/internal/model"
)

func newCategoryService(t *testing.T) (*CategoryServiceImpl, *fakeCategories, *fakeExpenses, *fakeBudgets, uuid.UUID) {
	t.Helper()
	userID := uuid.Must(uuid.NewV4())
	users := newFakeUsers(userID)
	categories := newFakeCategories()
	expenses := newFakeExpenses()
	budgets := newFakeBudgets()
	svc := NewCategoryService(categories, expenses, budgets, users)
	return svc, categories, expenses, budgets, userID
}

func TestCategory_Create_NameRules(t *testing.T) {
	t.Parallel()
	svc, _, _, _, userID := newCategoryService(t)

	if _, err := svc.Create(context.Background(), userID, "   "); err == nil {
		t.Fatalf("want validation error on blank name")
	}
	if _, err := svc.Create(context.Background(), userID, strings.Repeat("x", 101)); err == nil {
		t.Fatalf("want validation error on overlong name")
	}

	c, err := svc.Create(context.Background(), userID, "  Groceries  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Name != "Groceries" {
		t.Fatalf("name not trimmed: %q", c.Name)
	}

	_, err = svc.Create(context.Background(), userID, "Groceries")
	var fe errs.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("want field error on duplicate name, got %v", err)
	}
}

func TestCategory_Rename(t *testing.T) {
	t.Parallel()
	svc, _, _, _, userID := newCategoryService(t)

	groceries, err := svc.Create(context.Background(), userID, "Groceries")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), userID, "Travel"); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Renaming to its current name is a no-op, not a collision.
	if _, err := svc.Rename(context.Background(), userID, groceries.ID, "Groceries"); err != nil {
		t.Fatalf("same-name rename: %v", err)
	}

	if _, err := svc.Rename(context.Background(), userID, groceries.ID, "Travel"); err == nil {
		t.Fatalf("want duplicate-name error")
	}

	renamed, err := svc.Rename(context.Background(), userID, groceries.ID, "Food")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Name != "Food" {
		t.Fatalf("rename not applied: %+v", renamed)
	}
}

func TestCategory_Delete_ReferentialGuards(t *testing.T) {
	t.Parallel()
	svc, _, expenses, budgets, userID := newCategoryService(t)

	c, err := svc.Create(context.Background(), userID, "Groceries")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	eid := uuid.Must(uuid.NewV4())
	expenses.byID[eid] = &model.Expense{
		ID: eid, UserID: userID, CategoryID: c.ID,
		Amount:      model.Cents(100),
		ExpenseDate: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := svc.Delete(context.Background(), userID, c.ID); err == nil {
		t.Fatalf("want delete refused while an expense references the category")
	}

	// Soft-deleting the referent frees the category.
	now := time.Now()
	expenses.byID[eid].DeletedAt = &now

	bid := uuid.Must(uuid.NewV4())
	budgets.byID[bid] = &model.Budget{
		ID: bid, UserID: userID, Amount: model.Cents(100), Year: 2024,
		CategoryIDs: []uuid.UUID{c.ID},
	}
	if err := svc.Delete(context.Background(), userID, c.ID); err == nil {
		t.Fatalf("want delete refused while a budget references the category")
	}

	budgets.byID[bid].DeletedAt = &now
	if err := svc.Delete(context.Background(), userID, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), userID, c.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}

func TestCategory_OwnershipScoped(t *testing.T) {
	t.Parallel()
	svc, categories, _, _, userID := newCategoryService(t)
	stranger := uuid.Must(uuid.NewV4())
	foreign := categories.add(stranger, "Theirs")

	if _, err := svc.Get(context.Background(), userID, foreign); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("foreign category must read as not found, got %v", err)
	}
	if _, err := svc.Rename(context.Background(), userID, foreign, "Mine"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("foreign rename must fail, got %v", err)
	}
}
