package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/cache"
	"github.com/spendwise/api/internal/errs"
	"github.com/spendwise/api/internal/model"
	"github.com/spendwise/api/internal/repository"
)

// CreateBudgetInput carries the fields for a new budget. A nil Month makes
// the budget yearly; its period key never collides with a concrete month.
type CreateBudgetInput struct {
	Amount      model.Money
	Year        int
	Month       *int
	CategoryIDs []uuid.UUID
}

// OptionalMonth distinguishes "absent" from an explicit null when updating:
// Set=false leaves the month unchanged, Set=true with nil Value makes the
// budget yearly.
type OptionalMonth struct {
	Set   bool
	Value *int
}

// UpdateBudgetInput carries a partial update; nil fields mean "no change".
// A nil CategoryIDs slice leaves the category set unchanged; an empty
// non-nil slice clears it.
type UpdateBudgetInput struct {
	Amount      *model.Money
	Year        *int
	Month       OptionalMonth
	CategoryIDs []uuid.UUID
}

// BudgetView is a budget together with its computed period metrics.
type BudgetView struct {
	Budget  model.Budget
	Metrics model.BudgetMetrics
}

// BudgetService manages per-period spending caps and reports spend against them.
type BudgetService interface {
	// Create adds a budget after period-key uniqueness and category checks.
	Create(ctx context.Context, userID uuid.UUID, in CreateBudgetInput) (*BudgetView, error)
	// Get returns an owned budget with metrics.
	Get(ctx context.Context, userID, budgetID uuid.UUID) (*BudgetView, error)
	// List returns the user's budgets with metrics, newest period first.
	// A non-nil year narrows the listing to that year.
	List(ctx context.Context, userID uuid.UUID, year *int) ([]BudgetView, error)
	// Update applies present fields, re-checking uniqueness when the period changes.
	Update(ctx context.Context, userID, budgetID uuid.UUID, in UpdateBudgetInput) (*BudgetView, error)
	// Delete soft-deletes a budget; deleting twice is a no-op.
	Delete(ctx context.Context, userID, budgetID uuid.UUID) error
}

type BudgetServiceImpl struct {
	budgets    repository.BudgetRepository
	categories repository.CategoryRepository
	expenses   repository.ExpenseRepository
	users      repository.UserRepository
	metrics    *cache.Metrics
	now        func() time.Time
}

// NewBudgetService constructs BudgetService with required dependencies.
// metrics may be nil; metrics are then always computed from the store.
func NewBudgetService(
	budgets repository.BudgetRepository,
	categories repository.CategoryRepository,
	expenses repository.ExpenseRepository,
	users repository.UserRepository,
	metrics *cache.Metrics,
) *BudgetServiceImpl {
	return &BudgetServiceImpl{
		budgets:    budgets,
		categories: categories,
		expenses:   expenses,
		users:      users,
		metrics:    metrics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the period, checks the period key is free, resolves every
// referenced category, and persists. An empty category set is legal; such a
// budget constrains nothing but still lists.
func (s *BudgetServiceImpl) Create(ctx context.Context, userID uuid.UUID, in CreateBudgetInput) (*BudgetView, error) {
	fe := errs.FieldErrors{}
	if !in.Amount.Positive() {
		fe.Add("amount", "must be positive")
	}
	if in.Year < 1 {
		fe.Add("year", "must be a calendar year")
	}
	if in.Month != nil && (*in.Month < 1 || *in.Month > 12) {
		fe.Add("month", "must be between 1 and 12")
	}
	if err := fe.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	taken, err := s.budgets.PeriodExists(ctx, userID, in.Year, in.Month, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errs.ErrDuplicateBudget
	}

	categoryIDs, err := s.resolveCategories(ctx, userID, in.CategoryIDs)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	b := &model.Budget{
		ID:          id,
		UserID:      userID,
		Amount:      in.Amount,
		Year:        in.Year,
		Month:       in.Month,
		CategoryIDs: categoryIDs,
		CreatedAt:   s.now(),
	}
	if err := s.budgets.Create(ctx, b); err != nil {
		return nil, err
	}
	return s.withMetrics(ctx, b)
}

// Get returns an owned budget with metrics.
func (s *BudgetServiceImpl) Get(ctx context.Context, userID, budgetID uuid.UUID) (*BudgetView, error) {
	b, err := s.budgets.GetOwned(ctx, budgetID, userID)
	if err != nil {
		return nil, err
	}
	return s.withMetrics(ctx, b)
}

// List returns all non-deleted budgets of the user with metrics, optionally
// narrowed to one year.
func (s *BudgetServiceImpl) List(ctx context.Context, userID uuid.UUID, year *int) ([]BudgetView, error) {
	budgets, err := s.budgets.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]BudgetView, 0, len(budgets))
	for i := range budgets {
		if year != nil && budgets[i].Year != *year {
			continue
		}
		view, err := s.withMetrics(ctx, &budgets[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *view)
	}
	return out, nil
}

// Update resolves ownership, applies present fields, and re-checks period
// uniqueness (excluding this budget) only when year or month changes.
func (s *BudgetServiceImpl) Update(ctx context.Context, userID, budgetID uuid.UUID, in UpdateBudgetInput) (*BudgetView, error) {
	b, err := s.budgets.GetOwned(ctx, budgetID, userID)
	if err != nil {
		return nil, err
	}

	newYear := b.Year
	if in.Year != nil {
		newYear = *in.Year
	}
	newMonth := b.Month
	if in.Month.Set {
		newMonth = in.Month.Value
	}

	fe := errs.FieldErrors{}
	if in.Amount != nil && !in.Amount.Positive() {
		fe.Add("amount", "must be positive")
	}
	if newYear < 1 {
		fe.Add("year", "must be a calendar year")
	}
	if newMonth != nil && (*newMonth < 1 || *newMonth > 12) {
		fe.Add("month", "must be between 1 and 12")
	}
	if err := fe.OrNil(); err != nil {
		return nil, err
	}

	if newYear != b.Year || !monthsEqual(newMonth, b.Month) {
		taken, err := s.budgets.PeriodExists(ctx, userID, newYear, newMonth, b.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, errs.ErrDuplicateBudget
		}
	}

	if in.Amount != nil {
		b.Amount = *in.Amount
	}
	b.Year = newYear
	b.Month = newMonth
	if in.CategoryIDs != nil {
		categoryIDs, err := s.resolveCategories(ctx, userID, in.CategoryIDs)
		if err != nil {
			return nil, err
		}
		b.CategoryIDs = categoryIDs
	}

	if err := s.budgets.Update(ctx, b); err != nil {
		return nil, err
	}
	s.metrics.Invalidate(ctx, b.ID)
	return s.withMetrics(ctx, b)
}

// Delete soft-deletes the budget; the stamp is written at most once.
func (s *BudgetServiceImpl) Delete(ctx context.Context, userID, budgetID uuid.UUID) error {
	transitioned, err := s.budgets.SoftDelete(ctx, budgetID, userID, s.now())
	if err != nil {
		return err
	}
	if transitioned {
		s.metrics.Invalidate(ctx, budgetID)
	}
	return nil
}

// withMetrics computes period spend for the budget's categories and the
// zero-floored remainder, consulting the cache first.
func (s *BudgetServiceImpl) withMetrics(ctx context.Context, b *model.Budget) (*BudgetView, error) {
	if m, ok := s.metrics.Get(ctx, b.ID); ok {
		return &BudgetView{Budget: *b, Metrics: m}, nil
	}

	period := model.PeriodKey{Year: b.Year}
	if b.Month != nil {
		period.Month = *b.Month
	}
	start, end := period.Bounds()

	spent, err := s.expenses.SumForCategories(ctx, b.UserID, b.CategoryIDs, start, end)
	if err != nil {
		return nil, err
	}
	remaining := b.Amount.Sub(spent)
	if remaining.Cents < 0 {
		remaining = model.Cents(0)
	}

	m := model.BudgetMetrics{TotalSpent: spent, Remaining: remaining}
	s.metrics.Set(ctx, b.ID, m)
	return &BudgetView{Budget: *b, Metrics: m}, nil
}

// resolveCategories checks every referenced category belongs to the user.
func (s *BudgetServiceImpl) resolveCategories(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		c, err := s.categories.GetOwned(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		out = append(out, c.ID)
	}
	return out, nil
}

func monthsEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
