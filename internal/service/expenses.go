package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/errs"
	"github.com/spendwise/api/internal/model"
	"github.com/spendwise/api/internal/query"
	"github.com/spendwise/api/internal/repository"
)

// CreateExpenseInput carries the fields for a new expense.
type CreateExpenseInput struct {
	CategoryID  uuid.UUID
	Amount      model.Money
	Description string
	ExpenseDate time.Time
}

// UpdateExpenseInput carries a partial update; nil fields mean "no change".
type UpdateExpenseInput struct {
	CategoryID  *uuid.UUID
	Amount      *model.Money
	Description *string
	ExpenseDate *time.Time
}

// ExpenseService is the budget-constrained expense ledger. Every write runs
// through the budget enforcer before it persists; reads are ownership-scoped
// and exclude soft-deleted records.
type ExpenseService interface {
	// Create validates the referenced category, enforces the budget cap and
	// appends a new expense.
	Create(ctx context.Context, userID uuid.UUID, in CreateExpenseInput) (*model.Expense, error)
	// Update applies present fields only, then re-runs enforcement against
	// the post-update state.
	Update(ctx context.Context, userID, expenseID uuid.UUID, in UpdateExpenseInput) (*model.Expense, error)
	// Delete soft-deletes an expense; deleting twice is a no-op.
	Delete(ctx context.Context, userID, expenseID uuid.UUID) error
	// Get returns an owned, non-deleted expense.
	Get(ctx context.Context, userID, expenseID uuid.UUID) (*model.Expense, error)
	// List pages the ledger through the query composer.
	List(ctx context.Context, userID uuid.UUID, f query.ExpenseFilter, sortParam string, page, size int) (query.Page[model.Expense], error)
}

type ExpenseServiceImpl struct {
	expenses   repository.ExpenseRepository
	categories repository.CategoryRepository
	budgets    repository.BudgetRepository
	users      repository.UserRepository
	audit      repository.AuditRepository
	now        func() time.Time
}

// NewExpenseService constructs ExpenseService with required dependencies.
// audit may be nil; journaling is then skipped.
func NewExpenseService(
	expenses repository.ExpenseRepository,
	categories repository.CategoryRepository,
	budgets repository.BudgetRepository,
	users repository.UserRepository,
	audit repository.AuditRepository,
) *ExpenseServiceImpl {
	return &ExpenseServiceImpl{
		expenses:   expenses,
		categories: categories,
		budgets:    budgets,
		users:      users,
		audit:      audit,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create appends a new expense after category resolution and budget enforcement.
func (s *ExpenseServiceImpl) Create(ctx context.Context, userID uuid.UUID, in CreateExpenseInput) (*model.Expense, error) {
	fe := errs.FieldErrors{}
	if in.CategoryID == uuid.Nil {
		fe.Add("categoryId", "must be provided")
	}
	if !in.Amount.Positive() {
		fe.Add("amount", "must be positive")
	}
	if in.ExpenseDate.IsZero() {
		fe.Add("expenseDate", "must be provided")
	}
	if err := fe.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	category, err := s.categories.GetOwned(ctx, in.CategoryID, userID)
	if err != nil {
		return nil, err
	}

	date := truncateToDate(in.ExpenseDate)
	if err := s.enforceBudget(ctx, userID, category.ID, in.Amount, date, uuid.Nil); err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	e := &model.Expense{
		ID:          id,
		UserID:      userID,
		CategoryID:  category.ID,
		Amount:      in.Amount,
		Description: in.Description,
		ExpenseDate: date,
		CreatedAt:   s.now(),
	}
	if err := s.expenses.Create(ctx, e); err != nil {
		return nil, err
	}
	s.journal(ctx, e, model.AuditCreated)
	return e, nil
}

// Update resolves ownership, applies only the present fields, re-resolves
// the category when it changes, and re-runs budget enforcement against the
// resulting amount, date and category.
func (s *ExpenseServiceImpl) Update(ctx context.Context, userID, expenseID uuid.UUID, in UpdateExpenseInput) (*model.Expense, error) {
	e, err := s.expenses.GetOwned(ctx, expenseID, userID)
	if err != nil {
		return nil, err
	}

	if in.CategoryID != nil && *in.CategoryID != e.CategoryID {
		category, err := s.categories.GetOwned(ctx, *in.CategoryID, userID)
		if err != nil {
			return nil, err
		}
		e.CategoryID = category.ID
	}
	if in.Amount != nil {
		if !in.Amount.Positive() {
			return nil, errs.Validation("amount", "must be positive")
		}
		e.Amount = *in.Amount
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.ExpenseDate != nil {
		if in.ExpenseDate.IsZero() {
			return nil, errs.Validation("expenseDate", "must be a valid date")
		}
		e.ExpenseDate = truncateToDate(*in.ExpenseDate)
	}

	// Re-validation projects the post-update amount; the sum below excludes
	// this expense's stored row so the old amount is not double counted.
	if err := s.enforceBudget(ctx, userID, e.CategoryID, e.Amount, e.ExpenseDate, e.ID); err != nil {
		return nil, err
	}

	if err := s.expenses.Update(ctx, e); err != nil {
		return nil, err
	}
	s.journal(ctx, e, model.AuditUpdated)
	return e, nil
}

// Delete soft-deletes the expense. The deletion stamp is written at most
// once; repeating the call succeeds without touching the record again.
func (s *ExpenseServiceImpl) Delete(ctx context.Context, userID, expenseID uuid.UUID) error {
	transitioned, err := s.expenses.SoftDelete(ctx, expenseID, userID, s.now())
	if err != nil {
		return err
	}
	if transitioned && s.audit != nil {
		_ = s.audit.Record(ctx, expenseID, model.AuditDeleted, "")
	}
	return nil
}

// Get returns an owned, non-deleted expense.
func (s *ExpenseServiceImpl) Get(ctx context.Context, userID, expenseID uuid.UUID) (*model.Expense, error) {
	return s.expenses.GetOwned(ctx, expenseID, userID)
}

// List validates the filter, sort and page up front, then runs the composed
// query. Nothing reaches the store when validation fails.
func (s *ExpenseServiceImpl) List(
	ctx context.Context, userID uuid.UUID, f query.ExpenseFilter, sortParam string, page, size int,
) (query.Page[model.Expense], error) {
	fe := errs.FieldErrors{}
	mergeFieldErrors(fe, f.Validate())
	sort, err := query.ParseSort(sortParam)
	mergeFieldErrors(fe, err)
	if err := fe.OrNil(); err != nil {
		return query.Page[model.Expense]{}, err
	}

	req := query.NormalizePage(page, size)
	content, total, err := s.expenses.List(ctx, userID, f, sort, req)
	if err != nil {
		return query.Page[model.Expense]{}, err
	}
	return query.NewPage(content, req, total), nil
}

// enforceBudget is the budget enforcer: it recomputes period spend for the
// expense's (user, category, month) and rejects the write when the projected
// total would exceed the summed caps of the matching budgets. No matching
// budget means no constraint; hitting the cap exactly is accepted.
//
// The read and the subsequent write are not serialized against concurrent
// writers; two in-flight expenses can both observe the same prior sum and
// jointly exceed the cap.
func (s *ExpenseServiceImpl) enforceBudget(
	ctx context.Context, userID, categoryID uuid.UUID, amount model.Money, date time.Time, excludeID uuid.UUID,
) error {
	period := model.PeriodOf(date)
	start, end := period.Bounds()

	spent, err := s.expenses.SumForPeriod(ctx, userID, categoryID, start, end, excludeID)
	if err != nil {
		return err
	}

	budgets, err := s.budgets.FindForPeriodAndCategory(ctx, userID, period.Year, period.Month, categoryID)
	if err != nil {
		return err
	}
	if len(budgets) == 0 {
		return nil
	}

	var capTotal model.Money
	for _, b := range budgets {
		capTotal = capTotal.Add(b.Amount)
	}
	if spent.Add(amount).GreaterThan(capTotal) {
		return errs.ErrBudgetExceeded
	}
	return nil
}

// journal appends an audit row with a JSON snapshot, best-effort.
func (s *ExpenseServiceImpl) journal(ctx context.Context, e *model.Expense, action model.AuditAction) {
	if s.audit == nil {
		return
	}
	snapshot, err := json.Marshal(map[string]any{
		"categoryId":  e.CategoryID,
		"amount":      e.Amount.String(),
		"description": e.Description,
		"expenseDate": e.ExpenseDate.Format("2006-01-02"),
	})
	if err != nil {
		return
	}
	_ = s.audit.Record(ctx, e.ID, action, string(snapshot))
}

// mergeFieldErrors folds one validation error into the accumulator so the
// caller gets every offending field in a single response.
func mergeFieldErrors(into errs.FieldErrors, err error) {
	if err == nil {
		return
	}
	var ve errs.FieldErrors
	if errors.As(err, &ve) {
		for field, msg := range ve {
			into.Add(field, msg)
		}
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
