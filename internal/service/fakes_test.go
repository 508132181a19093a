package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/errs"
	"github.com/spendwise/api/internal/model"
	"github.com/spendwise/api/internal/query"
	"github.com/spendwise/api/internal/repository"
)

type fakeUsers struct {
	byID map[uuid.UUID]*model.User

	createErr error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers(ids ...uuid.UUID) *fakeUsers {
	f := &fakeUsers{byID: map[uuid.UUID]*model.User{}}
	for _, id := range ids {
		f.byID[id] = &model.User{ID: id, Email: id.String() + "@test"}
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return errs.ErrEmailTaken
		}
	}
	cpy := *u
	f.byID[u.ID] = &cpy
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *u
	return &cpy, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cpy := *u
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}

type fakeCategories struct {
	byID map[uuid.UUID]*model.Category
}

var _ repository.CategoryRepository = (*fakeCategories)(nil)

func newFakeCategories() *fakeCategories {
	return &fakeCategories{byID: map[uuid.UUID]*model.Category{}}
}

func (f *fakeCategories) add(userID uuid.UUID, name string) uuid.UUID {
	id := uuid.Must(uuid.NewV4())
	f.byID[id] = &model.Category{ID: id, UserID: userID, Name: name}
	return id
}

func (f *fakeCategories) Create(_ context.Context, c *model.Category) error {
	cpy := *c
	f.byID[c.ID] = &cpy
	return nil
}

func (f *fakeCategories) GetOwned(_ context.Context, id, userID uuid.UUID) (*model.Category, error) {
	c, ok := f.byID[id]
	if !ok || c.UserID != userID {
		return nil, errs.ErrNotFound
	}
	cpy := *c
	return &cpy, nil
}

func (f *fakeCategories) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Category, error) {
	var out []model.Category
	for _, c := range f.byID {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCategories) NameExists(_ context.Context, userID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	for _, c := range f.byID {
		if c.UserID == userID && c.Name == name && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategories) Rename(_ context.Context, id uuid.UUID, name string) error {
	c, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	c.Name = name
	return nil
}

func (f *fakeCategories) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeExpenses struct {
	byID map[uuid.UUID]*model.Expense

	listTotal int64
}

var _ repository.ExpenseRepository = (*fakeExpenses)(nil)

func newFakeExpenses() *fakeExpenses {
	return &fakeExpenses{byID: map[uuid.UUID]*model.Expense{}}
}

func (f *fakeExpenses) Create(_ context.Context, e *model.Expense) error {
	cpy := *e
	f.byID[e.ID] = &cpy
	return nil
}

func (f *fakeExpenses) GetOwned(_ context.Context, id, userID uuid.UUID) (*model.Expense, error) {
	e, ok := f.byID[id]
	if !ok || e.UserID != userID || e.Deleted() {
		return nil, errs.ErrAccessDenied
	}
	cpy := *e
	return &cpy, nil
}

func (f *fakeExpenses) Update(_ context.Context, e *model.Expense) error {
	old, ok := f.byID[e.ID]
	if !ok || old.UserID != e.UserID || old.Deleted() {
		return errs.ErrAccessDenied
	}
	cpy := *e
	f.byID[e.ID] = &cpy
	return nil
}

func (f *fakeExpenses) SoftDelete(_ context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	e, ok := f.byID[id]
	if !ok || e.UserID != userID {
		return false, errs.ErrAccessDenied
	}
	if e.Deleted() {
		return false, nil
	}
	e.DeletedAt = &at
	return true, nil
}

func (f *fakeExpenses) SumForPeriod(_ context.Context, userID, categoryID uuid.UUID, from, to time.Time, excludeID uuid.UUID) (model.Money, error) {
	var sum model.Money
	for _, e := range f.byID {
		if e.UserID != userID || e.CategoryID != categoryID || e.Deleted() || e.ID == excludeID {
			continue
		}
		if e.ExpenseDate.Before(from) || e.ExpenseDate.After(to) {
			continue
		}
		sum = sum.Add(e.Amount)
	}
	return sum, nil
}

func (f *fakeExpenses) SumForCategories(_ context.Context, userID uuid.UUID, categoryIDs []uuid.UUID, from, to time.Time) (model.Money, error) {
	var sum model.Money
	for _, cid := range categoryIDs {
		s, _ := f.SumForPeriod(context.Background(), userID, cid, from, to, uuid.Nil)
		sum = sum.Add(s)
	}
	return sum, nil
}

func (f *fakeExpenses) List(_ context.Context, userID uuid.UUID, _ query.ExpenseFilter, _ query.Sort, page query.PageRequest) ([]model.Expense, int64, error) {
	var out []model.Expense
	for _, e := range f.byID {
		if e.UserID == userID && !e.Deleted() {
			out = append(out, *e)
		}
	}
	total := f.listTotal
	if total == 0 {
		total = int64(len(out))
	}
	if len(out) > page.Size {
		out = out[:page.Size]
	}
	return out, total, nil
}

func (f *fakeExpenses) ExistsForCategory(_ context.Context, categoryID uuid.UUID) (bool, error) {
	for _, e := range f.byID {
		if e.CategoryID == categoryID && !e.Deleted() {
			return true, nil
		}
	}
	return false, nil
}

type fakeBudgets struct {
	byID map[uuid.UUID]*model.Budget
}

var _ repository.BudgetRepository = (*fakeBudgets)(nil)

func newFakeBudgets() *fakeBudgets {
	return &fakeBudgets{byID: map[uuid.UUID]*model.Budget{}}
}

func (f *fakeBudgets) Create(_ context.Context, b *model.Budget) error {
	cpy := *b
	f.byID[b.ID] = &cpy
	return nil
}

func (f *fakeBudgets) GetOwned(_ context.Context, id, userID uuid.UUID) (*model.Budget, error) {
	b, ok := f.byID[id]
	if !ok || b.UserID != userID || b.Deleted() {
		return nil, errs.ErrAccessDenied
	}
	cpy := *b
	return &cpy, nil
}

func (f *fakeBudgets) Update(_ context.Context, b *model.Budget) error {
	old, ok := f.byID[b.ID]
	if !ok || old.UserID != b.UserID || old.Deleted() {
		return errs.ErrAccessDenied
	}
	cpy := *b
	f.byID[b.ID] = &cpy
	return nil
}

func (f *fakeBudgets) SoftDelete(_ context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	b, ok := f.byID[id]
	if !ok || b.UserID != userID {
		return false, errs.ErrAccessDenied
	}
	if b.Deleted() {
		return false, nil
	}
	b.DeletedAt = &at
	return true, nil
}

func (f *fakeBudgets) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Budget, error) {
	var out []model.Budget
	for _, b := range f.byID {
		if b.UserID == userID && !b.Deleted() {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBudgets) PeriodExists(_ context.Context, userID uuid.UUID, year int, month *int, excludeID uuid.UUID) (bool, error) {
	for _, b := range f.byID {
		if b.UserID != userID || b.Deleted() || b.Year != year || b.ID == excludeID {
			continue
		}
		if (month == nil) != (b.Month == nil) {
			continue
		}
		if month == nil || *month == *b.Month {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBudgets) FindForPeriodAndCategory(_ context.Context, userID uuid.UUID, year, month int, categoryID uuid.UUID) ([]model.Budget, error) {
	var out []model.Budget
	for _, b := range f.byID {
		if b.UserID != userID || b.Deleted() || b.Year != year {
			continue
		}
		if b.Month == nil || *b.Month != month {
			continue
		}
		if b.Covers(categoryID) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBudgets) ExistsForCategory(_ context.Context, categoryID uuid.UUID) (bool, error) {
	for _, b := range f.byID {
		if !b.Deleted() && b.Covers(categoryID) {
			return true, nil
		}
	}
	return false, nil
}

type auditEntry struct {
	expenseID uuid.UUID
	action    model.AuditAction
}

type fakeAudit struct {
	entries []auditEntry
}

var _ repository.AuditRepository = (*fakeAudit)(nil)

func (f *fakeAudit) Record(_ context.Context, expenseID uuid.UUID, action model.AuditAction, _ string) error {
	f.entries = append(f.entries, auditEntry{expenseID: expenseID, action: action})
	return nil
}
