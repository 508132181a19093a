package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/spendwise/api/internal/errs"
	"github.com/spendwise/api/internal/model"
	"github.com/spendwise/api/internal/query"
)

// ExpenseRepo implements ExpenseRepository using PostgreSQL. Rows are never
// physically deleted; deleted_at IS NULL marks the active set.
type ExpenseRepo struct{ db *DB }

// NewExpenseRepo constructs an expense repository.
func NewExpenseRepo(db *DB) *ExpenseRepo { return &ExpenseRepo{db: db} }

const expenseColumns = `id, user_id, category_id, amount_cents, description, expense_date, created_at, deleted_at`

// Create inserts a new active expense row.
func (r *ExpenseRepo) Create(ctx context.Context, e *model.Expense) error {
	const q = `
INSERT INTO expenses (id, user_id, category_id, amount_cents, description, expense_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Pool.Exec(ctx, q,
		e.ID, e.UserID, e.CategoryID, e.Amount.Cents, e.Description, e.ExpenseDate, e.CreatedAt)
	return err
}

// GetOwned selects a non-deleted expense by id and owner in one combined
// query. Missing, foreign and soft-deleted rows all surface as the same
// error so nothing is revealed about other users' data.
func (r *ExpenseRepo) GetOwned(ctx context.Context, id, userID uuid.UUID) (*model.Expense, error) {
	q := `
SELECT ` + expenseColumns + `
FROM expenses WHERE id=$1 AND user_id=$2 AND deleted_at IS NULL`
	row := r.db.Pool.QueryRow(ctx, q, id, userID)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrAccessDenied
		}
		return nil, err
	}
	return e, nil
}

// Update persists the mutable fields of an expense.
func (r *ExpenseRepo) Update(ctx context.Context, e *model.Expense) error {
	const q = `
UPDATE expenses
SET category_id=$3, amount_cents=$4, description=$5, expense_date=$6
WHERE id=$1 AND user_id=$2 AND deleted_at IS NULL`
	tag, err := r.db.Pool.Exec(ctx, q,
		e.ID, e.UserID, e.CategoryID, e.Amount.Cents, e.Description, e.ExpenseDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrAccessDenied
	}
	return nil
}

// SoftDelete stamps deleted_at on an active row. A second call is a no-op:
// the stamp is written at most once. The bool reports whether this call
// performed the transition.
func (r *ExpenseRepo) SoftDelete(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	const upd = `
UPDATE expenses SET deleted_at=$3
WHERE id=$1 AND user_id=$2 AND deleted_at IS NULL`
	tag, err := r.db.Pool.Exec(ctx, upd, id, userID, at)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Distinguish "already deleted" (idempotent success) from "not owned".
	const sel = `SELECT EXISTS (SELECT 1 FROM expenses WHERE id=$1 AND user_id=$2)`
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, sel, id, userID).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, errs.ErrAccessDenied
	}
	return false, nil
}

// SumForPeriod sums non-deleted spend for (user, category) within the
// inclusive date range. excludeID removes the expense being edited from the
// sum so update re-validation projects against the post-update amount only.
func (r *ExpenseRepo) SumForPeriod(
	ctx context.Context, userID, categoryID uuid.UUID, from, to time.Time, excludeID uuid.UUID,
) (model.Money, error) {
	const q = `
SELECT COALESCE(SUM(amount_cents), 0)
FROM expenses
WHERE user_id=$1 AND category_id=$2 AND deleted_at IS NULL
  AND expense_date BETWEEN $3 AND $4 AND id<>$5`
	var cents int64
	if err := r.db.Pool.QueryRow(ctx, q, userID, categoryID, from, to, excludeID).Scan(&cents); err != nil {
		return model.Money{}, err
	}
	return model.Cents(cents), nil
}

// SumForCategories sums non-deleted spend across a category set within the
// inclusive date range. An empty set sums to zero without touching the store.
func (r *ExpenseRepo) SumForCategories(
	ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID, from, to time.Time,
) (model.Money, error) {
	if len(categoryIDs) == 0 {
		return model.Money{}, nil
	}

	args := []any{userID, from, to}
	placeholders := make([]string, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		args = append(args, id)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	q := fmt.Sprintf(`
SELECT COALESCE(SUM(amount_cents), 0)
FROM expenses
WHERE user_id=$1 AND deleted_at IS NULL
  AND expense_date BETWEEN $2 AND $3 AND category_id IN (%s)`,
		strings.Join(placeholders, ", "))

	var cents int64
	if err := r.db.Pool.QueryRow(ctx, q, args...).Scan(&cents); err != nil {
		return model.Money{}, err
	}
	return model.Cents(cents), nil
}

// List assembles the composed filter into one WHERE clause shared by the
// page query and the count query. Ownership and not-deleted are always
// applied; optional predicates join with AND. The sort column comes from the
// allow-list, never from raw input.
func (r *ExpenseRepo) List(
	ctx context.Context, userID uuid.UUID, f query.ExpenseFilter, sort query.Sort, page query.PageRequest,
) ([]model.Expense, int64, error) {
	where, args := buildExpenseWhere(userID, f)

	countQ := `SELECT COUNT(*) FROM expenses` + where
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQ := fmt.Sprintf(`SELECT %s FROM expenses%s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d`,
		expenseColumns, where, sort.Column, sort.Direction, len(args)+1, len(args)+2)
	args = append(args, page.Size, page.Offset())

	rows, err := r.db.Pool.Query(ctx, listQ, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Expense, 0, page.Size)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

// ExistsForCategory reports whether any non-deleted expense references the category.
func (r *ExpenseRepo) ExistsForCategory(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM expenses WHERE category_id=$1 AND deleted_at IS NULL
)`
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, q, categoryID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func buildExpenseWhere(userID uuid.UUID, f query.ExpenseFilter) (string, []any) {
	conds := []string{"user_id=$1", "deleted_at IS NULL"}
	args := []any{userID}

	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.CategoryID != nil {
		add("category_id=$%d", *f.CategoryID)
	}
	if f.FromDate != nil {
		add("expense_date>=$%d", *f.FromDate)
	}
	if f.ToDate != nil {
		add("expense_date<=$%d", *f.ToDate)
	}
	if f.MinAmount != nil {
		add("amount_cents>=$%d", f.MinAmount.Cents)
	}
	if f.MaxAmount != nil {
		add("amount_cents<=$%d", f.MaxAmount.Cents)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanExpense(row pgx.Row) (*model.Expense, error) {
	var (
		e     model.Expense
		cents int64
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.CategoryID, &cents,
		&e.Description, &e.ExpenseDate, &e.CreatedAt, &e.DeletedAt); err != nil {
		return nil, err
	}
	e.Amount = model.Cents(cents)
	return &e, nil
}
