package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/spendwise/api/internal/errs"
	"github.com/spendwise/api/internal/model"
)

// BudgetRepo implements BudgetRepository using PostgreSQL. Category links
// live in budget_categories; budget rows are soft-deleted, links stay.
type BudgetRepo struct{ db *DB }

// NewBudgetRepo constructs a budget repository.
func NewBudgetRepo(db *DB) *BudgetRepo { return &BudgetRepo{db: db} }

const budgetColumns = `id, user_id, amount_cents, year, month, created_at, deleted_at`

// Create inserts the budget row and its category links in one transaction.
func (r *BudgetRepo) Create(ctx context.Context, b *model.Budget) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const ins = `
INSERT INTO budgets (id, user_id, amount_cents, year, month, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err = tx.Exec(ctx, ins, b.ID, b.UserID, b.Amount.Cents, b.Year, b.Month, b.CreatedAt); err != nil {
		return err
	}
	return insertBudgetLinks(ctx, tx, b.ID, b.CategoryIDs)
}

// GetOwned selects a non-deleted budget by id and owner in one combined
// query, then loads its category links.
func (r *BudgetRepo) GetOwned(ctx context.Context, id, userID uuid.UUID) (*model.Budget, error) {
	q := `
SELECT ` + budgetColumns + `
FROM budgets WHERE id=$1 AND user_id=$2 AND deleted_at IS NULL`
	b, err := scanBudget(r.db.Pool.QueryRow(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrAccessDenied
		}
		return nil, err
	}

	const links = `SELECT category_id FROM budget_categories WHERE budget_id=$1`
	rows, err := r.db.Pool.Query(ctx, links, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var cid uuid.UUID
		if err := rows.Scan(&cid); err != nil {
			return nil, err
		}
		b.CategoryIDs = append(b.CategoryIDs, cid)
	}
	return b, rows.Err()
}

// Update persists amount and period and replaces the category links.
func (r *BudgetRepo) Update(ctx context.Context, b *model.Budget) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const upd = `
UPDATE budgets SET amount_cents=$3, year=$4, month=$5
WHERE id=$1 AND user_id=$2 AND deleted_at IS NULL`
	tag, err := tx.Exec(ctx, upd, b.ID, b.UserID, b.Amount.Cents, b.Year, b.Month)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrAccessDenied
	}

	const del = `DELETE FROM budget_categories WHERE budget_id=$1`
	if _, err = tx.Exec(ctx, del, b.ID); err != nil {
		return err
	}
	return insertBudgetLinks(ctx, tx, b.ID, b.CategoryIDs)
}

// SoftDelete stamps deleted_at on an active budget row; a second call is a
// no-op. The bool reports whether this call performed the transition.
func (r *BudgetRepo) SoftDelete(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	const upd = `
UPDATE budgets SET deleted_at=$3
WHERE id=$1 AND user_id=$2 AND deleted_at IS NULL`
	tag, err := r.db.Pool.Exec(ctx, upd, id, userID, at)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	const sel = `SELECT EXISTS (SELECT 1 FROM budgets WHERE id=$1 AND user_id=$2)`
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, sel, id, userID).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, errs.ErrAccessDenied
	}
	return false, nil
}

// ListByUser returns non-deleted budgets with their category links, newest
// period first. Yearly budgets (month NULL) sort after the months of the
// same year.
func (r *BudgetRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Budget, error) {
	q := `
SELECT ` + budgetColumns + `
FROM budgets
WHERE user_id=$1 AND deleted_at IS NULL
ORDER BY year DESC, month DESC NULLS LAST`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Budget, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		index[b.ID] = len(out)
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const links = `
SELECT bc.budget_id, bc.category_id
FROM budget_categories bc
JOIN budgets b ON b.id = bc.budget_id
WHERE b.user_id=$1 AND b.deleted_at IS NULL`
	lrows, err := r.db.Pool.Query(ctx, links, userID)
	if err != nil {
		return nil, err
	}
	defer lrows.Close()
	for lrows.Next() {
		var bid, cid uuid.UUID
		if err := lrows.Scan(&bid, &cid); err != nil {
			return nil, err
		}
		if i, ok := index[bid]; ok {
			out[i].CategoryIDs = append(out[i].CategoryIDs, cid)
		}
	}
	return out, lrows.Err()
}

// PeriodExists reports whether a non-deleted budget occupies the period key.
// A nil month matches only yearly budgets; the yearly key never collides
// with a concrete month.
func (r *BudgetRepo) PeriodExists(
	ctx context.Context, userID uuid.UUID, year int, month *int, excludeID uuid.UUID,
) (bool, error) {
	var (
		q    string
		args []any
	)
	if month == nil {
		q = `
SELECT EXISTS (
  SELECT 1 FROM budgets
  WHERE user_id=$1 AND year=$2 AND month IS NULL AND deleted_at IS NULL AND id<>$3
)`
		args = []any{userID, year, excludeID}
	} else {
		q = `
SELECT EXISTS (
  SELECT 1 FROM budgets
  WHERE user_id=$1 AND year=$2 AND month=$3 AND deleted_at IS NULL AND id<>$4
)`
		args = []any{userID, year, *month, excludeID}
	}
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, q, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// FindForPeriodAndCategory returns non-deleted monthly budgets for the
// period whose category set contains the category. Category links are not
// hydrated; the enforcer only needs the caps.
func (r *BudgetRepo) FindForPeriodAndCategory(
	ctx context.Context, userID uuid.UUID, year, month int, categoryID uuid.UUID,
) ([]model.Budget, error) {
	q := `
SELECT b.id, b.user_id, b.amount_cents, b.year, b.month, b.created_at, b.deleted_at
FROM budgets b
JOIN budget_categories bc ON bc.budget_id = b.id
WHERE b.user_id=$1 AND b.year=$2 AND b.month=$3 AND b.deleted_at IS NULL
  AND bc.category_id=$4`
	rows, err := r.db.Pool.Query(ctx, q, userID, year, month, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// ExistsForCategory reports whether any non-deleted budget references the category.
func (r *BudgetRepo) ExistsForCategory(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM budget_categories bc
  JOIN budgets b ON b.id = bc.budget_id
  WHERE bc.category_id=$1 AND b.deleted_at IS NULL
)`
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, q, categoryID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func insertBudgetLinks(ctx context.Context, tx pgx.Tx, budgetID uuid.UUID, categoryIDs []uuid.UUID) error {
	const ins = `INSERT INTO budget_categories (budget_id, category_id) VALUES ($1, $2)`
	for _, cid := range categoryIDs {
		if _, err := tx.Exec(ctx, ins, budgetID, cid); err != nil {
			return err
		}
	}
	return nil
}

func scanBudget(row pgx.Row) (*model.Budget, error) {
	var (
		b     model.Budget
		cents int64
	)
	if err := row.Scan(&b.ID, &b.UserID, &cents, &b.Year, &b.Month, &b.CreatedAt, &b.DeletedAt); err != nil {
		return nil, err
	}
	b.Amount = model.Cents(cents)
	return &b, nil
}
