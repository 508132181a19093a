package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/spendwise/api/internal/errs"
	"github.com/spendwise/api/internal/model"
)

// CategoryRepo implements CategoryRepository using PostgreSQL.
type CategoryRepo struct{ db *DB }

// NewCategoryRepo constructs a category repository.
func NewCategoryRepo(db *DB) *CategoryRepo { return &CategoryRepo{db: db} }

// Create inserts a new category row.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	const q = `
INSERT INTO categories (id, user_id, name)
VALUES ($1, $2, $3)`
	_, err := r.db.Pool.Exec(ctx, q, c.ID, c.UserID, c.Name)
	return err
}

// GetOwned selects a category by id and owner in one combined query, so a
// foreign category and a missing one are indistinguishable to the caller.
func (r *CategoryRepo) GetOwned(ctx context.Context, id, userID uuid.UUID) (*model.Category, error) {
	const q = `
SELECT id, user_id, name
FROM categories WHERE id=$1 AND user_id=$2`
	var c model.Category
	if err := r.db.Pool.QueryRow(ctx, q, id, userID).Scan(&c.ID, &c.UserID, &c.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListByUser returns all categories of a user ordered by name.
func (r *CategoryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Category, error) {
	const q = `
SELECT id, user_id, name
FROM categories WHERE user_id=$1 ORDER BY name`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// NameExists reports whether the user already has a category with this exact
// name, optionally excluding one id (for renames).
func (r *CategoryRepo) NameExists(ctx context.Context, userID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM categories WHERE user_id=$1 AND name=$2 AND id<>$3
)`
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, q, userID, name, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Rename updates the category name.
func (r *CategoryRepo) Rename(ctx context.Context, id uuid.UUID, name string) error {
	const q = `UPDATE categories SET name=$2 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes the category row.
func (r *CategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM categories WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
