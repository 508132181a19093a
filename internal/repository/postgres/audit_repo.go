package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/model"
)

// AuditRepo implements AuditRepository using PostgreSQL. The journal is
// append-only; nothing in the application updates or deletes its rows.
type AuditRepo struct{ db *DB }

// NewAuditRepo constructs an audit repository.
func NewAuditRepo(db *DB) *AuditRepo { return &AuditRepo{db: db} }

// Record appends one audit row for an expense change.
func (r *AuditRepo) Record(ctx context.Context, expenseID uuid.UUID, action model.AuditAction, details string) error {
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	const q = `
INSERT INTO expense_audit_logs (id, expense_id, action, details)
VALUES ($1, $2, $3, $4)`
	_, err = r.db.Pool.Exec(ctx, q, id, expenseID, string(action), details)
	return err
}
