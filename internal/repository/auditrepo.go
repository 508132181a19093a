package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/model"
)

// AuditRepository appends immutable expense change records. The journal is
// write-only from the application's point of view; rows are kept for
// compliance and never served through user-facing endpoints.
type AuditRepository interface {
	// Record appends one audit row. Details is an optional JSON snapshot.
	Record(ctx context.Context, expenseID uuid.UUID, action model.AuditAction, details string) error
}
