// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// User owns categories, expenses and budgets. Never mutated by the ledger core.
type User struct {
	ID           uuid.UUID
	Email        string // unique
	Name         string
	PasswordHash string // PHC-encoded argon2id
	CreatedAt    time.Time
}

// Tokens collects issued access/refresh tokens.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // access token expiry (for diagnostics)
}

// Category is a per-user label attached to expenses and budgets.
// Name is unique within a user (case-sensitive, trimmed).
type Category struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Name   string
}

// Expense is a single journal record. DeletedAt is the soft-delete state:
// nil means active, non-nil carries the deletion timestamp. There is no
// separate boolean, so the two can never disagree.
type Expense struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CategoryID  uuid.UUID
	Amount      Money
	Description string
	ExpenseDate time.Time // calendar date, time part zero, UTC
	CreatedAt   time.Time
	DeletedAt   *time.Time
}

// Deleted reports whether the expense is soft-deleted.
func (e *Expense) Deleted() bool { return e.DeletedAt != nil }

// Budget is a per-user spending cap for a period, covering zero or more
// categories. Month is nil for a yearly budget; (Year, Month) is the period
// key and at most one non-deleted budget may exist per key per user.
type Budget struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Amount      Money
	Year        int
	Month       *int // 1..12, nil = yearly
	CategoryIDs []uuid.UUID
	CreatedAt   time.Time
	DeletedAt   *time.Time
}

// Deleted reports whether the budget is soft-deleted.
func (b *Budget) Deleted() bool { return b.DeletedAt != nil }

// Covers reports whether the budget's category set contains the given id.
// An empty set never matches, which makes such a budget inert for
// enforcement while still appearing in listings.
func (b *Budget) Covers(categoryID uuid.UUID) bool {
	for _, id := range b.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}

// PeriodKey identifies a budget's effective window. Month == 0 denotes a
// yearly period, distinct from any concrete month.
type PeriodKey struct {
	Year  int
	Month int // 1..12, or 0 for yearly
}

// PeriodOf truncates a calendar date to its monthly period key.
func PeriodOf(date time.Time) PeriodKey {
	return PeriodKey{Year: date.Year(), Month: int(date.Month())}
}

// Bounds returns the inclusive first and last calendar day of the period.
func (p PeriodKey) Bounds() (start, end time.Time) {
	if p.Month == 0 {
		start = time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(p.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
		return start, end
	}
	start = time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end
}

// BudgetMetrics reports period spend against a budget's cap.
// Remaining is floored at zero; over-budget never reads negative.
type BudgetMetrics struct {
	TotalSpent Money
	Remaining  Money
}

// AuditAction is the kind of change recorded in the expense audit journal.
type AuditAction string

const (
	AuditCreated AuditAction = "CREATED"
	AuditUpdated AuditAction = "UPDATED"
	AuditDeleted AuditAction = "DELETED"
)
