// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the referenced entity does not exist (or is not visible to the caller).
	ErrNotFound = errors.New("resource not found")

	// ErrAccessDenied indicates the resource exists but is not owned by the caller, or is soft-deleted.
	ErrAccessDenied = errors.New("access denied")

	// ErrBudgetExceeded indicates the budget enforcer rejected a prospective expense write.
	ErrBudgetExceeded = errors.New("budget exceeded")

	// ErrDuplicateBudget indicates a (user, year, month) period-key collision.
	ErrDuplicateBudget = errors.New("duplicate budget period")

	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken indicates the registration email is already in use.
	ErrEmailTaken = errors.New("email already in use")

	// ErrInvalidRefreshToken indicates a missing, malformed, expired or wrong-type refresh token.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)

// FieldErrors is a validation failure carrying one message per offending field.
// It satisfies error so it can travel up through the service layers and be
// unpacked at the HTTP boundary with errors.As.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, fe[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a message for a field; the first message per field wins.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// OrNil returns the collected errors as an error, or nil when empty.
func (fe FieldErrors) OrNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// Validation builds a single-field FieldErrors value.
func Validation(field, msg string) error {
	return FieldErrors{field: msg}
}
