// Package query composes dynamic, bounded expense list queries: optional
// filter predicates AND-ed together, an allow-listed sort order, and
// normalized pagination. Everything here is validated before any store
// query runs.
package query

import (
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/errs"
	"github.com/spendwise/api/internal/model"
)

// Pagination bounds.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Sort directions.
const (
	Asc  = "ASC"
	Desc = "DESC"
)

// sortColumns is the allow-list of sortable fields mapped to their storage
// columns. Anything else is rejected up front so arbitrary field names never
// reach the store.
var sortColumns = map[string]string{
	"amount":      "amount_cents",
	"createdAt":   "created_at",
	"expenseDate": "expense_date",
	"categoryId":  "category_id",
	"description": "description",
}

// Sort is a validated sort order over one allow-listed field.
type Sort struct {
	Column    string // storage column, from the allow-list
	Direction string // Asc or Desc
}

// DefaultSort orders by expense date, newest first.
func DefaultSort() Sort {
	return Sort{Column: sortColumns["expenseDate"], Direction: Desc}
}

// ParseSort validates a "field" or "field,direction" parameter against the
// allow-list. An empty parameter yields the default sort.
func ParseSort(param string) (Sort, error) {
	if strings.TrimSpace(param) == "" {
		return DefaultSort(), nil
	}
	field, dir, hasDir := strings.Cut(param, ",")
	field = strings.TrimSpace(field)

	col, ok := sortColumns[field]
	if !ok {
		return Sort{}, errs.Validation("sort", "unsupported sort field")
	}

	direction := Desc
	if hasDir {
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "asc":
			direction = Asc
		case "desc":
			direction = Desc
		default:
			return Sort{}, errs.Validation("sort", "sort direction must be asc or desc")
		}
	}
	return Sort{Column: col, Direction: direction}, nil
}

// ExpenseFilter is the optional-predicate set for expense listing. Ownership
// and not-deleted are implicit and always applied by the repository; nil
// fields contribute no predicate. Ranges are inclusive on both ends.
type ExpenseFilter struct {
	CategoryID *uuid.UUID
	FromDate   *time.Time
	ToDate     *time.Time
	MinAmount  *model.Money
	MaxAmount  *model.Money
}

// Validate checks range ordering. Both offending fields are reported when a
// range is inverted.
func (f ExpenseFilter) Validate() error {
	fe := errs.FieldErrors{}
	if f.FromDate != nil && f.ToDate != nil && f.FromDate.After(*f.ToDate) {
		fe.Add("fromDate", "must not be after toDate")
		fe.Add("toDate", "must not be before fromDate")
	}
	if f.MinAmount != nil && f.MaxAmount != nil && f.MinAmount.GreaterThan(*f.MaxAmount) {
		fe.Add("minAmount", "must not exceed maxAmount")
		fe.Add("maxAmount", "must not be below minAmount")
	}
	return fe.OrNil()
}

// PageRequest is a normalized page selector.
type PageRequest struct {
	Number int // zero-based
	Size   int
}

// NormalizePage floors the page at 0 and clamps the size into (0, MaxPageSize],
// defaulting when unset or non-positive.
func NormalizePage(page, size int) PageRequest {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return PageRequest{Number: page, Size: size}
}

// Offset returns the row offset for the page.
func (p PageRequest) Offset() int { return p.Number * p.Size }

// Page is one page of results plus metadata.
type Page[T any] struct {
	Content       []T
	Number        int
	Size          int
	TotalElements int64
	TotalPages    int
	First         bool
	Last          bool
	NumberOfItems int
}

// NewPage assembles page metadata from content and a total count.
func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	totalPages := int((total + int64(req.Size) - 1) / int64(req.Size))
	return Page[T]{
		Content:       content,
		Number:        req.Number,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         req.Number == 0,
		Last:          req.Number >= totalPages-1,
		NumberOfItems: len(content),
	}
}
