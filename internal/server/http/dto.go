package httpserver

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/model"
	"github.com/spendwise/api/internal/query"
	"github.com/spendwise/api/internal/service"
)

const dateLayout = "2006-01-02"

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name,omitempty"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

type authResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type categoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func toCategoryResponse(c *model.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name}
}

type expenseResponse struct {
	ID          uuid.UUID   `json:"id"`
	CategoryID  uuid.UUID   `json:"categoryId"`
	Amount      model.Money `json:"amount"`
	Description string      `json:"description,omitempty"`
	ExpenseDate string      `json:"expenseDate"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func toExpenseResponse(e *model.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		CategoryID:  e.CategoryID,
		Amount:      e.Amount,
		Description: e.Description,
		ExpenseDate: e.ExpenseDate.Format(dateLayout),
		CreatedAt:   e.CreatedAt,
	}
}

type budgetResponse struct {
	ID          uuid.UUID   `json:"id"`
	Amount      model.Money `json:"amount"`
	Year        int         `json:"year"`
	Month       *int        `json:"month"`
	CategoryIDs []uuid.UUID `json:"categoryIds"`
	TotalSpent  model.Money `json:"totalSpent"`
	Remaining   model.Money `json:"remainingBudget"`
}

func toBudgetResponse(v *service.BudgetView) budgetResponse {
	ids := v.Budget.CategoryIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return budgetResponse{
		ID:          v.Budget.ID,
		Amount:      v.Budget.Amount,
		Year:        v.Budget.Year,
		Month:       v.Budget.Month,
		CategoryIDs: ids,
		TotalSpent:  v.Metrics.TotalSpent,
		Remaining:   v.Metrics.Remaining,
	}
}

// pageResponse is the flat paginated envelope shared by list endpoints.
type pageResponse[T any] struct {
	Content          []T   `json:"content"`
	Page             int   `json:"page"`
	Size             int   `json:"size"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	First            bool  `json:"first"`
	Last             bool  `json:"last"`
	NumberOfElements int   `json:"numberOfElements"`
}

func toExpensePage(p query.Page[model.Expense]) pageResponse[expenseResponse] {
	content := make([]expenseResponse, 0, len(p.Content))
	for i := range p.Content {
		content = append(content, toExpenseResponse(&p.Content[i]))
	}
	return pageResponse[expenseResponse]{
		Content:          content,
		Page:             p.Number,
		Size:             p.Size,
		TotalElements:    p.TotalElements,
		TotalPages:       p.TotalPages,
		First:            p.First,
		Last:             p.Last,
		NumberOfElements: p.NumberOfItems,
	}
}
