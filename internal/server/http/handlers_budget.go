package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/errs"
	"github.com/spendwise/api/internal/service"
)

type budgetRequest struct {
	Amount      json.RawMessage `json:"amount"`
	Year        *int            `json:"year"`
	Month       json.RawMessage `json:"month"`
	CategoryIDs []string        `json:"categoryIds"`
}

var jsonNull = []byte("null")

// parseMonthField decodes the month value of a budget payload. The raw
// message is present for both an explicit null and a number; null means
// a yearly budget.
func parseMonthField(raw json.RawMessage, fe errs.FieldErrors) *int {
	if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return nil
	}
	var m int
	if err := json.Unmarshal(raw, &m); err != nil {
		fe.Add("month", "must be an integer between 1 and 12 or null")
		return nil
	}
	return &m
}

func parseCategoryIDs(raw []string, fe errs.FieldErrors) []uuid.UUID {
	if raw == nil {
		return nil
	}
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.FromString(s)
		if err != nil {
			fe.Add("categoryIds", "must contain only valid UUIDs")
			return nil
		}
		out = append(out, id)
	}
	return out
}

func (s *Server) createBudget(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		s.fail(c, errs.ErrAccessDenied)
		return
	}
	var req budgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errs.Validation("body", "malformed request body"))
		return
	}

	fe := errs.FieldErrors{}
	in := service.CreateBudgetInput{}

	if req.Amount != nil {
		amount, err := parseAmountField(req.Amount)
		if err != nil {
			fe.Add("amount", "must be a positive decimal amount")
		} else {
			in.Amount = amount
		}
	}
	if req.Year != nil {
		in.Year = *req.Year
	}
	if req.Month != nil {
		in.Month = parseMonthField(req.Month, fe)
	}
	in.CategoryIDs = parseCategoryIDs(req.CategoryIDs, fe)
	if err := fe.OrNil(); err != nil {
		s.fail(c, err)
		return
	}

	view, err := s.budgets.Create(c.Request.Context(), userID, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBudgetResponse(view))
}

func (s *Server) getBudget(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		s.fail(c, errs.ErrAccessDenied)
		return
	}
	id, err := idParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	view, err := s.budgets.Get(c.Request.Context(), userID, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toBudgetResponse(view))
}

func (s *Server) listBudgets(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		s.fail(c, errs.ErrAccessDenied)
		return
	}
	var year *int
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			s.fail(c, errs.Validation("year", "must be an integer"))
			return
		}
		year = &y
	}
	views, err := s.budgets.List(c.Request.Context(), userID, year)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]budgetResponse, 0, len(views))
	for i := range views {
		out = append(out, toBudgetResponse(&views[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) updateBudget(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		s.fail(c, errs.ErrAccessDenied)
		return
	}
	id, err := idParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req budgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errs.Validation("body", "malformed request body"))
		return
	}

	fe := errs.FieldErrors{}
	in := service.UpdateBudgetInput{Year: req.Year}

	if req.Amount != nil {
		amount, err := parseAmountField(req.Amount)
		if err != nil {
			fe.Add("amount", "must be a positive decimal amount")
		} else {
			in.Amount = &amount
		}
	}
	// An absent month leaves the period alone; an explicit null switches the
	// budget to yearly.
	if req.Month != nil {
		in.Month = service.OptionalMonth{Set: true, Value: parseMonthField(req.Month, fe)}
	}
	in.CategoryIDs = parseCategoryIDs(req.CategoryIDs, fe)
	if err := fe.OrNil(); err != nil {
		s.fail(c, err)
		return
	}

	view, err := s.budgets.Update(c.Request.Context(), userID, id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toBudgetResponse(view))
}

func (s *Server) deleteBudget(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		s.fail(c, errs.ErrAccessDenied)
		return
	}
	id, err := idParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.budgets.Delete(c.Request.Context(), userID, id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
