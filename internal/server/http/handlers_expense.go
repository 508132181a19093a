package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/errs"
	"github.com/spendwise/api/internal/model"
	"github.com/spendwise/api/internal/query"
	"github.com/spendwise/api/internal/service"
)

// Raw messages keep absent fields distinguishable from present-but-invalid
// ones, so one request reports every offending field at once.
type expenseRequest struct {
	CategoryID  json.RawMessage `json:"categoryId"`
	Amount      json.RawMessage `json:"amount"`
	Description *string         `json:"description"`
	ExpenseDate json.RawMessage `json:"expenseDate"`
}

func (s *Server) createExpense(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		s.fail(c, errs.ErrAccessDenied)
		return
	}
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errs.Validation("body", "malformed request body"))
		return
	}

	fe := errs.FieldErrors{}
	in := service.CreateExpenseInput{}

	if req.CategoryID != nil {
		id, err := parseUUIDField(req.CategoryID)
		if err != nil {
			fe.Add("categoryId", "must be a valid UUID")
		} else {
			in.CategoryID = id
		}
	}
	if req.Amount != nil {
		amount, err := parseAmountField(req.Amount)
		if err != nil {
			fe.Add("amount", "must be a positive decimal amount")
		} else {
			in.Amount = amount
		}
	}
	if req.ExpenseDate != nil {
		date, err := parseDateField(req.ExpenseDate)
		if err != nil {
			fe.Add("expenseDate", "must be a date in YYYY-MM-DD format")
		} else {
			in.ExpenseDate = date
		}
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if err := fe.OrNil(); err != nil {
		s.fail(c, err)
		return
	}

	e, err := s.expenses.Create(c.Request.Context(), userID, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toExpenseResponse(e))
}

func (s *Server) getExpense(c *gin.Context) {
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
	e, err := s.expenses.Get(c.Request.Context(), userID, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toExpenseResponse(e))
}

func (s *Server) updateExpense(c *gin.Context) {
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
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errs.Validation("body", "malformed request body"))
		return
	}

	fe := errs.FieldErrors{}
	in := service.UpdateExpenseInput{Description: req.Description}

	if req.CategoryID != nil {
		cid, err := parseUUIDField(req.CategoryID)
		if err != nil {
			fe.Add("categoryId", "must be a valid UUID")
		} else {
			in.CategoryID = &cid
		}
	}
	if req.Amount != nil {
		amount, err := parseAmountField(req.Amount)
		if err != nil {
			fe.Add("amount", "must be a positive decimal amount")
		} else {
			in.Amount = &amount
		}
	}
	if req.ExpenseDate != nil {
		date, err := parseDateField(req.ExpenseDate)
		if err != nil {
			fe.Add("expenseDate", "must be a date in YYYY-MM-DD format")
		} else {
			in.ExpenseDate = &date
		}
	}
	if err := fe.OrNil(); err != nil {
		s.fail(c, err)
		return
	}

	e, err := s.expenses.Update(c.Request.Context(), userID, id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toExpenseResponse(e))
}

func (s *Server) deleteExpense(c *gin.Context) {
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
	if err := s.expenses.Delete(c.Request.Context(), userID, id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listExpenses(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		s.fail(c, errs.ErrAccessDenied)
		return
	}

	fe := errs.FieldErrors{}
	var filter query.ExpenseFilter

	if v := c.Query("categoryId"); v != "" {
		id, err := uuid.FromString(v)
		if err != nil {
			fe.Add("categoryId", "must be a valid UUID")
		} else {
			filter.CategoryID = &id
		}
	}
	if v := c.Query("fromDate"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			fe.Add("fromDate", "must be a date in YYYY-MM-DD format")
		} else {
			filter.FromDate = &d
		}
	}
	if v := c.Query("toDate"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			fe.Add("toDate", "must be a date in YYYY-MM-DD format")
		} else {
			filter.ToDate = &d
		}
	}
	if v := c.Query("minAmount"); v != "" {
		amount, err := model.ParseMoney(v)
		if err != nil {
			fe.Add("minAmount", "must be a positive decimal amount")
		} else {
			filter.MinAmount = &amount
		}
	}
	if v := c.Query("maxAmount"); v != "" {
		amount, err := model.ParseMoney(v)
		if err != nil {
			fe.Add("maxAmount", "must be a positive decimal amount")
		} else {
			filter.MaxAmount = &amount
		}
	}
	page := queryInt(c, "page", 0, fe)
	size := queryInt(c, "size", query.DefaultPageSize, fe)
	if err := fe.OrNil(); err != nil {
		s.fail(c, err)
		return
	}

	result, err := s.expenses.List(c.Request.Context(), userID, filter, c.Query("sort"), page, size)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toExpensePage(result))
}

func queryInt(c *gin.Context, name string, def int, fe errs.FieldErrors) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fe.Add(name, "must be an integer")
		return def
	}
	return n
}

func parseUUIDField(raw json.RawMessage) (uuid.UUID, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return uuid.Nil, err
	}
	return uuid.FromString(s)
}

func parseAmountField(raw json.RawMessage) (model.Money, error) {
	s := strings.TrimSpace(string(raw))
	if len(s) >= 2 && s[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return model.Money{}, err
		}
	}
	return model.ParseMoney(s)
}

func parseDateField(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(dateLayout, s)
}
