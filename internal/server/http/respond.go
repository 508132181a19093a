package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spendwise/api/internal/errs"
)

// errorBody is the stable error envelope. Messages are fixed per code;
// internal detail never crosses the boundary.
type errorBody struct {
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// fail maps a service error onto a status code and client-safe envelope.
func (s *Server) fail(c *gin.Context, err error) {
	var fe errs.FieldErrors
	if errors.As(err, &fe) {
		c.JSON(http.StatusBadRequest, errorBody{
			Code:        "VALIDATION_ERROR",
			Message:     "One or more fields failed validation",
			FieldErrors: fe,
		})
		return
	}

	switch {
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody{
			Code:    "RESOURCE_NOT_FOUND",
			Message: "The requested resource was not found",
		})
	case errors.Is(err, errs.ErrAccessDenied):
		c.JSON(http.StatusForbidden, errorBody{
			Code:    "ACCESS_DENIED",
			Message: "Access denied",
		})
	case errors.Is(err, errs.ErrBudgetExceeded):
		c.JSON(http.StatusUnprocessableEntity, errorBody{
			Code:    "BUDGET_EXCEEDED",
			Message: "Expense exceeds remaining monthly budget",
		})
	case errors.Is(err, errs.ErrDuplicateBudget):
		c.JSON(http.StatusConflict, errorBody{
			Code:    "DUPLICATE_BUDGET",
			Message: "A budget already exists for this user, year and month",
		})
	case errors.Is(err, errs.ErrEmailTaken):
		c.JSON(http.StatusConflict, errorBody{
			Code:    "EMAIL_ALREADY_EXISTS",
			Message: "Email already in use",
		})
	case errors.Is(err, errs.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorBody{
			Code:    "INVALID_CREDENTIALS",
			Message: "Invalid email or password",
		})
	case errors.Is(err, errs.ErrInvalidRefreshToken):
		c.JSON(http.StatusUnauthorized, errorBody{
			Code:    "INVALID_REFRESH_TOKEN",
			Message: "Invalid or expired refresh token",
		})
	case errors.Is(err, errs.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, errorBody{
			Code:    "RATE_LIMITED",
			Message: "Too many attempts, try again later",
		})
	default:
		// Unexpected failure: log the detail, return only the classification.
		s.log.Error("internal error", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, errorBody{
			Code:    "INTERNAL_ERROR",
			Message: "An unexpected error occurred",
		})
	}
}
