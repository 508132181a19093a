package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/spendwise/api/internal/errs"
)

type categoryRequest struct {
	Name string `json:"name"`
}

// idParam parses the :id path segment.
func idParam(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		return uuid.Nil, errs.Validation("id", "must be a valid UUID")
	}
	return id, nil
}

func (s *Server) listCategories(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		s.fail(c, errs.ErrAccessDenied)
		return
	}
	categories, err := s.categories.List(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, toCategoryResponse(&categories[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createCategory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		s.fail(c, errs.ErrAccessDenied)
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errs.Validation("body", "malformed request body"))
		return
	}
	category, err := s.categories.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCategoryResponse(category))
}

func (s *Server) getCategory(c *gin.Context) {
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
	category, err := s.categories.Get(c.Request.Context(), userID, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategoryResponse(category))
}

func (s *Server) renameCategory(c *gin.Context) {
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
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errs.Validation("body", "malformed request body"))
		return
	}
	category, err := s.categories.Rename(c.Request.Context(), userID, id, req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategoryResponse(category))
}

func (s *Server) deleteCategory(c *gin.Context) {
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
	if err := s.categories.Delete(c.Request.Context(), userID, id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
