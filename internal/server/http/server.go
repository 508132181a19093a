// Package httpserver exposes the Spendwise REST API over gin.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/spendwise/api/internal/service"
)

// TokenParser verifies an access token and returns its subject.
type TokenParser interface {
	ParseAccessToken(token string) (uuid.UUID, error)
}

// Pinger reports storage connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires services into HTTP handlers.
type Server struct {
	auth       service.AuthService
	tokens     TokenParser
	categories service.CategoryService
	expenses   service.ExpenseService
	budgets    service.BudgetService
	db         Pinger
	log        *zap.Logger
}

// New constructs the HTTP server with injected services.
func New(
	auth service.AuthService,
	tokens TokenParser,
	categories service.CategoryService,
	expenses service.ExpenseService,
	budgets service.BudgetService,
	db Pinger,
	log *zap.Logger,
) *Server {
	return &Server{
		auth:       auth,
		tokens:     tokens,
		categories: categories,
		expenses:   expenses,
		budgets:    budgets,
		db:         db,
		log:        log,
	}
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(s.recoveryMiddleware(), s.loggingMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.healthCheck)

	r.POST("/auth/register", s.register)
	r.POST("/auth/login", s.login)
	r.POST("/auth/refresh", s.refresh)

	authed := r.Group("/", s.authMiddleware())
	authed.GET("/users/me", s.currentUser)

	authed.GET("/categories", s.listCategories)
	authed.POST("/categories", s.createCategory)
	authed.GET("/categories/:id", s.getCategory)
	authed.PUT("/categories/:id", s.renameCategory)
	authed.DELETE("/categories/:id", s.deleteCategory)

	authed.GET("/expenses", s.listExpenses)
	authed.POST("/expenses", s.createExpense)
	authed.GET("/expenses/:id", s.getExpense)
	authed.PUT("/expenses/:id", s.updateExpense)
	authed.DELETE("/expenses/:id", s.deleteExpense)

	authed.GET("/budgets", s.listBudgets)
	authed.POST("/budgets", s.createBudget)
	authed.GET("/budgets/:id", s.getBudget)
	authed.PUT("/budgets/:id", s.updateBudget)
	authed.DELETE("/budgets/:id", s.deleteBudget)

	return r
}

func (s *Server) healthCheck(c *gin.Context) {
	if err := s.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "spendwise-api"})
}
