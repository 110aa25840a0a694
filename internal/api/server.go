// Package api exposes the costing service as a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platecost/platecost/internal/config"
	"github.com/platecost/platecost/internal/costing"
	"github.com/platecost/platecost/internal/models"
	"github.com/platecost/platecost/internal/services/costs"
)

// Costing is the part of the costing service the API serves.
type Costing interface {
	TenantID() string
	Engine(ctx context.Context) (*costing.Engine, error)
	Board(ctx context.Context) (*costs.Board, error)
	CostRecipe(ctx context.Context, recipeID string) (*costing.CostResult, error)
	InputCatalog(ctx context.Context, recipeID string) ([]models.CatalogEntry, error)
	AddLine(ctx context.Context, input costs.LineInput) (*models.RecipeLine, error)
	UpdateLine(ctx context.Context, lineID string, input costs.LineInput) (*models.RecipeLine, error)
	DeleteLine(ctx context.Context, recipeID, lineID string) error
	CreateRecipe(ctx context.Context, input costs.CreateRecipeInput) (*models.Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *models.Recipe) error
	CreateIngredient(ctx context.Context, input costs.CreateIngredientInput) (*models.Ingredient, error)
	SaveConversion(ctx context.Context, from, to string, factor float64) (*models.UomConversion, error)
	UnitCost(ctx context.Context, ingredientID string) (*costs.IngredientCost, error)
	ResolveConversion(ctx context.Context, from, to string) (float64, error)
	Units(ctx context.Context) ([]string, error)
}

// HealthFunc reports whether the backing store is usable.
type HealthFunc func(ctx context.Context) error

// Server is the HTTP API.
type Server struct {
	router  *gin.Engine
	costing Costing
	health  HealthFunc
	metrics *Metrics
	cfg     config.ServerConfig
	logger  *slog.Logger
}

// NewServer creates the API over svc. health may be nil.
func NewServer(svc Costing, health HealthFunc, cfg config.ServerConfig) *Server {
	s := &Server{
		router:  gin.New(),
		costing: svc,
		health:  health,
		metrics: NewMetrics(),
		cfg:     cfg,
		logger:  slog.Default().With("component", "api"),
	}

	s.router.Use(gin.Recovery(), s.requestLogger(), s.metrics.Middleware())
	s.setupRoutes()
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.Health)
	if s.cfg.MetricsEnabled {
		s.router.GET("/metrics", s.metrics.Handler())
	}

	v1 := s.router.Group("/api/v1")
	{
		recipes := v1.Group("/recipes")
		recipes.POST("", s.CreateRecipe)
		recipes.GET("/costs", s.RecipeCosts)
		recipes.PUT("/:id", s.UpdateRecipe)
		recipes.GET("/:id/cost", s.RecipeCost)
		recipes.GET("/:id/catalog", s.InputCatalog)
		recipes.POST("/:id/lines", s.AddLine)
		recipes.PUT("/:id/lines/:line", s.UpdateLine)
		recipes.DELETE("/:id/lines/:line", s.DeleteLine)
		recipes.GET("/:id/cycle-check", s.CycleCheck)

		ingredients := v1.Group("/ingredients")
		ingredients.POST("", s.CreateIngredient)
		ingredients.GET("/:id/unit-cost", s.IngredientUnitCost)

		conversions := v1.Group("/conversions")
		conversions.POST("", s.SaveConversion)
		conversions.GET("/resolve", s.ResolveConversion)
		conversions.GET("/units", s.Units)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "addr", addr, "tenant", s.costing.TenantID())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving API: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownDuration())
	defer cancel()

	s.logger.Info("shutting down API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down API: %w", err)
	}
	return nil
}
