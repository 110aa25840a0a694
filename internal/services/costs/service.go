// Package costs provides the kitchen costing services: building engines
// from stored snapshots, cost boards, guarded recipe line writes and the
// input catalog.
package costs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/platecost/platecost/internal/config"
	"github.com/platecost/platecost/internal/costing"
	"github.com/platecost/platecost/internal/costing/uom"
	"github.com/platecost/platecost/internal/models"
	"github.com/platecost/platecost/internal/repository"
	"github.com/platecost/platecost/internal/util"
)

// ErrReadOnly is returned by writes when the service reads from an
// external snapshot source.
var ErrReadOnly = errors.New("kitchen store is read-only")

// SnapshotSource loads the costing snapshot of a tenant.
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context, tenantID string) (*costing.Snapshot, error)
}

// Service provides costing operations for one tenant.
type Service struct {
	db          *sql.DB
	source      SnapshotSource
	store       *repository.SnapshotStore
	ingredients *repository.IngredientRepository
	recipes     *repository.RecipeRepository
	conversions *repository.UomRepository
	idGenerator *util.IDGenerator

	tenantID string
	opts     costing.Options
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSource reads snapshots from src instead of the SQLite store. Writes
// are rejected with ErrReadOnly unless a database is also given.
func WithSource(src SnapshotSource) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithLogger sets the logger for the service and its engines.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a costing service for the configured tenant. db may
// be nil when a snapshot source is supplied.
func NewService(db *sql.DB, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		db:          db,
		idGenerator: util.NewIDGenerator(),
		tenantID:    cfg.Kitchen.TenantID,
		opts: costing.Options{
			MaxYieldPct:       cfg.Costing.MaxYieldPct,
			ConflictTolerance: cfg.Costing.ConflictTolerance,
		},
		logger: slog.Default(),
	}

	if db != nil {
		s.store = repository.NewSnapshotStore(db)
		s.ingredients = repository.NewIngredientRepository(db)
		s.recipes = repository.NewRecipeRepository(db)
		s.conversions = repository.NewUomRepository(db)
		s.source = s.store
	}

	for _, opt := range opts {
		opt(s)
	}
	s.opts.Logger = s.logger.With("tenant", s.tenantID)

	return s
}

// TenantID returns the tenant the service costs.
func (s *Service) TenantID() string {
	return s.tenantID
}

// Engine loads a fresh snapshot and builds an engine over it.
func (s *Service) Engine(ctx context.Context) (*costing.Engine, error) {
	_, engine, err := s.load(ctx)
	return engine, err
}

func (s *Service) load(ctx context.Context) (*costing.Snapshot, *costing.Engine, error) {
	if s.source == nil {
		return nil, nil, errors.New("no snapshot source configured")
	}
	snap, err := s.source.LoadSnapshot(ctx, s.tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return snap, costing.NewEngine(snap, s.opts), nil
}

// ============================================================================
// COSTING
// ============================================================================

// CostRecipe rolls up one recipe.
func (s *Service) CostRecipe(ctx context.Context, recipeID string) (*costing.CostResult, error) {
	engine, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}

	result, err := engine.CostRecipe(recipeID)
	if costing.KindOf(err) == costing.KindCycleDetected {
		s.logger.Error("recipe cost unavailable", "recipe", recipeID, "error", err)
	}
	return result, err
}

// Board costs every active recipe. Failures are reported per recipe and
// never stop the rest of the board.
func (s *Service) Board(ctx context.Context) (*Board, error) {
	engine, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := engine.CostAll()
	board := &Board{TenantID: s.tenantID, Recipes: make([]RecipeCost, 0, len(outcomes))}
	for _, o := range outcomes {
		if o.Err != nil {
			board.Unavailable++
			s.logger.Debug("recipe cost unavailable", "recipe", o.Recipe.Code, "reason", costing.Describe(o.Err, engine.Label))
		}
		board.Recipes = append(board.Recipes, RecipeCost{
			Recipe: o.Recipe,
			Result: o.Result,
			Err:    o.Err,
			label:  engine.Label,
		})
	}
	return board, nil
}

// UnitCost returns one ingredient's cost per base unit.
func (s *Service) UnitCost(ctx context.Context, ingredientID string) (*IngredientCost, error) {
	engine, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}

	ing, ok := engine.Ingredient(ingredientID)
	if !ok {
		return nil, &costing.Error{Kind: costing.KindUnknownIngredient, IngredientID: ingredientID}
	}
	cost, err := engine.UnitCost(ingredientID)
	if err != nil {
		return nil, err
	}
	return &IngredientCost{Ingredient: ing, UnitCost: cost}, nil
}

// IngredientCosts returns every active ingredient with its unit cost or
// the reason it cannot be costed, ordered by name.
func (s *Service) IngredientCosts(ctx context.Context) ([]IngredientCost, error) {
	snap, engine, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]IngredientCost, 0, len(snap.Ingredients))
	for i := range snap.Ingredients {
		ing := &snap.Ingredients[i]
		cost, err := engine.UnitCost(ing.ID)
		out = append(out, IngredientCost{Ingredient: ing, UnitCost: cost, Err: err})
	}
	slices.SortFunc(out, func(a, b IngredientCost) int {
		if c := strings.Compare(a.Ingredient.Name, b.Ingredient.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Ingredient.Code, b.Ingredient.Code)
	})
	return out, nil
}

// ResolveConversion returns the factor converting from into to.
func (s *Service) ResolveConversion(ctx context.Context, from, to string) (float64, error) {
	engine, err := s.Engine(ctx)
	if err != nil {
		return 0, err
	}
	return engine.ResolveConversion(from, to)
}

// Units lists every unit symbol that appears in a conversion, for unit
// pickers.
func (s *Service) Units(ctx context.Context) ([]string, error) {
	engine, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}
	return engine.Units().Units(), nil
}

// AuditConversions reports unit pairs whose conversion paths disagree and
// logs each one.
func (s *Service) AuditConversions(ctx context.Context) ([]uom.Conflict, error) {
	engine, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}

	conflicts := engine.Units().Audit()
	for _, c := range conflicts {
		s.logger.Warn("conflicting conversion paths",
			"from", c.From, "to", c.To, "first", c.First, "second", c.Second)
	}
	for _, e := range engine.Units().InvalidEdges() {
		s.logger.Warn("ignored invalid conversion", "from", e.FromUnit, "to", e.ToUnit, "factor", e.Factor)
	}
	return conflicts, nil
}

// ExportSnapshot writes the tenant snapshot in msgpack form.
func (s *Service) ExportSnapshot(ctx context.Context, w io.Writer) error {
	snap, _, err := s.load(ctx)
	if err != nil {
		return err
	}
	return snap.Encode(w)
}

// ============================================================================
// INPUT CATALOG
// ============================================================================

// InputCatalog lists the inputs recipeID may use: active ingredients and
// active prep recipes, minus the recipe itself and every recipe that
// already depends on it.
func (s *Service) InputCatalog(ctx context.Context, recipeID string) ([]models.CatalogEntry, error) {
	snap, engine, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := engine.Recipe(recipeID); !ok {
		return nil, &costing.Error{Kind: costing.KindUnknownRecipe, RecipeID: recipeID}
	}

	var entries []models.CatalogEntry
	if s.store != nil {
		entries, err = s.store.InputCatalog(ctx, s.tenantID)
		if err != nil {
			return nil, err
		}
	} else {
		entries = catalogFromSnapshot(snap)
	}

	blocked := engine.Composition().Blocked(recipeID)
	return slices.DeleteFunc(entries, func(e models.CatalogEntry) bool {
		return e.InputKind == models.InputKindRecipe && blocked.Has(e.ID)
	}), nil
}

func catalogFromSnapshot(snap *costing.Snapshot) []models.CatalogEntry {
	var entries []models.CatalogEntry
	for _, ing := range snap.Ingredients {
		entries = append(entries, models.CatalogEntry{
			ID: ing.ID, InputKind: models.InputKindIngredient, Code: ing.Code, Name: ing.Name, CostUnit: ing.BaseUnit,
		})
	}
	for _, r := range snap.Recipes {
		if !r.IsPrep() {
			continue
		}
		entries = append(entries, models.CatalogEntry{
			ID: r.ID, InputKind: models.InputKindRecipe, Code: r.Code, Name: r.Name, CostUnit: r.YieldUnit,
		})
	}
	slices.SortFunc(entries, func(a, b models.CatalogEntry) int {
		if c := strings.Compare(string(a.InputKind), string(b.InputKind)); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return entries
}
