// Package costing computes ingredient unit costs and rolls recipe costs up
// through nested prep recipes.
//
// An Engine is built from one Snapshot and never mutates it. Every
// operation is a pure function of the snapshot; memoization lives only
// for the duration of a single call, so an Engine can be shared between
// goroutines.
package costing

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/platecost/platecost/internal/costing/graph"
	"github.com/platecost/platecost/internal/costing/uom"
	"github.com/platecost/platecost/internal/models"
)

// Options tune an Engine.
type Options struct {
	// MaxYieldPct bounds ingredient yields; 0 selects DefaultMaxYieldPct.
	MaxYieldPct float64
	// ConflictTolerance is passed to the conversion graph; 0 selects
	// uom.DefaultTolerance.
	ConflictTolerance float64
	// Logger receives conversion conflict warnings. nil uses slog.Default().
	Logger *slog.Logger
}

// Engine answers costing questions over a single snapshot.
type Engine struct {
	opts        Options
	tenantID    string
	units       *uom.Graph
	composition *graph.Graph
	ingredients map[string]*models.Ingredient
	recipes     map[string]*models.Recipe
	lines       map[string][]models.RecipeLine
	lineLabels  map[string]string
}

// NewEngine indexes snap for costing.
func NewEngine(snap *Snapshot, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	uomOpts := []uom.Option{uom.WithLogger(opts.Logger)}
	if opts.ConflictTolerance > 0 {
		uomOpts = append(uomOpts, uom.WithTolerance(opts.ConflictTolerance))
	}

	e := &Engine{
		opts:        opts,
		tenantID:    snap.TenantID,
		units:       uom.NewGraph(snap.Conversions, uomOpts...),
		composition: graph.New(snap.Lines),
		ingredients: make(map[string]*models.Ingredient, len(snap.Ingredients)),
		recipes:     make(map[string]*models.Recipe, len(snap.Recipes)),
		lines:       make(map[string][]models.RecipeLine),
		lineLabels:  make(map[string]string, len(snap.Lines)),
	}

	for i := range snap.Ingredients {
		e.ingredients[snap.Ingredients[i].ID] = &snap.Ingredients[i]
	}
	for i := range snap.Recipes {
		e.recipes[snap.Recipes[i].ID] = &snap.Recipes[i]
	}
	for _, l := range snap.Lines {
		e.lines[l.RecipeID] = append(e.lines[l.RecipeID], l)
	}
	for recipeID, ls := range e.lines {
		slices.SortStableFunc(ls, func(a, b models.RecipeLine) int {
			if a.SortOrder != b.SortOrder {
				return a.SortOrder - b.SortOrder
			}
			return strings.Compare(a.ID, b.ID)
		})
		owner := recipeID
		if r, ok := e.recipes[recipeID]; ok {
			owner = r.Code
		}
		for i, l := range ls {
			e.lineLabels[l.ID] = fmt.Sprintf("%s#%d", owner, i+1)
		}
	}

	return e
}

// TenantID returns the tenant the snapshot belongs to.
func (e *Engine) TenantID() string {
	return e.tenantID
}

// Units exposes the conversion graph.
func (e *Engine) Units() *uom.Graph {
	return e.units
}

// Composition exposes the recipe composition graph.
func (e *Engine) Composition() *graph.Graph {
	return e.composition
}

// Recipe looks up a recipe in the snapshot.
func (e *Engine) Recipe(id string) (*models.Recipe, bool) {
	r, ok := e.recipes[id]
	return r, ok
}

// Ingredient looks up an ingredient in the snapshot.
func (e *Engine) Ingredient(id string) (*models.Ingredient, bool) {
	i, ok := e.ingredients[id]
	return i, ok
}

// Label names an id for display: recipe and ingredient codes, and
// "CODE#n" for the n-th line of a recipe. Unknown ids are returned as is.
func (e *Engine) Label(id string) string {
	if r, ok := e.recipes[id]; ok {
		return r.Code
	}
	if i, ok := e.ingredients[id]; ok {
		return i.Code
	}
	if l, ok := e.lineLabels[id]; ok {
		return l
	}
	return id
}

// ResolveConversion returns the factor converting a quantity in from into
// to. A missing path is reported as an UnresolvableUnit error wrapping the
// *uom.UnresolvableError.
func (e *Engine) ResolveConversion(from, to string) (float64, error) {
	f, err := e.units.Resolve(from, to)
	if err != nil {
		return 0, &Error{Kind: KindUnresolvableUnit, FromUnit: from, ToUnit: to, Err: err}
	}
	return f, nil
}

// UnitCost returns the cost per base unit of an ingredient.
func (e *Engine) UnitCost(ingredientID string) (float64, error) {
	ing, ok := e.ingredients[ingredientID]
	if !ok {
		return 0, &Error{Kind: KindUnknownIngredient, IngredientID: ingredientID}
	}
	return IngredientUnitCost(ing, e.units, e.opts.MaxYieldPct)
}

// WouldCreateCycle reports whether recipeID using candidateID as an input
// would introduce a composition cycle.
func (e *Engine) WouldCreateCycle(recipeID, candidateID string) bool {
	return e.composition.WouldCreateCycle(recipeID, candidateID)
}

// CheckLine validates a proposed line before it is persisted: a recipe
// input must not be a service recipe and must not close a cycle.
func (e *Engine) CheckLine(line *models.RecipeLine) error {
	if !line.UsesRecipe() {
		return nil
	}
	if in, ok := e.recipes[line.InputID]; ok && !in.IsPrep() {
		return ServiceAsInput(line.RecipeID, line.ID, line.InputID)
	}
	if e.WouldCreateCycle(line.RecipeID, line.InputID) {
		return CycleRejected(line.RecipeID, line.InputID)
	}
	return nil
}

// CostRecipe rolls up the cost of one recipe. Prep recipes it depends on
// are evaluated first, each exactly once per call.
func (e *Engine) CostRecipe(recipeID string) (*CostResult, error) {
	if _, ok := e.recipes[recipeID]; !ok {
		return nil, &Error{Kind: KindUnknownRecipe, RecipeID: recipeID}
	}

	order, err := e.composition.TopoOrder([]string{recipeID})
	if err != nil {
		var ce *graph.CycleError
		if errors.As(err, &ce) {
			return nil, &Error{Kind: KindCycleDetected, RecipeID: ce.RecipeID, Err: err}
		}
		return nil, err
	}

	run := e.newRollup()
	for _, id := range order {
		run.evaluate(id)
	}
	return run.outcome(recipeID)
}

// Outcome is the result of costing one recipe in CostAll.
type Outcome struct {
	Recipe *models.Recipe
	Result *CostResult
	Err    error
}

// CostAll costs every recipe in the snapshot in one pass. Recipes caught
// in a stored cycle, or depending on one, get a cycle error; the rest are
// costed normally. Outcomes are sorted by recipe code, then id.
func (e *Engine) CostAll() []Outcome {
	ids := make([]string, 0, len(e.recipes))
	for id := range e.recipes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	order, stuck := e.composition.Order(ids)

	run := e.newRollup()
	for _, id := range order {
		run.evaluate(id)
	}

	if len(stuck) > 0 {
		member := e.composition.CycleMember(stuck)
		e.opts.Logger.Error("composition cycle in stored data",
			"recipe", member,
			"affected", len(stuck),
		)
		for _, id := range stuck {
			ce := &Error{Kind: KindCycleDetected, RecipeID: member, Path: []string{member}}
			if id != member {
				ce = ce.through(id)
			}
			run.memo[id] = result{err: ce}
		}
	}

	out := make([]Outcome, 0, len(e.recipes))
	for _, id := range ids {
		res, err := run.outcome(id)
		out = append(out, Outcome{Recipe: e.recipes[id], Result: res, Err: err})
	}

	slices.SortStableFunc(out, func(a, b Outcome) int {
		if c := strings.Compare(a.Recipe.Code, b.Recipe.Code); c != 0 {
			return c
		}
		return strings.Compare(a.Recipe.ID, b.Recipe.ID)
	})
	return out
}
