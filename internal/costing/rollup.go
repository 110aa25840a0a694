package costing

import (
	"errors"

	"github.com/platecost/platecost/internal/models"
)

// CostResult is the derived cost of one recipe. It is recomputed on every
// request and never persisted.
type CostResult struct {
	RecipeID  string            `json:"recipe_id"`
	Kind      models.RecipeKind `json:"kind"`
	TotalCost float64           `json:"total_cost"`
	UnitCost  float64           `json:"unit_cost"`
	CostUnit  string            `json:"cost_unit"`

	// Margin and CostPct are set for service recipes only. CostPct stays
	// nil when the price is zero.
	Margin  *float64 `json:"margin,omitempty"`
	CostPct *float64 `json:"cost_pct,omitempty"`

	Lines []LineCost `json:"lines"`
}

// LineCost is the contribution of one recipe line.
type LineCost struct {
	LineID       string           `json:"line_id"`
	InputID      string           `json:"input_id"`
	InputKind    models.InputKind `json:"input_kind"`
	InputName    string           `json:"input_name"`
	Quantity     float64          `json:"quantity"`
	QuantityUnit string           `json:"quantity_unit"`

	// Factor converts QuantityUnit into CostUnit.
	Factor   float64 `json:"factor"`
	CostUnit string  `json:"cost_unit"`
	UnitCost float64 `json:"unit_cost"`
	Cost     float64 `json:"cost"`
	Note     string  `json:"note,omitempty"`
}

// ConvertedQuantity is the line quantity expressed in CostUnit.
func (l LineCost) ConvertedQuantity() float64 {
	return l.Quantity * l.Factor
}

type result struct {
	res *CostResult
	err *Error
}

// rollup holds the memo for a single costing call.
type rollup struct {
	e           *Engine
	memo        map[string]result
	ingredients map[string]ingredientCost
	evaluations map[string]int
}

type ingredientCost struct {
	cost float64
	err  error
}

func (e *Engine) newRollup() *rollup {
	return &rollup{
		e:           e,
		memo:        make(map[string]result),
		ingredients: make(map[string]ingredientCost),
		evaluations: make(map[string]int),
	}
}

// outcome returns the memoized result for id.
func (r *rollup) outcome(id string) (*CostResult, error) {
	out, ok := r.memo[id]
	if !ok {
		return nil, &Error{Kind: KindUnknownRecipe, RecipeID: id}
	}
	if out.err != nil {
		return nil, out.err
	}
	return out.res, nil
}

// evaluate costs one recipe. Inputs must already be in the memo, which
// holds whenever recipes are evaluated in topological order.
func (r *rollup) evaluate(id string) {
	recipe, ok := r.e.recipes[id]
	if !ok {
		return
	}
	if _, done := r.memo[id]; done {
		return
	}
	r.evaluations[id]++

	res, err := r.cost(recipe)
	r.memo[id] = result{res: res, err: err}
}

func (r *rollup) cost(recipe *models.Recipe) (*CostResult, *Error) {
	if !(recipe.YieldQuantity > 0) {
		return nil, &Error{Kind: KindInvalidYield, RecipeID: recipe.ID, Path: []string{recipe.ID}}
	}

	res := &CostResult{
		RecipeID: recipe.ID,
		Kind:     recipe.Kind,
		CostUnit: recipe.YieldUnit,
	}

	lines := r.e.lines[recipe.ID]
	res.Lines = make([]LineCost, 0, len(lines))

	var total float64
	for _, line := range lines {
		lc, err := r.lineCost(recipe, line)
		if err != nil {
			return nil, err
		}
		res.Lines = append(res.Lines, lc)
		total += lc.Cost
	}

	res.TotalCost = total
	res.UnitCost = total / recipe.YieldQuantity

	if recipe.Kind == models.RecipeKindService {
		margin := recipe.Price - total
		res.Margin = &margin
		if recipe.Price > 0 {
			pct := total / recipe.Price * 100
			res.CostPct = &pct
		}
	}

	return res, nil
}

func (r *rollup) lineCost(recipe *models.Recipe, line models.RecipeLine) (LineCost, *Error) {
	lc := LineCost{
		LineID:       line.ID,
		InputID:      line.InputID,
		InputKind:    line.InputKind,
		Quantity:     line.Quantity,
		QuantityUnit: line.QuantityUnit,
		Note:         line.Note,
	}

	missing := &Error{
		Kind:     KindMissingInput,
		RecipeID: recipe.ID,
		LineID:   line.ID,
		InputID:  line.InputID,
		Path:     []string{recipe.ID},
	}

	switch line.InputKind {
	case models.InputKindIngredient:
		ing, ok := r.e.ingredients[line.InputID]
		if !ok {
			return lc, missing
		}
		cost, err := r.ingredientCost(ing)
		if err != nil {
			var ce *Error
			if errors.As(err, &ce) {
				cp := *ce
				cp.RecipeID = recipe.ID
				cp.LineID = line.ID
				cp.Path = []string{recipe.ID}
				return lc, &cp
			}
			return lc, &Error{Kind: KindInvalidPackage, RecipeID: recipe.ID, LineID: line.ID, IngredientID: ing.ID, Path: []string{recipe.ID}, Err: err}
		}
		lc.InputName = ing.Name
		lc.CostUnit = ing.BaseUnit
		lc.UnitCost = cost

	case models.InputKindRecipe:
		sub, ok := r.e.recipes[line.InputID]
		if !ok {
			return lc, missing
		}
		if !sub.IsPrep() {
			return lc, ServiceAsInput(recipe.ID, line.ID, sub.ID)
		}
		out, ok := r.memo[sub.ID]
		if !ok {
			// Only reachable when evaluate is called out of order.
			return lc, &Error{Kind: KindCycleDetected, RecipeID: sub.ID, Path: []string{sub.ID, recipe.ID}}
		}
		if out.err != nil {
			return lc, out.err.through(recipe.ID)
		}
		lc.InputName = sub.Name
		lc.CostUnit = sub.YieldUnit
		lc.UnitCost = out.res.UnitCost

	default:
		return lc, missing
	}

	factor, err := r.e.units.Resolve(line.QuantityUnit, lc.CostUnit)
	if err != nil {
		return lc, &Error{
			Kind:     KindUnresolvableUnit,
			RecipeID: recipe.ID,
			LineID:   line.ID,
			InputID:  line.InputID,
			FromUnit: line.QuantityUnit,
			ToUnit:   lc.CostUnit,
			Path:     []string{recipe.ID},
			Err:      err,
		}
	}

	lc.Factor = factor
	lc.Cost = line.Quantity * factor * lc.UnitCost
	return lc, nil
}

func (r *rollup) ingredientCost(ing *models.Ingredient) (float64, error) {
	if c, ok := r.ingredients[ing.ID]; ok {
		return c.cost, c.err
	}
	cost, err := IngredientUnitCost(ing, r.e.units, r.e.opts.MaxYieldPct)
	r.ingredients[ing.ID] = ingredientCost{cost: cost, err: err}
	return cost, err
}
