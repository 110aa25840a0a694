package costs

import (
	"github.com/platecost/platecost/internal/costing"
	"github.com/platecost/platecost/internal/models"
	"github.com/platecost/platecost/internal/util"
)

// CreateIngredientInput contains data for creating an ingredient.
type CreateIngredientInput struct {
	Code            string
	Name            string
	Category        string
	BaseUnit        string // inferred from PackageUnit when empty
	PackageQuantity float64
	PackageUnit     string
	PackageCost     float64
	YieldPct        float64 // fractions up to 2 are read as percentages
}

// CreateRecipeInput contains data for creating a recipe.
type CreateRecipeInput struct {
	Code          string
	Name          string
	Kind          models.RecipeKind
	Category      string
	YieldQuantity float64
	YieldUnit     string
	Price         float64
}

// LineInput contains data for adding or changing a recipe line.
type LineInput struct {
	RecipeID     string
	InputID      string
	InputKind    models.InputKind // resolved from the snapshot when empty
	Quantity     float64
	QuantityUnit string
	Note         string
}

// RecipeCost is one row of the cost board.
type RecipeCost struct {
	Recipe *models.Recipe
	Result *costing.CostResult
	Err    error

	// label names ids in Reason; nil shows raw ids.
	label func(id string) string
}

// Available reports whether the recipe could be costed.
func (rc RecipeCost) Available() bool {
	return rc.Err == nil && rc.Result != nil
}

// Reason is the short failure text shown instead of a cost, naming
// recipes, ingredients and lines by code.
func (rc RecipeCost) Reason() string {
	return costing.Describe(rc.Err, rc.label)
}

// DisplayMargin is the margin rounded to two decimals, or nil.
func (rc RecipeCost) DisplayMargin() *float64 {
	if !rc.Available() || rc.Result.Margin == nil {
		return nil
	}
	v := util.RoundMoney(*rc.Result.Margin, 2)
	return &v
}

// DisplayCostPct is the cost percentage rounded to one decimal, or nil.
func (rc RecipeCost) DisplayCostPct() *float64 {
	if !rc.Available() || rc.Result.CostPct == nil {
		return nil
	}
	v := util.RoundPct(*rc.Result.CostPct)
	return &v
}

// IngredientCost is an ingredient with its per-base-unit cost.
type IngredientCost struct {
	Ingredient *models.Ingredient
	UnitCost   float64
	Err        error
}

// Board summarizes a full costing pass.
type Board struct {
	TenantID string
	Recipes  []RecipeCost
	// Unavailable counts recipes whose cost could not be computed.
	Unavailable int
}
