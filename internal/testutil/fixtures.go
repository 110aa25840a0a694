package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/platecost/platecost/internal/models"
)

// FixtureTenant is the tenant every fixture belongs to unless overridden.
const FixtureTenant = "test-kitchen"

// FixtureIngredient creates a test ingredient: 1 kg of flour for 2.00 at
// full yield, costed per gram.
func FixtureIngredient(overrides ...func(*models.Ingredient)) *models.Ingredient {
	id := uuid.New().String()
	now := time.Now().UTC()

	ing := &models.Ingredient{
		ID:              id,
		TenantID:        FixtureTenant,
		Code:            "ING-" + id[:8],
		Name:            "Flour " + id[:4],
		Category:        "dry goods",
		BaseUnit:        "g",
		PackageQuantity: 1,
		PackageUnit:     "kg",
		PackageCost:     2.00,
		YieldPct:        100,
		Status:          models.StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, override := range overrides {
		override(ing)
	}

	return ing
}

// FixtureRecipe creates a test prep recipe yielding 1 kg.
func FixtureRecipe(overrides ...func(*models.Recipe)) *models.Recipe {
	id := uuid.New().String()
	now := time.Now().UTC()

	recipe := &models.Recipe{
		ID:            id,
		TenantID:      FixtureTenant,
		Code:          "RCP-" + id[:8],
		Name:          "Dough " + id[:4],
		Kind:          models.RecipeKindPrep,
		Category:      "bakery",
		Status:        models.StatusActive,
		YieldQuantity: 1,
		YieldUnit:     "kg",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, override := range overrides {
		override(recipe)
	}

	return recipe
}

// FixtureServiceRecipe creates a test menu item yielding one portion.
func FixtureServiceRecipe(overrides ...func(*models.Recipe)) *models.Recipe {
	base := []func(*models.Recipe){func(r *models.Recipe) {
		r.Kind = models.RecipeKindService
		r.Name = "Flatbread " + r.ID[:4]
		r.YieldQuantity = 1
		r.YieldUnit = "portion"
		r.Price = 12.00
	}}
	return FixtureRecipe(append(base, overrides...)...)
}

// FixtureLine creates a line using inputID in recipeID: 250 g of an
// ingredient by default.
func FixtureLine(recipeID, inputID string, overrides ...func(*models.RecipeLine)) *models.RecipeLine {
	now := time.Now().UTC()

	line := &models.RecipeLine{
		ID:           uuid.New().String(),
		RecipeID:     recipeID,
		InputID:      inputID,
		InputKind:    models.InputKindIngredient,
		Quantity:     250,
		QuantityUnit: "g",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for _, override := range overrides {
		override(line)
	}

	return line
}

// FixtureConversion creates a conversion edge: 1 from = factor to.
func FixtureConversion(from, to string, factor float64) *models.UomConversion {
	return &models.UomConversion{
		ID:       uuid.New().String(),
		TenantID: FixtureTenant,
		FromUnit: from,
		ToUnit:   to,
		Factor:   factor,
	}
}

// StandardConversions returns the metric and imperial edges most tests need.
func StandardConversions() []*models.UomConversion {
	return []*models.UomConversion{
		FixtureConversion("kg", "g", 1000),
		FixtureConversion("g", "kg", 0.001),
		FixtureConversion("l", "ml", 1000),
		FixtureConversion("ml", "l", 0.001),
		FixtureConversion("kg", "lb", 2.20462),
		FixtureConversion("lb", "kg", 0.453592),
	}
}
