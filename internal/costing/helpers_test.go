package costing

import (
	"math"
	"strconv"
	"testing"

	"github.com/platecost/platecost/internal/models"
)

// kitchen is a small snapshot builder for tests.
type kitchen struct {
	snap Snapshot
	seq  int
}

func newKitchen(conversions ...models.UomConversion) *kitchen {
	return &kitchen{snap: Snapshot{TenantID: "test", Conversions: conversions}}
}

func (k *kitchen) ingredient(id, base string, pkgQty float64, pkgUnit string, pkgCost, yield float64) *kitchen {
	k.snap.Ingredients = append(k.snap.Ingredients, models.Ingredient{
		ID: id, Code: id, Name: id, BaseUnit: base,
		PackageQuantity: pkgQty, PackageUnit: pkgUnit, PackageCost: pkgCost,
		YieldPct: yield, Status: models.StatusActive,
	})
	return k
}

func (k *kitchen) prep(id string, yieldQty float64, yieldUnit string) *kitchen {
	k.snap.Recipes = append(k.snap.Recipes, models.Recipe{
		ID: id, Code: id, Name: id, Kind: models.RecipeKindPrep,
		YieldQuantity: yieldQty, YieldUnit: yieldUnit, Status: models.StatusActive,
	})
	return k
}

func (k *kitchen) service(id string, price float64) *kitchen {
	k.snap.Recipes = append(k.snap.Recipes, models.Recipe{
		ID: id, Code: id, Name: id, Kind: models.RecipeKindService,
		YieldQuantity: 1, YieldUnit: "portion", Price: price, Status: models.StatusActive,
	})
	return k
}

func (k *kitchen) line(recipeID, inputID string, kind models.InputKind, qty float64, unit string) *kitchen {
	k.seq++
	k.snap.Lines = append(k.snap.Lines, models.RecipeLine{
		ID:           recipeID + "-L" + strconv.Itoa(k.seq),
		RecipeID:     recipeID,
		InputID:      inputID,
		InputKind:    kind,
		Quantity:     qty,
		QuantityUnit: unit,
		SortOrder:    k.seq,
	})
	return k
}

func (k *kitchen) uses(recipeID, ingredientID string, qty float64, unit string) *kitchen {
	return k.line(recipeID, ingredientID, models.InputKindIngredient, qty, unit)
}

func (k *kitchen) usesRecipe(recipeID, subID string, qty float64, unit string) *kitchen {
	return k.line(recipeID, subID, models.InputKindRecipe, qty, unit)
}

func (k *kitchen) engine() *Engine {
	return NewEngine(&k.snap, Options{})
}

func conv(from, to string, f float64) models.UomConversion {
	return models.UomConversion{FromUnit: from, ToUnit: to, Factor: f}
}

func assertClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9*math.Max(1, math.Abs(want)) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}
