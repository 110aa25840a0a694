package costing

import (
	"errors"
	"math"
	"strings"

	"github.com/platecost/platecost/internal/costing/uom"
	"github.com/platecost/platecost/internal/models"
)

// DefaultMaxYieldPct is the highest yield percentage accepted when no
// limit is configured.
const DefaultMaxYieldPct = 200.0

// Resolver converts between units. *uom.Graph satisfies it.
type Resolver interface {
	Resolve(from, to string) (float64, error)
}

// IngredientUnitCost returns the cost of one base unit of ing:
//
//	package_cost / (package_quantity * factor(package_unit -> base_unit) * yield_pct / 100)
//
// maxYieldPct <= 0 selects DefaultMaxYieldPct.
func IngredientUnitCost(ing *models.Ingredient, r Resolver, maxYieldPct float64) (float64, error) {
	if maxYieldPct <= 0 {
		maxYieldPct = DefaultMaxYieldPct
	}

	invalidPackage := func(cause error) error {
		return &Error{Kind: KindInvalidPackage, IngredientID: ing.ID, Err: cause}
	}

	if !(ing.PackageQuantity > 0) || math.IsInf(ing.PackageQuantity, 0) {
		return 0, invalidPackage(errors.New("package quantity must be positive"))
	}
	if ing.PackageCost < 0 || math.IsNaN(ing.PackageCost) {
		return 0, invalidPackage(errors.New("package cost must be non-negative"))
	}
	if !(ing.YieldPct > 0) || ing.YieldPct > maxYieldPct {
		return 0, &Error{Kind: KindInvalidYield, IngredientID: ing.ID}
	}

	factor, err := r.Resolve(ing.PackageUnit, ing.BaseUnit)
	if err != nil {
		return 0, invalidPackage(err)
	}

	usable := ing.PackageQuantity * factor * ing.YieldPct / 100
	return ing.PackageCost / usable, nil
}

// NormalizeYieldPct maps fractional yields (0 < v <= 2, as found in
// spreadsheets that store 0.85 for 85%) to percentages. Other values are
// returned unchanged.
func NormalizeYieldPct(v float64) float64 {
	if v > 0 && v <= 2 {
		return v * 100
	}
	return v
}

// countUnits are package units that already are their own base unit.
var countUnits = map[string]bool{"each": true, "ea": true, "unit": true, "units": true}

// InferBaseUnit guesses a base unit for an ingredient bought in
// packageUnit: count units map to "unit", otherwise the g or ml target of
// a direct conversion edge from packageUnit. It returns "" when nothing
// fits.
func InferBaseUnit(packageUnit string, edges []models.UomConversion) string {
	pu := uom.Normalize(packageUnit)
	if countUnits[strings.ToLower(pu)] {
		return "unit"
	}
	if pu == "g" || pu == "ml" {
		return pu
	}

	for _, e := range edges {
		if uom.Normalize(e.FromUnit) != pu {
			continue
		}
		switch to := uom.Normalize(e.ToUnit); to {
		case "g", "ml":
			return to
		}
	}
	return ""
}
