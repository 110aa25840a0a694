// Package seed loads kitchen data from YAML files into the store. It is
// used for demo data and test fixtures.
package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/platecost/platecost/internal/costing"
	"github.com/platecost/platecost/internal/models"
	"github.com/platecost/platecost/internal/util"
)

//go:embed demo.yaml
var demoKitchen []byte

// Kitchen is the YAML form of a tenant's costing data. Lines reference
// their inputs by code.
type Kitchen struct {
	Conversions []Conversion `yaml:"conversions"`
	Ingredients []Ingredient `yaml:"ingredients"`
	Recipes     []Recipe     `yaml:"recipes"`
}

// Conversion is a conversion edge: 1 From = Factor To. Reverse also
// stores the inverse edge.
type Conversion struct {
	From    string  `yaml:"from"`
	To      string  `yaml:"to"`
	Factor  float64 `yaml:"factor"`
	Reverse bool    `yaml:"reverse"`
}

// Quantity is an amount in a unit.
type Quantity struct {
	Qty  float64 `yaml:"qty"`
	Unit string  `yaml:"unit"`
}

// Package is what an ingredient is bought in.
type Package struct {
	Qty  float64 `yaml:"qty"`
	Unit string  `yaml:"unit"`
	Cost float64 `yaml:"cost"`
}

// Ingredient is a purchased ingredient.
type Ingredient struct {
	Code     string  `yaml:"code"`
	Name     string  `yaml:"name"`
	Category string  `yaml:"category"`
	BaseUnit string  `yaml:"base_unit"`
	Package  Package `yaml:"package"`
	YieldPct float64 `yaml:"yield_pct"`
	Inactive bool    `yaml:"inactive"`
}

// Recipe is a prep or service recipe with its lines.
type Recipe struct {
	Code     string   `yaml:"code"`
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind"`
	Category string   `yaml:"category"`
	Yield    Quantity `yaml:"yield"`
	Price    float64  `yaml:"price"`
	Inactive bool     `yaml:"inactive"`
	Lines    []Line   `yaml:"lines"`
}

// Line uses an ingredient or prep recipe by code. Kind may be omitted
// when the code is unambiguous.
type Line struct {
	Input string  `yaml:"input"`
	Kind  string  `yaml:"kind"`
	Qty   float64 `yaml:"qty"`
	Unit  string  `yaml:"unit"`
	Note  string  `yaml:"note"`
}

// Parse decodes a kitchen file. Unknown fields are rejected.
func Parse(r io.Reader) (*Kitchen, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var k Kitchen
	if err := dec.Decode(&k); err != nil {
		if errors.Is(err, io.EOF) {
			return &k, nil
		}
		return nil, fmt.Errorf("parsing kitchen file: %w", err)
	}
	return &k, nil
}

// Demo returns the built-in demo kitchen.
func Demo() *Kitchen {
	k, err := Parse(strings.NewReader(string(demoKitchen)))
	if err != nil {
		panic(fmt.Sprintf("embedded demo kitchen: %v", err))
	}
	return k
}

// Snapshot converts the kitchen into tenant records. IDs are derived from
// the tenant and code, so loading the same file twice yields the same
// IDs. Inactive records are kept; the costing snapshot filters them.
func (k *Kitchen) Snapshot(tenantID string) (*costing.Snapshot, error) {
	snap := &costing.Snapshot{Version: costing.SnapshotVersion, TenantID: tenantID}
	var errs []error

	for _, c := range k.Conversions {
		snap.Conversions = append(snap.Conversions, conversion(tenantID, c.From, c.To, c.Factor))
		if c.Reverse && c.Factor > 0 {
			snap.Conversions = append(snap.Conversions, conversion(tenantID, c.To, c.From, 1/c.Factor))
		}
	}

	ingredientIDs := make(map[string]string, len(k.Ingredients))
	for _, in := range k.Ingredients {
		if _, dup := ingredientIDs[in.Code]; dup {
			errs = append(errs, fmt.Errorf("duplicate ingredient code %q", in.Code))
			continue
		}
		ing := models.Ingredient{
			ID:              util.DeterministicID(tenantID+"/ingredient", in.Code),
			TenantID:        tenantID,
			Code:            in.Code,
			Name:            in.Name,
			Category:        in.Category,
			BaseUnit:        in.BaseUnit,
			PackageQuantity: in.Package.Qty,
			PackageUnit:     in.Package.Unit,
			PackageCost:     in.Package.Cost,
			YieldPct:        costing.NormalizeYieldPct(in.YieldPct),
			Status:          status(in.Inactive),
		}
		if in.YieldPct == 0 {
			ing.YieldPct = 100
		}
		if ing.BaseUnit == "" {
			ing.BaseUnit = costing.InferBaseUnit(ing.PackageUnit, snap.Conversions)
		}
		if err := ing.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("ingredient %s: %w", in.Code, err))
			continue
		}
		ingredientIDs[in.Code] = ing.ID
		snap.Ingredients = append(snap.Ingredients, ing)
	}

	recipeIDs := make(map[string]string, len(k.Recipes))
	for _, r := range k.Recipes {
		if _, dup := recipeIDs[r.Code]; dup {
			errs = append(errs, fmt.Errorf("duplicate recipe code %q", r.Code))
			continue
		}
		recipeIDs[r.Code] = util.DeterministicID(tenantID+"/recipe", r.Code)
	}

	for _, r := range k.Recipes {
		rec := models.Recipe{
			ID:            recipeIDs[r.Code],
			TenantID:      tenantID,
			Code:          r.Code,
			Name:          r.Name,
			Kind:          models.RecipeKind(strings.ToLower(r.Kind)),
			Category:      r.Category,
			Status:        status(r.Inactive),
			YieldQuantity: r.Yield.Qty,
			YieldUnit:     r.Yield.Unit,
			Price:         r.Price,
		}
		if rec.Kind == "" {
			rec.Kind = models.RecipeKindService
		}
		if err := rec.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("recipe %s: %w", r.Code, err))
			continue
		}
		snap.Recipes = append(snap.Recipes, rec)

		for i, l := range r.Lines {
			line := models.RecipeLine{
				ID:           util.DeterministicID(rec.ID+"/line", fmt.Sprint(i)),
				RecipeID:     rec.ID,
				Quantity:     l.Qty,
				QuantityUnit: l.Unit,
				Note:         l.Note,
				SortOrder:    i,
			}
			ingID, isIngredient := ingredientIDs[l.Input]
			recID, isRecipe := recipeIDs[l.Input]

			switch {
			case l.Kind == string(models.InputKindIngredient) && isIngredient,
				l.Kind == "" && isIngredient && !isRecipe:
				line.InputID, line.InputKind = ingID, models.InputKindIngredient
			case l.Kind == string(models.InputKindRecipe) && isRecipe,
				l.Kind == "" && isRecipe && !isIngredient:
				line.InputID, line.InputKind = recID, models.InputKindRecipe
			case l.Kind == "" && isIngredient && isRecipe:
				errs = append(errs, fmt.Errorf("recipe %s line %d: input %q is ambiguous, set kind", r.Code, i+1, l.Input))
				continue
			default:
				errs = append(errs, fmt.Errorf("recipe %s line %d: unknown input %q", r.Code, i+1, l.Input))
				continue
			}

			if err := line.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("recipe %s line %d: %w", r.Code, i+1, err))
				continue
			}
			snap.Lines = append(snap.Lines, line)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := checkComposition(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// checkComposition applies the line guards to every recipe edge in the
// file: no service recipe as an input and no cycles.
func checkComposition(snap *costing.Snapshot) error {
	engine := costing.NewEngine(snap, costing.Options{})

	var errs []error
	for i := range snap.Lines {
		if err := engine.CheckLine(&snap.Lines[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func conversion(tenantID, from, to string, factor float64) models.UomConversion {
	return models.UomConversion{
		ID:       util.DeterministicID(tenantID+"/uom", from+"->"+to),
		TenantID: tenantID,
		FromUnit: from,
		ToUnit:   to,
		Factor:   factor,
	}
}

func status(inactive bool) models.Status {
	if inactive {
		return models.StatusInactive
	}
	return models.StatusActive
}
