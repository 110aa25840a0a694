package seed

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/platecost/platecost/internal/costing"
	"github.com/platecost/platecost/internal/models"
	"github.com/platecost/platecost/internal/repository"
	"github.com/platecost/platecost/internal/testutil"
	"github.com/platecost/platecost/internal/util"
)

func parse(t *testing.T, doc string) *Kitchen {
	t.Helper()
	k, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("failed to parse kitchen: %v", err)
	}
	return k
}

const miniKitchen = `
conversions:
  - {from: kg, to: g, factor: 1000, reverse: true}
ingredients:
  - code: FLOUR
    name: Flour
    package: {qty: 1, unit: kg, cost: 2}
    yield_pct: 0.5
recipes:
  - code: DOUGH
    name: Dough
    kind: prep
    yield: {qty: 1, unit: kg}
    lines:
      - {input: FLOUR, qty: 500, unit: g}
  - code: BREAD
    name: Bread
    yield: {qty: 1, unit: portion}
    price: 5
    lines:
      - {input: DOUGH, qty: 0.1, unit: kg}
`

func TestKitchenSnapshot(t *testing.T) {
	snap, err := parse(t, miniKitchen).Snapshot(testutil.FixtureTenant)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if len(snap.Conversions) != 2 {
		t.Errorf("expected reverse edge to be added, got %d conversions", len(snap.Conversions))
	}

	ing := snap.Ingredients[0]
	if ing.BaseUnit != "g" {
		t.Errorf("expected inferred base unit g, got %q", ing.BaseUnit)
	}
	if ing.YieldPct != 50 {
		t.Errorf("expected yield 50, got %v", ing.YieldPct)
	}
	if ing.ID != util.DeterministicID(testutil.FixtureTenant+"/ingredient", "FLOUR") {
		t.Error("expected ingredient id derived from tenant and code")
	}

	bread := snap.Recipes[1]
	if bread.Kind != models.RecipeKindService {
		t.Errorf("expected default kind service, got %q", bread.Kind)
	}

	if len(snap.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(snap.Lines))
	}
	if snap.Lines[1].InputKind != models.InputKindRecipe || snap.Lines[1].InputID != snap.Recipes[0].ID {
		t.Errorf("expected bread to use dough, got %+v", snap.Lines[1])
	}

	again, err := parse(t, miniKitchen).Snapshot(testutil.FixtureTenant)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if again.Lines[0].ID != snap.Lines[0].ID {
		t.Error("expected stable line ids across loads")
	}
}

func TestKitchenSnapshotErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
		text string
	}{
		{
			name: "unknown input",
			doc: `
recipes:
  - {code: A, name: A, kind: prep, yield: {qty: 1, unit: kg}, lines: [{input: NOPE, qty: 1, unit: g}]}
`,
			text: `unknown input "NOPE"`,
		},
		{
			name: "ambiguous input",
			doc: `
ingredients:
  - {code: X, name: X, base_unit: g, package: {qty: 1, unit: g, cost: 1}}
recipes:
  - {code: X, name: X, kind: prep, yield: {qty: 1, unit: g}}
  - {code: A, name: A, kind: prep, yield: {qty: 1, unit: g}, lines: [{input: X, qty: 1, unit: g}]}
`,
			text: "ambiguous",
		},
		{
			name: "cycle",
			doc: `
recipes:
  - {code: A, name: A, kind: prep, yield: {qty: 1, unit: g}, lines: [{input: B, qty: 1, unit: g}]}
  - {code: B, name: B, kind: prep, yield: {qty: 1, unit: g}, lines: [{input: A, qty: 1, unit: g}]}
`,
			want: costing.ErrCycleRejected,
		},
		{
			name: "service recipe as input",
			doc: `
recipes:
  - {code: S, name: S, kind: service, yield: {qty: 1, unit: portion}}
  - {code: A, name: A, kind: prep, yield: {qty: 1, unit: g}, lines: [{input: S, qty: 1, unit: portion}]}
`,
			want: costing.ErrServiceAsInput,
		},
		{
			name: "duplicate code",
			doc: `
ingredients:
  - {code: X, name: X, base_unit: g, package: {qty: 1, unit: g, cost: 1}}
  - {code: X, name: Y, base_unit: g, package: {qty: 1, unit: g, cost: 1}}
`,
			text: "duplicate ingredient code",
		},
		{
			name: "invalid recipe",
			doc: `
recipes:
  - {code: A, name: A, kind: side, yield: {qty: 1, unit: g}}
`,
			text: "invalid kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.doc).Snapshot(testutil.FixtureTenant)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if tt.text != "" && !strings.Contains(err.Error(), tt.text) {
				t.Errorf("expected error containing %q, got %v", tt.text, err)
			}
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("ingredients:\n  - {code: X, colour: red}\n"))
	if err == nil {
		t.Error("expected unknown field to be rejected")
	}
}

func TestLoadDemoKitchen(t *testing.T) {
	db := testutil.NewKitchenDB(t)
	defer db.Close(t)
	ctx := context.Background()

	loader := NewLoader(db.DB, testutil.FixtureTenant)
	res, err := loader.Load(ctx, Demo())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Ingredients != 12 || res.Recipes != 7 || res.Conversions != 14 {
		t.Errorf("unexpected counts: %+v", res)
	}
	db.AssertRowCount(t, "recipe_lines", res.Lines)

	if _, err := loader.Load(ctx, Demo()); !errors.Is(err, ErrAlreadySeeded) {
		t.Errorf("expected ErrAlreadySeeded on second load, got %v", err)
	}

	snap, err := repository.NewSnapshotStore(db.DB).LoadSnapshot(ctx, testutil.FixtureTenant)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(snap.Recipes) != 6 || len(snap.Ingredients) != 11 {
		t.Errorf("expected inactive rows filtered, got %d recipes, %d ingredients", len(snap.Recipes), len(snap.Ingredients))
	}

	engine := costing.NewEngine(snap, costing.Options{})
	for _, o := range engine.CostAll() {
		if o.Err != nil {
			t.Errorf("%s: cost unavailable: %v", o.Recipe.Code, o.Err)
		}
	}

	doughID := util.DeterministicID(testutil.FixtureTenant+"/recipe", "DOUGH")
	dough, err := engine.CostRecipe(doughID)
	if err != nil {
		t.Fatalf("CostRecipe: %v", err)
	}
	// 1.2 kg flour 0.888 + yeast 0.1024 + salt 0.036 + oil 0.336
	if math.Abs(dough.TotalCost-1.3624) > 1e-9 {
		t.Errorf("expected dough total 1.3624, got %v", dough.TotalCost)
	}
}
