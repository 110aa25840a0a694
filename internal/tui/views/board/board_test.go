package board

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/platecost/platecost/internal/costing"
	"github.com/platecost/platecost/internal/models"
	"github.com/platecost/platecost/internal/services/costs"
)

type stubSource struct {
	board *costs.Board
	err   error
	calls int
}

func (s *stubSource) Board(ctx context.Context) (*costs.Board, error) {
	s.calls++
	return s.board, s.err
}

func floatPtr(v float64) *float64 {
	return &v
}

func testBoard() *costs.Board {
	marg := &models.Recipe{
		ID: "r-marg", Code: "MARG", Name: "Margherita", Kind: models.RecipeKindService,
		YieldQuantity: 1, YieldUnit: "each", Price: 12, Status: models.StatusActive,
	}
	dough := &models.Recipe{
		ID: "r-dough", Code: "DOUGH", Name: "Pizza dough", Kind: models.RecipeKindPrep,
		Category: "bakery", YieldQuantity: 1000, YieldUnit: "g", Status: models.StatusActive,
	}

	return &costs.Board{
		TenantID: "kitchen-test",
		Recipes: []costs.RecipeCost{
			{
				Recipe: marg,
				Result: &costing.CostResult{
					RecipeID:  marg.ID,
					Kind:      marg.Kind,
					TotalCost: 4.5,
					UnitCost:  4.5,
					CostUnit:  "each",
					Margin:    floatPtr(7.5),
					CostPct:   floatPtr(37.5),
					Lines: []costing.LineCost{
						{
							LineID: "l-1", InputID: "ing-flour", InputKind: models.InputKindIngredient,
							InputName: "Flour", Quantity: 250, QuantityUnit: "g",
							Factor: 1, CostUnit: "g", UnitCost: 0.002, Cost: 0.5,
						},
						{
							LineID: "l-2", InputID: "r-sauce", InputKind: models.InputKindRecipe,
							InputName: "Tomato sauce", Quantity: 0.2, QuantityUnit: "l",
							Factor: 1000, CostUnit: "ml", UnitCost: 0.02, Cost: 4,
						},
					},
				},
			},
			{
				Recipe: dough,
				Err: &costing.Error{
					Kind:         costing.KindInvalidPackage,
					RecipeID:     dough.ID,
					IngredientID: "ing-yeast",
					Path:         []string{"r-dough"},
				},
			},
		},
		Unavailable: 1,
	}
}

func loadedView(t *testing.T) (*View, *stubSource) {
	t.Helper()
	src := &stubSource{board: testBoard()}
	view := New(src, Options{Currency: "USD", MoneyDecimals: 2, TargetCostPct: 30})
	if err := view.Load(context.Background()); err != nil {
		t.Fatalf("failed to load board: %v", err)
	}
	return view, src
}

func TestBoardView_EmptyRender(t *testing.T) {
	view := New(&stubSource{}, Options{TargetCostPct: 30})
	output := view.Render(120, 40)

	if !strings.Contains(output, "COST BOARD") {
		t.Error("expected title in output")
	}
	if !strings.Contains(output, "No recipes found.") {
		t.Error("expected empty state message")
	}
}

func TestBoardView_LoadError(t *testing.T) {
	src := &stubSource{err: errors.New("database is locked")}
	view := New(src, Options{})

	if err := view.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if view.Err() == nil {
		t.Error("expected view to keep the load error")
	}
	if !strings.Contains(view.Render(120, 40), "Error: database is locked") {
		t.Error("expected error in output")
	}
}

func TestBoardView_Rows(t *testing.T) {
	view, src := loadedView(t)

	if src.calls != 1 {
		t.Errorf("Expected 1 costing pass, got %d", src.calls)
	}

	total, unavailable := view.Summary()
	if total != 2 || unavailable != 1 {
		t.Errorf("Expected 2 recipes with 1 unavailable, got %d and %d", total, unavailable)
	}

	output := view.Render(200, 40)
	for _, want := range []string{
		"MARG",
		"USD 4.50",
		"USD 7.50",
		"37.5%",
		"over 30.0% target",
		"DOUGH",
		"unavailable",
		"cost unavailable:",
		"2 recipes | 1 cost unavailable",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestBoardView_CycleFilter(t *testing.T) {
	view, _ := loadedView(t)

	view.CycleFilter()
	if view.Filter() != FilterService {
		t.Fatalf("Expected service filter, got %s", view.Filter())
	}
	if total, _ := view.Summary(); total != 1 {
		t.Errorf("Expected 1 service recipe, got %d", total)
	}
	if !strings.Contains(view.Render(200, 40), "showing service") {
		t.Error("expected filter in footer")
	}

	view.CycleFilter()
	if view.Filter() != FilterPrep {
		t.Fatalf("Expected prep filter, got %s", view.Filter())
	}
	if sel := view.Selected(); sel == nil || sel.Recipe.Code != "DOUGH" {
		t.Errorf("Expected DOUGH selected under prep filter, got %+v", sel)
	}

	view.CycleFilter()
	if view.Filter() != FilterAll {
		t.Errorf("Expected filter to wrap to all, got %s", view.Filter())
	}
}

func TestBoardView_EmptyFilterMessage(t *testing.T) {
	src := &stubSource{board: &costs.Board{Recipes: testBoard().Recipes[:1]}}
	view := New(src, Options{})
	if err := view.Load(context.Background()); err != nil {
		t.Fatalf("failed to load board: %v", err)
	}

	view.CycleFilter()
	view.CycleFilter()

	if !strings.Contains(view.Render(120, 40), "No prep recipes found.") {
		t.Error("expected filtered empty state message")
	}
}

func TestBoardView_Navigation(t *testing.T) {
	view, _ := loadedView(t)

	if sel := view.Selected(); sel == nil || sel.Recipe.Code != "MARG" {
		t.Fatalf("Expected MARG selected first, got %+v", sel)
	}
	view.MoveDown()
	if sel := view.Selected(); sel == nil || sel.Recipe.Code != "DOUGH" {
		t.Errorf("Expected DOUGH after MoveDown, got %+v", sel)
	}
	view.MoveDown()
	if sel := view.Selected(); sel.Recipe.Code != "DOUGH" {
		t.Errorf("Expected selection to stop at the last row, got %s", sel.Recipe.Code)
	}
	view.MoveUp()
	if sel := view.Selected(); sel.Recipe.Code != "MARG" {
		t.Errorf("Expected MARG after MoveUp, got %s", sel.Recipe.Code)
	}
}

func TestBoardView_RenderHelp(t *testing.T) {
	view := New(&stubSource{}, Options{})

	if !strings.Contains(view.Render(120, 40), "PgUp/Dn:Page") {
		t.Error("expected full help text on wide terminal")
	}
	if !strings.Contains(view.Render(50, 40), "f:Kind") {
		t.Error("expected compact help text on narrow terminal")
	}
}

func TestBoardView_RenderDetail_Nil(t *testing.T) {
	view := New(&stubSource{}, Options{})
	output := view.RenderDetail(nil, 120)

	if !strings.Contains(output, "No recipe selected") {
		t.Error("expected 'No recipe selected' for nil recipe")
	}
}

func TestBoardView_RenderDetail_Lines(t *testing.T) {
	view, _ := loadedView(t)
	output := view.RenderDetail(view.Selected(), 120)

	for _, want := range []string{
		"MARG · Margherita",
		"USD 12.00",
		"USD 4.50",
		"37.5%",
		"LINES",
		"Flour",
		"Tomato sauce (prep)",
		"250 g",
		"200 ml",
		"Total USD 4.50",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in detail output", want)
		}
	}
}

func TestBoardView_RenderDetail_Unavailable(t *testing.T) {
	view, _ := loadedView(t)
	view.MoveDown()
	output := view.RenderDetail(view.Selected(), 120)

	if !strings.Contains(output, "cost unavailable: ingredient ing-yeast: invalid package") {
		t.Errorf("expected failure reason in detail output, got:\n%s", output)
	}
	if strings.Contains(output, "LINES") {
		t.Error("expected no line breakdown for an unavailable recipe")
	}
	if strings.Contains(output, "via ") {
		t.Error("expected no propagation path for a single-recipe failure")
	}
}

func TestBoardView_FailurePath(t *testing.T) {
	view, _ := loadedView(t)

	err := &costing.Error{
		Kind:         costing.KindInvalidPackage,
		IngredientID: "ing-yeast",
		Path:         []string{"r-dough", "r-marg"},
	}
	if got := view.failurePath(err); got != "DOUGH → MARG" {
		t.Errorf("failurePath() = %q, want %q", got, "DOUGH → MARG")
	}
	if got := view.failurePath(errors.New("plain")); got != "" {
		t.Errorf("failurePath() = %q for a plain error, want empty", got)
	}
}
