package conversions

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/platecost/platecost/internal/costing"
	"github.com/platecost/platecost/internal/costing/uom"
	"github.com/platecost/platecost/internal/tui/components"
)

type stubSource struct {
	units     []string
	factors   map[string]float64 // "from>to"
	conflicts []uom.Conflict
	err       error
}

func (s *stubSource) Units(ctx context.Context) ([]string, error) {
	return s.units, s.err
}

func (s *stubSource) ResolveConversion(ctx context.Context, from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}
	if f, ok := s.factors[from+">"+to]; ok {
		return f, nil
	}
	return 0, &costing.Error{Kind: costing.KindUnresolvableUnit, FromUnit: from, ToUnit: to}
}

func (s *stubSource) AuditConversions(ctx context.Context) ([]uom.Conflict, error) {
	return s.conflicts, nil
}

func loadedView(t *testing.T, src *stubSource) *View {
	t.Helper()
	view := New(src, components.DefaultPalette())
	if err := view.Load(context.Background()); err != nil {
		t.Fatalf("failed to load units: %v", err)
	}
	return view
}

func kitchenUnits() *stubSource {
	return &stubSource{
		units: []string{"g", "kg", "ml", "l", "each"},
		factors: map[string]float64{
			"g>kg":  0.001,
			"kg>g":  1000,
			"ml>l":  0.001,
			"l>ml":  1000,
			"l>kg":  1,
			"kg>ml": 1000,
		},
	}
}

func press(v *View, keys ...string) {
	for _, k := range keys {
		v.HandleKey(context.Background(), k)
	}
}

func TestConversionsView_Load(t *testing.T) {
	view := loadedView(t, kitchenUnits())

	if view.from.Value() != "g" {
		t.Errorf("Expected from to default to g, got %q", view.from.Value())
	}
	if view.to.Value() != "kg" {
		t.Errorf("Expected to to default to kg, got %q", view.to.Value())
	}

	output := view.Render(120)
	if !strings.Contains(output, "UNIT CONVERSION") {
		t.Error("expected title in output")
	}
	if !strings.Contains(output, "No conflicting conversion paths.") {
		t.Error("expected clean audit message")
	}
}

func TestConversionsView_ReloadKeepsSelection(t *testing.T) {
	src := kitchenUnits()
	view := loadedView(t, src)
	view.from.SetValue("ml")
	view.to.SetValue("l")

	src.units = append([]string{"cup"}, src.units...)
	if err := view.Load(context.Background()); err != nil {
		t.Fatalf("failed to reload units: %v", err)
	}
	if view.from.Value() != "ml" || view.to.Value() != "l" {
		t.Errorf("Expected ml to l after reload, got %s to %s", view.from.Value(), view.to.Value())
	}
}

func TestConversionsView_Convert(t *testing.T) {
	view := loadedView(t, kitchenUnits())

	press(view, "backspace", "2", "5", "0", "enter", "enter", "enter")

	if got := view.Last(); got != "250 g = 0.25 kg" {
		t.Errorf("Last() = %q, want %q", got, "250 g = 0.25 kg")
	}
	if !strings.Contains(view.Render(120), "250 g = 0.25 kg") {
		t.Error("expected result in output")
	}

	// The form stays usable after a submit.
	press(view, "left", "enter")
	if got := view.Last(); got != "250 g = 250 g" {
		t.Errorf("Last() = %q after second submit, want %q", got, "250 g = 250 g")
	}
}

func TestConversionsView_History(t *testing.T) {
	view := loadedView(t, kitchenUnits())
	press(view, "tab", "tab")

	for i := 0; i < maxHistory+2; i++ {
		press(view, "enter")
	}
	if len(view.history) != maxHistory {
		t.Errorf("Expected history capped at %d, got %d", maxHistory, len(view.history))
	}

	press(view, "esc")
	if view.Last() != "" {
		t.Errorf("Expected history cleared on esc, got %q", view.Last())
	}
	if view.quantity.Value() != "1" {
		t.Errorf("Expected quantity reset to 1, got %q", view.quantity.Value())
	}
}

func TestConversionsView_Unresolvable(t *testing.T) {
	view := loadedView(t, kitchenUnits())
	view.from.SetValue("each")
	view.to.SetValue("ml")

	press(view, "tab", "tab", "enter")

	if view.Last() != "" {
		t.Errorf("Expected no result, got %q", view.Last())
	}
	if !strings.Contains(view.Render(120), "Error: cannot convert each to ml") {
		t.Error("expected conversion error in output")
	}
}

func TestConversionsView_InvalidQuantity(t *testing.T) {
	view := loadedView(t, kitchenUnits())

	press(view, "backspace", "tab", "tab", "enter")

	if view.Last() != "" {
		t.Errorf("Expected no result for an empty quantity, got %q", view.Last())
	}
	if !strings.Contains(view.Render(120), "Required") {
		t.Error("expected required marker on the quantity")
	}
}

func TestConversionsView_Conflicts(t *testing.T) {
	src := kitchenUnits()
	src.conflicts = []uom.Conflict{{From: "cup", To: "ml", First: 236.588, Second: 240}}
	view := loadedView(t, src)

	if len(view.Conflicts()) != 1 {
		t.Fatalf("Expected 1 conflict, got %d", len(view.Conflicts()))
	}
	if !strings.Contains(view.Render(120), "cup → ml: 236.588 vs 240") {
		t.Error("expected conflict in audit section")
	}
}

func TestConversionsView_NoUnits(t *testing.T) {
	view := loadedView(t, &stubSource{})

	if !strings.Contains(view.Render(120), "No units defined.") {
		t.Error("expected empty state message")
	}
}

func TestConversionsView_LoadError(t *testing.T) {
	view := New(&stubSource{err: errors.New("snapshot unavailable")}, components.DefaultPalette())

	if err := view.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if !strings.Contains(view.Render(120), "Error: snapshot unavailable") {
		t.Error("expected error in output")
	}
}
