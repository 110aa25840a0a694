package components

import (
	"strings"
	"testing"
)

func TestInput_BasicOperations(t *testing.T) {
	input := NewInput("Name")
	input.SetValue("Bread flour")

	if input.Value() != "Bread flour" {
		t.Errorf("Expected 'Bread flour', got %q", input.Value())
	}

	input.SetWidth(30).SetMaxLength(50).SetRequired(true).SetPlaceholder("Ingredient name")
	if !input.Validate() {
		t.Error("Expected validation to pass with value set")
	}
}

func TestInput_RequiredValidation(t *testing.T) {
	input := NewInput("Name").SetRequired(true)

	if input.Validate() {
		t.Error("Expected validation to fail for empty required field")
	}
	if !strings.Contains(input.Render(), "Required") {
		t.Error("Expected 'Required' error in output")
	}

	input.SetValue("Salt")
	if !input.Validate() {
		t.Error("Expected validation to pass once a value is set")
	}
}

func TestInput_HandleKey_Typing(t *testing.T) {
	input := NewInput("Name")
	input.Focus(true)

	for _, k := range []string{"S", "a", "l", "t"} {
		input.HandleKey(k)
	}
	if input.Value() != "Salt" {
		t.Errorf("Expected 'Salt', got %q", input.Value())
	}

	input.HandleKey("backspace")
	if input.Value() != "Sal" {
		t.Errorf("Expected 'Sal', got %q", input.Value())
	}
}

func TestInput_HandleKey_CursorMovement(t *testing.T) {
	input := NewInput("Name")
	input.SetValue("Creme")
	input.Focus(true)

	input.HandleKey("left")
	input.HandleKey("X")
	if input.Value() != "CremXe" {
		t.Errorf("Expected 'CremXe', got %q", input.Value())
	}

	input.HandleKey("home")
	input.HandleKey("delete")
	if input.Value() != "remXe" {
		t.Errorf("Expected 'remXe', got %q", input.Value())
	}
}

func TestInput_HandleKey_MultibyteRunes(t *testing.T) {
	input := NewInput("Name")
	input.SetValue("Crèm")
	input.Focus(true)

	input.HandleKey("e")
	if input.Value() != "Crème" {
		t.Errorf("Expected 'Crème', got %q", input.Value())
	}

	input.HandleKey("left")
	input.HandleKey("left")
	input.HandleKey("backspace")
	if input.Value() != "Crme" {
		t.Errorf("Expected 'Crme' after removing è, got %q", input.Value())
	}
}

func TestInput_HandleKey_NotFocused(t *testing.T) {
	input := NewInput("Name")
	input.SetValue("Yeast")

	input.HandleKey("A")
	if input.Value() != "Yeast" {
		t.Errorf("Should not handle keys when not focused, got %q", input.Value())
	}
}

func TestInput_Numeric(t *testing.T) {
	input := NewInput("Quantity").SetNumeric(true)
	input.Focus(true)

	for _, k := range []string{"1", "a", ".", "2", ".", "5", "-"} {
		input.HandleKey(k)
	}
	if input.Value() != "1.25" {
		t.Errorf("Expected '1.25', got %q", input.Value())
	}

	v, err := input.Float()
	if err != nil {
		t.Fatalf("failed to parse quantity: %v", err)
	}
	if v != 1.25 {
		t.Errorf("Expected 1.25, got %v", v)
	}

	input.SetValue(".")
	if input.Validate() {
		t.Error("Expected a lone '.' to fail validation")
	}
}

func TestInput_Render(t *testing.T) {
	input := NewInput("Quantity").SetPlaceholder("e.g. 250")
	if !strings.Contains(input.Render(), "e.g. 250") {
		t.Error("Expected placeholder in output when unfocused and empty")
	}

	input.SetValue("250")
	output := input.Render()
	if !strings.Contains(output, "Quantity") || !strings.Contains(output, "250") {
		t.Errorf("Expected label and value in output, got %q", output)
	}

	input.Focus(true)
	if !strings.Contains(input.Render(), "250_") {
		t.Error("Expected cursor after value in focused output")
	}

	if strings.Contains(input.RenderWithLabelWidth(0), "Quantity") {
		t.Error("Expected label hidden with labelWidth=0")
	}
}

func TestSelect_Navigation(t *testing.T) {
	sel := NewSelect("From", []string{"g", "kg", "lb"})

	if sel.Value() != "g" || sel.SelectedIndex() != 0 {
		t.Errorf("Expected first option selected, got %q", sel.Value())
	}

	sel.HandleKey("right")
	if sel.Value() != "g" {
		t.Error("Should not handle keys when not focused")
	}

	sel.Focus(true)
	sel.HandleKey("right")
	sel.HandleKey("l")
	sel.HandleKey("right")
	if sel.Value() != "lb" {
		t.Errorf("Expected 'lb' at end, got %q", sel.Value())
	}

	sel.HandleKey("left")
	if sel.Value() != "kg" {
		t.Errorf("Expected 'kg', got %q", sel.Value())
	}
}

func TestSelect_SetValueAndOptions(t *testing.T) {
	sel := NewSelect("To", []string{"g", "kg"})
	sel.SetValue("kg")
	if sel.Value() != "kg" {
		t.Fatalf("Expected 'kg', got %q", sel.Value())
	}

	sel.SetValue("oz")
	if sel.Value() != "kg" {
		t.Errorf("Unknown value should leave selection alone, got %q", sel.Value())
	}

	sel.SetOptions([]string{"g", "kg", "lb", "oz"})
	if sel.Value() != "kg" {
		t.Errorf("Expected selection kept across SetOptions, got %q", sel.Value())
	}

	sel.SetOptions([]string{"ml", "l"})
	if sel.Value() != "ml" {
		t.Errorf("Expected first option when value disappears, got %q", sel.Value())
	}

	sel.SetSelected(99)
	if sel.SelectedIndex() != 0 {
		t.Errorf("Expected index 0 after out of range SetSelected, got %d", sel.SelectedIndex())
	}
}

func TestSelect_RenderWindow(t *testing.T) {
	units := []string{"cup", "dozen", "g", "kg", "l", "lb", "ml", "oz", "tbsp", "tsp", "unit"}
	sel := NewSelect("Unit", units)
	sel.SetValue("unit")

	output := sel.Render()
	if !strings.Contains(output, "(unit)") {
		t.Errorf("Expected selected option in output, got %q", output)
	}
	if strings.Contains(output, " cup ") {
		t.Error("Expected options far from the selection to be windowed out")
	}
	if !strings.Contains(output, "‹") {
		t.Error("Expected marker for hidden options on the left")
	}
}

func TestForm_Flow(t *testing.T) {
	form := NewForm("Convert")
	qty := NewInput("Quantity")
	unit := NewSelect("Unit", []string{"g", "kg"})
	form.AddField(qty).AddField(unit)

	if form.IsSubmitted() || form.IsCancelled() {
		t.Fatal("Form should start neither submitted nor cancelled")
	}
	if !qty.IsFocused() {
		t.Error("First field should be focused")
	}

	form.HandleKey("5")
	form.HandleKey("tab")
	if !unit.IsFocused() || qty.IsFocused() {
		t.Error("Second field should hold focus after tab")
	}

	form.HandleKey("right")
	if unit.Value() != "kg" {
		t.Errorf("Expected key routed to focused select, got %q", unit.Value())
	}

	form.HandleKey("enter")
	if !form.IsSubmitted() {
		t.Error("Enter on the last field should submit")
	}
	if qty.Value() != "5" {
		t.Errorf("Expected '5', got %q", qty.Value())
	}

	form.Rearm()
	if form.IsSubmitted() {
		t.Error("Rearm should clear the submitted flag")
	}

	form.HandleKey("esc")
	if !form.IsCancelled() {
		t.Error("Form should be cancelled after Esc")
	}
}

func TestForm_RenderResponsive(t *testing.T) {
	form := NewForm("Conversion Preview")
	form.AddField(NewInput("Quantity").SetValue("250"))
	form.SetError("cannot convert each to ml")

	wide := form.RenderResponsive(120)
	for _, want := range []string{"Conversion Preview", "Quantity", "Shift+Tab", "cannot convert each to ml"} {
		if !strings.Contains(wide, want) {
			t.Errorf("Expected %q in wide output", want)
		}
	}

	narrow := form.RenderResponsive(50)
	if strings.Contains(narrow, "Shift+Tab") {
		t.Error("Expected compact help text on narrow terminal")
	}

	form.SetHelp("Enter:Convert  Esc:Back", "Enter:Go")
	if !strings.Contains(form.RenderResponsive(120), "Enter:Convert") {
		t.Error("Expected custom help text")
	}
}
