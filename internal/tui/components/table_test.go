package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestNewTable(t *testing.T) {
	table := NewTable([]Column{
		{Title: "Code", Fixed: 8},
		{Title: "Recipe", MinWidth: 10, Weight: 1},
	})
	if table == nil {
		t.Fatal("Expected non-nil table")
	}
	if !table.Empty() {
		t.Error("New table should be empty")
	}
	if table.RowCount() != 0 {
		t.Errorf("Expected 0 rows, got %d", table.RowCount())
	}
}

func TestTable_Navigation(t *testing.T) {
	table := NewTable([]Column{{Title: "Code", Fixed: 5}})
	table.SetRows([][]string{{"A"}, {"B"}, {"C"}, {"D"}, {"E"}})

	if table.Selected() != 0 {
		t.Errorf("Expected selected=0, got %d", table.Selected())
	}

	table.MoveDown()
	table.MoveDown()
	if table.Selected() != 2 {
		t.Errorf("Expected selected=2, got %d", table.Selected())
	}

	table.MoveUp()
	if table.Selected() != 1 {
		t.Errorf("Expected selected=1, got %d", table.Selected())
	}

	table.GoToBottom()
	if table.Selected() != 4 {
		t.Errorf("Expected selected=4 at bottom, got %d", table.Selected())
	}
	table.MoveDown()
	if table.Selected() != 4 {
		t.Errorf("Expected selection to stay at 4, got %d", table.Selected())
	}

	table.GoToTop()
	table.MoveUp()
	if table.Selected() != 0 {
		t.Errorf("Expected selection to stay at 0, got %d", table.Selected())
	}
}

func TestTable_PageNavigation(t *testing.T) {
	table := NewTable([]Column{{Title: "N", Fixed: 3}})
	rows := make([][]string, 25)
	for i := range rows {
		rows[i] = []string{string(rune('a' + i))}
	}
	table.SetRows(rows)
	table.SetVisibleRows(10)

	table.PageDown()
	if table.Selected() != 10 {
		t.Errorf("Expected selected=10 after PageDown, got %d", table.Selected())
	}
	table.PageDown()
	table.PageDown()
	if table.Selected() != 24 {
		t.Errorf("Expected selected=24 at end, got %d", table.Selected())
	}
	table.PageUp()
	if table.Selected() != 14 {
		t.Errorf("Expected selected=14 after PageUp, got %d", table.Selected())
	}
}

func TestTable_SetRowsClampsSelection(t *testing.T) {
	table := NewTable([]Column{{Title: "N", Fixed: 3}})
	table.SetRows([][]string{{"1"}, {"2"}, {"3"}})
	table.GoToBottom()

	table.SetRows([][]string{{"1"}})
	if table.Selected() != 0 {
		t.Errorf("Expected selection clamped to 0, got %d", table.Selected())
	}

	table.SetRows(nil)
	if table.SelectedRow() != nil {
		t.Error("Expected nil selected row on empty table")
	}
}

func TestTable_SelectedRow(t *testing.T) {
	table := NewTable([]Column{{Title: "Code", Fixed: 5}, {Title: "Name", Fixed: 10}})
	table.SetRows([][]string{{"FLOUR", "Flour"}, {"SALT", "Salt"}})
	table.MoveDown()

	row := table.SelectedRow()
	if row == nil || row[0] != "SALT" {
		t.Errorf("Expected SALT row, got %v", row)
	}
}

func TestColumnWidths_FixedColumnsFit(t *testing.T) {
	cols := []Column{
		{Title: "A", Fixed: 10, Priority: 3},
		{Title: "B", Fixed: 10, Priority: 2},
		{Title: "C", Fixed: 10, Priority: 1},
	}

	widths := NewTable(cols).ComputeWidths(100)
	for i, w := range widths {
		if w != 10 {
			t.Errorf("widths[%d] = %d, want 10", i, w)
		}
	}
}

func TestColumnWidths_DropsLowestPriority(t *testing.T) {
	cols := []Column{
		{Title: "A", Fixed: 20, Priority: 3},
		{Title: "B", Fixed: 20, Priority: 2},
		{Title: "C", Fixed: 20, Priority: 1},
	}

	// All three need 60 + 2 gaps of 3 + 2 padding = 68.
	widths := ColumnWidths(cols, 50, 3)
	if widths[2] != 0 {
		t.Errorf("widths[2] = %d, want 0 (dropped)", widths[2])
	}
	if widths[0] != 20 || widths[1] != 20 {
		t.Errorf("widths = %v, want first two kept at 20", widths)
	}
}

func TestColumnWidths_ProportionalWeight(t *testing.T) {
	cols := []Column{
		{Title: "Fixed", Fixed: 10, Priority: 3},
		{Title: "Flex1", MinWidth: 5, Weight: 1, Priority: 2},
		{Title: "Flex2", MinWidth: 5, Weight: 2, Priority: 1},
	}

	widths := ColumnWidths(cols, 100, 3)
	if widths[0] != 10 {
		t.Errorf("widths[0] = %d, want 10", widths[0])
	}
	if widths[1] == 0 || widths[2] == 0 {
		t.Fatalf("flex columns dropped: %v", widths)
	}

	ratio := float64(widths[2]) / float64(widths[1])
	if ratio < 1.5 || ratio > 2.5 {
		t.Errorf("flex ratio = %.2f, want ~2 (widths %v)", ratio, widths)
	}
}

func TestColumnWidths_RespectsMinWidth(t *testing.T) {
	cols := []Column{
		{Title: "Recipe", MinWidth: 12, Weight: 1, Priority: 2},
		{Title: "Note", MinWidth: 30, Weight: 1, Priority: 1},
	}

	widths := ColumnWidths(cols, 30, 3)
	if widths[1] != 0 {
		t.Errorf("expected Note dropped when its minimum cannot fit, got %v", widths)
	}
	if widths[0] < 12 {
		t.Errorf("widths[0] = %d, want at least 12", widths[0])
	}
}

func TestTable_Render_ContainsHeadersAndRows(t *testing.T) {
	table := NewTable([]Column{
		{Title: "Code", Fixed: 8, Priority: 2},
		{Title: "Recipe", MinWidth: 10, Weight: 1, Priority: 1},
	})
	table.SetRows([][]string{{"DOUGH", "Pizza dough"}, {"SAUCE", "Tomato sauce"}})

	output := table.Render(80)
	for _, want := range []string{"Code", "Recipe", "Pizza dough", "SAUCE"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output", want)
		}
	}
}

func TestTable_Render_HidesColumnsOnNarrow(t *testing.T) {
	table := NewTable([]Column{
		{Title: "Code", Fixed: 12, Priority: 2},
		{Title: "Extra", Fixed: 15, Priority: 1},
	})
	table.SetRows([][]string{{"DOUGH", "Details"}})

	output := table.Render(20)
	if !strings.Contains(output, "Code") {
		t.Error("Expected high-priority header in narrow output")
	}
	if strings.Contains(output, "Details") {
		t.Error("Expected low-priority column to be hidden")
	}
}

func TestTable_Render_TruncatesLongCells(t *testing.T) {
	table := NewTable([]Column{{Title: "Name", Fixed: 8}})
	table.SetRows([][]string{{"Crème fraîche, full fat"}})

	output := table.Render(40)
	if !strings.Contains(output, "Crème f…") {
		t.Errorf("Expected rune-aware truncation, got:\n%s", output)
	}
}

func TestTable_Render_RightAligned(t *testing.T) {
	table := NewTable([]Column{{Title: "Cost", Fixed: 10, Align: lipgloss.Right}})
	table.SetRows([][]string{{"4.50"}})

	output := table.Render(40)
	if !strings.Contains(output, "      4.50") {
		t.Errorf("Expected right-aligned value, got:\n%s", output)
	}
}

func TestTable_Render_Footer(t *testing.T) {
	table := NewTable([]Column{{Title: "Code", Fixed: 8}})
	table.SetRows([][]string{{"DOUGH"}})
	table.SetFooter("1 recipe")

	output := table.Render(40)
	if !strings.Contains(output, "1 recipe") {
		t.Error("Expected footer in output")
	}
}

func TestTable_Render_OnlyVisibleRows(t *testing.T) {
	table := NewTable([]Column{{Title: "Code", Fixed: 8}})
	table.SetRows([][]string{{"ROW-A"}, {"ROW-B"}, {"ROW-C"}})
	table.SetVisibleRows(2)

	output := table.Render(40)
	if strings.Contains(output, "ROW-C") {
		t.Error("Expected third row to be scrolled out of view")
	}

	table.GoToBottom()
	output = table.Render(40)
	if strings.Contains(output, "ROW-A") || !strings.Contains(output, "ROW-C") {
		t.Errorf("Expected view scrolled to bottom, got:\n%s", output)
	}
}
