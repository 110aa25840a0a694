package tui

import (
	"strings"
	"testing"

	"github.com/platecost/platecost/internal/config"
)

func TestGetBreakpoint(t *testing.T) {
	tests := []struct {
		width    int
		expected LayoutBreakpoint
	}{
		{40, BreakpointNarrow},
		{59, BreakpointNarrow},
		{60, BreakpointMedium},
		{99, BreakpointMedium},
		{100, BreakpointWide},
		{200, BreakpointWide},
	}

	for _, tt := range tests {
		if got := GetBreakpoint(tt.width); got != tt.expected {
			t.Errorf("GetBreakpoint(%d) = %d, want %d", tt.width, got, tt.expected)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxWidth int
		expected string
	}{
		{"Focaccia", 10, "Focaccia"},
		{"Focaccia", 8, "Focaccia"},
		{"Margherita pizza", 6, "Margh…"},
		{"Crème fraîche", 6, "Crème…"},
		{"Dough", 0, ""},
		{"Dough", 1, "D"},
	}

	for _, tt := range tests {
		if got := Truncate(tt.input, tt.maxWidth); got != tt.expected {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.expected)
		}
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		expected string
	}{
		{"g", 4, "g   "},
		{"tbsp", 4, "tbsp"},
		{"dozen", 4, "dozen"},
	}

	for _, tt := range tests {
		if got := PadRight(tt.input, tt.width); got != tt.expected {
			t.Errorf("PadRight(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.expected)
		}
	}
}

func TestContentWidth(t *testing.T) {
	tests := []struct {
		termWidth, minWidth, maxWidth, expected int
	}{
		{80, 40, 120, 80},
		{30, 40, 120, 40},
		{200, 40, 120, 120},
		{80, 40, 0, 80},
	}

	for _, tt := range tests {
		if got := ContentWidth(tt.termWidth, tt.minWidth, tt.maxWidth); got != tt.expected {
			t.Errorf("ContentWidth(%d, %d, %d) = %d, want %d",
				tt.termWidth, tt.minWidth, tt.maxWidth, got, tt.expected)
		}
	}
}

func TestContentHeight(t *testing.T) {
	tests := []struct {
		termHeight, chromeLines, expected int
	}{
		{24, 6, 18},
		{40, 6, 34},
		{8, 6, 5},
		{5, 6, 5},
	}

	for _, tt := range tests {
		if got := ContentHeight(tt.termHeight, tt.chromeLines); got != tt.expected {
			t.Errorf("ContentHeight(%d, %d) = %d, want %d",
				tt.termHeight, tt.chromeLines, got, tt.expected)
		}
	}
}

func TestSideBySide(t *testing.T) {
	t.Run("horizontal when both fit", func(t *testing.T) {
		result := SideBySide("F2  Board\nF3  Ingredients", "Enter  Details", 80, 4)
		if strings.Contains(result, "\n\n") {
			t.Error("expected horizontal layout")
		}
		first := strings.Split(result, "\n")[0]
		if !strings.Contains(first, "F2  Board") || !strings.Contains(first, "Enter  Details") {
			t.Errorf("expected both blocks on the first line, got %q", first)
		}
	})

	t.Run("stacked when too wide", func(t *testing.T) {
		result := SideBySide(strings.Repeat("A", 50), strings.Repeat("B", 50), 60, 4)
		if !strings.Contains(result, "\n\n") {
			t.Error("expected vertical layout when blocks do not fit")
		}
	})
}

func TestPanel(t *testing.T) {
	theme := NewTheme(config.ColorSchemePlain)
	out := theme.Panel("AUDIT", "14 edges", 40)

	if !strings.Contains(out, "AUDIT") {
		t.Error("expected title in panel border")
	}
	if !strings.Contains(out, "14 edges") {
		t.Error("expected panel content")
	}
}

func TestNewTheme_Schemes(t *testing.T) {
	line := NewTheme(config.ColorSchemeLine)
	brass := NewTheme(config.ColorSchemeBrass)
	plain := NewTheme(config.ColorSchemePlain)
	fallback := NewTheme("")

	if line.Palette().Accent == brass.Palette().Accent {
		t.Error("expected brass scheme to differ from line")
	}
	if plain.Palette().Primary != "#FFFFFF" {
		t.Errorf("plain primary = %q, want #FFFFFF", plain.Palette().Primary)
	}
	if fallback.Palette() != line.Palette() {
		t.Error("expected empty scheme to fall back to line")
	}
}
