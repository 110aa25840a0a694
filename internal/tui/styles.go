// Package tui provides the terminal cost board for platecost.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/platecost/platecost/internal/config"
	"github.com/platecost/platecost/internal/tui/components"
)

// Theme contains all style definitions for the TUI.
type Theme struct {
	palette components.Palette

	// Base styles
	Base lipgloss.Style
	Bold lipgloss.Style

	// Color styles (for direct use)
	Primary   lipgloss.Style
	Secondary lipgloss.Style
	Accent    lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Success   lipgloss.Style
	Muted     lipgloss.Style

	// Component styles
	Header    lipgloss.Style
	Footer    lipgloss.Style
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Box       lipgloss.Style
	Selected  lipgloss.Style
	Alert     lipgloss.Style
	AlertWarn lipgloss.Style
	AlertCrit lipgloss.Style

	StatusDivider lipgloss.Style
}

// NewTheme creates a theme for the configured color scheme.
func NewTheme(scheme config.ColorScheme) *Theme {
	switch scheme {
	case config.ColorSchemeBrass:
		return buildTheme(brassPalette())
	case config.ColorSchemePlain:
		return buildTheme(plainPalette())
	default:
		return buildTheme(components.DefaultPalette())
	}
}

// brassPalette is warm copper and brass, like a pass rail under heat lamps.
func brassPalette() components.Palette {
	return components.Palette{
		Primary:    lipgloss.Color("#F0D9A8"),
		Secondary:  lipgloss.Color("#B8860B"),
		Accent:     lipgloss.Color("#FFB347"),
		Muted:      lipgloss.Color("#7A5C2E"),
		Background: lipgloss.Color("#1A1208"),
		Error:      lipgloss.Color("#FF6B5B"),
		Warning:    lipgloss.Color("#FFD166"),
		Success:    lipgloss.Color("#A7C957"),
	}
}

// plainPalette is monochrome for terminals without reliable color.
func plainPalette() components.Palette {
	return components.Palette{
		Primary:    lipgloss.Color("#FFFFFF"),
		Secondary:  lipgloss.Color("#AAAAAA"),
		Accent:     lipgloss.Color("#FFFFFF"),
		Muted:      lipgloss.Color("#666666"),
		Background: lipgloss.Color("#000000"),
		Error:      lipgloss.Color("#FFFFFF"),
		Warning:    lipgloss.Color("#DDDDDD"),
		Success:    lipgloss.Color("#FFFFFF"),
	}
}

func buildTheme(p components.Palette) *Theme {
	t := &Theme{palette: p}

	t.Base = lipgloss.NewStyle().Foreground(p.Primary)
	t.Bold = t.Base.Bold(true)

	t.Primary = lipgloss.NewStyle().Foreground(p.Primary)
	t.Secondary = lipgloss.NewStyle().Foreground(p.Secondary)
	t.Accent = lipgloss.NewStyle().Foreground(p.Accent)
	t.Error = lipgloss.NewStyle().Foreground(p.Error)
	t.Warning = lipgloss.NewStyle().Foreground(p.Warning)
	t.Success = lipgloss.NewStyle().Foreground(p.Success)
	t.Muted = lipgloss.NewStyle().Foreground(p.Muted)

	// Header - kitchen name and tenant
	t.Header = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true).
		Padding(0, 1)

	t.Footer = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Padding(0, 1)

	t.Title = lipgloss.NewStyle().
		Foreground(p.Accent).
		Bold(true).
		Padding(0, 1)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Padding(0, 1)

	t.Label = lipgloss.NewStyle().Foreground(p.Secondary)
	t.Value = lipgloss.NewStyle().Foreground(p.Primary)

	t.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Secondary).
		Padding(0, 1)

	t.Selected = p.SelectedStyle()

	t.Alert = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)

	t.AlertWarn = lipgloss.NewStyle().
		Foreground(p.Warning).
		Bold(true)

	t.AlertCrit = lipgloss.NewStyle().
		Foreground(p.Error).
		Bold(true)

	t.StatusDivider = lipgloss.NewStyle().
		Foreground(p.Muted).
		SetString(" │ ")

	return t
}

// Palette returns the colors handed to components and views.
func (t *Theme) Palette() components.Palette {
	return t.palette
}

// Box characters for drawing
const (
	BoxHorizontal       = "─"
	BoxDoubleHorizontal = "═"
)

// DrawHorizontalLine draws a horizontal line.
func (t *Theme) DrawHorizontalLine(width int) string {
	if width < 0 {
		width = 0
	}
	return t.Secondary.Render(strings.Repeat(BoxHorizontal, width))
}

// DrawDoubleLine draws a double horizontal line.
func (t *Theme) DrawDoubleLine(width int) string {
	if width < 0 {
		width = 0
	}
	return t.Primary.Render(strings.Repeat(BoxDoubleHorizontal, width))
}
