package components

import "github.com/charmbracelet/lipgloss"

// Palette is the set of colors components render with. The tui Theme
// hands its palette down so components follow the configured scheme.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Background lipgloss.Color
	Error      lipgloss.Color
	Warning    lipgloss.Color
	Success    lipgloss.Color
}

// DefaultPalette is the "line" scheme: pass-ticket white on a dark
// background with steel-blue rules.
func DefaultPalette() Palette {
	return Palette{
		Primary:    lipgloss.Color("#E8E6E3"),
		Secondary:  lipgloss.Color("#7A9CC6"),
		Accent:     lipgloss.Color("#F2C14E"),
		Muted:      lipgloss.Color("#5C6370"),
		Background: lipgloss.Color("#1B1D21"),
		Error:      lipgloss.Color("#E06C75"),
		Warning:    lipgloss.Color("#E5A04B"),
		Success:    lipgloss.Color("#98C379"),
	}
}

func (p Palette) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Accent).Bold(true)
}

func (p Palette) SectionStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
}

func (p Palette) LabelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Secondary)
}

func (p Palette) ValueStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Primary)
}

func (p Palette) MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Muted)
}

func (p Palette) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Error)
}

func (p Palette) WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Warning)
}

func (p Palette) SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Success)
}

func (p Palette) SelectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Background).Background(p.Primary).Bold(true)
}
