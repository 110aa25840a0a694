package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CostGauge renders a food cost percentage as a bar. Unlike a progress
// bar, lower is better: at or under target is green, up to ten points over
// is amber, beyond that red. The bar is full at 100%.
func CostGauge(p Palette, pct, target float64, width int) string {
	barWidth := width - 2 // for [ and ]
	if barWidth < 4 {
		barWidth = 4
	}

	ratio := pct / 100
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}
	filled := int(ratio * float64(barWidth))

	bar := "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"

	var style lipgloss.Style
	switch {
	case pct <= target:
		style = p.SuccessStyle()
	case pct <= target+10:
		style = p.WarningStyle()
	default:
		style = p.ErrorStyle()
	}
	return style.Render(bar)
}
