// Package components provides reusable TUI components.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column. A column with Fixed > 0 always takes that
// width; otherwise it gets a Weight share of what is left, never less than
// MinWidth. When the table is too narrow, the lowest Priority columns are
// hidden first.
type Column struct {
	Title    string
	Fixed    int
	MinWidth int
	Weight   float64
	Priority int
	Align    lipgloss.Position
}

const (
	columnSeparator = " │ "
	rowPadding      = 2
)

// Table is a scrollable, selectable table that adapts its columns to the
// available width.
type Table struct {
	columns     []Column
	rows        [][]string
	selected    int
	offset      int
	visibleRows int
	focused     bool
	footer      string
	palette     Palette

	// rowStyles overrides the style of individual rows, by index.
	rowStyles map[int]lipgloss.Style
}

// NewTable creates a new table with the given columns.
func NewTable(columns []Column) *Table {
	return &Table{
		columns:     columns,
		rows:        [][]string{},
		visibleRows: 10,
		palette:     DefaultPalette(),
		rowStyles:   map[int]lipgloss.Style{},
	}
}

// SetRows replaces the table data, keeping the selection in range.
func (t *Table) SetRows(rows [][]string) {
	t.rows = rows
	t.rowStyles = map[int]lipgloss.Style{}
	if t.selected >= len(rows) {
		t.selected = len(rows) - 1
	}
	if t.selected < 0 {
		t.selected = 0
	}
	t.clampOffset()
}

// SetRowStyle renders row idx with style instead of the zebra styles.
func (t *Table) SetRowStyle(idx int, style lipgloss.Style) {
	t.rowStyles[idx] = style
}

// SetFooter sets a summary line rendered under the rows.
func (t *Table) SetFooter(footer string) {
	t.footer = footer
}

// SetVisibleRows sets the number of visible rows.
func (t *Table) SetVisibleRows(n int) {
	if n < 1 {
		n = 1
	}
	t.visibleRows = n
	t.clampOffset()
}

// SetPalette sets the colors the table renders with.
func (t *Table) SetPalette(p Palette) {
	t.palette = p
}

// Focus sets the table focus state.
func (t *Table) Focus(focused bool) {
	t.focused = focused
}

// Selected returns the currently selected row index.
func (t *Table) Selected() int {
	return t.selected
}

// SelectedRow returns the currently selected row data.
func (t *Table) SelectedRow() []string {
	if t.selected >= 0 && t.selected < len(t.rows) {
		return t.rows[t.selected]
	}
	return nil
}

// MoveUp moves the selection up.
func (t *Table) MoveUp() {
	if t.selected > 0 {
		t.selected--
		t.clampOffset()
	}
}

// MoveDown moves the selection down.
func (t *Table) MoveDown() {
	if t.selected < len(t.rows)-1 {
		t.selected++
		t.clampOffset()
	}
}

// PageUp moves up one page.
func (t *Table) PageUp() {
	t.selected -= t.visibleRows
	if t.selected < 0 {
		t.selected = 0
	}
	t.clampOffset()
}

// PageDown moves down one page.
func (t *Table) PageDown() {
	t.selected += t.visibleRows
	if t.selected >= len(t.rows) {
		t.selected = len(t.rows) - 1
	}
	if t.selected < 0 {
		t.selected = 0
	}
	t.clampOffset()
}

// GoToTop goes to the first row.
func (t *Table) GoToTop() {
	t.selected = 0
	t.offset = 0
}

// GoToBottom goes to the last row.
func (t *Table) GoToBottom() {
	if len(t.rows) > 0 {
		t.selected = len(t.rows) - 1
		t.clampOffset()
	}
}

func (t *Table) clampOffset() {
	if t.selected < t.offset {
		t.offset = t.selected
	}
	if t.selected >= t.offset+t.visibleRows {
		t.offset = t.selected - t.visibleRows + 1
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

// ComputeWidths returns the rendered width of each column for the given
// total width. Hidden columns get 0.
func (t *Table) ComputeWidths(width int) []int {
	return ColumnWidths(t.columns, width, lipgloss.Width(columnSeparator))
}

// ColumnWidths distributes availableWidth among columns. separator is the
// width consumed by each gap between visible columns.
func ColumnWidths(columns []Column, availableWidth, separator int) []int {
	widths := make([]int, len(columns))
	visible := make([]bool, len(columns))

	totalFixed, totalMin := 0, 0
	totalWeight := 0.0
	visibleCount := 0
	for i, col := range columns {
		visible[i] = true
		visibleCount++
		if col.Fixed > 0 {
			totalFixed += col.Fixed
		} else {
			totalWeight += col.Weight
			totalMin += col.MinWidth
		}
	}

	remaining := func() int {
		gaps := 0
		if visibleCount > 1 {
			gaps = (visibleCount - 1) * separator
		}
		return availableWidth - totalFixed - gaps - rowPadding
	}

	// Drop the lowest priority column until the minimums fit.
	for remaining()-totalMin < 0 && visibleCount > 1 {
		drop := -1
		for i, col := range columns {
			if !visible[i] {
				continue
			}
			if drop < 0 || col.Priority < columns[drop].Priority {
				drop = i
			}
		}
		visible[drop] = false
		visibleCount--
		if columns[drop].Fixed > 0 {
			totalFixed -= columns[drop].Fixed
		} else {
			totalWeight -= columns[drop].Weight
			totalMin -= columns[drop].MinWidth
		}
	}

	free := remaining() - totalMin
	if free < 0 {
		free = 0
	}

	for i, col := range columns {
		switch {
		case !visible[i]:
			widths[i] = 0
		case col.Fixed > 0:
			widths[i] = col.Fixed
		case totalWeight > 0:
			widths[i] = col.MinWidth + int(float64(free)*col.Weight/totalWeight)
		default:
			widths[i] = col.MinWidth
		}
	}
	return widths
}

// Render renders the table at the given width.
func (t *Table) Render(width int) string {
	widths := t.ComputeWidths(width)

	headerStyle := lipgloss.NewStyle().Foreground(t.palette.Accent).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.palette.Primary)
	rowAltStyle := lipgloss.NewStyle().Foreground(t.palette.Secondary)
	ruleStyle := lipgloss.NewStyle().Foreground(t.palette.Muted)

	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = col.Title
	}

	var b strings.Builder
	header := t.renderRow(headers, widths, headerStyle)
	b.WriteString(header)
	b.WriteString("\n")
	rule := ruleStyle.Render(strings.Repeat("─", lipgloss.Width(header)))
	b.WriteString(rule)
	b.WriteString("\n")

	end := t.offset + t.visibleRows
	if end > len(t.rows) {
		end = len(t.rows)
	}
	for i := t.offset; i < end; i++ {
		style := rowStyle
		if (i-t.offset)%2 == 1 {
			style = rowAltStyle
		}
		if s, ok := t.rowStyles[i]; ok {
			style = s
		}
		if i == t.selected && t.focused {
			style = t.palette.SelectedStyle()
		}
		b.WriteString(t.renderRow(t.rows[i], widths, style))
		b.WriteString("\n")
	}

	if t.footer != "" {
		b.WriteString(rule)
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(t.palette.Secondary).Render(" " + t.footer))
		b.WriteString("\n")
	}

	return b.String()
}

func (t *Table) renderRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string
	for i, col := range t.columns {
		w := widths[i]
		if w == 0 {
			continue
		}
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts = append(parts, alignCell(truncateCell(cell, w), w, col.Align))
	}
	return style.Render(" " + strings.Join(parts, columnSeparator) + " ")
}

func truncateCell(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func alignCell(s string, width int, align lipgloss.Position) string {
	pad := width - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	switch align {
	case lipgloss.Right:
		return strings.Repeat(" ", pad) + s
	case lipgloss.Center:
		left := pad / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
	default:
		return s + strings.Repeat(" ", pad)
	}
}

// Empty returns true if the table has no rows.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}
