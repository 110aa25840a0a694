// Package board provides the recipe cost board view.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/platecost/platecost/internal/costing"
	"github.com/platecost/platecost/internal/models"
	"github.com/platecost/platecost/internal/services/costs"
	"github.com/platecost/platecost/internal/tui/components"
	"github.com/platecost/platecost/internal/util"
)

// Source supplies a full costing pass.
type Source interface {
	Board(ctx context.Context) (*costs.Board, error)
}

// KindFilter narrows the board to one recipe kind.
type KindFilter string

const (
	FilterAll     KindFilter = "all"
	FilterService KindFilter = "service"
	FilterPrep    KindFilter = "prep"
)

// Options control money formatting and colors.
type Options struct {
	Currency      string
	MoneyDecimals int32
	TargetCostPct float64
	Palette       components.Palette
}

// View displays every recipe with its cost, margin and cost percentage.
type View struct {
	source  Source
	opts    Options
	table   *components.Table
	board   *costs.Board
	rows    []costs.RecipeCost
	filter  KindFilter
	loading bool
	err     error
}

// New creates a board view over source.
func New(source Source, opts Options) *View {
	columns := []components.Column{
		{Title: "Code", MinWidth: 10, Weight: 1, Priority: 9},
		{Title: "Recipe", MinWidth: 14, Weight: 3, Priority: 10},
		{Title: "Kind", Fixed: 7, Priority: 3},
		{Title: "Cost", MinWidth: 10, Weight: 1, Priority: 8, Align: lipgloss.Right},
		{Title: "Unit Cost", MinWidth: 14, Weight: 2, Priority: 4, Align: lipgloss.Right},
		{Title: "Price", MinWidth: 8, Weight: 1, Priority: 5, Align: lipgloss.Right},
		{Title: "Margin", MinWidth: 8, Weight: 1, Priority: 6, Align: lipgloss.Right},
		{Title: "Cost %", Fixed: 7, Priority: 7, Align: lipgloss.Right},
		{Title: "Note", MinWidth: 16, Weight: 3, Priority: 2},
	}

	table := components.NewTable(columns)
	table.SetPalette(opts.Palette)
	table.SetVisibleRows(20)
	table.Focus(true)

	return &View{
		source: source,
		opts:   opts,
		table:  table,
		filter: FilterAll,
	}
}

// Load runs a costing pass and rebuilds the rows.
func (v *View) Load(ctx context.Context) error {
	v.loading = true
	defer func() { v.loading = false }()

	b, err := v.source.Board(ctx)
	if err != nil {
		v.err = err
		return err
	}
	v.err = nil
	v.board = b
	v.rebuild()
	return nil
}

func (v *View) rebuild() {
	v.rows = v.rows[:0]
	if v.board != nil {
		for _, rc := range v.board.Recipes {
			if v.filter == FilterAll || string(rc.Recipe.Kind) == string(v.filter) {
				v.rows = append(v.rows, rc)
			}
		}
	}

	p := v.opts.Palette
	rows := make([][]string, len(v.rows))
	for i, rc := range v.rows {
		rows[i] = v.row(rc)
	}
	v.table.SetRows(rows)
	for i, rc := range v.rows {
		switch {
		case !rc.Available():
			v.table.SetRowStyle(i, p.ErrorStyle())
		case rc.DisplayCostPct() != nil && *rc.DisplayCostPct() > v.opts.TargetCostPct:
			v.table.SetRowStyle(i, p.WarningStyle())
		}
	}

	total, unavailable := v.Summary()
	footer := fmt.Sprintf("%d recipes", total)
	if unavailable > 0 {
		footer += fmt.Sprintf(" | %d cost unavailable", unavailable)
	}
	if v.filter != FilterAll {
		footer += " | showing " + string(v.filter)
	}
	v.table.SetFooter(footer)
}

func (v *View) row(rc costs.RecipeCost) []string {
	r := rc.Recipe
	price := "-"
	if r.Kind == models.RecipeKindService && r.Price > 0 {
		price = v.money(r.Price)
	}

	if !rc.Available() {
		return []string{r.Code, r.Name, string(r.Kind), "unavailable", "-", price, "-", "-", "cost unavailable: " + rc.Reason()}
	}

	res := rc.Result
	margin, pct := "-", "-"
	if m := rc.DisplayMargin(); m != nil {
		margin = v.money(*m)
	}
	if c := rc.DisplayCostPct(); c != nil {
		pct = util.FormatPct(*c)
	}
	note := ""
	if c := rc.DisplayCostPct(); c != nil && *c > v.opts.TargetCostPct {
		note = fmt.Sprintf("over %s target", util.FormatPct(v.opts.TargetCostPct))
	}

	return []string{
		r.Code,
		r.Name,
		string(r.Kind),
		v.money(res.TotalCost),
		util.FormatUnitCost(res.UnitCost, "", res.CostUnit, v.opts.MoneyDecimals),
		price,
		margin,
		pct,
		note,
	}
}

func (v *View) money(x float64) string {
	return util.FormatMoney(x, v.opts.Currency, v.opts.MoneyDecimals)
}

// Summary returns how many recipes are shown and how many of them could
// not be costed.
func (v *View) Summary() (total, unavailable int) {
	for _, rc := range v.rows {
		if !rc.Available() {
			unavailable++
		}
	}
	return len(v.rows), unavailable
}

// Board returns the last costing pass, or nil before the first Load.
func (v *View) Board() *costs.Board {
	return v.board
}

// Err returns the error from the last Load.
func (v *View) Err() error {
	return v.err
}

// CycleFilter steps through all, service and prep recipes.
func (v *View) CycleFilter() {
	switch v.filter {
	case FilterAll:
		v.filter = FilterService
	case FilterService:
		v.filter = FilterPrep
	default:
		v.filter = FilterAll
	}
	v.table.GoToTop()
	v.rebuild()
}

// Filter returns the active kind filter.
func (v *View) Filter() KindFilter {
	return v.filter
}

// MoveUp moves the selection up.
func (v *View) MoveUp() {
	v.table.MoveUp()
}

// MoveDown moves the selection down.
func (v *View) MoveDown() {
	v.table.MoveDown()
}

// PageUp moves the selection up one page.
func (v *View) PageUp() {
	v.table.PageUp()
}

// PageDown moves the selection down one page.
func (v *View) PageDown() {
	v.table.PageDown()
}

// Selected returns the highlighted recipe, or nil.
func (v *View) Selected() *costs.RecipeCost {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.rows) {
		return &v.rows[idx]
	}
	return nil
}

// Render renders the board in a width x height area.
func (v *View) Render(width, height int) string {
	p := v.opts.Palette
	if height > 0 {
		// title, table header and rule, footer and help
		v.table.SetVisibleRows(height - 9)
	}

	var b strings.Builder
	b.WriteString(p.TitleStyle().Render("═══ COST BOARD ═══"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(p.ErrorStyle().Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	switch {
	case v.loading:
		b.WriteString(p.LabelStyle().Render("Costing..."))
		b.WriteString("\n")
	case v.table.Empty():
		msg := "No recipes found."
		if v.filter != FilterAll {
			msg = fmt.Sprintf("No %s recipes found.", v.filter)
		}
		b.WriteString(p.LabelStyle().Render(msg))
		b.WriteString("\n")
	default:
		b.WriteString(v.table.Render(width))
	}

	b.WriteString("\n")
	if width < 60 {
		b.WriteString(p.LabelStyle().Render("↑↓:Sel Enter:Lines f:Kind r:Recost"))
	} else {
		b.WriteString(p.LabelStyle().Render("Up/Down:Select  Enter:Line breakdown  f:Kind filter  r:Recost  PgUp/Dn:Page"))
	}
	return b.String()
}

// RenderDetail renders the line breakdown of rc.
func (v *View) RenderDetail(rc *costs.RecipeCost, width int) string {
	p := v.opts.Palette
	label := p.LabelStyle().Width(16)
	value := p.ValueStyle()

	if rc == nil {
		return p.LabelStyle().Render("No recipe selected")
	}
	r := rc.Recipe

	var b strings.Builder
	b.WriteString(p.TitleStyle().Render(fmt.Sprintf("═══ %s · %s ═══", r.Code, r.Name)))
	b.WriteString("\n\n")

	field := func(name, val string) {
		b.WriteString(label.Render(name+":") + " " + value.Render(val) + "\n")
	}
	field("Kind", string(r.Kind))
	if r.Category != "" {
		field("Category", r.Category)
	}
	field("Yield", fmt.Sprintf("%g %s", r.YieldQuantity, r.YieldUnit))
	if r.Kind == models.RecipeKindService {
		field("Price", v.money(r.Price))
	}

	if !rc.Available() {
		b.WriteString("\n")
		b.WriteString(p.ErrorStyle().Render("cost unavailable: " + rc.Reason()))
		b.WriteString("\n")
		if path := v.failurePath(rc.Err); path != "" {
			b.WriteString(p.MutedStyle().Render("via " + path))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(p.LabelStyle().Render("Esc:Back"))
		return b.String()
	}

	res := rc.Result
	field("Total Cost", v.money(res.TotalCost))
	field("Unit Cost", util.FormatUnitCost(res.UnitCost, v.opts.Currency, res.CostUnit, v.opts.MoneyDecimals))
	if m := rc.DisplayMargin(); m != nil {
		field("Margin", v.money(*m))
	}
	if c := rc.DisplayCostPct(); c != nil {
		b.WriteString(label.Render("Cost %:") + " " +
			value.Render(util.FormatPct(*c)) + " " +
			components.CostGauge(p, *c, v.opts.TargetCostPct, 22) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(p.SectionStyle().Render("LINES"))
	b.WriteString("\n")
	if len(res.Lines) == 0 {
		b.WriteString(p.MutedStyle().Render("No lines."))
		b.WriteString("\n")
	} else {
		b.WriteString(v.linesTable(res.Lines).Render(width))
	}

	b.WriteString("\n")
	b.WriteString(p.LabelStyle().Render("Up/Down:Recipe  Esc:Back"))
	return b.String()
}

func (v *View) linesTable(lines []costing.LineCost) *components.Table {
	t := components.NewTable([]components.Column{
		{Title: "Input", MinWidth: 12, Weight: 3, Priority: 10},
		{Title: "Qty", MinWidth: 10, Weight: 1, Priority: 8, Align: lipgloss.Right},
		{Title: "As", MinWidth: 10, Weight: 1, Priority: 4, Align: lipgloss.Right},
		{Title: "Unit Cost", MinWidth: 14, Weight: 2, Priority: 6, Align: lipgloss.Right},
		{Title: "Cost", MinWidth: 10, Weight: 1, Priority: 9, Align: lipgloss.Right},
		{Title: "Note", MinWidth: 10, Weight: 2, Priority: 2},
	})
	t.SetPalette(v.opts.Palette)
	t.SetVisibleRows(len(lines))

	var total float64
	rows := make([][]string, len(lines))
	for i, l := range lines {
		name := l.InputName
		if l.InputKind == models.InputKindRecipe {
			name += " (prep)"
		}
		rows[i] = []string{
			name,
			fmt.Sprintf("%g %s", l.Quantity, l.QuantityUnit),
			fmt.Sprintf("%.4g %s", l.ConvertedQuantity(), l.CostUnit),
			util.FormatUnitCost(l.UnitCost, "", l.CostUnit, v.opts.MoneyDecimals),
			v.money(l.Cost),
			l.Note,
		}
		total += l.Cost
	}
	t.SetRows(rows)
	t.SetFooter("Total " + v.money(total))
	return t
}

// failurePath names the recipes a failure propagated through, innermost
// first, by code.
func (v *View) failurePath(err error) string {
	var ce *costing.Error
	if !errors.As(err, &ce) || len(ce.Path) < 2 || v.board == nil {
		return ""
	}
	codes := make(map[string]string, len(v.board.Recipes))
	for _, rc := range v.board.Recipes {
		codes[rc.Recipe.ID] = rc.Recipe.Code
	}
	names := make([]string, len(ce.Path))
	for i, id := range ce.Path {
		names[i] = id
		if c, ok := codes[id]; ok {
			names[i] = c
		}
	}
	return strings.Join(names, " → ")
}
