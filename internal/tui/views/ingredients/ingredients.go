// Package ingredients provides the ingredient unit cost view.
package ingredients

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/platecost/platecost/internal/costing"
	"github.com/platecost/platecost/internal/services/costs"
	"github.com/platecost/platecost/internal/tui/components"
	"github.com/platecost/platecost/internal/util"
)

// Source supplies ingredient unit costs and unit conversions.
type Source interface {
	IngredientCosts(ctx context.Context) ([]costs.IngredientCost, error)
	Units(ctx context.Context) ([]string, error)
	ResolveConversion(ctx context.Context, from, to string) (float64, error)
}

// Options control money formatting and colors.
type Options struct {
	Currency      string
	MoneyDecimals int32
	Palette       components.Palette
}

// UnitPrice is an ingredient's cost expressed in another unit.
type UnitPrice struct {
	Unit string
	Cost float64
}

// View lists active ingredients with their cost per base unit.
type View struct {
	source  Source
	opts    Options
	table   *components.Table
	items   []costs.IngredientCost
	codes   map[string]string
	prices  []UnitPrice
	loading bool
	err     error
}

// New creates an ingredient view over source.
func New(source Source, opts Options) *View {
	columns := []components.Column{
		{Title: "Code", MinWidth: 8, Weight: 1, Priority: 9},
		{Title: "Ingredient", MinWidth: 12, Weight: 3, Priority: 10},
		{Title: "Category", MinWidth: 10, Weight: 1, Priority: 2},
		{Title: "Package", MinWidth: 18, Weight: 2, Priority: 5},
		{Title: "Yield", Fixed: 7, Priority: 6, Align: lipgloss.Right},
		{Title: "Unit Cost", MinWidth: 16, Weight: 2, Priority: 8, Align: lipgloss.Right},
		{Title: "Note", MinWidth: 20, Weight: 2, Priority: 3},
	}

	table := components.NewTable(columns)
	table.SetPalette(opts.Palette)
	table.SetVisibleRows(20)
	table.Focus(true)

	return &View{
		source: source,
		opts:   opts,
		table:  table,
	}
}

// Load fetches every ingredient's unit cost.
func (v *View) Load(ctx context.Context) error {
	v.loading = true
	defer func() { v.loading = false }()

	items, err := v.source.IngredientCosts(ctx)
	if err != nil {
		v.err = err
		return err
	}
	v.err = nil
	v.items = items

	v.codes = make(map[string]string, len(items))
	for _, ic := range items {
		v.codes[ic.Ingredient.ID] = ic.Ingredient.Code
	}

	p := v.opts.Palette
	rows := make([][]string, len(items))
	unavailable := 0
	for i, ic := range items {
		rows[i] = v.row(ic)
		if ic.Err != nil {
			unavailable++
		}
	}
	v.table.SetRows(rows)
	for i, ic := range items {
		if ic.Err != nil {
			v.table.SetRowStyle(i, p.ErrorStyle())
		}
	}

	footer := fmt.Sprintf("%d ingredients", len(items))
	if unavailable > 0 {
		footer += fmt.Sprintf(" | %d cost unavailable", unavailable)
	}
	v.table.SetFooter(footer)
	return nil
}

func (v *View) row(ic costs.IngredientCost) []string {
	ing := ic.Ingredient
	category := ing.Category
	if category == "" {
		category = "-"
	}
	pkg := fmt.Sprintf("%g %s @ %s", ing.PackageQuantity, ing.PackageUnit, v.money(ing.PackageCost))
	yield := util.FormatPct(ing.YieldPct)

	if ic.Err != nil {
		return []string{ing.Code, ing.Name, category, pkg, yield, "unavailable", "cost unavailable: " + v.reason(ic.Err)}
	}
	return []string{
		ing.Code,
		ing.Name,
		category,
		pkg,
		yield,
		util.FormatUnitCost(ic.UnitCost, v.opts.Currency, ing.BaseUnit, v.opts.MoneyDecimals),
		"",
	}
}

func (v *View) reason(err error) string {
	return costing.Describe(err, func(id string) string {
		if code, ok := v.codes[id]; ok {
			return code
		}
		return id
	})
}

func (v *View) money(x float64) string {
	return util.FormatMoney(x, v.opts.Currency, v.opts.MoneyDecimals)
}

// LoadDetail prices the selected ingredient in every unit its base unit
// converts from.
func (v *View) LoadDetail(ctx context.Context) error {
	v.prices = nil
	ic := v.Selected()
	if ic == nil || ic.Err != nil {
		return nil
	}

	units, err := v.source.Units(ctx)
	if err != nil {
		return err
	}
	base := ic.Ingredient.BaseUnit
	for _, u := range units {
		if u == base {
			continue
		}
		f, err := v.source.ResolveConversion(ctx, u, base)
		if err != nil {
			continue
		}
		v.prices = append(v.prices, UnitPrice{Unit: u, Cost: ic.UnitCost * f})
	}
	return nil
}

// Prices returns what LoadDetail computed for the selected ingredient.
func (v *View) Prices() []UnitPrice {
	return v.prices
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

// Selected returns the highlighted ingredient, or nil.
func (v *View) Selected() *costs.IngredientCost {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.items) {
		return &v.items[idx]
	}
	return nil
}

// Render renders the ingredient list in a width x height area.
func (v *View) Render(width, height int) string {
	p := v.opts.Palette
	if height > 0 {
		v.table.SetVisibleRows(height - 9)
	}

	var b strings.Builder
	b.WriteString(p.TitleStyle().Render("═══ INGREDIENTS ═══"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(p.ErrorStyle().Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	switch {
	case v.loading:
		b.WriteString(p.LabelStyle().Render("Loading..."))
		b.WriteString("\n")
	case v.table.Empty():
		b.WriteString(p.LabelStyle().Render("No ingredients found."))
		b.WriteString("\n")
	default:
		b.WriteString(v.table.Render(width))
	}

	b.WriteString("\n")
	if width < 60 {
		b.WriteString(p.LabelStyle().Render("↑↓:Sel Enter:Units"))
	} else {
		b.WriteString(p.LabelStyle().Render("Up/Down:Select  Enter:Cost per unit  PgUp/Dn:Page"))
	}
	return b.String()
}

// RenderDetail renders the selected ingredient with its cost in other
// units.
func (v *View) RenderDetail(ic *costs.IngredientCost) string {
	p := v.opts.Palette
	label := p.LabelStyle().Width(18)
	value := p.ValueStyle()

	if ic == nil {
		return p.LabelStyle().Render("No ingredient selected")
	}
	ing := ic.Ingredient

	var b strings.Builder
	b.WriteString(p.TitleStyle().Render(fmt.Sprintf("═══ %s · %s ═══", ing.Code, ing.Name)))
	b.WriteString("\n\n")

	field := func(name, val string) {
		b.WriteString(label.Render(name+":") + " " + value.Render(val) + "\n")
	}
	if ing.Category != "" {
		field("Category", ing.Category)
	}
	field("Package", fmt.Sprintf("%g %s", ing.PackageQuantity, ing.PackageUnit))
	field("Package Cost", v.money(ing.PackageCost))
	field("Yield", util.FormatPct(ing.YieldPct))
	field("Base Unit", ing.BaseUnit)

	if ic.Err != nil {
		b.WriteString("\n")
		b.WriteString(p.ErrorStyle().Render("cost unavailable: " + v.reason(ic.Err)))
		b.WriteString("\n\n")
		b.WriteString(p.LabelStyle().Render("Esc:Back"))
		return b.String()
	}

	field("Unit Cost", util.FormatUnitCost(ic.UnitCost, v.opts.Currency, ing.BaseUnit, v.opts.MoneyDecimals))
	b.WriteString("\n")

	b.WriteString(p.SectionStyle().Render("COST PER UNIT"))
	b.WriteString("\n")
	if len(v.prices) == 0 {
		b.WriteString(p.MutedStyle().Render("No other units convert to " + ing.BaseUnit + "."))
		b.WriteString("\n")
	}
	for _, up := range v.prices {
		b.WriteString(label.Render("  per "+up.Unit) + " " +
			value.Render(util.FormatUnitCost(up.Cost, v.opts.Currency, up.Unit, v.opts.MoneyDecimals)) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(p.LabelStyle().Render("Esc:Back"))
	return b.String()
}
