// Package conversions provides the unit conversion preview.
package conversions

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/platecost/platecost/internal/costing"
	"github.com/platecost/platecost/internal/costing/uom"
	"github.com/platecost/platecost/internal/tui/components"
	"github.com/platecost/platecost/internal/util"
)

const maxHistory = 5

// Source resolves conversions against the tenant's unit graph.
type Source interface {
	Units(ctx context.Context) ([]string, error)
	ResolveConversion(ctx context.Context, from, to string) (float64, error)
	AuditConversions(ctx context.Context) ([]uom.Conflict, error)
}

// View is a small form that converts a quantity between two units and
// lists conversion paths that disagree.
type View struct {
	source    Source
	palette   components.Palette
	form      *components.Form
	quantity  *components.Input
	from      *components.Select
	to        *components.Select
	units     []string
	history   []string
	conflicts []uom.Conflict
	err       error
}

// New creates a conversion view over source.
func New(source Source, palette components.Palette) *View {
	v := &View{
		source:  source,
		palette: palette,
	}

	v.quantity = components.NewInput("Quantity").
		SetNumeric(true).
		SetRequired(true).
		SetWidth(12).
		SetMaxLength(12).
		SetValue("1")
	v.from = components.NewSelect("From", nil)
	v.to = components.NewSelect("To", nil)

	v.form = components.NewForm("UNIT CONVERSION").
		SetHelp("Tab/Down:Next  Left/Right:Unit  Enter:Convert  Esc:Clear",
			"Tab:Next ←→:Unit Enter:Go")
	v.form.SetPalette(palette)
	v.form.AddField(v.quantity).AddField(v.from).AddField(v.to)
	return v
}

// Load refreshes the unit pickers and the conflict audit.
func (v *View) Load(ctx context.Context) error {
	units, err := v.source.Units(ctx)
	if err != nil {
		v.err = err
		return err
	}
	first := len(v.units) == 0
	v.units = units
	v.from.SetOptions(units)
	v.to.SetOptions(units)
	if first && len(units) > 1 {
		v.to.SetSelected(1)
	}

	conflicts, err := v.source.AuditConversions(ctx)
	if err != nil {
		v.err = err
		return err
	}
	v.conflicts = conflicts
	v.err = nil
	return nil
}

// HandleKey feeds a key to the form and converts on submit.
func (v *View) HandleKey(ctx context.Context, key string) {
	v.form.HandleKey(key)

	switch {
	case v.form.IsSubmitted():
		v.convert(ctx)
		v.form.Rearm()
	case v.form.IsCancelled():
		v.quantity.SetValue("1")
		v.form.SetError("")
		v.history = nil
		v.form.Rearm()
	}
}

func (v *View) convert(ctx context.Context) {
	if !v.quantity.Validate() {
		v.form.SetError("quantity must be a number")
		return
	}
	qty, err := v.quantity.Float()
	if err != nil {
		v.form.SetError(err.Error())
		return
	}
	from, to := v.from.Value(), v.to.Value()
	if from == "" || to == "" {
		v.form.SetError("no units defined")
		return
	}

	factor, err := v.source.ResolveConversion(ctx, from, to)
	if err != nil {
		v.form.SetError(costing.Reason(err))
		return
	}
	v.form.SetError("")

	line := fmt.Sprintf("%s %s = %s %s", formatQty(qty), from, formatQty(qty*factor), to)
	v.history = append([]string{line}, v.history...)
	if len(v.history) > maxHistory {
		v.history = v.history[:maxHistory]
	}
}

func formatQty(q float64) string {
	return strconv.FormatFloat(util.RoundMoney(q, 6), 'f', -1, 64)
}

// Last returns the most recent conversion, or "".
func (v *View) Last() string {
	if len(v.history) == 0 {
		return ""
	}
	return v.history[0]
}

// Conflicts returns the unit pairs found by the last audit.
func (v *View) Conflicts() []uom.Conflict {
	return v.conflicts
}

// Render renders the form, recent results and the audit.
func (v *View) Render(width int) string {
	p := v.palette

	var b strings.Builder
	if v.err != nil {
		b.WriteString(p.ErrorStyle().Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}
	if len(v.units) == 0 && v.err == nil {
		b.WriteString(p.TitleStyle().Render("═══ UNIT CONVERSION ═══"))
		b.WriteString("\n\n")
		b.WriteString(p.LabelStyle().Render("No units defined."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(v.form.RenderResponsive(width))
	b.WriteString("\n\n")

	b.WriteString(p.SectionStyle().Render("RESULTS"))
	b.WriteString("\n")
	if len(v.history) == 0 {
		b.WriteString(p.MutedStyle().Render("Enter a quantity and press Enter."))
		b.WriteString("\n")
	}
	for i, line := range v.history {
		style := p.MutedStyle()
		if i == 0 {
			style = p.SuccessStyle()
		}
		b.WriteString(style.Render("  " + line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(p.SectionStyle().Render("AUDIT"))
	b.WriteString("\n")
	if len(v.conflicts) == 0 {
		b.WriteString(p.SuccessStyle().Render("  No conflicting conversion paths."))
		b.WriteString("\n")
	}
	for _, c := range v.conflicts {
		b.WriteString(p.WarningStyle().Render(fmt.Sprintf("  %s → %s: %g vs %g", c.From, c.To, c.First, c.Second)))
		b.WriteString("\n")
	}
	return b.String()
}
