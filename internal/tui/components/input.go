package components

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
)

// Input is a single-line text input.
type Input struct {
	label       string
	value       []rune
	placeholder string
	width       int
	focused     bool
	cursorPos   int
	maxLength   int
	required    bool
	numeric     bool
	err         string
	palette     Palette
}

// NewInput creates a new input field.
func NewInput(label string) *Input {
	return &Input{
		label:     label,
		width:     20,
		maxLength: 100,
		palette:   DefaultPalette(),
	}
}

// SetValue sets the input value.
func (i *Input) SetValue(v string) *Input {
	i.value = []rune(v)
	i.cursorPos = len(i.value)
	return i
}

// SetPlaceholder sets the placeholder text.
func (i *Input) SetPlaceholder(p string) *Input {
	i.placeholder = p
	return i
}

// SetWidth sets the input width.
func (i *Input) SetWidth(w int) *Input {
	i.width = w
	return i
}

// SetMaxLength sets the maximum input length.
func (i *Input) SetMaxLength(m int) *Input {
	i.maxLength = m
	return i
}

// SetRequired marks the field as required.
func (i *Input) SetRequired(r bool) *Input {
	i.required = r
	return i
}

// SetNumeric restricts typing to a non-negative decimal number.
func (i *Input) SetNumeric(n bool) *Input {
	i.numeric = n
	return i
}

// SetError sets an error message.
func (i *Input) SetError(e string) *Input {
	i.err = e
	return i
}

// SetPalette sets the colors the input renders with.
func (i *Input) SetPalette(p Palette) {
	i.palette = p
}

// Focus sets the focus state.
func (i *Input) Focus(focused bool) {
	i.focused = focused
	if focused && i.cursorPos > len(i.value) {
		i.cursorPos = len(i.value)
	}
}

// IsFocused returns the focus state.
func (i *Input) IsFocused() bool {
	return i.focused
}

// Value returns the current value.
func (i *Input) Value() string {
	return string(i.value)
}

// Float parses the value as a number.
func (i *Input) Float() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(i.Value()), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", i.label)
	}
	return v, nil
}

// HandleKey handles a key press.
func (i *Input) HandleKey(key string) {
	if !i.focused {
		return
	}

	switch key {
	case "backspace":
		if i.cursorPos > 0 {
			i.value = append(i.value[:i.cursorPos-1], i.value[i.cursorPos:]...)
			i.cursorPos--
		}
	case "delete":
		if i.cursorPos < len(i.value) {
			i.value = append(i.value[:i.cursorPos], i.value[i.cursorPos+1:]...)
		}
	case "left":
		if i.cursorPos > 0 {
			i.cursorPos--
		}
	case "right":
		if i.cursorPos < len(i.value) {
			i.cursorPos++
		}
	case "home", "ctrl+a":
		i.cursorPos = 0
	case "end", "ctrl+e":
		i.cursorPos = len(i.value)
	default:
		r := []rune(key)
		if len(r) != 1 || len(i.value) >= i.maxLength || !i.accepts(r[0]) {
			return
		}
		i.value = append(i.value[:i.cursorPos], append([]rune{r[0]}, i.value[i.cursorPos:]...)...)
		i.cursorPos++
	}
}

func (i *Input) accepts(r rune) bool {
	if !i.numeric {
		return unicode.IsPrint(r)
	}
	if r == '.' {
		return !strings.ContainsRune(string(i.value), '.')
	}
	return unicode.IsDigit(r)
}

// Validate validates the input.
func (i *Input) Validate() bool {
	if i.required && strings.TrimSpace(i.Value()) == "" {
		i.err = "Required"
		return false
	}
	if i.numeric && i.Value() != "" {
		if _, err := i.Float(); err != nil {
			i.err = "Not a number"
			return false
		}
	}
	i.err = ""
	return true
}

// Render renders the input with the default label width.
func (i *Input) Render() string {
	return i.RenderWithLabelWidth(16)
}

// RenderWithLabelWidth renders the input; a zero labelWidth hides the label.
func (i *Input) RenderWithLabelWidth(labelWidth int) string {
	p := i.palette

	var display string
	switch {
	case len(i.value) == 0 && i.placeholder != "" && !i.focused:
		display = p.MutedStyle().Render(i.placeholder)
	case i.focused:
		before := string(i.value[:i.cursorPos])
		after := string(i.value[i.cursorPos:])
		display = lipgloss.NewStyle().Foreground(p.Accent).Render(before + "_" + after)
	default:
		display = p.ValueStyle().Render(i.Value())
	}
	if w := lipgloss.Width(display); w < i.width {
		display += strings.Repeat(" ", i.width-w)
	}

	result := display
	if labelWidth > 0 {
		label := i.label
		if i.required {
			label += "*"
		}
		result = p.LabelStyle().Width(labelWidth).Render(label+":") + " " + display
	}

	if i.err != "" {
		result += " " + p.ErrorStyle().Render(i.err)
	}
	return result
}

// Select is a selection input component.
type Select struct {
	label    string
	options  []string
	selected int
	focused  bool
	palette  Palette
}

// NewSelect creates a new select input.
func NewSelect(label string, options []string) *Select {
	return &Select{
		label:   label,
		options: options,
		palette: DefaultPalette(),
	}
}

// SetOptions replaces the options, keeping the current value if present.
func (s *Select) SetOptions(options []string) *Select {
	current := s.Value()
	s.options = options
	s.selected = 0
	s.SetValue(current)
	return s
}

// SetSelected sets the selected index.
func (s *Select) SetSelected(idx int) *Select {
	if idx >= 0 && idx < len(s.options) {
		s.selected = idx
	}
	return s
}

// SetValue selects the option equal to v, if any.
func (s *Select) SetValue(v string) *Select {
	for idx, opt := range s.options {
		if opt == v {
			s.selected = idx
			break
		}
	}
	return s
}

// SetPalette sets the colors the select renders with.
func (s *Select) SetPalette(p Palette) {
	s.palette = p
}

// Focus sets the focus state.
func (s *Select) Focus(focused bool) {
	s.focused = focused
}

// IsFocused returns the focus state.
func (s *Select) IsFocused() bool {
	return s.focused
}

// Value returns the selected value.
func (s *Select) Value() string {
	if s.selected >= 0 && s.selected < len(s.options) {
		return s.options[s.selected]
	}
	return ""
}

// SelectedIndex returns the selected index.
func (s *Select) SelectedIndex() int {
	return s.selected
}

// HandleKey handles a key press.
func (s *Select) HandleKey(key string) {
	if !s.focused {
		return
	}

	switch key {
	case "left", "h":
		if s.selected > 0 {
			s.selected--
		}
	case "right", "l":
		if s.selected < len(s.options)-1 {
			s.selected++
		}
	}
}

// Render renders the select with the default label width.
func (s *Select) Render() string {
	return s.RenderWithLabelWidth(16)
}

// RenderWithLabelWidth renders the select. Long option lists show a window
// around the selection.
func (s *Select) RenderWithLabelWidth(labelWidth int) string {
	p := s.palette
	optStyle := p.LabelStyle()
	selStyle := p.ValueStyle().Bold(true)

	var b strings.Builder
	if labelWidth > 0 {
		b.WriteString(p.LabelStyle().Width(labelWidth).Render(s.label + ":"))
		b.WriteString(" ")
	}

	const window = 7
	start, end := 0, len(s.options)
	if len(s.options) > window {
		start = s.selected - window/2
		if start < 0 {
			start = 0
		}
		end = start + window
		if end > len(s.options) {
			end = len(s.options)
			start = end - window
		}
	}

	if start > 0 {
		b.WriteString(p.MutedStyle().Render("‹ "))
	}
	for i := start; i < end; i++ {
		if i > start {
			b.WriteString(" ")
		}
		opt := s.options[i]
		switch {
		case i == s.selected && s.focused:
			b.WriteString(selStyle.Render("[" + opt + "]"))
		case i == s.selected:
			b.WriteString(selStyle.Render("(" + opt + ")"))
		default:
			b.WriteString(optStyle.Render(" " + opt + " "))
		}
	}
	if end < len(s.options) {
		b.WriteString(p.MutedStyle().Render(" ›"))
	}

	return b.String()
}

// FormField is a component a Form can hold.
type FormField interface {
	Focus(bool)
	IsFocused() bool
	HandleKey(string)
	Render() string
	RenderWithLabelWidth(int) string
	SetPalette(Palette)
}

var (
	_ FormField = (*Input)(nil)
	_ FormField = (*Select)(nil)
)

// Form is a vertical list of fields with keyboard focus.
type Form struct {
	title      string
	help       string
	shortHelp  string
	fields     []FormField
	focusIndex int
	submitted  bool
	cancelled  bool
	err        string
	palette    Palette
}

// NewForm creates a new form.
func NewForm(title string) *Form {
	return &Form{
		title:     title,
		help:      "Tab/Down:Next  Shift+Tab/Up:Prev  Enter:Submit  Esc:Cancel",
		shortHelp: "Tab:Next  Enter:Submit  Esc:Cancel",
		palette:   DefaultPalette(),
	}
}

// SetHelp replaces the key help shown under the fields, in full and
// compact form.
func (f *Form) SetHelp(help, short string) *Form {
	f.help = help
	f.shortHelp = short
	return f
}

// SetPalette sets the colors for the form and its fields.
func (f *Form) SetPalette(p Palette) {
	f.palette = p
	for _, field := range f.fields {
		field.SetPalette(p)
	}
}

// AddField adds a field to the form.
func (f *Form) AddField(field FormField) *Form {
	field.SetPalette(f.palette)
	f.fields = append(f.fields, field)
	if len(f.fields) == 1 {
		field.Focus(true)
	}
	return f
}

// HandleKey handles form navigation.
func (f *Form) HandleKey(key string) {
	switch key {
	case "tab", "down":
		f.nextField()
	case "shift+tab", "up":
		f.prevField()
	case "ctrl+s":
		f.submitted = true
	case "esc":
		f.cancelled = true
	case "enter":
		if f.focusIndex == len(f.fields)-1 {
			f.submitted = true
		} else {
			f.nextField()
		}
	default:
		if f.focusIndex < len(f.fields) {
			f.fields[f.focusIndex].HandleKey(key)
		}
	}
}

func (f *Form) nextField() {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex = (f.focusIndex + 1) % len(f.fields)
	f.fields[f.focusIndex].Focus(true)
}

func (f *Form) prevField() {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex--
	if f.focusIndex < 0 {
		f.focusIndex = len(f.fields) - 1
	}
	f.fields[f.focusIndex].Focus(true)
}

// IsSubmitted returns true if form was submitted.
func (f *Form) IsSubmitted() bool {
	return f.submitted
}

// IsCancelled returns true if form was cancelled.
func (f *Form) IsCancelled() bool {
	return f.cancelled
}

// Rearm clears the submitted and cancelled flags so the form can be used
// again.
func (f *Form) Rearm() {
	f.submitted = false
	f.cancelled = false
}

// SetError sets an error message.
func (f *Form) SetError(err string) {
	f.err = err
}

// Render renders the form with the default label width.
func (f *Form) Render() string {
	return f.RenderResponsive(80)
}

// RenderResponsive renders the form with narrower labels and compact help
// on narrow terminals.
func (f *Form) RenderResponsive(width int) string {
	p := f.palette

	var b strings.Builder
	b.WriteString(p.TitleStyle().Render(fmt.Sprintf("═══ %s ═══", f.title)))
	b.WriteString("\n\n")

	narrow := width < 60
	labelWidth := 16
	if narrow {
		labelWidth = 10
	}
	for _, field := range f.fields {
		b.WriteString(field.RenderWithLabelWidth(labelWidth))
		b.WriteString("\n")
	}

	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(p.ErrorStyle().Render("Error: " + f.err))
		b.WriteString("\n")
	}

	help := f.help
	if narrow {
		help = f.shortHelp
	}
	b.WriteString("\n")
	b.WriteString(p.LabelStyle().Render(help))

	return b.String()
}
