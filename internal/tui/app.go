package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/platecost/platecost/internal/config"
	"github.com/platecost/platecost/internal/services/costs"
	"github.com/platecost/platecost/internal/tui/views/board"
	"github.com/platecost/platecost/internal/tui/views/conversions"
	"github.com/platecost/platecost/internal/tui/views/ingredients"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// MaxContentWidth is the maximum width for content display
const MaxContentWidth = 120

// chromeLines is the height used by header, alert bar and footer.
const chromeLines = 6

// Module represents a view module in the application.
type Module string

const (
	ModuleBoard       Module = "board"
	ModuleIngredients Module = "ingredients"
	ModuleConversions Module = "conversions"
	ModuleHelp        Module = "help"

	moduleQuit Module = "quit"
)

// App is the main Bubble Tea application model.
type App struct {
	// Dependencies
	svc    *costs.Service
	config *config.Config

	// Views
	boardView      *board.View
	ingredientView *ingredients.View
	conversionView *conversions.View

	// UI state
	theme         *Theme
	keys          KeyMap
	width         int
	height        int
	contentWidth  int
	contentHeight int
	ready         bool
	quitting      bool
	showConfirm   bool

	// Current view
	currentModule  Module
	previousModule Module
	showDetail     bool // Show detail view instead of list
	costing        bool // A board load is in flight
	lastCosted     time.Time

	// Alerts
	alerts []Alert
}

// Alert represents a status message.
type Alert struct {
	Level   AlertLevel
	Message string
	Time    time.Time
}

// AlertLevel indicates the severity of an alert.
type AlertLevel int

const (
	AlertInfo AlertLevel = iota
	AlertWarning
	AlertCritical
)

type boardLoadedMsg struct {
	err error
}

type ingredientsLoadedMsg struct {
	err error
}

type ingredientDetailMsg struct {
	err error
}

type conversionsLoadedMsg struct {
	err error
}

// New creates a new App instance.
func New(svc *costs.Service, cfg *config.Config) *App {
	theme := NewTheme(cfg.Display.ColorScheme)
	palette := theme.Palette()

	boardView := board.New(svc, board.Options{
		Currency:      cfg.Kitchen.Currency,
		MoneyDecimals: cfg.Display.MoneyDecimals,
		TargetCostPct: cfg.Display.TargetCostPct,
		Palette:       palette,
	})
	ingredientView := ingredients.New(svc, ingredients.Options{
		Currency:      cfg.Kitchen.Currency,
		MoneyDecimals: cfg.Display.MoneyDecimals,
		Palette:       palette,
	})

	return &App{
		svc:            svc,
		config:         cfg,
		boardView:      boardView,
		ingredientView: ingredientView,
		conversionView: conversions.New(svc, palette),
		theme:          theme,
		keys:           DefaultKeyMap(),
		currentModule:  ModuleBoard,
		alerts:         []Alert{},
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	a.costing = true
	return tea.Batch(
		tea.EnterAltScreen,
		a.loadBoard(),
	)
}

// loadBoard runs a full costing pass.
func (a *App) loadBoard() tea.Cmd {
	return func() tea.Msg {
		err := a.boardView.Load(context.Background())
		return boardLoadedMsg{err: err}
	}
}

func (a *App) loadIngredients() tea.Cmd {
	return func() tea.Msg {
		err := a.ingredientView.Load(context.Background())
		return ingredientsLoadedMsg{err: err}
	}
}

func (a *App) loadIngredientDetail() tea.Cmd {
	return func() tea.Msg {
		err := a.ingredientView.LoadDetail(context.Background())
		return ingredientDetailMsg{err: err}
	}
}

func (a *App) loadConversions() tea.Cmd {
	return func() tea.Msg {
		err := a.conversionView.Load(context.Background())
		return conversionsLoadedMsg{err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.updateViewDimensions()
		return a, nil

	case boardLoadedMsg:
		a.costing = false
		if msg.err != nil {
			a.AddAlert(AlertCritical, "Costing failed: "+msg.err.Error())
			return a, nil
		}
		a.lastCosted = time.Now()
		if b := a.boardView.Board(); b != nil && b.Unavailable > 0 {
			a.AddAlert(AlertWarning, fmt.Sprintf("%d recipes could not be costed", b.Unavailable))
		}
		return a, nil

	case ingredientsLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load ingredients: "+msg.err.Error())
		}
		return a, nil

	case ingredientDetailMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load units: "+msg.err.Error())
		}
		return a, nil

	case conversionsLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load units: "+msg.err.Error())
			return a, nil
		}
		if n := len(a.conversionView.Conflicts()); n > 0 {
			a.AddAlert(AlertWarning, fmt.Sprintf("%d conflicting conversion paths", n))
		}
		return a, nil
	}

	return a, nil
}

// updateViewDimensions recomputes the content area after a resize.
func (a *App) updateViewDimensions() {
	a.contentWidth = ContentWidth(a.width, 40, MaxContentWidth)
	a.contentHeight = ContentHeight(a.height, chromeLines)
}

// handleKeyPress processes key press events.
func (a *App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle quit confirmation first (modal takes priority)
	if a.showConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			a.quitting = true
			return a, tea.Quit
		case "n", "N", "esc":
			a.showConfirm = false
			return a, nil
		}
		return a, nil
	}

	if a.keys.IsQuit(msg) {
		a.showConfirm = true
		return a, nil
	}

	// Function key navigation (always available)
	if a.keys.IsFunctionKey(msg) {
		return a, a.switchModule(a.keys.GetFunctionKeyModule(msg))
	}

	// The conversion form takes every other key, esc included.
	if a.currentModule == ModuleConversions {
		a.conversionView.HandleKey(context.Background(), msg.String())
		return a, nil
	}

	// Back navigation
	if a.keys.Back.Matches(msg) {
		if a.showDetail {
			a.showDetail = false
			return a, nil
		}
		if a.currentModule == ModuleHelp && a.previousModule != "" {
			a.currentModule = a.previousModule
			a.previousModule = ""
		}
		return a, nil
	}

	switch a.currentModule {
	case ModuleBoard:
		return a.handleBoardKeys(msg)
	case ModuleIngredients:
		return a.handleIngredientKeys(msg)
	}
	return a, nil
}

// switchModule activates module and returns the command that loads it.
func (a *App) switchModule(module Module) tea.Cmd {
	switch module {
	case moduleQuit:
		a.showConfirm = true
		return nil
	case ModuleHelp:
		if a.currentModule != ModuleHelp {
			a.previousModule = a.currentModule
		}
		a.currentModule = ModuleHelp
		return nil
	case "":
		return nil
	}

	a.currentModule = module
	a.showDetail = false
	switch module {
	case ModuleBoard:
		if a.boardView.Board() == nil && !a.costing {
			a.costing = true
			return a.loadBoard()
		}
	case ModuleIngredients:
		return a.loadIngredients()
	case ModuleConversions:
		return a.loadConversions()
	}
	return nil
}

// handleBoardKeys handles key presses on the cost board.
func (a *App) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case a.keys.Up.Matches(msg):
		a.boardView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.boardView.MoveDown()
	case a.showDetail:
		// Only recipe navigation applies to the line breakdown.
	case a.keys.PageUp.Matches(msg):
		a.boardView.PageUp()
	case a.keys.PageDown.Matches(msg):
		a.boardView.PageDown()
	case a.keys.Select.Matches(msg):
		if a.boardView.Selected() != nil {
			a.showDetail = true
		}
	case a.keys.Filter.Matches(msg):
		a.boardView.CycleFilter()
	case a.keys.Recost.Matches(msg):
		if !a.costing {
			a.costing = true
			return a, a.loadBoard()
		}
	}
	return a, nil
}

// handleIngredientKeys handles key presses in the ingredient list.
func (a *App) handleIngredientKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showDetail {
		return a, nil
	}

	switch {
	case a.keys.Up.Matches(msg):
		a.ingredientView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.ingredientView.MoveDown()
	case a.keys.PageUp.Matches(msg):
		a.ingredientView.PageUp()
	case a.keys.PageDown.Matches(msg):
		a.ingredientView.PageDown()
	case a.keys.Select.Matches(msg):
		if a.ingredientView.Selected() != nil {
			a.showDetail = true
			return a, a.loadIngredientDetail()
		}
	case a.keys.Recost.Matches(msg):
		return a, a.loadIngredients()
	}
	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initializing..."
	}

	if a.quitting {
		return a.theme.Title.Render("platecost shutting down...")
	}

	var b strings.Builder

	// Header
	b.WriteString(a.renderHeader())
	b.WriteString("\n")

	// Alert bar
	b.WriteString(a.renderAlertBar())
	b.WriteString("\n")

	// Main content area
	if a.showConfirm {
		b.WriteString(a.renderConfirmDialog(a.contentHeight))
	} else {
		b.WriteString(a.renderContent(a.contentHeight))
	}

	// Footer/status bar
	b.WriteString("\n")
	b.WriteString(a.renderFooter())

	return b.String()
}

// renderHeader renders the top header bar.
func (a *App) renderHeader() string {
	title := fmt.Sprintf("PLATECOST v%s", Version)

	k := a.config.Kitchen
	info := fmt.Sprintf("%s | %s | %s", k.Name, k.TenantID, k.Currency)
	if GetBreakpoint(a.width) == BreakpointNarrow {
		info = Truncate(k.Name, a.width-lipgloss.Width(title)-3)
	}

	spacing := a.width - lipgloss.Width(title) - lipgloss.Width(info) - 2
	if spacing < 1 {
		spacing = 1
	}

	header := a.theme.Header.Render(title) +
		strings.Repeat(" ", spacing) +
		a.theme.Header.Render(info)

	return header + "\n" + a.theme.DrawDoubleLine(a.width)
}

// renderAlertBar renders the board summary and the latest alert.
func (a *App) renderAlertBar() string {
	var summary string
	switch b := a.boardView.Board(); {
	case b == nil && a.costing:
		summary = a.theme.Muted.Render("Costing...")
	case b == nil:
		summary = a.theme.Muted.Render("Not costed")
	case b.Unavailable > 0:
		summary = a.theme.Value.Render(fmt.Sprintf("%d recipes", len(b.Recipes))) +
			a.theme.Muted.Render(" | ") +
			a.theme.AlertWarn.Render(fmt.Sprintf("%d cost unavailable", b.Unavailable))
	default:
		summary = a.theme.Value.Render(fmt.Sprintf("%d recipes", len(b.Recipes)))
	}

	var alertText string
	if len(a.alerts) > 0 {
		alert := a.alerts[0]
		switch alert.Level {
		case AlertCritical:
			alertText = a.theme.AlertCrit.Render("CRITICAL: " + alert.Message)
		case AlertWarning:
			alertText = a.theme.AlertWarn.Render("WARNING: " + alert.Message)
		default:
			alertText = a.theme.Alert.Render("INFO: " + alert.Message)
		}
	} else if !a.lastCosted.IsZero() {
		alertText = a.theme.Muted.Render("Costed at " + a.lastCosted.Format("15:04:05"))
	}

	if alertText == "" {
		return summary
	}
	return summary + a.theme.StatusDivider.Render() + alertText
}

// renderContent renders the main content area based on current module.
func (a *App) renderContent(height int) string {
	content := a.getModuleContent()

	// Center the content container within the terminal
	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Top)

	contentStyle := lipgloss.NewStyle().
		Width(a.contentWidth)

	return style.Render(contentStyle.Render(content))
}

// getModuleContent returns the content for the current module.
func (a *App) getModuleContent() string {
	switch a.currentModule {
	case ModuleBoard:
		if a.showDetail {
			return a.boardView.RenderDetail(a.boardView.Selected(), a.contentWidth)
		}
		return a.boardView.Render(a.contentWidth, a.contentHeight)
	case ModuleIngredients:
		if a.showDetail {
			return a.ingredientView.RenderDetail(a.ingredientView.Selected())
		}
		return a.ingredientView.Render(a.contentWidth, a.contentHeight)
	case ModuleConversions:
		return a.conversionView.Render(a.contentWidth)
	default:
		return a.renderHelp()
	}
}

// renderHelp renders the help screen.
func (a *App) renderHelp() string {
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("═══ HELP ═══"))
	b.WriteString("\n\n")

	list := func(title string, items [][2]string) string {
		var s strings.Builder
		s.WriteString(a.theme.Subtitle.Render(title))
		s.WriteString("\n")
		for _, item := range items {
			s.WriteString(a.theme.Primary.Render(fmt.Sprintf("  %-9s %s", item[0], item[1])))
			s.WriteString("\n")
		}
		return strings.TrimSuffix(s.String(), "\n")
	}

	nav := list("NAVIGATION", [][2]string{
		{"F1", "Help"},
		{"F2", "Cost board"},
		{"F3", "Ingredients"},
		{"F4", "Conversions"},
		{"F10", "Quit"},
	})
	controls := list("CONTROLS", [][2]string{
		{"Up/Down", "Select"},
		{"Enter", "Details"},
		{"Esc", "Back"},
		{"f", "Kind filter"},
		{"r", "Recost"},
		{"PgUp/Dn", "Page"},
	})

	width := a.contentWidth
	if width == 0 {
		width = MaxContentWidth
	}
	b.WriteString(SideBySide(nav, controls, width, 6))
	b.WriteString("\n\n")

	target := fmt.Sprintf("Recipes over %.1f%% food cost are flagged on the board.", a.config.Display.TargetCostPct)
	b.WriteString(a.theme.Panel("TARGET", target, width))
	b.WriteString("\n\n")

	b.WriteString(a.theme.Muted.Render("Press Esc to return"))

	return b.String()
}

// renderConfirmDialog renders the quit confirmation dialog.
func (a *App) renderConfirmDialog(height int) string {
	dialog := a.theme.Box.Render(
		a.theme.Title.Render("CONFIRM EXIT") + "\n\n" +
			a.theme.Base.Render("Are you sure you want to exit?") + "\n\n" +
			a.theme.Label.Render("[Y]es  [N]o"),
	)

	// Center the dialog
	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)

	return style.Render(dialog)
}

// renderFooter renders the bottom status bar.
func (a *App) renderFooter() string {
	separator := a.theme.DrawHorizontalLine(a.width)
	help := a.keys.StatusBarHelp()

	return separator + "\n" + a.theme.Footer.Render(help)
}

// AddAlert adds a new alert to the display.
func (a *App) AddAlert(level AlertLevel, message string) {
	a.alerts = append([]Alert{{
		Level:   level,
		Message: message,
		Time:    time.Now(),
	}}, a.alerts...)

	// Keep only last 10 alerts
	if len(a.alerts) > 10 {
		a.alerts = a.alerts[:10]
	}
}

// ClearAlerts removes all alerts.
func (a *App) ClearAlerts() {
	a.alerts = []Alert{}
}

// Run starts the TUI application.
func Run(ctx context.Context, svc *costs.Service, cfg *config.Config) error {
	app := New(svc, cfg)

	p := tea.NewProgram(app, tea.WithAltScreen())

	// Handle context cancellation
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}
