package tui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
)

// newE2EApp creates an App for end-to-end testing via teatest.
// Unlike newTestApp, this does NOT pre-configure width/height/ready or run
// the first costing pass: teatest sends WindowSizeMsg and Init loads the
// board.
func newE2EApp(t *testing.T) *App {
	t.Helper()

	svc, cfg := newDemoService(t)
	return New(svc, cfg)
}

// waitFor is a convenience wrapper around teatest.WaitFor with a standard timeout.
func waitFor(t *testing.T, tm *teatest.TestModel, text string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte(text))
	}, teatest.WithDuration(5*time.Second))
}

// --- End-to-end tests ---
// These launch the real Bubble Tea program in a headless virtual terminal,
// send actual keystrokes, and assert on the rendered screen output.

func TestE2E_BoardOnStartup(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("COST BOARD")) &&
			bytes.Contains(bts, []byte("MARGHERITA")) &&
			bytes.Contains(bts, []byte("6 recipes"))
	}, teatest.WithDuration(5*time.Second))
}

func TestE2E_NavigateToIngredients(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	waitFor(t, tm, "COST BOARD")

	tm.Send(tea.KeyMsg{Type: tea.KeyF3})
	waitFor(t, tm, "FLOUR-00")
}

func TestE2E_NavigateToConversions(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	tm.Send(tea.KeyMsg{Type: tea.KeyF4})
	waitFor(t, tm, "UNIT CONVERSION")
}

func TestE2E_HelpScreenAndBack(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	waitFor(t, tm, "COST BOARD")

	// F1 → Help
	tm.Send(tea.KeyMsg{Type: tea.KeyF1})
	waitFor(t, tm, "NAVIGATION")

	// Esc → Back to the board
	tm.Send(tea.KeyMsg{Type: tea.KeyEscape})
	waitFor(t, tm, "COST BOARD")
}

func TestE2E_LineBreakdown(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	waitFor(t, tm, "6 recipes")

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("LINES")) &&
			bytes.Contains(bts, []byte("Total Cost"))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyEscape})
	waitFor(t, tm, "Enter:Line breakdown")
}

func TestE2E_KindFilter(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	waitFor(t, tm, "6 recipes")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	waitFor(t, tm, "showing service")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	waitFor(t, tm, "showing prep")
}

func TestE2E_ConvertQuantity(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	tm.Send(tea.KeyMsg{Type: tea.KeyF4})
	waitFor(t, tm, "RESULTS")

	// dozen -> g is unresolvable; move From to g and To to kg.
	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	tm.Send(tea.KeyMsg{Type: tea.KeyRight})
	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	tm.Send(tea.KeyMsg{Type: tea.KeyRight})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	waitFor(t, tm, "1 g = 0.001 kg")
}

func TestE2E_QuitFlow(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t),
		teatest.WithInitialTermSize(120, 40))

	waitFor(t, tm, "COST BOARD")

	// Press q → confirm dialog
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	waitFor(t, tm, "CONFIRM EXIT")

	// Press y → quit
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})

	// Program should terminate; verify final model state
	m := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	app, ok := m.(*App)
	if !ok {
		t.Fatal("expected *App final model")
	}
	if !app.quitting {
		t.Error("expected app to be quitting")
	}
}

func TestE2E_QuitCancel(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	waitFor(t, tm, "COST BOARD")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	waitFor(t, tm, "CONFIRM EXIT")

	// Press n → cancel
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})

	// Verify app is still responsive by navigating to another module
	tm.Send(tea.KeyMsg{Type: tea.KeyF3})
	waitFor(t, tm, "INGREDIENTS")
}

func TestE2E_FullNavigationRoundTrip(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	waitFor(t, tm, "COST BOARD")

	tm.Send(tea.KeyMsg{Type: tea.KeyF3})
	waitFor(t, tm, "INGREDIENTS")

	tm.Send(tea.KeyMsg{Type: tea.KeyF4})
	waitFor(t, tm, "UNIT CONVERSION")

	tm.Send(tea.KeyMsg{Type: tea.KeyF1})
	waitFor(t, tm, "NAVIGATION")

	// F2 → back to the board
	tm.Send(tea.KeyMsg{Type: tea.KeyF2})
	waitFor(t, tm, "Enter:Line breakdown")
}

func TestE2E_NarrowTerminal(t *testing.T) {
	// A phone SSH session at the pass
	tm := teatest.NewTestModel(t, newE2EApp(t),
		teatest.WithInitialTermSize(50, 24))
	t.Cleanup(func() { tm.Quit() })

	waitFor(t, tm, "COST BOARD")
	waitFor(t, tm, "f:Kind r:Recost")
}

func TestE2E_StatusBarShowsKeyBindings(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("[F1]Help")) &&
			bytes.Contains(bts, []byte("[F2]Board")) &&
			bytes.Contains(bts, []byte("[F4]Conversions"))
	}, teatest.WithDuration(5*time.Second))
}
