package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/platecost/platecost/internal/config"
	"github.com/platecost/platecost/internal/database/seed"
	"github.com/platecost/platecost/internal/services/costs"
	"github.com/platecost/platecost/internal/testutil"
)

// newDemoService returns a costing service over an in-memory database
// loaded with the demo kitchen.
func newDemoService(t *testing.T) (*costs.Service, *config.Config) {
	t.Helper()

	db := testutil.NewKitchenDB(t)
	t.Cleanup(func() { db.Close(t) })

	if _, err := seed.NewLoader(db.DB, testutil.FixtureTenant).Load(context.Background(), seed.Demo()); err != nil {
		t.Fatalf("loading demo kitchen: %v", err)
	}

	cfg := config.Default()
	cfg.Kitchen.TenantID = testutil.FixtureTenant
	cfg.Kitchen.Name = "Pizzeria Test"

	return costs.NewService(db.DB, cfg), cfg
}

// newTestApp creates an App over the demo kitchen. The window is set to
// 120x40 and marked ready, and the first costing pass has run.
func newTestApp(t *testing.T) *App {
	t.Helper()

	svc, cfg := newDemoService(t)
	app := New(svc, cfg)

	// Simulate a window size message to make the app ready
	app.width = 120
	app.height = 40
	app.ready = true
	app.updateViewDimensions()

	app.costing = true
	runCmd(app, app.loadBoard())

	return app
}

// runCmd executes cmd synchronously and feeds its message back to the app.
func runCmd(app *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	app.Update(cmd())
}

// keyMsg creates a tea.KeyMsg for a regular character key.
func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// specialKeyMsg creates a tea.KeyMsg for a special key type.
func specialKeyMsg(keyType tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: keyType}
}

// press sends each key and runs any command it returns.
func press(app *App, msgs ...tea.KeyMsg) {
	for _, m := range msgs {
		_, cmd := app.Update(m)
		runCmd(app, cmd)
	}
}
