package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/platecost/platecost/internal/repository"
)

// ErrAlreadySeeded is returned when the tenant already has kitchen data.
var ErrAlreadySeeded = errors.New("tenant already has kitchen data")

// Result counts what a load stored.
type Result struct {
	Conversions int
	Ingredients int
	Recipes     int
	Lines       int
}

// Loader writes kitchen files into the SQLite store.
type Loader struct {
	db          *sql.DB
	tenantID    string
	ingredients *repository.IngredientRepository
	recipes     *repository.RecipeRepository
	conversions *repository.UomRepository
}

// NewLoader creates a loader for tenantID.
func NewLoader(db *sql.DB, tenantID string) *Loader {
	return &Loader{
		db:          db,
		tenantID:    tenantID,
		ingredients: repository.NewIngredientRepository(db),
		recipes:     repository.NewRecipeRepository(db),
		conversions: repository.NewUomRepository(db),
	}
}

// LoadFile parses and loads the kitchen file at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening kitchen file: %w", err)
	}
	defer f.Close()

	k, err := Parse(f)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, k)
}

// Load stores k in one transaction. It refuses to run when the tenant
// already has ingredients or recipes.
func (l *Loader) Load(ctx context.Context, k *Kitchen) (*Result, error) {
	snap, err := k.Snapshot(l.tenantID)
	if err != nil {
		return nil, fmt.Errorf("invalid kitchen file: %w", err)
	}

	var existing int
	err = l.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM ingredients WHERE tenant_id = ?)
		     + (SELECT COUNT(*) FROM recipes WHERE tenant_id = ?)`,
		l.tenantID, l.tenantID,
	).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("checking existing data: %w", err)
	}
	if existing > 0 {
		slog.Warn("kitchen data already present, skipping seed", "tenant", l.tenantID, "rows", existing)
		return nil, ErrAlreadySeeded
	}

	slog.Info("loading kitchen data",
		"tenant", l.tenantID,
		"ingredients", len(snap.Ingredients),
		"recipes", len(snap.Recipes),
	)

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res := &Result{}
	for i := range snap.Conversions {
		if err := l.conversions.Upsert(ctx, tx, &snap.Conversions[i]); err != nil {
			return nil, fmt.Errorf("conversion %s->%s: %w", snap.Conversions[i].FromUnit, snap.Conversions[i].ToUnit, err)
		}
		res.Conversions++
	}
	for i := range snap.Ingredients {
		if err := l.ingredients.Create(ctx, tx, &snap.Ingredients[i]); err != nil {
			return nil, fmt.Errorf("ingredient %s: %w", snap.Ingredients[i].Code, err)
		}
		res.Ingredients++
	}
	for i := range snap.Recipes {
		if err := l.recipes.Create(ctx, tx, &snap.Recipes[i]); err != nil {
			return nil, fmt.Errorf("recipe %s: %w", snap.Recipes[i].Code, err)
		}
		res.Recipes++
	}
	for i := range snap.Lines {
		if err := l.recipes.CreateLine(ctx, tx, &snap.Lines[i]); err != nil {
			return nil, fmt.Errorf("recipe line: %w", err)
		}
		res.Lines++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing kitchen data: %w", err)
	}

	slog.Info("kitchen data loaded",
		"tenant", l.tenantID,
		"conversions", res.Conversions,
		"lines", res.Lines,
	)
	return res, nil
}
