// Package postgres loads costing snapshots from a hosted Postgres kitchen
// database. The store is read-only: it speaks the hosted schema
// (ingredients, recipes, recipe_lines, ref_uom_conversion) and maps it to
// the kitchen models.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platecost/platecost/internal/costing"
	"github.com/platecost/platecost/internal/models"
)

// PGStore reads tenant snapshots via pgx.
type PGStore struct {
	db *pgxpool.Pool
}

// New creates a new PGStore backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// Connect opens a pool for dsn and checks that it answers.
func Connect(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return New(pool), nil
}

// Close releases the pool.
func (s *PGStore) Close() {
	s.db.Close()
}

// HealthCheck verifies the pool answers.
func (s *PGStore) HealthCheck(ctx context.Context) error {
	return s.db.Ping(ctx)
}

const (
	ingredientsSQL = `
		SELECT id::text, tenant_id::text, ingredient_code, name,
			COALESCE(base_uom, ''), COALESCE(package_qty, 0), COALESCE(package_uom, ''),
			COALESCE(package_cost, 0), COALESCE(yield_pct, 100)
		FROM ingredients
		WHERE tenant_id = $1 AND lower(status) = 'active'
		ORDER BY ingredient_code`

	recipesSQL = `
		SELECT id::text, tenant_id::text, recipe_code, name, recipe_type,
			COALESCE(yield_qty, 0), COALESCE(yield_uom, ''), COALESCE(price, 0)
		FROM recipes
		WHERE tenant_id = $1 AND lower(status) = 'active'
		ORDER BY recipe_code`

	// ingredient_id holds either an ingredient or a prep recipe id.
	linesSQL = `
		SELECT l.id::text, l.recipe_id::text, l.ingredient_id::text,
			EXISTS (SELECT 1 FROM recipes s WHERE s.id = l.ingredient_id),
			COALESCE(l.qty, 0), COALESCE(l.qty_uom, ''), COALESCE(l.note, ''),
			(row_number() OVER (PARTITION BY l.recipe_id ORDER BY l.created_at, l.id))::int - 1
		FROM recipe_lines l
		JOIN recipes r ON r.id = l.recipe_id
		WHERE r.tenant_id = $1 AND lower(r.status) = 'active'`

	conversionsSQL = `
		SELECT id::text, from_uom, to_uom, factor
		FROM ref_uom_conversion
		WHERE tenant_id = $1
		ORDER BY from_uom, to_uom`
)

// LoadSnapshot reads the active kitchen data of tenantID inside one
// repeatable-read, read-only transaction.
func (s *PGStore) LoadSnapshot(ctx context.Context, tenantID string) (*costing.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	snap := &costing.Snapshot{Version: costing.SnapshotVersion, TenantID: tenantID}

	snap.Ingredients, err = collect(ctx, tx, ingredientsSQL, tenantID, func(row pgx.CollectableRow) (models.Ingredient, error) {
		i := models.Ingredient{Status: models.StatusActive}
		err := row.Scan(&i.ID, &i.TenantID, &i.Code, &i.Name, &i.BaseUnit,
			&i.PackageQuantity, &i.PackageUnit, &i.PackageCost, &i.YieldPct)
		i.YieldPct = costing.NormalizeYieldPct(i.YieldPct)
		return i, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: load ingredients: %w", err)
	}

	snap.Recipes, err = collect(ctx, tx, recipesSQL, tenantID, func(row pgx.CollectableRow) (models.Recipe, error) {
		r := models.Recipe{Status: models.StatusActive}
		var kind string
		err := row.Scan(&r.ID, &r.TenantID, &r.Code, &r.Name, &kind,
			&r.YieldQuantity, &r.YieldUnit, &r.Price)
		r.Kind = models.RecipeKind(strings.ToLower(kind))
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: load recipes: %w", err)
	}

	snap.Lines, err = collect(ctx, tx, linesSQL, tenantID, func(row pgx.CollectableRow) (models.RecipeLine, error) {
		var l models.RecipeLine
		var isRecipe bool
		err := row.Scan(&l.ID, &l.RecipeID, &l.InputID, &isRecipe,
			&l.Quantity, &l.QuantityUnit, &l.Note, &l.SortOrder)
		l.InputKind = models.InputKindIngredient
		if isRecipe {
			l.InputKind = models.InputKindRecipe
		}
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: load recipe lines: %w", err)
	}

	snap.Conversions, err = collect(ctx, tx, conversionsSQL, tenantID, func(row pgx.CollectableRow) (models.UomConversion, error) {
		c := models.UomConversion{TenantID: tenantID}
		err := row.Scan(&c.ID, &c.FromUnit, &c.ToUnit, &c.Factor)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: load conversions: %w", err)
	}

	return snap, nil
}

func collect[T any](ctx context.Context, tx pgx.Tx, query, tenantID string, fn pgx.RowToFunc[T]) ([]T, error) {
	rows, err := tx.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, fn)
}
