package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platecost/platecost/internal/models"
)

// hostedSchema is the subset of the hosted kitchen schema the store reads.
const hostedSchema = `
CREATE TABLE ingredients (
    id UUID PRIMARY KEY, tenant_id UUID NOT NULL, ingredient_code TEXT NOT NULL,
    name TEXT NOT NULL, base_uom TEXT, package_qty NUMERIC, package_uom TEXT,
    package_cost NUMERIC, yield_pct NUMERIC, status TEXT NOT NULL
);
CREATE TABLE recipes (
    id UUID PRIMARY KEY, tenant_id UUID NOT NULL, recipe_code TEXT NOT NULL,
    name TEXT NOT NULL, recipe_type TEXT NOT NULL, yield_qty NUMERIC,
    yield_uom TEXT, price NUMERIC, status TEXT NOT NULL
);
CREATE TABLE recipe_lines (
    id UUID PRIMARY KEY, recipe_id UUID NOT NULL REFERENCES recipes(id),
    ingredient_id UUID NOT NULL, qty NUMERIC, qty_uom TEXT, note TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE ref_uom_conversion (
    id UUID PRIMARY KEY, tenant_id UUID NOT NULL, from_uom TEXT NOT NULL,
    to_uom TEXT NOT NULL, factor NUMERIC NOT NULL
);`

const (
	tenant   = "6f1c2b9e-0000-4000-8000-000000000001"
	flourID  = "6f1c2b9e-0000-4000-8000-0000000000a1"
	doughID  = "6f1c2b9e-0000-4000-8000-0000000000b1"
	breadID  = "6f1c2b9e-0000-4000-8000-0000000000b2"
	oldID    = "6f1c2b9e-0000-4000-8000-0000000000b3"
	kgToGID  = "6f1c2b9e-0000-4000-8000-0000000000c1"
	line1ID  = "6f1c2b9e-0000-4000-8000-0000000000d1"
	line2ID  = "6f1c2b9e-0000-4000-8000-0000000000d2"
	line3ID  = "6f1c2b9e-0000-4000-8000-0000000000d3"
	seedData = `
INSERT INTO ingredients VALUES
    ('` + flourID + `', '` + tenant + `', 'FLR', 'Flour', 'g', 1, 'kg', 2.00, 0.8, 'Active');
INSERT INTO recipes VALUES
    ('` + doughID + `', '` + tenant + `', 'DGH', 'Dough', 'prep', 1, 'kg', 0, 'Active'),
    ('` + breadID + `', '` + tenant + `', 'BRD', 'Bread', 'Service', 1, 'portion', 6, 'Active'),
    ('` + oldID + `', '` + tenant + `', 'OLD', 'Old', 'service', 1, 'portion', 6, 'Inactive');
INSERT INTO recipe_lines (id, recipe_id, ingredient_id, qty, qty_uom, note) VALUES
    ('` + line1ID + `', '` + doughID + `', '` + flourID + `', 600, 'g', 'sifted'),
    ('` + line2ID + `', '` + breadID + `', '` + doughID + `', 0.2, 'kg', NULL),
    ('` + line3ID + `', '` + oldID + `', '` + flourID + `', 100, 'g', NULL);
INSERT INTO ref_uom_conversion VALUES
    ('` + kgToGID + `', '` + tenant + `', 'kg', 'g', 1000);`
)

// newTestStore connects to PLATECOST_TEST_DSN inside a throwaway schema.
func newTestStore(t *testing.T) *PGStore {
	t.Helper()

	dsn := os.Getenv("PLATECOST_TEST_DSN")
	if dsn == "" {
		t.Skip("PLATECOST_TEST_DSN not set")
	}

	ctx := context.Background()
	schema := fmt.Sprintf("platecost_test_%d", time.Now().UnixNano())

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := pool.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		pool.Close()
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		pool.Close()
	})

	for _, stmt := range []string{hostedSchema, seedData} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	return New(pool)
}

func TestLoadSnapshot(t *testing.T) {
	store := newTestStore(t)

	snap, err := store.LoadSnapshot(context.Background(), tenant)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	if len(snap.Ingredients) != 1 {
		t.Fatalf("expected 1 ingredient, got %d", len(snap.Ingredients))
	}
	if got := snap.Ingredients[0].YieldPct; got != 80 {
		t.Errorf("expected fractional yield normalized to 80, got %v", got)
	}

	if len(snap.Recipes) != 2 {
		t.Fatalf("expected 2 active recipes, got %d", len(snap.Recipes))
	}
	for _, r := range snap.Recipes {
		if r.ID == breadID && r.Kind != models.RecipeKindService {
			t.Errorf("expected recipe_type Service to map to service, got %q", r.Kind)
		}
	}

	if len(snap.Lines) != 2 {
		t.Fatalf("expected lines of active recipes only, got %d", len(snap.Lines))
	}
	for _, l := range snap.Lines {
		switch l.ID {
		case line1ID:
			if l.InputKind != models.InputKindIngredient || l.Note != "sifted" {
				t.Errorf("unexpected ingredient line %+v", l)
			}
		case line2ID:
			if l.InputKind != models.InputKindRecipe {
				t.Errorf("expected dough line to be a recipe input, got %q", l.InputKind)
			}
		}
	}

	if len(snap.Conversions) != 1 || snap.Conversions[0].Factor != 1000 {
		t.Errorf("expected the kg->g conversion, got %+v", snap.Conversions)
	}
}

func TestHealthCheck(t *testing.T) {
	store := newTestStore(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}
