package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platecost/platecost/internal/costing"
	"github.com/platecost/platecost/internal/models"
)

// SnapshotStore reads everything the costing engine needs for one tenant.
type SnapshotStore struct {
	db          *sql.DB
	ingredients *IngredientRepository
	recipes     *RecipeRepository
	conversions *UomRepository
}

// NewSnapshotStore creates a snapshot store over db.
func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{
		db:          db,
		ingredients: NewIngredientRepository(db),
		recipes:     NewRecipeRepository(db),
		conversions: NewUomRepository(db),
	}
}

// LoadSnapshot returns the active ingredients, active recipes, their lines
// and all conversion edges of tenantID. The reads share one transaction
// so the snapshot is consistent.
func (s *SnapshotStore) LoadSnapshot(ctx context.Context, tenantID string) (*costing.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	snap, err := s.LoadSnapshotTx(ctx, tx, tenantID)
	if err != nil {
		return nil, err
	}
	return snap, tx.Commit()
}

// LoadSnapshotTx is LoadSnapshot inside the caller's transaction, so a
// write can be checked against the data it will be committed with.
func (s *SnapshotStore) LoadSnapshotTx(ctx context.Context, tx *sql.Tx, tenantID string) (*costing.Snapshot, error) {
	snap := &costing.Snapshot{Version: costing.SnapshotVersion, TenantID: tenantID}

	ingredients, err := s.ingredients.ListActive(ctx, tx, tenantID)
	if err != nil {
		return nil, err
	}
	recipes, err := s.recipes.ListActive(ctx, tx, tenantID)
	if err != nil {
		return nil, err
	}
	lines, err := s.recipes.ListActiveLines(ctx, tx, tenantID)
	if err != nil {
		return nil, err
	}
	snap.Conversions, err = s.conversions.List(ctx, tx, tenantID)
	if err != nil {
		return nil, err
	}

	snap.Ingredients = make([]models.Ingredient, 0, len(ingredients))
	for _, ing := range ingredients {
		snap.Ingredients = append(snap.Ingredients, *ing)
	}
	snap.Recipes = make([]models.Recipe, 0, len(recipes))
	for _, rec := range recipes {
		snap.Recipes = append(snap.Recipes, *rec)
	}
	snap.Lines = make([]models.RecipeLine, 0, len(lines))
	for _, l := range lines {
		snap.Lines = append(snap.Lines, *l)
	}

	return snap, nil
}

// InputCatalog lists the inputs a recipe line may reference for tenantID:
// active ingredients and active prep recipes, ordered by kind then name.
func (s *SnapshotStore) InputCatalog(ctx context.Context, tenantID string) ([]models.CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, input_kind, code, name, cost_unit
		FROM input_catalog
		WHERE tenant_id = ?
		ORDER BY input_kind, name, code`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying input catalog: %w", err)
	}
	defer rows.Close()

	var entries []models.CatalogEntry
	for rows.Next() {
		var e models.CatalogEntry
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.Code, &e.Name, &e.CostUnit); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		e.InputKind = models.InputKind(kind)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog: %w", err)
	}
	return entries, nil
}
