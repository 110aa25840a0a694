package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/platecost/platecost/internal/models"
)

// IngredientRepository handles ingredient data access.
type IngredientRepository struct {
	db *sql.DB
}

// NewIngredientRepository creates a new ingredient repository.
func NewIngredientRepository(db *sql.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

const ingredientColumns = `id, tenant_id, code, name, category, base_unit,
	package_quantity, package_unit, package_cost, yield_pct, status,
	created_at, updated_at`

// Create inserts a new ingredient.
func (r *IngredientRepository) Create(ctx context.Context, tx *sql.Tx, ing *models.Ingredient) error {
	if err := ing.Validate(); err != nil {
		return fmt.Errorf("%w ingredient: %w", ErrInvalid, err)
	}
	if ing.Status == "" {
		ing.Status = models.StatusActive
	}

	query := `
		INSERT INTO ingredients (` + ingredientColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	ing.CreatedAt = now
	ing.UpdatedAt = now

	_, err := execerFor(r.db, tx).ExecContext(ctx, query,
		ing.ID,
		ing.TenantID,
		ing.Code,
		ing.Name,
		nullableString(ing.Category),
		ing.BaseUnit,
		ing.PackageQuantity,
		ing.PackageUnit,
		ing.PackageCost,
		ing.YieldPct,
		string(ing.Status),
		formatTime(ing.CreatedAt),
		formatTime(ing.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting ingredient: %w", err)
	}
	return nil
}

// GetByID retrieves an ingredient by ID.
func (r *IngredientRepository) GetByID(ctx context.Context, id string) (*models.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE id = ?`
	return r.scanIngredient(r.db.QueryRowContext(ctx, query, id))
}

// GetByCode retrieves an ingredient by its tenant-unique code.
func (r *IngredientRepository) GetByCode(ctx context.Context, tenantID, code string) (*models.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE tenant_id = ? AND code = ?`
	return r.scanIngredient(r.db.QueryRowContext(ctx, query, tenantID, code))
}

// Update modifies an existing ingredient.
func (r *IngredientRepository) Update(ctx context.Context, tx *sql.Tx, ing *models.Ingredient) error {
	if err := ing.Validate(); err != nil {
		return fmt.Errorf("%w ingredient: %w", ErrInvalid, err)
	}

	query := `
		UPDATE ingredients SET
			code = ?, name = ?, category = ?, base_unit = ?,
			package_quantity = ?, package_unit = ?, package_cost = ?,
			yield_pct = ?, status = ?, updated_at = ?
		WHERE id = ?`

	ing.UpdatedAt = time.Now().UTC()

	result, err := execerFor(r.db, tx).ExecContext(ctx, query,
		ing.Code,
		ing.Name,
		nullableString(ing.Category),
		ing.BaseUnit,
		ing.PackageQuantity,
		ing.PackageUnit,
		ing.PackageCost,
		ing.YieldPct,
		string(ing.Status),
		formatTime(ing.UpdatedAt),
		ing.ID,
	)
	if err != nil {
		return fmt.Errorf("updating ingredient: %w", err)
	}
	return checkAffected(result, "ingredient", ing.ID)
}

// SetStatus activates or deactivates an ingredient.
func (r *IngredientRepository) SetStatus(ctx context.Context, tx *sql.Tx, id string, status models.Status) error {
	result, err := execerFor(r.db, tx).ExecContext(ctx,
		"UPDATE ingredients SET status = ?, updated_at = ? WHERE id = ?",
		string(status), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating ingredient status: %w", err)
	}
	return checkAffected(result, "ingredient", id)
}

// Delete removes an ingredient. Lines that reference it are left in place
// and surface as missing inputs when costed.
func (r *IngredientRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	result, err := execerFor(r.db, tx).ExecContext(ctx, "DELETE FROM ingredients WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting ingredient: %w", err)
	}
	return checkAffected(result, "ingredient", id)
}

// List retrieves ingredients matching filter, one page at a time.
func (r *IngredientRepository) List(ctx context.Context, filter models.IngredientFilter, page models.Pagination) (*models.IngredientList, error) {
	var conditions []string
	var args []any

	if filter.TenantID != "" {
		conditions = append(conditions, "tenant_id = ?")
		args = append(args, filter.TenantID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Category != nil {
		conditions = append(conditions, "category = ?")
		args = append(args, *filter.Category)
	}
	if filter.SearchTerm != "" {
		conditions = append(conditions, "(code LIKE ? OR name LIKE ?)")
		searchPattern := "%" + filter.SearchTerm + "%"
		args = append(args, searchPattern, searchPattern)
	}

	where := whereClause(conditions)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM ingredients %s", where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting ingredients: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM ingredients
		%s
		ORDER BY name, code
		LIMIT ? OFFSET ?`, ingredientColumns, where)

	args = append(args, page.Limit(), page.Offset())
	ingredients, err := r.query(ctx, r.db, query, args...)
	if err != nil {
		return nil, err
	}

	return &models.IngredientList{
		Ingredients: ingredients,
		Total:       total,
		Page:        page.Page,
		PageSize:    page.Limit(),
		TotalPages:  page.TotalPages(total),
	}, nil
}

// ListActive returns every active ingredient of a tenant, ordered by code.
func (r *IngredientRepository) ListActive(ctx context.Context, tx *sql.Tx, tenantID string) ([]*models.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + `
		FROM ingredients
		WHERE tenant_id = ? AND status = 'active'
		ORDER BY code`
	return r.query(ctx, queryerFor(r.db, tx), query, tenantID)
}

func (r *IngredientRepository) query(ctx context.Context, q queryer, query string, args ...any) ([]*models.Ingredient, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []*models.Ingredient
	for rows.Next() {
		ing, err := r.scanIngredientRow(rows)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ingredients: %w", err)
	}
	return ingredients, nil
}

// scanIngredient scans a single row into an Ingredient struct.
func (r *IngredientRepository) scanIngredient(row *sql.Row) (*models.Ingredient, error) {
	ing, err := scanIngredientInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "ingredient"}
	}
	if err != nil {
		return nil, fmt.Errorf("scanning ingredient: %w", err)
	}
	return ing, nil
}

// scanIngredientRow scans a row from a rows iterator.
func (r *IngredientRepository) scanIngredientRow(rows *sql.Rows) (*models.Ingredient, error) {
	ing, err := scanIngredientInto(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning ingredient row: %w", err)
	}
	return ing, nil
}

func scanIngredientInto(s rowScanner) (*models.Ingredient, error) {
	var ing models.Ingredient
	var category sql.NullString
	var status, createdStr, updatedStr string

	err := s.Scan(
		&ing.ID,
		&ing.TenantID,
		&ing.Code,
		&ing.Name,
		&category,
		&ing.BaseUnit,
		&ing.PackageQuantity,
		&ing.PackageUnit,
		&ing.PackageCost,
		&ing.YieldPct,
		&status,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return nil, err
	}

	ing.Category = category.String
	ing.Status = models.Status(status)
	ing.CreatedAt = parseTime(createdStr)
	ing.UpdatedAt = parseTime(updatedStr)
	return &ing, nil
}
