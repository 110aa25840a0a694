package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/platecost/platecost/internal/models"
)

// RecipeRepository handles recipe and recipe line data access.
type RecipeRepository struct {
	db *sql.DB
}

// NewRecipeRepository creates a new recipe repository.
func NewRecipeRepository(db *sql.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

const recipeColumns = `id, tenant_id, code, name, kind, category, status,
	yield_quantity, yield_unit, price, created_at, updated_at`

const lineColumns = `id, recipe_id, input_id, input_kind, quantity,
	quantity_unit, note, sort_order, created_at, updated_at`

// ============================================================================
// RECIPES
// ============================================================================

// Create inserts a new recipe.
func (r *RecipeRepository) Create(ctx context.Context, tx *sql.Tx, recipe *models.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return fmt.Errorf("%w recipe: %w", ErrInvalid, err)
	}
	if recipe.Status == "" {
		recipe.Status = models.StatusActive
	}

	query := `
		INSERT INTO recipes (` + recipeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	_, err := execerFor(r.db, tx).ExecContext(ctx, query,
		recipe.ID,
		recipe.TenantID,
		recipe.Code,
		recipe.Name,
		string(recipe.Kind),
		nullableString(recipe.Category),
		string(recipe.Status),
		recipe.YieldQuantity,
		recipe.YieldUnit,
		recipe.Price,
		formatTime(recipe.CreatedAt),
		formatTime(recipe.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting recipe: %w", err)
	}
	return nil
}

// GetByID retrieves a recipe by ID.
func (r *RecipeRepository) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	return r.GetByIDTx(ctx, nil, id)
}

// GetByIDTx is GetByID inside the caller's transaction.
func (r *RecipeRepository) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = ?`
	return r.scanRecipe(queryerFor(r.db, tx).QueryRowContext(ctx, query, id))
}

// GetByCode retrieves a recipe by its tenant-unique code.
func (r *RecipeRepository) GetByCode(ctx context.Context, tenantID, code string) (*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE tenant_id = ? AND code = ?`
	return r.scanRecipe(r.db.QueryRowContext(ctx, query, tenantID, code))
}

// Update modifies an existing recipe. The kind of a recipe that is already
// used as an input cannot become service; callers check that first.
func (r *RecipeRepository) Update(ctx context.Context, tx *sql.Tx, recipe *models.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return fmt.Errorf("%w recipe: %w", ErrInvalid, err)
	}

	query := `
		UPDATE recipes SET
			code = ?, name = ?, kind = ?, category = ?, status = ?,
			yield_quantity = ?, yield_unit = ?, price = ?, updated_at = ?
		WHERE id = ?`

	recipe.UpdatedAt = time.Now().UTC()

	result, err := execerFor(r.db, tx).ExecContext(ctx, query,
		recipe.Code,
		recipe.Name,
		string(recipe.Kind),
		nullableString(recipe.Category),
		string(recipe.Status),
		recipe.YieldQuantity,
		recipe.YieldUnit,
		recipe.Price,
		formatTime(recipe.UpdatedAt),
		recipe.ID,
	)
	if err != nil {
		return fmt.Errorf("updating recipe: %w", err)
	}
	return checkAffected(result, "recipe", recipe.ID)
}

// SetStatus activates or deactivates a recipe.
func (r *RecipeRepository) SetStatus(ctx context.Context, tx *sql.Tx, id string, status models.Status) error {
	result, err := execerFor(r.db, tx).ExecContext(ctx,
		"UPDATE recipes SET status = ?, updated_at = ? WHERE id = ?",
		string(status), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating recipe status: %w", err)
	}
	return checkAffected(result, "recipe", id)
}

// Delete removes a recipe together with its own lines.
func (r *RecipeRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	result, err := execerFor(r.db, tx).ExecContext(ctx, "DELETE FROM recipes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting recipe: %w", err)
	}
	return checkAffected(result, "recipe", id)
}

// List retrieves recipes matching filter, one page at a time.
func (r *RecipeRepository) List(ctx context.Context, filter models.RecipeFilter, page models.Pagination) (*models.RecipeList, error) {
	var conditions []string
	var args []any

	if filter.TenantID != "" {
		conditions = append(conditions, "tenant_id = ?")
		args = append(args, filter.TenantID)
	}
	if filter.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(*filter.Kind))
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
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM recipes %s", where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting recipes: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM recipes
		%s
		ORDER BY name, code
		LIMIT ? OFFSET ?`, recipeColumns, where)

	args = append(args, page.Limit(), page.Offset())
	recipes, err := r.queryRecipes(ctx, r.db, query, args...)
	if err != nil {
		return nil, err
	}

	return &models.RecipeList{
		Recipes:    recipes,
		Total:      total,
		Page:       page.Page,
		PageSize:   page.Limit(),
		TotalPages: page.TotalPages(total),
	}, nil
}

// ListActive returns every active recipe of a tenant, ordered by code.
func (r *RecipeRepository) ListActive(ctx context.Context, tx *sql.Tx, tenantID string) ([]*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + `
		FROM recipes
		WHERE tenant_id = ? AND status = 'active'
		ORDER BY code`
	return r.queryRecipes(ctx, queryerFor(r.db, tx), query, tenantID)
}

// UsedBy returns the IDs of recipes that have a line using recipeID.
func (r *RecipeRepository) UsedBy(ctx context.Context, recipeID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT recipe_id FROM recipe_lines
		WHERE input_kind = 'recipe' AND input_id = ?
		ORDER BY recipe_id`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("querying recipe usage: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning recipe usage: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *RecipeRepository) queryRecipes(ctx context.Context, q queryer, query string, args ...any) ([]*models.Recipe, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*models.Recipe
	for rows.Next() {
		recipe, err := r.scanRecipeRow(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recipes: %w", err)
	}
	return recipes, nil
}

// ============================================================================
// RECIPE LINES
// ============================================================================

// CreateLine inserts a recipe line. It performs no cycle check; the
// costing service guards line writes before calling it.
func (r *RecipeRepository) CreateLine(ctx context.Context, tx *sql.Tx, line *models.RecipeLine) error {
	if err := line.Validate(); err != nil {
		return fmt.Errorf("%w recipe line: %w", ErrInvalid, err)
	}

	query := `
		INSERT INTO recipe_lines (` + lineColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	line.CreatedAt = now
	line.UpdatedAt = now

	_, err := execerFor(r.db, tx).ExecContext(ctx, query,
		line.ID,
		line.RecipeID,
		line.InputID,
		string(line.InputKind),
		line.Quantity,
		line.QuantityUnit,
		nullableString(line.Note),
		line.SortOrder,
		formatTime(line.CreatedAt),
		formatTime(line.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting recipe line: %w", err)
	}
	return nil
}

// GetLine retrieves a recipe line by ID.
func (r *RecipeRepository) GetLine(ctx context.Context, id string) (*models.RecipeLine, error) {
	query := `SELECT ` + lineColumns + ` FROM recipe_lines WHERE id = ?`
	line, err := scanLineInto(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "recipe line", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("scanning recipe line: %w", err)
	}
	return line, nil
}

// UpdateLine modifies an existing recipe line.
func (r *RecipeRepository) UpdateLine(ctx context.Context, tx *sql.Tx, line *models.RecipeLine) error {
	if err := line.Validate(); err != nil {
		return fmt.Errorf("%w recipe line: %w", ErrInvalid, err)
	}

	query := `
		UPDATE recipe_lines SET
			input_id = ?, input_kind = ?, quantity = ?, quantity_unit = ?,
			note = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`

	line.UpdatedAt = time.Now().UTC()

	result, err := execerFor(r.db, tx).ExecContext(ctx, query,
		line.InputID,
		string(line.InputKind),
		line.Quantity,
		line.QuantityUnit,
		nullableString(line.Note),
		line.SortOrder,
		formatTime(line.UpdatedAt),
		line.ID,
	)
	if err != nil {
		return fmt.Errorf("updating recipe line: %w", err)
	}
	return checkAffected(result, "recipe line", line.ID)
}

// DeleteLine removes a recipe line.
func (r *RecipeRepository) DeleteLine(ctx context.Context, tx *sql.Tx, id string) error {
	result, err := execerFor(r.db, tx).ExecContext(ctx, "DELETE FROM recipe_lines WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting recipe line: %w", err)
	}
	return checkAffected(result, "recipe line", id)
}

// ListLines returns the lines of one recipe in sort order.
func (r *RecipeRepository) ListLines(ctx context.Context, recipeID string) ([]*models.RecipeLine, error) {
	query := `SELECT ` + lineColumns + `
		FROM recipe_lines
		WHERE recipe_id = ?
		ORDER BY sort_order, id`
	return r.queryLines(ctx, r.db, query, recipeID)
}

// NextSortOrder returns one past the highest sort order used by a recipe.
func (r *RecipeRepository) NextSortOrder(ctx context.Context, tx *sql.Tx, recipeID string) (int, error) {
	var next int
	err := queryerFor(r.db, tx).QueryRowContext(ctx,
		"SELECT COALESCE(MAX(sort_order), -1) + 1 FROM recipe_lines WHERE recipe_id = ?",
		recipeID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("querying sort order: %w", err)
	}
	return next, nil
}

// ListActiveLines returns the lines of every active recipe of a tenant.
func (r *RecipeRepository) ListActiveLines(ctx context.Context, tx *sql.Tx, tenantID string) ([]*models.RecipeLine, error) {
	query := `
		SELECT l.id, l.recipe_id, l.input_id, l.input_kind, l.quantity,
			l.quantity_unit, l.note, l.sort_order, l.created_at, l.updated_at
		FROM recipe_lines l
		JOIN recipes r ON r.id = l.recipe_id
		WHERE r.tenant_id = ? AND r.status = 'active'
		ORDER BY l.recipe_id, l.sort_order, l.id`
	return r.queryLines(ctx, queryerFor(r.db, tx), query, tenantID)
}

// ListRecipeEdges returns every line of the tenant whose input is a
// recipe, whatever the status of either recipe. Inactive recipes keep
// their lines, so the composition guard has to see them.
func (r *RecipeRepository) ListRecipeEdges(ctx context.Context, tx *sql.Tx, tenantID string) ([]*models.RecipeLine, error) {
	query := `
		SELECT l.id, l.recipe_id, l.input_id, l.input_kind, l.quantity,
			l.quantity_unit, l.note, l.sort_order, l.created_at, l.updated_at
		FROM recipe_lines l
		JOIN recipes r ON r.id = l.recipe_id
		WHERE r.tenant_id = ? AND l.input_kind = 'recipe'
		ORDER BY l.recipe_id, l.sort_order, l.id`
	return r.queryLines(ctx, queryerFor(r.db, tx), query, tenantID)
}

func (r *RecipeRepository) queryLines(ctx context.Context, q queryer, query string, args ...any) ([]*models.RecipeLine, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying recipe lines: %w", err)
	}
	defer rows.Close()

	var lines []*models.RecipeLine
	for rows.Next() {
		line, err := scanLineInto(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning recipe line row: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recipe lines: %w", err)
	}
	return lines, nil
}

// ============================================================================
// SCANNING
// ============================================================================

// scanRecipe scans a single row into a Recipe struct.
func (r *RecipeRepository) scanRecipe(row *sql.Row) (*models.Recipe, error) {
	recipe, err := scanRecipeInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "recipe"}
	}
	if err != nil {
		return nil, fmt.Errorf("scanning recipe: %w", err)
	}
	return recipe, nil
}

// scanRecipeRow scans a row from a rows iterator.
func (r *RecipeRepository) scanRecipeRow(rows *sql.Rows) (*models.Recipe, error) {
	recipe, err := scanRecipeInto(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning recipe row: %w", err)
	}
	return recipe, nil
}

func scanRecipeInto(s rowScanner) (*models.Recipe, error) {
	var recipe models.Recipe
	var category sql.NullString
	var kind, status, createdStr, updatedStr string

	err := s.Scan(
		&recipe.ID,
		&recipe.TenantID,
		&recipe.Code,
		&recipe.Name,
		&kind,
		&category,
		&status,
		&recipe.YieldQuantity,
		&recipe.YieldUnit,
		&recipe.Price,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return nil, err
	}

	recipe.Kind = models.RecipeKind(kind)
	recipe.Category = category.String
	recipe.Status = models.Status(status)
	recipe.CreatedAt = parseTime(createdStr)
	recipe.UpdatedAt = parseTime(updatedStr)
	return &recipe, nil
}

func scanLineInto(s rowScanner) (*models.RecipeLine, error) {
	var line models.RecipeLine
	var note sql.NullString
	var kind, createdStr, updatedStr string

	err := s.Scan(
		&line.ID,
		&line.RecipeID,
		&line.InputID,
		&kind,
		&line.Quantity,
		&line.QuantityUnit,
		&note,
		&line.SortOrder,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return nil, err
	}

	line.InputKind = models.InputKind(kind)
	line.Note = note.String
	line.CreatedAt = parseTime(createdStr)
	line.UpdatedAt = parseTime(updatedStr)
	return &line, nil
}
