package costs

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/platecost/platecost/internal/costing"
	"github.com/platecost/platecost/internal/costing/graph"
	"github.com/platecost/platecost/internal/models"
	"github.com/platecost/platecost/internal/repository"
)

// ============================================================================
// INGREDIENTS, RECIPES AND CONVERSIONS
// ============================================================================

// CreateIngredient stores a new active ingredient. Fractional yields are
// read as percentages and a missing base unit is inferred from the
// package unit and the tenant's conversions.
func (s *Service) CreateIngredient(ctx context.Context, input CreateIngredientInput) (*models.Ingredient, error) {
	if s.db == nil {
		return nil, ErrReadOnly
	}

	ing := &models.Ingredient{
		ID:              s.idGenerator.NewID(),
		TenantID:        s.tenantID,
		Code:            strings.TrimSpace(input.Code),
		Name:            strings.TrimSpace(input.Name),
		Category:        input.Category,
		BaseUnit:        strings.TrimSpace(input.BaseUnit),
		PackageQuantity: input.PackageQuantity,
		PackageUnit:     strings.TrimSpace(input.PackageUnit),
		PackageCost:     input.PackageCost,
		YieldPct:        costing.NormalizeYieldPct(input.YieldPct),
		Status:          models.StatusActive,
	}
	if input.YieldPct == 0 {
		ing.YieldPct = 100
	}

	if ing.BaseUnit == "" {
		convs, err := s.conversions.List(ctx, nil, s.tenantID)
		if err != nil {
			return nil, err
		}
		ing.BaseUnit = costing.InferBaseUnit(ing.PackageUnit, convs)
		s.logger.Debug("inferred base unit", "code", ing.Code, "package_unit", ing.PackageUnit, "base_unit", ing.BaseUnit)
	}

	if err := s.ingredients.Create(ctx, nil, ing); err != nil {
		return nil, fmt.Errorf("creating ingredient: %w", err)
	}
	return ing, nil
}

// CreateRecipe stores a new active recipe.
func (s *Service) CreateRecipe(ctx context.Context, input CreateRecipeInput) (*models.Recipe, error) {
	if s.db == nil {
		return nil, ErrReadOnly
	}

	recipe := &models.Recipe{
		ID:            s.idGenerator.NewID(),
		TenantID:      s.tenantID,
		Code:          strings.TrimSpace(input.Code),
		Name:          strings.TrimSpace(input.Name),
		Kind:          input.Kind,
		Category:      input.Category,
		Status:        models.StatusActive,
		YieldQuantity: input.YieldQuantity,
		YieldUnit:     strings.TrimSpace(input.YieldUnit),
		Price:         input.Price,
	}
	if recipe.Kind == "" {
		recipe.Kind = models.RecipeKindService
	}

	if err := s.recipes.Create(ctx, nil, recipe); err != nil {
		return nil, fmt.Errorf("creating recipe: %w", err)
	}
	return recipe, nil
}

// UpdateRecipe saves changes to a recipe. A recipe that other recipes use
// as an input cannot become a service recipe, and a recipe whose lines
// would close a composition cycle cannot be activated.
func (s *Service) UpdateRecipe(ctx context.Context, recipe *models.Recipe) error {
	if s.db == nil {
		return ErrReadOnly
	}

	if recipe.Kind == models.RecipeKindService {
		users, err := s.recipes.UsedBy(ctx, recipe.ID)
		if err != nil {
			return err
		}
		if len(users) > 0 {
			return costing.ServiceAsInput(users[0], "", recipe.ID)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := s.recipes.GetByIDTx(ctx, tx, recipe.ID)
	if err != nil {
		return err
	}
	if current.TenantID != s.tenantID {
		return &repository.NotFoundError{Entity: "recipe", ID: recipe.ID}
	}
	recipe.TenantID = current.TenantID

	if current.Status != models.StatusActive && recipe.Status == models.StatusActive {
		if err := s.checkActivation(ctx, tx, recipe.ID); err != nil {
			s.logger.Warn("recipe activation rejected",
				"recipe", recipe.ID, "reason", costing.Reason(err))
			return err
		}
	}

	if err := s.recipes.Update(ctx, tx, recipe); err != nil {
		return fmt.Errorf("updating recipe: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// checkActivation rejects activating recipeID when one of its own recipe
// lines would close a cycle through the other stored edges.
func (s *Service) checkActivation(ctx context.Context, tx *sql.Tx, recipeID string) error {
	edges, err := s.recipes.ListRecipeEdges(ctx, tx, s.tenantID)
	if err != nil {
		return err
	}

	var own, others []models.RecipeLine
	for _, e := range edges {
		if e.RecipeID == recipeID {
			own = append(own, *e)
		} else {
			others = append(others, *e)
		}
	}

	g := graph.New(others)
	for _, l := range own {
		if g.WouldCreateCycle(recipeID, l.InputID) {
			return costing.CycleRejected(recipeID, l.InputID)
		}
	}
	return nil
}

// SaveConversion stores a conversion edge for the tenant.
func (s *Service) SaveConversion(ctx context.Context, from, to string, factor float64) (*models.UomConversion, error) {
	if s.db == nil {
		return nil, ErrReadOnly
	}

	conv := &models.UomConversion{
		ID:       s.idGenerator.NewID(),
		TenantID: s.tenantID,
		FromUnit: strings.TrimSpace(from),
		ToUnit:   strings.TrimSpace(to),
		Factor:   factor,
	}
	if err := s.conversions.Upsert(ctx, nil, conv); err != nil {
		return nil, fmt.Errorf("saving conversion: %w", err)
	}

	s.logger.Info("conversion saved", "from", conv.FromUnit, "to", conv.ToUnit, "factor", conv.Factor)
	return conv, nil
}

// ============================================================================
// GUARDED RECIPE LINES
// ============================================================================

// AddLine checks a new line against the stored composition and persists
// it only if it neither uses a service recipe nor closes a cycle. The
// check and the insert share one transaction.
func (s *Service) AddLine(ctx context.Context, input LineInput) (*models.RecipeLine, error) {
	line := &models.RecipeLine{
		ID:           s.idGenerator.NewID(),
		RecipeID:     input.RecipeID,
		InputID:      input.InputID,
		InputKind:    input.InputKind,
		Quantity:     input.Quantity,
		QuantityUnit: strings.TrimSpace(input.QuantityUnit),
		Note:         strings.TrimSpace(input.Note),
	}

	err := s.guardedWrite(ctx, line, func(tx *sql.Tx) error {
		next, err := s.recipes.NextSortOrder(ctx, tx, line.RecipeID)
		if err != nil {
			return err
		}
		line.SortOrder = next
		return s.recipes.CreateLine(ctx, tx, line)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("recipe line added", "recipe", line.RecipeID, "input", line.InputID, "kind", line.InputKind)
	return line, nil
}

// UpdateLine changes an existing line under the same checks as AddLine.
// The line's current edge is ignored when checking for cycles. When
// input.RecipeID is set the line must belong to that recipe.
func (s *Service) UpdateLine(ctx context.Context, lineID string, input LineInput) (*models.RecipeLine, error) {
	if s.db == nil {
		return nil, ErrReadOnly
	}

	line, err := s.recipes.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if input.RecipeID != "" && line.RecipeID != input.RecipeID {
		return nil, &repository.NotFoundError{Entity: "recipe line", ID: lineID}
	}
	line.InputID = input.InputID
	line.InputKind = input.InputKind
	line.Quantity = input.Quantity
	line.QuantityUnit = strings.TrimSpace(input.QuantityUnit)
	line.Note = strings.TrimSpace(input.Note)

	err = s.guardedWrite(ctx, line, func(tx *sql.Tx) error {
		return s.recipes.UpdateLine(ctx, tx, line)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("recipe line updated", "recipe", line.RecipeID, "line", line.ID, "input", line.InputID)
	return line, nil
}

// DeleteLine removes a line of recipeID. Removing an edge never creates
// a cycle.
func (s *Service) DeleteLine(ctx context.Context, recipeID, lineID string) error {
	if s.db == nil {
		return ErrReadOnly
	}

	line, err := s.recipes.GetLine(ctx, lineID)
	if err != nil {
		return err
	}
	recipe, err := s.recipes.GetByID(ctx, line.RecipeID)
	if err != nil {
		return err
	}
	if line.RecipeID != recipeID || recipe.TenantID != s.tenantID {
		return &repository.NotFoundError{Entity: "recipe line", ID: lineID}
	}

	if err := s.recipes.DeleteLine(ctx, nil, lineID); err != nil {
		return err
	}
	s.logger.Info("recipe line deleted", "recipe", recipeID, "line", lineID)
	return nil
}

// guardedWrite loads the snapshot inside a transaction, resolves and
// checks line against it, and runs write in the same transaction.
func (s *Service) guardedWrite(ctx context.Context, line *models.RecipeLine, write func(*sql.Tx) error) error {
	if s.db == nil {
		return ErrReadOnly
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	snap, err := s.store.LoadSnapshotTx(ctx, tx, s.tenantID)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	snap.Lines = withoutLine(snap.Lines, line.ID)
	engine := costing.NewEngine(snap, s.opts)

	if _, ok := engine.Recipe(line.RecipeID); !ok {
		return &costing.Error{Kind: costing.KindUnknownRecipe, RecipeID: line.RecipeID}
	}
	if err := resolveInputKind(engine, line); err != nil {
		return err
	}
	if err := engine.CheckLine(line); err != nil {
		s.logger.Warn("recipe line rejected",
			"recipe", line.RecipeID, "input", line.InputID, "reason", costing.Reason(err))
		return err
	}

	// Inactive recipes are not in the snapshot but keep their edges.
	if line.UsesRecipe() {
		edges, err := s.recipes.ListRecipeEdges(ctx, tx, s.tenantID)
		if err != nil {
			return err
		}
		stored := make([]models.RecipeLine, 0, len(edges))
		for _, e := range edges {
			if e.ID != line.ID {
				stored = append(stored, *e)
			}
		}
		if graph.New(stored).WouldCreateCycle(line.RecipeID, line.InputID) {
			err := costing.CycleRejected(line.RecipeID, line.InputID)
			s.logger.Warn("recipe line rejected",
				"recipe", line.RecipeID, "input", line.InputID, "reason", costing.Reason(err))
			return err
		}
	}

	if err := write(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// resolveInputKind fills in or verifies line.InputKind from the snapshot.
func resolveInputKind(engine *costing.Engine, line *models.RecipeLine) error {
	_, isIngredient := engine.Ingredient(line.InputID)
	_, isRecipe := engine.Recipe(line.InputID)

	missing := &costing.Error{
		Kind:     costing.KindMissingInput,
		RecipeID: line.RecipeID,
		LineID:   line.ID,
		InputID:  line.InputID,
	}

	switch line.InputKind {
	case "":
		switch {
		case isIngredient:
			line.InputKind = models.InputKindIngredient
		case isRecipe:
			line.InputKind = models.InputKindRecipe
		default:
			return missing
		}
	case models.InputKindIngredient:
		if !isIngredient {
			return missing
		}
	case models.InputKindRecipe:
		if !isRecipe {
			return missing
		}
	default:
		return fmt.Errorf("%w input_kind: %q", repository.ErrInvalid, line.InputKind)
	}
	return nil
}

func withoutLine(lines []models.RecipeLine, id string) []models.RecipeLine {
	out := make([]models.RecipeLine, 0, len(lines))
	for _, l := range lines {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}
