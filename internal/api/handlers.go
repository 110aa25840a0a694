package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/platecost/platecost/internal/costing"
	"github.com/platecost/platecost/internal/models"
	"github.com/platecost/platecost/internal/services/costs"
)

// ============================================================================
// RESPONSES
// ============================================================================

type recipeSummary struct {
	ID    string            `json:"id"`
	Code  string            `json:"code"`
	Name  string            `json:"name"`
	Kind  models.RecipeKind `json:"kind"`
	Price float64           `json:"price"`
}

// recipeCostRow is one cost board row. Cost fields are omitted when the
// cost is unavailable; Reason says why.
type recipeCostRow struct {
	Recipe    recipeSummary `json:"recipe"`
	Available bool          `json:"available"`
	TotalCost *float64      `json:"total_cost,omitempty"`
	UnitCost  *float64      `json:"unit_cost,omitempty"`
	CostUnit  string        `json:"cost_unit,omitempty"`
	Margin    *float64      `json:"margin,omitempty"`
	CostPct   *float64      `json:"cost_pct,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty"`
}

type boardResponse struct {
	TenantID    string          `json:"tenant_id"`
	Unavailable int             `json:"unavailable"`
	Recipes     []recipeCostRow `json:"recipes"`
}

func newRecipeCostRow(rc costs.RecipeCost) recipeCostRow {
	row := recipeCostRow{
		Recipe: recipeSummary{
			ID:    rc.Recipe.ID,
			Code:  rc.Recipe.Code,
			Name:  rc.Recipe.Name,
			Kind:  rc.Recipe.Kind,
			Price: rc.Recipe.Price,
		},
		Available: rc.Available(),
	}
	if !row.Available {
		row.Reason = rc.Reason()
		row.ErrorKind = string(costing.KindOf(rc.Err))
		return row
	}

	total, unit := rc.Result.TotalCost, rc.Result.UnitCost
	row.TotalCost = &total
	row.UnitCost = &unit
	row.CostUnit = rc.Result.CostUnit
	row.Margin = rc.DisplayMargin()
	row.CostPct = rc.DisplayCostPct()
	return row
}

type lineRequest struct {
	InputID      string           `json:"input_id" binding:"required"`
	InputKind    models.InputKind `json:"input_kind" binding:"omitempty,oneof=ingredient recipe"`
	Quantity     float64          `json:"quantity" binding:"gte=0"`
	QuantityUnit string           `json:"quantity_unit" binding:"required"`
	Note         string           `json:"note"`
}

func (r lineRequest) input(recipeID string) costs.LineInput {
	return costs.LineInput{
		RecipeID:     recipeID,
		InputID:      r.InputID,
		InputKind:    r.InputKind,
		Quantity:     r.Quantity,
		QuantityUnit: r.QuantityUnit,
		Note:         r.Note,
	}
}

type recipeRequest struct {
	Code          string            `json:"code" binding:"required"`
	Name          string            `json:"name" binding:"required"`
	Kind          models.RecipeKind `json:"kind" binding:"omitempty,oneof=prep service"`
	Category      string            `json:"category"`
	Status        string            `json:"status"`
	YieldQuantity float64           `json:"yield_quantity" binding:"gt=0"`
	YieldUnit     string            `json:"yield_unit" binding:"required"`
	Price         float64           `json:"price" binding:"gte=0"`
}

type ingredientRequest struct {
	Code            string  `json:"code" binding:"required"`
	Name            string  `json:"name" binding:"required"`
	Category        string  `json:"category"`
	BaseUnit        string  `json:"base_unit"`
	PackageQuantity float64 `json:"package_quantity" binding:"gt=0"`
	PackageUnit     string  `json:"package_unit" binding:"required"`
	PackageCost     float64 `json:"package_cost" binding:"gte=0"`
	YieldPct        float64 `json:"yield_pct" binding:"gte=0"`
}

type conversionRequest struct {
	From   string  `json:"from" binding:"required"`
	To     string  `json:"to" binding:"required"`
	Factor float64 `json:"factor" binding:"gt=0"`
}

// ============================================================================
// HANDLERS
// ============================================================================

// Health reports store health.
func (s *Server) Health(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "tenant_id": s.costing.TenantID()})
}

// RecipeCosts costs every active recipe.
func (s *Server) RecipeCosts(c *gin.Context) {
	board, err := s.costing.Board(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.observeBoard(board.TenantID, len(board.Recipes), board.Unavailable)

	resp := boardResponse{
		TenantID:    board.TenantID,
		Unavailable: board.Unavailable,
		Recipes:     make([]recipeCostRow, 0, len(board.Recipes)),
	}
	for _, rc := range board.Recipes {
		resp.Recipes = append(resp.Recipes, newRecipeCostRow(rc))
	}
	c.JSON(http.StatusOK, resp)
}

// RecipeCost rolls up one recipe with its line breakdown.
func (s *Server) RecipeCost(c *gin.Context) {
	result, err := s.costing.CostRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// InputCatalog lists the inputs a recipe may use.
func (s *Server) InputCatalog(c *gin.Context) {
	id := c.Param("id")
	entries, err := s.costing.InputCatalog(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if entries == nil {
		entries = []models.CatalogEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"recipe_id": id, "inputs": entries})
}

// AddLine saves a recipe line after the composition guard accepts it.
func (s *Server) AddLine(c *gin.Context) {
	var req lineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	line, err := s.costing.AddLine(c.Request.Context(), req.input(c.Param("id")))
	if err != nil {
		s.logRejection(err)
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, line)
}

// CycleCheck reports whether recipe :id may use ?input= without creating
// a cycle.
func (s *Server) CycleCheck(c *gin.Context) {
	id, input := c.Param("id"), c.Query("input")
	if input == "" {
		badRequest(c, "input is required")
		return
	}

	engine, err := s.costing.Engine(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if _, ok := engine.Recipe(id); !ok {
		s.fail(c, &costing.Error{Kind: costing.KindUnknownRecipe, RecipeID: id})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipe_id":          id,
		"input_id":           input,
		"would_create_cycle": engine.WouldCreateCycle(id, input),
	})
}

// IngredientUnitCost returns an ingredient's cost per base unit.
func (s *Server) IngredientUnitCost(c *gin.Context) {
	ic, err := s.costing.UnitCost(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ingredient_id": ic.Ingredient.ID,
		"code":          ic.Ingredient.Code,
		"name":          ic.Ingredient.Name,
		"unit_cost":     ic.UnitCost,
		"cost_unit":     ic.Ingredient.BaseUnit,
	})
}

// ResolveConversion returns the factor from ?from= to ?to=.
func (s *Server) ResolveConversion(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		badRequest(c, "from and to are required")
		return
	}

	factor, err := s.costing.ResolveConversion(c.Request.Context(), from, to)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "factor": factor})
}

// Units lists the unit symbols known to the conversion graph.
func (s *Server) Units(c *gin.Context) {
	units, err := s.costing.Units(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if units == nil {
		units = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"units": units})
}

// ============================================================================
// WRITES
// ============================================================================

// UpdateLine changes a recipe line under the same guard as AddLine.
func (s *Server) UpdateLine(c *gin.Context) {
	var req lineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	line, err := s.costing.UpdateLine(c.Request.Context(), c.Param("line"), req.input(c.Param("id")))
	if err != nil {
		s.logRejection(err)
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

// DeleteLine removes a recipe line.
func (s *Server) DeleteLine(c *gin.Context) {
	if err := s.costing.DeleteLine(c.Request.Context(), c.Param("id"), c.Param("line")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateRecipe stores a new active recipe.
func (s *Server) CreateRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	recipe, err := s.costing.CreateRecipe(c.Request.Context(), costs.CreateRecipeInput{
		Code:          req.Code,
		Name:          req.Name,
		Kind:          req.Kind,
		Category:      req.Category,
		YieldQuantity: req.YieldQuantity,
		YieldUnit:     req.YieldUnit,
		Price:         req.Price,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// UpdateRecipe replaces a recipe's fields. Activating a recipe whose
// lines would close a cycle is refused.
func (s *Server) UpdateRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	recipe := &models.Recipe{
		ID:            c.Param("id"),
		Code:          req.Code,
		Name:          req.Name,
		Kind:          req.Kind,
		Category:      req.Category,
		Status:        status,
		YieldQuantity: req.YieldQuantity,
		YieldUnit:     req.YieldUnit,
		Price:         req.Price,
	}
	if err := s.costing.UpdateRecipe(c.Request.Context(), recipe); err != nil {
		s.logRejection(err)
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// CreateIngredient stores a new active ingredient.
func (s *Server) CreateIngredient(c *gin.Context) {
	var req ingredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ing, err := s.costing.CreateIngredient(c.Request.Context(), costs.CreateIngredientInput{
		Code:            req.Code,
		Name:            req.Name,
		Category:        req.Category,
		BaseUnit:        req.BaseUnit,
		PackageQuantity: req.PackageQuantity,
		PackageUnit:     req.PackageUnit,
		PackageCost:     req.PackageCost,
		YieldPct:        req.YieldPct,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ing)
}

// SaveConversion stores a conversion edge, replacing the factor of an
// existing edge between the same units.
func (s *Server) SaveConversion(c *gin.Context) {
	var req conversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	conv, err := s.costing.SaveConversion(c.Request.Context(), req.From, req.To, req.Factor)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}
