package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/platecost/platecost/internal/costing"
	"github.com/platecost/platecost/internal/repository"
	"github.com/platecost/platecost/internal/services/costs"
)

// Kinds for failures that are not costing errors.
const (
	kindBadRequest = "bad_request"
	kindNotFound   = "not_found"
	kindReadOnly   = "read_only"
	kindInternal   = "internal"
)

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`

	RecipeID     string   `json:"recipe_id,omitempty"`
	LineID       string   `json:"line_id,omitempty"`
	IngredientID string   `json:"ingredient_id,omitempty"`
	InputID      string   `json:"input_id,omitempty"`
	FromUnit     string   `json:"from_unit,omitempty"`
	ToUnit       string   `json:"to_unit,omitempty"`
	Path         []string `json:"path,omitempty"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

// statusFor maps an error to its HTTP status and error body.
func statusFor(err error) (int, errorDetail) {
	var ce *costing.Error
	if errors.As(err, &ce) {
		detail := errorDetail{
			Kind:         string(ce.Kind),
			Message:      ce.Error(),
			RecipeID:     ce.RecipeID,
			LineID:       ce.LineID,
			IngredientID: ce.IngredientID,
			InputID:      ce.InputID,
			FromUnit:     ce.FromUnit,
			ToUnit:       ce.ToUnit,
			Path:         ce.Path,
		}
		switch ce.Kind {
		case costing.KindUnknownRecipe, costing.KindUnknownIngredient:
			return http.StatusNotFound, detail
		case costing.KindCycleRejected, costing.KindServiceAsInput:
			return http.StatusConflict, detail
		default:
			return http.StatusUnprocessableEntity, detail
		}
	}

	switch {
	case errors.Is(err, repository.ErrInvalid):
		return http.StatusBadRequest, errorDetail{Kind: kindBadRequest, Message: err.Error()}
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, errorDetail{Kind: kindNotFound, Message: err.Error()}
	case errors.Is(err, costs.ErrReadOnly):
		return http.StatusForbidden, errorDetail{Kind: kindReadOnly, Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorDetail{Kind: kindInternal, Message: "internal error"}
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status, detail := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: detail})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Error: errorDetail{Kind: kindBadRequest, Message: msg},
	})
}

// logRejection records a guarded write that was refused.
func (s *Server) logRejection(err error) {
	kind := costing.KindOf(err)
	if kind == costing.KindCycleRejected || kind == costing.KindServiceAsInput {
		s.metrics.observeRejection(kind)
		s.logger.Debug("recipe line rejected", "kind", kind)
	}
}
