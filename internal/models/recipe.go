package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RecipeKind distinguishes sub-components from menu items.
type RecipeKind string

const (
	// RecipeKindPrep is a sub-component usable as an input elsewhere.
	RecipeKindPrep RecipeKind = "prep"
	// RecipeKindService is a sellable menu item; never an input.
	RecipeKindService RecipeKind = "service"
)

func (k RecipeKind) String() string {
	return string(k)
}

// Recipe is a prep or service recipe.
type Recipe struct {
	ID       string     `msgpack:"id" json:"id"`
	TenantID string     `msgpack:"tenant_id" json:"tenant_id"`
	Code     string     `msgpack:"code" json:"code"`
	Name     string     `msgpack:"name" json:"name"`
	Kind     RecipeKind `msgpack:"kind" json:"kind"`
	Category string     `msgpack:"category,omitempty" json:"category,omitempty"`
	Status   Status     `msgpack:"status" json:"status"`

	YieldQuantity float64 `msgpack:"yield_quantity" json:"yield_quantity"`
	YieldUnit     string  `msgpack:"yield_unit" json:"yield_unit"`

	// Price is the menu price; meaningful for service recipes only.
	Price float64 `msgpack:"price" json:"price"`

	CreatedAt time.Time `msgpack:"-" json:"created_at"`
	UpdatedAt time.Time `msgpack:"-" json:"updated_at"`
}

// IsActive reports whether the recipe is active.
func (r *Recipe) IsActive() bool {
	return r.Status == StatusActive
}

// IsPrep reports whether the recipe can be used as an input.
func (r *Recipe) IsPrep() bool {
	return r.Kind == RecipeKindPrep
}

// Validate checks the record fields a store requires.
func (r *Recipe) Validate() error {
	var errs []error

	if strings.TrimSpace(r.Code) == "" {
		errs = append(errs, errors.New("code is required"))
	}
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if r.Kind != RecipeKindPrep && r.Kind != RecipeKindService {
		errs = append(errs, fmt.Errorf("invalid kind: %q", r.Kind))
	}
	if r.YieldQuantity <= 0 {
		errs = append(errs, errors.New("yield_quantity must be positive"))
	}
	if strings.TrimSpace(r.YieldUnit) == "" {
		errs = append(errs, errors.New("yield_unit is required"))
	}
	if r.Price < 0 {
		errs = append(errs, errors.New("price must be non-negative"))
	}

	return errors.Join(errs...)
}

// InputKind says what a recipe line points at.
type InputKind string

const (
	InputKindIngredient InputKind = "ingredient"
	InputKindRecipe     InputKind = "recipe"
)

// RecipeLine is one input of a recipe: an ingredient or a prep recipe in
// some quantity and unit.
type RecipeLine struct {
	ID           string    `msgpack:"id" json:"id"`
	RecipeID     string    `msgpack:"recipe_id" json:"recipe_id"`
	InputID      string    `msgpack:"input_id" json:"input_id"`
	InputKind    InputKind `msgpack:"input_kind" json:"input_kind"`
	Quantity     float64   `msgpack:"quantity" json:"quantity"`
	QuantityUnit string    `msgpack:"quantity_unit" json:"quantity_unit"`
	Note         string    `msgpack:"note,omitempty" json:"note,omitempty"`
	SortOrder    int       `msgpack:"sort_order" json:"sort_order"`
	CreatedAt    time.Time `msgpack:"-" json:"created_at"`
	UpdatedAt    time.Time `msgpack:"-" json:"updated_at"`
}

// UsesRecipe reports whether the line is a recipe-to-recipe edge.
func (l *RecipeLine) UsesRecipe() bool {
	return l.InputKind == InputKindRecipe
}

// Validate checks the record fields a store requires.
func (l *RecipeLine) Validate() error {
	var errs []error

	if l.RecipeID == "" {
		errs = append(errs, errors.New("recipe_id is required"))
	}
	if l.InputID == "" {
		errs = append(errs, errors.New("input_id is required"))
	}
	if l.InputKind != InputKindIngredient && l.InputKind != InputKindRecipe {
		errs = append(errs, fmt.Errorf("invalid input_kind: %q", l.InputKind))
	}
	if l.Quantity < 0 {
		errs = append(errs, errors.New("quantity must be non-negative"))
	}
	if strings.TrimSpace(l.QuantityUnit) == "" {
		errs = append(errs, errors.New("quantity_unit is required"))
	}

	return errors.Join(errs...)
}

// RecipeFilter narrows recipe listings.
type RecipeFilter struct {
	TenantID   string
	Kind       *RecipeKind
	Status     *Status
	Category   *string
	SearchTerm string // Searches code and name
}

// RecipeList represents a paginated list of recipes.
type RecipeList struct {
	Recipes    []*Recipe
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}
