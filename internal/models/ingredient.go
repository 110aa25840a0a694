package models

import (
	"errors"
	"strings"
	"time"
)

// Ingredient is a purchasable item with a package size and cost.
type Ingredient struct {
	ID       string `msgpack:"id" json:"id"`
	TenantID string `msgpack:"tenant_id" json:"tenant_id"`
	Code     string `msgpack:"code" json:"code"`
	Name     string `msgpack:"name" json:"name"`
	Category string `msgpack:"category,omitempty" json:"category,omitempty"`

	// BaseUnit is the unit per-unit costs are expressed in.
	BaseUnit string `msgpack:"base_unit" json:"base_unit"`

	PackageQuantity float64 `msgpack:"package_quantity" json:"package_quantity"`
	PackageUnit     string  `msgpack:"package_unit" json:"package_unit"`
	PackageCost     float64 `msgpack:"package_cost" json:"package_cost"`

	// YieldPct is the usable percentage after trim and waste, in (0, 200].
	YieldPct float64 `msgpack:"yield_pct" json:"yield_pct"`

	Status    Status    `msgpack:"status" json:"status"`
	CreatedAt time.Time `msgpack:"-" json:"created_at"`
	UpdatedAt time.Time `msgpack:"-" json:"updated_at"`
}

// IsActive reports whether the ingredient is offered to recipes.
func (i *Ingredient) IsActive() bool {
	return i.Status == StatusActive
}

// Validate checks the record fields a store requires. Costing-specific
// checks (package conversion, yield bounds) happen in the costing engine.
func (i *Ingredient) Validate() error {
	var errs []error

	if strings.TrimSpace(i.Code) == "" {
		errs = append(errs, errors.New("code is required"))
	}
	if strings.TrimSpace(i.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(i.BaseUnit) == "" {
		errs = append(errs, errors.New("base_unit is required"))
	}
	if strings.TrimSpace(i.PackageUnit) == "" {
		errs = append(errs, errors.New("package_unit is required"))
	}
	if i.PackageCost < 0 {
		errs = append(errs, errors.New("package_cost must be non-negative"))
	}

	return errors.Join(errs...)
}

// IngredientFilter narrows ingredient listings.
type IngredientFilter struct {
	TenantID   string
	Status     *Status
	Category   *string
	SearchTerm string // Searches code and name
}

// IngredientList represents a paginated list of ingredients.
type IngredientList struct {
	Ingredients []*Ingredient
	Total       int
	Page        int
	PageSize    int
	TotalPages  int
}
