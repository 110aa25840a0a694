package models

import (
	"errors"
	"strings"
)

// UomConversion is a directed conversion edge: 1 FromUnit = Factor ToUnit.
// The reverse direction is not implied.
type UomConversion struct {
	ID       string  `msgpack:"id" json:"id"`
	TenantID string  `msgpack:"tenant_id" json:"tenant_id"`
	FromUnit string  `msgpack:"from_unit" json:"from_unit"`
	ToUnit   string  `msgpack:"to_unit" json:"to_unit"`
	Factor   float64 `msgpack:"factor" json:"factor"`
}

// Validate checks the conversion edge.
func (c *UomConversion) Validate() error {
	var errs []error

	if strings.TrimSpace(c.FromUnit) == "" {
		errs = append(errs, errors.New("from_unit is required"))
	}
	if strings.TrimSpace(c.ToUnit) == "" {
		errs = append(errs, errors.New("to_unit is required"))
	}
	if c.Factor <= 0 {
		errs = append(errs, errors.New("factor must be positive"))
	}

	return errors.Join(errs...)
}

// CatalogEntry is an input a recipe line may reference: an active
// ingredient or an active prep recipe.
type CatalogEntry struct {
	ID        string    `json:"id"`
	InputKind InputKind `json:"input_kind"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	// CostUnit is the ingredient's base unit or the recipe's yield unit.
	CostUnit string `json:"cost_unit"`
}
