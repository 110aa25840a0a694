package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platecost/platecost/internal/models"
)

// UomRepository handles unit conversion data access.
type UomRepository struct {
	db *sql.DB
}

// NewUomRepository creates a new conversion repository.
func NewUomRepository(db *sql.DB) *UomRepository {
	return &UomRepository{db: db}
}

// Upsert stores a conversion edge, replacing the factor of an existing
// edge between the same units.
func (r *UomRepository) Upsert(ctx context.Context, tx *sql.Tx, conv *models.UomConversion) error {
	if err := conv.Validate(); err != nil {
		return fmt.Errorf("%w conversion: %w", ErrInvalid, err)
	}

	query := `
		INSERT INTO uom_conversions (id, tenant_id, from_unit, to_unit, factor, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, from_unit, to_unit) DO UPDATE SET factor = excluded.factor`

	_, err := execerFor(r.db, tx).ExecContext(ctx, query,
		conv.ID,
		conv.TenantID,
		conv.FromUnit,
		conv.ToUnit,
		conv.Factor,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting conversion: %w", err)
	}
	return nil
}

// Delete removes a conversion edge.
func (r *UomRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	result, err := execerFor(r.db, tx).ExecContext(ctx, "DELETE FROM uom_conversions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting conversion: %w", err)
	}
	return checkAffected(result, "conversion", id)
}

// List returns every conversion edge of a tenant.
func (r *UomRepository) List(ctx context.Context, tx *sql.Tx, tenantID string) ([]models.UomConversion, error) {
	rows, err := queryerFor(r.db, tx).QueryContext(ctx, `
		SELECT id, tenant_id, from_unit, to_unit, factor
		FROM uom_conversions
		WHERE tenant_id = ?
		ORDER BY from_unit, to_unit`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying conversions: %w", err)
	}
	defer rows.Close()

	var convs []models.UomConversion
	for rows.Next() {
		var c models.UomConversion
		if err := rows.Scan(&c.ID, &c.TenantID, &c.FromUnit, &c.ToUnit, &c.Factor); err != nil {
			return nil, fmt.Errorf("scanning conversion row: %w", err)
		}
		convs = append(convs, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversions: %w", err)
	}
	return convs, nil
}
