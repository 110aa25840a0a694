package costing

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/platecost/platecost/internal/models"
)

// SnapshotVersion is bumped when the encoded layout changes.
const SnapshotVersion = 1

// Snapshot is the tenant-scoped, already-validated data the engine costs.
// Callers must not mutate it while an Engine built from it is in use.
type Snapshot struct {
	Version     int                    `msgpack:"version"`
	TenantID    string                 `msgpack:"tenant_id"`
	Ingredients []models.Ingredient    `msgpack:"ingredients"`
	Recipes     []models.Recipe        `msgpack:"recipes"`
	Lines       []models.RecipeLine    `msgpack:"lines"`
	Conversions []models.UomConversion `msgpack:"conversions"`
}

// Encode writes the snapshot in msgpack form.
func (s *Snapshot) Encode(w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)

	out := *s
	out.Version = SnapshotVersion
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// DecodeSnapshot reads a snapshot written by Encode.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	return &s, nil
}
