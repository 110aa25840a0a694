package database

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/platecost/platecost/internal/config"
)

func TestMigrateUpAndDown(t *testing.T) {
	ctx := context.Background()
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory() error = %v", err)
	}
	defer db.Close()

	m, err := NewMigrator(db)
	if err != nil {
		t.Fatalf("NewMigrator() error = %v", err)
	}

	result, err := m.MigrateUp(ctx)
	if err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	if len(result.Applied) != 2 || result.TargetVersion != 2 {
		t.Errorf("MigrateUp() = %+v, want two migrations up to version 2", result)
	}

	// Running again is a no-op.
	again, err := m.MigrateUp(ctx)
	if err != nil || len(again.Applied) != 0 {
		t.Errorf("second MigrateUp() = %+v, %v; want nothing applied", again, err)
	}

	status, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	for _, s := range status {
		if !s.Applied {
			t.Errorf("migration %03d not marked applied", s.Version)
		}
	}

	down, err := m.MigrateDown(ctx)
	if err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if down.TargetVersion != 1 {
		t.Errorf("MigrateDown() target = %d, want 1", down.TargetVersion)
	}
	if v, _ := m.CurrentVersion(ctx); v != 1 {
		t.Errorf("CurrentVersion() = %d, want 1", v)
	}

	var views int
	db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'view' AND name = 'input_catalog'").Scan(&views)
	if views != 0 {
		t.Error("input_catalog view still present after rollback")
	}
}

func TestSchemaConstraints(t *testing.T) {
	ctx := context.Background()
	db, err := NewMigratedInMemory(ctx)
	if err != nil {
		t.Fatalf("NewMigratedInMemory() error = %v", err)
	}
	defer db.Close()

	tests := []struct {
		name string
		sql  string
	}{
		{"non-positive factor", `INSERT INTO uom_conversions (id, tenant_id, from_unit, to_unit, factor, created_at)
			VALUES ('c1', 't', 'kg', 'g', 0, '2026-01-01T00:00:00Z')`},
		{"unknown recipe kind", `INSERT INTO recipes (id, tenant_id, code, name, kind, yield_quantity, yield_unit, created_at, updated_at)
			VALUES ('r1', 't', 'R1', 'R', 'side', 1, 'g', '', '')`},
		{"negative line quantity", `INSERT INTO recipe_lines (id, recipe_id, input_id, input_kind, quantity, quantity_unit, created_at, updated_at)
			VALUES ('l1', 'missing', 'x', 'ingredient', -1, 'g', '', '')`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.ExecContext(ctx, tt.sql); err == nil {
				t.Errorf("insert succeeded, want constraint violation")
			}
		})
	}
}

func TestParseMigration(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantUp   string
		wantDown string
	}{
		{"no markers", "CREATE TABLE a (x);", "CREATE TABLE a (x);", ""},
		{"up only", "-- +migrate Up\nCREATE TABLE a (x);", "CREATE TABLE a (x);", ""},
		{"both", "-- +migrate Up\nCREATE TABLE a (x);\n-- +migrate Down\nDROP TABLE a;", "CREATE TABLE a (x);", "DROP TABLE a;"},
		{"down first", "-- +migrate Down\nDROP TABLE a;\n-- +migrate Up\nCREATE TABLE a (x);", "CREATE TABLE a (x);", "DROP TABLE a;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up, down := parseMigration(tt.content)
			if up != tt.wantUp || down != tt.wantDown {
				t.Errorf("parseMigration() = %q, %q; want %q, %q", up, down, tt.wantUp, tt.wantDown)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	sqlText := `
-- leading comment
CREATE TABLE a (x TEXT DEFAULT 'a;b');
INSERT INTO a VALUES ("c;d");
-- trailing comment only
`
	got := splitStatements(sqlText)
	want := []string{
		"-- leading comment\nCREATE TABLE a (x TEXT DEFAULT 'a;b')",
		`INSERT INTO a VALUES ("c;d")`,
	}
	if !slices.Equal(got, want) {
		t.Errorf("splitStatements() = %q, want %q", got, want)
	}
}

func TestOpenBackupAndStats(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")
	if err := os.MkdirAll(backupDir, 0750); err != nil {
		t.Fatal(err)
	}

	cfg := &config.DatabaseConfig{Path: "kitchen.db", BackupRetentionDays: 30}
	db, err := Open(filepath.Join(dir, "kitchen.db"), cfg, backupDir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	m, err := NewMigrator(db)
	if err != nil {
		t.Fatalf("NewMigrator() error = %v", err)
	}
	if _, err := m.MigrateUp(ctx); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.SchemaVersion != 2 || stats.Recipes != 0 {
		t.Errorf("GetStats() = %+v, want schema 2 and no recipes", stats)
	}

	backup, err := db.Backup(ctx)
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if _, err := os.Stat(backup); err != nil {
		t.Errorf("backup file missing: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := db.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() after Close() succeeded")
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestAttemptRecovery(t *testing.T) {
	t.Run("missing database is fine", func(t *testing.T) {
		report, err := AttemptRecovery(filepath.Join(t.TempDir(), "none.db"), "")
		if err != nil || report.Result != RecoverySuccess {
			t.Errorf("AttemptRecovery() = %v, %v; want success", report.Result, err)
		}
	})

	t.Run("restores from backup", func(t *testing.T) {
		ctx := context.Background()
		dir := t.TempDir()
		backupDir := filepath.Join(dir, "backups")
		os.MkdirAll(backupDir, 0750)
		dbPath := filepath.Join(dir, "kitchen.db")

		db, err := Open(dbPath, &config.DatabaseConfig{Path: dbPath}, backupDir)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if _, err := db.ExecContext(ctx, "CREATE TABLE marker (x)"); err != nil {
			t.Fatal(err)
		}
		if _, err := db.Backup(ctx); err != nil {
			t.Fatalf("Backup() error = %v", err)
		}
		db.Close()

		if err := os.WriteFile(dbPath, []byte("definitely not sqlite, just noise to fail the header check"), 0640); err != nil {
			t.Fatal(err)
		}

		report, err := AttemptRecovery(dbPath, backupDir)
		if err != nil {
			t.Fatalf("AttemptRecovery() error = %v (problems %v)", err, report.Problems)
		}
		if report.Result != RecoveryFromBackup {
			t.Errorf("Result = %v, want %v", report.Result, RecoveryFromBackup)
		}
		if report.QuarantinedAs == "" {
			t.Error("damaged file was not kept")
		}
		if err := checkFile(dbPath); err != nil {
			t.Errorf("restored database fails integrity check: %v", err)
		}
	})

	t.Run("fails without backups", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "kitchen.db")
		os.WriteFile(dbPath, []byte("garbage garbage garbage garbage garbage garbage garbage"), 0640)

		report, err := AttemptRecovery(dbPath, filepath.Join(dir, "empty"))
		if err == nil || report.Result != RecoveryFailed {
			t.Errorf("AttemptRecovery() = %v, %v; want failure", report.Result, err)
		}
	})
}
