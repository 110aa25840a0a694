package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// RecoveryResult indicates the outcome of a recovery attempt.
type RecoveryResult int

const (
	// RecoverySuccess means the database was healthy or absent.
	RecoverySuccess RecoveryResult = iota
	// RecoveryFromBackup means the database was replaced by a backup.
	RecoveryFromBackup
	// RecoveryFailed means no healthy copy could be found.
	RecoveryFailed
)

func (r RecoveryResult) String() string {
	switch r {
	case RecoverySuccess:
		return "success"
	case RecoveryFromBackup:
		return "restored_from_backup"
	case RecoveryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RecoveryReport records what AttemptRecovery found and did.
type RecoveryReport struct {
	Result       RecoveryResult
	DatabasePath string
	BackupUsed   string
	// QuarantinedAs is where the damaged file was moved before restoring.
	QuarantinedAs string
	Problems      []string
}

// AttemptRecovery checks the kitchen database at dbPath and, if it fails
// its integrity check, replaces it with the newest healthy backup from
// backupDir. The damaged file is kept next to the original.
func AttemptRecovery(dbPath, backupDir string) (*RecoveryReport, error) {
	report := &RecoveryReport{DatabasePath: dbPath}

	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return report, nil
	}

	err := checkFile(dbPath)
	if err == nil {
		return report, nil
	}
	report.Problems = append(report.Problems, err.Error())
	slog.Warn("database integrity check failed", "path", dbPath, "error", err)

	if backupDir != "" {
		err := restore(dbPath, backupDir, report)
		if err == nil {
			report.Result = RecoveryFromBackup
			slog.Warn("database restored from backup", "path", dbPath, "backup", report.BackupUsed)
			return report, nil
		}
		report.Problems = append(report.Problems, err.Error())
	}

	report.Result = RecoveryFailed
	return report, fmt.Errorf("recovering %s: %v", dbPath, report.Problems)
}

// restore moves the damaged file aside and copies the newest healthy
// backup into its place.
func restore(dbPath, backupDir string, report *RecoveryReport) error {
	backup, err := newestHealthyBackup(backupDir)
	if err != nil {
		return err
	}

	quarantine := fmt.Sprintf("%s.corrupted.%s", dbPath, time.Now().Format("20060102-150405"))
	if err := os.Rename(dbPath, quarantine); err != nil {
		return fmt.Errorf("moving damaged database aside: %w", err)
	}
	report.QuarantinedAs = quarantine
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")

	if err := copyFile(backup, dbPath); err != nil {
		return err
	}
	report.BackupUsed = backup
	return nil
}

// checkFile opens an existing file (never creating one) and runs an
// integrity check. Read-write mode lets SQLite replay a WAL left behind.
func checkFile(path string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=rw", path))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return integrityCheck(ctx, db)
}

// newestHealthyBackup returns the most recently modified .db file in dir
// that passes an integrity check.
func newestHealthyBackup(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading backup directory: %w", err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".db" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{filepath.Join(dir, entry.Name()), info.ModTime()})
	}

	slices.SortFunc(candidates, func(a, b candidate) int { return b.modTime.Compare(a.modTime) })

	for _, c := range candidates {
		if err := checkFile(c.path); err != nil {
			slog.Debug("skipping unhealthy backup", "path", c.path, "error", err)
			continue
		}
		return c.path, nil
	}
	return "", errors.New("no healthy backup found")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("syncing: %w", err)
	}
	return out.Close()
}
