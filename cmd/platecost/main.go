// platecost: recipe costing for commercial kitchens.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platecost/platecost/internal/api"
	"github.com/platecost/platecost/internal/config"
	"github.com/platecost/platecost/internal/database"
	"github.com/platecost/platecost/internal/database/seed"
	"github.com/platecost/platecost/internal/repository/postgres"
	"github.com/platecost/platecost/internal/services/costs"
	"github.com/platecost/platecost/internal/tui"
)

// Build information (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

type options struct {
	configPath     string
	migrateOnly    bool
	seedPath       string
	serve          bool
	exportSnapshot string
	debug          bool
}

func main() {
	var (
		opts        options
		showVersion bool
	)
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&opts.migrateOnly, "migrate-only", false, "Run migrations and exit")
	flag.StringVar(&opts.seedPath, "seed", "", `Load a kitchen file ("demo" for the built-in pizzeria) and exit`)
	flag.BoolVar(&opts.serve, "serve", false, "Serve the HTTP API instead of the TUI")
	flag.StringVar(&opts.exportSnapshot, "export-snapshot", "", "Write the tenant snapshot as msgpack to this path and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version and exit")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if showVersion {
		fmt.Printf("platecost version %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		// Force exit after timeout
		time.AfterFunc(10*time.Second, func() {
			slog.Error("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	if err := run(ctx, opts); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, cfgPath, err := config.Load(opts.configPath, true)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	closeLog, err := setupLogging(cfg, opts.debug)
	if err != nil {
		return err
	}
	defer closeLog()

	slog.Info("platecost starting",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cfgPath,
		"tenant", cfg.Kitchen.TenantID,
		"driver", cfg.Database.Driver,
	)

	var (
		svc    *costs.Service
		health api.HealthFunc
	)

	if cfg.Database.Driver == config.DriverPostgres {
		if opts.migrateOnly || opts.seedPath != "" {
			return errors.New("migrations and seeding are only supported on the sqlite driver")
		}

		store, err := postgres.Connect(ctx, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer store.Close()

		svc = costs.NewService(nil, cfg, costs.WithSource(store))
		health = store.HealthCheck
	} else {
		db, err := openSQLite(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			slog.Info("closing database")
			if err := db.Close(); err != nil {
				slog.Error("error closing database", "error", err)
			}
		}()

		if opts.migrateOnly {
			slog.Info("migrations complete, exiting")
			return nil
		}

		if opts.seedPath != "" {
			return loadSeed(ctx, db, cfg.Kitchen.TenantID, opts.seedPath)
		}

		svc = costs.NewService(db.DB, cfg)
		health = db.HealthCheck
	}

	if cfg.Costing.AuditConversions {
		if _, err := svc.AuditConversions(ctx); err != nil {
			slog.Error("conversion audit failed", "error", err)
		}
	}

	if opts.exportSnapshot != "" {
		return exportSnapshot(ctx, svc, opts.exportSnapshot)
	}

	if opts.serve {
		srv := api.NewServer(svc, health, cfg.Server)
		if err := srv.ListenAndServe(ctx, cfg.Server.Listen); err != nil {
			return fmt.Errorf("API server: %w", err)
		}
		slog.Info("platecost shutdown complete")
		return nil
	}

	tui.Version = Version
	tui.BuildTime = BuildTime

	slog.Info("starting TUI", "kitchen", cfg.Kitchen.Name)

	if err := tui.Run(ctx, svc, cfg); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	slog.Info("platecost shutdown complete")
	return nil
}

// setupLogging installs the default slog logger. The returned func closes
// the log file, if one was opened.
func setupLogging(cfg *config.Config, debug bool) (func(), error) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.Logging.Level {
		case config.LogLevelDebug:
			logLevel = slog.LevelDebug
		case config.LogLevelWarn:
			logLevel = slog.LevelWarn
		case config.LogLevelError:
			logLevel = slog.LevelError
		}
	}

	logPath, err := config.EnsureLogDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	closeFn := func() {}
	var logHandler slog.Handler
	if logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		closeFn = func() { logFile.Close() }

		logHandler = slog.NewJSONHandler(logFile, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		logHandler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		})
	}

	slog.SetDefault(slog.New(logHandler))
	return closeFn, nil
}

// openSQLite recovers, opens and migrates the local kitchen database.
func openSQLite(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	dbPath, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("ensuring data directory: %w", err)
	}

	backupDir, err := config.BackupDir(cfg)
	if err != nil {
		slog.Warn("failed to create backup directory", "error", err)
		backupDir = ""
	}

	if _, err := os.Stat(dbPath); err == nil {
		report, err := database.AttemptRecovery(dbPath, backupDir)
		if err != nil {
			if report != nil {
				slog.Error("database recovery failed",
					"path", dbPath,
					"problems", report.Problems,
				)
			}
			return nil, fmt.Errorf("database recovery failed: %w", err)
		}

		switch report.Result {
		case database.RecoveryFromBackup:
			slog.Warn("database restored from backup",
				"backup", report.BackupUsed,
				"quarantined_as", report.QuarantinedAs,
			)
		case database.RecoverySuccess:
			slog.Debug("database integrity verified")
		}
	}

	db, err := database.Open(dbPath, &cfg.Database, backupDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	migrator, err := database.NewMigrator(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}

	result, err := migrator.MigrateUp(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if len(result.Applied) > 0 {
		slog.Info("applied migrations",
			"count", len(result.Applied),
			"to_version", result.TargetVersion,
		)
	}

	return db, nil
}

func loadSeed(ctx context.Context, db *database.DB, tenantID, path string) error {
	loader := seed.NewLoader(db.DB, tenantID)

	var (
		result *seed.Result
		err    error
	)
	if path == "demo" {
		slog.Info("loading demo kitchen", "tenant", tenantID)
		result, err = loader.Load(ctx, seed.Demo())
	} else {
		slog.Info("loading kitchen file", "tenant", tenantID, "path", path)
		result, err = loader.LoadFile(ctx, path)
	}

	if errors.Is(err, seed.ErrAlreadySeeded) {
		slog.Warn("tenant already has kitchen data, skipping seed", "tenant", tenantID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading seed data: %w", err)
	}

	slog.Info("seed data loaded",
		"conversions", result.Conversions,
		"ingredients", result.Ingredients,
		"recipes", result.Recipes,
		"lines", result.Lines,
	)
	return nil
}

func exportSnapshot(ctx context.Context, svc *costs.Service, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}

	if err := svc.ExportSnapshot(ctx, f); err != nil {
		f.Close()
		return fmt.Errorf("exporting snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing snapshot file: %w", err)
	}

	slog.Info("snapshot exported", "path", path, "tenant", svc.TenantID())
	return nil
}
