// Package config provides configuration management for platecost.
// Configurations are loaded from TOML files with XDG-compliant paths.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete application configuration.
type Config struct {
	Kitchen  KitchenConfig  `toml:"kitchen"`
	Costing  CostingConfig  `toml:"costing"`
	Display  DisplayConfig  `toml:"display"`
	Logging  LoggingConfig  `toml:"logging"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
}

// KitchenConfig identifies the tenant whose data is costed.
type KitchenConfig struct {
	TenantID string `toml:"tenant_id"`
	Name     string `toml:"name"`
	Currency string `toml:"currency"`
}

// CostingConfig tunes the costing engine.
type CostingConfig struct {
	// MaxYieldPct is the upper bound accepted for an ingredient's yield.
	MaxYieldPct float64 `toml:"max_yield_pct"`
	// ConflictTolerance is the relative difference above which two
	// conversion paths between the same units are reported as conflicting.
	ConflictTolerance float64 `toml:"conflict_tolerance"`
	// AuditConversions runs a full conversion audit at startup.
	AuditConversions bool `toml:"audit_conversions"`
}

// DisplayConfig controls TUI appearance.
type DisplayConfig struct {
	ColorScheme   ColorScheme `toml:"color_scheme"`
	MoneyDecimals int32       `toml:"money_decimals"`
	PageSize      int         `toml:"page_size"`
	// TargetCostPct is the food cost percentage the board treats as on
	// target; dishes above it are flagged.
	TargetCostPct float64     `toml:"target_cost_pct"`
}

// ColorScheme defines the terminal color palette.
type ColorScheme string

const (
	ColorSchemeLine  ColorScheme = "line"
	ColorSchemeBrass ColorScheme = "brass"
	ColorSchemePlain ColorScheme = "plain"
)

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level LogLevel `toml:"level"`
	File  string   `toml:"file"`
}

// LogLevel defines logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// DatabaseDriver selects where kitchen data is read from.
type DatabaseDriver string

const (
	DriverSQLite   DatabaseDriver = "sqlite"
	DriverPostgres DatabaseDriver = "postgres"
)

// DatabaseConfig controls database settings.
type DatabaseConfig struct {
	Driver              DatabaseDriver `toml:"driver"`
	Path                string         `toml:"path"`
	DSN                 string         `toml:"dsn"`
	BackupIntervalHours int            `toml:"backup_interval_hours"`
	BackupRetentionDays int            `toml:"backup_retention_days"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Listen          string `toml:"listen"`
	MetricsEnabled  bool   `toml:"metrics_enabled"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Kitchen.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("kitchen: %w", err))
	}

	if err := c.Costing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("costing: %w", err))
	}

	if err := c.Display.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the kitchen configuration is valid.
func (k *KitchenConfig) Validate() error {
	var errs []error

	if k.TenantID == "" {
		errs = append(errs, errors.New("tenant_id is required"))
	}

	if k.Currency != "" && len(k.Currency) != 3 {
		errs = append(errs, fmt.Errorf("currency must be a 3-letter code: %s", k.Currency))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the costing configuration is valid.
func (c *CostingConfig) Validate() error {
	var errs []error

	if c.MaxYieldPct < 100 {
		errs = append(errs, errors.New("max_yield_pct must be at least 100"))
	}

	if c.ConflictTolerance < 0 || c.ConflictTolerance >= 1 {
		errs = append(errs, errors.New("conflict_tolerance must be in [0, 1)"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the display configuration is valid.
func (d *DisplayConfig) Validate() error {
	var errs []error

	validSchemes := map[ColorScheme]bool{
		ColorSchemeLine:  true,
		ColorSchemeBrass: true,
		ColorSchemePlain: true,
	}

	if !validSchemes[d.ColorScheme] && d.ColorScheme != "" {
		errs = append(errs, fmt.Errorf("invalid color_scheme: %s", d.ColorScheme))
	}

	if d.MoneyDecimals < 0 || d.MoneyDecimals > 6 {
		errs = append(errs, errors.New("money_decimals must be between 0 and 6"))
	}

	if d.PageSize < 0 {
		errs = append(errs, errors.New("page_size must be non-negative"))
	}

	if d.TargetCostPct < 0 || d.TargetCostPct > 100 {
		errs = append(errs, errors.New("target_cost_pct must be between 0 and 100"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}

	if !validLevels[l.Level] && l.Level != "" {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	return nil
}

// Validate checks that the database configuration is valid.
func (d *DatabaseConfig) Validate() error {
	var errs []error

	switch d.Driver {
	case DriverSQLite, "":
		if d.Path == "" {
			errs = append(errs, errors.New("path is required for the sqlite driver"))
		}
	case DriverPostgres:
		if d.DSN == "" {
			errs = append(errs, errors.New("dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid driver: %s", d.Driver))
	}

	if d.BackupIntervalHours < 0 {
		errs = append(errs, errors.New("backup_interval_hours must be non-negative"))
	}

	if d.BackupRetentionDays < 0 {
		errs = append(errs, errors.New("backup_retention_days must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the server configuration is valid.
func (s *ServerConfig) Validate() error {
	if s.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(s.ShutdownTimeout); err != nil {
			return fmt.Errorf("invalid shutdown_timeout: %w", err)
		}
	}
	return nil
}

// ShutdownDuration returns the parsed shutdown timeout, defaulting to 10s.
func (s *ServerConfig) ShutdownDuration() time.Duration {
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Kitchen: KitchenConfig{
			TenantID: "default",
			Name:     "Main Kitchen",
			Currency: "USD",
		},
		Costing: CostingConfig{
			MaxYieldPct:       200,
			ConflictTolerance: 1e-4,
			AuditConversions:  true,
		},
		Display: DisplayConfig{
			ColorScheme:   ColorSchemeLine,
			MoneyDecimals: 2,
			PageSize:      20,
			TargetCostPct: 30,
		},
		Logging: LoggingConfig{
			Level: LogLevelInfo,
			File:  "logs/platecost.log",
		},
		Database: DatabaseConfig{
			Driver:              DriverSQLite,
			Path:                "kitchen.db",
			BackupIntervalHours: 24,
			BackupRetentionDays: 30,
		},
		Server: ServerConfig{
			Listen:          "127.0.0.1:8087",
			MetricsEnabled:  true,
			ShutdownTimeout: "10s",
		},
	}
}
