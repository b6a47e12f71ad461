package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Quota contains the external unit budget and circuit breaker settings.
type Quota struct {
	DailyUnitLimit       int    `toml:"daily_unit_limit"`
	Timezone             string `toml:"timezone"`
	FailureThreshold     int    `toml:"failure_threshold"`
	FailureWindowMinutes int    `toml:"failure_window_minutes"`
	CooldownMinutes      int    `toml:"cooldown_minutes"`
}

// Collection contains configuration for the batch collector and the adaptive
// per-category refresh policy.
type Collection struct {
	Categories                []string `toml:"categories"`
	MinRefreshIntervalMinutes int      `toml:"min_refresh_interval_minutes"`
	MaxRefreshIntervalHours   int      `toml:"max_refresh_interval_hours"`
	TrendingMaxResults        int      `toml:"trending_max_results"`
	DetailBatchSize           int      `toml:"detail_batch_size"`
	FetchConcurrency          int      `toml:"fetch_concurrency"`
	FetchRetries              int      `toml:"fetch_retries"`
	ItemTTLMinutes            int      `toml:"item_ttl_minutes"`
	TrendingCostUnits         int      `toml:"trending_cost_units"`
	DetailCostUnits           int      `toml:"detail_cost_units"`
	MinSuccessRate            float64  `toml:"min_success_rate"`
	OverdueWeight             float64  `toml:"overdue_weight"`
}

// Analysis contains configuration for the analyzer framework and runner.
type Analysis struct {
	CacheTTLMinutes   int `toml:"cache_ttl_minutes"`
	MaxConcurrent     int `toml:"max_concurrent"`
	TimeoutSeconds    int `toml:"timeout_seconds"`
	MinItems          int `toml:"min_items"`
	ConfidenceBase    int `toml:"confidence_base"`
	ConfidenceCeiling int `toml:"confidence_ceiling"`
}

// Rollup contains retention windows for the warm and cold aggregate tiers.
type Rollup struct {
	HourlyRetentionDays int `toml:"hourly_retention_days"`
	DailyRetentionDays  int `toml:"daily_retention_days"`
}

// Orchestrator contains scheduler loop timing and failure backoff settings.
type Orchestrator struct {
	TickSeconds          int `toml:"tick_seconds"`
	TaskTimeoutMinutes   int `toml:"task_timeout_minutes"`
	MaxBackoffMultiplier int `toml:"max_backoff_multiplier"`
	ShutdownGraceSeconds int `toml:"shutdown_grace_seconds"`
}

// Config encapsulates all configuration values for vantage.
//
// Configuration sections by subsystem:
//   - Paths: state/log directories and API bind address
//   - Logging: log format and level
//   - Quota: daily unit budget, reset timezone, circuit breaker thresholds
//   - Collection: tracked categories, refresh policy, batching and retries
//   - Analysis: analyzer cache TTL, concurrency, timeouts, confidence scoring
//   - Rollup: hourly/daily aggregate retention
//   - Orchestrator: tick interval, task timeout, failure backoff, shutdown grace
type Config struct {
	Paths        Paths        `toml:"paths"`
	Logging      Logging      `toml:"logging"`
	Quota        Quota        `toml:"quota"`
	Collection   Collection   `toml:"collection"`
	Analysis     Analysis     `toml:"analysis"`
	Rollup       Rollup       `toml:"rollup"`
	Orchestrator Orchestrator `toml:"orchestrator"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vantage/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vantage.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Location returns the quota reset timezone, falling back to UTC when the
// configured zone cannot be loaded.
func (c *Config) Location() *time.Location {
	zone := strings.TrimSpace(c.Quota.Timezone)
	if zone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MinRefreshInterval returns the configured minimum category refresh interval.
func (c *Config) MinRefreshInterval() time.Duration {
	return time.Duration(c.Collection.MinRefreshIntervalMinutes) * time.Minute
}

// MaxRefreshInterval returns the ceiling for the adaptive refresh interval.
func (c *Config) MaxRefreshInterval() time.Duration {
	return time.Duration(c.Collection.MaxRefreshIntervalHours) * time.Hour
}

// ItemTTL returns the hot-store retention for raw collected item sets.
func (c *Config) ItemTTL() time.Duration {
	return time.Duration(c.Collection.ItemTTLMinutes) * time.Minute
}

// AnalysisCacheTTL returns the freshness window for cached analysis results.
func (c *Config) AnalysisCacheTTL() time.Duration {
	return time.Duration(c.Analysis.CacheTTLMinutes) * time.Minute
}

// AnalyzerTimeout returns the per-analyzer execution budget.
func (c *Config) AnalyzerTimeout() time.Duration {
	return time.Duration(c.Analysis.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
