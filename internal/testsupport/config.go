package testsupport

import (
	"path/filepath"
	"testing"

	"vantage/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Collection.Categories = []string{"deep-rock", "satisfactory", "factorio"}

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithCategories overrides the tracked category list.
func WithCategories(categories ...string) ConfigOption {
	return func(c *config.Config) {
		c.Collection.Categories = categories
	}
}

// WithQuotaLimit overrides the daily unit budget.
func WithQuotaLimit(limit int) ConfigOption {
	return func(c *config.Config) {
		c.Quota.DailyUnitLimit = limit
	}
}
