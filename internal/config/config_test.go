package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file to be reported as absent")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Quota.DailyUnitLimit != defaultDailyUnitLimit {
		t.Fatalf("daily unit limit = %d, want default %d", cfg.Quota.DailyUnitLimit, defaultDailyUnitLimit)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
state_dir = "` + filepath.Join(dir, "state") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[quota]
daily_unit_limit = 12
timezone = "America/Chicago"

[collection]
categories = ["Deep Rock", "  ", "deep rock", "Satisfactory"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if cfg.Quota.DailyUnitLimit != 12 {
		t.Fatalf("daily unit limit = %d, want 12", cfg.Quota.DailyUnitLimit)
	}
	if got := cfg.Location().String(); got != "America/Chicago" {
		t.Fatalf("location = %q, want America/Chicago", got)
	}
	// Blank and case-insensitive duplicate categories are dropped.
	if len(cfg.Collection.Categories) != 2 {
		t.Fatalf("categories = %v, want 2 entries", cfg.Collection.Categories)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*Config)
		fragment string
	}{
		{
			name:     "zero quota",
			mutate:   func(c *Config) { c.Quota.DailyUnitLimit = 0 },
			fragment: "daily_unit_limit",
		},
		{
			name:     "bad timezone",
			mutate:   func(c *Config) { c.Quota.Timezone = "Mars/Olympus" },
			fragment: "timezone",
		},
		{
			name:     "success rate out of range",
			mutate:   func(c *Config) { c.Collection.MinSuccessRate = 1.5 },
			fragment: "min_success_rate",
		},
		{
			name: "refresh ceiling below minimum",
			mutate: func(c *Config) {
				c.Collection.MinRefreshIntervalMinutes = 120
				c.Collection.MaxRefreshIntervalHours = 1
			},
			fragment: "max_refresh_interval_hours",
		},
		{
			name:     "confidence ceiling below base",
			mutate:   func(c *Config) { c.Analysis.ConfidenceCeiling = 10 },
			fragment: "confidence_ceiling",
		},
		{
			name:     "daily retention below hourly",
			mutate:   func(c *Config) { c.Rollup.DailyRetentionDays = 1 },
			fragment: "daily_retention_days",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.fragment) {
				t.Fatalf("error %q does not mention %q", err, tc.fragment)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	if got := cfg.MinRefreshInterval(); got != 30*time.Minute {
		t.Fatalf("MinRefreshInterval = %v", got)
	}
	if got := cfg.MaxRefreshInterval(); got != 24*time.Hour {
		t.Fatalf("MaxRefreshInterval = %v", got)
	}
	if got := cfg.AnalyzerTimeout(); got != 60*time.Second {
		t.Fatalf("AnalyzerTimeout = %v", got)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[quota]") {
		t.Fatal("sample config missing quota section")
	}
}
