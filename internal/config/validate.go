package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateQuota(); err != nil {
		return err
	}
	if err := c.validateCollection(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateRollup(); err != nil {
		return err
	}
	return c.validateOrchestrator()
}

func (c *Config) validateQuota() error {
	if err := ensurePositiveMap(map[string]int{
		"quota.daily_unit_limit":       c.Quota.DailyUnitLimit,
		"quota.failure_threshold":      c.Quota.FailureThreshold,
		"quota.failure_window_minutes": c.Quota.FailureWindowMinutes,
		"quota.cooldown_minutes":       c.Quota.CooldownMinutes,
	}); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Quota.Timezone); err != nil {
		return fmt.Errorf("quota.timezone: unknown timezone %q", c.Quota.Timezone)
	}
	return nil
}

func (c *Config) validateCollection() error {
	if err := ensurePositiveMap(map[string]int{
		"collection.min_refresh_interval_minutes": c.Collection.MinRefreshIntervalMinutes,
		"collection.max_refresh_interval_hours":   c.Collection.MaxRefreshIntervalHours,
		"collection.trending_max_results":         c.Collection.TrendingMaxResults,
		"collection.detail_batch_size":            c.Collection.DetailBatchSize,
		"collection.fetch_concurrency":            c.Collection.FetchConcurrency,
		"collection.fetch_retries":                c.Collection.FetchRetries,
		"collection.item_ttl_minutes":             c.Collection.ItemTTLMinutes,
		"collection.trending_cost_units":          c.Collection.TrendingCostUnits,
		"collection.detail_cost_units":            c.Collection.DetailCostUnits,
	}); err != nil {
		return err
	}
	if c.Collection.MinSuccessRate < 0 || c.Collection.MinSuccessRate > 1 {
		return errors.New("collection.min_success_rate must be between 0 and 1")
	}
	if c.Collection.OverdueWeight < 0 {
		return errors.New("collection.overdue_weight must not be negative")
	}
	if c.MaxRefreshInterval() < c.MinRefreshInterval() {
		return errors.New("collection.max_refresh_interval_hours must not undercut the minimum refresh interval")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if err := ensurePositiveMap(map[string]int{
		"analysis.cache_ttl_minutes": c.Analysis.CacheTTLMinutes,
		"analysis.max_concurrent":    c.Analysis.MaxConcurrent,
		"analysis.timeout_seconds":   c.Analysis.TimeoutSeconds,
		"analysis.min_items":         c.Analysis.MinItems,
	}); err != nil {
		return err
	}
	if c.Analysis.ConfidenceBase < 0 || c.Analysis.ConfidenceBase > 100 {
		return errors.New("analysis.confidence_base must be between 0 and 100")
	}
	if c.Analysis.ConfidenceCeiling < c.Analysis.ConfidenceBase || c.Analysis.ConfidenceCeiling > 100 {
		return errors.New("analysis.confidence_ceiling must be between confidence_base and 100")
	}
	return nil
}

func (c *Config) validateRollup() error {
	if err := ensurePositiveMap(map[string]int{
		"rollup.hourly_retention_days": c.Rollup.HourlyRetentionDays,
		"rollup.daily_retention_days":  c.Rollup.DailyRetentionDays,
	}); err != nil {
		return err
	}
	if c.Rollup.DailyRetentionDays < c.Rollup.HourlyRetentionDays {
		return errors.New("rollup.daily_retention_days must not undercut hourly retention")
	}
	return nil
}

func (c *Config) validateOrchestrator() error {
	return ensurePositiveMap(map[string]int{
		"orchestrator.tick_seconds":           c.Orchestrator.TickSeconds,
		"orchestrator.task_timeout_minutes":   c.Orchestrator.TaskTimeoutMinutes,
		"orchestrator.max_backoff_multiplier": c.Orchestrator.MaxBackoffMultiplier,
		"orchestrator.shutdown_grace_seconds": c.Orchestrator.ShutdownGraceSeconds,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
