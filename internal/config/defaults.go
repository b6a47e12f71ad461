package config

const (
	defaultStateDir = "~/.local/share/vantage"
	defaultLogDir   = "~/.local/share/vantage/logs"
	defaultAPIBind  = "127.0.0.1:7591"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultDailyUnitLimit       = 10000
	defaultQuotaTimezone        = "UTC"
	defaultFailureThreshold     = 3
	defaultFailureWindowMinutes = 60
	defaultCooldownMinutes      = 30

	defaultMinRefreshIntervalMinutes = 30
	defaultMaxRefreshIntervalHours   = 24
	defaultTrendingMaxResults        = 100
	defaultDetailBatchSize           = 100
	defaultFetchConcurrency          = 4
	defaultFetchRetries              = 3
	defaultItemTTLMinutes            = 90
	defaultTrendingCostUnits         = 1
	defaultDetailCostUnits           = 1
	defaultOverdueWeight             = 2.0

	defaultAnalysisCacheTTLMinutes = 60
	defaultAnalysisMaxConcurrent   = 3
	defaultAnalysisTimeoutSeconds  = 60
	defaultAnalysisMinItems        = 10
	defaultConfidenceBase          = 50
	defaultConfidenceCeiling       = 95

	defaultHourlyRetentionDays = 7
	defaultDailyRetentionDays  = 365

	defaultTickSeconds          = 10
	defaultTaskTimeoutMinutes   = 10
	defaultMaxBackoffMultiplier = 8
	defaultShutdownGraceSeconds = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Quota: Quota{
			DailyUnitLimit:       defaultDailyUnitLimit,
			Timezone:             defaultQuotaTimezone,
			FailureThreshold:     defaultFailureThreshold,
			FailureWindowMinutes: defaultFailureWindowMinutes,
			CooldownMinutes:      defaultCooldownMinutes,
		},
		Collection: Collection{
			MinRefreshIntervalMinutes: defaultMinRefreshIntervalMinutes,
			MaxRefreshIntervalHours:   defaultMaxRefreshIntervalHours,
			TrendingMaxResults:        defaultTrendingMaxResults,
			DetailBatchSize:           defaultDetailBatchSize,
			FetchConcurrency:          defaultFetchConcurrency,
			FetchRetries:              defaultFetchRetries,
			ItemTTLMinutes:            defaultItemTTLMinutes,
			TrendingCostUnits:         defaultTrendingCostUnits,
			DetailCostUnits:           defaultDetailCostUnits,
			MinSuccessRate:            0,
			OverdueWeight:             defaultOverdueWeight,
		},
		Analysis: Analysis{
			CacheTTLMinutes:   defaultAnalysisCacheTTLMinutes,
			MaxConcurrent:     defaultAnalysisMaxConcurrent,
			TimeoutSeconds:    defaultAnalysisTimeoutSeconds,
			MinItems:          defaultAnalysisMinItems,
			ConfidenceBase:    defaultConfidenceBase,
			ConfidenceCeiling: defaultConfidenceCeiling,
		},
		Rollup: Rollup{
			HourlyRetentionDays: defaultHourlyRetentionDays,
			DailyRetentionDays:  defaultDailyRetentionDays,
		},
		Orchestrator: Orchestrator{
			TickSeconds:          defaultTickSeconds,
			TaskTimeoutMinutes:   defaultTaskTimeoutMinutes,
			MaxBackoffMultiplier: defaultMaxBackoffMultiplier,
			ShutdownGraceSeconds: defaultShutdownGraceSeconds,
		},
	}
}
