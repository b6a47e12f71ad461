package api

import (
	"encoding/json"
	"time"
)

// StatusResponse is the daemon-wide view served by GET /api/status.
type StatusResponse struct {
	Running     bool         `json:"running"`
	StartedAt   time.Time    `json:"started_at"`
	RunningTask string       `json:"running_task,omitempty"`
	SuccessRate float64      `json:"success_rate"`
	Tasks       []TaskStatus `json:"tasks"`
	Quota       QuotaStatus  `json:"quota"`
}

// TaskStatus is one scheduled task's state on the wire.
type TaskStatus struct {
	Name                string    `json:"name"`
	Priority            int       `json:"priority"`
	Interval            string    `json:"interval"`
	Running             bool      `json:"running"`
	NextRun             time.Time `json:"next_run"`
	LastRunAt           time.Time `json:"last_run_at"`
	LastSuccessAt       time.Time `json:"last_success_at"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	RunCount            int       `json:"run_count"`
	SuccessCount        int       `json:"success_count"`
}

// QuotaStatus is the budget view served by GET /api/quota.
type QuotaStatus struct {
	WindowStart    time.Time `json:"window_start"`
	UnitsUsed      int       `json:"units_used"`
	UnitsLimit     int       `json:"units_limit"`
	UnitsRemaining int       `json:"units_remaining"`
	BreakerOpen    bool      `json:"breaker_open"`
}

// TriggerResponse acknowledges POST /api/tasks/{name}/trigger.
type TriggerResponse struct {
	Task      string `json:"task"`
	Triggered bool   `json:"triggered"`
	Message   string `json:"message,omitempty"`
}

// Insight is one analyzer's cached result with its decay verdict applied.
// Confidence is the decay-adjusted score; stale results answer with lower
// confidence instead of an error.
type Insight struct {
	Analyzer       string          `json:"analyzer"`
	Category       string          `json:"category"`
	Confidence     int             `json:"confidence"`
	BaseConfidence int             `json:"base_confidence"`
	Freshness      string          `json:"freshness"`
	ShouldRefresh  bool            `json:"should_refresh"`
	ItemCount      int             `json:"item_count"`
	AnalyzedAt     time.Time       `json:"analyzed_at"`
	Age            string          `json:"age"`
	Data           json.RawMessage `json:"data"`
}

// InsightsResponse is served by GET /api/insights?category=.
type InsightsResponse struct {
	Category string    `json:"category"`
	Insights []Insight `json:"insights"`
}

// ErrorResponse carries a failure message on non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
