package api

import (
	"time"

	"vantage/internal/analysis"
	"vantage/internal/decay"
	"vantage/internal/orchestrator"
	"vantage/internal/quota"
)

// ConvertStatus maps the orchestrator snapshot onto the wire format.
func ConvertStatus(status orchestrator.Status) StatusResponse {
	resp := StatusResponse{
		Running:     true,
		RunningTask: status.Running,
		SuccessRate: status.SuccessRate,
		Quota:       ConvertQuota(status.Quota),
	}
	for _, task := range status.Tasks {
		resp.Tasks = append(resp.Tasks, TaskStatus{
			Name:                task.Name,
			Priority:            task.Priority,
			Interval:            task.Interval.String(),
			Running:             task.Running,
			NextRun:             task.NextRun,
			LastRunAt:           task.State.LastRunAt,
			LastSuccessAt:       task.State.LastSuccessAt,
			LastError:           task.State.LastError,
			ConsecutiveFailures: task.State.ConsecutiveFailures,
			RunCount:            task.State.RunCount,
			SuccessCount:        task.State.SuccessCount,
		})
	}
	return resp
}

// ConvertQuota maps the budget snapshot onto the wire format.
func ConvertQuota(snapshot quota.Snapshot) QuotaStatus {
	return QuotaStatus{
		WindowStart:    snapshot.WindowStart,
		UnitsUsed:      snapshot.UnitsUsed,
		UnitsLimit:     snapshot.UnitsLimit,
		UnitsRemaining: snapshot.UnitsRemaining,
		BreakerOpen:    snapshot.BreakerOpen,
	}
}

// ConvertInsight folds a decay verdict into a cached analyzer result. The
// adjusted confidence scales the stored score by the freshness tier, so old
// answers are still answers, just weaker ones.
func ConvertInsight(result *analysis.Result, verdict decay.Result) Insight {
	return Insight{
		Analyzer:       result.Analyzer,
		Category:       result.CategoryKey,
		Confidence:     result.Confidence * verdict.Confidence / 100,
		BaseConfidence: result.Confidence,
		Freshness:      string(verdict.Level),
		ShouldRefresh:  verdict.ShouldRefresh,
		ItemCount:      result.ItemCount,
		AnalyzedAt:     result.AnalyzedAt,
		Age:            verdict.Age.Round(time.Second).String(),
		Data:           result.Data,
	}
}
