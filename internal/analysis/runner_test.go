package analysis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"vantage/internal/analysis"
	"vantage/internal/config"
	"vantage/internal/logging"
	"vantage/internal/testsupport"
)

type stubAnalyzer struct {
	name string
	fn   func(ctx context.Context, categoryKey string) (*analysis.Result, error)
}

func (s stubAnalyzer) Name() string { return s.name }

func (s stubAnalyzer) Analyze(ctx context.Context, categoryKey string) (*analysis.Result, error) {
	return s.fn(ctx, categoryKey)
}

func okStub(name string) stubAnalyzer {
	return stubAnalyzer{name: name, fn: func(_ context.Context, categoryKey string) (*analysis.Result, error) {
		return &analysis.Result{
			Analyzer:    name,
			CategoryKey: categoryKey,
			Data:        []byte(`{}`),
			AnalyzedAt:  time.Now().UTC(),
		}, nil
	}}
}

func newRunner(t *testing.T, cfg *config.Config, analyzers ...analysis.Analyzer) *analysis.Runner {
	t.Helper()

	store := testsupport.OpenStateStore(t, cfg)
	logger := logging.NewNop()
	cache := analysis.NewCache(cfg, store, logger)
	return analysis.NewRunner(cfg, cache, logger, analyzers...)
}

func TestRunnerTimeoutDoesNotBlockOthers(t *testing.T) {
	cfg := testsupport.NewConfig(t, func(c *config.Config) {
		c.Analysis.TimeoutSeconds = 1
	})

	hung := stubAnalyzer{name: "hung", fn: func(ctx context.Context, _ string) (*analysis.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	runner := newRunner(t, cfg, okStub("fast"), hung)

	started := time.Now()
	report := runner.AnalyzeCategory(context.Background(), "deep-rock", true)
	if elapsed := time.Since(started); elapsed > 5*time.Second {
		t.Fatalf("category pass took %v, timeout is not isolating", elapsed)
	}

	if report.Succeeded != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v, want 1 succeeded and 1 failed", report)
	}
	for _, outcome := range report.Outcomes {
		if outcome.Analyzer == "hung" && outcome.Kind != analysis.OutcomeTimedOut {
			t.Fatalf("hung analyzer outcome = %s, want timed_out", outcome.Kind)
		}
		if outcome.Analyzer == "fast" && outcome.Kind != analysis.OutcomeOK {
			t.Fatalf("fast analyzer outcome = %s, want ok", outcome.Kind)
		}
	}
}

func TestRunnerCountsNoResultSeparately(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	declined := stubAnalyzer{name: "declined", fn: func(context.Context, string) (*analysis.Result, error) {
		return nil, nil
	}}
	broken := stubAnalyzer{name: "broken", fn: func(context.Context, string) (*analysis.Result, error) {
		return nil, errors.New("upstream parse failure")
	}}
	runner := newRunner(t, cfg, okStub("fine"), declined, broken)

	report := runner.AnalyzeCategory(context.Background(), "deep-rock", true)
	if report.Succeeded != 1 || report.NoResult != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v, want exactly one of each outcome", report)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("errors = %v, want only the broken analyzer's", report.Errors)
	}
	if report.RunID == "" {
		t.Fatal("report missing run id")
	}
}

func TestRunnerContainsCategoryPanic(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	angry := stubAnalyzer{name: "angry", fn: func(context.Context, string) (*analysis.Result, error) {
		panic("exploded while bucketing")
	}}
	runner := newRunner(t, cfg, angry, okStub("calm"))

	reports := runner.AnalyzeAll(context.Background(), []string{"deep-rock", "factorio"}, true)
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	for _, report := range reports {
		// The panic is contained per analyzer: the calm one still succeeds.
		if report.Failed != 1 || report.Succeeded != 1 {
			t.Fatalf("report for %s = %+v, want panic isolated to one analyzer", report.CategoryKey, report)
		}
	}
}
