package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"vantage/internal/config"
	"vantage/internal/logging"
)

// OutcomeKind classifies how a single analyzer execution ended.
type OutcomeKind string

const (
	OutcomeOK       OutcomeKind = "ok"
	OutcomeNoResult OutcomeKind = "no_result"
	OutcomeFailed   OutcomeKind = "failed"
	OutcomeTimedOut OutcomeKind = "timed_out"
)

// Outcome records one analyzer's run within a category pass.
type Outcome struct {
	Analyzer string
	Kind     OutcomeKind
	Result   *Result
	Err      error
	Duration time.Duration
}

// Report summarizes one category pass across all registered analyzers.
type Report struct {
	CategoryKey string
	RunID       string
	Outcomes    []Outcome
	Succeeded   int
	NoResult    int
	Failed      int
	Errors      []error
	Duration    time.Duration
}

// Runner executes all registered analyzers for a category with bounded
// concurrency and a per-analyzer timeout. A slow or hung analyzer is cut off
// at its deadline without delaying the others.
type Runner struct {
	cfg       *config.Config
	cache     *Cache
	analyzers []Analyzer
	logger    *slog.Logger
}

// NewRunner builds a runner over the given analyzers. Registration order is
// preserved in reports.
func NewRunner(cfg *config.Config, cache *Cache, logger *slog.Logger, analyzers ...Analyzer) *Runner {
	return &Runner{
		cfg:       cfg,
		cache:     cache,
		analyzers: analyzers,
		logger:    logging.NewComponentLogger(logger, "analysis-runner"),
	}
}

// Analyzers returns the registered analyzer names in execution order.
func (r *Runner) Analyzers() []string {
	names := make([]string, 0, len(r.analyzers))
	for _, analyzer := range r.analyzers {
		names = append(names, analyzer.Name())
	}
	return names
}

// AnalyzeCategory runs every analyzer for one category and waits for all
// outcomes. force bypasses cached reads.
func (r *Runner) AnalyzeCategory(ctx context.Context, categoryKey string, force bool) Report {
	started := time.Now()
	report := Report{
		CategoryKey: categoryKey,
		RunID:       uuid.NewString(),
		Outcomes:    make([]Outcome, len(r.analyzers)),
	}

	limit := r.cfg.Analysis.MaxConcurrent
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	for i, analyzer := range r.analyzers {
		wg.Add(1)
		go func(slot int, analyzer Analyzer) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			report.Outcomes[slot] = r.runOne(ctx, analyzer, categoryKey, force)
		}(i, analyzer)
	}
	wg.Wait()

	for _, outcome := range report.Outcomes {
		switch outcome.Kind {
		case OutcomeOK:
			report.Succeeded++
		case OutcomeNoResult:
			report.NoResult++
		default:
			report.Failed++
			if outcome.Err != nil {
				report.Errors = append(report.Errors, outcome.Err)
			}
		}
	}
	report.Duration = time.Since(started)

	r.logger.Info("category analysis complete",
		logging.String(logging.FieldCategory, categoryKey),
		logging.String(logging.FieldRunID, report.RunID),
		logging.Int("succeeded", report.Succeeded),
		logging.Int("no_result", report.NoResult),
		logging.Int("failed", report.Failed),
		logging.Duration("duration", report.Duration))
	return report
}

// AnalyzeAll runs categories sequentially. A panic inside one category is
// contained and reported as an all-failed pass for that category only.
func (r *Runner) AnalyzeAll(ctx context.Context, categoryKeys []string, force bool) []Report {
	reports := make([]Report, 0, len(categoryKeys))
	for _, categoryKey := range categoryKeys {
		if ctx.Err() != nil {
			break
		}
		reports = append(reports, r.analyzeCategoryContained(ctx, categoryKey, force))
	}
	return reports
}

func (r *Runner) analyzeCategoryContained(ctx context.Context, categoryKey string, force bool) (report Report) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err := fmt.Errorf("analysis panic for %s: %v", categoryKey, recovered)
			r.logger.Error("contained analysis panic",
				logging.String(logging.FieldCategory, categoryKey),
				logging.Error(err))
			report = Report{
				CategoryKey: categoryKey,
				RunID:       uuid.NewString(),
				Failed:      len(r.analyzers),
				Errors:      []error{err},
			}
		}
	}()
	return r.AnalyzeCategory(ctx, categoryKey, force)
}

func (r *Runner) runOne(ctx context.Context, analyzer Analyzer, categoryKey string, force bool) (outcome Outcome) {
	started := time.Now()
	outcome = Outcome{Analyzer: analyzer.Name()}
	defer func() {
		outcome.Duration = time.Since(started)
		if recovered := recover(); recovered != nil {
			outcome.Kind = OutcomeFailed
			outcome.Err = fmt.Errorf("analyzer %s panic: %v", analyzer.Name(), recovered)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.AnalyzerTimeout())
	defer cancel()

	result, err := r.cache.AnalyzeWithCache(runCtx, analyzer, categoryKey, force)
	switch {
	case err != nil:
		if errors.Is(err, context.DeadlineExceeded) {
			outcome.Kind = OutcomeTimedOut
		} else {
			outcome.Kind = OutcomeFailed
		}
		outcome.Err = fmt.Errorf("analyzer %s: %w", analyzer.Name(), err)
		r.logger.Warn("analyzer failed",
			logging.String(logging.FieldAnalyzer, analyzer.Name()),
			logging.String(logging.FieldCategory, categoryKey),
			logging.String("outcome", string(outcome.Kind)),
			logging.Error(err))
	case result == nil:
		outcome.Kind = OutcomeNoResult
	default:
		outcome.Kind = OutcomeOK
		outcome.Result = result
	}
	return outcome
}
