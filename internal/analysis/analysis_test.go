package analysis_test

import (
	"context"
	"testing"

	"vantage/internal/analysis"
	"vantage/internal/logging"
	"vantage/internal/stream"
	"vantage/internal/testsupport"
)

func TestFormatAnalyzerComputesMix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStateStore(t, cfg)
	items := stream.GenerateItems("deep-rock", 10)
	testsupport.SeedItems(t, store, "deep-rock", items)

	analyzer := analysis.NewFormatAnalyzer(cfg, store)
	result, err := analyzer.Analyze(context.Background(), "deep-rock")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result for a full item set")
	}
	if result.ItemCount != 10 {
		t.Fatalf("item count = %d, want 10", result.ItemCount)
	}
	if want := cfg.Analysis.ConfidenceBase + 10; result.Confidence != want {
		t.Fatalf("confidence = %d, want %d", result.Confidence, want)
	}

	insight, err := analysis.DecodeFormatInsight(result)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if insight.Dominant != stream.FormatLive {
		t.Fatalf("dominant format = %s, want live", insight.Dominant)
	}
	if insight.LiveShare != 0.4 {
		t.Fatalf("live share = %v, want 0.4", insight.LiveShare)
	}
}

func TestAnalyzersDeclineBelowMinimum(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStateStore(t, cfg)
	testsupport.SeedItems(t, store, "deep-rock", stream.GenerateItems("deep-rock", 3))

	analyzers := []analysis.Analyzer{
		analysis.NewFormatAnalyzer(cfg, store),
		analysis.NewRegionalAnalyzer(cfg, store),
		analysis.NewDurationAnalyzer(cfg, store),
		analysis.NewKeywordAnalyzer(cfg, store),
	}
	for _, analyzer := range analyzers {
		result, err := analyzer.Analyze(context.Background(), "deep-rock")
		if err != nil {
			t.Fatalf("%s: %v", analyzer.Name(), err)
		}
		if result != nil {
			t.Fatalf("%s produced a result from 3 items, want decline", analyzer.Name())
		}
	}
}

func TestRegionalAnalyzerUsesDisplayNames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStateStore(t, cfg)
	testsupport.SeedItems(t, store, "factorio", stream.GenerateItems("factorio", 10))

	analyzer := analysis.NewRegionalAnalyzer(cfg, store)
	result, err := analyzer.Analyze(context.Background(), "factorio")
	if err != nil || result == nil {
		t.Fatalf("Analyze = %v, %v", result, err)
	}

	insight, err := analysis.DecodeRegionalInsight(result)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if insight.Dominant != "English" {
		t.Fatalf("dominant language = %q, want English", insight.Dominant)
	}
	var shareSum float64
	for _, lang := range insight.Languages {
		if lang.DisplayName == "" {
			t.Fatalf("language %s missing display name", lang.Tag)
		}
		shareSum += lang.Share
	}
	if shareSum < 0.999 || shareSum > 1.001 {
		t.Fatalf("shares sum to %v, want 1", shareSum)
	}
}

func TestDurationAnalyzerSeparatesLive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStateStore(t, cfg)
	testsupport.SeedItems(t, store, "factorio", stream.GenerateItems("factorio", 10))

	result, err := analysis.NewDurationAnalyzer(cfg, store).Analyze(context.Background(), "factorio")
	if err != nil || result == nil {
		t.Fatalf("Analyze = %v, %v", result, err)
	}
	insight, err := analysis.DecodeDurationInsight(result)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Every third generated item is live with no fixed duration.
	if insight.LiveOnly != 4 {
		t.Fatalf("live-only count = %d, want 4", insight.LiveOnly)
	}
	bucketed := 0
	for _, count := range insight.Buckets {
		bucketed += count
	}
	if bucketed != 6 {
		t.Fatalf("bucketed count = %d, want 6", bucketed)
	}
	if insight.Average <= 0 || insight.Median <= 0 {
		t.Fatalf("average/median not computed: %+v", insight)
	}
}

func TestKeywordAnalyzerFiltersAndRanks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStateStore(t, cfg)
	testsupport.SeedItems(t, store, "satisfactory", stream.GenerateItems("satisfactory", 10))

	result, err := analysis.NewKeywordAnalyzer(cfg, store).Analyze(context.Background(), "satisfactory")
	if err != nil || result == nil {
		t.Fatalf("Analyze = %v, %v", result, err)
	}
	insight, err := analysis.DecodeKeywordInsight(result)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(insight.Keywords) == 0 || len(insight.Keywords) > 10 {
		t.Fatalf("keyword count = %d, want 1..10", len(insight.Keywords))
	}
	for i, keyword := range insight.Keywords {
		switch keyword.Word {
		case "the", "for", "with", "and":
			t.Fatalf("stopword %q survived filtering", keyword.Word)
		}
		if i > 0 && keyword.Count > insight.Keywords[i-1].Count {
			t.Fatal("keywords not ordered by count descending")
		}
	}
}

func TestCacheRoundTripAndChangeGate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStateStore(t, cfg)
	logger := logging.NewNop()
	cache := analysis.NewCache(cfg, store, logger)
	ctx := context.Background()

	items := stream.GenerateItems("deep-rock", 10)
	testsupport.SeedItems(t, store, "deep-rock", items)
	analyzer := analysis.NewFormatAnalyzer(cfg, store)

	first, err := cache.AnalyzeWithCache(ctx, analyzer, "deep-rock", false)
	if err != nil || first == nil {
		t.Fatalf("first run = %v, %v", first, err)
	}

	// A second call must serve the cached envelope, not recompute.
	second, err := cache.AnalyzeWithCache(ctx, analyzer, "deep-rock", false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.AnalyzedAt.Equal(first.AnalyzedAt) {
		t.Fatal("second call recomputed instead of using the cache")
	}

	if cache.HasContentChanged(ctx, analyzer.Name(), "deep-rock", first.ContentHash) {
		t.Fatal("identical hash reported as changed")
	}
	if !cache.HasContentChanged(ctx, analyzer.Name(), "deep-rock", "feedfeedfeedfeed") {
		t.Fatal("different hash not reported as changed")
	}
	if !cache.HasContentChanged(ctx, analyzer.Name(), "unknown-category", first.ContentHash) {
		t.Fatal("missing cache entry must count as changed")
	}
}
