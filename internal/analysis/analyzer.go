package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vantage/internal/config"
	"vantage/internal/contenthash"
	"vantage/internal/stream"
)

// Analyzer produces one insight for one category. Returning (nil, nil) means
// the analyzer declined because the available data was insufficient; it is
// not an error.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, categoryKey string) (*Result, error)
}

// Result is the envelope cached per analyzer and category. Data carries the
// analyzer-specific payload; decode it with the matching Decode* function.
type Result struct {
	Analyzer    string          `json:"analyzer"`
	CategoryKey string          `json:"category_key"`
	Data        json.RawMessage `json:"data"`
	Confidence  int             `json:"confidence"`
	ItemCount   int             `json:"item_count"`
	ContentHash string          `json:"content_hash"`
	AnalyzedAt  time.Time       `json:"analyzed_at"`
}

// Confidence scores a result from its sample size: base plus one point per
// item, capped at the configured ceiling.
func Confidence(cfg *config.Config, itemCount int) int {
	score := cfg.Analysis.ConfidenceBase + itemCount
	if ceiling := cfg.Analysis.ConfidenceCeiling; score > ceiling {
		score = ceiling
	}
	if score < 0 {
		score = 0
	}
	return score
}

// newResult packages an analyzer payload into the cacheable envelope.
func newResult(cfg *config.Config, analyzer, categoryKey string, payload any, items []stream.Item) (*Result, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", analyzer, err)
	}
	return &Result{
		Analyzer:    analyzer,
		CategoryKey: categoryKey,
		Data:        data,
		Confidence:  Confidence(cfg, len(items)),
		ItemCount:   len(items),
		ContentHash: contenthash.HashItems(items),
		AnalyzedAt:  time.Now().UTC(),
	}, nil
}

func decodePayload(result *Result, wantAnalyzer string, dest any) error {
	if result == nil {
		return fmt.Errorf("decode %s payload: nil result", wantAnalyzer)
	}
	if result.Analyzer != wantAnalyzer {
		return fmt.Errorf("decode %s payload: result belongs to %s", wantAnalyzer, result.Analyzer)
	}
	if err := json.Unmarshal(result.Data, dest); err != nil {
		return fmt.Errorf("decode %s payload: %w", wantAnalyzer, err)
	}
	return nil
}
