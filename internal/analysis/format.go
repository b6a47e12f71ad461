package analysis

import (
	"context"

	"vantage/internal/config"
	"vantage/internal/statestore"
	"vantage/internal/stream"
)

const NameFormatMix = "format_mix"

// FormatInsight describes how a category's content splits across live
// streams, videos, and clips.
type FormatInsight struct {
	Counts    map[stream.Format]int     `json:"counts"`
	Shares    map[stream.Format]float64 `json:"shares"`
	Dominant  stream.Format             `json:"dominant"`
	LiveShare float64                   `json:"live_share"`
}

// FormatAnalyzer computes the format mix of a category's hot item set.
type FormatAnalyzer struct {
	itemAnalyzer
}

func NewFormatAnalyzer(cfg *config.Config, store *statestore.Store) *FormatAnalyzer {
	return &FormatAnalyzer{itemAnalyzer{cfg: cfg, store: store}}
}

func (a *FormatAnalyzer) Name() string { return NameFormatMix }

func (a *FormatAnalyzer) Analyze(ctx context.Context, categoryKey string) (*Result, error) {
	items, err := a.loadItems(ctx, categoryKey)
	if err != nil {
		return nil, err
	}
	if !a.enough(items) {
		return nil, nil
	}

	insight := FormatInsight{
		Counts: make(map[stream.Format]int),
		Shares: make(map[stream.Format]float64),
	}
	for _, item := range items {
		insight.Counts[item.Format]++
	}

	total := float64(len(items))
	best := 0
	for format, count := range insight.Counts {
		insight.Shares[format] = float64(count) / total
		if count > best || (count == best && format < insight.Dominant) {
			best = count
			insight.Dominant = format
		}
	}
	insight.LiveShare = insight.Shares[stream.FormatLive]

	return newResult(a.cfg, NameFormatMix, categoryKey, insight, items)
}

// DecodeFormatInsight unpacks a format_mix result payload.
func DecodeFormatInsight(result *Result) (*FormatInsight, error) {
	var insight FormatInsight
	if err := decodePayload(result, NameFormatMix, &insight); err != nil {
		return nil, err
	}
	return &insight, nil
}
