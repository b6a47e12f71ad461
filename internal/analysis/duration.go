package analysis

import (
	"context"
	"sort"
	"time"

	"vantage/internal/config"
	"vantage/internal/statestore"
)

const NameDurationBuckets = "duration_buckets"

// Duration bucket labels, ordered shortest to longest.
const (
	BucketShort    = "short"    // under 10 minutes
	BucketMedium   = "medium"   // 10 to 30 minutes
	BucketLong     = "long"     // 30 to 60 minutes
	BucketExtended = "extended" // an hour or more
)

// DurationInsight describes the runtime distribution of a category's
// non-live content. Live items carry no fixed duration and are counted
// separately.
type DurationInsight struct {
	Buckets  map[string]int `json:"buckets"`
	Average  time.Duration  `json:"average"`
	Median   time.Duration  `json:"median"`
	Longest  time.Duration  `json:"longest"`
	LiveOnly int            `json:"live_only"`
}

// DurationAnalyzer buckets a category's items by runtime.
type DurationAnalyzer struct {
	itemAnalyzer
}

func NewDurationAnalyzer(cfg *config.Config, store *statestore.Store) *DurationAnalyzer {
	return &DurationAnalyzer{itemAnalyzer{cfg: cfg, store: store}}
}

func (a *DurationAnalyzer) Name() string { return NameDurationBuckets }

func (a *DurationAnalyzer) Analyze(ctx context.Context, categoryKey string) (*Result, error) {
	items, err := a.loadItems(ctx, categoryKey)
	if err != nil {
		return nil, err
	}
	if !a.enough(items) {
		return nil, nil
	}

	insight := DurationInsight{Buckets: map[string]int{
		BucketShort:    0,
		BucketMedium:   0,
		BucketLong:     0,
		BucketExtended: 0,
	}}

	var durations []time.Duration
	var total time.Duration
	for _, item := range items {
		if item.Duration <= 0 {
			insight.LiveOnly++
			continue
		}
		insight.Buckets[durationBucket(item.Duration)]++
		durations = append(durations, item.Duration)
		total += item.Duration
		if item.Duration > insight.Longest {
			insight.Longest = item.Duration
		}
	}

	if len(durations) > 0 {
		insight.Average = total / time.Duration(len(durations))
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		insight.Median = durations[len(durations)/2]
	}

	return newResult(a.cfg, NameDurationBuckets, categoryKey, insight, items)
}

func durationBucket(d time.Duration) string {
	switch {
	case d < 10*time.Minute:
		return BucketShort
	case d < 30*time.Minute:
		return BucketMedium
	case d < time.Hour:
		return BucketLong
	default:
		return BucketExtended
	}
}

// DecodeDurationInsight unpacks a duration_buckets result payload.
func DecodeDurationInsight(result *Result) (*DurationInsight, error) {
	var insight DurationInsight
	if err := decodePayload(result, NameDurationBuckets, &insight); err != nil {
		return nil, err
	}
	return &insight, nil
}
