// Package decay maps the age of an analysis result to a confidence score and
// a refresh verdict. Everything here is a pure function; callers may share a
// Config across goroutines without synchronization.
package decay

import (
	"time"
)

// Level orders freshness tiers from freshest to most stale.
type Level string

const (
	LevelFresh   Level = "fresh"
	LevelRecent  Level = "recent"
	LevelStale   Level = "stale"
	LevelOld     Level = "old"
	LevelExpired Level = "expired"
)

// Tier pairs an age ceiling with the confidence floor applied inside it. The
// final tier's ceiling is ignored; it catches everything older.
type Tier struct {
	Level      Level
	AgeCeiling time.Duration
	Confidence int
}

// Config is a monotonically increasing sequence of tiers.
type Config struct {
	Tiers []Tier
}

// Default returns the five-tier reference curve.
func Default() Config {
	return Config{Tiers: []Tier{
		{Level: LevelFresh, AgeCeiling: 30 * time.Minute, Confidence: 100},
		{Level: LevelRecent, AgeCeiling: 2 * time.Hour, Confidence: 85},
		{Level: LevelStale, AgeCeiling: 6 * time.Hour, Confidence: 60},
		{Level: LevelOld, AgeCeiling: 24 * time.Hour, Confidence: 35},
		{Level: LevelExpired, AgeCeiling: 0, Confidence: 10},
	}}
}

// Result is the verdict for one timestamp.
type Result struct {
	Level         Level         `json:"level"`
	Confidence    int           `json:"confidence"`
	Age           time.Duration `json:"age"`
	ShouldRefresh bool          `json:"should_refresh"`
}

// Evaluate picks the discrete tier the age falls into. A zero analyzedAt is
// treated as the worst tier: expired, lowest confidence, must refresh.
func (c Config) Evaluate(analyzedAt, now time.Time) Result {
	if analyzedAt.IsZero() {
		last := c.Tiers[len(c.Tiers)-1]
		return Result{Level: last.Level, Confidence: last.Confidence, Age: 0, ShouldRefresh: true}
	}

	age := now.Sub(analyzedAt)
	if age < 0 {
		age = 0
	}
	for i, tier := range c.Tiers {
		if i == len(c.Tiers)-1 || age < tier.AgeCeiling {
			return Result{
				Level:         tier.Level,
				Confidence:    tier.Confidence,
				Age:           age,
				ShouldRefresh: i >= 2,
			}
		}
	}
	// Unreachable with a non-empty tier list.
	return Result{Level: LevelExpired, ShouldRefresh: true}
}

// EvaluateInterpolated behaves like Evaluate but interpolates confidence
// linearly between adjacent tier points for a smoother scoring curve.
func (c Config) EvaluateInterpolated(analyzedAt, now time.Time) Result {
	result := c.Evaluate(analyzedAt, now)
	if analyzedAt.IsZero() {
		return result
	}

	var prevCeiling time.Duration
	var prevConfidence int
	for i, tier := range c.Tiers {
		if i == len(c.Tiers)-1 || result.Age < tier.AgeCeiling {
			if i == 0 || i == len(c.Tiers)-1 {
				return result
			}
			span := tier.AgeCeiling - prevCeiling
			if span <= 0 {
				return result
			}
			fraction := float64(result.Age-prevCeiling) / float64(span)
			result.Confidence = prevConfidence + int(fraction*float64(tier.Confidence-prevConfidence))
			return result
		}
		prevCeiling = tier.AgeCeiling
		prevConfidence = tier.Confidence
	}
	return result
}
