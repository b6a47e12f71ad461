package decay_test

import (
	"testing"
	"time"

	"vantage/internal/decay"
)

func TestEvaluateFreshTopTier(t *testing.T) {
	cfg := decay.Default()
	now := time.Now()

	result := cfg.Evaluate(now, now)
	if result.Level != decay.LevelFresh {
		t.Fatalf("level = %s, want fresh", result.Level)
	}
	if result.Confidence != 100 {
		t.Fatalf("confidence = %d, want 100", result.Confidence)
	}
	if result.ShouldRefresh {
		t.Fatal("fresh data must not request refresh")
	}
}

func TestEvaluateZeroTimestampIsExpired(t *testing.T) {
	cfg := decay.Default()

	result := cfg.Evaluate(time.Time{}, time.Now())
	if result.Level != decay.LevelExpired {
		t.Fatalf("level = %s, want expired", result.Level)
	}
	if !result.ShouldRefresh {
		t.Fatal("absent timestamp must request refresh")
	}
	if result.Confidence != 10 {
		t.Fatalf("confidence = %d, want bottom tier", result.Confidence)
	}
}

func TestEvaluateAncientIsExpired(t *testing.T) {
	cfg := decay.Default()
	now := time.Now()

	result := cfg.Evaluate(now.Add(-1000*time.Hour), now)
	if result.Level != decay.LevelExpired || !result.ShouldRefresh {
		t.Fatalf("result = %+v, want expired with refresh", result)
	}
}

func TestConfidenceNonIncreasingWithAge(t *testing.T) {
	cfg := decay.Default()
	now := time.Now()

	prev := 101
	for _, age := range []time.Duration{
		0,
		10 * time.Minute,
		time.Hour,
		3 * time.Hour,
		12 * time.Hour,
		48 * time.Hour,
	} {
		result := cfg.Evaluate(now.Add(-age), now)
		if result.Confidence > prev {
			t.Fatalf("confidence increased at age %v: %d > %d", age, result.Confidence, prev)
		}
		prev = result.Confidence
	}
}

func TestRefreshVerdictPerTier(t *testing.T) {
	cfg := decay.Default()
	now := time.Now()

	cases := []struct {
		age  time.Duration
		want bool
	}{
		{10 * time.Minute, false}, // fresh
		{time.Hour, false},        // recent
		{3 * time.Hour, true},     // stale
		{12 * time.Hour, true},    // old
		{48 * time.Hour, true},    // expired
	}
	for _, tc := range cases {
		result := cfg.Evaluate(now.Add(-tc.age), now)
		if result.ShouldRefresh != tc.want {
			t.Fatalf("age %v: shouldRefresh = %v, want %v (level %s)", tc.age, result.ShouldRefresh, tc.want, result.Level)
		}
	}
}

func TestInterpolatedSmoothsBetweenTiers(t *testing.T) {
	cfg := decay.Default()
	now := time.Now()

	// Midway between the recent boundary (30m, 100) and ceiling (2h, 85).
	mid := cfg.EvaluateInterpolated(now.Add(-75*time.Minute), now)
	if mid.Confidence <= 85 || mid.Confidence >= 100 {
		t.Fatalf("interpolated confidence = %d, want strictly between 85 and 100", mid.Confidence)
	}

	// Interpolation must stay non-increasing.
	prev := 101
	for age := time.Duration(0); age <= 30*time.Hour; age += 15 * time.Minute {
		result := cfg.EvaluateInterpolated(now.Add(-age), now)
		if result.Confidence > prev {
			t.Fatalf("interpolated confidence increased at age %v", age)
		}
		prev = result.Confidence
	}
}

func TestEvaluateFutureTimestampClampsToZeroAge(t *testing.T) {
	cfg := decay.Default()
	now := time.Now()

	result := cfg.Evaluate(now.Add(time.Hour), now)
	if result.Age != 0 || result.Level != decay.LevelFresh {
		t.Fatalf("future timestamp result = %+v, want fresh at age 0", result)
	}
}
