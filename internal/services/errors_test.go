package services_test

import (
	"errors"
	"strings"
	"testing"

	"vantage/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "collector", "fetch trending", "provider unavailable", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"collector", "fetch trending", "provider unavailable"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "quota", "persist", "write failed", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient", services.Wrap(services.ErrTransient, "collector", "fetch", "", nil), true},
		{"timeout", services.Wrap(services.ErrTimeout, "runner", "analyze", "", nil), true},
		{"quota", services.Wrap(services.ErrQuotaExceeded, "quota", "consume", "", nil), false},
		{"circuit", services.Wrap(services.ErrCircuitOpen, "quota", "check", "", nil), false},
		{"insufficient", services.Wrap(services.ErrInsufficientData, "analyzer", "analyze", "", nil), false},
	}
	for _, tc := range cases {
		if got := services.Retryable(tc.err); got != tc.want {
			t.Fatalf("%s: Retryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestClassifierHelpers(t *testing.T) {
	quotaErr := services.Wrap(services.ErrQuotaExceeded, "quota", "consume", "budget exhausted", nil)
	if !services.IsQuotaExceeded(quotaErr) {
		t.Fatal("expected quota classification")
	}
	if services.IsCircuitOpen(quotaErr) {
		t.Fatal("quota error misclassified as circuit open")
	}
	if !services.IsInsufficientData(services.ErrInsufficientData) {
		t.Fatal("expected insufficient data classification")
	}
}
