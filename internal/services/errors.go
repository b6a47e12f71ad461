package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQuotaExceeded marks failures caused by an exhausted collection budget.
	// Work tagged with it is retried on a later pass, never immediately.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrCircuitOpen marks rejections issued while the provider circuit
	// breaker is open.
	ErrCircuitOpen = errors.New("circuit open")
	// ErrInsufficientData marks an analyzer declining to produce a result.
	// This is an expected outcome, not a failure.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrTransient marks provider or network hiccups eligible for retry.
	ErrTransient = errors.New("transient failure")
	// ErrTimeout marks a unit of work that exceeded its time budget.
	ErrTimeout = errors.New("timeout")
	// ErrConfiguration marks invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a missing record or cache entry.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsQuotaExceeded reports whether err carries the quota marker.
func IsQuotaExceeded(err error) bool { return errors.Is(err, ErrQuotaExceeded) }

// IsCircuitOpen reports whether err carries the circuit-open marker.
func IsCircuitOpen(err error) bool { return errors.Is(err, ErrCircuitOpen) }

// IsInsufficientData reports whether err carries the insufficient-data marker.
func IsInsufficientData(err error) bool { return errors.Is(err, ErrInsufficientData) }

// Retryable reports whether err is worth retrying with backoff. Quota and
// circuit rejections are deliberate and never retried inline.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
