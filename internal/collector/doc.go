// Package collector runs quota-aware collection passes: a bounded-parallel
// trending sweep over the scheduled categories, a deduplicated detail
// resolution phase, and per-category persistence with change detection.
//
// Quota exhaustion mid-pass is a stop condition, not a failure. Whatever was
// collected before the budget ran out is persisted; the rest waits for the
// next window.
package collector
