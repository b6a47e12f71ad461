// Package quota gates all outbound provider calls behind a shared,
// time-windowed unit budget with a failure circuit breaker, and owns the
// per-category adaptive refresh policy that decides which categories a
// collection pass should cover.
package quota
