// Package rollup moves metrics down the storage tiers: hot item sets from the
// state store are condensed into hourly aggregates, hourly rows into daily
// rows, and both tiers are pruned to their retention windows. Jobs are
// idempotent; re-running an hour or day overwrites the same row.
package rollup
