// Package statestore persists namespaced key/value pipeline state in SQLite
// with optional per-entry TTLs. It backs quota windows (quota:*), collection
// priorities (priority:<category>), orchestrator task state (task:<name>),
// analyzer result caches (analysis:<analyzer>:<category>), and raw item sets
// (items:<category>). Entries are safe to evict at any time; every consumer
// recomputes on miss.
package statestore
