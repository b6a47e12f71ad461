// Package daemon ties the pipeline together: it enforces single-instance
// execution with a file lock, runs the orchestrator, and serves the HTTP API
// the CLI talks to.
package daemon
