// Package logging configures slog output for the vantage daemon and CLI.
// It provides console and JSON handlers, typed attribute helpers, and the
// shared field names used across pipeline components.
package logging
