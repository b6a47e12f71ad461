// Package main hosts the Vantage CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon API: status and task listings, manual task
// triggers, quota inspection, insight rendering, and configuration
// scaffolding. It centralizes configuration resolution and API address
// discovery so subcommands can focus on presentation.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
