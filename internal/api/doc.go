// Package api defines the wire types served by the daemon's HTTP endpoints
// and the client the CLI uses to reach them.
package api
