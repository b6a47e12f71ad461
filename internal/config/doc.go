// Package config loads, validates, and normalizes vantage configuration from
// a TOML file. Defaults are suitable for a single-host daemon; every value can
// be overridden per install.
package config
