// Package services defines the shared error taxonomy for pipeline components.
// Errors are tagged with sentinel markers so callers can classify failures
// (quota, circuit, insufficient data, transient, timeout) without string
// matching.
package services
