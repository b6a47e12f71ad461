// Package analysis holds the pluggable analyzer framework: the Analyzer
// contract, the cached result envelope, and the bounded-concurrency runner
// that executes every registered analyzer for a category.
//
// Analyzers read the hot item set persisted by the collector and produce a
// typed insight payload. Returning (nil, nil) from Analyze is the supported
// way to decline when there is not enough data; it is accounted separately
// from success and failure.
package analysis
