// Package contenthash computes short deterministic fingerprints of collected
// item sets and analysis payloads. Hashes drive "nothing changed" detection
// throughout the pipeline; they are a heuristic, not a security boundary.
package contenthash
