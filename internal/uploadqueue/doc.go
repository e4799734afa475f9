// Package uploadqueue orchestrates the upload pipeline: it owns the
// ordered queue of upload items, drives each one through compression,
// signing and transport with bounded concurrency, and publishes
// immutable snapshots to subscribers after every state change.
package uploadqueue
