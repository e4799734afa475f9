// Package retry provides a bounded backoff policy for transient
// failures, with an injectable sleep for deterministic tests.
package retry
