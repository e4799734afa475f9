// Package transport moves compressed payloads to their presigned
// destination: throttled progress reporting, a stall watchdog, retries
// with backoff for transient failures, and transfer timing feedback for
// the network profiler.
package transport
