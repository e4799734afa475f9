package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Default concurrency caps for the upload pipeline. At most this many items
// may be compressing, signing, or uploading at the same time.
const (
	DefaultCap       = 4
	DefaultCapLowEnd = 2
)

// Count returns the optimal number of workers for a given task type.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks (compression)
//   - 2.0 for I/O-bound tasks (transfers)
//
// The limit parameter caps the worker count to prevent resource exhaustion.
// Use 0 for no limit.
//
// Can be overridden with the UPLOAD_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	if override := envOverride(); override > 0 {
		if limit > 0 && override > limit {
			return limit
		}
		return override
	}

	// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// UploadCap returns the pipeline concurrency cap for a device class.
// Low-end devices get a smaller cap to bound peak CPU and bandwidth
// contention. UPLOAD_WORKERS overrides the derived value.
func UploadCap(lowEndDevice bool) int {
	if override := envOverride(); override > 0 {
		return override
	}

	cap := DefaultCap
	if lowEndDevice {
		cap = DefaultCapLowEnd
	}

	// Never exceed what the runtime can actually schedule.
	if available := runtime.GOMAXPROCS(0); cap > available {
		cap = available
	}
	if cap < 1 {
		cap = 1
	}
	return cap
}

func envOverride() int {
	if override := os.Getenv("UPLOAD_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return count
		}
	}
	return 0
}
