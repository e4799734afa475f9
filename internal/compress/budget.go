package compress

import (
	"fmt"
	"time"
)

// Budget is the size/quality target for one compression run. Budgets are
// derived from the current network profile by the caller; the engine only
// enforces them.
type Budget struct {
	// MaxBytes is the target ceiling for the encoded output. Best effort:
	// if the iteration budget runs out first, the smallest achieved
	// encoding is returned instead of an error.
	MaxBytes int64 `yaml:"maxBytes"`
	// MinQuality is the JPEG quality floor (1-100).
	MinQuality int `yaml:"minQuality"`
	// MaxDimension caps the longest side of the output image.
	MaxDimension int `yaml:"maxDimension"`
}

// Result describes one completed compression.
type Result struct {
	// Data is the encoded JPEG payload.
	Data []byte
	// OriginalSize is the source payload size in bytes.
	OriginalSize int64
	// CompressedSize is len(Data).
	CompressedSize int64
	// Method is the encode path used: "vips" or "imaging".
	Method string
	// Duration is wall time spent compressing.
	Duration time.Duration
	// Quality is the JPEG quality of the returned encoding.
	Quality int
	// Iterations is how many reduction passes ran after the first encode.
	Iterations int
	// Width and Height are the output dimensions.
	Width  int
	Height int
}

// WithinBudget reports whether the result met the byte ceiling.
func (r *Result) WithinBudget(b Budget) bool {
	return r.CompressedSize <= b.MaxBytes
}

// DecodeError indicates the source bytes could not be parsed as an image.
// Terminal for the affected upload item; nothing is uploaded.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("image decode failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("image decode failed: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }
