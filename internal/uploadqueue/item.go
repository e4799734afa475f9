package uploadqueue

import (
	"context"
	"time"
)

// Status is an upload item's position in its lifecycle.
type Status string

const (
	StatusPending     Status = "pending"
	StatusCompressing Status = "compressing"
	StatusSigning     Status = "signing"
	StatusUploading   Status = "uploading"
	StatusSuccess     Status = "success"
	StatusError       Status = "error"
	StatusCancelled   Status = "cancelled"
)

// Terminal reports whether the status is final. Terminal items only
// change through an explicit Retry (error) or removal.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError || s == StatusCancelled
}

// Active reports whether the item occupies a concurrency slot.
func (s Status) Active() bool {
	return s == StatusCompressing || s == StatusSigning || s == StatusUploading
}

// File is one input handed to Enqueue.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Rejection explains why a file did not enter the queue.
type Rejection struct {
	Name   string
	Reason string
}

// CompressionSummary is the per-item record of a completed compression.
type CompressionSummary struct {
	OriginalSize   int64
	CompressedSize int64
	Method         string
	Duration       time.Duration
}

// Item is the published, immutable view of one upload.
type Item struct {
	ID            string
	FileName      string
	FileSizeBytes int64
	Status        Status
	// Progress is 0-100 and non-decreasing within a status; it resets
	// only when a retry re-enters the pipeline.
	Progress    int
	Compression *CompressionSummary
	// FinalURL is set exactly when Status is success.
	FinalURL string
	// Error is set exactly when Status is error.
	Error string
}

// Snapshot is the queue view delivered to subscribers: items in
// insertion order plus derived aggregates.
type Snapshot struct {
	Items []Item
	// CompletedCount is the number of items that finished successfully.
	CompletedCount int
	TotalCount     int
	// IsUploading reports whether any item is still pending or active.
	IsUploading bool
}

// item is the manager-owned mutable state behind an Item.
type item struct {
	id          string
	fileName    string
	contentType string
	data        []byte
	size        int64

	status      Status
	progress    int
	compression *CompressionSummary
	finalURL    string
	errMsg      string

	// cancel aborts the in-flight pipeline run; nil while inactive.
	cancel context.CancelFunc
}

func (it *item) view() Item {
	v := Item{
		ID:            it.id,
		FileName:      it.fileName,
		FileSizeBytes: it.size,
		Status:        it.status,
		Progress:      it.progress,
		FinalURL:      it.finalURL,
		Error:         it.errMsg,
	}
	if it.compression != nil {
		c := *it.compression
		v.Compression = &c
	}
	return v
}
