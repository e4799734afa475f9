package uploadqueue

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"media-uploader/internal/capabilities"
	"media-uploader/internal/compress"
	"media-uploader/internal/logging"
	"media-uploader/internal/mediatypes"
	"media-uploader/internal/metrics"
	"media-uploader/internal/netprofile"
	"media-uploader/internal/signing"
	"media-uploader/internal/transport"
	"media-uploader/internal/workers"
)

// DefaultMaxFileBytes is the enqueue-time size cap.
const DefaultMaxFileBytes = 10 << 20

// Authorizer obtains upload authorization for a payload. Satisfied by
// *signing.Client.
type Authorizer interface {
	RequestUploadAuthorization(ctx context.Context, req signing.Request) (*signing.Authorization, error)
}

// Uploader moves a payload to its destination. Satisfied by
// *transport.Transport.
type Uploader interface {
	Upload(ctx context.Context, payload []byte, dest transport.Destination, onProgress func(sent, total int64)) (*transport.Result, error)
}

// ThumbnailRequester is notified after each successful upload.
// Satisfied by *thumbnailer.Client.
type ThumbnailRequester interface {
	RequestThumbnail(assetURL string)
}

// Deps are the collaborators the manager drives. Thumbnails may be nil.
type Deps struct {
	Engine     *compress.Engine
	Profiler   *netprofile.Profiler
	Authorizer Authorizer
	Uploader   Uploader
	Thumbnails ThumbnailRequester
}

// Config tunes the manager.
type Config struct {
	// Concurrency caps items simultaneously compressing, signing or
	// uploading. Zero derives the cap from the device class.
	Concurrency int
	// MaxFileBytes is the enqueue-time size cap; zero means
	// DefaultMaxFileBytes.
	MaxFileBytes int64
}

// Manager owns the upload queue: it is the sole mutator of item state,
// drives each item through its lifecycle with bounded concurrency, and
// publishes immutable snapshots to subscribers after every transition.
type Manager struct {
	deps         Deps
	slots        int
	maxFileBytes int64

	mu      sync.Mutex
	items   []*item
	byID    map[string]*item
	active  int
	subs    map[int]func(Snapshot)
	nextSub int
	notify  chan struct{}
}

// New creates a Manager. A zero Concurrency derives the cap from the
// probed device class (2 slots on low-end hardware, 4 otherwise).
func New(deps Deps, cfg Config) *Manager {
	slots := cfg.Concurrency
	if slots <= 0 {
		slots = workers.UploadCap(capabilities.Detect().IsLowEndDevice)
	}
	maxBytes := cfg.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}

	logging.Info("Upload queue: %d concurrent slots, %d byte file cap", slots, maxBytes)
	return &Manager{
		deps:         deps,
		slots:        slots,
		maxFileBytes: maxBytes,
		byID:         make(map[string]*item),
		subs:         make(map[int]func(Snapshot)),
		notify:       make(chan struct{}),
	}
}

// Enqueue validates files and admits the valid ones as pending items in
// input order. Invalid files are reported back synchronously and never
// enter the queue; one bad file does not block the rest.
func (m *Manager) Enqueue(files []File) []Rejection {
	var rejected []Rejection

	m.mu.Lock()
	for _, f := range files {
		if reason := m.validate(f); reason != "" {
			metrics.QueueRejectionsTotal.Inc()
			logging.Debug("Rejected %s: %s", f.Name, reason)
			rejected = append(rejected, Rejection{Name: f.Name, Reason: reason})
			continue
		}

		data := make([]byte, len(f.Data))
		copy(data, f.Data)

		contentType := f.ContentType
		if contentType == "" {
			contentType = mediatypes.Sniff(data)
		}

		m.items = append(m.items, &item{
			id:          uuid.New().String(),
			fileName:    f.Name,
			contentType: contentType,
			data:        data,
			size:        int64(len(data)),
			status:      StatusPending,
		})
		m.byID[m.items[len(m.items)-1].id] = m.items[len(m.items)-1]
	}
	m.dispatchLocked()
	snap, subs := m.publishLocked()
	m.mu.Unlock()

	deliver(subs, snap)
	return rejected
}

func (m *Manager) validate(f File) string {
	if len(f.Data) == 0 {
		return "file is empty"
	}
	if int64(len(f.Data)) > m.maxFileBytes {
		return fmt.Sprintf("file exceeds %d byte limit", m.maxFileBytes)
	}
	// Content sniffing is authoritative: a text file renamed to .jpg is
	// still a text file.
	if detected, ok := mediatypes.SniffImage(f.Data); !ok {
		return fmt.Sprintf("not an image (detected %s)", detected)
	}
	return ""
}

// Cancel moves a non-terminal item to cancelled and signals any
// in-flight work for it to abort. Cooperative: bytes already sent are
// not rolled back. Terminal items are left untouched.
func (m *Manager) Cancel(id string) {
	m.mu.Lock()
	it, ok := m.byID[id]
	if !ok || it.status.Terminal() {
		m.mu.Unlock()
		return
	}
	cancelFn := it.cancel
	it.status = StatusCancelled
	metrics.QueueItemsTotal.WithLabelValues(string(StatusCancelled)).Inc()
	snap, subs := m.publishLocked()
	m.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
	}
	deliver(subs, snap)
}

// CancelAll cancels every non-terminal item.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	var cancels []context.CancelFunc
	for _, it := range m.items {
		if it.status.Terminal() {
			continue
		}
		if it.cancel != nil {
			cancels = append(cancels, it.cancel)
		}
		it.status = StatusCancelled
		metrics.QueueItemsTotal.WithLabelValues(string(StatusCancelled)).Inc()
	}
	snap, subs := m.publishLocked()
	m.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	deliver(subs, snap)
}

// Retry re-enters a failed item at pending with fresh progress. A no-op
// for items in any other state.
func (m *Manager) Retry(id string) {
	m.mu.Lock()
	it, ok := m.byID[id]
	if !ok || it.status != StatusError {
		m.mu.Unlock()
		return
	}
	it.status = StatusPending
	it.progress = 0
	it.errMsg = ""
	it.compression = nil
	m.dispatchLocked()
	snap, subs := m.publishLocked()
	m.mu.Unlock()

	deliver(subs, snap)
}

// ClearCompleted removes successful and cancelled items. Failed items
// stay visible until retried or the queue is rebuilt.
func (m *Manager) ClearCompleted() {
	m.mu.Lock()
	m.items = lo.Filter(m.items, func(it *item, _ int) bool {
		keep := it.status != StatusSuccess && it.status != StatusCancelled
		if !keep {
			delete(m.byID, it.id)
		}
		return keep
	})
	snap, subs := m.publishLocked()
	m.mu.Unlock()

	deliver(subs, snap)
}

// Subscribe registers fn to receive a snapshot after every state
// transition, starting with the current state. Callbacks may run
// concurrently from different pipeline goroutines. The returned
// function unsubscribes.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	snap := m.snapshotLocked()
	m.mu.Unlock()

	fn(snap)
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Snapshot returns the current queue state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Wait blocks until every item is terminal or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	for {
		m.mu.Lock()
		done := !lo.SomeBy(m.items, func(it *item) bool { return !it.status.Terminal() })
		ch := m.notify
		m.mu.Unlock()

		if done {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// dispatchLocked admits pending items into free slots in FIFO order.
func (m *Manager) dispatchLocked() {
	for m.active < m.slots {
		it, ok := lo.Find(m.items, func(it *item) bool { return it.status == StatusPending })
		if !ok {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		it.status = StatusCompressing
		it.progress = 0
		it.cancel = cancel
		m.active++

		go m.process(ctx, it)
	}
}

// process runs one item through compress, sign and upload. All state
// changes route through the manager's lock; a cancellation observed at
// any point leaves the item exactly as Cancel set it.
func (m *Manager) process(ctx context.Context, it *item) {
	m.runPipeline(ctx, it)

	m.mu.Lock()
	if it.cancel != nil {
		it.cancel()
		it.cancel = nil
	}
	m.active--
	m.dispatchLocked()
	snap, subs := m.publishLocked()
	m.mu.Unlock()

	deliver(subs, snap)
}

func (m *Manager) runPipeline(ctx context.Context, it *item) {
	budget := m.deps.Profiler.Budget()
	res, err := m.deps.Engine.Compress(ctx, it.data, budget)
	if err != nil {
		m.fail(ctx, it, fmt.Errorf("compression failed: %w", err))
		return
	}

	summary := &CompressionSummary{
		OriginalSize:   res.OriginalSize,
		CompressedSize: res.CompressedSize,
		Method:         res.Method,
		Duration:       res.Duration,
	}
	if !m.advance(it, StatusSigning, func(it *item) { it.compression = summary }) {
		return
	}

	auth, err := m.deps.Authorizer.RequestUploadAuthorization(ctx, signing.Request{
		FileName:    it.fileName,
		ContentType: "image/jpeg",
		SizeBytes:   res.CompressedSize,
	})
	if err != nil {
		m.fail(ctx, it, fmt.Errorf("authorization failed: %w", err))
		return
	}

	if !m.advance(it, StatusUploading, nil) {
		return
	}

	result, err := m.deps.Uploader.Upload(ctx, res.Data, auth.Destination(), func(sent, total int64) {
		m.reportProgress(it, sent, total)
	})
	if err != nil {
		if transport.IsCancellation(err) {
			m.finish(it, StatusCancelled, func(it *item) {})
			return
		}
		m.fail(ctx, it, fmt.Errorf("upload failed: %w", err))
		return
	}

	m.finish(it, StatusSuccess, func(it *item) {
		it.finalURL = result.URL
		it.progress = 100
	})

	if m.deps.Thumbnails != nil {
		m.deps.Thumbnails.RequestThumbnail(result.URL)
	}
}

// advance moves an active item to its next phase. Returns false without
// touching the item when it already reached a terminal state (a
// concurrent cancel).
func (m *Manager) advance(it *item, next Status, mutate func(*item)) bool {
	m.mu.Lock()
	if it.status.Terminal() {
		m.mu.Unlock()
		return false
	}
	it.status = next
	if mutate != nil {
		mutate(it)
	}
	snap, subs := m.publishLocked()
	m.mu.Unlock()

	deliver(subs, snap)
	return true
}

// fail marks the item as errored, unless the failure was really a
// cancellation racing the pipeline.
func (m *Manager) fail(ctx context.Context, it *item, err error) {
	if ctx.Err() != nil {
		m.finish(it, StatusCancelled, func(it *item) {})
		return
	}
	logging.Warn("Upload of %s failed: %v", it.fileName, err)
	m.finish(it, StatusError, func(it *item) {
		it.errMsg = err.Error()
	})
}

func (m *Manager) finish(it *item, status Status, mutate func(*item)) {
	m.mu.Lock()
	if it.status.Terminal() {
		m.mu.Unlock()
		return
	}
	it.status = status
	mutate(it)
	metrics.QueueItemsTotal.WithLabelValues(string(status)).Inc()
	snap, subs := m.publishLocked()
	m.mu.Unlock()

	deliver(subs, snap)
}

// reportProgress clamps progress to be non-decreasing, so an internal
// transport retry never walks the bar backwards.
func (m *Manager) reportProgress(it *item, sent, total int64) {
	if total <= 0 {
		return
	}
	pct := int(sent * 100 / total)
	if pct > 100 {
		pct = 100
	}

	m.mu.Lock()
	if it.status != StatusUploading || pct <= it.progress {
		m.mu.Unlock()
		return
	}
	it.progress = pct
	snap, subs := m.publishLocked()
	m.mu.Unlock()

	deliver(subs, snap)
}

// publishLocked builds the current snapshot, refreshes gauges and wakes
// waiters. The returned subscriber list is invoked after the lock is
// released.
func (m *Manager) publishLocked() (Snapshot, []func(Snapshot)) {
	snap := m.snapshotLocked()

	pending := lo.CountBy(m.items, func(it *item) bool { return it.status == StatusPending })
	metrics.QueueItemsPending.Set(float64(pending))
	metrics.QueueItemsActive.Set(float64(m.active))

	subs := lo.Values(m.subs)

	close(m.notify)
	m.notify = make(chan struct{})

	return snap, subs
}

func (m *Manager) snapshotLocked() Snapshot {
	items := lo.Map(m.items, func(it *item, _ int) Item { return it.view() })
	return Snapshot{
		Items:          items,
		CompletedCount: lo.CountBy(items, func(i Item) bool { return i.Status == StatusSuccess }),
		TotalCount:     len(items),
		IsUploading:    lo.SomeBy(items, func(i Item) bool { return !i.Status.Terminal() }),
	}
}

func deliver(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
