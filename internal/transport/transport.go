package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"media-uploader/internal/logging"
	"media-uploader/internal/metrics"
	"media-uploader/internal/retry"
)

// Destination is where a payload goes, as issued by the signing service.
type Destination struct {
	// URL is the signed upload URL (typically a presigned PUT).
	URL string
	// Credential is presented as a bearer token when non-empty.
	Credential string
	// ContentType of the payload.
	ContentType string
}

// Result describes a completed upload.
type Result struct {
	// URL is the canonical asset location: the destination URL with the
	// signing query stripped.
	URL string
	// BytesSent counts payload bytes of the successful attempt.
	BytesSent int64
	// Attempts is how many attempts ran, including the successful one.
	Attempts int
	// Duration is total wall time across attempts and backoff.
	Duration time.Duration
}

// Config tunes the transport.
type Config struct {
	// StallTimeout aborts an attempt when no payload byte moves for this
	// long; the attempt then counts as transient and is retried. This
	// keeps a dead connection from pinning a concurrency slot.
	StallTimeout time.Duration
	// ProgressInterval bounds how often the progress callback fires.
	ProgressInterval time.Duration
	// Policy is the backoff policy for transient failures.
	Policy retry.Policy
}

// DefaultConfig returns the stock transport tuning.
func DefaultConfig() Config {
	return Config{
		StallTimeout:     30 * time.Second,
		ProgressInterval: 100 * time.Millisecond,
		Policy:           retry.DefaultPolicy(),
	}
}

// Recorder receives transfer timings. Satisfied by
// *netprofile.Profiler; this is the feedback loop that makes future
// compression budgets adapt to observed throughput.
type Recorder interface {
	RecordTransfer(bytes int64, elapsed time.Duration)
}

// Transport moves compressed payloads to remote storage with progress
// reporting, stall detection, and internal retry of transient failures.
// Stateless between uploads; safe for concurrent use.
type Transport struct {
	client   *http.Client
	recorder Recorder
	cfg      Config
}

// New creates a Transport. A nil client uses http.DefaultClient; a nil
// recorder disables throughput feedback.
func New(client *http.Client, recorder Recorder, cfg Config) *Transport {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.StallTimeout <= 0 {
		cfg.StallTimeout = DefaultConfig().StallTimeout
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultConfig().ProgressInterval
	}
	if cfg.Policy.MaxRetries == 0 && cfg.Policy.BaseDelay == 0 {
		cfg.Policy = retry.DefaultPolicy()
	}
	return &Transport{client: client, recorder: recorder, cfg: cfg}
}

// Upload PUTs payload to dest. onProgress (optional) receives
// (sentBytes, totalBytes) at a bounded rate. Transient failures are
// retried internally; fatal ones surface immediately. If ctx is
// cancelled mid-transfer the upload stops promptly and resolves with
// ErrCancelled - bytes already sent are the remote side's problem, not
// rolled back here.
func (t *Transport) Upload(ctx context.Context, payload []byte, dest Destination, onProgress func(sent, total int64)) (*Result, error) {
	start := time.Now()
	attempts := 0
	var lastSent int64

	err := t.cfg.Policy.Do(ctx, func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			metrics.UploadRetriesTotal.Inc()
			logging.Debug("Retrying upload to %s (attempt %d)", redactQuery(dest.URL), attempts)
		}
		sent, err := t.attempt(ctx, payload, dest, onProgress)
		lastSent = sent
		return err
	}, IsTransient)

	duration := time.Since(start)

	if err != nil {
		if IsCancellation(err) {
			metrics.UploadAttemptsTotal.WithLabelValues("cancelled").Inc()
			return nil, ErrCancelled
		}
		if IsTransient(err) {
			metrics.UploadAttemptsTotal.WithLabelValues("transient").Inc()
		} else {
			metrics.UploadAttemptsTotal.WithLabelValues("fatal").Inc()
		}
		return nil, err
	}

	metrics.UploadAttemptsTotal.WithLabelValues("success").Inc()
	metrics.UploadedBytesTotal.Add(float64(len(payload)))

	return &Result{
		URL:       redactQuery(dest.URL),
		BytesSent: lastSent,
		Attempts:  attempts,
		Duration:  duration,
	}, nil
}

// attempt performs one PUT. Every attempt, pass or fail, reports its
// byte count and elapsed time to the recorder.
func (t *Transport) attempt(ctx context.Context, payload []byte, dest Destination, onProgress func(sent, total int64)) (int64, error) {
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pr := newProgressReader(bytes.NewReader(payload), int64(len(payload)), t.cfg.ProgressInterval, onProgress)

	stalled := t.watchStall(attemptCtx, cancel, pr)

	started := time.Now()
	sent, err := t.doPut(attemptCtx, pr, int64(len(payload)), dest)
	elapsed := time.Since(started)

	metrics.UploadAttemptDuration.Observe(elapsed.Seconds())
	if t.recorder != nil && sent > 0 {
		t.recorder.RecordTransfer(sent, elapsed)
	}

	if err != nil {
		// Parent cancellation wins over any other classification.
		if ctx.Err() != nil {
			return sent, ErrCancelled
		}
		if stalled.Load() {
			return sent, &TransientError{Err: ErrStalled}
		}
		return sent, err
	}

	pr.finish()
	return sent, nil
}

func (t *Transport) doPut(ctx context.Context, pr *progressReader, size int64, dest Destination) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, dest.URL, pr)
	if err != nil {
		return 0, &FatalError{Err: fmt.Errorf("building request: %w", err)}
	}
	req.ContentLength = size
	if dest.ContentType != "" {
		req.Header.Set("Content-Type", dest.ContentType)
	}
	if dest.Credential != "" {
		req.Header.Set("Authorization", "Bearer "+dest.Credential)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		// Network-level failures are transient unless the context says
		// otherwise (checked by the caller).
		return pr.bytesSent(), &TransientError{Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for connection reuse

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return pr.bytesSent(), nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusRequestTimeout:
		return pr.bytesSent(), &TransientError{Status: resp.StatusCode, Err: errors.New(resp.Status)}
	default:
		return pr.bytesSent(), &FatalError{Status: resp.StatusCode, Err: errors.New(resp.Status)}
	}
}

// watchStall cancels the attempt when no byte moves within the stall
// timeout. The returned flag is read by the caller after the attempt
// ends to distinguish a stall abort from other cancellations.
func (t *Transport) watchStall(ctx context.Context, cancel context.CancelFunc, pr *progressReader) *atomic.Bool {
	stalled := new(atomic.Bool)

	go func() {
		ticker := time.NewTicker(t.cfg.StallTimeout / 4)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if pr.idleFor() > t.cfg.StallTimeout {
					logging.Warn("Upload made no progress for %v, aborting attempt", t.cfg.StallTimeout)
					stalled.Store(true)
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return stalled
}

// redactQuery strips the query string, turning a presigned URL into the
// canonical asset URL.
func redactQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	return u.String()
}
