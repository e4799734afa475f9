package transport

import (
	"io"
	"sync"
	"time"
)

// progressReader wraps the payload reader, counting bytes handed to the
// HTTP client and invoking the progress callback at a bounded rate so a
// fast sender cannot flood the subscriber.
type progressReader struct {
	r     io.Reader
	total int64

	mu           sync.Mutex
	sent         int64
	lastProgress time.Time // last time any byte moved, read by the stall watchdog
	lastCallback time.Time

	interval time.Duration
	callback func(sent, total int64)
	now      func() time.Time
}

func newProgressReader(r io.Reader, total int64, interval time.Duration, cb func(sent, total int64)) *progressReader {
	pr := &progressReader{
		r:        r,
		total:    total,
		interval: interval,
		callback: cb,
		now:      time.Now,
	}
	pr.lastProgress = pr.now()
	return pr
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.mu.Lock()
		pr.sent += int64(n)
		pr.lastProgress = pr.now()

		fire := pr.callback != nil && pr.now().Sub(pr.lastCallback) >= pr.interval
		if fire {
			pr.lastCallback = pr.now()
		}
		sent := pr.sent
		pr.mu.Unlock()

		if fire {
			pr.callback(sent, pr.total)
		}
	}
	return n, err
}

// bytesSent returns how many payload bytes were handed to the client.
func (pr *progressReader) bytesSent() int64 {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.sent
}

// idleFor returns how long ago the last byte moved.
func (pr *progressReader) idleFor() time.Duration {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.now().Sub(pr.lastProgress)
}

// finish emits the terminal 100% callback regardless of throttling.
func (pr *progressReader) finish() {
	if pr.callback != nil {
		pr.callback(pr.total, pr.total)
	}
}
