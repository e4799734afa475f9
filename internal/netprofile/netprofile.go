package netprofile

import (
	"sync"
	"time"

	"media-uploader/internal/compress"
	"media-uploader/internal/logging"
	"media-uploader/internal/metrics"
)

// EffectiveType is the coarse classification of current network quality.
type EffectiveType string

const (
	// TypeSlow is below the slow band threshold (default <50KB/s).
	TypeSlow EffectiveType = "slow"
	// TypeMedium is the middle band (default 50KB/s-500KB/s).
	TypeMedium EffectiveType = "medium"
	// TypeFast is above the medium band (default >500KB/s).
	TypeFast EffectiveType = "fast"
)

// Profile is a point-in-time snapshot of estimated network conditions.
type Profile struct {
	EffectiveType  EffectiveType
	BytesPerSecond float64
	RTT            time.Duration
	SampledAt      time.Time
}

// Config tunes the profiler. Band thresholds are configuration, not a
// contract: they were picked from representative traffic and should be
// re-tuned against real telemetry.
type Config struct {
	// Alpha is the EWMA weight of a new sample (0-1, higher = more
	// reactive).
	Alpha float64
	// StalenessWindow is how long an estimate stays fresh without new
	// samples.
	StalenessWindow time.Duration
	// DecayWindow is how long after going stale the estimate takes to
	// fully decay to the conservative default.
	DecayWindow time.Duration
	// InitialHint seeds the estimate before any samples arrive
	// (e.g. from a platform connection-type hint). Empty means medium.
	InitialHint EffectiveType
	// Bands classify throughput and carry per-band compression budgets,
	// ordered slowest first.
	Bands []Band
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Alpha:           0.3,
		StalenessWindow: 30 * time.Second,
		DecayWindow:     60 * time.Second,
		InitialHint:     TypeMedium,
		Bands:           DefaultBands(),
	}
}

// hintThroughput maps a connection-type hint to a representative
// throughput used until real samples arrive.
var hintThroughput = map[EffectiveType]float64{
	TypeSlow:   25 * 1024,
	TypeMedium: 200 * 1024,
	TypeFast:   1024 * 1024,
}

// Profiler maintains a rolling estimate of network throughput from
// completed transfer timings. Safe for concurrent use; the transport
// records samples while the queue manager reads profiles.
type Profiler struct {
	mu         sync.RWMutex
	cfg        Config
	estimate   float64 // EWMA bytes/sec, 0 = no samples yet
	rtt        time.Duration
	lastSample time.Time

	now func() time.Time // test hook
}

// New returns a Profiler with the given config; zero-value fields fall
// back to DefaultConfig values.
func New(cfg Config) *Profiler {
	def := DefaultConfig()
	if cfg.Alpha <= 0 || cfg.Alpha > 1 {
		cfg.Alpha = def.Alpha
	}
	if cfg.StalenessWindow <= 0 {
		cfg.StalenessWindow = def.StalenessWindow
	}
	if cfg.DecayWindow <= 0 {
		cfg.DecayWindow = def.DecayWindow
	}
	if cfg.InitialHint == "" {
		cfg.InitialHint = def.InitialHint
	}
	if len(cfg.Bands) == 0 {
		cfg.Bands = def.Bands
	}
	return &Profiler{cfg: cfg, now: time.Now}
}

// RecordTransfer ingests one completed transfer's throughput sample.
// Recent samples are weighted higher so a single bursty measurement does
// not dominate the estimate. Zero-duration or zero-byte transfers are
// ignored.
func (p *Profiler) RecordTransfer(bytes int64, elapsed time.Duration) {
	if bytes <= 0 || elapsed <= 0 {
		return
	}
	sample := float64(bytes) / elapsed.Seconds()

	p.mu.Lock()
	if p.estimate == 0 {
		p.estimate = sample
	} else {
		p.estimate = p.cfg.Alpha*sample + (1-p.cfg.Alpha)*p.estimate
	}
	p.lastSample = p.now()
	estimate := p.estimate
	p.mu.Unlock()

	metrics.NetworkProfileSamples.Inc()
	metrics.NetworkThroughput.Set(estimate)

	logging.Debug("Network sample: %d bytes in %v (%.0f B/s, estimate %.0f B/s)",
		bytes, elapsed, sample, estimate)
}

// RecordRTT ingests a round-trip latency observation, typically from a
// small control request such as the signing call.
func (p *Profiler) RecordRTT(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	if p.rtt == 0 {
		p.rtt = d
	} else {
		p.rtt = time.Duration(p.cfg.Alpha*float64(d) + (1-p.cfg.Alpha)*float64(p.rtt))
	}
	p.mu.Unlock()
}

// Profile returns the current best estimate. Before any samples arrive
// the estimate is derived from the configured hint. A stale estimate
// decays linearly toward the conservative default across the decay
// window, so an old "fast" reading does not keep budgets generous after
// conditions may have changed.
func (p *Profiler) Profile() Profile {
	p.mu.RLock()
	defer p.mu.RUnlock()

	now := p.now()
	defaultBPS := hintThroughput[p.cfg.InitialHint]
	if defaultBPS == 0 {
		defaultBPS = hintThroughput[TypeMedium]
	}

	bps := p.estimate
	sampledAt := p.lastSample
	if bps == 0 {
		bps = defaultBPS
		sampledAt = now
	} else if stale := now.Sub(p.lastSample) - p.cfg.StalenessWindow; stale > 0 {
		factor := float64(stale) / float64(p.cfg.DecayWindow)
		if factor > 1 {
			factor = 1
		}
		bps += (defaultBPS - bps) * factor
	}

	return Profile{
		EffectiveType:  p.classify(bps),
		BytesPerSecond: bps,
		RTT:            p.rtt,
		SampledAt:      sampledAt,
	}
}

// Budget returns the compression budget for current conditions. This is
// what the queue manager passes to the engine for each new item.
func (p *Profiler) Budget() compress.Budget {
	return p.BudgetFor(p.Profile().EffectiveType)
}

// BudgetFor returns the configured budget for a specific band.
func (p *Profiler) BudgetFor(t EffectiveType) compress.Budget {
	for _, band := range p.cfg.Bands {
		if band.Name == t {
			return band.Budget
		}
	}
	// Unknown band: last (fastest) band's budget is the upper bound.
	return p.cfg.Bands[len(p.cfg.Bands)-1].Budget
}

func (p *Profiler) classify(bps float64) EffectiveType {
	for _, band := range p.cfg.Bands {
		if band.MaxBytesPerSec > 0 && bps < band.MaxBytesPerSec {
			return band.Name
		}
	}
	return p.cfg.Bands[len(p.cfg.Bands)-1].Name
}
