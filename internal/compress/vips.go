package compress

import (
	"fmt"
	"sync"

	"media-uploader/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitMutex sync.Mutex
	vipsStarted   bool
	vipsAvailable bool
)

// InitVips initializes libvips. Called lazily by EnsureVips; safe to call
// directly at startup to surface problems early.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return initVipsLocked()
}

func initVipsLocked() (err error) {
	if vipsStarted {
		if !vipsAvailable {
			return fmt.Errorf("libvips previously failed to initialize")
		}
		return nil
	}
	vipsStarted = true

	// govips panics rather than returning errors when the shared library
	// is broken; treat that as "not available".
	defer func() {
		if r := recover(); r != nil {
			vipsAvailable = false
			err = fmt.Errorf("libvips startup panic: %v", r)
			logging.Warn("libvips unavailable: %v", err)
		}
	}()

	// Route vips logging through ours, warnings and up only.
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch {
		case level >= vips.LogLevelError:
			logging.Error("[%s] %s", domain, msg)
		case level == vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vips.LogLevelWarning)

	// Conservative memory settings: one image at a time, small cache.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
	})

	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsStarted && vipsAvailable {
		vips.Shutdown()
		vipsAvailable = false
		vipsStarted = false
		logging.Info("libvips shutdown complete")
	}
}

// VipsAvailable reports whether the vips encode path can be used,
// initializing the library on first call.
func VipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if !vipsStarted {
		if err := initVipsLocked(); err != nil {
			return false
		}
	}
	return vipsAvailable
}

// newVipsEncoder validates src against libvips and returns an encoder
// that re-imports the source each pass, shrinking at decode time. That
// costs a re-parse per iteration but keeps peak memory flat, matching the
// conservative Startup settings above.
func newVipsEncoder(src []byte) (encoder, error) {
	if !VipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	// Probe once so clearly corrupt payloads fail before the loop starts.
	probe, err := vips.NewImageFromBuffer(src)
	if err != nil {
		return nil, &DecodeError{Reason: "libvips could not parse image", Err: err}
	}
	probe.Close()

	return func(maxDim, quality int) ([]byte, int, int, error) {
		ref, err := vips.NewImageFromBuffer(src)
		if err != nil {
			return nil, 0, 0, &DecodeError{Reason: "libvips could not parse image", Err: err}
		}
		defer ref.Close()

		if err := ref.AutoRotate(); err != nil {
			return nil, 0, 0, fmt.Errorf("vips auto-rotate failed: %w", err)
		}

		w, h := TargetDimensions(ref.Width(), ref.Height(), maxDim)
		if w != ref.Width() || h != ref.Height() {
			if err := ref.Thumbnail(w, h, vips.InterestingNone); err != nil {
				return nil, 0, 0, fmt.Errorf("vips resize failed: %w", err)
			}
		}

		data, _, err := ref.ExportJpeg(&vips.JpegExportParams{
			Quality:        quality,
			StripMetadata:  true,
			OptimizeCoding: true,
		})
		if err != nil {
			return nil, 0, 0, fmt.Errorf("vips export failed: %w", err)
		}
		return data, ref.Width(), ref.Height(), nil
	}, nil
}
