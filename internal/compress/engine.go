package compress

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"time"

	"media-uploader/internal/logging"
	"media-uploader/internal/metrics"

	// Image format decoders
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// StartQuality is the JPEG quality of the first encode attempt.
	StartQuality = 85

	// MaxIterations bounds the reduction loop so compression always
	// terminates. After the initial encode, at most this many passes with
	// reduced quality or dimensions run before the best result is
	// returned as-is.
	MaxIterations = 4

	qualityStep     = 10
	dimensionShrink = 0.9
)

// Engine produces compressed JPEG payloads within a Budget. It is
// stateless and safe for concurrent use. With offload enabled, encoding
// goes through libvips; otherwise the pure-Go imaging path is used. Both
// paths run the same reduction loop, so for the same inputs they make the
// same quality/dimension decisions.
type Engine struct {
	offload bool
}

// NewEngine returns an Engine. Pass the Capability Probe's
// OffloadAvailable for offload; the engine falls back to the pure-Go path
// per call if the vips encode fails anyway.
func NewEngine(offload bool) *Engine {
	if offload && !VipsAvailable() {
		logging.Warn("Compression offload requested but libvips unavailable, using pure-Go path")
		offload = false
	}
	return &Engine{offload: offload}
}

// encoder produces an encoding of the source capped at maxDim on the
// longest side, at the given JPEG quality.
type encoder func(maxDim, quality int) ([]byte, int, int, error)

// Compress encodes src within budget. The returned Result always carries
// the smallest encoding achieved, even when the byte ceiling proved
// unreachable within the iteration budget. A non-image payload yields a
// *DecodeError.
func (e *Engine) Compress(ctx context.Context, src []byte, budget Budget) (*Result, error) {
	start := time.Now()

	method := "imaging"
	var enc encoder
	if e.offload {
		if vipsEnc, err := newVipsEncoder(src); err == nil {
			method = "vips"
			enc = vipsEnc
		} else {
			logging.Debug("vips encode path unavailable for this payload: %v", err)
		}
	}
	if enc == nil {
		imagingEnc, err := newImagingEncoder(src)
		if err != nil {
			metrics.CompressionsTotal.WithLabelValues(method, "decode_error").Inc()
			return nil, err
		}
		method = "imaging"
		enc = imagingEnc
	}

	result, err := runBudgetLoop(ctx, enc, budget)
	if err != nil {
		metrics.CompressionsTotal.WithLabelValues(method, "error").Inc()
		return nil, err
	}

	result.OriginalSize = int64(len(src))
	result.Method = method
	result.Duration = time.Since(start)

	metrics.CompressionsTotal.WithLabelValues(method, "success").Inc()
	metrics.CompressionDuration.WithLabelValues(method).Observe(result.Duration.Seconds())
	if result.OriginalSize > 0 {
		metrics.CompressionRatio.Observe(float64(result.CompressedSize) / float64(result.OriginalSize))
	}

	logging.Debug("Compressed %d -> %d bytes (method=%s q=%d iter=%d in %v)",
		result.OriginalSize, result.CompressedSize, method, result.Quality,
		result.Iterations, result.Duration)

	return result, nil
}

// runBudgetLoop drives an encoder toward the budget: start at StartQuality
// and MaxDimension, then step quality down toward the floor, shrinking
// dimensions once quality bottoms out. Terminates after MaxIterations
// reduction passes and returns the best (smallest) encoding seen.
func runBudgetLoop(ctx context.Context, enc encoder, budget Budget) (*Result, error) {
	quality := StartQuality
	if quality < budget.MinQuality {
		quality = budget.MinQuality
	}
	maxDim := budget.MaxDimension

	var best *Result

	for iter := 0; iter <= MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, w, h, err := enc(maxDim, quality)
		if err != nil {
			return nil, err
		}

		if best == nil || int64(len(data)) < best.CompressedSize {
			best = &Result{
				Data:           data,
				CompressedSize: int64(len(data)),
				Quality:        quality,
				Iterations:     iter,
				Width:          w,
				Height:         h,
			}
		}

		if int64(len(data)) <= budget.MaxBytes {
			break
		}

		if quality-qualityStep >= budget.MinQuality {
			quality -= qualityStep
		} else {
			quality = budget.MinQuality
			maxDim = int(float64(maxDim) * dimensionShrink)
			if maxDim < 1 {
				maxDim = 1
			}
		}
	}

	return best, nil
}

// newImagingEncoder decodes src once with the pure-Go decoders and returns
// an encoder that resizes from the decoded original on every pass.
func newImagingEncoder(src []byte) (encoder, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Reason: "unsupported or corrupt image", Err: err}
	}

	return func(maxDim, quality int) ([]byte, int, int, error) {
		out := img
		bounds := img.Bounds()
		if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
			out = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
			return nil, 0, 0, err
		}
		ob := out.Bounds()
		return buf.Bytes(), ob.Dx(), ob.Dy(), nil
	}, nil
}

// TargetDimensions fits w x h inside maxDim preserving aspect ratio.
// Images already within the cap are left untouched.
func TargetDimensions(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w > h {
		return maxDim, h * maxDim / w
	}
	return w * maxDim / h, maxDim
}

// Dimensions returns the pixel dimensions of an encoded image without
// fully decoding it.
func Dimensions(src []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return 0, 0, &DecodeError{Reason: "could not read image header", Err: err}
	}
	return cfg.Width, cfg.Height, nil
}
