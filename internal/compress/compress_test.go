package compress

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"
)

// noiseJPEG returns an incompressible JPEG of the given dimensions.
// Random pixels defeat JPEG's frequency coding, so output stays large.
func noiseJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func flatPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestCompressMeetsBudget(t *testing.T) {
	src := noiseJPEG(t, 800, 600)
	engine := NewEngine(false)

	budget := Budget{MaxBytes: 64 * 1024, MinQuality: 30, MaxDimension: 400}
	result, err := engine.Compress(context.Background(), src, budget)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	if !result.WithinBudget(budget) {
		// Best-effort is acceptable only when the quality floor was hit.
		if result.Quality != budget.MinQuality {
			t.Errorf("over budget (%d > %d) without reaching quality floor (q=%d)",
				result.CompressedSize, budget.MaxBytes, result.Quality)
		}
	}
	if result.Width > budget.MaxDimension || result.Height > budget.MaxDimension {
		t.Errorf("output %dx%d exceeds max dimension %d", result.Width, result.Height, budget.MaxDimension)
	}
	if result.Method != "imaging" {
		t.Errorf("Method = %q, want imaging", result.Method)
	}
	if result.OriginalSize != int64(len(src)) {
		t.Errorf("OriginalSize = %d, want %d", result.OriginalSize, len(src))
	}
	if result.CompressedSize != int64(len(result.Data)) {
		t.Errorf("CompressedSize = %d, len(Data) = %d", result.CompressedSize, len(result.Data))
	}
}

func TestCompressTerminatesWithinIterationBound(t *testing.T) {
	src := noiseJPEG(t, 600, 600)
	engine := NewEngine(false)

	// Impossible budget: loop must stop at the bound and return the best
	// effort rather than failing or spinning.
	budget := Budget{MaxBytes: 10, MinQuality: 90, MaxDimension: 600}
	result, err := engine.Compress(context.Background(), src, budget)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	if result.Iterations > MaxIterations {
		t.Errorf("Iterations = %d, want <= %d", result.Iterations, MaxIterations)
	}
	if len(result.Data) == 0 {
		t.Error("best-effort result has no data")
	}
}

func TestCompressSmallImagePassesThrough(t *testing.T) {
	src := flatPNG(t, 100, 80)
	engine := NewEngine(false)

	budget := Budget{MaxBytes: 1 << 20, MinQuality: 40, MaxDimension: 1600}
	result, err := engine.Compress(context.Background(), src, budget)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	if result.Width != 100 || result.Height != 80 {
		t.Errorf("dimensions changed to %dx%d for image under the cap", result.Width, result.Height)
	}
	if result.Iterations != 0 {
		t.Errorf("Iterations = %d for trivially compressible image", result.Iterations)
	}
}

func TestCompressDecodeError(t *testing.T) {
	engine := NewEngine(false)

	_, err := engine.Compress(context.Background(), []byte("definitely not an image"), Budget{
		MaxBytes: 1 << 20, MinQuality: 40, MaxDimension: 1600,
	})
	if err == nil {
		t.Fatal("expected decode error")
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("error type = %T, want *DecodeError", err)
	}
}

func TestCompressCancelled(t *testing.T) {
	src := noiseJPEG(t, 200, 200)
	engine := NewEngine(false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Compress(ctx, src, Budget{MaxBytes: 10, MinQuality: 30, MaxDimension: 200})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestTargetDimensions(t *testing.T) {
	tests := []struct {
		name         string
		w, h, maxDim int
		wantW, wantH int
	}{
		{"landscape over cap", 4000, 3000, 1600, 1600, 1200},
		{"portrait over cap", 3000, 4000, 1600, 1200, 1600},
		{"within cap", 800, 600, 1600, 800, 600},
		{"exactly at cap", 1600, 1600, 1600, 1600, 1600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := TargetDimensions(tt.w, tt.h, tt.maxDim)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("TargetDimensions(%d, %d, %d) = %dx%d, want %dx%d",
					tt.w, tt.h, tt.maxDim, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestDimensions(t *testing.T) {
	src := flatPNG(t, 320, 240)
	w, h, err := Dimensions(src)
	if err != nil {
		t.Fatalf("Dimensions: %v", err)
	}
	if w != 320 || h != 240 {
		t.Errorf("Dimensions = %dx%d, want 320x240", w, h)
	}

	if _, _, err := Dimensions([]byte("junk")); err == nil {
		t.Error("expected error for junk input")
	}
}
