package thumbnailer

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"media-uploader/internal/assetstore"
	"media-uploader/internal/logging"
	"media-uploader/internal/metrics"
)

const (
	thumbWidth  = 200
	thumbHeight = 200
	jpegQuality = 80

	// maxFetchBytes bounds how much of a remote asset the generator will
	// pull; anything larger than the upload cap is not ours.
	maxFetchBytes = 10 << 20
)

// Generator produces small JPEG previews of uploaded assets and records
// them in the asset store.
type Generator struct {
	client *http.Client
	store  *assetstore.Store
	outDir string
}

// NewGenerator creates a Generator writing thumbnails under outDir. A
// nil client uses http.DefaultClient.
func NewGenerator(client *http.Client, store *assetstore.Store, outDir string) (*Generator, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating thumbnail dir: %w", err)
	}
	return &Generator{client: client, store: store, outDir: outDir}, nil
}

// Generate fetches the asset at assetURL, produces a 200x200 preview
// and records it. Idempotent: regenerating for the same URL overwrites
// the previous variant.
func (g *Generator) Generate(ctx context.Context, assetURL string) (*assetstore.Thumbnail, error) {
	start := time.Now()

	thumb, err := g.generate(ctx, assetURL)
	metrics.ThumbnailDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ThumbnailsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.ThumbnailsTotal.WithLabelValues("success").Inc()
	logging.Debug("Thumbnail generated for %s in %v", assetURL, time.Since(start))
	return thumb, nil
}

func (g *Generator) generate(ctx context.Context, assetURL string) (*assetstore.Thumbnail, error) {
	data, err := g.fetch(ctx, assetURL)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding asset %s: %w", assetURL, err)
	}

	fitted := imaging.Fit(img, thumbWidth, thumbHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fitted, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}

	path := filepath.Join(g.outDir, fmt.Sprintf("%x.jpg", md5.Sum([]byte(assetURL))))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("writing thumbnail %s: %w", path, err)
	}

	bounds := fitted.Bounds()
	thumb := assetstore.Thumbnail{
		AssetURL:  assetURL,
		Path:      path,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		SizeBytes: int64(buf.Len()),
	}
	if g.store != nil {
		if _, err := g.store.RecordThumbnail(ctx, thumb); err != nil {
			return nil, err
		}
	}
	return &thumb, nil
}

func (g *Generator) fetch(ctx context.Context, assetURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building fetch request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching asset %s: %w", assetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching asset %s: unexpected status %s", assetURL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading asset %s: %w", assetURL, err)
	}
	if len(data) > maxFetchBytes {
		return nil, fmt.Errorf("asset %s exceeds %d bytes", assetURL, maxFetchBytes)
	}
	return data, nil
}
