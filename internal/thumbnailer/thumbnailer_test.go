package thumbnailer

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"media-uploader/internal/assetstore"
)

// testJPEG renders a gradient so the encoder has real content to work
// with.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func testGenerator(t *testing.T, client *http.Client) (*Generator, *assetstore.Store) {
	t.Helper()
	store, err := assetstore.New(context.Background(), filepath.Join(t.TempDir(), "assets.db"))
	if err != nil {
		t.Fatalf("assetstore.New() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	gen, err := NewGenerator(client, store, filepath.Join(t.TempDir(), "thumbs"))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return gen, store
}

func TestGenerate(t *testing.T) {
	asset := testJPEG(t, 800, 600)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(asset) //nolint:errcheck
	}))
	defer srv.Close()

	gen, store := testGenerator(t, srv.Client())
	assetURL := srv.URL + "/uploads/part.jpg"

	thumb, err := gen.Generate(context.Background(), assetURL)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if thumb.Width > 200 || thumb.Height > 200 {
		t.Errorf("thumbnail is %dx%d, want both dimensions <= 200", thumb.Width, thumb.Height)
	}
	// 800x600 fit into 200x200 preserves aspect: 200x150.
	if thumb.Width != 200 || thumb.Height != 150 {
		t.Errorf("thumbnail is %dx%d, want 200x150", thumb.Width, thumb.Height)
	}

	data, err := os.ReadFile(thumb.Path)
	if err != nil {
		t.Fatalf("reading thumbnail file: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding thumbnail file: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("thumbnail format = %s, want jpeg", format)
	}
	if cfg.Width != thumb.Width || cfg.Height != thumb.Height {
		t.Errorf("file dimensions %dx%d do not match record %dx%d", cfg.Width, cfg.Height, thumb.Width, thumb.Height)
	}

	recorded, err := store.GetThumbnail(context.Background(), assetURL)
	if err != nil {
		t.Fatalf("GetThumbnail() error = %v", err)
	}
	if recorded.Path != thumb.Path {
		t.Errorf("recorded path = %s, want %s", recorded.Path, thumb.Path)
	}
}

func TestGenerateFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	gen, _ := testGenerator(t, srv.Client())

	if _, err := gen.Generate(context.Background(), srv.URL+"/missing.jpg"); err == nil {
		t.Error("Generate() for missing asset expected error, got nil")
	}
}

func TestGenerateNonImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("definitely not an image")) //nolint:errcheck
	}))
	defer srv.Close()

	gen, _ := testGenerator(t, srv.Client())

	if _, err := gen.Generate(context.Background(), srv.URL+"/fake.jpg"); err == nil {
		t.Error("Generate() for non-image content expected error, got nil")
	}
}

func TestRequestThumbnailFireAndForget(t *testing.T) {
	var got atomic.Value
	received := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/thumbnail" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding notify payload: %v", err)
		}
		got.Store(payload["assetUrl"])
		w.WriteHeader(http.StatusAccepted)
		close(received)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	c.RequestThumbnail("https://cdn.example.com/uploads/part.jpg")

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("thumbnail service never received the notification")
	}
	if url, _ := got.Load().(string); url != "https://cdn.example.com/uploads/part.jpg" {
		t.Errorf("notified asset URL = %q", url)
	}
}

func TestRequestThumbnailServiceDown(t *testing.T) {
	// Must not panic or block the caller.
	c := NewClient("http://127.0.0.1:1", nil)
	c.RequestThumbnail("https://cdn.example.com/uploads/part.jpg")
}
