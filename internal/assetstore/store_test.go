package assetstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "assets.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestRecordAndGetAsset(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := Asset{
		Key:         "uploads/2026/08/29/abc.jpg",
		URL:         "https://cdn.example.com/uploads/2026/08/29/abc.jpg",
		ContentType: "image/jpeg",
		SizeBytes:   120000,
	}
	if _, err := s.RecordAsset(ctx, a); err != nil {
		t.Fatalf("RecordAsset() error = %v", err)
	}

	got, err := s.GetAssetByKey(ctx, a.Key)
	if err != nil {
		t.Fatalf("GetAssetByKey() error = %v", err)
	}
	if got.URL != a.URL || got.ContentType != a.ContentType || got.SizeBytes != a.SizeBytes {
		t.Errorf("GetAssetByKey() = %+v, want fields of %+v", got, a)
	}
	if got.CreatedAt.IsZero() {
		t.Error("GetAssetByKey() CreatedAt is zero")
	}
}

func TestGetAssetNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.GetAssetByKey(context.Background(), "uploads/missing.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAssetByKey() error = %v, want ErrNotFound", err)
	}
}

func TestRecordAssetUpsert(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := Asset{Key: "uploads/x.jpg", URL: "https://cdn.example.com/x.jpg", ContentType: "image/jpeg", SizeBytes: 100}
	if _, err := s.RecordAsset(ctx, a); err != nil {
		t.Fatalf("RecordAsset() error = %v", err)
	}

	a.SizeBytes = 250
	if _, err := s.RecordAsset(ctx, a); err != nil {
		t.Fatalf("RecordAsset() second call error = %v", err)
	}

	got, err := s.GetAssetByKey(ctx, a.Key)
	if err != nil {
		t.Fatalf("GetAssetByKey() error = %v", err)
	}
	if got.SizeBytes != 250 {
		t.Errorf("SizeBytes after upsert = %d, want 250", got.SizeBytes)
	}

	assets, err := s.ListAssets(ctx, 10)
	if err != nil {
		t.Fatalf("ListAssets() error = %v", err)
	}
	if len(assets) != 1 {
		t.Errorf("ListAssets() returned %d assets, want 1 after upsert", len(assets))
	}
}

func TestListAssetsLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		a := Asset{
			Key:         "uploads/" + string(rune('a'+i)) + ".jpg",
			URL:         "https://cdn.example.com/" + string(rune('a'+i)) + ".jpg",
			ContentType: "image/jpeg",
		}
		if _, err := s.RecordAsset(ctx, a); err != nil {
			t.Fatalf("RecordAsset() error = %v", err)
		}
	}

	assets, err := s.ListAssets(ctx, 3)
	if err != nil {
		t.Fatalf("ListAssets() error = %v", err)
	}
	if len(assets) != 3 {
		t.Errorf("ListAssets(3) returned %d assets, want 3", len(assets))
	}
}

func TestRecordAndGetThumbnail(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	th := Thumbnail{
		AssetURL:  "https://cdn.example.com/uploads/abc.jpg",
		Path:      "/thumbs/abc.jpg",
		Width:     200,
		Height:    150,
		SizeBytes: 8000,
	}
	if _, err := s.RecordThumbnail(ctx, th); err != nil {
		t.Fatalf("RecordThumbnail() error = %v", err)
	}

	got, err := s.GetThumbnail(ctx, th.AssetURL)
	if err != nil {
		t.Fatalf("GetThumbnail() error = %v", err)
	}
	if got.Path != th.Path || got.Width != 200 || got.Height != 150 {
		t.Errorf("GetThumbnail() = %+v, want fields of %+v", got, th)
	}

	if _, err := s.GetThumbnail(ctx, "https://cdn.example.com/other.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetThumbnail() for unknown asset error = %v, want ErrNotFound", err)
	}
}

func TestGetStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.RecordAsset(ctx, Asset{Key: "uploads/a.jpg", URL: "https://cdn.example.com/a.jpg", ContentType: "image/jpeg"}); err != nil {
		t.Fatalf("RecordAsset() error = %v", err)
	}
	if _, err := s.RecordThumbnail(ctx, Thumbnail{AssetURL: "https://cdn.example.com/a.jpg", Path: "/thumbs/a.jpg", Width: 200, Height: 200}); err != nil {
		t.Fatalf("RecordThumbnail() error = %v", err)
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.Assets != 1 || stats.Thumbnails != 1 {
		t.Errorf("GetStats() = %+v, want {Assets:1 Thumbnails:1}", stats)
	}
}
