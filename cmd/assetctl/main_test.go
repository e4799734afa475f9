package main

import (
	"context"
	"path/filepath"
	"testing"

	"media-uploader/internal/assetstore"
)

func testStore(t *testing.T) *assetstore.Store {
	t.Helper()
	store, err := assetstore.New(context.Background(), filepath.Join(t.TempDir(), "assets.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedAsset(t *testing.T, store *assetstore.Store, key string) {
	t.Helper()
	_, err := store.RecordAsset(context.Background(), assetstore.Asset{
		Key:         key,
		URL:         "https://storage.test/" + key,
		ContentType: "image/jpeg",
		SizeBytes:   1024,
	})
	if err != nil {
		t.Fatalf("failed to seed asset: %v", err)
	}
}

func TestSanitizeCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"list", "list"},
		{"get", "get"},
		{"rm -rf /", "rm__rf__"},
		{"foo\nbar", "foo_bar"},
		{"valid-cmd_1", "valid-cmd_1"},
	}

	for _, tt := range tests {
		if got := sanitizeCommand(tt.input); got != tt.want {
			t.Errorf("sanitizeCommand(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestListAssets(t *testing.T) {
	store := testStore(t)
	seedAsset(t, store, "uploads/a.jpg")
	seedAsset(t, store, "uploads/b.jpg")

	if !listAssets(context.Background(), store, nil) {
		t.Error("expected list to succeed")
	}
	if !listAssets(context.Background(), store, []string{"1"}) {
		t.Error("expected limited list to succeed")
	}
	if listAssets(context.Background(), store, []string{"zero"}) {
		t.Error("expected invalid limit to fail")
	}
}

func TestListAssetsEmpty(t *testing.T) {
	store := testStore(t)
	if !listAssets(context.Background(), store, nil) {
		t.Error("expected empty list to succeed")
	}
}

func TestGetAsset(t *testing.T) {
	store := testStore(t)
	seedAsset(t, store, "uploads/a.jpg")

	if !getAsset(context.Background(), store, []string{"uploads/a.jpg"}) {
		t.Error("expected get to succeed")
	}
	if getAsset(context.Background(), store, []string{"uploads/missing.jpg"}) {
		t.Error("expected get of missing key to fail")
	}
	if getAsset(context.Background(), store, nil) {
		t.Error("expected get without a key to fail")
	}
}

func TestShowStats(t *testing.T) {
	store := testStore(t)
	seedAsset(t, store, "uploads/a.jpg")

	if !showStats(context.Background(), store) {
		t.Error("expected stats to succeed")
	}
}
