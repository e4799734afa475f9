package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"media-uploader/internal/netprofile"
)

func TestLoadServiceDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("SIGNING_SECRET", "test-secret")

	cfg, err := LoadService()
	if err != nil {
		t.Fatalf("LoadService() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.MetricsPort != "9090" {
		t.Errorf("MetricsPort = %s, want 9090", cfg.MetricsPort)
	}
	if !cfg.MetricsEnabled {
		t.Error("MetricsEnabled = false, want true by default")
	}
	if cfg.SigningTTL != 15*time.Minute {
		t.Errorf("SigningTTL = %v, want 15m", cfg.SigningTTL)
	}
	if cfg.DatabasePath != filepath.Join(cfg.DataDir, "assets.db") {
		t.Errorf("DatabasePath = %s", cfg.DatabasePath)
	}
	if cfg.ThumbnailDir != filepath.Join(cfg.DataDir, "thumbnails") {
		t.Errorf("ThumbnailDir = %s", cfg.ThumbnailDir)
	}
	if cfg.SigningSecret != "test-secret" {
		t.Errorf("SigningSecret = %s", cfg.SigningSecret)
	}
}

func TestLoadServiceOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("SIGNING_SECRET", "s")
	t.Setenv("PORT", "9000")
	t.Setenv("S3_BUCKET", "parts-images")
	t.Setenv("S3_ENDPOINT", "http://minio:9000")
	t.Setenv("SIGNING_TTL", "5m")

	cfg, err := LoadService()
	if err != nil {
		t.Fatalf("LoadService() error = %v", err)
	}

	if cfg.Port != "9000" || cfg.S3Bucket != "parts-images" || cfg.S3Endpoint != "http://minio:9000" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.SigningTTL != 5*time.Minute {
		t.Errorf("SigningTTL = %v, want 5m", cfg.SigningTTL)
	}
}

func TestLoadServiceGeneratesSecret(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("SIGNING_SECRET", "")

	cfg, err := LoadService()
	if err != nil {
		t.Fatalf("LoadService() error = %v", err)
	}
	if cfg.SigningSecret == "" {
		t.Error("SigningSecret was not generated")
	}
}

func TestLoadClientDefaults(t *testing.T) {
	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient() error = %v", err)
	}
	if cfg.ServiceURL != "http://localhost:8080" {
		t.Errorf("ServiceURL = %s", cfg.ServiceURL)
	}
	if cfg.MaxFileBytes != 10<<20 {
		t.Errorf("MaxFileBytes = %d, want %d", cfg.MaxFileBytes, 10<<20)
	}
	if cfg.StallTimeout != 30*time.Second {
		t.Errorf("StallTimeout = %v, want 30s", cfg.StallTimeout)
	}
}

func TestProfilerConfig(t *testing.T) {
	// No file: built-in bands.
	cfg := ProfilerConfig("")
	if len(cfg.Bands) != len(netprofile.DefaultBands()) {
		t.Errorf("default bands = %d, want %d", len(cfg.Bands), len(netprofile.DefaultBands()))
	}

	// Valid file overrides bands.
	path := filepath.Join(t.TempDir(), "bands.yaml")
	yaml := `
bands:
  - name: slow
    maxBytesPerSec: 100000
    budget:
      maxBytes: 200000
      minQuality: 35
      maxDimension: 1024
  - name: fast
    budget:
      maxBytes: 1500000
      minQuality: 65
      maxDimension: 2048
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg = ProfilerConfig(path)
	if len(cfg.Bands) != 2 || cfg.Bands[0].Name != "slow" {
		t.Errorf("loaded bands = %+v", cfg.Bands)
	}

	// Bad file falls back to defaults.
	cfg = ProfilerConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if len(cfg.Bands) != len(netprofile.DefaultBands()) {
		t.Error("bad band file did not fall back to defaults")
	}
}
