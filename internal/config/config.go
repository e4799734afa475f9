package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"

	"media-uploader/internal/logging"
	"media-uploader/internal/netprofile"
	"media-uploader/internal/startup"
)

// Service configures the upload-service binary: the HTTP host for the
// signing and thumbnail endpoints.
type Service struct {
	Port            string `envconfig:"PORT" default:"8080"`
	MetricsPort     string `envconfig:"METRICS_PORT" default:"9090"`
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"true"`
	LogHealthChecks bool   `envconfig:"LOG_HEALTH_CHECKS" default:"true"`

	DataDir string `envconfig:"DATA_DIR" default:"/data"`

	// SIGNING_SECRET signs upload credentials; leave empty only in
	// development, where a random per-process secret is generated.
	SigningSecret string        `envconfig:"SIGNING_SECRET"`
	SigningTTL    time.Duration `envconfig:"SIGNING_TTL" default:"15m"`

	S3Region   string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint string `envconfig:"S3_ENDPOINT"`
	S3Bucket   string `envconfig:"S3_BUCKET" default:"media-uploads"`
	S3Access   string `envconfig:"S3_ACCESS_KEY"`
	S3Secret   string `envconfig:"S3_SECRET_KEY"`

	// BANDS_FILE optionally points at a YAML file overriding the
	// network classification bands.
	BandsFile string `envconfig:"BANDS_FILE"`

	// Derived paths
	DatabasePath string `ignored:"true"`
	ThumbnailDir string `ignored:"true"`
}

// Client configures the uploader CLI pipeline.
type Client struct {
	ServiceURL   string        `envconfig:"SERVICE_URL" default:"http://localhost:8080"`
	Concurrency  int           `envconfig:"UPLOAD_CONCURRENCY"`
	MaxFileBytes int64         `envconfig:"MAX_FILE_BYTES" default:"10485760"`
	StallTimeout time.Duration `envconfig:"STALL_TIMEOUT" default:"30s"`
	BandsFile    string        `envconfig:"BANDS_FILE"`
}

// LoadService reads service configuration from the environment and
// validates the data directory.
func LoadService() (*Service, error) {
	var cfg Service
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  PORT:             %s", cfg.Port)
	logging.Info("  METRICS_PORT:     %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:  %v", cfg.MetricsEnabled)
	logging.Info("  DATA_DIR:         %s", cfg.DataDir)
	logging.Info("  S3_BUCKET:        %s", cfg.S3Bucket)
	logging.Info("  S3_ENDPOINT:      %s", orDefault(cfg.S3Endpoint, "(AWS)"))
	logging.Info("  SIGNING_TTL:      %s", cfg.SigningTTL)
	logging.Info("  BANDS_FILE:       %s", orDefault(cfg.BandsFile, "(built-in)"))
	logging.Info("  LOG_LEVEL:        %s", logging.GetLevel())

	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	cfg.DataDir = dataDir

	if err := startup.EnsureDirectory(dataDir, "data"); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}
	if err := startup.TestWriteAccess(dataDir); err != nil {
		return nil, fmt.Errorf("data directory is not writable: %w", err)
	}

	cfg.DatabasePath = filepath.Join(dataDir, "assets.db")
	cfg.ThumbnailDir = filepath.Join(dataDir, "thumbnails")

	if cfg.SigningSecret == "" {
		cfg.SigningSecret = randomSecret()
		logging.Warn("  SIGNING_SECRET not set; generated a per-process secret (credentials will not survive restarts)")
	}

	return &cfg, nil
}

// LoadClient reads CLI pipeline configuration from the environment.
func LoadClient() (*Client, error) {
	var cfg Client
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &cfg, nil
}

// ProfilerConfig builds the network profiler configuration, applying a
// band-tuning file when one is configured. The thresholds are tunable
// deployment telemetry, not a contract; a bad file falls back to the
// built-in bands with a warning.
func ProfilerConfig(bandsFile string) netprofile.Config {
	cfg := netprofile.DefaultConfig()
	if bandsFile == "" {
		return cfg
	}
	bands, err := netprofile.LoadBands(bandsFile)
	if err != nil {
		logging.Warn("Ignoring band file %s: %v", bandsFile, err)
		return cfg
	}
	logging.Info("Loaded %d network bands from %s", len(bands), bandsFile)
	cfg.Bands = bands
	return cfg
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform is broken; be loud.
		logging.Fatal("generating signing secret: %v", err)
	}
	return hex.EncodeToString(b)
}
