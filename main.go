package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"media-uploader/internal/assetstore"
	"media-uploader/internal/config"
	"media-uploader/internal/handlers"
	"media-uploader/internal/logging"
	"media-uploader/internal/middleware"
	"media-uploader/internal/signing"
	"media-uploader/internal/startup"
	"media-uploader/internal/thumbnailer"
)

func main() {
	startTime := time.Now()

	startup.Banner()

	// Load configuration
	cfg, err := config.LoadService()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// Initialize asset store
	storeStart := time.Now()
	store, err := assetstore.New(context.Background(), cfg.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to initialize asset store: %v", err)
	}
	defer store.Close()
	logging.Info("Asset store ready in %v (%s)", time.Since(storeStart).Round(time.Millisecond), cfg.DatabasePath)

	// Initialize presigner and signing service
	presigner, err := signing.NewS3Presigner(context.Background(), signing.S3Config{
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3Endpoint,
		Bucket:       cfg.S3Bucket,
		AccessKey:    cfg.S3Access,
		SecretKey:    cfg.S3Secret,
		Expiry:       cfg.SigningTTL,
	})
	if err != nil {
		logging.Fatal("Failed to initialize presigner: %v", err)
	}
	signer := signing.NewService(presigner, []byte(cfg.SigningSecret), cfg.SigningTTL)

	// Initialize thumbnail generator
	generator, err := thumbnailer.NewGenerator(&http.Client{Timeout: 30 * time.Second}, store, cfg.ThumbnailDir)
	if err != nil {
		logging.Fatal("Failed to initialize thumbnail generator: %v", err)
	}

	// Initialize handlers and router
	h := handlers.New(signer, generator, store)
	router := mux.NewRouter()
	h.RegisterRoutes(router)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, cfg.LogHealthChecks)

	// Apply metrics middleware
	metricsConfig := middleware.DefaultMetricsConfig()
	measured := middleware.Metrics(metricsConfig)(router)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = cfg.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(measured)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics are served on their own port so they stay off the public API
	var metricsSrv *http.Server
	if cfg.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    ":" + cfg.MetricsPort,
			Handler: metricsMux,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, store)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            cfg.Port,
		MetricsPort:     cfg.MetricsPort,
		MetricsEnabled:  cfg.MetricsEnabled,
		StartupDuration: time.Since(startTime).Round(time.Millisecond),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func handleShutdown(srv, metricsSrv *http.Server, store *assetstore.Store) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Closing asset store")
	if err := store.Close(); err != nil {
		logging.Warn("Asset store close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Asset store closed")
	}

	startup.LogShutdownComplete()
}
