package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"media-uploader/internal/capabilities"
	"media-uploader/internal/compress"
	"media-uploader/internal/config"
	"media-uploader/internal/logging"
	"media-uploader/internal/netprofile"
	"media-uploader/internal/signing"
	"media-uploader/internal/thumbnailer"
	"media-uploader/internal/transport"
	"media-uploader/internal/uploadqueue"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Cancel in-flight uploads on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	caps := capabilities.Detect()
	logging.Info("Device: %d cores, %d MB memory, lowEnd=%v, offload=%v",
		caps.LogicalCores, caps.TotalMemoryBytes/(1<<20), caps.IsLowEndDevice, caps.OffloadAvailable)

	engine := compress.NewEngine(caps.OffloadAvailable)
	profiler := netprofile.New(config.ProfilerConfig(cfg.BandsFile))

	httpClient := &http.Client{Timeout: 5 * time.Minute}
	authorizer := signing.NewClient(cfg.ServiceURL, httpClient, profiler)

	transportCfg := transport.DefaultConfig()
	transportCfg.StallTimeout = cfg.StallTimeout
	uploader := transport.New(httpClient, profiler, transportCfg)

	thumbs := thumbnailer.NewClient(cfg.ServiceURL, httpClient)

	manager := uploadqueue.New(uploadqueue.Deps{
		Engine:     engine,
		Profiler:   profiler,
		Authorizer: authorizer,
		Uploader:   uploader,
		Thumbnails: thumbs,
	}, uploadqueue.Config{
		Concurrency:  cfg.Concurrency,
		MaxFileBytes: cfg.MaxFileBytes,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, cancelling uploads...")
		manager.CancelAll()
		cancel()
	}()

	files, readErrors := readFiles(os.Args[1:])
	for _, msg := range readErrors {
		fmt.Fprintf(os.Stderr, "Skipped: %s\n", msg)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no readable files to upload")
		os.Exit(1)
	}

	unsubscribe := manager.Subscribe(reportTransitions())
	defer unsubscribe()

	rejections := manager.Enqueue(files)
	for _, rej := range rejections {
		fmt.Fprintf(os.Stderr, "Rejected: %s: %s\n", rej.Name, rej.Reason)
	}

	if err := manager.Wait(ctx); err != nil {
		manager.CancelAll()
		// Give cancellations a moment to land in the final snapshot
		waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer waitCancel()
		_ = manager.Wait(waitCtx)
	}

	code := summarize(manager.Snapshot(), len(readErrors)+len(rejections))
	if caps.OffloadAvailable {
		compress.ShutdownVips()
	}
	os.Exit(code)
}

// readFiles loads each path into memory and detects its content type
// from the actual bytes.
func readFiles(paths []string) ([]uploadqueue.File, []string) {
	var files []uploadqueue.File
	var errors []string

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			errors = append(errors, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		files = append(files, uploadqueue.File{
			Name:        filepath.Base(path),
			ContentType: mimetype.Detect(data).String(),
			Data:        data,
		})
	}
	return files, errors
}

// reportTransitions returns a subscriber that prints one line per item
// state change, deduplicating unchanged states between snapshots.
func reportTransitions() func(uploadqueue.Snapshot) {
	last := make(map[string]string)

	return func(snap uploadqueue.Snapshot) {
		for _, it := range snap.Items {
			state := fmt.Sprintf("%s:%d", it.Status, it.Progress)
			if last[it.ID] == state {
				continue
			}
			last[it.ID] = state

			switch it.Status {
			case uploadqueue.StatusUploading:
				fmt.Printf("  %-30s %s %3d%%\n", it.FileName, it.Status, it.Progress)
			case uploadqueue.StatusSuccess:
				fmt.Printf("  %-30s %s -> %s\n", it.FileName, it.Status, it.FinalURL)
			case uploadqueue.StatusError:
				fmt.Printf("  %-30s %s: %s\n", it.FileName, it.Status, it.Error)
			default:
				fmt.Printf("  %-30s %s\n", it.FileName, it.Status)
			}
		}
	}
}

// summarize prints the final tally and picks the process exit code.
func summarize(snap uploadqueue.Snapshot, skipped int) int {
	var failed, cancelled int
	for _, it := range snap.Items {
		switch it.Status {
		case uploadqueue.StatusError:
			failed++
		case uploadqueue.StatusCancelled:
			cancelled++
		}
	}

	fmt.Printf("\nDone: %d uploaded, %d failed, %d cancelled, %d skipped\n",
		snap.CompletedCount, failed, cancelled, skipped)

	if failed > 0 || skipped > 0 {
		return 1
	}
	if cancelled > 0 {
		return 130
	}
	return 0
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: uploader <file> [file...]

Compresses and uploads images through the media upload service.

Configuration (environment):
  SERVICE_URL         upload service base URL (default http://localhost:8080)
  UPLOAD_CONCURRENCY  concurrent upload slots (default: derived from device)
  MAX_FILE_BYTES      per-file size cap in bytes (default 10485760)
  STALL_TIMEOUT       per-attempt stall timeout (default 30s)
  BANDS_FILE          YAML file overriding network classification bands
`)
}
