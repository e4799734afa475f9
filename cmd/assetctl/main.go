package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"media-uploader/internal/assetstore"
)

const (
	// Default timeout for store operations
	defaultTimeout = 30 * time.Second
	// Default data directory path
	defaultDataDir = "/data"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	// Get data directory from env or default
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	dbPath := filepath.Join(dataDir, "assets.db")

	store, err := assetstore.New(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open asset store: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATA_DIR is set correctly (current: %s)\n", dataDir)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
		}
	}()

	switch command {
	case "list":
		if !listAssets(ctx, store, os.Args[2:]) {
			os.Exit(1)
		}
	case "stats":
		if !showStats(ctx, store) {
			os.Exit(1)
		}
	case "get":
		if !getAsset(ctx, store, os.Args[2:]) {
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage()
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for
// display, replacing anything outside [a-zA-Z0-9_-] with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Media Uploader Asset Store Management")
	fmt.Println("")
	fmt.Println("Usage: assetctl <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list [limit]  - List recorded assets, newest first")
	fmt.Println("  get <key>     - Show one asset by storage key")
	fmt.Println("  stats         - Show store totals")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATA_DIR - Path to data directory (default: %s)\n", defaultDataDir)
}

func listAssets(ctx context.Context, store *assetstore.Store, args []string) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	limit := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Fprintf(os.Stderr, "Error: limit must be a positive integer, got %q\n", args[0])
			return false
		}
		limit = n
	}

	assets, err := store.ListAssets(ctx, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list assets: %v\n", err)
		return false
	}

	if len(assets) == 0 {
		fmt.Println("No assets recorded.")
		return true
	}

	for _, a := range assets {
		fmt.Printf("%s  %10d  %-12s  %s\n",
			a.CreatedAt.Format("2006-01-02 15:04:05"), a.SizeBytes, a.ContentType, a.Key)
	}
	return true
}

func getAsset(ctx context.Context, store *assetstore.Store, args []string) bool {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: get requires a storage key")
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	asset, err := store.GetAssetByKey(ctx, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	fmt.Printf("Key:          %s\n", asset.Key)
	fmt.Printf("URL:          %s\n", asset.URL)
	fmt.Printf("Content type: %s\n", asset.ContentType)
	fmt.Printf("Size:         %d bytes\n", asset.SizeBytes)
	fmt.Printf("Created:      %s\n", asset.CreatedAt.Format("2006-01-02 15:04:05"))
	return true
}

func showStats(ctx context.Context, store *assetstore.Store) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stats, err := store.GetStats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read stats: %v\n", err)
		return false
	}

	fmt.Printf("Assets:     %d\n", stats.Assets)
	fmt.Printf("Thumbnails: %d\n", stats.Thumbnails)
	return true
}
