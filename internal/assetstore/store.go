package assetstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-uploader/internal/logging"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("assetstore: not found")

// Asset is one uploaded object as recorded by the service side.
type Asset struct {
	ID          int64
	Key         string
	URL         string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}

// Thumbnail is a generated preview variant of an asset.
type Thumbnail struct {
	ID        int64
	AssetURL  string
	Path      string
	Width     int
	Height    int
	SizeBytes int64
	CreatedAt time.Time
}

// Stats summarizes store contents for health reporting.
type Stats struct {
	Assets     int
	Thumbnails int
}

// Store persists uploaded-asset and thumbnail records in SQLite.
type Store struct {
	db     *sql.DB
	dbPath string
}

// New opens (or creates) the store at dbPath. The parent directory must
// already exist and be writable.
func New(ctx context.Context, dbPath string) (*Store, error) {
	// WAL with a busy timeout keeps concurrent thumbnail writers from
	// tripping "database is locked" errors.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Asset store initialized at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_assets_url ON assets(url);

	CREATE TABLE IF NOT EXISTS thumbnails (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		asset_url TEXT NOT NULL UNIQUE,
		path TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_thumbnails_asset_url ON thumbnails(asset_url);
	`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// RecordAsset inserts or refreshes the record for an uploaded object,
// keyed by storage key.
func (s *Store) RecordAsset(ctx context.Context, a Asset) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (key, url, content_type, size_bytes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			url = excluded.url,
			content_type = excluded.content_type,
			size_bytes = excluded.size_bytes`,
		a.Key, a.URL, a.ContentType, a.SizeBytes)
	if err != nil {
		return 0, fmt.Errorf("recording asset %s: %w", a.Key, err)
	}
	return res.LastInsertId()
}

// GetAssetByKey returns the asset stored under key, or ErrNotFound.
func (s *Store) GetAssetByKey(ctx context.Context, key string) (*Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a Asset
	var created int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, key, url, content_type, size_bytes, created_at
		FROM assets WHERE key = ?`, key).
		Scan(&a.ID, &a.Key, &a.URL, &a.ContentType, &a.SizeBytes, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset %s: %w", key, err)
	}
	a.CreatedAt = time.Unix(created, 0)
	return &a, nil
}

// ListAssets returns up to limit assets, newest first.
func (s *Store) ListAssets(ctx context.Context, limit int) ([]Asset, error) {
	if limit <= 0 {
		limit = 100
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, key, url, content_type, size_bytes, created_at
		FROM assets ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		var created int64
		if err := rows.Scan(&a.ID, &a.Key, &a.URL, &a.ContentType, &a.SizeBytes, &created); err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		a.CreatedAt = time.Unix(created, 0)
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// RecordThumbnail inserts or refreshes the thumbnail record for an
// asset URL.
func (s *Store) RecordThumbnail(ctx context.Context, t Thumbnail) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO thumbnails (asset_url, path, width, height, size_bytes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(asset_url) DO UPDATE SET
			path = excluded.path,
			width = excluded.width,
			height = excluded.height,
			size_bytes = excluded.size_bytes`,
		t.AssetURL, t.Path, t.Width, t.Height, t.SizeBytes)
	if err != nil {
		return 0, fmt.Errorf("recording thumbnail for %s: %w", t.AssetURL, err)
	}
	return res.LastInsertId()
}

// GetThumbnail returns the thumbnail recorded for assetURL, or
// ErrNotFound.
func (s *Store) GetThumbnail(ctx context.Context, assetURL string) (*Thumbnail, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var t Thumbnail
	var created int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, asset_url, path, width, height, size_bytes, created_at
		FROM thumbnails WHERE asset_url = ?`, assetURL).
		Scan(&t.ID, &t.AssetURL, &t.Path, &t.Width, &t.Height, &t.SizeBytes, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting thumbnail for %s: %w", assetURL, err)
	}
	t.CreatedAt = time.Unix(created, 0)
	return &t, nil
}

// GetStats returns row counts for health reporting.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var st Stats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assets").Scan(&st.Assets); err != nil {
		return st, fmt.Errorf("counting assets: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM thumbnails").Scan(&st.Thumbnails); err != nil {
		return st, fmt.Errorf("counting thumbnails: %w", err)
	}
	return st, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
