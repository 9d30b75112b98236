package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrCacheMiss is returned when a key is absent or older than the
// requested age.
var ErrCacheMiss = errors.New("cache miss")

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	raw_size   INTEGER NOT NULL,
	etag       TEXT NOT NULL DEFAULT '',
	fetched_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS fetches (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	key         TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	entries     INTEGER NOT NULL,
	cached      BOOLEAN NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_fetches_started ON fetches(started_at);
`

// Snapshot is a cached dataset payload.
type Snapshot struct {
	Key       string
	Data      []byte
	ETag      string
	FetchedAt time.Time
	// StoredSize is the compressed size on disk.
	StoredSize int
}

// Age returns how old the snapshot is at now.
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// FetchRecord is one entry of the refresh history.
type FetchRecord struct {
	Key       string
	StartedAt time.Time
	Duration  time.Duration
	Entries   int
	Cached    bool
	Error     string
}

// Cache stores dataset snapshots in SQLite, zstd-compressed.
type Cache struct {
	db *sql.DB

	encOnce  sync.Once
	enc      *zstd.Encoder
	dec      *zstd.Decoder
	codecErr error
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA temp_store = memory",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	if c.enc != nil {
		c.enc.Close()
	}
	if c.dec != nil {
		c.dec.Close()
	}
	return c.db.Close()
}

func (c *Cache) codecs() (*zstd.Encoder, *zstd.Decoder, error) {
	c.encOnce.Do(func() {
		c.enc, c.codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if c.codecErr != nil {
			return
		}
		c.dec, c.codecErr = zstd.NewReader(nil)
	})
	return c.enc, c.dec, c.codecErr
}

// Put stores data under key, replacing any previous snapshot.
func (c *Cache) Put(ctx context.Context, key string, data []byte, etag string, fetchedAt time.Time) error {
	enc, _, err := c.codecs()
	if err != nil {
		return fmt.Errorf("creating zstd encoder: %w", err)
	}
	compressed := enc.EncodeAll(data, nil)
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, data, raw_size, etag, fetched_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			raw_size = excluded.raw_size,
			etag = excluded.etag,
			fetched_at = excluded.fetched_at`,
		key, compressed, len(data), etag, fetchedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("storing snapshot %s: %w", key, err)
	}
	return nil
}

// Get returns the snapshot for key if it is younger than maxAge. A zero
// maxAge accepts any age.
func (c *Cache) Get(ctx context.Context, key string, maxAge time.Duration) (Snapshot, error) {
	var (
		blob    []byte
		rawSize int
		fetched int64
		snap    = Snapshot{Key: key}
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT data, raw_size, etag, fetched_at FROM snapshots WHERE key = ?`, key).
		Scan(&blob, &rawSize, &snap.ETag, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrCacheMiss
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot %s: %w", key, err)
	}
	snap.FetchedAt = time.UnixMilli(fetched)
	if maxAge > 0 && time.Since(snap.FetchedAt) > maxAge {
		return Snapshot{}, ErrCacheMiss
	}
	_, dec, err := c.codecs()
	if err != nil {
		return Snapshot{}, fmt.Errorf("creating zstd decoder: %w", err)
	}
	snap.Data, err = dec.DecodeAll(blob, make([]byte, 0, rawSize))
	if err != nil {
		return Snapshot{}, fmt.Errorf("decompressing snapshot %s: %w", key, err)
	}
	snap.StoredSize = len(blob)
	return snap, nil
}

// Delete removes the snapshot for key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", key, err)
	}
	return nil
}

// RecordFetch appends r to the refresh history.
func (c *Cache) RecordFetch(ctx context.Context, r FetchRecord) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO fetches (key, started_at, duration_ms, entries, cached, error)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Key, r.StartedAt.UnixMilli(), r.Duration.Milliseconds(), r.Entries, r.Cached, r.Error)
	if err != nil {
		return fmt.Errorf("recording fetch: %w", err)
	}
	return nil
}

// History returns the most recent fetches, newest first.
func (c *Cache) History(ctx context.Context, limit int) ([]FetchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.db.QueryContext(ctx, `
		SELECT key, started_at, duration_ms, entries, cached, error
		FROM fetches ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []FetchRecord
	for rows.Next() {
		var (
			r       FetchRecord
			started int64
			ms      int64
		)
		if err := rows.Scan(&r.Key, &started, &ms, &r.Entries, &r.Cached, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}
