package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/cardhash/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "cardhash.db"

// RunDB provides SQLite-based storage for run history and the hash cache.
// A single connection is used, so all methods are safe for concurrent use.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error
// wrapping os.ErrNotExist is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- One row per manifest generation run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		directory TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		total INTEGER NOT NULL DEFAULT 0,
		succeeded INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		cache_hits INTEGER NOT NULL DEFAULT 0,
		state TEXT NOT NULL,
		manifest_path TEXT,
		error TEXT,
		failures_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_directory ON runs(directory);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Hash tokens keyed by file content digest and component counts
	CREATE TABLE IF NOT EXISTS hashes (
		digest TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		hash TEXT NOT NULL,
		used_at TEXT NOT NULL,
		PRIMARY KEY (digest, x, y)
	);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored run summary.
type RunRecord struct {
	RunID        string
	Directory    string
	StartedAt    time.Time
	FinishedAt   time.Time
	Total        int
	Succeeded    int
	Failed       int
	CacheHits    int
	State        model.State
	ManifestPath string
	Error        string
	Failures     []model.Failure
}

// Duration returns the run's wall-clock duration.
func (r RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SaveRun inserts or replaces the record for run.
// The directory is stored as an absolute path so runs started from different
// working directories group together.
func (rdb *RunDB) SaveRun(ctx context.Context, run *model.Run) error {
	failuresJSON, err := json.Marshal(run.Failures)
	if err != nil {
		return fmt.Errorf("failed to serialize failures: %w", err)
	}

	var finished sql.NullString
	if !run.FinishedAt.IsZero() {
		finished = sql.NullString{String: formatTimestamp(run.FinishedAt), Valid: true}
	}

	query := `
	INSERT INTO runs (run_id, directory, started_at, finished_at, total, succeeded, failed,
		cache_hits, state, manifest_path, error, failures_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		finished_at = excluded.finished_at,
		total = excluded.total,
		succeeded = excluded.succeeded,
		failed = excluded.failed,
		cache_hits = excluded.cache_hits,
		state = excluded.state,
		manifest_path = excluded.manifest_path,
		error = excluded.error,
		failures_json = excluded.failures_json
	`

	_, err = rdb.db.ExecContext(ctx, query,
		run.ID,
		run.AbsDirectory(),
		formatTimestamp(run.StartedAt),
		finished,
		run.Total(),
		run.Succeeded(),
		run.Failed(),
		run.CacheHits,
		string(run.State),
		run.ManifestPath,
		run.ErrorMessage,
		string(failuresJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

const runColumns = `run_id, directory, started_at, finished_at, total, succeeded, failed,
	cache_hits, state, manifest_path, error, failures_json`

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var (
		rec          RunRecord
		started      string
		finished     sql.NullString
		state        string
		manifestPath sql.NullString
		errMsg       sql.NullString
		failuresJSON sql.NullString
	)
	err := s.Scan(
		&rec.RunID,
		&rec.Directory,
		&started,
		&finished,
		&rec.Total,
		&rec.Succeeded,
		&rec.Failed,
		&rec.CacheHits,
		&state,
		&manifestPath,
		&errMsg,
		&failuresJSON,
	)
	if err != nil {
		return RunRecord{}, err
	}

	rec.StartedAt = parseTimestamp(started)
	if finished.Valid {
		rec.FinishedAt = parseTimestamp(finished.String)
	}
	rec.State = model.State(state)
	rec.ManifestPath = manifestPath.String
	rec.Error = errMsg.String
	if failuresJSON.Valid && failuresJSON.String != "" {
		if err := json.Unmarshal([]byte(failuresJSON.String), &rec.Failures); err != nil {
			rec.Failures = nil // tolerate rows written by older versions
		}
	}
	return rec, nil
}

// GetRun retrieves a run by id. It returns nil, nil when no run matches.
func (rdb *RunDB) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE run_id = ?`

	rec, err := scanRun(rdb.db.QueryRowContext(ctx, query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &rec, nil
}

// ListRuns returns runs for dir, newest first. An empty dir lists runs for
// all directories. limit <= 0 means no limit.
func (rdb *RunDB) ListRuns(ctx context.Context, dir string, limit int) ([]RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	args := make([]any, 0, 2)

	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			abs = dir
		}
		query += " AND directory = ?"
		args = append(args, abs)
	}

	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	results := make([]RunRecord, 0)
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// DirectorySummary describes one directory that has recorded runs.
type DirectorySummary struct {
	Directory string
	Runs      int
	LastRun   time.Time
	LastState model.State
}

// ListDirectories returns every directory with recorded runs, sorted by path.
func (rdb *RunDB) ListDirectories(ctx context.Context) ([]DirectorySummary, error) {
	query := `
	SELECT r.directory, COUNT(*), MAX(r.started_at),
		(SELECT state FROM runs l WHERE l.directory = r.directory ORDER BY l.started_at DESC LIMIT 1)
	FROM runs r
	GROUP BY r.directory
	ORDER BY r.directory
	`

	rows, err := rdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list directories: %w", err)
	}
	defer rows.Close()

	results := make([]DirectorySummary, 0)
	for rows.Next() {
		var (
			s       DirectorySummary
			lastRun string
			state   string
		)
		if err := rows.Scan(&s.Directory, &s.Runs, &lastRun, &state); err != nil {
			return nil, fmt.Errorf("failed to scan directory: %w", err)
		}
		s.LastRun = parseTimestamp(lastRun)
		s.LastState = model.State(state)
		results = append(results, s)
	}
	return results, rows.Err()
}

// LookupHash returns the cached hash for a digest and component counts.
// A hit refreshes the entry's last-used time so PruneHashes keeps it.
func (rdb *RunDB) LookupHash(ctx context.Context, digest string, xComponents, yComponents int) (string, bool, error) {
	query := `
	UPDATE hashes SET used_at = ?
	WHERE digest = ? AND x = ? AND y = ?
	RETURNING hash
	`

	var hash string
	err := rdb.db.QueryRowContext(ctx, query,
		formatTimestamp(time.Now()), digest, xComponents, yComponents).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up hash: %w", err)
	}
	return hash, true, nil
}

// StoreHash caches hash for a digest and component counts.
func (rdb *RunDB) StoreHash(ctx context.Context, digest string, xComponents, yComponents int, hash string) error {
	query := `
	INSERT INTO hashes (digest, x, y, hash, used_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(digest, x, y) DO UPDATE SET hash = excluded.hash, used_at = excluded.used_at
	`

	_, err := rdb.db.ExecContext(ctx, query, digest, xComponents, yComponents, hash, formatTimestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to store hash: %w", err)
	}
	return nil
}

// CountHashes returns the number of cached hash entries.
func (rdb *RunDB) CountHashes(ctx context.Context) (int, error) {
	var n int
	if err := rdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hashes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count hashes: %w", err)
	}
	return n, nil
}

// PruneHashes deletes cache entries last stored or looked up before cutoff
// and returns the number removed.
func (rdb *RunDB) PruneHashes(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := rdb.db.ExecContext(ctx, `DELETE FROM hashes WHERE used_at < ?`, formatTimestamp(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to prune hashes: %w", err)
	}
	return res.RowsAffected()
}

// storedTimestampFormat sorts lexically in chronological order.
const storedTimestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storedTimestampFormat)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimestampFormat,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, it returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
