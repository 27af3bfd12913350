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

	"github.com/picdup/picdup/internal/model"
)

// ResultDB provides SQLite-based storage for run history. Each completed
// detection run is stored once: the full result as JSON for replay, plus
// flattened member rows so paths can be looked up across runs without
// deserializing anything.
//
// Design decision: We use a single database file for all runs rather than
// one file per scanned directory. This keeps cross-run queries ("when did
// this file last appear in a group?") simple and makes backup a single
// file copy.
type ResultDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ResultDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ResultDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ResultDB, error) {
	dbPath := filepath.Join(dbDir, "picdup.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; extra connections just contend.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ResultDB{
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

// Close closes the database connection.
func (rdb *ResultDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *ResultDB) createTables() error {
	schema := `
	-- One row per completed detection run; the full result is kept as JSON.
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		directory TEXT NOT NULL,
		scanned_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		total_images INTEGER NOT NULL,
		duplicate_groups INTEGER NOT NULL,
		duplicate_images INTEGER NOT NULL,
		pure_color_images INTEGER NOT NULL,
		skipped_files INTEGER NOT NULL,
		stopped INTEGER NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_directory ON runs(directory);
	CREATE INDEX IF NOT EXISTS idx_runs_scanned_at ON runs(scanned_at);

	-- Flattened group membership for path lookups across runs.
	CREATE TABLE IF NOT EXISTS group_members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		group_index INTEGER NOT NULL,
		label TEXT NOT NULL,
		path TEXT NOT NULL,
		difference_distance INTEGER NOT NULL DEFAULT 0,
		average_distance INTEGER NOT NULL DEFAULT 0,
		frequency_distance INTEGER NOT NULL DEFAULT 0,
		rotation_angle INTEGER NOT NULL DEFAULT 0,
		confidence REAL NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_members_run ON group_members(run_id);
	CREATE INDEX IF NOT EXISTS idx_members_path ON group_members(path);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a completed run and returns its database ID.
// The run row and its member rows are written in one transaction.
func (rdb *ResultDB) SaveRun(ctx context.Context, result *model.RunResult) (int64, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize result: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stats := result.Stats
	stopped := 0
	if stats.Stopped {
		stopped = 1
	}
	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (directory, scanned_at, total_images, duplicate_groups,
		duplicate_images, pure_color_images, skipped_files, stopped, elapsed_ms, result_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.Directory,
		result.ScannedAt.UTC().Format("2006-01-02 15:04:05"),
		stats.TotalImages,
		stats.DuplicateGroups,
		stats.DuplicateImages,
		stats.PureColorImages,
		stats.SkippedFiles,
		stopped,
		stats.Elapsed().Milliseconds(),
		string(resultJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for gi, g := range result.Groups {
		label := g.Label()
		for _, m := range g.Members {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO group_members (run_id, group_index, label, path,
				difference_distance, average_distance, frequency_distance,
				rotation_angle, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				runID, gi, label, m.Path,
				m.DifferenceDistance, m.AverageDistance, m.FrequencyDistance,
				m.RotationAngle, m.Confidence,
			); err != nil {
				return 0, fmt.Errorf("failed to insert group member: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RunSummary contains summary information about a stored run.
// This is used for displaying run history without loading the full result.
type RunSummary struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Directory is the tree that was scanned.
	Directory string

	// ScannedAt is when the run was performed.
	ScannedAt time.Time

	// TotalImages, DuplicateGroups and DuplicateImages mirror the run's
	// statistics counters.
	TotalImages     int
	DuplicateGroups int
	DuplicateImages int

	// Stopped is true when the run was cancelled mid-way.
	Stopped bool

	// Elapsed is the run's wall-clock duration.
	Elapsed time.Duration
}

// RecentRuns retrieves the most recent run summaries, newest first.
// A limit of 0 or less returns everything.
func (rdb *ResultDB) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, directory, scanned_at, total_images, duplicate_groups,
		duplicate_images, stopped, elapsed_ms
	FROM runs
	ORDER BY scanned_at DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var s RunSummary
		var scannedAt string
		var stopped int
		var elapsedMS int64
		if err := rows.Scan(&s.ID, &s.Directory, &scannedAt, &s.TotalImages,
			&s.DuplicateGroups, &s.DuplicateImages, &stopped, &elapsedMS); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		s.ScannedAt = parseTimestamp(scannedAt)
		s.Stopped = stopped != 0
		s.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		results = append(results, s)
	}

	return results, rows.Err()
}

// GetRun retrieves a stored run result by its database ID.
// Returns nil without error when the ID is unknown.
func (rdb *ResultDB) GetRun(ctx context.Context, id int64) (*model.RunResult, error) {
	var resultJSON string
	err := rdb.db.QueryRowContext(ctx,
		`SELECT result_json FROM runs WHERE id = ?`, id).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var result model.RunResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse run result: %w", err)
	}
	return &result, nil
}

// PathAppearance is one historical sighting of a path inside a group.
type PathAppearance struct {
	// RunID identifies the run the sighting belongs to.
	RunID int64

	// ScannedAt is when that run was performed.
	ScannedAt time.Time

	// Label is the group's reason label at the time.
	Label string
}

// PathHistory returns every run in which the given path was part of a
// duplicate group, newest first.
func (rdb *ResultDB) PathHistory(ctx context.Context, path string) ([]PathAppearance, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT m.run_id, r.scanned_at, m.label
	FROM group_members m
	JOIN runs r ON r.id = m.run_id
	WHERE m.path = ?
	ORDER BY r.scanned_at DESC, m.run_id DESC
	`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to query path history: %w", err)
	}
	defer rows.Close()

	var results []PathAppearance
	for rows.Next() {
		var a PathAppearance
		var scannedAt string
		if err := rows.Scan(&a.RunID, &scannedAt, &a.Label); err != nil {
			return nil, fmt.Errorf("failed to scan path appearance: %w", err)
		}
		a.ScannedAt = parseTimestamp(scannedAt)
		results = append(results, a)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
