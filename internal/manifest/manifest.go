// Package manifest keeps a SQLite ledger of dataset generation runs: the
// parameters of each run, the split every file was assigned to and the
// outcome of every file. A run's assignment can be read back to regenerate
// the same dataset.
package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tphakala/spectroset/internal/dataset"
	"github.com/tphakala/spectroset/internal/pipeline"
	"github.com/tphakala/spectroset/internal/profile"
	"github.com/tphakala/spectroset/internal/transcode"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound indicates an unknown run id.
var ErrRunNotFound = errors.New("manifest: run not found")

const (
	driverName = "sqlite"
	dirPerm    = 0o755
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER,
	seed        TEXT NOT NULL,
	source_dir  TEXT NOT NULL,
	output_dir  TEXT NOT NULL,
	catalog     TEXT NOT NULL,
	workers     INTEGER NOT NULL,
	discovered  INTEGER,
	processed   INTEGER,
	skipped     INTEGER,
	failed      INTEGER,
	bytes       INTEGER,
	interrupted INTEGER
);
CREATE TABLE IF NOT EXISTS assignments (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	split    TEXT NOT NULL,
	position INTEGER NOT NULL,
	path     TEXT NOT NULL,
	PRIMARY KEY (run_id, split, position)
);
CREATE TABLE IF NOT EXISTS files (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	path       TEXT NOT NULL,
	stem       TEXT NOT NULL,
	split      TEXT NOT NULL,
	status     TEXT NOT NULL,
	profiles   INTEGER NOT NULL,
	error      TEXT,
	bytes      INTEGER NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	PRIMARY KEY (run_id, path)
);
CREATE INDEX IF NOT EXISTS idx_files_status ON files(run_id, status);
`

// RunInfo describes a run at start-up.
type RunInfo struct {
	SourceDir  string
	OutputDir  string
	Catalog    profile.Catalog
	Workers    int
	Assignment dataset.Assignment
}

// Run is a stored run summary.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Seed       uint64
	SourceDir  string
	OutputDir  string
	Catalog    string
	Workers    int

	Discovered  int
	Processed   int
	Skipped     int
	Failed      int
	Bytes       int64
	Interrupted bool
}

// Store is an open manifest database. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the manifest at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create manifest tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun stores the run parameters and its full split assignment and
// returns the new run id.
func (s *Store) BeginRun(ctx context.Context, info RunInfo) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, seed, source_dir, output_dir, catalog, workers)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UnixMilli(), strconv.FormatUint(info.Assignment.Seed, 10),
		info.SourceDir, info.OutputDir, info.Catalog.String(), info.Workers)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO assignments (run_id, split, position, path) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare assignment insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, split := range info.Assignment.Splits() {
		for i, path := range split.Files {
			if _, err := stmt.ExecContext(ctx, id, string(split.Name), i, path); err != nil {
				return "", fmt.Errorf("failed to insert assignment: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// Record stores the outcome of one file, replacing an earlier row for the
// same path in the same run.
func (s *Store) Record(ctx context.Context, runID string, res transcode.Result) error {
	var errText sql.NullString
	if res.Err != nil {
		errText = sql.NullString{String: res.Err.Error(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO files
			(run_id, path, stem, split, status, profiles, error, bytes, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, res.Path, res.Stem, string(res.Split), res.Status.String(),
		res.Profiles, errText, res.Bytes, res.Elapsed.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", res.Path, err)
	}
	return nil
}

// Recorder returns a pipeline.Recorder that records into runID.
func (s *Store) Recorder(runID string) pipeline.Recorder {
	return runRecorder{store: s, runID: runID}
}

type runRecorder struct {
	store *Store
	runID string
}

func (r runRecorder) Record(ctx context.Context, res transcode.Result) error {
	return r.store.Record(ctx, r.runID, res)
}

// FinishRun stores the final counts of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, report *pipeline.Report) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, discovered = ?, processed = ?, skipped = ?,
			failed = ?, bytes = ?, interrupted = ?
		WHERE id = ?`,
		time.Now().UnixMilli(), report.Discovered, report.Processed, report.Skipped,
		report.Failed, report.Bytes, report.Interrupted, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// Run returns the stored summary of runID.
func (s *Store) Run(ctx context.Context, runID string) (*Run, error) {
	var (
		r           Run
		started     int64
		finished    sql.NullInt64
		seed        string
		counts      [4]sql.NullInt64
		bytes       sql.NullInt64
		interrupted sql.NullBool
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, seed, source_dir, output_dir, catalog, workers,
			discovered, processed, skipped, failed, bytes, interrupted
		FROM runs WHERE id = ?`, runID).
		Scan(&r.ID, &started, &finished, &seed, &r.SourceDir, &r.OutputDir, &r.Catalog, &r.Workers,
			&counts[0], &counts[1], &counts[2], &counts[3], &bytes, &interrupted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run: %w", err)
	}

	r.Seed, err = strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored seed %q: %w", seed, err)
	}
	r.StartedAt = time.UnixMilli(started)
	if finished.Valid {
		r.FinishedAt = time.UnixMilli(finished.Int64)
	}
	r.Discovered = int(counts[0].Int64)
	r.Processed = int(counts[1].Int64)
	r.Skipped = int(counts[2].Int64)
	r.Failed = int(counts[3].Int64)
	r.Bytes = bytes.Int64
	r.Interrupted = interrupted.Bool
	return &r, nil
}

// Assignments returns the split assignment stored for runID, in the
// original order within each split.
func (s *Store) Assignments(ctx context.Context, runID string) (dataset.Assignment, error) {
	run, err := s.Run(ctx, runID)
	if err != nil {
		return dataset.Assignment{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT split, path FROM assignments WHERE run_id = ? ORDER BY split, position`, runID)
	if err != nil {
		return dataset.Assignment{}, fmt.Errorf("failed to read assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	a := dataset.Assignment{Seed: run.Seed}
	for rows.Next() {
		var split, path string
		if err := rows.Scan(&split, &path); err != nil {
			return dataset.Assignment{}, fmt.Errorf("failed to scan assignment: %w", err)
		}
		switch dataset.SplitName(split) {
		case dataset.Train:
			a.Train = append(a.Train, path)
		case dataset.Val:
			a.Val = append(a.Val, path)
		case dataset.Test:
			a.Test = append(a.Test, path)
		default:
			return dataset.Assignment{}, fmt.Errorf("unknown split %q in run %s", split, runID)
		}
	}
	if err := rows.Err(); err != nil {
		return dataset.Assignment{}, fmt.Errorf("failed to read assignments: %w", err)
	}
	return a, nil
}

// Results returns the per-file results of runID keyed by path. Errors are
// restored as plain text.
func (s *Store) Results(ctx context.Context, runID string) (map[string]transcode.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, stem, split, status, profiles, error, bytes, elapsed_ms
		FROM files WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]transcode.Result)
	for rows.Next() {
		var (
			res       transcode.Result
			split     string
			status    string
			errText   sql.NullString
			elapsedMS int64
		)
		if err := rows.Scan(&res.Path, &res.Stem, &split, &status, &res.Profiles,
			&errText, &res.Bytes, &elapsedMS); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		res.Split = dataset.SplitName(split)
		res.Status, err = parseStatus(status)
		if err != nil {
			return nil, err
		}
		if errText.Valid {
			res.Err = errors.New(errText.String)
		}
		res.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out[res.Path] = res
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	return out, nil
}

func parseStatus(s string) (transcode.Status, error) {
	for _, st := range []transcode.Status{transcode.StatusProcessed, transcode.StatusSkipped, transcode.StatusFailed} {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}
