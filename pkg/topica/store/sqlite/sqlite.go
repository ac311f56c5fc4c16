package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/topica/pkg/topica/internalerr"
	"github.com/cognicore/topica/pkg/topica/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	input TEXT,
	documents INTEGER NOT NULL DEFAULT 0,
	vocab_size INTEGER NOT NULL DEFAULT 0,
	measure TEXT,
	seed INTEGER NOT NULL DEFAULT 0,
	version TEXT,
	config TEXT
);

CREATE TABLE IF NOT EXISTS sweep_points (
	run_id TEXT NOT NULL,
	k INTEGER NOT NULL,
	coherence REAL NOT NULL,
	log_perplexity REAL NOT NULL,
	per_topic TEXT,
	duration_ms INTEGER NOT NULL,
	PRIMARY KEY(run_id, k),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS phrases (
	run_id TEXT NOT NULL,
	text TEXT NOT NULL,
	stage TEXT NOT NULL,
	count INTEGER NOT NULL,
	score REAL NOT NULL,
	PRIMARY KEY(run_id, stage, text),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS assignments (
	run_id TEXT NOT NULL,
	k INTEGER NOT NULL,
	doc_index INTEGER NOT NULL,
	dominant_topic INTEGER NOT NULL,
	contribution REAL NOT NULL,
	keywords TEXT,
	text TEXT,
	PRIMARY KEY(run_id, k, doc_index),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// CreateRun inserts a run, assigning an id and timestamp when missing.
func (s *sqliteStore) CreateRun(ctx context.Context, r store.Run) (store.Run, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.ID == "" {
		r.ID = store.NewRunID(r.CreatedAt)
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, created_at, input, documents, vocab_size, measure, seed, version, config)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
`, r.ID, r.CreatedAt.Format(time.RFC3339Nano), r.Input, r.Documents, r.VocabSize, r.Measure, int64(r.Seed), r.Version, r.Config)
	if err != nil {
		return store.Run{}, err
	}
	return r, nil
}

const runColumns = `id, created_at, input, documents, vocab_size, measure, seed, version, config`

func scanRun(sc interface{ Scan(...any) error }) (store.Run, error) {
	var r store.Run
	var created string
	var seed int64
	if err := sc.Scan(&r.ID, &created, &r.Input, &r.Documents, &r.VocabSize, &r.Measure, &seed, &r.Version, &r.Config); err != nil {
		return store.Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return store.Run{}, fmt.Errorf("run %s: bad created_at %q: %w", r.ID, created, err)
	}
	r.CreatedAt = t
	r.Seed = uint64(seed)
	return r, nil
}

// GetRun retrieves a run by id
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return r, err
}

// ListRuns returns the most recent runs first
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SavePoints upserts sweep points in a single transaction.
func (s *sqliteStore) SavePoints(ctx context.Context, runID string, points []store.SweepPoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO sweep_points (run_id, k, coherence, log_perplexity, per_topic, duration_ms)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, k) DO UPDATE SET
	coherence=excluded.coherence,
	log_perplexity=excluded.log_perplexity,
	per_topic=excluded.per_topic,
	duration_ms=excluded.duration_ms;
`
	for _, p := range points {
		perTopic, err := json.Marshal(p.PerTopic)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt, runID, p.K, p.Coherence, p.LogPerplexity, string(perTopic), p.Duration.Milliseconds()); err != nil {
			return fmt.Errorf("save point k=%d: %w", p.K, err)
		}
	}
	return tx.Commit()
}

// GetPoints returns the sweep points of a run ordered by k
func (s *sqliteStore) GetPoints(ctx context.Context, runID string) ([]store.SweepPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT k, coherence, log_perplexity, per_topic, duration_ms
FROM sweep_points
WHERE run_id = ?
ORDER BY k;
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []store.SweepPoint
	for rows.Next() {
		var p store.SweepPoint
		var perTopic string
		var ms int64
		if err := rows.Scan(&p.K, &p.Coherence, &p.LogPerplexity, &perTopic, &ms); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(perTopic), &p.PerTopic); err != nil {
			return nil, err
		}
		p.Duration = time.Duration(ms) * time.Millisecond
		points = append(points, p)
	}
	return points, rows.Err()
}

// SavePhrases replaces the phrases of a run in a single transaction.
func (s *sqliteStore) SavePhrases(ctx context.Context, runID string, phrases []store.Phrase) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM phrases WHERE run_id = ?`, runID); err != nil {
		return err
	}
	for _, p := range phrases {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO phrases (run_id, text, stage, count, score) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(run_id, stage, text) DO UPDATE SET count=excluded.count, score=excluded.score;
`, runID, p.Text, p.Stage, p.Count, p.Score); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetPhrases returns the phrases of a run, best score first
func (s *sqliteStore) GetPhrases(ctx context.Context, runID string) ([]store.Phrase, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT text, stage, count, score FROM phrases
WHERE run_id = ?
ORDER BY score DESC, text;
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var phrases []store.Phrase
	for rows.Next() {
		var p store.Phrase
		if err := rows.Scan(&p.Text, &p.Stage, &p.Count, &p.Score); err != nil {
			return nil, err
		}
		phrases = append(phrases, p)
	}
	return phrases, rows.Err()
}

// SaveAssignments replaces the rows of (run, k) in a single transaction.
func (s *sqliteStore) SaveAssignments(ctx context.Context, runID string, k int, rows []store.Assignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE run_id = ? AND k = ?`, runID, k); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO assignments (run_id, k, doc_index, dominant_topic, contribution, keywords, text)
VALUES (?, ?, ?, ?, ?, ?, ?);
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range rows {
		if _, err := stmt.ExecContext(ctx, runID, k, a.DocIndex, a.DominantTopic, a.Contribution, a.Keywords, a.Text); err != nil {
			return fmt.Errorf("save assignment doc=%d: %w", a.DocIndex, err)
		}
	}
	return tx.Commit()
}

// GetAssignments returns the rows of (run, k) in document order
func (s *sqliteStore) GetAssignments(ctx context.Context, runID string, k int) ([]store.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT doc_index, dominant_topic, contribution, keywords, text
FROM assignments
WHERE run_id = ? AND k = ?
ORDER BY doc_index;
`, runID, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Assignment
	for rows.Next() {
		var a store.Assignment
		if err := rows.Scan(&a.DocIndex, &a.DominantTopic, &a.Contribution, &a.Keywords, &a.Text); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
