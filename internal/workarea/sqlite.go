package workarea

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/petrogas-holding/corpsite/pkg/adminapi"
)

// keepSnapshots bounds snapshot history in the SQLite store.
const keepSnapshots = 20

// SQLiteStore implements Store on modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens the database at dsn in WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS work_area_snapshots (
	id       TEXT PRIMARY KEY,
	taken_at DATETIME NOT NULL,
	areas    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_work_area_snapshots_taken_at ON work_area_snapshots(taken_at);
`

// Migrate creates the snapshot table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSnapshot stores areas as the newest snapshot and trims old history.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, areas []adminapi.WorkArea) (*Snapshot, error) {
	if areas == nil {
		areas = []adminapi.WorkArea{}
	}
	snap := &Snapshot{ID: uuid.New().String(), TakenAt: time.Now().UTC(), Areas: areas}

	body, err := json.Marshal(areas)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal areas")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO work_area_snapshots (id, taken_at, areas) VALUES (?, ?, ?)`,
		snap.ID, snap.TakenAt, string(body),
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert snapshot")
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM work_area_snapshots WHERE id NOT IN (
			SELECT id FROM work_area_snapshots ORDER BY taken_at DESC LIMIT ?)`,
		keepSnapshots,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: trim snapshots")
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit snapshot")
	}
	return snap, nil
}

// LatestSnapshot returns the newest snapshot or ErrNoSnapshot.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var (
		snap Snapshot
		body string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, taken_at, areas FROM work_area_snapshots ORDER BY taken_at DESC LIMIT 1`,
	).Scan(&snap.ID, &snap.TakenAt, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest snapshot")
	}
	if err := json.Unmarshal([]byte(body), &snap.Areas); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal areas")
	}
	return &snap, nil
}
