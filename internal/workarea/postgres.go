package workarea

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/petrogas-holding/corpsite/internal/db"
	"github.com/petrogas-holding/corpsite/pkg/adminapi"
)

// PostgresStore mirrors the latest work-area list into the work_areas
// table and records each sync in work_area_syncs.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres wraps pool. closeFn, if set, is called by Close.
func NewPostgres(pool db.Pool, closeFn func()) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: closeFn}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS work_areas (
	area_id     TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	position_x  DOUBLE PRECISION NOT NULL,
	position_y  DOUBLE PRECISION NOT NULL,
	color       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	facilities  TEXT[] NOT NULL DEFAULT '{}',
	production  TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT '',
	wells       INTEGER NOT NULL DEFAULT 0,
	depth       TEXT NOT NULL DEFAULT '',
	pressure    TEXT NOT NULL DEFAULT '',
	temperature TEXT NOT NULL DEFAULT '',
	sort_order  INTEGER NOT NULL DEFAULT 0,
	is_active   BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS work_area_syncs (
	id       TEXT PRIMARY KEY,
	taken_at TIMESTAMPTZ NOT NULL,
	areas    INTEGER NOT NULL
);
`

var workAreaColumns = []string{
	"area_id", "name", "position_x", "position_y", "color", "description", "facilities",
	"production", "status", "wells", "depth", "pressure", "temperature", "sort_order", "is_active",
}

// Migrate creates the tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveSnapshot replaces the mirrored rows with areas and records the sync in
// the same transaction.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, areas []adminapi.WorkArea) (*Snapshot, error) {
	rows := make([][]any, 0, len(areas))
	for _, a := range areas {
		facilities := a.Facilities
		if facilities == nil {
			facilities = []string{}
		}
		rows = append(rows, []any{
			a.AreaID, a.Name, a.PositionX, a.PositionY, a.Color, a.Description, facilities,
			a.Production, a.Status, a.Wells, a.Depth, a.Pressure, a.Temperature, a.Order, a.IsActive,
		})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := db.Replace(ctx, tx, db.UpsertConfig{
		Table:        "work_areas",
		Columns:      workAreaColumns,
		ConflictKeys: []string{"area_id"},
		Prune:        true,
	}, rows); err != nil {
		return nil, err
	}

	snap := &Snapshot{ID: uuid.New().String(), TakenAt: time.Now().UTC(), Areas: areas}
	if _, err := tx.Exec(ctx,
		`INSERT INTO work_area_syncs (id, taken_at, areas) VALUES ($1, $2, $3)`,
		snap.ID, snap.TakenAt, len(areas),
	); err != nil {
		return nil, eris.Wrap(err, "postgres: record sync")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit snapshot")
	}
	return snap, nil
}

// LatestSnapshot reads the last recorded sync and the mirrored rows.
func (s *PostgresStore) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	err := s.pool.QueryRow(ctx,
		`SELECT id, taken_at FROM work_area_syncs ORDER BY taken_at DESC LIMIT 1`,
	).Scan(&snap.ID, &snap.TakenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest sync")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT area_id, name, position_x, position_y, color, description, facilities,
			production, status, wells, depth, pressure, temperature, sort_order, is_active
		FROM work_areas ORDER BY sort_order, area_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query work areas")
	}
	defer rows.Close()

	snap.Areas = []adminapi.WorkArea{}
	for rows.Next() {
		var a adminapi.WorkArea
		if err := rows.Scan(&a.AreaID, &a.Name, &a.PositionX, &a.PositionY, &a.Color, &a.Description,
			&a.Facilities, &a.Production, &a.Status, &a.Wells, &a.Depth, &a.Pressure, &a.Temperature,
			&a.Order, &a.IsActive); err != nil {
			return nil, eris.Wrap(err, "postgres: scan work area")
		}
		snap.Areas = append(snap.Areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate work areas")
	}
	return &snap, nil
}
