package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig describes a bulk upsert.
type UpsertConfig struct {
	Table        string
	Columns      []string
	ConflictKeys []string
	// Prune deletes target rows whose conflict key is absent from the batch,
	// making the table mirror the batch exactly.
	Prune bool
}

// Replace upserts rows through a temp table inside tx: COPY into the temp
// table, INSERT ... ON CONFLICT into the target, and optionally prune rows
// missing from the batch. The caller owns tx and commits it together with
// any writes that must land atomically with the batch. It returns the rows
// upserted.
func Replace(ctx context.Context, tx pgx.Tx, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: upsert: no columns specified")
	}
	if len(cfg.ConflictKeys) == 0 {
		return 0, eris.New("db: upsert: no conflict keys specified")
	}
	if len(rows) == 0 && !cfg.Prune {
		return 0, nil
	}

	target := identifier(cfg.Table).Sanitize()
	temp := "_upsert_" + strings.ReplaceAll(cfg.Table, ".", "_")
	tempID := pgx.Identifier{temp}.Sanitize()

	if _, err := tx.Exec(ctx, fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP", tempID, target)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: create temp table for %s", cfg.Table)
	}
	if _, err := CopyFrom(ctx, tx, temp, cfg.Columns, rows); err != nil {
		return 0, err
	}

	cols := quoteAndJoin(cfg.Columns)
	keys := quoteAndJoin(cfg.ConflictKeys)
	var n int64
	if len(rows) > 0 {
		tag, err := tx.Exec(ctx, fmt.Sprintf(
			"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
			target, cols, cols, tempID, keys, onConflict(cfg)))
		if err != nil {
			return 0, eris.Wrapf(err, "db: upsert: insert into %s", cfg.Table)
		}
		n = tag.RowsAffected()
	}

	if cfg.Prune {
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			"DELETE FROM %s WHERE (%s) NOT IN (SELECT %s FROM %s)", target, keys, keys, tempID)); err != nil {
			return 0, eris.Wrapf(err, "db: upsert: prune %s", cfg.Table)
		}
	}

	return n, nil
}

func onConflict(cfg UpsertConfig) string {
	conflict := make(map[string]bool, len(cfg.ConflictKeys))
	for _, k := range cfg.ConflictKeys {
		conflict[k] = true
	}
	var set []string
	for _, c := range cfg.Columns {
		if conflict[c] {
			continue
		}
		id := pgx.Identifier{c}.Sanitize()
		set = append(set, id+" = EXCLUDED."+id)
	}
	if len(set) == 0 {
		return "DO NOTHING"
	}
	return "DO UPDATE SET " + strings.Join(set, ", ")
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
