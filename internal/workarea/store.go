// Package workarea keeps the TEKKOM work-area list shown on the admin
// reference image: fetched from the admin API, persisted as snapshots and
// served from memory.
package workarea

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/petrogas-holding/corpsite/pkg/adminapi"
)

// ErrNoSnapshot is returned by LatestSnapshot on an empty store.
var ErrNoSnapshot = eris.New("workarea: no snapshot")

// Snapshot is one successfully fetched work-area list.
type Snapshot struct {
	ID      string              `json:"id"`
	TakenAt time.Time           `json:"taken_at"`
	Areas   []adminapi.WorkArea `json:"areas"`
}

// Store persists snapshots so the last good list survives restarts.
type Store interface {
	Migrate(ctx context.Context) error
	SaveSnapshot(ctx context.Context, areas []adminapi.WorkArea) (*Snapshot, error)
	LatestSnapshot(ctx context.Context) (*Snapshot, error)
	Close() error
}
