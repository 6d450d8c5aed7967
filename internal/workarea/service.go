package workarea

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/petrogas-holding/corpsite/pkg/adminapi"
)

// Source lists work areas. adminapi.Resource[adminapi.WorkArea] satisfies it.
type Source interface {
	List(ctx context.Context) ([]adminapi.WorkArea, error)
}

// Notice levels.
const (
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notice is a transient message for the admin UI.
type Notice struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Service holds the current work-area list. A failed refresh keeps the
// previous list and queues a notice instead of failing the caller's page.
type Service struct {
	src   Source
	store Store
	now   func() time.Time

	mu       sync.RWMutex
	areas    []adminapi.WorkArea
	loadedAt time.Time
	notices  []Notice
}

// NewService creates a service reading from src. store may be nil.
func NewService(src Source, store Store) *Service {
	return &Service{src: src, store: store, now: time.Now}
}

// Restore loads the newest persisted snapshot, if any.
func (s *Service) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	snap, err := s.store.LatestSnapshot(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		return nil
	}
	if err != nil {
		return eris.Wrap(err, "workarea: restore snapshot")
	}

	s.mu.Lock()
	s.areas = snap.Areas
	s.loadedAt = snap.TakenAt
	s.mu.Unlock()

	zap.L().Info("workarea: restored snapshot", zap.String("id", snap.ID), zap.Int("areas", len(snap.Areas)))
	return nil
}

// Refresh fetches the list from the source. Records failing validation are
// dropped with a notice. On fetch failure the previous list stays in place.
func (s *Service) Refresh(ctx context.Context) error {
	fetched, err := s.src.List(ctx)
	if err != nil {
		s.notify(LevelError, "Gagal memuat data wilayah kerja, menampilkan data terakhir.")
		zap.L().Warn("workarea: refresh failed, keeping previous list", zap.Error(err))
		return eris.Wrap(err, "workarea: refresh")
	}

	valid := make([]adminapi.WorkArea, 0, len(fetched))
	for i, a := range fetched {
		if err := a.Validate(); err != nil {
			s.notify(LevelWarning, fmt.Sprintf("Wilayah kerja #%d (%s) diabaikan: %v", i+1, a.AreaID, err))
			zap.L().Warn("workarea: invalid record skipped", zap.Int("index", i), zap.String("area_id", a.AreaID), zap.Error(err))
			continue
		}
		valid = append(valid, a)
	}

	s.mu.Lock()
	s.areas = valid
	s.loadedAt = s.now()
	s.mu.Unlock()

	if s.store != nil {
		if _, err := s.store.SaveSnapshot(ctx, valid); err != nil {
			s.notify(LevelWarning, "Data wilayah kerja dimuat tetapi gagal disimpan.")
			zap.L().Error("workarea: save snapshot", zap.Error(err))
		}
	}
	return nil
}

// RefreshIfStale refreshes when the list is older than maxAge. Failures are
// reported as notices only.
func (s *Service) RefreshIfStale(ctx context.Context, maxAge time.Duration) {
	s.mu.RLock()
	stale := s.loadedAt.IsZero() || s.now().Sub(s.loadedAt) > maxAge
	s.mu.RUnlock()
	if stale {
		_ = s.Refresh(ctx)
	}
}

// All returns every loaded area in source order.
func (s *Service) All() []adminapi.WorkArea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.areas)
}

// Active returns the active areas ordered by Order, then AreaID.
func (s *Service) Active() []adminapi.WorkArea {
	s.mu.RLock()
	out := make([]adminapi.WorkArea, 0, len(s.areas))
	for _, a := range s.areas {
		if a.IsActive {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b adminapi.WorkArea) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.AreaID, b.AreaID))
	})
	return out
}

// LoadedAt is when the current list was fetched or restored.
func (s *Service) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Notices returns and clears the queued notices.
func (s *Service) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

func (s *Service) notify(level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, Notice{Level: level, Message: msg, At: s.now()})
}
