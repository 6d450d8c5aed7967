package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/petrogas-holding/corpsite/internal/cluster"
	"github.com/petrogas-holding/corpsite/internal/dataset"
	"github.com/petrogas-holding/corpsite/internal/detail"
	"github.com/petrogas-holding/corpsite/internal/geo"
	"github.com/petrogas-holding/corpsite/internal/mapview"
	"github.com/petrogas-holding/corpsite/internal/selection"
)

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	zoom := s.d.Renderer.Options().DefaultZoom
	if z := q.Get("zoom"); z != "" {
		v, err := strconv.Atoi(z)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid zoom %q", z))
			return
		}
		zoom = v
	}

	var requested *mapview.LayerFilter
	if raw := q.Get("filter"); raw != "" {
		f, err := mapview.ParseLayerFilter(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		requested = &f
	}

	var filter mapview.LayerFilter
	s.withSession(w, r, func(sess *selection.Session) {
		if requested != nil && *requested != sess.Filter.Current() {
			sess.Filter.Set(*requested, s.d.Renderer)
		}
		filter = sess.Filter.Current()
	})
	writeJSON(w, http.StatusOK, s.d.Renderer.Render(filter, zoom))
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filter string `json:"filter"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	f, err := mapview.ParseLayerFilter(req.Filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var t mapview.Transition
	s.withSession(w, r, func(sess *selection.Session) {
		t = sess.Filter.Set(f, s.d.Renderer)
	})
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var snap selection.Snapshot
	s.withSession(w, r, func(sess *selection.Session) {
		snap = sess.Selection.Snapshot()
	})
	if !snap.Visible {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// lookup resolves a clicked overlay. Points go through the cluster layer so
// the payload matches what a marker click yields.
func (s *Server) lookup(t geo.FeatureType, key string) (geo.Feature, error) {
	if t == geo.TypeTJSL {
		sel, err := s.d.Renderer.Points().Click(key)
		if err != nil {
			return nil, err
		}
		return sel.PointOfInterest, nil
	}
	return s.d.Renderer.Dataset().Find(t, key)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
		Key  string `json:"key"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := geo.ParseFeatureType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f, err := s.lookup(t, req.Key)
	if errors.Is(err, dataset.ErrNotFound) || errors.Is(err, cluster.ErrUnknownMarker) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s %q not found", t, req.Key))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var snap selection.Snapshot
	s.withSession(w, r, func(sess *selection.Session) {
		sess.Selection.Select(f)
		snap = sess.Selection.Snapshot()
	})
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target string `json:"target"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	target, err := selection.ParseTarget(req.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		closed bool
		snap   selection.Snapshot
	)
	s.withSession(w, r, func(sess *selection.Session) {
		closed = sess.Selection.Dismiss(target)
		snap = sess.Selection.Snapshot()
	})
	writeJSON(w, http.StatusOK, map[string]any{"closed": closed, "selection": snap})
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	var active geo.Feature
	s.withSession(w, r, func(sess *selection.Session) {
		active = sess.Selection.Active()
	})
	if active == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := detail.Render(&buf, detail.Build(active)); err != nil {
		zap.L().Error("server: render detail", zap.String("key", active.FeatureKey()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleProductionExport(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	f, err := s.d.Renderer.Dataset().Find(geo.TypeFlow, key)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("flow %q not found", key))
		return
	}
	flow := f.(*geo.FlowPoint)

	var buf bytes.Buffer
	if err := detail.ExportProductionXLSX(&buf, flow); err != nil {
		zap.L().Error("server: export production", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", detail.ExportFilename(flow)))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleWorkAreas(w http.ResponseWriter, r *http.Request) {
	if s.d.WorkAreas == nil {
		writeError(w, http.StatusServiceUnavailable, "work areas unavailable")
		return
	}
	if s.d.WorkAreaMaxAge > 0 {
		s.d.WorkAreas.RefreshIfStale(r.Context(), s.d.WorkAreaMaxAge)
	}

	resp := map[string]any{
		"areas":   s.d.WorkAreas.Active(),
		"notices": s.d.WorkAreas.Notices(),
	}
	if at := s.d.WorkAreas.LoadedAt(); !at.IsZero() {
		resp["loaded_at"] = at
	}
	writeJSON(w, http.StatusOK, resp)
}
