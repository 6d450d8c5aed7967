// Package server exposes the public map, the detail modal, the basemap tile
// proxy and the admin back-office proxy over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/petrogas-holding/corpsite/internal/mapview"
	"github.com/petrogas-holding/corpsite/internal/selection"
	"github.com/petrogas-holding/corpsite/internal/tiles"
	"github.com/petrogas-holding/corpsite/internal/workarea"
	"github.com/petrogas-holding/corpsite/pkg/adminapi"
)

// SessionCookie carries the visitor session id.
const SessionCookie = "corpsite_session"

// Deps are the collaborators the server routes to. Tiles, Admin and
// WorkAreas are optional; their routes answer 503 when nil.
type Deps struct {
	Renderer  *mapview.Renderer
	Sessions  *selection.Sessions
	Tiles     *tiles.Proxy
	Admin     *adminapi.Client
	WorkAreas *workarea.Service

	CORSOrigins    []string
	// WorkAreaMaxAge triggers a refetch of the work-area feed when the
	// loaded list is older. Zero disables refetching on read.
	WorkAreaMaxAge time.Duration
}

// Server is the HTTP surface.
type Server struct {
	d      Deps
	router chi.Router
}

// New builds the router.
func New(d Deps) *Server {
	s := &Server{d: d}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	// Browsers refuse credentialed responses for a wildcard origin.
	credentials := !slices.Contains(origins, "*")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: credentials,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/map", s.handleMap)
		r.Post("/filter", s.handleFilter)
		r.Get("/selection", s.handleSelection)
		r.Post("/selection", s.handleSelect)
		r.Post("/selection/dismiss", s.handleDismiss)
		r.Get("/selection/detail", s.handleDetail)
		r.Get("/flows/{key}/production.xlsx", s.handleProductionExport)
		r.Get("/work-areas", s.handleWorkAreas)
	})

	var tileHandler http.Handler = unavailable("tile proxy")
	if d.Tiles != nil {
		tileHandler = d.Tiles
	}
	r.Handle("/tiles/basemap/{z}/{x}/{y}", tileHandler)
	r.Get("/tiles/stats", s.handleTileStats)

	r.Route("/admin/api", func(r chi.Router) {
		r.Get("/summary", s.handleAdminSummary)
		r.Get("/{resource}", s.handleAdmin)
		r.Post("/{resource}", s.handleAdmin)
		r.Get("/{resource}/{id}", s.handleAdmin)
		r.Put("/{resource}/{id}", s.handleAdmin)
		r.Delete("/{resource}/{id}", s.handleAdmin)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleTileStats(w http.ResponseWriter, r *http.Request) {
	if s.d.Tiles == nil {
		writeError(w, http.StatusServiceUnavailable, "tile proxy unavailable")
		return
	}
	writeJSON(w, http.StatusOK, s.d.Tiles.Stats())
}

func unavailable(what string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusServiceUnavailable, what+" unavailable")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// withSession runs fn on the caller's session and refreshes the cookie.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*selection.Session)) {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	got := s.d.Sessions.Do(id, fn)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    got,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
