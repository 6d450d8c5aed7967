package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/petrogas-holding/corpsite/internal/resilience"
	"github.com/petrogas-holding/corpsite/pkg/adminapi"
)

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// adminClient returns the API client acting with the caller's credentials.
func (s *Server) adminClient(w http.ResponseWriter, r *http.Request) (*adminapi.Client, bool) {
	if s.d.Admin == nil {
		writeError(w, http.StatusServiceUnavailable, "admin api unavailable")
		return nil, false
	}
	tok := bearerToken(r)
	if tok == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return nil, false
	}
	return s.d.Admin.WithToken(tok), true
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	if !adminapi.KnownPath(resource) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown resource %q", resource))
		return
	}
	client, ok := s.adminClient(w, r)
	if !ok {
		return
	}

	path := resource
	if id := chi.URLParam(r, "id"); id != "" {
		path += "/" + url.PathEscape(id)
	}

	var body any
	if r.Method == http.MethodPost || r.Method == http.MethodPut {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil || !json.Valid(raw) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if resource == adminapi.PathWorkAreas {
			var wa adminapi.WorkArea
			if err := json.Unmarshal(raw, &wa); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if err := wa.Validate(); err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
		}
		body = json.RawMessage(raw)
	}

	data, err := client.Do(r.Context(), r.Method, path, body)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	if r.Method == http.MethodDelete && len(data) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func (s *Server) handleAdminSummary(w http.ResponseWriter, r *http.Request) {
	client, ok := s.adminClient(w, r)
	if !ok {
		return
	}
	counts, err := client.Summary(r.Context())
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// writeAdminError maps an upstream failure to a response. API status codes
// pass through; rejected envelopes become 422 and transport failures 502.
func writeAdminError(w http.ResponseWriter, r *http.Request, err error) {
	var se *resilience.StatusError
	switch {
	case errors.As(err, &se):
		writeError(w, se.Code, se.Message)
	case errors.Is(err, adminapi.ErrRejected):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, resilience.ErrOpen):
		writeError(w, http.StatusServiceUnavailable, "admin api temporarily unavailable")
	default:
		zap.L().Warn("server: admin proxy", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusBadGateway, "admin api unreachable")
	}
}
