package adminapi

import (
	"context"
	"encoding/json"
	"math"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrogas-holding/corpsite/internal/resilience"
)

func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, success bool, data any, msg string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"success": success, "data": data, "message": msg}))
}

func newTestClient(url string) *Client {
	return New(ClientContext{BaseURL: url + "/api/", Token: "secret"},
		WithRateLimit(0),
		WithRetryPolicy(resilience.Policy{Attempts: 3, Base: time.Millisecond, Max: time.Millisecond}),
	)
}

func TestResource_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/work-areas", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		writeEnvelope(t, w, http.StatusOK, true, []map[string]any{
			{"area_id": "WK-1", "name": "Siak", "position_x": 40.5, "position_y": 22, "facilities": []string{"GS-1"}, "order": 2, "is_active": true},
			{"area_id": "WK-2", "name": "Kampar", "position_x": 60, "position_y": 70, "order": 1},
		}, "")
	}))
	defer srv.Close()

	areas, err := newTestClient(srv.URL).WorkAreas().List(context.Background())
	require.NoError(t, err)
	require.Len(t, areas, 2)
	assert.Equal(t, "WK-1", areas[0].AreaID)
	assert.Equal(t, 40.5, areas[0].PositionX)
	assert.Equal(t, []string{"GS-1"}, areas[0].Facilities)
	assert.True(t, areas[0].IsActive)
	assert.False(t, areas[1].IsActive)
}

func TestResource_CRUD(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeEnvelope(t, w, http.StatusOK, true, map[string]any{"id": 7, "title": "Laporan Tahunan", "year": 2025}, "")
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).Reports()
	ctx := context.Background()

	created, err := res.Create(ctx, Report{Title: "Laporan Tahunan", Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/reports", gotPath)
	assert.JSONEq(t, `{"title":"Laporan Tahunan","year":2025,"file_url":""}`, gotBody)
	assert.Equal(t, int64(7), created.ID)

	_, err = res.Update(ctx, "7", created)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/reports/7", gotPath)

	got, err := res.Get(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year)

	require.NoError(t, res.Delete(ctx, "7"))
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestClient_RejectedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(t, w, http.StatusOK, false, nil, "validasi gagal")
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Awards().List(context.Background())
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrRejected))
	assert.Contains(t, err.Error(), "validasi gagal")
}

func TestClient_StatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(t, w, http.StatusNotFound, false, nil, "data tidak ditemukan")
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Testimonials().Get(context.Background(), "99")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "data tidak ditemukan")
}

func TestClient_RetriesIdempotentOnly(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeEnvelope(t, w, http.StatusOK, true, []any{}, "")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Statistics().List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(0)
	_, err = c.Statistics().Create(context.Background(), Statistic{Label: "Produksi"})
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_WithTokenKeepsBase(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeEnvelope(t, w, http.StatusOK, true, []any{}, "")
	}))
	defer srv.Close()

	base := newTestClient(srv.URL)
	scoped := base.WithToken("visitor")

	_, err := scoped.Reports().List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer visitor", auth)
	assert.Equal(t, "secret", base.Context().Token)
	assert.Equal(t, base.Context().BaseURL, scoped.Context().BaseURL)
}

func TestClient_Summary(t *testing.T) {
	counts := map[string]int{
		PathWorkAreas:    3,
		PathReports:      2,
		PathAwards:       0,
		PathTestimonials: 4,
		PathStatistics:   1,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[len("/api/"):]
		items := make([]map[string]any, counts[name])
		for i := range items {
			items[i] = map[string]any{"id": i + 1}
		}
		writeEnvelope(t, w, http.StatusOK, true, items, "")
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, counts, got)
}

func TestClient_SummaryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/awards" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeEnvelope(t, w, http.StatusOK, true, []any{}, "")
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Summary(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

func TestWorkArea_Validate(t *testing.T) {
	ok := WorkArea{AreaID: "WK-1", Name: "Siak", PositionX: 0, PositionY: 100}
	assert.NoError(t, ok.Validate())

	bad := WorkArea{PositionX: -1, PositionY: 100.5, Wells: -2}
	err := bad.Validate()
	require.Error(t, err)
	for _, want := range []string{"area_id is required", "name is required", "position_x", "position_y", "wells"} {
		assert.Contains(t, err.Error(), want)
	}

	inf := WorkArea{AreaID: "WK-2", Name: "Kampar", PositionX: math.Inf(1), PositionY: 10}
	assert.ErrorContains(t, inf.Validate(), "position_x +Inf outside 0..100")
}

func TestKnownPath(t *testing.T) {
	assert.True(t, KnownPath("awards"))
	assert.False(t, KnownPath("users"))
}
