package tiles

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultUpstream is the public OpenStreetMap tile server.
const DefaultUpstream = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"

const (
	// defaultMaxBody caps upstream tile bodies.
	defaultMaxBody = 4 << 20
	// fetchTimeout bounds a shared upstream fetch, which outlives the
	// request that started it.
	fetchTimeout = 20 * time.Second
)

// ErrUpstream marks a failed or non-200 upstream response.
var ErrUpstream = eris.New("tiles: upstream failure")

// Proxy fetches basemap tiles from an XYZ upstream, caching successful
// responses. Concurrent requests for the same tile share one upstream call.
type Proxy struct {
	upstream  string
	format    string
	maxZoom   int
	userAgent string
	maxBody   int64
	client    *http.Client
	cache     *Cache
	group     singleflight.Group
}

// Option configures a Proxy.
type Option func(*Proxy)

// WithHTTPClient overrides the upstream HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Proxy) { p.client = c }
}

// WithCache enables response caching.
func WithCache(c *Cache) Option {
	return func(p *Proxy) { p.cache = c }
}

// WithMaxZoom sets the deepest zoom served.
func WithMaxZoom(z int) Option {
	return func(p *Proxy) { p.maxZoom = z }
}

// WithUserAgent sets the User-Agent sent upstream. OSM requires one that
// identifies the application.
func WithUserAgent(ua string) Option {
	return func(p *Proxy) { p.userAgent = ua }
}

// NewProxy creates a proxy for an upstream URL template containing {z}, {x}
// and {y} placeholders. format is the image extension (png, jpg, webp).
func NewProxy(upstream, format string, opts ...Option) *Proxy {
	if upstream == "" {
		upstream = DefaultUpstream
	}
	if format == "" {
		format = "png"
	}
	p := &Proxy{
		upstream:  upstream,
		format:    format,
		maxZoom:   19,
		userAgent: "corpsite/1.0",
		maxBody:   defaultMaxBody,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ContentType is the MIME type of served tiles.
func (p *Proxy) ContentType() string {
	switch p.format {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// Stats returns cache statistics, or zero values when caching is disabled.
func (p *Proxy) Stats() Stats {
	if p.cache == nil {
		return Stats{}
	}
	return p.cache.Stats()
}

func (p *Proxy) url(c Coord) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(c.Z),
		"{x}", strconv.Itoa(c.X),
		"{y}", strconv.Itoa(c.Y),
	).Replace(p.upstream)
}

// Fetch returns the tile body for c and whether it came from the cache.
// Callers asking for the same tile share one upstream request; a caller that
// gives up only abandons its own wait.
func (p *Proxy) Fetch(ctx context.Context, c Coord) ([]byte, bool, error) {
	if p.cache != nil {
		if data := p.cache.Get(c); data != nil {
			return data, true, nil
		}
	}

	ch := p.group.DoChan(c.String(), func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		data, err := p.fetchUpstream(fctx, c)
		if err != nil {
			return nil, err
		}
		if p.cache != nil {
			p.cache.Put(c, data)
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, eris.Wrapf(ctx.Err(), "tiles: wait for %s", c)
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]byte), false, nil
	}
}

func (p *Proxy) fetchUpstream(ctx context.Context, c Coord) ([]byte, error) {
	u := p.url(c)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "tiles: create request")
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(ErrUpstream, "fetch %s: %v", u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrapf(ErrUpstream, "%s returned %d", u, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody+1))
	if err != nil {
		return nil, eris.Wrap(err, "tiles: read body")
	}
	if int64(len(data)) > p.maxBody {
		return nil, eris.Wrapf(ErrUpstream, "%s body exceeds %d bytes", u, p.maxBody)
	}

	zap.L().Debug("tiles: fetched upstream", zap.String("tile", c.String()), zap.Int("bytes", len(data)))
	return data, nil
}

// ServeHTTP serves a tile addressed by the chi URL params z, x and y, where
// y may carry the format extension.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, ok := parseCoord(chi.URLParam(r, "z"), chi.URLParam(r, "x"), chi.URLParam(r, "y"))
	if !ok || !c.Valid(p.maxZoom) {
		http.Error(w, "invalid tile coordinate", http.StatusBadRequest)
		return
	}

	data, hit, err := p.Fetch(r.Context(), c)
	if err != nil {
		zap.L().Warn("tiles: basemap fetch failed", zap.String("tile", c.String()), zap.Error(err))
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", p.ContentType())
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	_, _ = w.Write(data)
}

func parseCoord(zs, xs, ys string) (Coord, bool) {
	if i := strings.IndexByte(ys, '.'); i >= 0 {
		ys = ys[:i]
	}
	z, err1 := strconv.Atoi(zs)
	x, err2 := strconv.Atoi(xs)
	y, err3 := strconv.Atoi(ys)
	if err1 != nil || err2 != nil || err3 != nil {
		return Coord{}, false
	}
	return Coord{Z: z, X: x, Y: y}, true
}
