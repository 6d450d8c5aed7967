// Package cluster groups TJSL point markers into zoom-dependent clusters.
//
// A Layer holds the current marker set and is kept up to date with Sync,
// which diffs by stable key instead of rebuilding the whole layer. Clusters
// are derived on demand for a zoom level and never mutate the markers.
package cluster

import (
	"fmt"
	"math"
	"reflect"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/petrogas-holding/corpsite/internal/geo"
)

// ErrUnknownMarker is returned by Click for keys not in the layer.
var ErrUnknownMarker = eris.New("cluster: unknown marker")

// Options configures clustering.
type Options struct {
	// Radius is the grid cell size in screen pixels.
	Radius float64
	// DisableAtZoom turns clustering off at and above this zoom level.
	DisableAtZoom int
	// LabelZoom is the zoom from which index labels are always shown
	// instead of only on hover.
	LabelZoom int
}

// DefaultOptions mirrors the public map's marker cluster settings.
func DefaultOptions() Options {
	return Options{Radius: 80, DisableAtZoom: 16, LabelZoom: 10}
}

// Marker is one clusterable point.
type Marker struct {
	Key      string               `json:"key"`
	Label    string               `json:"label"`
	Position geo.LatLng           `json:"position"`
	Item     *geo.PointOfInterest `json:"-"`
}

// MarkersFrom builds one marker per point, labelled with its 1-based index.
func MarkersFrom(pois []geo.PointOfInterest) []Marker {
	out := make([]Marker, 0, len(pois))
	for i := range pois {
		p := &pois[i]
		out = append(out, Marker{Key: p.Key, Label: p.Label(), Position: p.Position, Item: p})
	}
	return out
}

// Diff reports what a Sync changed.
type Diff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Updated []string `json:"updated"`
}

// Empty reports whether the sync was a no-op.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Updated) == 0
}

// Layer is a concurrency-safe cluster layer.
type Layer struct {
	opts Options

	mu      sync.RWMutex
	markers map[string]Marker
	order   []string
}

// NewLayer creates an empty layer.
func NewLayer(opts Options) *Layer {
	if opts.Radius <= 0 {
		opts.Radius = DefaultOptions().Radius
	}
	return &Layer{opts: opts, markers: make(map[string]Marker)}
}

// Sync makes the layer hold exactly the given markers. Markers whose key
// and content are unchanged are left alone.
func (l *Layer) Sync(markers []Marker) Diff {
	l.mu.Lock()
	defer l.mu.Unlock()

	var d Diff
	next := make(map[string]Marker, len(markers))
	order := make([]string, 0, len(markers))
	for _, m := range markers {
		if _, dup := next[m.Key]; dup {
			continue
		}
		next[m.Key] = m
		order = append(order, m.Key)

		prev, ok := l.markers[m.Key]
		switch {
		case !ok:
			d.Added = append(d.Added, m.Key)
		case !sameMarker(prev, m):
			d.Updated = append(d.Updated, m.Key)
		}
	}
	for _, k := range l.order {
		if _, ok := next[k]; !ok {
			d.Removed = append(d.Removed, k)
		}
	}

	l.markers = next
	l.order = order
	return d
}

func sameMarker(a, b Marker) bool {
	if a.Label != b.Label || a.Position != b.Position {
		return false
	}
	return reflect.DeepEqual(a.Item, b.Item)
}

// Len returns the number of markers in the layer.
func (l *Layer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// PermanentLabels reports whether index labels are always shown at zoom.
func (l *Layer) PermanentLabels(zoom int) bool {
	return zoom >= l.opts.LabelZoom
}

// Cluster is a group of two or more markers drawn as one bubble.
type Cluster struct {
	ID     string     `json:"id"`
	Center geo.LatLng `json:"center"`
	Count  int        `json:"count"`
	Keys   []string   `json:"keys"`
	Bounds geo.BBox   `json:"bounds"`
}

// View is what the map draws for the layer at one zoom level.
type View struct {
	Zoom            int       `json:"zoom"`
	PermanentLabels bool      `json:"permanent_labels"`
	Clusters        []Cluster `json:"clusters"`
	Markers         []Marker  `json:"markers"`
}

// View groups the markers for zoom. Groups are ordered by their first
// member's position in the layer; single-member groups become markers.
func (l *Layer) View(zoom int) View {
	l.mu.RLock()
	defer l.mu.RUnlock()

	v := View{
		Zoom:            zoom,
		PermanentLabels: l.PermanentLabels(zoom),
		Clusters:        []Cluster{},
		Markers:         []Marker{},
	}

	if zoom >= l.opts.DisableAtZoom {
		for _, k := range l.order {
			v.Markers = append(v.Markers, l.markers[k])
		}
		return v
	}

	type cell struct{ x, y int }
	groups := make(map[cell][]string)
	var cells []cell
	for _, k := range l.order {
		px, py := project(l.markers[k].Position, zoom)
		c := cell{int(math.Floor(px / l.opts.Radius)), int(math.Floor(py / l.opts.Radius))}
		if _, ok := groups[c]; !ok {
			cells = append(cells, c)
		}
		groups[c] = append(groups[c], k)
	}

	for _, c := range cells {
		keys := groups[c]
		if len(keys) == 1 {
			v.Markers = append(v.Markers, l.markers[keys[0]])
			continue
		}
		pts := make([]geo.LatLng, 0, len(keys))
		var sum geo.LatLng
		for _, k := range keys {
			p := l.markers[k].Position
			pts = append(pts, p)
			sum.Lat += p.Lat
			sum.Lng += p.Lng
		}
		bounds, _ := geo.BoundsOf(pts)
		n := float64(len(keys))
		v.Clusters = append(v.Clusters, Cluster{
			ID:     fmt.Sprintf("%d/%d/%d", zoom, c.x, c.y),
			Center: geo.LatLng{Lat: sum.Lat / n, Lng: sum.Lng / n},
			Count:  len(keys),
			Keys:   keys,
			Bounds: bounds,
		})
	}
	return v
}

// Selection is the payload a marker click hands to the selection state:
// the point with its type discriminator merged in.
type Selection struct {
	Type geo.FeatureType `json:"type"`
	*geo.PointOfInterest
}

// Click resolves a marker key to its selection payload.
func (l *Layer) Click(key string) (Selection, error) {
	l.mu.RLock()
	m, ok := l.markers[key]
	l.mu.RUnlock()
	if !ok || m.Item == nil {
		return Selection{}, ErrUnknownMarker
	}
	return Selection{Type: geo.TypeTJSL, PointOfInterest: m.Item}, nil
}

const tileSize = 256

// project converts a coordinate to Web Mercator pixel space at zoom.
func project(p geo.LatLng, zoom int) (float64, float64) {
	scale := tileSize * math.Pow(2, float64(zoom))
	lat := math.Max(math.Min(p.Lat, 85.05112878), -85.05112878)
	sin := math.Sin(lat * math.Pi / 180)
	x := (p.Lng + 180) / 360 * scale
	y := (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * scale
	return x, y
}
