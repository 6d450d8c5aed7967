// Package mapview composes the public work-area map: base tiles, area
// polygons, flow-point markers and clustered TJSL markers, filtered by the
// active layer toggle.
package mapview

import (
	"sync"

	"go.uber.org/zap"

	"github.com/petrogas-holding/corpsite/internal/cluster"
	"github.com/petrogas-holding/corpsite/internal/dataset"
	"github.com/petrogas-holding/corpsite/internal/geo"
)

// MaxZoom is the deepest zoom the basemap serves.
const MaxZoom = 19

// TileLayer describes the raster basemap.
type TileLayer struct {
	URLTemplate string `json:"url_template"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"max_zoom"`
}

// Options configures the renderer.
type Options struct {
	Center        geo.LatLng
	DefaultZoom   int
	FitPadding    int
	FlowLabelZoom int
	Tiles         TileLayer
	Cluster       cluster.Options
}

// DefaultOptions centres the map on the Riau work areas.
func DefaultOptions() Options {
	return Options{
		Center:        geo.LatLng{Lat: 0.9, Lng: 101.9},
		DefaultZoom:   8,
		FitPadding:    50,
		FlowLabelZoom: 11,
		Tiles: TileLayer{
			URLTemplate: "/tiles/basemap/{z}/{x}/{y}.png",
			Attribution: "&copy; OpenStreetMap contributors",
			MaxZoom:     MaxZoom,
		},
		Cluster: cluster.DefaultOptions(),
	}
}

// Viewport is either a fixed centre/zoom or a bounding box to fit.
type Viewport struct {
	Mode    string      `json:"mode"`
	Center  *geo.LatLng `json:"center,omitempty"`
	Zoom    int         `json:"zoom,omitempty"`
	Bounds  *geo.BBox   `json:"bounds,omitempty"`
	Padding int         `json:"padding,omitempty"`
}

// Viewport modes.
const (
	ViewportDefault = "default"
	ViewportFit     = "fit"
)

// AreaOverlay is a clickable polygon.
type AreaOverlay struct {
	Type     geo.FeatureType `json:"type"`
	Key      string          `json:"key"`
	Label    string          `json:"label"`
	Name     string          `json:"name"`
	Color    string          `json:"color"`
	Region   string          `json:"region,omitempty"`
	Vertices []geo.LatLng    `json:"vertices"`
}

// FlowMarker is a clickable flow-point marker with its index badge.
type FlowMarker struct {
	Type           geo.FeatureType `json:"type"`
	Key            string          `json:"key"`
	Label          string          `json:"label"`
	Name           string          `json:"name"`
	Position       geo.LatLng      `json:"position"`
	Status         geo.FlowStatus  `json:"status"`
	PermanentLabel bool            `json:"permanent_label"`
}

// PointLayer is the clustered TJSL overlay.
type PointLayer struct {
	Type geo.FeatureType `json:"type"`
	cluster.View
}

// ScaleControl configures the map scale bar.
type ScaleControl struct {
	Position string `json:"position"`
	Metric   bool   `json:"metric"`
	Imperial bool   `json:"imperial"`
}

// LayerToggle is one filter button.
type LayerToggle struct {
	Filter LayerFilter `json:"filter"`
	Title  string      `json:"title"`
	Active bool        `json:"active"`
}

// Scene is everything the client draws for one filter and zoom.
type Scene struct {
	Filter   LayerFilter   `json:"filter"`
	Zoom     int           `json:"zoom"`
	Tiles    TileLayer     `json:"tiles"`
	Scale    ScaleControl  `json:"scale"`
	Toggles  []LayerToggle `json:"toggles"`
	Viewport Viewport      `json:"viewport"`
	Areas    []AreaOverlay `json:"areas"`
	Flows    []FlowMarker  `json:"flows"`
	Points   *PointLayer   `json:"points,omitempty"`
}

// Renderer builds scenes from the current dataset.
type Renderer struct {
	opts  Options
	layer *cluster.Layer

	mu sync.RWMutex
	ds *dataset.Dataset
}

// NewRenderer creates a renderer over ds.
func NewRenderer(ds *dataset.Dataset, opts Options) *Renderer {
	r := &Renderer{opts: opts, layer: cluster.NewLayer(opts.Cluster)}
	r.Reload(ds)
	return r
}

// Reload swaps in a new dataset and syncs the point layer with it.
func (r *Renderer) Reload(ds *dataset.Dataset) cluster.Diff {
	r.mu.Lock()
	r.ds = ds
	r.mu.Unlock()

	diff := r.layer.Sync(cluster.MarkersFrom(ds.POIs))
	if !diff.Empty() {
		zap.L().Info("mapview: point layer synced",
			zap.Int("added", len(diff.Added)),
			zap.Int("removed", len(diff.Removed)),
			zap.Int("updated", len(diff.Updated)),
		)
	}
	return diff
}

// Dataset returns the dataset currently rendered.
func (r *Renderer) Dataset() *dataset.Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ds
}

// Options returns the renderer configuration.
func (r *Renderer) Options() Options {
	return r.opts
}

// Points returns the cluster layer behind the TJSL overlay.
func (r *Renderer) Points() *cluster.Layer {
	return r.layer
}

// ClampZoom limits zoom to the basemap's range.
func ClampZoom(z int) int {
	if z < 0 {
		return 0
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// Render builds the scene for filter at zoom.
func (r *Renderer) Render(filter LayerFilter, zoom int) Scene {
	zoom = ClampZoom(zoom)
	ds := r.Dataset()

	s := Scene{
		Filter:   filter,
		Zoom:     zoom,
		Tiles:    r.opts.Tiles,
		Scale:    ScaleControl{Position: "bottomleft", Metric: true},
		Viewport: r.Viewport(filter),
		Areas:    []AreaOverlay{},
		Flows:    []FlowMarker{},
	}
	for _, f := range Filters {
		s.Toggles = append(s.Toggles, LayerToggle{Filter: f, Title: f.Title(), Active: f == filter})
	}

	if filter.Shows(geo.TypeArea) {
		for i := range ds.Areas {
			a := &ds.Areas[i]
			s.Areas = append(s.Areas, AreaOverlay{
				Type:     geo.TypeArea,
				Key:      a.Key,
				Label:    a.Label(),
				Name:     a.Name,
				Color:    a.Color,
				Region:   a.Region,
				Vertices: a.Ring(),
			})
		}
	}
	if filter.Shows(geo.TypeFlow) {
		permanent := zoom >= r.opts.FlowLabelZoom
		for i := range ds.Flows {
			f := &ds.Flows[i]
			s.Flows = append(s.Flows, FlowMarker{
				Type:           geo.TypeFlow,
				Key:            f.Key,
				Label:          f.Label(),
				Name:           f.Name,
				Position:       f.Position,
				Status:         f.Status,
				PermanentLabel: permanent,
			})
		}
	}
	if filter.Shows(geo.TypeTJSL) {
		s.Points = &PointLayer{Type: geo.TypeTJSL, View: r.layer.View(zoom)}
	}
	return s
}

// Viewport applies the bounds policy: the all filter returns to the fixed
// default view, any other filter fits the bounds of its features.
func (r *Renderer) Viewport(filter LayerFilter) Viewport {
	center := r.opts.Center
	def := Viewport{Mode: ViewportDefault, Center: &center, Zoom: r.opts.DefaultZoom}
	if filter == FilterAll {
		return def
	}

	ds := r.Dataset()
	var pts []geo.LatLng
	if filter.Shows(geo.TypeArea) {
		for i := range ds.Areas {
			pts = append(pts, ds.Areas[i].Ring()...)
		}
	}
	if filter.Shows(geo.TypeFlow) {
		for i := range ds.Flows {
			pts = append(pts, ds.Flows[i].Position)
		}
	}
	if filter.Shows(geo.TypeTJSL) {
		for i := range ds.POIs {
			pts = append(pts, ds.POIs[i].Position)
		}
	}

	bounds, ok := geo.BoundsOf(pts)
	if !ok {
		return def
	}
	return Viewport{Mode: ViewportFit, Bounds: &bounds, Padding: r.opts.FitPadding}
}
