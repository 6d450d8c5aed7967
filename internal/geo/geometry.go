package geo

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// BBox represents a geographic bounding box.
type BBox struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// Empty reports whether the box covers no coordinates.
func (b BBox) Empty() bool {
	return b.MaxLat < b.MinLat || b.MaxLng < b.MinLng
}

// Pad grows the box by ratio of its span on every side. A single-point box
// is left as is.
func (b BBox) Pad(ratio float64) BBox {
	dLat := (b.MaxLat - b.MinLat) * ratio
	dLng := (b.MaxLng - b.MinLng) * ratio
	return BBox{
		MinLng: b.MinLng - dLng,
		MinLat: b.MinLat - dLat,
		MaxLng: b.MaxLng + dLng,
		MaxLat: b.MaxLat + dLat,
	}
}

// BoundsOf returns the bounding box of the given coordinates. The second
// return value is false when pts is empty.
func BoundsOf(pts []LatLng) (BBox, bool) {
	if len(pts) == 0 {
		return BBox{}, false
	}
	flat := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		flat = append(flat, p.Lng, p.Lat)
	}
	b := geom.NewBounds(geom.XY).Extend(geom.NewMultiPointFlat(geom.XY, flat))
	return BBox{
		MinLng: b.Min(0),
		MinLat: b.Min(1),
		MaxLng: b.Max(0),
		MaxLat: b.Max(1),
	}, true
}

// Polygon converts the area ring to a closed go-geom polygon (x=lng, y=lat).
func (a *AreaFeature) Polygon() (*geom.Polygon, error) {
	ring := a.Ring()
	coords := make([]geom.Coord, 0, len(ring)+1)
	for _, v := range ring {
		coords = append(coords, geom.Coord{v.Lng, v.Lat})
	}
	if len(ring) > 0 {
		coords = append(coords, geom.Coord{ring[0].Lng, ring[0].Lat})
	}
	return geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{coords})
}

// Centroid returns the area centroid, falling back to the vertex mean for
// degenerate rings.
func (a *AreaFeature) Centroid() LatLng {
	ring := a.Ring()
	if len(ring) == 0 {
		return LatLng{}
	}
	if poly, err := a.Polygon(); err == nil && poly.Area() > 0 {
		c := xy.PolygonsCentroid(poly)
		return LatLng{Lat: c[1], Lng: c[0]}
	}
	var sum LatLng
	for _, v := range ring {
		sum.Lat += v.Lat
		sum.Lng += v.Lng
	}
	n := float64(len(ring))
	return LatLng{Lat: sum.Lat / n, Lng: sum.Lng / n}
}

// keyNamespace scopes the generated feature keys.
var keyNamespace = uuid.MustParse("0d4f8a63-3c52-4b0e-9a55-7a5e2f9f6c11")

// StableKey derives a deterministic identifier for a feature from its kind,
// name and coordinates. Reordering a dataset does not change any key.
func StableKey(kind FeatureType, name string, pts ...LatLng) string {
	var sb strings.Builder
	sb.WriteString(string(kind))
	sb.WriteByte('|')
	sb.WriteString(name)
	for _, p := range pts {
		sb.WriteByte('|')
		sb.WriteString(strconv.FormatFloat(p.Lat, 'f', 7, 64))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(p.Lng, 'f', 7, 64))
	}
	return uuid.NewSHA1(keyNamespace, []byte(sb.String())).String()
}
