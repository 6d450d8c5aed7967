package dataset

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/petrogas-holding/corpsite/internal/geo"
)

// Attribute columns read from the DBF table. Matching is case-insensitive;
// missing columns leave the field empty.
const (
	colName       = "name"
	colDesc       = "desc"
	colRegion     = "region"
	colColor      = "color"
	colProduction = "production"
	colFacilities = "facilities"
	colTarget     = "target"
	colLayer      = "layer"
)

// ImportShapefiles builds a dataset from a polygon shapefile of work areas
// and a point shapefile of TJSL locations. Either path may be empty.
// Shapefile coordinates are read as x=longitude, y=latitude.
func ImportShapefiles(areasPath, pointsPath string) (*Dataset, error) {
	var ds Dataset
	if areasPath != "" {
		areas, err := importAreas(areasPath)
		if err != nil {
			return nil, err
		}
		ds.Areas = areas
	}
	if pointsPath != "" {
		pois, err := importPoints(pointsPath)
		if err != nil {
			return nil, err
		}
		ds.POIs = pois
	}
	ds.index()
	return &ds, nil
}

type attrReader struct {
	reader   *shp.Reader
	fieldIdx map[string]int
}

func openShapefile(path string) (*attrReader, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open shapefile %s", path)
	}
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	return &attrReader{reader: reader, fieldIdx: fieldIdx}, nil
}

func (a *attrReader) attr(col string) string {
	idx, ok := a.fieldIdx[col]
	if !ok {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(a.reader.Attribute(idx), "\x00"))
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func importAreas(path string) ([]geo.AreaFeature, error) {
	r, err := openShapefile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.reader.Close() }()

	var areas []geo.AreaFeature
	var skipped int
	for r.reader.Next() {
		n, shape := r.reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly.NumParts == 0 || len(poly.Points) == 0 {
			skipped++
			continue
		}

		// Only the outer ring is kept; the map draws simple polygons.
		end := int32(len(poly.Points))
		if poly.NumParts > 1 {
			end = poly.Parts[1]
		}
		var vertices []geo.LatLng
		for _, p := range poly.Points[poly.Parts[0]:end] {
			vertices = append(vertices, geo.LatLng{Lat: p.Y, Lng: p.X})
		}

		name := r.attr(colName)
		if name == "" {
			zap.L().Debug("dataset: unnamed polygon record", zap.Int("record", n))
		}
		areas = append(areas, geo.AreaFeature{
			Name:        name,
			Vertices:    vertices,
			Description: r.attr(colDesc),
			Facilities:  splitList(r.attr(colFacilities)),
			Production:  r.attr(colProduction),
			Color:       r.attr(colColor),
			Region:      r.attr(colRegion),
			Entity:      "POLYGON",
			Layer:       r.attr(colLayer),
		})
	}
	if err := r.reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "dataset: read shapefile %s", path)
	}

	if skipped > 0 {
		zap.L().Info("dataset: skipped non-polygon records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return areas, nil
}

func importPoints(path string) ([]geo.PointOfInterest, error) {
	r, err := openShapefile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.reader.Close() }()

	var pois []geo.PointOfInterest
	var skipped int
	for r.reader.Next() {
		_, shape := r.reader.Shape()
		pt, ok := shape.(*shp.Point)
		if !ok {
			skipped++
			continue
		}
		pois = append(pois, geo.PointOfInterest{
			Name:        r.attr(colName),
			Position:    geo.LatLng{Lat: pt.Y, Lng: pt.X},
			Description: r.attr(colDesc),
			Facilities:  splitList(r.attr(colFacilities)),
			Region:      r.attr(colRegion),
			Target:      r.attr(colTarget),
			Entity:      "POINT",
			Layer:       r.attr(colLayer),
		})
	}
	if err := r.reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "dataset: read shapefile %s", path)
	}

	if skipped > 0 {
		zap.L().Info("dataset: skipped non-point records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return pois, nil
}
