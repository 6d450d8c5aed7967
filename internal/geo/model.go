// Package geo defines the map feature model: area polygons, flow points and
// TJSL points of interest, together with their validation rules.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// FeatureType discriminates the three selectable feature kinds.
type FeatureType string

// Feature types as they appear in selection payloads.
const (
	TypeArea FeatureType = "area"
	TypeFlow FeatureType = "flow"
	TypeTJSL FeatureType = "tjsl"
)

// ParseFeatureType converts a wire value into a FeatureType.
func ParseFeatureType(s string) (FeatureType, error) {
	switch t := FeatureType(s); t {
	case TypeArea, TypeFlow, TypeTJSL:
		return t, nil
	}
	return "", eris.Errorf("geo: unknown feature type %q", s)
}

// Feature is implemented by every selectable map item.
type Feature interface {
	FeatureKey() string
	FeatureType() FeatureType
	// Label is the 1-based position of the item in its source list.
	Label() string
}

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Valid reports whether the coordinate is finite and inside global bounds.
func (p LatLng) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func (p LatLng) String() string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + ", " + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}

// AreaFeature is a drilling work-area boundary.
type AreaFeature struct {
	Key         string   `json:"key" yaml:"-"`
	Index       int      `json:"index" yaml:"-"`
	Name        string   `json:"name" yaml:"name"`
	Vertices    []LatLng `json:"vertices" yaml:"vertices"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Facilities  []string `json:"facilities,omitempty" yaml:"facilities,omitempty"`
	Production  string   `json:"production,omitempty" yaml:"production,omitempty"`
	Color       string   `json:"color,omitempty" yaml:"color,omitempty"`
	Region      string   `json:"region,omitempty" yaml:"region,omitempty"`
	Entity      string   `json:"entity,omitempty" yaml:"entity,omitempty"`
	Layer       string   `json:"layer,omitempty" yaml:"layer,omitempty"`
	LineType    string   `json:"line_type,omitempty" yaml:"line_type,omitempty"`
}

func (a *AreaFeature) FeatureKey() string { return a.Key }
func (a *AreaFeature) FeatureType() FeatureType { return TypeArea }
func (a *AreaFeature) Label() string { return strconv.Itoa(a.Index + 1) }

// Ring returns the polygon vertices without a closing duplicate.
func (a *AreaFeature) Ring() []LatLng {
	n := len(a.Vertices)
	if n > 1 && a.Vertices[0] == a.Vertices[n-1] {
		return a.Vertices[:n-1]
	}
	return a.Vertices
}

// VertexCount returns the number of distinct ring vertices.
func (a *AreaFeature) VertexCount() int {
	return len(a.Ring())
}

// Validate checks the polygon invariants.
func (a *AreaFeature) Validate() error {
	var errs []string
	if a.Name == "" {
		errs = append(errs, "name is required")
	}
	if n := a.VertexCount(); n < 3 {
		errs = append(errs, fmt.Sprintf("polygon needs at least 3 vertices, got %d", n))
	}
	for i, v := range a.Vertices {
		if !v.Valid() {
			errs = append(errs, fmt.Sprintf("vertex %d out of range: %v", i, v))
		}
	}
	if len(errs) > 0 {
		return eris.New(strings.Join(errs, "; "))
	}
	return nil
}

// FlowStatus is the operating state of a flow point.
type FlowStatus string

// Flow point statuses.
const (
	StatusActive      FlowStatus = "active"
	StatusMaintenance FlowStatus = "maintenance"
	StatusShutIn      FlowStatus = "shut_in"
)

// Valid reports whether s is a known status.
func (s FlowStatus) Valid() bool {
	switch s {
	case StatusActive, StatusMaintenance, StatusShutIn:
		return true
	}
	return false
}

// MonthlyProduction is one month of oil and gas rates.
type MonthlyProduction struct {
	Month   int     `json:"month" yaml:"month"`
	OilRate float64 `json:"oil_rate" yaml:"oil_rate"`
	GasRate float64 `json:"gas_rate" yaml:"gas_rate"`
}

// MonthsPerYear is the fixed length of a flow point's production record.
const MonthsPerYear = 12

// FlowPoint is a metered production point.
type FlowPoint struct {
	Key         string              `json:"key" yaml:"-"`
	Index       int                 `json:"index" yaml:"-"`
	ID          string              `json:"id" yaml:"id"`
	Name        string              `json:"name" yaml:"name"`
	Position    LatLng              `json:"position" yaml:"position"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Facilities  []string            `json:"facilities,omitempty" yaml:"facilities,omitempty"`
	Production  []MonthlyProduction `json:"production" yaml:"production"`
	Coordinate  string              `json:"coordinate,omitempty" yaml:"coordinate,omitempty"`
	Status      FlowStatus          `json:"status" yaml:"status"`
	Pressure    string              `json:"pressure,omitempty" yaml:"pressure,omitempty"`
	Temperature string              `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	FlowRate    string              `json:"flow_rate,omitempty" yaml:"flow_rate,omitempty"`
}

func (f *FlowPoint) FeatureKey() string { return f.Key }
func (f *FlowPoint) FeatureType() FeatureType { return TypeFlow }
func (f *FlowPoint) Label() string { return strconv.Itoa(f.Index + 1) }

// Totals holds annual production sums.
type Totals struct {
	Oil float64 `json:"oil"`
	Gas float64 `json:"gas"`
}

// Totals sums the monthly records. It is recomputed on every call so the
// totals always agree with the rows they are displayed under.
func (f *FlowPoint) Totals() Totals {
	var t Totals
	for _, m := range f.Production {
		t.Oil += m.OilRate
		t.Gas += m.GasRate
	}
	return t
}

// Validate checks the flow point invariants.
func (f *FlowPoint) Validate() error {
	var errs []string
	if f.Name == "" {
		errs = append(errs, "name is required")
	}
	if !f.Position.Valid() {
		errs = append(errs, fmt.Sprintf("position out of range: %v", f.Position))
	}
	if !f.Status.Valid() {
		errs = append(errs, fmt.Sprintf("unknown status %q", f.Status))
	}
	if len(f.Production) != MonthsPerYear {
		errs = append(errs, fmt.Sprintf("production needs %d monthly records, got %d", MonthsPerYear, len(f.Production)))
	}
	var seen [MonthsPerYear + 1]bool
	for _, m := range f.Production {
		if m.Month < 1 || m.Month > MonthsPerYear {
			errs = append(errs, fmt.Sprintf("month %d out of range", m.Month))
			continue
		}
		if seen[m.Month] {
			errs = append(errs, fmt.Sprintf("month %d listed twice", m.Month))
		}
		seen[m.Month] = true
		if !validRate(m.OilRate) || !validRate(m.GasRate) {
			errs = append(errs, fmt.Sprintf("month %d has a negative or invalid rate", m.Month))
		}
	}
	if len(errs) > 0 {
		return eris.New(strings.Join(errs, "; "))
	}
	return nil
}

func validRate(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// PointOfInterest is a TJSL (CSR programme) marker.
type PointOfInterest struct {
	Key         string   `json:"key" yaml:"-"`
	Index       int      `json:"index" yaml:"-"`
	Name        string   `json:"name" yaml:"name"`
	Position    LatLng   `json:"position" yaml:"position"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Facilities  []string `json:"facilities,omitempty" yaml:"facilities,omitempty"`
	Region      string   `json:"region,omitempty" yaml:"region,omitempty"`
	Target      string   `json:"target,omitempty" yaml:"target,omitempty"`
	Entity      string   `json:"entity,omitempty" yaml:"entity,omitempty"`
	Layer       string   `json:"layer,omitempty" yaml:"layer,omitempty"`
	LineType    string   `json:"line_type,omitempty" yaml:"line_type,omitempty"`
}

func (p *PointOfInterest) FeatureKey() string { return p.Key }
func (p *PointOfInterest) FeatureType() FeatureType { return TypeTJSL }
func (p *PointOfInterest) Label() string { return strconv.Itoa(p.Index + 1) }

// Validate checks the point invariants.
func (p *PointOfInterest) Validate() error {
	var errs []string
	if p.Name == "" {
		errs = append(errs, "name is required")
	}
	if !p.Position.Valid() {
		errs = append(errs, fmt.Sprintf("position out of range: %v", p.Position))
	}
	if len(errs) > 0 {
		return eris.New(strings.Join(errs, "; "))
	}
	return nil
}
