package adminapi

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Collection paths.
const (
	PathWorkAreas    = "work-areas"
	PathReports      = "reports"
	PathAwards       = "awards"
	PathTestimonials = "testimonials"
	PathStatistics   = "statistics"
)

// Paths lists every managed collection.
var Paths = []string{PathWorkAreas, PathReports, PathAwards, PathTestimonials, PathStatistics}

// KnownPath reports whether p is a managed collection.
func KnownPath(p string) bool {
	for _, known := range Paths {
		if p == known {
			return true
		}
	}
	return false
}

// WorkArea is a TEKKOM work area. PositionX and PositionY are percentage
// offsets on the static reference image, not geographic coordinates.
type WorkArea struct {
	ID          int64    `json:"id,omitempty"`
	AreaID      string   `json:"area_id"`
	Name        string   `json:"name"`
	PositionX   float64  `json:"position_x"`
	PositionY   float64  `json:"position_y"`
	Color       string   `json:"color,omitempty"`
	Description string   `json:"description,omitempty"`
	Facilities  []string `json:"facilities"`
	Production  string   `json:"production,omitempty"`
	Status      string   `json:"status,omitempty"`
	Wells       int      `json:"wells"`
	Depth       string   `json:"depth,omitempty"`
	Pressure    string   `json:"pressure,omitempty"`
	Temperature string   `json:"temperature,omitempty"`
	Order       int      `json:"order"`
	IsActive    bool     `json:"is_active"`
}

// Validate checks the required fields and that the position lies on the image.
func (w WorkArea) Validate() error {
	var errs []string
	if w.AreaID == "" {
		errs = append(errs, "area_id is required")
	}
	if w.Name == "" {
		errs = append(errs, "name is required")
	}
	if !percent(w.PositionX) {
		errs = append(errs, fmt.Sprintf("position_x %v outside 0..100", w.PositionX))
	}
	if !percent(w.PositionY) {
		errs = append(errs, fmt.Sprintf("position_y %v outside 0..100", w.PositionY))
	}
	if w.Wells < 0 {
		errs = append(errs, fmt.Sprintf("wells %d is negative", w.Wells))
	}
	if len(errs) > 0 {
		return eris.New(strings.Join(errs, "; "))
	}
	return nil
}

func percent(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 100
}

// Report is a downloadable annual or sustainability report.
type Report struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Year        int    `json:"year"`
	Category    string `json:"category,omitempty"`
	FileURL     string `json:"file_url"`
	CoverURL    string `json:"cover_url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Award is a recognition received by the company.
type Award struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Issuer      string `json:"issuer,omitempty"`
	Year        int    `json:"year"`
	ImageURL    string `json:"image_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// Testimonial is a quote shown on the landing page.
type Testimonial struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
	Quote    string `json:"quote"`
	PhotoURL string `json:"photo_url,omitempty"`
	Order    int    `json:"order"`
	IsActive bool   `json:"is_active"`
}

// Statistic is a headline figure such as daily production.
type Statistic struct {
	ID    int64  `json:"id,omitempty"`
	Label string `json:"label"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
	Order int    `json:"order"`
}

// WorkAreas is the work-area collection.
func (c *Client) WorkAreas() Resource[WorkArea] { return NewResource[WorkArea](c, PathWorkAreas) }

// Reports is the report collection.
func (c *Client) Reports() Resource[Report] { return NewResource[Report](c, PathReports) }

// Awards is the award collection.
func (c *Client) Awards() Resource[Award] { return NewResource[Award](c, PathAwards) }

// Testimonials is the testimonial collection.
func (c *Client) Testimonials() Resource[Testimonial] {
	return NewResource[Testimonial](c, PathTestimonials)
}

// Statistics is the statistic collection.
func (c *Client) Statistics() Resource[Statistic] { return NewResource[Statistic](c, PathStatistics) }
