package mapview

import (
	"github.com/rotisserie/eris"

	"github.com/petrogas-holding/corpsite/internal/geo"
)

// LayerFilter selects which overlay categories the map shows.
type LayerFilter string

// Filter values as sent by the filter buttons.
const (
	FilterAll      LayerFilter = "all"
	FilterDrilling LayerFilter = "pengeboran"
	FilterTJSL     LayerFilter = "tjsl"
)

// Filters lists the toggle values in button order.
var Filters = []LayerFilter{FilterAll, FilterDrilling, FilterTJSL}

// ParseLayerFilter converts a button value. An empty string means all.
func ParseLayerFilter(s string) (LayerFilter, error) {
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", eris.Errorf("mapview: unknown layer filter %q", s)
}

// Shows reports whether features of type t are visible under f.
func (f LayerFilter) Shows(t geo.FeatureType) bool {
	switch f {
	case FilterDrilling:
		return t == geo.TypeArea || t == geo.TypeFlow
	case FilterTJSL:
		return t == geo.TypeTJSL
	default:
		return true
	}
}

// Title is the button caption.
func (f LayerFilter) Title() string {
	switch f {
	case FilterDrilling:
		return "Pengeboran"
	case FilterTJSL:
		return "TJSL"
	default:
		return "Semua"
	}
}

// Transition describes a filter change and the view it moves to.
type Transition struct {
	From     LayerFilter `json:"from"`
	To       LayerFilter `json:"to"`
	Viewport Viewport    `json:"viewport"`
}

// FilterController is the exclusive three-way toggle. The zero value is
// in the all state.
type FilterController struct {
	current LayerFilter
}

// Current returns the active filter.
func (c *FilterController) Current() LayerFilter {
	if c.current == "" {
		return FilterAll
	}
	return c.current
}

// Set switches to f and returns the viewport change the map should apply.
func (c *FilterController) Set(f LayerFilter, r *Renderer) Transition {
	from := c.Current()
	c.current = f
	return Transition{From: from, To: f, Viewport: r.Viewport(f)}
}
