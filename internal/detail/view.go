// Package detail derives the contents of the feature detail modal. Views are
// rebuilt from the source feature on every open and carry no state of their
// own.
package detail

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/petrogas-holding/corpsite/internal/geo"
)

// NotAvailable replaces empty optional fields.
const NotAvailable = "Tidak tersedia"

var monthNames = [geo.MonthsPerYear]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// MonthName returns the Indonesian name of month m (1-based).
func MonthName(m int) string {
	if m < 1 || m > geo.MonthsPerYear {
		return strconv.Itoa(m)
	}
	return monthNames[m-1]
}

// Field is one labelled value in the modal.
type Field struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Missing bool   `json:"missing,omitempty"`
}

func field(label, value string) Field {
	if strings.TrimSpace(value) == "" {
		return Field{Label: label, Value: NotAvailable, Missing: true}
	}
	return Field{Label: label, Value: value}
}

// Row is one month of the production table.
type Row struct {
	Month   int     `json:"month"`
	Name    string  `json:"name"`
	Oil     float64 `json:"oil"`
	Gas     float64 `json:"gas"`
	OilText string  `json:"oil_text"`
	GasText string  `json:"gas_text"`
}

// Totals is the annual sum row.
type Totals struct {
	Oil     float64 `json:"oil"`
	Gas     float64 `json:"gas"`
	OilText string  `json:"oil_text"`
	GasText string  `json:"gas_text"`
}

// View is the modal content for one feature.
type View struct {
	Type        geo.FeatureType `json:"type"`
	Key         string          `json:"key"`
	Title       string          `json:"title"`
	Subtitle    string          `json:"subtitle,omitempty"`
	Description Field           `json:"description"`
	Identity    []Field         `json:"identity,omitempty"`
	Technical   []Field         `json:"technical,omitempty"`
	ListTitle   string          `json:"list_title"`
	Items       []string        `json:"items,omitempty"`
	Summary     *Field          `json:"summary,omitempty"`
	Production  []Row           `json:"production,omitempty"`
	Totals      *Totals         `json:"totals,omitempty"`
}

// HasItems reports whether the facilities or programmes list is non-empty.
func (v View) HasItems() bool { return len(v.Items) > 0 }

// Builder formats views for one locale.
type Builder struct {
	p *message.Printer
}

// NewBuilder returns a Builder for tag.
func NewBuilder(tag language.Tag) *Builder {
	return &Builder{p: message.NewPrinter(tag)}
}

var defaultBuilder = NewBuilder(language.Indonesian)

// Build derives the view for f using Indonesian formatting.
func Build(f geo.Feature) View {
	return defaultBuilder.Build(f)
}

// Build derives the view for f. Unknown feature kinds yield a view with only
// the type and key populated.
func (b *Builder) Build(f geo.Feature) View {
	switch item := f.(type) {
	case *geo.FlowPoint:
		return b.flow(item)
	case *geo.AreaFeature:
		return b.area(item)
	case *geo.PointOfInterest:
		return b.poi(item)
	}
	return View{Type: f.FeatureType(), Key: f.FeatureKey()}
}

// Oil formats a barrel rate.
func (b *Builder) Oil(v float64) string { return b.p.Sprintf("%.0f", v) }

// Gas formats a gas rate.
func (b *Builder) Gas(v float64) string { return b.p.Sprintf("%.1f", v) }

func (b *Builder) flow(f *geo.FlowPoint) View {
	v := View{
		Type:        geo.TypeFlow,
		Key:         f.Key,
		Title:       "Flow Point " + f.Label(),
		Subtitle:    f.Name,
		Description: field("Deskripsi", f.Description),
		Identity: []Field{
			field("ID", f.ID),
			field("Nama", f.Name),
			field("Koordinat", coordinate(f)),
			field("Status", statusText(f.Status)),
			field("Tekanan", f.Pressure),
			field("Suhu", f.Temperature),
			field("Laju alir", f.FlowRate),
		},
		ListTitle: "Fasilitas",
		Items:     nonEmpty(f.Facilities),
	}

	v.Production = make([]Row, 0, len(f.Production))
	for _, m := range f.Production {
		v.Production = append(v.Production, Row{
			Month:   m.Month,
			Name:    MonthName(m.Month),
			Oil:     m.OilRate,
			Gas:     m.GasRate,
			OilText: b.Oil(m.OilRate),
			GasText: b.Gas(m.GasRate),
		})
	}
	t := f.Totals()
	v.Totals = &Totals{Oil: t.Oil, Gas: t.Gas, OilText: b.Oil(t.Oil), GasText: b.Gas(t.Gas)}
	return v
}

func (b *Builder) area(a *geo.AreaFeature) View {
	summary := field("Produksi", a.Production)
	return View{
		Type:        geo.TypeArea,
		Key:         a.Key,
		Title:       orPlaceholder(a.Name),
		Subtitle:    a.Region,
		Description: field("Deskripsi", a.Description),
		Technical:   b.technical(a.Entity, a.Layer, a.LineType, a.VertexCount()),
		ListTitle:   "Fasilitas",
		Items:       nonEmpty(a.Facilities),
		Summary:     &summary,
	}
}

func (b *Builder) poi(p *geo.PointOfInterest) View {
	summary := field("Target", p.Target)
	return View{
		Type:        geo.TypeTJSL,
		Key:         p.Key,
		Title:       orPlaceholder(p.Name),
		Subtitle:    p.Region,
		Description: field("Deskripsi", p.Description),
		Technical:   b.technical(p.Entity, p.Layer, p.LineType, 1),
		ListTitle:   "Program",
		Items:       nonEmpty(p.Facilities),
		Summary:     &summary,
	}
}

func (b *Builder) technical(entity, layer, lineType string, vertices int) []Field {
	return []Field{
		field("Entity", entity),
		field("Layer", layer),
		field("Line type", lineType),
		{Label: "Jumlah vertex", Value: b.p.Sprintf("%d", vertices)},
	}
}

func coordinate(f *geo.FlowPoint) string {
	if f.Coordinate != "" {
		return f.Coordinate
	}
	if f.Position == (geo.LatLng{}) {
		return ""
	}
	return f.Position.String()
}

func statusText(s geo.FlowStatus) string {
	switch s {
	case geo.StatusActive:
		return "Aktif"
	case geo.StatusMaintenance:
		return "Perawatan"
	case geo.StatusShutIn:
		return "Ditutup sementara"
	}
	return string(s)
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}
