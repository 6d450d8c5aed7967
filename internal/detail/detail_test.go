package detail

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/petrogas-holding/corpsite/internal/dataset"
	"github.com/petrogas-holding/corpsite/internal/geo"
)

var sampleOil = []float64{1500, 1600, 1550, 1620, 1580, 1610, 1590, 1640, 1570, 1660, 1600, 1700}

func sampleFlow() *geo.FlowPoint {
	f := &geo.FlowPoint{
		Key:        "fp-4",
		Index:      3,
		ID:         "FP-04",
		Name:       "Flow Point Kampar",
		Position:   geo.LatLng{Lat: 0.41, Lng: 102.02},
		Status:     geo.StatusActive,
		Facilities: []string{"Separator", " "},
	}
	for i, oil := range sampleOil {
		f.Production = append(f.Production, geo.MonthlyProduction{Month: i + 1, OilRate: oil, GasRate: 2})
	}
	return f
}

func TestBuild_FlowHeaderAndTotals(t *testing.T) {
	f := sampleFlow()
	v := Build(f)

	assert.Equal(t, "Flow Point 4", v.Title)
	assert.Equal(t, geo.TypeFlow, v.Type)
	require.Len(t, v.Production, geo.MonthsPerYear)
	assert.Equal(t, "Januari", v.Production[0].Name)
	assert.Equal(t, "Desember", v.Production[11].Name)

	var sum float64
	for _, r := range v.Production {
		sum += r.Oil
	}
	require.NotNil(t, v.Totals)
	assert.Equal(t, sum, v.Totals.Oil)
	assert.Equal(t, 19220.0, v.Totals.Oil)
	assert.Equal(t, 24.0, v.Totals.Gas)
	assert.Equal(t, "19.220", v.Totals.OilText)
	assert.Equal(t, "24,0", v.Totals.GasText)

	assert.Equal(t, []string{"Separator"}, v.Items)
}

func TestBuild_TotalsFollowSource(t *testing.T) {
	f := sampleFlow()
	before := Build(f).Totals.Oil

	f.Production[0].OilRate += 100
	after := Build(f).Totals.Oil

	assert.Equal(t, before+100, after)
}

func TestBuild_FlowPlaceholders(t *testing.T) {
	v := Build(sampleFlow())

	byLabel := map[string]Field{}
	for _, f := range v.Identity {
		byLabel[f.Label] = f
	}
	assert.True(t, byLabel["Tekanan"].Missing)
	assert.Equal(t, NotAvailable, byLabel["Tekanan"].Value)
	assert.Equal(t, "0.410000, 102.020000", byLabel["Koordinat"].Value)
	assert.Equal(t, "Aktif", byLabel["Status"].Value)
	assert.True(t, v.Description.Missing)
}

func TestBuild_Area(t *testing.T) {
	a := &geo.AreaFeature{
		Key:         "a1",
		Name:        "Blok Pesisir",
		Description: "Lepas pantai",
		Entity:      "LWPOLYLINE",
		Vertices: []geo.LatLng{
			{Lat: 1, Lng: 102}, {Lat: 1.1, Lng: 102.1}, {Lat: 1, Lng: 102.2}, {Lat: 1, Lng: 102},
		},
	}
	v := Build(a)

	assert.Equal(t, "Blok Pesisir", v.Title)
	assert.False(t, v.Description.Missing)
	require.Len(t, v.Technical, 4)
	assert.Equal(t, "LWPOLYLINE", v.Technical[0].Value)
	assert.True(t, v.Technical[1].Missing)
	assert.True(t, v.Technical[2].Missing)
	assert.Equal(t, "3", v.Technical[3].Value)
	require.NotNil(t, v.Summary)
	assert.Equal(t, "Produksi", v.Summary.Label)
	assert.True(t, v.Summary.Missing)
	assert.False(t, v.HasItems())
	assert.Nil(t, v.Totals)
}

func TestBuild_TJSL(t *testing.T) {
	p := &geo.PointOfInterest{Key: "p1", Name: "Beasiswa", Target: "120 siswa", Facilities: []string{"Beasiswa SMA"}}
	v := Build(p)

	assert.Equal(t, "Program", v.ListTitle)
	assert.Equal(t, "120 siswa", v.Summary.Value)
	assert.Equal(t, "Target", v.Summary.Label)
	assert.True(t, v.Description.Missing)
}

func TestBuild_DefaultDatasetNeverEmpty(t *testing.T) {
	ds, err := dataset.Default()
	require.NoError(t, err)

	for _, f := range ds.Features() {
		v := Build(f)
		assert.NotEmpty(t, v.Title, f.FeatureKey())
		assert.NotEmpty(t, v.Description.Value, f.FeatureKey())
		for _, fld := range append(v.Identity, v.Technical...) {
			assert.NotEmpty(t, fld.Value, fld.Label)
		}
	}
}

func TestRender_DismissTargets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Build(sampleFlow())))
	out := buf.String()

	assert.Contains(t, out, `data-dismiss="backdrop"`)
	assert.Contains(t, out, `data-dismiss="close"`)
	assert.Contains(t, out, `data-dismiss="panel"`)
	assert.Contains(t, out, "<h2>Flow Point 4</h2>")
	assert.Contains(t, out, "<th>Total</th><td>19.220</td>")
	assert.Equal(t, geo.MonthsPerYear+2, strings.Count(out, "<tr>"))
}

func TestRender_EscapesContent(t *testing.T) {
	var buf bytes.Buffer
	p := &geo.PointOfInterest{Key: "p1", Name: "<script>x</script>"}
	require.NoError(t, Render(&buf, Build(p)))

	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), `<p class="missing">`+NotAvailable)
}

func TestExportProductionXLSX(t *testing.T) {
	f := sampleFlow()
	var buf bytes.Buffer
	require.NoError(t, ExportProductionXLSX(&buf, f))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := file.Sheet[ProductionSheet]
	require.True(t, ok)
	require.Len(t, sheet.Rows, geo.MonthsPerYear+2)

	assert.Equal(t, "Bulan", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Maret", sheet.Rows[3].Cells[1].String())

	last := sheet.Rows[len(sheet.Rows)-1]
	assert.Equal(t, "Total", last.Cells[0].String())
	oil, err := last.Cells[2].Float()
	require.NoError(t, err)
	assert.Equal(t, 19220.0, oil)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "produksi-FP-04.xlsx", ExportFilename(sampleFlow()))
	assert.Equal(t, "produksi-flow-point-1.xlsx", ExportFilename(&geo.FlowPoint{}))
}
