package detail

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/petrogas-holding/corpsite/internal/geo"
)

// ProductionSheet is the worksheet name of the production export.
const ProductionSheet = "Produksi"

// ExportProductionXLSX writes a workbook with the monthly production table
// of f followed by a totals row.
func ExportProductionXLSX(w io.Writer, f *geo.FlowPoint) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(ProductionSheet)
	if err != nil {
		return eris.Wrap(err, "detail: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Bulan", "Nama bulan", "Minyak (BOPD)", "Gas (MMSCFD)"} {
		header.AddCell().SetString(h)
	}

	for _, m := range f.Production {
		row := sheet.AddRow()
		row.AddCell().SetInt(m.Month)
		row.AddCell().SetString(MonthName(m.Month))
		row.AddCell().SetFloat(m.OilRate)
		row.AddCell().SetFloat(m.GasRate)
	}

	t := f.Totals()
	total := sheet.AddRow()
	total.AddCell().SetString("Total")
	total.AddCell().SetString(f.ID)
	total.AddCell().SetFloat(t.Oil)
	total.AddCell().SetFloat(t.Gas)

	if err := file.Write(w); err != nil {
		return eris.Wrap(err, "detail: write workbook")
	}
	return nil
}

// ExportFilename is the download name for the production workbook of f.
func ExportFilename(f *geo.FlowPoint) string {
	id := f.ID
	if id == "" {
		id = "flow-point-" + f.Label()
	}
	return "produksi-" + id + ".xlsx"
}
