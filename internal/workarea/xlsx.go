package workarea

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/petrogas-holding/corpsite/pkg/adminapi"
)

// ReadXLSX parses work areas from a spreadsheet. The first row of the sheet
// holds column names matching the API field names; an empty sheetName
// selects the first sheet. Blank rows are skipped and all row errors are
// reported together.
func ReadXLSX(path, sheetName string) ([]adminapi.WorkArea, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	var sheet *xlsx.Sheet
	switch {
	case sheetName != "":
		s, ok := f.Sheet[sheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", sheetName)
		}
		sheet = s
	case len(f.Sheets) > 0:
		sheet = f.Sheets[0]
	default:
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	cols := make(map[string]int)
	for i, cell := range sheet.Rows[0].Cells {
		cols[strings.ToLower(strings.TrimSpace(cell.String()))] = i
	}
	for _, required := range []string{"area_id", "name", "position_x", "position_y"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("xlsx: missing column %q", required)
		}
	}

	var (
		out  []adminapi.WorkArea
		errs []string
	)
	for r, row := range sheet.Rows[1:] {
		cells := make([]string, len(row.Cells))
		blank := true
		for j, c := range row.Cells {
			cells[j] = strings.TrimSpace(c.String())
			blank = blank && cells[j] == ""
		}
		if blank {
			continue
		}
		a, err := parseRow(cols, cells)
		if err != nil {
			errs = append(errs, fmt.Sprintf("row %d: %v", r+2, err))
			continue
		}
		out = append(out, a)
	}
	if len(errs) > 0 {
		return out, eris.Errorf("workarea: %d invalid rows: %s", len(errs), strings.Join(errs, "; "))
	}
	return out, nil
}

func parseRow(cols map[string]int, cells []string) (adminapi.WorkArea, error) {
	get := func(name string) string {
		if i, ok := cols[name]; ok && i < len(cells) {
			return cells[i]
		}
		return ""
	}

	var errs []string
	num := func(name string) float64 {
		v, err := strconv.ParseFloat(strings.ReplaceAll(get(name), ",", "."), 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %q is not a number", name, get(name)))
		}
		return v
	}
	integer := func(name string) int {
		s := get(name)
		if s == "" {
			return 0
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %q is not an integer", name, s))
		}
		return v
	}

	a := adminapi.WorkArea{
		AreaID:      get("area_id"),
		Name:        get("name"),
		PositionX:   num("position_x"),
		PositionY:   num("position_y"),
		Color:       get("color"),
		Description: get("description"),
		Facilities:  splitList(get("facilities")),
		Production:  get("production"),
		Status:      get("status"),
		Wells:       integer("wells"),
		Depth:       get("depth"),
		Pressure:    get("pressure"),
		Temperature: get("temperature"),
		Order:       integer("order"),
		IsActive:    parseBool(get("is_active")),
	}
	if len(errs) == 0 {
		if err := a.Validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return a, eris.New(strings.Join(errs, "; "))
	}
	return a, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "", "1", "true", "ya", "yes", "aktif":
		return true
	}
	return false
}
