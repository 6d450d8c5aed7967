package workarea

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/petrogas-holding/corpsite/pkg/adminapi"
)

type fakeSource struct {
	areas []adminapi.WorkArea
	err   error
	calls int
}

func (f *fakeSource) List(context.Context) ([]adminapi.WorkArea, error) {
	f.calls++
	return f.areas, f.err
}

func TestService_RefreshAndActive(t *testing.T) {
	src := &fakeSource{areas: sampleAreas()}
	svc := NewService(src, nil)

	require.NoError(t, svc.Refresh(context.Background()))

	active := svc.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "WK-1", active[0].AreaID)
	assert.Equal(t, "WK-2", active[1].AreaID)
	assert.Len(t, svc.All(), 3)
	assert.Empty(t, svc.Notices())
}

func TestService_FailureKeepsPreviousList(t *testing.T) {
	src := &fakeSource{areas: sampleAreas()}
	svc := NewService(src, nil)
	require.NoError(t, svc.Refresh(context.Background()))

	src.err = errors.New("502 bad gateway")
	src.areas = nil
	require.Error(t, svc.Refresh(context.Background()))

	assert.Len(t, svc.All(), 3)
	notices := svc.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, LevelError, notices[0].Level)
	assert.Empty(t, svc.Notices(), "notices are drained")
}

func TestService_FailureOnEmptyStartsEmpty(t *testing.T) {
	svc := NewService(&fakeSource{err: errors.New("timeout")}, nil)
	require.Error(t, svc.Refresh(context.Background()))
	assert.Empty(t, svc.Active())
	assert.Len(t, svc.Notices(), 1)
}

func TestService_SkipsInvalidRecords(t *testing.T) {
	areas := append(sampleAreas(), adminapi.WorkArea{AreaID: "WK-9", Name: "Salah", PositionX: 120, IsActive: true})
	svc := NewService(&fakeSource{areas: areas}, nil)

	require.NoError(t, svc.Refresh(context.Background()))
	assert.Len(t, svc.All(), 3)

	notices := svc.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, LevelWarning, notices[0].Level)
	assert.Contains(t, notices[0].Message, "WK-9")
}

func TestService_PersistsAndRestores(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	first := NewService(&fakeSource{areas: sampleAreas()}, store)
	require.NoError(t, first.Refresh(ctx))

	second := NewService(&fakeSource{err: errors.New("down")}, store)
	require.NoError(t, second.Restore(ctx))
	assert.Len(t, second.Active(), 2)
	assert.False(t, second.LoadedAt().IsZero())

	require.Error(t, second.Refresh(ctx))
	assert.Len(t, second.Active(), 2)
}

func TestService_RestoreEmptyStore(t *testing.T) {
	svc := NewService(&fakeSource{}, newTestSQLite(t))
	require.NoError(t, svc.Restore(context.Background()))
	assert.True(t, svc.LoadedAt().IsZero())
}

func TestService_RefreshIfStale(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{areas: sampleAreas()}
	svc := NewService(src, nil)
	svc.now = func() time.Time { return now }

	svc.RefreshIfStale(context.Background(), time.Minute)
	assert.Equal(t, 1, src.calls)

	now = now.Add(30 * time.Second)
	svc.RefreshIfStale(context.Background(), time.Minute)
	assert.Equal(t, 1, src.calls)

	now = now.Add(time.Minute)
	svc.RefreshIfStale(context.Background(), time.Minute)
	assert.Equal(t, 2, src.calls)
}

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Wilayah")
	require.NoError(t, err)
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "areas.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"Area_ID", "Name", "Position_X", "Position_Y", "Facilities", "Wells", "Order", "Is_Active"},
		{"WK-1", "Siak", "40,5", "20", "GS-1; WIP", "14", "1", "ya"},
		{"", "", "", "", "", "", "", ""},
		{"WK-2", "Kampar", "60", "70", "", "", "2", "tidak"},
	})

	areas, err := ReadXLSX(path, "")
	require.NoError(t, err)
	require.Len(t, areas, 2)
	assert.Equal(t, 40.5, areas[0].PositionX)
	assert.Equal(t, []string{"GS-1", "WIP"}, areas[0].Facilities)
	assert.Equal(t, 14, areas[0].Wells)
	assert.True(t, areas[0].IsActive)
	assert.False(t, areas[1].IsActive)
	assert.Nil(t, areas[1].Facilities)
}

func TestReadXLSX_RowErrors(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"area_id", "name", "position_x", "position_y"},
		{"WK-1", "Siak", "abc", "20"},
		{"WK-2", "Kampar", "60", "170"},
		{"WK-3", "Rokan", "10", "10"},
	})

	areas, err := ReadXLSX(path, "Wilayah")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workarea: 2 invalid rows: ")
	assert.Contains(t, err.Error(), "row 2: position_x")
	assert.Contains(t, err.Error(), "row 3: position_y 170 outside 0..100")
	require.Len(t, areas, 1)
	assert.Equal(t, "WK-3", areas[0].AreaID)
}

func TestReadXLSX_MissingColumnOrSheet(t *testing.T) {
	path := writeWorkbook(t, [][]string{{"area_id", "name"}})

	_, err := ReadXLSX(path, "")
	assert.ErrorContains(t, err, `missing column "position_x"`)

	_, err = ReadXLSX(path, "Other")
	assert.ErrorContains(t, err, `sheet "Other" not found`)
}
