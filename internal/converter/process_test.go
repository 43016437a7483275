package converter

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nconklindev/freightmap/internal/mapping"
	"github.com/nconklindev/freightmap/internal/types"
	"github.com/nconklindev/freightmap/internal/workbook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func xlsxBytes(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, ref, v))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func writeTemplate(t *testing.T, columns ...string) string {
	t.Helper()

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	path := filepath.Join(t.TempDir(), "template.xlsx")
	require.NoError(t, os.WriteFile(path, xlsxBytes(t, workbook.TemplateSheet, [][]any{header}), 0o644))
	return path
}

func request(name string, data []byte, sel map[string]string) Request {
	return Request{
		Name:       name,
		Source:     bytes.NewReader(data),
		Size:       int64(len(data)),
		Selections: sel,
	}
}

func TestProcess_RoundTrip(t *testing.T) {
	template := writeTemplate(t, templateColumns...)
	source := xlsxBytes(t, "Shipments", [][]any{
		{"Job Date", "Consolidation Type", "POL", "POD", "Weight(Tons)", "Weight(Kg)"},
		{"2023-01-05", "LCL", "HKG", "LAX", 12.5, 12500},
		{"2023-02-11", "FCL", "SIN", "RTM", 3, 3000},
	})

	p := NewProcessor(template, mapping.DirectionTarget, nil)
	out, err := p.Process(context.Background(), request("client.xlsx", source, nil))
	require.NoError(t, err)

	assert.Equal(t, 2, out.Result.RowsProcessed)
	assert.ElementsMatch(t, []string{"Res_Date", "Facility", "Departure", "Arrival", "Weight Ton", "Activity Unit"}, out.Result.ColumnsMapped)

	back, err := workbook.LoadSource(bytes.NewReader(out.Data), int64(len(out.Data)), workbook.OutputFileName)
	require.NoError(t, err)
	assert.Equal(t, out.Table.Columns, back.Columns)
	require.Len(t, back.Rows, len(out.Table.Rows))

	for i, row := range out.Table.Rows {
		for j, want := range row {
			got := back.Rows[i][j]
			if d, ok := want.(types.Date); ok {
				gotTime, isTime := got.(time.Time)
				require.True(t, isTime, "row %d col %s: got %T", i, back.Columns[j], got)
				assert.Equal(t, d, types.NewDate(gotTime))
				continue
			}
			assert.Equal(t, want, got, "row %d col %s", i, back.Columns[j])
		}
	}

	assert.Equal(t, "LCL", cell(t, back, 0, "Facility"))
	assert.Equal(t, 12500.0, cell(t, back, 0, "Activity Unit"))
	assert.Equal(t, "IATA", cell(t, back, 1, "CF Standard"))
	assert.Equal(t, "CO2", cell(t, back, 1, "Gas"))
}

func TestProcess_SelectionsOverrideDefaults(t *testing.T) {
	template := writeTemplate(t, templateColumns...)
	source := xlsxBytes(t, "Sheet1", [][]any{
		{"POL", "POD"},
		{"HKG", "LAX"},
	})

	p := NewProcessor(template, mapping.DirectionTarget, nil)
	out, err := p.Process(context.Background(), request("client.xlsx", source, map[string]string{
		"POL": "Arrival",
		"POD": "Departure",
	}))
	require.NoError(t, err)

	assert.Equal(t, "LAX", cell(t, out.Table, 0, "Departure"))
	assert.Equal(t, "HKG", cell(t, out.Table, 0, "Arrival"))
}

func TestProcess_ReportsProgress(t *testing.T) {
	template := writeTemplate(t, templateColumns...)
	source := xlsxBytes(t, "Sheet1", [][]any{{"POL"}, {"HKG"}})

	progress := make(chan float64, 10)
	req := request("client.xlsx", source, nil)
	req.Progress = progress

	_, err := NewProcessor(template, mapping.DirectionTarget, nil).Process(context.Background(), req)
	require.NoError(t, err)
	close(progress)

	var got []float64
	for v := range progress {
		got = append(got, v)
	}
	require.NotEmpty(t, got)
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 1.0, got[len(got)-1])
}

func TestProcess_Errors(t *testing.T) {
	good := writeTemplate(t, templateColumns...)
	noGas := writeTemplate(t, "Res_Date", "CF Standard")
	source := xlsxBytes(t, "Sheet1", [][]any{{"POL"}, {"HKG"}})

	tests := []struct {
		name     string
		template string
		data     []byte
		file     string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "Unreadable upload",
			template: good,
			data:     []byte("garbage"),
			file:     "client.xlsx",
			check: func(t *testing.T, err error) {
				var target *workbook.UnreadableFileError
				assert.True(t, errors.As(err, &target), "got %v", err)
			},
		},
		{
			name:     "Missing template",
			template: filepath.Join(t.TempDir(), "missing.xlsx"),
			data:     source,
			file:     "client.xlsx",
			check: func(t *testing.T, err error) {
				var target *workbook.SchemaNotFoundError
				assert.True(t, errors.As(err, &target), "got %v", err)
			},
		},
		{
			name:     "Template without Gas",
			template: noGas,
			data:     source,
			file:     "client.xlsx",
			check: func(t *testing.T, err error) {
				var target *MissingColumnError
				require.True(t, errors.As(err, &target), "got %v", err)
				assert.Equal(t, GasColumn, target.Column)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProcessor(tt.template, mapping.DirectionTarget, nil)
			out, err := p.Process(context.Background(), request(tt.file, tt.data, nil))
			require.Error(t, err)
			assert.Nil(t, out)
			tt.check(t, err)
		})
	}
}

func TestProcess_Cancelled(t *testing.T) {
	template := writeTemplate(t, templateColumns...)
	source := xlsxBytes(t, "Sheet1", [][]any{{"POL"}, {"HKG"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProcessor(template, mapping.DirectionTarget, nil).Process(ctx, request("client.xlsx", source, nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMappedColumns(t *testing.T) {
	src := types.NewTable([]string{"POL", "POD"}, 0)
	out := types.NewTable(templateColumns, 0)

	got := MappedColumns(src, out, pairs(
		"POL", "Departure",
		"POD", "Departure",
		"ATA", "Start Date",
		"POD", "Nowhere",
	))
	assert.Equal(t, []string{"Departure"}, got)
}
