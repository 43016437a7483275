package workbook

import (
	"time"

	"github.com/nconklindev/freightmap/internal/types"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	// OutputFileName is the download name of a processed workbook.
	OutputFileName = "processed_data.xlsx"
	ContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	outputSheet    = "Sheet1"
	dateFormat     = "yyyy-mm-dd"
	dateTimeFormat = "yyyy-mm-dd hh:mm:ss"
)

// Serialize writes t as a single-sheet xlsx workbook: a header row with
// the column names, then one row per data row. No index column is written.
func Serialize(t *types.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}
	dateStyle, err := newNumFmtStyle(f, dateFormat)
	if err != nil {
		return nil, err
	}
	dateTimeStyle, err := newNumFmtStyle(f, dateTimeFormat)
	if err != nil {
		return nil, err
	}

	for col, name := range t.Columns {
		ref, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStr(outputSheet, ref, name); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(outputSheet, ref, ref, headerStyle); err != nil {
			return nil, err
		}
	}

	for i, row := range t.Rows {
		for col, cell := range row {
			if cell == nil {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}

			style := 0
			var value any = cell
			switch v := cell.(type) {
			case types.Date:
				value, style = v.Time, dateStyle
			case time.Time:
				style = dateTimeStyle
			}

			if err := f.SetCellValue(outputSheet, ref, value); err != nil {
				return nil, errors.Wrapf(err, "writing cell %s", ref)
			}
			if style != 0 {
				if err := f.SetCellStyle(outputSheet, ref, ref, style); err != nil {
					return nil, err
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "encoding workbook")
	}
	return buf.Bytes(), nil
}

func newNumFmtStyle(f *excelize.File, code string) (int, error) {
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &code})
	if err != nil {
		return 0, errors.Wrapf(err, "creating %q style", code)
	}
	return style, nil
}
