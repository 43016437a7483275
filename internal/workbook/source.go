package workbook

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nconklindev/freightmap/internal/types"

	"github.com/extrame/xls"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

type format int

const (
	formatUnknown format = iota
	formatXLSX
	formatXLS
	formatCSV
)

var (
	zipMagic = []byte("PK\x03\x04")
	cfbMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// SupportedExtensions lists the upload types LoadSource understands.
var SupportedExtensions = []string{".xlsx", ".xlsm", ".xls", ".csv"}

// LoadSourceFile opens path and loads it with LoadSource.
func LoadSourceFile(path string) (*types.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &UnreadableFileError{Name: filepath.Base(path), Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &UnreadableFileError{Name: filepath.Base(path), Err: err}
	}
	return LoadSource(f, info.Size(), filepath.Base(path))
}

// LoadSource parses an uploaded spreadsheet and returns its first sheet.
// The first row is the header row; all following rows are data.
func LoadSource(r io.ReaderAt, size int64, name string) (*types.Table, error) {
	sr := io.NewSectionReader(r, 0, size)

	var (
		rows [][]types.Cell
		err  error
	)
	switch detectFormat(sr, name) {
	case formatXLSX:
		rows, err = readXLSXRows(sr)
	case formatXLS:
		rows, err = readXLSRows(sr)
	case formatCSV:
		rows, err = readCSVRows(sr)
	default:
		err = errors.Errorf("unsupported file type: %s", filepath.Ext(name))
	}
	if err != nil {
		return nil, &UnreadableFileError{Name: name, Err: err}
	}
	if len(rows) == 0 {
		return nil, &UnreadableFileError{Name: name, Err: errors.New("empty file")}
	}

	return tableFromRows(rows), nil
}

func detectFormat(r io.ReaderAt, name string) format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return formatXLSX
	case ".xls":
		return formatXLS
	case ".csv":
		return formatCSV
	}

	head := make([]byte, len(cfbMagic))
	n, _ := r.ReadAt(head, 0)
	head = head[:n]
	switch {
	case bytes.HasPrefix(head, zipMagic):
		return formatXLSX
	case bytes.HasPrefix(head, cfbMagic):
		return formatXLS
	}
	return formatUnknown
}

func readXLSXRows(r io.Reader) ([][]types.Cell, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return readSheetCells(f, sheets[0])
}

// readSheetCells returns the typed cells of one worksheet. Values are read
// raw so that numbers and date serials survive; the cell type and number
// format decide how each raw value is interpreted.
func readSheetCells(f *excelize.File, sheet string) ([][]types.Cell, error) {
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %q", sheet)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	styles := newStyleCache(f)

	rows := make([][]types.Cell, len(raw))
	for i, row := range raw {
		cells := make([]types.Cell, len(row))
		for j, val := range row {
			if val == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			cells[j] = typedCell(f, sheet, ref, val, styles, date1904)
		}
		rows[i] = cells
	}
	return rows, nil
}

func typedCell(f *excelize.File, sheet, ref, val string, styles *styleCache, date1904 bool) types.Cell {
	cellType, _ := f.GetCellType(sheet, ref)
	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		return val
	case excelize.CellTypeBool:
		return val == "1" || strings.EqualFold(val, "true")
	}

	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return val
	}
	if styles.isDate(sheet, ref) {
		if t, err := excelize.ExcelDateToTime(num, date1904); err == nil {
			return t
		}
	}
	return num
}

func readXLSRows(r io.ReadSeeker) (rows [][]types.Cell, err error) {
	// extrame/xls panics on some malformed BIFF streams.
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, errors.Errorf("malformed xls: %v", p)
		}
	}()

	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, err
	}
	if wb == nil {
		return nil, errors.New("no workbook stream")
	}
	if wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("first sheet unreadable")
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		// LastCol is one past the last cell for rows that carry a ROW record.
		cells := make([]types.Cell, row.LastCol()+1)
		for j := row.FirstCol(); j <= row.LastCol(); j++ {
			cells[j] = inferCell(row.Col(j))
		}
		for len(cells) > 0 && cells[len(cells)-1] == nil {
			cells = cells[:len(cells)-1]
		}
		rows = append(rows, cells)
	}
	return trimTrailingEmpty(rows), nil
}

// xlsRow returns nil for rows the sheet never wrote; WorkSheet.Row
// dereferences the missing entry.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func readCSVRows(r io.Reader) ([][]types.Cell, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([][]types.Cell, len(records))
	for i, record := range records {
		cells := make([]types.Cell, len(record))
		for j, val := range record {
			if i == 0 {
				cells[j] = val
				continue
			}
			cells[j] = inferCell(val)
		}
		rows[i] = cells
	}
	return rows, nil
}

// inferCell types a formatted text value: blanks are nil, numbers float64.
func inferCell(val string) types.Cell {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	if num, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
		return num
	}
	return val
}

func trimTrailingEmpty(rows [][]types.Cell) [][]types.Cell {
	for len(rows) > 0 {
		last := rows[len(rows)-1]
		empty := true
		for _, c := range last {
			if !types.IsEmpty(c) {
				empty = false
				break
			}
		}
		if !empty {
			break
		}
		rows = rows[:len(rows)-1]
	}
	return rows
}

// tableFromRows turns the header row into column names and pads every
// data row to the header width.
func tableFromRows(rows [][]types.Cell) *types.Table {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	header := make([]string, width)
	for i := range header {
		if i < len(rows[0]) && rows[0][i] != nil {
			header[i] = types.FormatCell(rows[0][i])
		}
	}

	t := types.NewTable(columnNames(header), len(rows)-1)
	for i, row := range rows[1:] {
		copy(t.Rows[i], row)
	}
	return t
}

// columnNames names blank headers "Unnamed: <i>" and suffixes repeated
// headers with ".1", ".2", ...
func columnNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[h] = true
	}

	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		if n, ok := seen[h]; ok {
			for {
				n++
				name = fmt.Sprintf("%s.%d", h, n)
				if !taken[name] {
					break
				}
			}
			seen[h] = n
		} else {
			seen[h] = 0
		}
		taken[name] = true
		names[i] = name
	}
	return names
}
