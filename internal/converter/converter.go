package converter

import (
	"fmt"
	"strings"
	"time"

	"github.com/nconklindev/freightmap/internal/mapping"
	"github.com/nconklindev/freightmap/internal/types"

	"github.com/xuri/excelize/v2"
)

const (
	DateColumn       = "Res_Date"
	StandardColumn   = "CF Standard"
	GasColumn        = "Gas"
	DefaultStandard  = "IATA"
	DefaultGas       = "CO2"
	JobDateSourceKey = "Job Date"
)

// RequiredColumns must exist in the target schema for Transform to run.
var RequiredColumns = []string{DateColumn, StandardColumn, GasColumn}

// MissingColumnError reports a template that lacks a column Transform
// writes to.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("template schema has no %q column", e.Column)
}

// Transform builds the output table: schema-shaped, filled from src along
// m's pairs, with Res_Date normalized and the CF Standard and Gas defaults
// applied. Pairs whose source or target column does not exist are skipped.
// The output has no rows until a pair is copied; from then on it has one
// row per source row.
func Transform(src *types.Table, schema *types.Schema, m mapping.Mapping) (*types.Table, error) {
	out := types.NewTable(schema.Columns, 0)
	for _, col := range RequiredColumns {
		if !out.Has(col) {
			return nil, &MissingColumnError{Column: col}
		}
	}

	for _, p := range m.Pairs() {
		from, to := src.Index(p.Source), out.Index(p.Target)
		if from < 0 || to < 0 {
			continue
		}
		if len(out.Rows) == 0 {
			out = types.NewTable(schema.Columns, len(src.Rows))
		}
		for i, row := range src.Rows {
			out.Rows[i][to] = row[from]
		}
	}

	if src.Has(JobDateSourceKey) {
		NormalizeDates(out, DateColumn)
	}
	FillDefault(out, StandardColumn, DefaultStandard)
	FillDefault(out, GasColumn, DefaultGas)

	return withHeader(schema.Header, out), nil
}

// withHeader stacks the template's header slice on top of the data rows.
// The header slice carries no rows, so only the column order matters.
func withHeader(header, data *types.Table) *types.Table {
	if header == nil {
		return data
	}
	rows := make([][]types.Cell, 0, len(header.Rows)+len(data.Rows))
	rows = append(rows, header.Rows...)
	rows = append(rows, data.Rows...)
	return &types.Table{Columns: data.Columns, Rows: rows}
}

// FillDefault sets every empty cell of column to value. Populated cells are
// left alone. Missing columns are ignored.
func FillDefault(t *types.Table, column string, value types.Cell) {
	idx := t.Index(column)
	if idx < 0 {
		return
	}
	for _, row := range t.Rows {
		if types.IsEmpty(row[idx]) {
			row[idx] = value
		}
	}
}

// NormalizeDates replaces every value of column with its calendar date.
// Values that cannot be read as a date become empty.
func NormalizeDates(t *types.Table, column string) {
	idx := t.Index(column)
	if idx < 0 {
		return
	}
	for _, row := range t.Rows {
		if d, ok := ParseDate(row[idx]); ok {
			row[idx] = d
		} else {
			row[idx] = nil
		}
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006",
	"1/2/2006 15:04",
	"01-02-2006",
	"02-Jan-2006",
	"02-Jan-06",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// ParseDate reads a cell as a calendar date. Numbers are taken as Excel
// date serials in the 1900 date system.
func ParseDate(c types.Cell) (types.Date, bool) {
	switch v := c.(type) {
	case types.Date:
		return v, true
	case time.Time:
		return types.NewDate(v), true
	case float64:
		t, err := excelize.ExcelDateToTime(v, false)
		if err != nil {
			return types.Date{}, false
		}
		return types.NewDate(t), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return types.Date{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return types.NewDate(t), true
			}
		}
	}
	return types.Date{}, false
}
