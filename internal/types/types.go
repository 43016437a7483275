package types

import (
	"fmt"
	"strconv"
	"time"
)

// Cell holds one spreadsheet value: nil, string, float64, bool, time.Time or Date.
type Cell = any

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// NewDate truncates t to midnight UTC of its calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// IsEmpty reports whether a cell counts as missing. Only nil does; blank
// and whitespace-only strings are values.
func IsEmpty(c Cell) bool {
	return c == nil
}

// FormatCell renders a cell for display. Missing cells render as "".
func FormatCell(c Cell) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case Date:
		return v.String()
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprint(c)
}

type Table struct {
	Columns []string
	Rows    [][]Cell
}

// NewTable returns a table with the given columns and n empty rows.
func NewTable(columns []string, n int) *Table {
	t := &Table{
		Columns: append([]string(nil), columns...),
		Rows:    make([][]Cell, n),
	}
	for i := range t.Rows {
		t.Rows[i] = make([]Cell, len(columns))
	}
	return t
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Column returns a copy of the named column's values, or nil if absent.
func (t *Table) Column(name string) []Cell {
	idx := t.Index(name)
	if idx < 0 {
		return nil
	}
	out := make([]Cell, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out
}

// Head returns a table sharing t's columns and its first n rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	if n < 0 {
		n = 0
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Strings renders every row with FormatCell.
func (t *Table) Strings() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = make([]string, len(row))
		for j, c := range row {
			out[i][j] = FormatCell(c)
		}
	}
	return out
}

// Schema is the target layout read from the template sheet.
type Schema struct {
	Sheet   string
	Columns []string
	// Header is the zero-row slice of the template sheet.
	Header *Table
}

type ConversionResult struct {
	InputFile     string
	OutputFile    string
	ColumnsMapped []string
	RowsProcessed int
}
