// Package mapping decides which source column feeds which target column.
//
// A fixed list of known fields drives the choice. Each field has a key (the
// column name freight exports usually carry) and a preset target column in
// the template schema. Depending on the Direction, the user either picks the
// target column a field is written to, or the source column a field is read
// from.
package mapping

import (
	"fmt"
	"strings"
)

// Field is one known logical field.
type Field struct {
	Key    string
	Target string
}

// KnownFields are offered for mapping, in display order.
var KnownFields = []Field{
	{Key: "Job Date", Target: "Res_Date"},
	{Key: "Consolidation Type", Target: "Facility"},
	{Key: "POL", Target: "Departure"},
	{Key: "POD", Target: "Arrival"},
	{Key: "ATA", Target: "Start Date"},
	{Key: "ATD", Target: "End Date"},
	{Key: "Weight(Tons)", Target: "Weight Ton"},
	{Key: "Weight(Kg)", Target: "Activity Unit"},
}

// FieldByKey returns the known field with the given key.
func FieldByKey(key string) (Field, bool) {
	for _, f := range KnownFields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

type Direction int

const (
	// DirectionTarget offers target columns: the field key is read from the
	// source and written to the chosen target column.
	DirectionTarget Direction = iota
	// DirectionSource offers source columns: the chosen source column is
	// written to the field's preset target column.
	DirectionSource
)

func (d Direction) String() string {
	switch d {
	case DirectionTarget:
		return "target"
	case DirectionSource:
		return "source"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection accepts "target" or "source" (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "target":
		return DirectionTarget, nil
	case "source":
		return DirectionSource, nil
	}
	return DirectionTarget, fmt.Errorf("unknown mapping direction %q (want target or source)", s)
}

// Choice is the column selected for one field.
type Choice struct {
	Field  Field
	Column string
}

// Pair copies column Source of the source table into column Target of the
// output table.
type Pair struct {
	Source string
	Target string
}

type Mapping struct {
	Direction Direction
	Choices   []Choice
}

// Pairs resolves the choices into ordered copy instructions.
func (m Mapping) Pairs() []Pair {
	pairs := make([]Pair, 0, len(m.Choices))
	for _, c := range m.Choices {
		switch m.Direction {
		case DirectionSource:
			pairs = append(pairs, Pair{Source: c.Column, Target: c.Field.Target})
		default:
			pairs = append(pairs, Pair{Source: c.Field.Key, Target: c.Column})
		}
	}
	return pairs
}

// Selections returns the choices keyed by field key, the shape UI layers
// keep between requests.
func (m Mapping) Selections() map[string]string {
	out := make(map[string]string, len(m.Choices))
	for _, c := range m.Choices {
		out[c.Field.Key] = c.Column
	}
	return out
}

// Options returns the columns offered for a field under direction d.
func Options(d Direction, sourceColumns, targetColumns []string) []string {
	if d == DirectionSource {
		return sourceColumns
	}
	return targetColumns
}

// DefaultChoice returns the preselected column for f among offered: the
// field's preset column when offered, else the first offered column, else "".
func DefaultChoice(d Direction, f Field, offered []string) string {
	preset := f.Target
	if d == DirectionSource {
		preset = f.Key
	}
	if contains(offered, preset) {
		return preset
	}
	if len(offered) > 0 {
		return offered[0]
	}
	return ""
}

// Build chooses a column for every known field. A prior selection wins when
// it is among the offered columns; anything else falls back to the default.
// Build never fails: an empty offer yields an empty choice, which Transform
// skips.
func Build(d Direction, sourceColumns, targetColumns []string, prior map[string]string) Mapping {
	offered := Options(d, sourceColumns, targetColumns)

	m := Mapping{Direction: d, Choices: make([]Choice, 0, len(KnownFields))}
	for _, f := range KnownFields {
		col := DefaultChoice(d, f, offered)
		if sel, ok := prior[f.Key]; ok && contains(offered, sel) {
			col = sel
		}
		m.Choices = append(m.Choices, Choice{Field: f, Column: col})
	}
	return m
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
