package mapping

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var targetColumns = []string{
	"Res_Date", "Facility", "Departure", "Arrival", "Start Date",
	"End Date", "Activity Unit", "Weight Ton", "CF Standard", "Gas",
}

func TestBuild_TargetDefaults(t *testing.T) {
	m := Build(DirectionTarget, []string{"Job Date", "POL"}, targetColumns, nil)

	require.Len(t, m.Choices, len(KnownFields))
	for i, c := range m.Choices {
		assert.Equal(t, KnownFields[i], c.Field)
		assert.Equal(t, KnownFields[i].Target, c.Column)
	}

	assert.Equal(t, []Pair{
		{"Job Date", "Res_Date"},
		{"Consolidation Type", "Facility"},
		{"POL", "Departure"},
		{"POD", "Arrival"},
		{"ATA", "Start Date"},
		{"ATD", "End Date"},
		{"Weight(Tons)", "Weight Ton"},
		{"Weight(Kg)", "Activity Unit"},
	}, m.Pairs())
}

func TestBuild_FallsBackToFirstOffered(t *testing.T) {
	m := Build(DirectionTarget, nil, []string{"Gas", "Res_Date"}, nil)

	sel := m.Selections()
	assert.Equal(t, "Res_Date", sel["Job Date"])
	assert.Equal(t, "Gas", sel["POL"])
	assert.Equal(t, "Gas", sel["Weight(Kg)"])
}

func TestBuild_PriorSelections(t *testing.T) {
	prior := map[string]string{
		"POL":        "Arrival",
		"POD":        "Not A Column",
		"Unknown":    "Gas",
		"Weight(Kg)": "Weight Ton",
	}

	sel := Build(DirectionTarget, nil, targetColumns, prior).Selections()

	assert.Equal(t, "Arrival", sel["POL"])
	assert.Equal(t, "Arrival", sel["POD"], "selection not offered falls back to the default")
	assert.Equal(t, "Weight Ton", sel["Weight(Kg)"])
	assert.NotContains(t, sel, "Unknown")
}

func TestBuild_NothingOffered(t *testing.T) {
	m := Build(DirectionSource, nil, targetColumns, nil)

	for _, c := range m.Choices {
		assert.Empty(t, c.Column)
	}
	for _, p := range m.Pairs() {
		assert.Empty(t, p.Source)
	}
}

func TestBuild_SourceDirection(t *testing.T) {
	source := []string{"Shipment", "POL", "Job Date", "Port of Discharge"}

	m := Build(DirectionSource, source, targetColumns, map[string]string{"POD": "Port of Discharge"})
	sel := m.Selections()

	assert.Equal(t, "Job Date", sel["Job Date"])
	assert.Equal(t, "POL", sel["POL"])
	assert.Equal(t, "Port of Discharge", sel["POD"])
	assert.Equal(t, "Shipment", sel["ATA"], "missing key column falls back to the first source column")

	pairs := m.Pairs()
	assert.Contains(t, pairs, Pair{Source: "Port of Discharge", Target: "Arrival"})
	assert.Contains(t, pairs, Pair{Source: "Job Date", Target: "Res_Date"})
	assert.Contains(t, pairs, Pair{Source: "Shipment", Target: "Start Date"})
}

func TestOptions(t *testing.T) {
	source := []string{"A"}
	assert.Equal(t, targetColumns, Options(DirectionTarget, source, targetColumns))
	assert.Equal(t, source, Options(DirectionSource, source, targetColumns))
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input    string
		expected Direction
		wantErr  bool
	}{
		{"", DirectionTarget, false},
		{"target", DirectionTarget, false},
		{"SOURCE", DirectionSource, false},
		{" source ", DirectionSource, false},
		{"sideways", DirectionTarget, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDirection(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseAssignments(t *testing.T) {
	sel, err := ParseAssignments([]string{"Job Date=Res_Date", " POL = Departure "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Job Date": "Res_Date", "POL": "Departure"}, sel)

	_, err = ParseAssignments([]string{"POL"})
	assert.Error(t, err)

	_, err = ParseAssignments([]string{"Vessel=Facility"})
	assert.Error(t, err)
}

func TestReadSelections(t *testing.T) {
	sel, err := ReadSelections(strings.NewReader("Job Date: Res_Date\nWeight(Kg): Weight Ton\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Job Date": "Res_Date", "Weight(Kg)": "Weight Ton"}, sel)

	sel, err = ReadSelections(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, sel)

	_, err = ReadSelections(strings.NewReader("Vessel: Facility\n"))
	assert.Error(t, err)

	_, err = ReadSelections(strings.NewReader("- not\n- a map\n"))
	assert.Error(t, err)
}

func TestUnused(t *testing.T) {
	prior := map[string]string{"POL": "Departure", "POD": "Nowhere"}
	m := Build(DirectionTarget, nil, targetColumns, prior)

	assert.Equal(t, map[string]string{"POD": "Nowhere"}, Unused(m, prior))
}
