package mapping

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ParseAssignments reads "Field Key=Column" pairs, as given on the command
// line, into selections. Keys must be known fields.
func ParseAssignments(assignments []string) (map[string]string, error) {
	sel := make(map[string]string, len(assignments))
	for _, a := range assignments {
		key, col, ok := strings.Cut(a, "=")
		if !ok {
			return nil, errors.Errorf("invalid mapping %q, want \"Field=Column\"", a)
		}
		key = strings.TrimSpace(key)
		if _, known := FieldByKey(key); !known {
			return nil, errors.Errorf("unknown field %q in mapping %q", key, a)
		}
		sel[key] = strings.TrimSpace(col)
	}
	return sel, nil
}

// ReadSelections decodes a YAML document mapping field keys to columns:
//
//	Job Date: Res_Date
//	POL: Departure
func ReadSelections(r io.Reader) (map[string]string, error) {
	sel := map[string]string{}
	if err := yaml.NewDecoder(r).Decode(&sel); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding mapping")
	}
	for key := range sel {
		if _, known := FieldByKey(key); !known {
			return nil, errors.Errorf("unknown field %q in mapping", key)
		}
	}
	return sel, nil
}

func ReadSelectionsFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening mapping file")
	}
	defer f.Close()
	return ReadSelections(f)
}

// Unused returns the selections that Build could not honor because the
// column was not offered, keyed by field.
func Unused(m Mapping, prior map[string]string) map[string]string {
	chosen := m.Selections()
	out := make(map[string]string)
	for key, col := range prior {
		if chosen[key] != col {
			out[key] = col
		}
	}
	return out
}
