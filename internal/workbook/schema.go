package workbook

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/nconklindev/freightmap/assets"
	"github.com/nconklindev/freightmap/internal/types"

	"github.com/xuri/excelize/v2"
)

// TemplateSheet is the template sheet that defines the target schema.
const TemplateSheet = "Import data file_Manufacturing"

// LoadTargetSchema reads the template workbook at path and returns the
// column layout of TemplateSheet. An empty path loads the embedded template.
func LoadTargetSchema(path string) (*types.Schema, error) {
	var r io.Reader
	if path == "" {
		r = bytes.NewReader(assets.Template)
	} else {
		file, openErr := os.Open(path)
		if openErr != nil {
			return nil, &SchemaNotFoundError{Path: path, Sheet: TemplateSheet, Err: openErr}
		}
		defer file.Close()
		r = file
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &SchemaNotFoundError{Path: path, Sheet: TemplateSheet, Err: err}
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(TemplateSheet); err != nil || idx < 0 {
		return nil, &SchemaNotFoundError{Path: path, Sheet: TemplateSheet, Err: err}
	}

	rows, err := readSheetCells(f, TemplateSheet)
	if err != nil {
		return nil, &SchemaNotFoundError{Path: path, Sheet: TemplateSheet, Err: err}
	}
	if len(rows) == 0 {
		// A sheet without a header row has no columns.
		rows = [][]types.Cell{{}}
	}

	// Only the header matters; data rows in the template are dropped.
	header := tableFromRows(rows[:1])
	return &types.Schema{
		Sheet:   TemplateSheet,
		Columns: header.Columns,
		Header:  header,
	}, nil
}

// SchemaCache loads each template path once for the process lifetime.
type SchemaCache struct {
	mu      sync.Mutex
	schemas map[string]*types.Schema
}

func NewSchemaCache() *SchemaCache {
	return &SchemaCache{schemas: make(map[string]*types.Schema)}
}

// Get returns the cached schema for path, loading it on first use.
// Failed loads are not cached.
func (c *SchemaCache) Get(path string) (*types.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.schemas[path]; ok {
		return s, nil
	}
	s, err := LoadTargetSchema(path)
	if err != nil {
		return nil, err
	}
	c.schemas[path] = s
	return s, nil
}
