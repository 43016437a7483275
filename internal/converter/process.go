package converter

import (
	"context"
	"io"

	"github.com/nconklindev/freightmap/internal/mapping"
	"github.com/nconklindev/freightmap/internal/types"
	"github.com/nconklindev/freightmap/internal/workbook"

	"github.com/sirupsen/logrus"
)

// Processor runs the load, map, transform and serialize pipeline against
// one template.
type Processor struct {
	TemplatePath string
	Direction    mapping.Direction
	Schemas      *workbook.SchemaCache
	Logger       logrus.FieldLogger
}

func NewProcessor(templatePath string, dir mapping.Direction, logger logrus.FieldLogger) *Processor {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Processor{
		TemplatePath: templatePath,
		Direction:    dir,
		Schemas:      workbook.NewSchemaCache(),
		Logger:       logger,
	}
}

// Schema returns the target schema of the configured template.
func (p *Processor) Schema() (*types.Schema, error) {
	return p.Schemas.Get(p.TemplatePath)
}

type Request struct {
	// Name is the uploaded file name; its extension selects the reader.
	Name   string
	Source io.ReaderAt
	Size   int64
	// Selections are the user's per-field column choices.
	Selections map[string]string
	// Progress, when set, receives values in [0, 1]. Sends never block.
	Progress chan<- float64
}

type Output struct {
	Table   *types.Table
	Mapping mapping.Mapping
	Data    []byte
	Result  *types.ConversionResult
}

// Process runs the whole pipeline for one upload.
func (p *Processor) Process(ctx context.Context, req Request) (*Output, error) {
	log := p.Logger.WithField("file", req.Name)
	report := func(v float64) {
		if req.Progress == nil {
			return
		}
		select {
		case req.Progress <- v:
		default:
		}
	}

	report(0)
	src, err := workbook.LoadSource(req.Source, req.Size, req.Name)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"columns": len(src.Columns), "rows": len(src.Rows)}).Debug("source loaded")
	report(0.25)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	schema, err := p.Schema()
	if err != nil {
		return nil, err
	}
	m := mapping.Build(p.Direction, src.Columns, schema.Columns, req.Selections)

	table, err := Transform(src, schema, m)
	if err != nil {
		return nil, err
	}
	report(0.6)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := workbook.Serialize(table)
	if err != nil {
		return nil, err
	}
	report(1)

	mapped := MappedColumns(src, table, m)
	log.WithFields(logrus.Fields{
		"direction": m.Direction.String(),
		"mapped":    len(mapped),
		"rows":      len(table.Rows),
	}).Info("workbook processed")

	return &Output{
		Table:   table,
		Mapping: m,
		Data:    data,
		Result: &types.ConversionResult{
			InputFile:     req.Name,
			ColumnsMapped: mapped,
			RowsProcessed: len(table.Rows),
		},
	}, nil
}

// MappedColumns lists the output columns that m actually filled from src.
func MappedColumns(src, out *types.Table, m mapping.Mapping) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, p := range m.Pairs() {
		if !src.Has(p.Source) || !out.Has(p.Target) || seen[p.Target] {
			continue
		}
		seen[p.Target] = true
		cols = append(cols, p.Target)
	}
	return cols
}
