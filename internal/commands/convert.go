package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/freightmap/internal/converter"
	"github.com/nconklindev/freightmap/internal/mapping"
	"github.com/nconklindev/freightmap/internal/workbook"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type convertOptions struct {
	input       string
	output      string
	assignments []string
	mappingFile string
}

func newConvertCmd(a *app) *cobra.Command {
	o := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Map a workbook without the interactive UI",
		Example: `  freightmap convert -i shipments.xlsx
  freightmap convert -i shipments.xls -o out.xlsx --map "Weight(Kg)=Weight Ton"
  freightmap convert -i shipments.xlsx --mapping mapping.yaml --direction source`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.Context(), a, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.input, "input", "i", "", "client workbook (.xls, .xlsx or .csv)")
	f.StringVarP(&o.output, "output", "o", "", "output file (default: processed_data.xlsx next to the input)")
	f.StringArrayVar(&o.assignments, "map", nil, `override one field, "Field=Column" (repeatable)`)
	f.StringVar(&o.mappingFile, "mapping", "", "YAML file of field: column overrides")
	cmd.MarkFlagRequired("input")
	return cmd
}

func (o *convertOptions) selections() (map[string]string, error) {
	sel := map[string]string{}
	if o.mappingFile != "" {
		fromFile, err := mapping.ReadSelectionsFile(o.mappingFile)
		if err != nil {
			return nil, err
		}
		for k, v := range fromFile {
			sel[k] = v
		}
	}
	// Flags win over the file.
	fromFlags, err := mapping.ParseAssignments(o.assignments)
	if err != nil {
		return nil, err
	}
	for k, v := range fromFlags {
		sel[k] = v
	}
	return sel, nil
}

func (o *convertOptions) run(ctx context.Context, a *app, cmd *cobra.Command) error {
	sel, err := o.selections()
	if err != nil {
		return err
	}

	output := o.output
	if output == "" {
		output = filepath.Join(filepath.Dir(o.input), workbook.OutputFileName)
	}

	f, err := os.Open(o.input)
	if err != nil {
		return &workbook.UnreadableFileError{Name: filepath.Base(o.input), Err: err}
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "stat input")
	}

	out, err := a.processor().Process(ctx, converter.Request{
		Name:       filepath.Base(o.input),
		Source:     f,
		Size:       info.Size(),
		Selections: sel,
	})
	if err != nil {
		return err
	}

	for key, col := range mapping.Unused(out.Mapping, sel) {
		a.logger.WithFields(logrus.Fields{"field": key, "column": col}).
			Warn("column not offered for this field, default used")
	}

	if err := os.WriteFile(output, out.Data, 0o644); err != nil {
		return errors.Wrap(err, "writing output")
	}

	mapped := "none"
	if len(out.Result.ColumnsMapped) > 0 {
		mapped = strings.Join(out.Result.ColumnsMapped, ", ")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Output: %s\nColumns mapped: %s\nRows written: %d\n",
		output, mapped, out.Result.RowsProcessed)
	return nil
}
