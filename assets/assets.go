// Package assets holds files bundled into the binary.
package assets

import _ "embed"

// Template is the default target template workbook.
//
//go:embed Freight-Sample_scope3.xlsx
var Template []byte
