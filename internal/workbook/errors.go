package workbook

import "fmt"

// UnreadableFileError reports an upload that is not a parseable spreadsheet.
type UnreadableFileError struct {
	Name string
	Err  error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("unreadable spreadsheet %q: %v", e.Name, e.Err)
}

func (e *UnreadableFileError) Unwrap() error { return e.Err }

// SchemaNotFoundError reports a template that is missing, unreadable or
// lacks the schema sheet. It is a packaging defect, not a user error.
type SchemaNotFoundError struct {
	Path  string
	Sheet string
	Err   error
}

func (e *SchemaNotFoundError) Error() string {
	path := e.Path
	if path == "" {
		path = "<embedded>"
	}
	if e.Err != nil {
		return fmt.Sprintf("template %s: sheet %q not available: %v", path, e.Sheet, e.Err)
	}
	return fmt.Sprintf("template %s: sheet %q not found", path, e.Sheet)
}

func (e *SchemaNotFoundError) Unwrap() error { return e.Err }
