package recipients

import "fmt"

// LoadError wraps any failure reading the input workbook, including a
// missing required column. It is fatal to the run: the batch never starts
// on a sheet that cannot be fully understood.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ExportError wraps an I/O failure writing the output workbook.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
