package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat indicates a source that is neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrSheetNotFound indicates a sheet selector that matches nothing.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrNoHeader indicates a source without a usable header row.
	ErrNoHeader = errors.New("no header row")
	// ErrNotWorkbook is returned when sheets are requested from a CSV source.
	ErrNotWorkbook = errors.New("source is not a workbook")
)

// ErrorKind classifies a LoadError.
type ErrorKind int

const (
	DefaultParseFailed ErrorKind = iota + 1
	OverrideParseFailed
	UnsupportedFormat
)

func (k ErrorKind) String() string {
	switch k {
	case DefaultParseFailed:
		return "default parse failed"
	case OverrideParseFailed:
		return "override parse failed"
	case UnsupportedFormat:
		return "unsupported format"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// LoadError reports why a dataset could not be produced. The underlying
// cause is always attached.
type LoadError struct {
	Kind   ErrorKind
	Name   string
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s (%s): %s: %v", e.Name, e.Source, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// KindOf extracts the LoadError kind from err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return 0, false
}
