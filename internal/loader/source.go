package loader

import (
	"fmt"
	"os"
	"path/filepath"
)

type sourceKind uint8

const (
	kindDefault sourceKind = iota
	kindOverride
)

// Source is either the bundled default file or a user supplied override.
// Build one with Default, Override or OverrideFile.
type Source struct {
	kind   sourceKind
	path   string
	name   string
	data   []byte
	format Format
}

// Default points at an on-disk file; its format is inferred from the extension.
func Default(path string) Source {
	return Source{kind: kindDefault, path: path, name: filepath.Base(path)}
}

// Override wraps uploaded bytes. An empty format is inferred from name.
func Override(name string, data []byte, format Format) Source {
	return Source{kind: kindOverride, name: name, data: data, format: format}
}

// OverrideFile reads path into an override source.
func OverrideFile(path string) (Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("read override: %w", err)
	}
	return Override(filepath.Base(path), b, ""), nil
}

func (s Source) IsOverride() bool { return s.kind == kindOverride }

// IsEmpty reports whether an override carries no bytes. Such an override is
// treated as absent. A default source is never empty.
func (s Source) IsEmpty() bool { return s.kind == kindOverride && len(s.data) == 0 }

// Format returns the declared or inferred format.
func (s Source) Format() (Format, error) {
	if s.format != "" {
		return ParseFormat(string(s.format))
	}
	if s.kind == kindDefault {
		return FormatFromName(s.path)
	}
	return FormatFromName(s.name)
}

func (s Source) String() string {
	if s.kind == kindOverride {
		return "override:" + s.name
	}
	return s.path
}

func (s Source) bytes() ([]byte, error) {
	if s.kind == kindOverride {
		return s.data, nil
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read default: %w", err)
	}
	return b, nil
}
