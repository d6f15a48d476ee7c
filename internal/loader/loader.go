// Package loader resolves a logical dataset to a default file or a user
// override and parses CSV or XLSX content into a table.Dataset.
package loader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/KaramelBytes/treedash-cli/internal/table"
)

// Request describes one load of a logical dataset.
type Request struct {
	Name        string
	DefaultPath string
	// Override, when non-nil and non-empty, replaces the default for this call.
	Override *Source
	Sheet    SheetSelector
	// SkipRows drops that many non-blank rows before the header.
	// AutoHeader detects the header instead.
	SkipRows       int
	DropDuplicates bool
}

// SheetBinding maps one workbook sheet to a logical dataset.
type SheetBinding struct {
	Name           string
	Sheet          SheetSelector
	SkipRows       int
	DropDuplicates bool
}

// Loader parses sources into datasets. A Loader is meant for single
// goroutine use.
type Loader struct {
	log       *slog.Logger
	cache     *cache
	numbers   table.NumberFormat
	delimiter rune
}

type Option func(*Loader)

// WithLogger sets the logger used for load events.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// WithCache enables the content-keyed dataset cache.
func WithCache() Option {
	return func(ld *Loader) { ld.cache = newCache() }
}

// WithNumberFormat pins decimal and thousands separators for CSV values.
func WithNumberFormat(nf table.NumberFormat) Option {
	return func(ld *Loader) { ld.numbers = nf }
}

// WithDelimiter sets the CSV field delimiter (default ',').
func WithDelimiter(r rune) Option {
	return func(ld *Loader) { ld.delimiter = r }
}

func New(opts ...Option) *Loader {
	ld := &Loader{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, o := range opts {
		o(ld)
	}
	return ld
}

// Load resolves req to exactly one source and parses it. A present override
// is never followed by a silent fallback to the default: its failure is
// returned as OverrideParseFailed. On any error the returned dataset is
// empty, never nil.
func (l *Loader) Load(req Request) (*table.Dataset, error) {
	src := Default(req.DefaultPath)
	kind := DefaultParseFailed
	if req.Override != nil && !req.Override.IsEmpty() {
		src = *req.Override
		kind = OverrideParseFailed
	}
	ro := readOptions{Sheet: req.Sheet, Delimiter: l.delimiter, Numbers: l.numbers}
	bo := buildOptions{SkipRows: req.SkipRows, DropDuplicates: req.DropDuplicates}

	ds, err := l.parse(req.Name, src, ro, bo)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			kind = UnsupportedFormat
		}
		le := &LoadError{Kind: kind, Name: req.Name, Source: src.String(), Err: err}
		l.log.Warn("load failed", "dataset", req.Name, "source", src.String(), "kind", kind.String(), "err", err)
		return table.Empty(req.Name), le
	}
	return ds, nil
}

// Sheets lists sheet names of a workbook source in workbook order.
func (l *Loader) Sheets(src Source) ([]string, error) {
	f, err := src.Format()
	if err != nil {
		return nil, err
	}
	r, err := readerFor(f)
	if err != nil {
		return nil, err
	}
	sl, ok := r.(sheetLister)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotWorkbook, src)
	}
	data, err := src.bytes()
	if err != nil {
		return nil, err
	}
	return sl.Sheets(data)
}

// LoadSheets parses several sheets of one source into logical datasets.
// Every binding gets an entry; failed bindings map to an empty dataset and
// their errors are joined.
func (l *Loader) LoadSheets(src Source, bindings []SheetBinding) (map[string]*table.Dataset, error) {
	kind := DefaultParseFailed
	if src.IsOverride() {
		kind = OverrideParseFailed
	}
	out := make(map[string]*table.Dataset, len(bindings))
	var errs []error
	for _, b := range bindings {
		ro := readOptions{Sheet: b.Sheet, Delimiter: l.delimiter, Numbers: l.numbers}
		bo := buildOptions{SkipRows: b.SkipRows, DropDuplicates: b.DropDuplicates}
		ds, err := l.parse(b.Name, src, ro, bo)
		if err != nil {
			k := kind
			if errors.Is(err, ErrUnsupportedFormat) {
				k = UnsupportedFormat
			}
			errs = append(errs, &LoadError{Kind: k, Name: b.Name, Source: src.String(), Err: err})
			ds = table.Empty(b.Name)
		}
		out[b.Name] = ds
	}
	return out, errors.Join(errs...)
}

// Stats reports cache usage. It is zero when the cache is disabled.
func (l *Loader) Stats() CacheStats {
	if l.cache == nil {
		return CacheStats{}
	}
	return CacheStats{Entries: len(l.cache.entries), Hits: l.cache.hits, Misses: l.cache.misses}
}

func (l *Loader) parse(name string, src Source, ro readOptions, bo buildOptions) (*table.Dataset, error) {
	f, err := src.Format()
	if err != nil {
		return nil, err
	}
	r, err := readerFor(f)
	if err != nil {
		return nil, err
	}
	data, err := src.bytes()
	if err != nil {
		return nil, err
	}
	if f == FormatXLSX {
		ro.Delimiter, ro.Numbers = 0, table.NumberFormat{}
	}

	if l.cache != nil {
		key := contentKey(f, data, ro, bo)
		if ds, ok := l.cache.get(key); ok {
			ds.Name = name
			l.log.Debug("dataset cache hit", "dataset", name, "source", src.String(), "key", key.String())
			return ds, nil
		}
		ds, err := l.decode(name, src, f, r, data, ro, bo)
		if err != nil {
			return nil, err
		}
		l.cache.put(key, ds)
		return ds, nil
	}
	return l.decode(name, src, f, r, data, ro, bo)
}

func (l *Loader) decode(name string, src Source, f Format, r reader, data []byte, ro readOptions, bo buildOptions) (*table.Dataset, error) {
	rows, err := r.Read(data, ro)
	if err != nil {
		return nil, err
	}
	ds, dropped, err := buildDataset(name, rows, bo)
	if err != nil {
		return nil, err
	}
	l.log.Info("dataset loaded",
		"dataset", name,
		"source", src.String(),
		"format", string(f),
		"rows", ds.NumRows(),
		"cols", ds.NumCols(),
		"duplicates_dropped", dropped,
	)
	return ds, nil
}
