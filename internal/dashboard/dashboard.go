// Package dashboard runs one load-and-normalize pass per dataset and hands
// each section either its canonical data or the reason it cannot render.
package dashboard

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/KaramelBytes/treedash-cli/internal/loader"
	"github.com/KaramelBytes/treedash-cli/internal/schema"
	"github.com/KaramelBytes/treedash-cli/internal/table"
)

// Pass is the result of loading and normalizing one dataset. Canonical and
// Report are never nil, whatever failed.
type Pass struct {
	Name         string
	Raw          *table.Dataset
	Canonical    *schema.Canonical
	Report       *schema.Report
	LoadErr      error
	NormalizeErr error
}

// Err joins the load and normalize errors.
func (p *Pass) Err() error { return errors.Join(p.LoadErr, p.NormalizeErr) }

// OK reports whether the pass finished without errors.
func (p *Pass) OK() bool { return p.LoadErr == nil && p.NormalizeErr == nil }

// Section returns the canonical dataset when view can be rendered. Otherwise
// it returns nil and a user-facing diagnostic naming the missing columns.
func (p *Pass) Section(view string) (*schema.Canonical, string) {
	if !p.Report.IsView(view) {
		return nil, "unknown view: " + view
	}
	if msg := p.Report.Diagnostic(view); msg != "" {
		return nil, msg
	}
	return p.Canonical, ""
}

// Runner wires a Loader to a Normalizer.
type Runner struct {
	loader     *loader.Loader
	normalizer *schema.Normalizer
	log        *slog.Logger
}

func New(ld *loader.Loader, n *schema.Normalizer, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{loader: ld, normalizer: n, log: log}
}

// Run loads and normalizes req. A failed load still normalizes the empty
// dataset so the report lists every view as unavailable.
func (r *Runner) Run(req loader.Request) *Pass {
	raw, err := r.loader.Load(req)
	return r.finish(req.Name, raw, err)
}

// RunWorkbook loads several sheets of one workbook and normalizes each.
// Every binding gets a pass; a sheet that fails to load only fails its own.
func (r *Runner) RunWorkbook(src loader.Source, bindings []loader.SheetBinding) map[string]*Pass {
	sets, err := r.loader.LoadSheets(src, bindings)
	errs := map[string]error{}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			var le *loader.LoadError
			if errors.As(e, &le) {
				errs[le.Name] = e
			}
		}
	}
	out := make(map[string]*Pass, len(bindings))
	for _, b := range bindings {
		out[b.Name] = r.finish(b.Name, sets[b.Name], errs[b.Name])
	}
	return out
}

func (r *Runner) finish(name string, raw *table.Dataset, loadErr error) *Pass {
	if raw == nil {
		raw = table.Empty(name)
	}
	p := &Pass{Name: name, Raw: raw, LoadErr: loadErr}
	p.Canonical, p.Report, p.NormalizeErr = r.normalizer.Normalize(p.Raw)
	if p.Raw.Name == "" {
		p.Raw.Name = name
	}
	r.log.Debug("dashboard pass",
		"dataset", name,
		"rows", p.Canonical.NumRows(),
		"views", len(p.Report.Available()),
		"ok", p.OK(),
	)
	return p
}

// RunAll runs every request and returns passes keyed by name. Requests
// that bind sheets of the same workbook, with no override, go through one
// RunWorkbook call.
func (r *Runner) RunAll(reqs []loader.Request) map[string]*Pass {
	shared := map[string][]loader.Request{}
	for _, req := range reqs {
		if key := workbookKey(req); key != "" {
			shared[key] = append(shared[key], req)
		}
	}
	out := make(map[string]*Pass, len(reqs))
	for _, req := range reqs {
		if _, done := out[req.Name]; done {
			continue
		}
		group := shared[workbookKey(req)]
		if len(group) < 2 {
			out[req.Name] = r.Run(req)
			continue
		}
		bindings := make([]loader.SheetBinding, len(group))
		for i, g := range group {
			bindings[i] = loader.SheetBinding{Name: g.Name, Sheet: g.Sheet, SkipRows: g.SkipRows, DropDuplicates: g.DropDuplicates}
		}
		r.log.Debug("shared workbook", "path", req.DefaultPath, "datasets", len(group))
		for name, p := range r.RunWorkbook(loader.Default(req.DefaultPath), bindings) {
			out[name] = p
		}
	}
	return out
}

// workbookKey is the cleaned default path of an XLSX request without an
// override, or "" otherwise.
func workbookKey(req loader.Request) string {
	if req.Override != nil && !req.Override.IsEmpty() {
		return ""
	}
	if f, err := loader.FormatFromName(req.DefaultPath); err != nil || f != loader.FormatXLSX {
		return ""
	}
	return filepath.Clean(req.DefaultPath)
}

// Summary is the overview line for one dataset.
type Summary struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Views int    `json:"views"`
	Error string `json:"error,omitempty"`
}

// Overview counts rows and available views per dataset, sorted by name.
func Overview(passes map[string]*Pass) []Summary {
	out := make([]Summary, 0, len(passes))
	for name, p := range passes {
		s := Summary{
			Name:  name,
			Rows:  p.Canonical.NumRows(),
			Cols:  p.Canonical.NumCols(),
			Views: len(p.Report.Available()),
		}
		if err := p.Err(); err != nil {
			s.Error = err.Error()
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
