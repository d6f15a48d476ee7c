// Package schema canonicalizes loaded datasets: header normalization,
// alias rewrite, derived metrics and the capability report.
package schema

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/KaramelBytes/treedash-cli/internal/table"
)

// ErrAmbiguousColumn is wrapped by AmbiguousColumnError.
var ErrAmbiguousColumn = errors.New("ambiguous column")

// AmbiguousColumnError reports raw headers that all rename to Name.
type AmbiguousColumnError struct {
	Name string
	Raw  []string
}

func (e *AmbiguousColumnError) Error() string {
	quoted := make([]string, len(e.Raw))
	for i, r := range e.Raw {
		quoted[i] = fmt.Sprintf("%q", r)
	}
	return fmt.Sprintf("ambiguous column %s: raw headers %s", e.Name, strings.Join(quoted, ", "))
}

func (e *AmbiguousColumnError) Unwrap() error { return ErrAmbiguousColumn }

// Normalizer turns raw datasets into canonical ones. It keeps no state
// between calls.
type Normalizer struct {
	aliases AliasMap
	rules   []Rule
	views   []View
	types   map[string]FieldType
	log     *slog.Logger
}

type Option func(*Normalizer)

// WithRules replaces the derived metric rules.
func WithRules(rules ...Rule) Option {
	return func(n *Normalizer) { n.rules = rules }
}

// WithViews replaces the view definitions.
func WithViews(views ...View) Option {
	return func(n *Normalizer) { n.views = views }
}

// WithFieldType declares or overrides the expected type of a field.
func WithFieldType(name string, t FieldType) Option {
	return func(n *Normalizer) { n.types[name] = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.log = l
		}
	}
}

// New builds a normalizer over aliases with the default rules and views.
func New(aliases AliasMap, opts ...Option) *Normalizer {
	n := &Normalizer{
		aliases: aliases,
		rules:   DefaultRules(),
		views:   DefaultViews(),
		types:   make(map[string]FieldType, len(defaultFieldTypes)),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for k, v := range defaultFieldTypes {
		n.types[k] = v
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Normalize canonicalizes a copy of ds; ds itself is never modified. On a
// header collision it returns an AmbiguousColumnError together with an
// empty dataset and a report with nothing present.
func (n *Normalizer) Normalize(ds *table.Dataset) (*Canonical, *Report, error) {
	if ds == nil {
		ds = table.Empty("")
	}
	out := ds.Clone()
	rep := newReport(ds.Name, n.views)

	if err := n.rename(out); err != nil {
		n.log.Warn("normalize failed", "dataset", ds.Name, "err", err)
		return EmptyCanonical(ds.Name), rep, err
	}

	canonical := n.canonicalNames()
	for _, col := range out.Columns {
		if !canonical[col.Name] {
			rep.Extra = append(rep.Extra, col.Name)
			continue
		}
		n.check(col, rep)
	}
	for _, r := range n.rules {
		n.derive(out, r, rep)
	}
	rep.finish(n.views)

	n.log.Debug("dataset normalized",
		"dataset", ds.Name,
		"present", strings.Join(rep.Present, ","),
		"derived", strings.Join(rep.Derived, ","),
		"views", len(rep.Available()),
	)
	return newCanonical(out), rep, nil
}

// rename rewrites headers in place and fails on the first collision.
func (n *Normalizer) rename(ds *table.Dataset) error {
	names := make([]string, len(ds.Columns))
	raws := map[string][]string{}
	for i, col := range ds.Columns {
		name, ok := n.aliases.Lookup(col.Name)
		if !ok {
			name = strings.TrimSpace(col.Name)
		}
		names[i] = name
		raws[name] = append(raws[name], col.Name)
	}
	for _, name := range names {
		if len(raws[name]) > 1 {
			return &AmbiguousColumnError{Name: name, Raw: raws[name]}
		}
	}
	for i, col := range ds.Columns {
		if col.Name != names[i] {
			n.log.Debug("column renamed", "dataset", ds.Name, "from", col.Name, "to", names[i])
		}
		col.Name = names[i]
	}
	return nil
}

// canonicalNames is the typed vocabulary plus every alias target and rule
// output, so user aliases can introduce new canonical fields.
func (n *Normalizer) canonicalNames() map[string]bool {
	out := make(map[string]bool, len(n.types))
	for k := range n.types {
		out[k] = true
	}
	for _, v := range n.aliases {
		out[v] = true
	}
	for _, r := range n.rules {
		out[r.Output] = true
	}
	return out
}

func (n *Normalizer) fieldType(name string) FieldType {
	if t, ok := n.types[name]; ok {
		return t
	}
	return AnyType
}

// check validates col against its expected type, coerces numeric text to
// numbers and records the outcome on rep.
func (n *Normalizer) check(col *table.Column, rep *Report) {
	if reason := validate(col, n.fieldType(col.Name)); reason != "" {
		rep.Unusable[col.Name] = reason
		return
	}
	if n.fieldType(col.Name) == NumericType {
		for i, c := range col.Cells {
			if f, ok := c.Float(); ok {
				col.Cells[i] = table.Number(f)
			}
		}
	}
	rep.markPresent(col.Name)
}

func validate(col *table.Column, t FieldType) string {
	values := 0
	for i, c := range col.Cells {
		if c.IsMissing() {
			continue
		}
		values++
		if t == NumericType {
			if _, ok := c.Float(); !ok {
				return fmt.Sprintf("non-numeric value %q in row %d", c.String(), i+1)
			}
		}
	}
	if values == 0 {
		return "no values"
	}
	return ""
}

func (n *Normalizer) derive(ds *table.Dataset, r Rule, rep *Report) {
	if ds.Index(r.Output) >= 0 {
		if rep.present[r.Output] {
			rep.Provided = append(rep.Provided, r.Output)
		} else {
			rep.Unavailable[r.Output] = "source column unusable: " + rep.Unusable[r.Output]
		}
		return
	}
	var missing, unusable []string
	inputs := make([]*table.Column, len(r.Inputs))
	for i, in := range r.Inputs {
		col, ok := ds.Column(in)
		switch {
		case !ok:
			missing = append(missing, in)
		case !rep.present[in]:
			unusable = append(unusable, in)
		default:
			inputs[i] = col
		}
	}
	if len(missing) > 0 {
		rep.Unavailable[r.Output] = "missing columns: " + strings.Join(missing, ", ")
		return
	}
	if len(unusable) > 0 {
		rep.Unavailable[r.Output] = "non-numeric inputs: " + strings.Join(unusable, ", ")
		return
	}

	cells := make([]table.Cell, ds.NumRows())
	args := make([]float64, len(inputs))
	for row := range cells {
		cells[row] = computeRow(r, inputs, args, row)
	}
	out := &table.Column{Name: r.Output, Cells: cells}
	if err := ds.AddColumn(out); err != nil {
		rep.Unavailable[r.Output] = err.Error()
		return
	}
	rep.Derived = append(rep.Derived, r.Output)
	if reason := validate(out, NumericType); reason != "" {
		rep.Unusable[r.Output] = reason
		return
	}
	rep.markPresent(r.Output)
}

func computeRow(r Rule, inputs []*table.Column, args []float64, row int) table.Cell {
	for i, col := range inputs {
		f, ok := col.Cells[row].Float()
		if !ok {
			return table.Missing()
		}
		args[i] = f
	}
	v, ok := r.Compute(args)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return table.Missing()
	}
	return table.Number(v)
}
