package schema

import (
	"sort"
	"strings"
)

// Report records which canonical fields and views are usable for one
// normalized dataset. It is rebuilt on every load and never persisted.
type Report struct {
	Dataset string `json:"dataset"`
	// Present lists canonical fields that exist and have the expected type.
	Present []string `json:"present"`
	// Unusable maps canonical fields that exist but cannot be used to the reason.
	Unusable map[string]string `json:"unusable,omitempty"`
	// Extra lists preserved columns outside the canonical vocabulary.
	Extra []string `json:"extra,omitempty"`
	// Derived lists metrics computed by a rule.
	Derived []string `json:"derived,omitempty"`
	// Provided lists rule outputs that the source already carried.
	Provided []string `json:"provided,omitempty"`
	// Unavailable maps metrics that could not be derived to the reason.
	Unavailable map[string]string `json:"unavailable,omitempty"`
	Views       []ViewStatus      `json:"views"`

	present map[string]bool
	views   map[string][]string
}

func newReport(dataset string, views []View) *Report {
	r := &Report{
		Dataset:     dataset,
		Present:     []string{},
		Unusable:    map[string]string{},
		Unavailable: map[string]string{},
		present:     map[string]bool{},
		views:       make(map[string][]string, len(views)),
	}
	for _, v := range views {
		r.views[v.Name] = v.Requires
	}
	r.finish(views)
	return r
}

func (r *Report) markPresent(field string) {
	if !r.present[field] {
		r.present[field] = true
		r.Present = append(r.Present, field)
	}
}

// finish sorts the field lists and evaluates view availability.
func (r *Report) finish(views []View) {
	sort.Strings(r.Present)
	sort.Strings(r.Extra)
	r.Views = make([]ViewStatus, 0, len(views))
	for _, v := range views {
		miss := r.Missing(v.Name)
		r.Views = append(r.Views, ViewStatus{Name: v.Name, Available: len(miss) == 0, Missing: miss})
	}
}

// Has reports whether every name is usable. Names may be canonical fields
// or view names; a view is usable when all of its required fields are.
func (r *Report) Has(names ...string) bool {
	return len(r.Missing(names...)) == 0
}

// Missing returns the fields behind names that are absent or unusable, in
// first-seen order without repeats.
func (r *Report) Missing(names ...string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(f string) {
		if !r.present[f] && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, n := range names {
		if req, ok := r.views[n]; ok {
			for _, f := range req {
				add(f)
			}
			continue
		}
		add(n)
	}
	return out
}

// Diagnostic returns "missing columns: x, y" for names that cannot be
// served, or "" when all are usable.
func (r *Report) Diagnostic(names ...string) string {
	miss := r.Missing(names...)
	if len(miss) == 0 {
		return ""
	}
	return "missing columns: " + strings.Join(miss, ", ")
}

// IsView reports whether name is a registered view.
func (r *Report) IsView(name string) bool {
	_, ok := r.views[name]
	return ok
}

// Available returns the names of views that can be rendered.
func (r *Report) Available() []string {
	var out []string
	for _, v := range r.Views {
		if v.Available {
			out = append(out, v.Name)
		}
	}
	return out
}
