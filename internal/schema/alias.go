package schema

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// ErrAliasConflict is returned when one raw spelling is bound to two
// canonical names.
var ErrAliasConflict = errors.New("alias conflict")

// NormalizeHeader folds a raw header to its lookup key: trimmed, lower
// case, "%" spelled as "pct" and every run of punctuation or whitespace
// collapsed to a single space. "No. live trees" and "No live trees" share
// the key "no live trees".
func NormalizeHeader(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "%", " pct ")
	var b strings.Builder
	gap := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if gap && b.Len() > 0 {
				b.WriteByte(' ')
			}
			gap = false
			b.WriteRune(r)
			continue
		}
		gap = true
	}
	return b.String()
}

// AliasMap maps normalized raw headers to canonical field names. It is
// many-to-one, and every canonical name is also its own alias.
type AliasMap map[string]string

// NewAliasMap builds a map from canonical name -> raw spellings.
func NewAliasMap(groups map[string][]string) (AliasMap, error) {
	m := AliasMap{}
	// sorted for a deterministic conflict message
	names := make([]string, 0, len(groups))
	for c := range groups {
		names = append(names, c)
	}
	sort.Strings(names)
	for _, canonical := range names {
		if err := m.add(canonical, groups[canonical]...); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m AliasMap) add(canonical string, raws ...string) error {
	canonical = strings.TrimSpace(canonical)
	for _, raw := range append([]string{canonical}, raws...) {
		key := NormalizeHeader(raw)
		if key == "" {
			continue
		}
		if prev, ok := m[key]; ok && prev != canonical {
			return fmt.Errorf("%w: %q maps to both %s and %s", ErrAliasConflict, raw, prev, canonical)
		}
		m[key] = canonical
	}
	return nil
}

// With returns a copy of m extended with more spellings for canonical.
func (m AliasMap) With(canonical string, raws ...string) (AliasMap, error) {
	out := m.clone()
	if err := out.add(canonical, raws...); err != nil {
		return nil, err
	}
	return out, nil
}

// Merge returns a copy of m where entries of other take precedence.
func (m AliasMap) Merge(other AliasMap) AliasMap {
	out := m.clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Lookup returns the canonical name for a raw header.
func (m AliasMap) Lookup(raw string) (string, bool) {
	c, ok := m[NormalizeHeader(raw)]
	return c, ok
}

func (m AliasMap) clone() AliasMap {
	out := make(AliasMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var defaultAliasGroups = map[string][]string{
	FieldSpecies:          {"Species", "Species name", "Common name", "Botanical name", "Scientific name"},
	FieldGenus:            {"Genus"},
	FieldSite:             {"Site", "Site code", "Site name", "Site ID"},
	FieldYearPlanted:      {"Year Planted", "Yr planted", "Planting year", "Year notes began"},
	FieldNumberPlanted:    {"Number planted", "No trees planted", "No. trees planted", "Trees planted"},
	FieldNumberAlive:      {"Number alive", "No. live trees", "Live trees", "No. alive"},
	FieldSurvivalRate:     {"Survival Rate (%)", "Survival %", "Survival rate"},
	FieldNative:           {"Native", "No. native"},
	FieldExotic:           {"Exotic", "No. exotic"},
	FieldNativeRatio:      {"Native ratio"},
	FieldNativePct:        {"Native (%)", "Native %"},
	FieldTrunkDiameter:    {"Trk diam (in.)", "Trunk diameter", "DBH"},
	FieldGrowthRate:       {"Growth rate (in./y)", "Growth rate"},
	FieldConditionGood:    {"No. Exc, Good", "No. Exc/Good", "Excellent/Good"},
	FieldConditionFair:    {"No. Fair, Poor", "No. Fair/Poor", "Fair/Poor"},
	FieldGoodConditionPct: {"Good/Exc (%)", "Good/Exc %"},
	FieldLossRate:         {"Loss (%)", "Loss %", "Loss rate"},
	FieldCurrentFrequency: {"Current freq (%)", "Current frequency"},
	FieldLatitude:         {"Latitude", "Lat"},
	FieldLongitude:        {"Longitude", "Lon", "Lng", "Long"},
}

// DefaultAliases returns the built-in alias map for the tree survival
// workbooks. "Location" is intentionally not an alias of site: inventory
// sheets carry both columns.
func DefaultAliases() AliasMap {
	m, err := NewAliasMap(defaultAliasGroups)
	if err != nil {
		panic(err)
	}
	return m
}

// LoadAliasFile reads a YAML document of canonical -> raw spellings.
//
//	site: [Site code, Planting site]
//	number_alive: [No. live trees]
func LoadAliasFile(path string) (AliasMap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	groups := map[string][]string{}
	if err := yaml.Unmarshal(b, &groups); err != nil {
		return nil, fmt.Errorf("parse alias file: %w", err)
	}
	return NewAliasMap(groups)
}
