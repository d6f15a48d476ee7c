package table

import (
	"math"
	"strconv"
	"strings"
)

// NumberFormat pins the decimal and thousands separators used when parsing
// numeric text. The zero value auto-detects per value.
type NumberFormat struct {
	Decimal   rune
	Thousands rune
}

// ParseNumber converts numeric text to a float. A trailing percent sign is
// ignored, locale separators are honoured and NaN/Inf are rejected.
func ParseNumber(s string, nf NumberFormat) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	if raw == "" {
		return 0, false
	}
	dec, thou := nf.separators(raw)
	if thou != 0 && thou != dec {
		parts := strings.Split(raw, string(thou))
		if len(parts) > 1 {
			if !validGroups(parts, dec) {
				return 0, false
			}
			raw = strings.Join(parts, "")
		}
	}
	if dec != '.' {
		if strings.Contains(raw, ".") {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, finite(f)
}

func (nf NumberFormat) separators(raw string) (dec, thou rune) {
	if nf.Decimal != 0 {
		return nf.Decimal, nf.Thousands
	}
	if nf.Thousands != 0 {
		if nf.Thousands == ',' {
			return '.', ','
		}
		return ',', nf.Thousands
	}
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			return ',', '.'
		}
		return '.', ','
	case cpos >= 0:
		if strings.Count(raw, ",") > 1 || grouped(raw, ',') {
			return '.', ','
		}
		return ',', 0
	case dpos >= 0 && strings.Count(raw, ".") > 1:
		return ',', '.'
	case strings.Contains(raw, " "):
		return '.', ' '
	}
	return '.', 0
}

// grouped reports whether sep splits raw into thousands groups ("1,000", "12,345").
// A leading zero group ("0,500") reads as a decimal instead.
func grouped(raw string, sep rune) bool {
	parts := strings.Split(raw, string(sep))
	if len(parts) < 2 {
		return false
	}
	head := strings.TrimLeft(parts[0], "+-")
	if head == "0" {
		return false
	}
	return validGroups(parts, 0)
}

func validGroups(parts []string, dec rune) bool {
	for i, p := range parts {
		if i == len(parts)-1 && dec != 0 {
			if idx := strings.IndexRune(p, dec); idx >= 0 {
				p = p[:idx]
			}
		}
		if i == 0 {
			p = strings.TrimLeft(p, "+-")
			if len(p) == 0 || len(p) > 3 || !allDigits(p) {
				return false
			}
			continue
		}
		if len(p) != 3 || !allDigits(p) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
