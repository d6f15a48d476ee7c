package schema

import "sort"

// Canonical field names.
const (
	FieldSpecies          = "species"
	FieldGenus            = "genus"
	FieldSite             = "site"
	FieldYearPlanted      = "year_planted"
	FieldNumberPlanted    = "number_planted"
	FieldNumberAlive      = "number_alive"
	FieldSurvivalRate     = "survival_rate"
	FieldNative           = "native"
	FieldExotic           = "exotic"
	FieldNativeRatio      = "native_ratio"
	FieldNativePct        = "native_pct"
	FieldTrunkDiameter    = "trunk_diameter"
	FieldGrowthRate       = "growth_rate"
	FieldConditionGood    = "condition_good_excellent"
	FieldConditionFair    = "condition_fair_poor"
	FieldGoodConditionPct = "good_condition_pct"
	FieldLossRate         = "loss_rate"
	FieldCurrentFrequency = "current_frequency"
	FieldLatitude         = "latitude"
	FieldLongitude        = "longitude"
)

// FieldType is the type a canonical field must have to count as usable.
type FieldType int

const (
	// AnyType accepts any column with at least one non-missing value.
	AnyType FieldType = iota
	// NumericType requires every non-missing value to convert to a number.
	NumericType
)

func (t FieldType) String() string {
	if t == NumericType {
		return "numeric"
	}
	return "any"
}

// defaultFieldTypes lists the vocabulary and the type each field needs.
var defaultFieldTypes = map[string]FieldType{
	FieldSpecies:          AnyType,
	FieldGenus:            AnyType,
	FieldSite:             AnyType,
	FieldYearPlanted:      NumericType,
	FieldNumberPlanted:    NumericType,
	FieldNumberAlive:      NumericType,
	FieldSurvivalRate:     NumericType,
	FieldNative:           NumericType,
	FieldExotic:           NumericType,
	FieldNativeRatio:      NumericType,
	FieldNativePct:        NumericType,
	FieldTrunkDiameter:    NumericType,
	FieldGrowthRate:       NumericType,
	FieldConditionGood:    NumericType,
	FieldConditionFair:    NumericType,
	FieldGoodConditionPct: NumericType,
	FieldLossRate:         NumericType,
	FieldCurrentFrequency: NumericType,
	FieldLatitude:         NumericType,
	FieldLongitude:        NumericType,
}

// Vocabulary returns the canonical field names known by default.
func Vocabulary() []string {
	out := make([]string, 0, len(defaultFieldTypes))
	for name := range defaultFieldTypes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
