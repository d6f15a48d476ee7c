package schema

// Rule derives one numeric column from other canonical columns, row by
// row. Compute receives the inputs in Inputs order and reports false when
// the row has no defined value (zero denominator, for instance).
type Rule struct {
	Output  string
	Inputs  []string
	Compute func(in []float64) (float64, bool)
}

// DefaultRules returns the built-in derived metrics in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Output: FieldSurvivalRate,
			Inputs: []string{FieldNumberAlive, FieldNumberPlanted},
			Compute: func(in []float64) (float64, bool) {
				return percentOf(in[0], in[1])
			},
		},
		{
			Output: FieldNativeRatio,
			Inputs: []string{FieldNative, FieldExotic},
			Compute: func(in []float64) (float64, bool) {
				if in[1] == 0 {
					return 0, false
				}
				return in[0] / in[1], true
			},
		},
		{
			Output: FieldNativePct,
			Inputs: []string{FieldNative, FieldExotic},
			Compute: func(in []float64) (float64, bool) {
				return percentOf(in[0], in[0]+in[1])
			},
		},
		{
			Output: FieldGoodConditionPct,
			Inputs: []string{FieldConditionGood, FieldConditionFair},
			Compute: func(in []float64) (float64, bool) {
				return percentOf(in[0], in[0]+in[1])
			},
		},
	}
}

func percentOf(part, whole float64) (float64, bool) {
	if whole == 0 {
		return 0, false
	}
	return 100 * part / whole, true
}
