package schema

// View is a dashboard section and the canonical fields it cannot render
// without.
type View struct {
	Name     string
	Requires []string
}

// Dashboard sections known by default.
const (
	ViewSurvivalBySite      = "survival_rate_by_site"
	ViewSurvivalByYear      = "survival_rate_by_year"
	ViewSurvivalBySpecies   = "survival_rate_by_species"
	ViewSurvivalHeatmap     = "survival_heatmap"
	ViewSpeciesCounts       = "species_counts"
	ViewSiteCounts          = "site_counts"
	ViewYearCounts          = "year_counts"
	ViewNativeVsSurvival    = "native_pct_vs_survival"
	ViewConditionVsSurvival = "good_condition_vs_survival"
	ViewGrowthVsSurvival    = "growth_rate_vs_survival"
	ViewTrunkDiameterByYear = "trunk_diameter_by_year"
	ViewGrowthRateByYear    = "growth_rate_by_year"
	ViewGenusFrequency      = "genus_frequency"
	ViewGeographic          = "geographic"
)

func DefaultViews() []View {
	return []View{
		{ViewSurvivalBySite, []string{FieldSite, FieldSurvivalRate}},
		{ViewSurvivalByYear, []string{FieldYearPlanted, FieldSurvivalRate}},
		{ViewSurvivalBySpecies, []string{FieldSpecies, FieldSurvivalRate}},
		{ViewSurvivalHeatmap, []string{FieldSite, FieldYearPlanted, FieldSurvivalRate}},
		{ViewSpeciesCounts, []string{FieldSpecies}},
		{ViewSiteCounts, []string{FieldSite}},
		{ViewYearCounts, []string{FieldYearPlanted}},
		{ViewNativeVsSurvival, []string{FieldNativePct, FieldSurvivalRate}},
		{ViewConditionVsSurvival, []string{FieldGoodConditionPct, FieldSurvivalRate}},
		{ViewGrowthVsSurvival, []string{FieldGrowthRate, FieldSurvivalRate}},
		{ViewTrunkDiameterByYear, []string{FieldYearPlanted, FieldTrunkDiameter}},
		{ViewGrowthRateByYear, []string{FieldYearPlanted, FieldGrowthRate}},
		{ViewGenusFrequency, []string{FieldGenus, FieldCurrentFrequency}},
		{ViewGeographic, []string{FieldLatitude, FieldLongitude}},
	}
}

// ViewStatus is the availability of one view for a loaded dataset.
type ViewStatus struct {
	Name      string   `json:"name"`
	Available bool     `json:"available"`
	Missing   []string `json:"missing,omitempty"`
}
