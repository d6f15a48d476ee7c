package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/treedash-cli/internal/analysis"
	"github.com/KaramelBytes/treedash-cli/internal/render"
	"github.com/KaramelBytes/treedash-cli/internal/schema"
	"github.com/KaramelBytes/treedash-cli/internal/utils"
)

// groupings maps a --by value to its canonical field and dashboard view.
var groupings = map[string]struct {
	field string
	view  string
	count string
}{
	"site":    {schema.FieldSite, schema.ViewSurvivalBySite, schema.ViewSiteCounts},
	"year":    {schema.FieldYearPlanted, schema.ViewSurvivalByYear, schema.ViewYearCounts},
	"species": {schema.FieldSpecies, schema.ViewSurvivalBySpecies, schema.ViewSpeciesCounts},
}

var (
	survFlags datasetFlags
	survBy    string
	survOrder string
	survChart string
	survWhere string

	countFlags datasetFlags
	countBy    string
)

var survivalCmd = &cobra.Command{
	Use:   "survival <dataset|file>",
	Short: "Mean survival rate grouped by site, year or species",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, ok := groupings[strings.ToLower(survBy)]
		if !ok {
			return fmt.Errorf("unsupported --by: %s (use site|year|species)", survBy)
		}
		order, err := analysis.ParseOrder(survOrder)
		if err != nil {
			return err
		}
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		p, err := s.runPass(cmd, &survFlags, args[0])
		if err != nil {
			return err
		}
		c, msg := p.Section(g.view)
		if c == nil {
			fmt.Fprintf(s.out, "%s: %s\n", g.view, msg)
			return nil
		}
		if survWhere != "" {
			if c, err = applyWhere(c, survWhere); err != nil {
				return err
			}
		}
		groups, err := analysis.GroupMean(c, g.field, schema.FieldSurvivalRate, order)
		if err != nil {
			return err
		}
		fmt.Fprint(s.out, render.Groups(groups, g.field, schema.FieldSurvivalRate))

		if survChart == "" {
			return nil
		}
		var buf bytes.Buffer
		title := "Survival rate by " + survBy
		if g.field == schema.FieldYearPlanted {
			err = render.LineChart(&buf, title, g.field, schema.FieldSurvivalRate, groups, s.chartSize())
		} else {
			err = render.BarChart(&buf, title, groups, s.chartSize())
		}
		if err != nil {
			return err
		}
		if err := utils.SafeWriteFile(survChart, buf.Bytes()); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		fmt.Fprintf(s.out, "✓ Wrote chart to %s\n", survChart)
		return nil
	},
}

var countsCmd = &cobra.Command{
	Use:   "counts <dataset|file>",
	Short: "Row counts per distinct value of a canonical field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		p, err := s.runPass(cmd, &countFlags, args[0])
		if err != nil {
			return err
		}
		field := countBy
		var c *schema.Canonical
		var msg string
		if g, ok := groupings[strings.ToLower(countBy)]; ok {
			field = g.field
			c, msg = p.Section(g.count)
		} else if p.Canonical.Has(field) {
			c = p.Canonical
		} else {
			msg = "missing columns: " + field
		}
		if c == nil {
			fmt.Fprintf(s.out, "%s: %s\n", field, msg)
			return nil
		}
		counts, err := analysis.ValueCounts(c, field)
		if err != nil {
			return err
		}
		fmt.Fprint(s.out, render.Counts(counts, field))
		return nil
	},
}

// applyWhere filters c by a "field=value" expression.
func applyWhere(c *schema.Canonical, expr string) (*schema.Canonical, error) {
	field, value, ok := strings.Cut(expr, "=")
	if !ok || strings.TrimSpace(field) == "" {
		return nil, fmt.Errorf("invalid --where: %q (use field=value)", expr)
	}
	return analysis.Filter(c, strings.TrimSpace(field), strings.TrimSpace(value))
}

func init() {
	rootCmd.AddCommand(survivalCmd)
	rootCmd.AddCommand(countsCmd)
	addDatasetFlags(survivalCmd, &survFlags)
	survivalCmd.Flags().StringVar(&survBy, "by", "site", "group by: site | year | species")
	survivalCmd.Flags().StringVar(&survOrder, "order", "key", "order: key | asc | desc (by mean)")
	survivalCmd.Flags().StringVar(&survChart, "chart", "", "write a PNG chart to this path")
	survivalCmd.Flags().StringVar(&survWhere, "where", "", "filter rows first, e.g. year_planted=2019")
	addDatasetFlags(countsCmd, &countFlags)
	countsCmd.Flags().StringVar(&countBy, "by", "species", "field to count: site | year | species or any column")
}
