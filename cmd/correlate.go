package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/treedash-cli/internal/analysis"
	"github.com/KaramelBytes/treedash-cli/internal/render"
	"github.com/KaramelBytes/treedash-cli/internal/schema"
	"github.com/KaramelBytes/treedash-cli/internal/utils"
)

var (
	corrFlags datasetFlags
	corrX     string
	corrY     string
	corrChart string
)

var correlateCmd = &cobra.Command{
	Use:   "correlate <dataset|file>",
	Short: "Fit a least-squares trendline between two numeric fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		p, err := s.runPass(cmd, &corrFlags, args[0])
		if err != nil {
			return err
		}
		if msg := p.Report.Diagnostic(corrX, corrY); msg != "" {
			fmt.Fprintf(s.out, "%s ~ %s: %s\n", corrY, corrX, msg)
			return nil
		}
		fit, err := analysis.LinearFit(p.Canonical, corrX, corrY)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, render.FitSummary(fit))

		if corrChart == "" {
			return nil
		}
		pts, err := analysis.Pairs(p.Canonical, corrX, corrY)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		title := fmt.Sprintf("%s vs %s", corrY, corrX)
		if err := render.ScatterWithTrend(&buf, title, pts, fit, s.chartSize()); err != nil {
			return err
		}
		if err := utils.SafeWriteFile(corrChart, buf.Bytes()); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		fmt.Fprintf(s.out, "✓ Wrote chart to %s\n", corrChart)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(correlateCmd)
	addDatasetFlags(correlateCmd, &corrFlags)
	correlateCmd.Flags().StringVar(&corrX, "x", schema.FieldNativePct, "x field")
	correlateCmd.Flags().StringVar(&corrY, "y", schema.FieldSurvivalRate, "y field")
	correlateCmd.Flags().StringVar(&corrChart, "chart", "", "write a PNG scatter with trendline to this path")
}
