package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/treedash-cli/internal/analysis"
	"github.com/KaramelBytes/treedash-cli/internal/utils"
)

var (
	descFlags      datasetFlags
	descRaw        bool
	descOutputPath string
	descSampleRows int
	descGroupBy    string
	descCorr       bool
	descOutliers   bool
	descOutlierThr float64
)

var describeCmd = &cobra.Command{
	Use:   "describe <dataset|file>",
	Short: "Summarize every column of a dataset as Markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := analysis.DefaultOptions()
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = descSampleRows
		}
		for _, g := range strings.Split(descGroupBy, ",") {
			if g = strings.TrimSpace(g); g != "" {
				opt.GroupBy = append(opt.GroupBy, g)
			}
		}
		opt.Correlations = descCorr
		opt.Outliers = descOutliers
		if descOutlierThr > 0 {
			opt.OutlierThreshold = descOutlierThr
		}

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		req, err := descFlags.request(cmd, s.cfg, args[0])
		if err != nil {
			return err
		}
		p := s.runner.Run(req)
		if p.LoadErr != nil {
			return p.LoadErr
		}
		ds := p.Raw
		if !descRaw {
			if p.NormalizeErr != nil {
				return fmt.Errorf("%w (use --raw to describe the source headers)", p.NormalizeErr)
			}
			ds = p.Canonical.Table()
		}
		md := analysis.Describe(ds, opt).Markdown()

		if descOutputPath != "" {
			if err := utils.SafeWriteFile(descOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(s.out, "✓ Wrote summary to %s\n", descOutputPath)
			return nil
		}
		fmt.Fprintln(s.out, md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	addDatasetFlags(describeCmd, &descFlags)
	describeCmd.Flags().BoolVar(&descRaw, "raw", false, "describe the loaded columns before normalization")
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "optional path to write the summary (Markdown)")
	describeCmd.Flags().IntVar(&descSampleRows, "sample-rows", 5, "number of sample rows to include")
	describeCmd.Flags().StringVar(&descGroupBy, "group-by", "", "comma-separated column names to group by")
	describeCmd.Flags().BoolVar(&descCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	describeCmd.Flags().BoolVar(&descOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	describeCmd.Flags().Float64Var(&descOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
}
