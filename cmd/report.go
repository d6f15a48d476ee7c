package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/treedash-cli/internal/render"
	"github.com/KaramelBytes/treedash-cli/internal/utils"
)

var (
	reportFlags datasetFlags
	reportJSON  bool
)

var reportCmd = &cobra.Command{
	Use:   "report <dataset|file>",
	Short: "Show which canonical fields, metrics and views a dataset supports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		p, err := s.runPass(cmd, &reportFlags, args[0])
		if err != nil {
			return err
		}
		if reportJSON {
			b, err := utils.PrettyJSON(p.Report)
			if err != nil {
				return err
			}
			fmt.Fprintln(s.out, string(b))
			return nil
		}
		fmt.Fprint(s.out, render.ReportMarkdown(p.Report, p.Canonical.NumRows()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	addDatasetFlags(reportCmd, &reportFlags)
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
}
