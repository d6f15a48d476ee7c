package cmd

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/treedash-cli/internal/dashboard"
	"github.com/KaramelBytes/treedash-cli/internal/loader"
	"github.com/KaramelBytes/treedash-cli/internal/render"
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Load every configured dataset and count rows and available views",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		names := s.cfg.DatasetNames()
		if len(names) == 0 {
			fmt.Fprintln(s.out, "(no datasets configured)")
			return nil
		}
		reqs := make([]loader.Request, 0, len(names))
		var none datasetFlags
		for _, n := range names {
			req, err := none.request(cmd, s.cfg, n)
			if err != nil {
				return err
			}
			reqs = append(reqs, req)
		}

		passes := s.runner.RunAll(reqs)
		rows := [][]string{}
		failed := 0
		for _, sum := range dashboard.Overview(passes) {
			status := "ok"
			if sum.Error != "" {
				status = "failed"
				failed++
				s.warnf("%s: %s", sum.Name, sum.Error)
			}
			rows = append(rows, []string{sum.Name, humanize.Comma(int64(sum.Rows)), strconv.Itoa(sum.Cols), strconv.Itoa(sum.Views), status})
		}
		fmt.Fprint(s.out, render.MarkdownTable([]string{"dataset", "rows", "columns", "views", "status"}, rows))
		if failed > 0 {
			fmt.Fprintf(s.out, "\n%d of %d datasets failed to load\n", failed, len(names))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(overviewCmd)
}
