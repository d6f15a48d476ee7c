package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/treedash-cli/internal/loader"
	"github.com/KaramelBytes/treedash-cli/internal/render"
)

var (
	loadFlags datasetFlags
	loadRows  int
)

var loadCmd = &cobra.Command{
	Use:   "load <dataset|file>",
	Short: "Load and normalize a dataset and preview its canonical rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		p, err := s.runPass(cmd, &loadFlags, args[0])
		if err != nil {
			return err
		}
		c := p.Canonical
		fmt.Fprintf(s.out, "✓ Loaded %s: %s rows × %d columns\n", p.Name, humanize.Comma(int64(c.NumRows())), c.NumCols())
		if len(p.Report.Derived) > 0 {
			fmt.Fprintf(s.out, "  derived: %v\n", p.Report.Derived)
		}
		fmt.Fprintln(s.out)
		fmt.Fprint(s.out, render.Preview(c, loadRows))
		return nil
	},
}

var sheetsCmd = &cobra.Command{
	Use:   "sheets <dataset|file>",
	Short: "List the sheets of an XLSX workbook in workbook order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		path := args[0]
		if dc, err := s.cfg.Dataset(path); err == nil {
			path = s.cfg.ResolvePath(dc.Path)
		} else if _, statErr := os.Stat(path); statErr != nil {
			return err
		}
		names, err := s.loader.Sheets(loader.Default(path))
		if err != nil {
			return err
		}
		for i, n := range names {
			fmt.Fprintf(s.out, "%d\t%s\n", i, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(sheetsCmd)
	addDatasetFlags(loadCmd, &loadFlags)
	loadCmd.Flags().IntVar(&loadRows, "rows", 10, "number of rows to preview (-1 = all)")
}
