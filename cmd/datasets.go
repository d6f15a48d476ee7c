package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/treedash-cli/internal/render"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List configured datasets and their default sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		names := c.DatasetNames()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(no datasets configured)")
			return nil
		}
		rows := make([][]string, 0, len(names))
		for _, n := range names {
			d := c.Datasets[n]
			path := c.ResolvePath(d.Path)
			size := "missing"
			if info, err := os.Stat(path); err == nil {
				size = humanize.Bytes(uint64(info.Size()))
			}
			rows = append(rows, []string{n, path, size, d.Description})
		}
		fmt.Fprint(cmd.OutOrStdout(), render.MarkdownTable([]string{"dataset", "path", "size", "description"}, rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}
