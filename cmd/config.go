package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/KaramelBytes/treedash-cli/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set treedash configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		b, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk. Keys: data_dir, alias_file, delimiter,
decimal_separator, thousands_separator, cache, log.level, log.format, chart.width,
chart.height, and datasets.<name>.path|sheet|sheet_index|skip_rows|drop_duplicates|description.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := setKey(c, args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to disk",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			p, err := cfgpkg.DefaultPath()
			if err != nil {
				return err
			}
			path = p
		}
		// Refuse to overwrite an existing config.
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat config: %w", err)
		}
		c, err := cfgpkg.Defaults()
		if err != nil {
			return err
		}
		if err := cfgpkg.Save(c, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Config initialized: %s\n", path)
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "data_dir":
		c.DataDir = val
	case "alias_file":
		c.AliasFile = val
	case "delimiter":
		old := c.Delimiter
		c.Delimiter = val
		if _, err := c.DelimiterRune(); err != nil {
			c.Delimiter = old
			return err
		}
	case "decimal_separator", "thousands_separator":
		old := *c
		if key == "decimal_separator" {
			c.DecimalSeparator = val
		} else {
			c.ThousandsSeparator = val
		}
		if _, err := c.NumberFormat(); err != nil {
			*c = old
			return err
		}
	case "cache":
		b, err := cast.ToBoolE(val)
		if err != nil {
			return fmt.Errorf("invalid bool for cache: %v", val)
		}
		c.Cache = b
	case "log.level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.Log.Level = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log.level: %s (use debug|info|warn|error)", val)
		}
	case "log.format":
		switch strings.ToLower(val) {
		case "text", "json":
			c.Log.Format = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log.format: %s (use text or json)", val)
		}
	case "chart.width", "chart.height":
		i, err := cast.ToIntE(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		if key == "chart.width" {
			c.Chart.Width = i
		} else {
			c.Chart.Height = i
		}
	default:
		if name, field, ok := datasetKey(key); ok {
			return setDatasetKey(c, name, field, val)
		}
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func datasetKey(key string) (name, field string, ok bool) {
	rest, ok := strings.CutPrefix(key, "datasets.")
	if !ok {
		return "", "", false
	}
	i := strings.LastIndex(rest, ".")
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return strings.ToLower(rest[:i]), rest[i+1:], true
}

func setDatasetKey(c *cfgpkg.Global, name, field, val string) error {
	if c.Datasets == nil {
		c.Datasets = map[string]cfgpkg.DatasetConfig{}
	}
	d := c.Datasets[name]
	switch field {
	case "path":
		d.Path = val
	case "sheet":
		d.Sheet = val
	case "description":
		d.Description = val
	case "sheet_index", "skip_rows":
		i, err := cast.ToIntE(val)
		if err != nil || i < -1 || (field == "sheet_index" && i < 0) {
			return fmt.Errorf("invalid int for %s: %v", field, val)
		}
		if field == "sheet_index" {
			d.SheetIndex = i
		} else {
			d.SkipRows = i
		}
	case "drop_duplicates":
		b, err := cast.ToBoolE(val)
		if err != nil {
			return fmt.Errorf("invalid bool for drop_duplicates: %v", val)
		}
		d.DropDups = b
	default:
		return fmt.Errorf("unknown dataset key: %s", field)
	}
	c.Datasets[name] = d
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config")
}
