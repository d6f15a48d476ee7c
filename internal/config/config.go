package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/treedash-cli/internal/table"
	"github.com/KaramelBytes/treedash-cli/internal/utils"
)

// ErrUnknownDataset is returned for a logical dataset name with no binding.
var ErrUnknownDataset = errors.New("unknown dataset")

// DatasetConfig binds a logical dataset to its default source.
type DatasetConfig struct {
	Path        string `mapstructure:"path" yaml:"path"`
	Sheet       string `mapstructure:"sheet" yaml:"sheet,omitempty"`
	SheetIndex  int    `mapstructure:"sheet_index" yaml:"sheet_index,omitempty"`
	SkipRows    int    `mapstructure:"skip_rows" yaml:"skip_rows,omitempty"`
	DropDups    bool   `mapstructure:"drop_duplicates" yaml:"drop_duplicates,omitempty"`
	Description string `mapstructure:"description" yaml:"description,omitempty"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type ChartConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// Global configuration structure.
type Global struct {
	DataDir  string                   `mapstructure:"data_dir" yaml:"data_dir"`
	Datasets map[string]DatasetConfig `mapstructure:"datasets" yaml:"datasets"`
	// Aliases adds raw header spellings per canonical field on top of the
	// built-in table.
	Aliases   map[string][]string `mapstructure:"aliases" yaml:"aliases,omitempty"`
	AliasFile string              `mapstructure:"alias_file" yaml:"alias_file,omitempty"`

	Delimiter          string `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator,omitempty"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator,omitempty"`
	Cache              bool   `mapstructure:"cache" yaml:"cache"`

	Log   LogConfig   `mapstructure:"log" yaml:"log"`
	Chart ChartConfig `mapstructure:"chart" yaml:"chart"`
}

const dirName = ".treedash"

// DefaultPath is ~/.treedash/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.treedash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", ".")
	v.SetDefault("datasets", map[string]any{
		"planting": map[string]any{
			"path":        "tree_survival_summary.csv",
			"description": "per-planting survival records",
		},
		"summary": map[string]any{
			"path":        "inventory_site_codes.csv",
			"description": "site summary with native/exotic and condition counts",
		},
		"greenbush": map[string]any{
			"path":        "greenbush_trees.csv",
			"description": "tree inventory with trunk diameter and growth rate",
		},
	})
	v.SetDefault("delimiter", ",")
	v.SetDefault("cache", true)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("chart.width", 800)
	v.SetDefault("chart.height", 480)
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing config file is not an error.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TREEDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return unmarshal(v)
}

// Defaults returns the built-in configuration, ignoring files and env.
func Defaults() (*Global, error) {
	v := viper.New()
	setDefaults(v)
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Global, error) {
	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DataDir == "" {
		c.DataDir = "."
	}
	return &c, nil
}

// Dataset returns the binding for a logical name.
func (c *Global) Dataset(name string) (DatasetConfig, error) {
	d, ok := c.Datasets[strings.ToLower(name)]
	if !ok {
		return DatasetConfig{}, fmt.Errorf("%w: %s (known: %s)", ErrUnknownDataset, name, strings.Join(c.DatasetNames(), ", "))
	}
	return d, nil
}

// DatasetNames returns the configured logical names, sorted.
func (c *Global) DatasetNames() []string {
	out := make([]string, 0, len(c.Datasets))
	for k := range c.Datasets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ResolvePath joins a relative dataset path onto DataDir.
func (c *Global) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// DelimiterRune accepts a single character or one of comma, semicolon, tab.
func (c *Global) DelimiterRune() (rune, error) {
	switch strings.ToLower(c.Delimiter) {
	case "", ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(c.Delimiter)
	if size != len(c.Delimiter) || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter: %q", c.Delimiter)
	}
	return r, nil
}

// NumberFormat returns the pinned separators; empty settings mean auto-detect.
func (c *Global) NumberFormat() (table.NumberFormat, error) {
	dec, err := separator("decimal_separator", c.DecimalSeparator)
	if err != nil {
		return table.NumberFormat{}, err
	}
	th, err := separator("thousands_separator", c.ThousandsSeparator)
	if err != nil {
		return table.NumberFormat{}, err
	}
	if dec != 0 && dec == th {
		return table.NumberFormat{}, fmt.Errorf("decimal and thousands separators are both %q", dec)
	}
	return table.NumberFormat{Decimal: dec, Thousands: th}, nil
}

func separator(key, s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "space":
		return ' ', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return r, nil
}
