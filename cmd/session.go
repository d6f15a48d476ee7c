package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/treedash-cli/internal/config"
	"github.com/KaramelBytes/treedash-cli/internal/dashboard"
	"github.com/KaramelBytes/treedash-cli/internal/loader"
	"github.com/KaramelBytes/treedash-cli/internal/logger"
	"github.com/KaramelBytes/treedash-cli/internal/render"
	"github.com/KaramelBytes/treedash-cli/internal/schema"
)

// session holds the pipeline built from the effective configuration for
// one command invocation.
type session struct {
	cfg    *cfgpkg.Global
	log    *slog.Logger
	loader *loader.Loader
	runner *dashboard.Runner
	out    io.Writer
	errOut io.Writer
}

func newSession(cmd *cobra.Command) (*session, error) {
	c, err := currentConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(c.Log, cmd.ErrOrStderr())

	delim, err := c.DelimiterRune()
	if err != nil {
		return nil, err
	}
	nf, err := c.NumberFormat()
	if err != nil {
		return nil, err
	}
	opts := []loader.Option{loader.WithLogger(log), loader.WithDelimiter(delim), loader.WithNumberFormat(nf)}
	if c.Cache {
		opts = append(opts, loader.WithCache())
	}
	ld := loader.New(opts...)

	aliases, err := buildAliases(c)
	if err != nil {
		return nil, err
	}
	norm := schema.New(aliases, schema.WithLogger(log))

	return &session{
		cfg:    c,
		log:    log,
		loader: ld,
		runner: dashboard.New(ld, norm, log),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}, nil
}

// buildAliases layers the alias file and inline config aliases over the
// built-in table.
func buildAliases(c *cfgpkg.Global) (schema.AliasMap, error) {
	aliases := schema.DefaultAliases()
	if c.AliasFile != "" {
		extra, err := schema.LoadAliasFile(c.ResolvePath(c.AliasFile))
		if err != nil {
			return nil, err
		}
		aliases = aliases.Merge(extra)
	}
	if len(c.Aliases) > 0 {
		extra, err := schema.NewAliasMap(c.Aliases)
		if err != nil {
			return nil, fmt.Errorf("config aliases: %w", err)
		}
		aliases = aliases.Merge(extra)
	}
	return aliases, nil
}

func (s *session) warnf(format string, args ...any) {
	fmt.Fprintf(s.errOut, "⚠ Warning: "+format+"\n", args...)
}

func (s *session) chartSize() render.Size {
	return render.Size{Width: s.cfg.Chart.Width, Height: s.cfg.Chart.Height}
}

// datasetFlags are the per-call source overrides shared by dataset commands.
type datasetFlags struct {
	override   string
	format     string
	sheet      string
	sheetIndex int
	skipRows   int
	dropDups   bool
}

func addDatasetFlags(cmd *cobra.Command, f *datasetFlags) {
	cmd.Flags().StringVar(&f.override, "override", "", "file replacing the dataset's default source for this run")
	cmd.Flags().StringVar(&f.format, "format", "", "override format: csv | xlsx (default from extension)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "XLSX: sheet name")
	cmd.Flags().IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX: 0-based sheet index (used if --sheet not provided)")
	cmd.Flags().IntVar(&f.skipRows, "skip-rows", 0, "rows to skip before the header (-1 = detect)")
	cmd.Flags().BoolVar(&f.dropDups, "drop-duplicates", false, "drop exact duplicate rows")
}

// request resolves a logical dataset name, or a file path when no dataset
// of that name is configured, and applies the flags.
func (f *datasetFlags) request(cmd *cobra.Command, c *cfgpkg.Global, arg string) (loader.Request, error) {
	req := loader.Request{Name: arg}
	if dc, err := c.Dataset(arg); err == nil {
		req.DefaultPath = c.ResolvePath(dc.Path)
		req.Sheet = loader.SheetSelector{Name: dc.Sheet, Index: dc.SheetIndex}
		req.SkipRows = dc.SkipRows
		req.DropDuplicates = dc.DropDups
	} else if _, statErr := os.Stat(arg); statErr == nil {
		base := filepath.Base(arg)
		req.Name = strings.TrimSuffix(base, filepath.Ext(base))
		req.DefaultPath = arg
	} else {
		return req, err
	}

	fl := cmd.Flags()
	if fl.Changed("sheet") {
		req.Sheet = loader.SheetSelector{Name: f.sheet}
	} else if fl.Changed("sheet-index") {
		if f.sheetIndex < 0 {
			return req, fmt.Errorf("invalid --sheet-index: %d", f.sheetIndex)
		}
		req.Sheet = loader.SheetSelector{Index: f.sheetIndex}
	}
	if fl.Changed("skip-rows") {
		if f.skipRows < loader.AutoHeader {
			return req, fmt.Errorf("invalid --skip-rows: %d", f.skipRows)
		}
		req.SkipRows = f.skipRows
	}
	if fl.Changed("drop-duplicates") {
		req.DropDuplicates = f.dropDups
	}
	if f.override != "" {
		src, err := f.overrideSource()
		if err != nil {
			return req, err
		}
		req.Override = &src
	}
	return req, nil
}

func (f *datasetFlags) overrideSource() (loader.Source, error) {
	if f.format == "" {
		return loader.OverrideFile(f.override)
	}
	format, err := loader.ParseFormat(f.format)
	if err != nil {
		return loader.Source{}, err
	}
	data, err := os.ReadFile(f.override)
	if err != nil {
		return loader.Source{}, fmt.Errorf("read override: %w", err)
	}
	return loader.Override(filepath.Base(f.override), data, format), nil
}

// runPass loads and normalizes one dataset and fails on any pass error.
func (s *session) runPass(cmd *cobra.Command, f *datasetFlags, arg string) (*dashboard.Pass, error) {
	req, err := f.request(cmd, s.cfg, arg)
	if err != nil {
		return nil, err
	}
	p := s.runner.Run(req)
	if err := p.Err(); err != nil {
		return nil, err
	}
	return p, nil
}
