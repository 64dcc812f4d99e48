package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/dusk-indust/modelexplorer/internal/config"
	"github.com/dusk-indust/modelexplorer/internal/explorer"
	"github.com/dusk-indust/modelexplorer/internal/graph"
	"github.com/dusk-indust/modelexplorer/internal/mcptools"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ProjectRoot string
	ConfigDir   string
	Models      []string
	Sources     []string
	Languages   []string
	Store       string
	KuzuPath    string
	ServeMCP    bool
	HTTPAddr    string
	Format      string
	Expand      []string
	Filters     []string
	Depth       int
	Group       bool
	Stats       bool
	Verbose     bool
	Version     bool
}

const (
	defaultMCPAddr = "localhost:8090"
	// httpFromConfig is the value of a bare --http flag.
	httpFromConfig = "config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var flags cliFlags

	fs := pflag.NewFlagSet("explorer", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&flags.ProjectRoot, "project-root", ".", "path to the project holding explorer.yml")
	fs.StringVar(&flags.ConfigDir, "config", "", "directory containing explorer.yml (default: project root)")
	fs.StringSliceVarP(&flags.Models, "model", "m", nil, "YAML model documents to load")
	fs.StringSliceVarP(&flags.Sources, "source", "s", nil, "source trees to import, one resource per file")
	fs.StringSliceVar(&flags.Languages, "languages", nil, "languages to import from sources (default: go, typescript, python, rust)")
	fs.StringVar(&flags.Store, "store", "", "graph backend: memory or kuzu")
	fs.StringVar(&flags.KuzuPath, "kuzu-path", "", "KuzuDB directory (default: in-memory database)")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server on stdio")
	fs.StringVar(&flags.HTTPAddr, "http", "", "serve MCP over streamable HTTP (address defaults to mcpAddr from explorer.yml)")
	fs.Lookup("http").NoOptDefVal = httpFromConfig
	fs.StringVarP(&flags.Format, "format", "f", "text", "tree output format: text, json or mermaid")
	fs.StringSliceVarP(&flags.Expand, "expand", "e", nil, "node tokens to expand (default: expand everything)")
	fs.StringSliceVar(&flags.Filters, "filter", nil, "root filters: hide-read-only, hide-non-semantic")
	fs.IntVar(&flags.Depth, "depth", 0, "maximum expansion depth (default: 8)")
	fs.BoolVar(&flags.Group, "group-attributes", false, "group class attributes by type")
	fs.BoolVar(&flags.Stats, "stats", false, "print graph statistics and exit")
	fs.BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if flags.Version {
		fmt.Fprintln(stdout, mcptools.Version())
		return nil
	}

	cfgDir := flags.ConfigDir
	if cfgDir == "" {
		cfgDir = flags.ProjectRoot
	}
	cfg, err := config.Load(cfgDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, fs, &flags)

	logger := newLogger(stderr, cfg.Verbose)

	filters, err := parseFilters(cfg.DefaultFilters)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	parser := graph.NewTreeSitterParser()
	defer parser.Close()

	if err := populate(ctx, store, parser, cfg, logger); err != nil {
		return err
	}

	svc := mcptools.NewExplorerService(store, parser, mcptools.ServiceConfig{
		ReadOnlyPatterns:  cfg.ReadOnlyPatterns,
		DefaultFilters:    filters,
		AttributeGrouping: cfg.AttributeGrouping,
		Logger:            logger,
	})

	switch {
	case flags.ServeMCP:
		logger.Info("serving MCP on stdio")
		return mcptools.RunMCPServerStdio(ctx, svc)
	case fs.Changed("http"):
		addr := cfg.MCPAddr
		if addr == "" {
			addr = defaultMCPAddr
		}
		logger.Info("serving MCP over HTTP", "addr", addr)
		return mcptools.RunMCPServer(ctx, svc, addr)
	case flags.Stats:
		return printStats(ctx, stdout, store)
	default:
		return printTree(ctx, stdout, svc.Explorer(), treeRequest{
			Format:  flags.Format,
			Filters: filters,
			Expand:  flags.Expand,
			Depth:   flags.Depth,
		})
	}
}

// applyFlags overrides config values with flags set on the command line.
func applyFlags(cfg *config.ProjectConfig, fs *pflag.FlagSet, flags *cliFlags) {
	if fs.Changed("model") {
		cfg.Models = append(cfg.Models, flags.Models...)
	}
	if fs.Changed("source") {
		cfg.SourceRoots = append(cfg.SourceRoots, flags.Sources...)
	}
	if fs.Changed("languages") {
		cfg.Languages = flags.Languages
	}
	if fs.Changed("store") {
		cfg.Store = flags.Store
	}
	if fs.Changed("kuzu-path") {
		cfg.KuzuPath = flags.KuzuPath
	}
	if fs.Changed("http") && flags.HTTPAddr != httpFromConfig {
		cfg.MCPAddr = flags.HTTPAddr
	}
	if fs.Changed("filter") {
		cfg.DefaultFilters = flags.Filters
	}
	if fs.Changed("group-attributes") {
		cfg.AttributeGrouping = flags.Group
	}
	if fs.Changed("verbose") {
		cfg.Verbose = flags.Verbose
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseFilters(names []string) ([]explorer.Filter, error) {
	var filters []explorer.Filter
	for _, name := range names {
		f, err := explorer.ParseFilter(name)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}
