package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/loupe"
	"github.com/jward/loupe/internal/config"
	"github.com/jward/loupe/internal/document"
)

var (
	flagWorkspace   string
	flagIncludeDecl bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query a Julia workspace",
	Long:  "Indexes the workspace and runs one query against it. All line and column numbers are 0-based.",
}

func init() {
	queryCmd.PersistentFlags().StringVar(&flagWorkspace, "workspace", ".", "workspace root to index")

	referencesCmd.Flags().BoolVar(&flagIncludeDecl, "include-declaration", false, "include the definition location")

	queryCmd.AddCommand(symbolCmd)
	queryCmd.AddCommand(referencesCmd)
	queryCmd.AddCommand(definitionCmd)
	queryCmd.AddCommand(hoverCmd)
	queryCmd.AddCommand(completeCmd)
	queryCmd.AddCommand(diagnosticsCmd)
	queryCmd.AddCommand(modulesCmd)
	queryCmd.AddCommand(exportsCmd)
	queryCmd.AddCommand(statsCmd)
}

// querySession bundles the per-invocation index, engine, and caches.
type querySession struct {
	cfg    config.Config
	engine *loupe.Engine
	index  *loupe.Index
	caches *loupe.CacheManager
}

// newQuerySession indexes the --workspace directory.
func newQuerySession(cmd *cobra.Command) (*querySession, error) {
	root, err := resolveWorkspaceRoot([]string{flagWorkspace})
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	engine, err := loupe.New(loupe.WithConfig(cfg))
	if err != nil {
		return nil, err
	}
	ix, err := buildIndex(cmd.Context(), root, cfg)
	if err != nil {
		return nil, err
	}
	return &querySession{
		cfg:    cfg,
		engine: engine,
		index:  ix,
		caches: loupe.NewCacheManager(loupe.CacheOptions{
			Validity:    cfg.Caches.Validity,
			Symbols:     cfg.Caches.Symbols,
			Docs:        cfg.Caches.Docs,
			Hover:       cfg.Caches.Hover,
			Inferred:    cfg.Caches.Inferred,
			Diagnostics: cfg.Caches.Diagnostics,
		}),
	}, nil
}

// openDocument loads a file into a Document for position queries.
func (s *querySession) openDocument(file string) (*document.Document, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return document.New(file, string(data)), nil
}

// parsePosition parses <line> <col> arguments.
func parsePosition(lineArg, colArg string) (loupe.Position, error) {
	line, err := parseIntArg(lineArg, "line")
	if err != nil {
		return loupe.Position{}, err
	}
	col, err := parseIntArg(colArg, "col")
	if err != nil {
		return loupe.Position{}, err
	}
	return loupe.Position{Line: line, Character: col}, nil
}

func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	return n, nil
}

var symbolCmd = &cobra.Command{
	Use:   "symbol <name>",
	Short: "Look up symbols by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newQuerySession(cmd)
		if err != nil {
			return err
		}
		syms := s.index.FindSymbols(args[0])
		out := make([]cliSymbol, 0, len(syms))
		for _, sym := range syms {
			out = append(out, cliSymbolFrom(sym))
		}
		return outputResult(out)
	},
}

var referencesCmd = &cobra.Command{
	Use:   "references <name>",
	Short: "List every reference to a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newQuerySession(cmd)
		if err != nil {
			return err
		}
		locs := s.referenceLocations(args[0], flagIncludeDecl)
		return outputResult(locs)
	},
}

var definitionCmd = &cobra.Command{
	Use:   "definition <file> <line> <col>",
	Short: "Find the definition of the symbol at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newQuerySession(cmd)
		if err != nil {
			return err
		}
		doc, err := s.openDocument(args[0])
		if err != nil {
			return err
		}
		pos, err := parsePosition(args[1], args[2])
		if err != nil {
			return err
		}
		provider := loupe.DefinitionProvider{Parser: s.engine.Parser()}
		locs, err := provider.Definition(cmd.Context(), s.index, doc, pos)
		if err != nil {
			return err
		}
		return outputResult(cliLocationsFrom(locs))
	},
}

var hoverCmd = &cobra.Command{
	Use:   "hover <file> <line> <col>",
	Short: "Show hover content for the symbol at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newQuerySession(cmd)
		if err != nil {
			return err
		}
		doc, err := s.openDocument(args[0])
		if err != nil {
			return err
		}
		pos, err := parsePosition(args[1], args[2])
		if err != nil {
			return err
		}
		provider := loupe.HoverProvider{Parser: s.engine.Parser()}
		h, err := provider.Hover(cmd.Context(), s.index, doc, pos, s.caches)
		if err != nil {
			return err
		}
		return outputResult(h)
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <file> <line> <col>",
	Short: "List completion candidates at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newQuerySession(cmd)
		if err != nil {
			return err
		}
		doc, err := s.openDocument(args[0])
		if err != nil {
			return err
		}
		pos, err := parsePosition(args[1], args[2])
		if err != nil {
			return err
		}
		list, err := loupe.CompletionProvider{}.Complete(cmd.Context(), s.index, doc, pos)
		if err != nil {
			return err
		}
		return outputResult(list)
	},
}

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics <file>",
	Short: "Report diagnostics for a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newQuerySession(cmd)
		if err != nil {
			return err
		}
		doc, err := s.openDocument(args[0])
		if err != nil {
			return err
		}
		provider := loupe.DiagnosticsProvider{Parser: s.engine.Parser()}
		diags, err := provider.Diagnostics(cmd.Context(), s.index, doc, s.caches)
		if err != nil {
			return err
		}
		return outputResult(diags)
	},
}

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the modules known to the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newQuerySession(cmd)
		if err != nil {
			return err
		}
		return outputResult(s.index.AllModules())
	},
}

var exportsCmd = &cobra.Command{
	Use:   "exports <module>",
	Short: "List a module's exported names",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newQuerySession(cmd)
		if err != nil {
			return err
		}
		return outputResult(s.index.ModuleExports(args[0]))
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print index statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newQuerySession(cmd)
		if err != nil {
			return err
		}
		return outputResult(s.index.Stats())
	},
}
