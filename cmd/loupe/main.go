package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/loupe"
	"github.com/jward/loupe/internal/config"
	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/source"
	"github.com/jward/loupe/internal/store"
)

var (
	flagConfig string
	flagFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "loupe",
	Short:         "Language intelligence for Julia source code",
	Long:          "Loupe indexes Julia workspaces with an error-tolerant tree-sitter pipeline and answers hover, completion, definition, reference, and diagnostics queries.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "TOML config path (default: loupe.toml in the workspace root, if present)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
}

var (
	flagSnapshotOut string
	flagSnapshotIn  string
	flagDB          string
	flagSerial      bool
	flagIgnoreStale bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a Julia workspace",
	Long:  "Discovers and analyzes the workspace's Julia files, optionally layering them over a standard-library snapshot, and prints index statistics.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&flagSnapshotOut, "snapshot", "", "write a JSON snapshot of the resulting index to this path")
	indexCmd.Flags().StringVar(&flagSnapshotIn, "from-snapshot", "", "layer the workspace over this snapshot")
	indexCmd.Flags().StringVar(&flagDB, "db", "", "dump the full index into a SQLite database at this path")
	indexCmd.Flags().BoolVar(&flagSerial, "serial", false, "disable parallel analysis")
	indexCmd.Flags().BoolVar(&flagIgnoreStale, "ignore-stale", false, "use --from-snapshot even when it is older than the configured max age")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	root, err := resolveWorkspaceRoot(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ix, err := buildIndex(cmd.Context(), root, cfg)
	if err != nil {
		return err
	}

	if flagSnapshotOut != "" {
		if err := index.SaveSnapshot(ix.Snapshot(), flagSnapshotOut); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Snapshot: %s\n", flagSnapshotOut)
	}

	if flagDB != "" {
		st, err := store.NewStore(flagDB)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer st.Close()
		if err := st.Migrate(); err != nil {
			return err
		}
		counts, err := st.DumpIndex(ix)
		if err != nil {
			return fmt.Errorf("dumping index: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Database: %s (%d symbols, %d references)\n",
			flagDB, counts.Symbols, counts.References)
	}

	fmt.Fprintf(os.Stderr, "Indexed %s in %s\n", root, time.Since(start).Round(time.Millisecond))
	return outputResult(ix.Stats())
}

// resolveWorkspaceRoot returns the absolute workspace directory.
func resolveWorkspaceRoot(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// loadConfig loads the --config file, or loupe.toml in the workspace root
// when present, or the defaults.
func loadConfig(root string) (config.Config, error) {
	path := flagConfig
	if path == "" {
		candidate := filepath.Join(root, "loupe.toml")
		if _, err := os.Stat(candidate); err != nil {
			return config.Default(), nil
		}
		path = candidate
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// buildIndex discovers, loads, and analyzes the workspace into an Index,
// layered over the --from-snapshot base when one is given.
func buildIndex(ctx context.Context, root string, cfg config.Config) (*loupe.Index, error) {
	disc := source.Discovery{Include: cfg.Include, Exclude: cfg.Exclude}
	paths, err := disc.Files(root)
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	items := source.LoadAll(paths)

	engine, err := loupe.New(
		loupe.WithConfig(cfg),
		loupe.WithParallel(!flagSerial),
	)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	base := index.New()
	if flagSnapshotIn != "" {
		snap, err := index.LoadSnapshot(flagSnapshotIn)
		if err != nil {
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
		if snap.Stale(cfg.SnapshotMaxAge()) && !flagIgnoreStale {
			return nil, fmt.Errorf("snapshot %s is older than %s (use --ignore-stale to override)",
				flagSnapshotIn, cfg.SnapshotMaxAge())
		}
		base, err = index.FromSnapshot(snap)
		if err != nil {
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
	}

	ix, err := engine.RunWithIndex(ctx, items, base)
	if err != nil {
		return nil, err
	}
	return ix, nil
}
