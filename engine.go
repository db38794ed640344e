package loupe

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jward/loupe/internal/analyze"
	"github.com/jward/loupe/internal/config"
	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/parser"
	"github.com/jward/loupe/internal/source"
)

// Engine orchestrates the analysis pipeline: sources through the
// error-tolerant parser and the six analyzers into a fresh Index. A run
// never mutates a previously returned Index, so queries against an older
// Index are undisturbed by a concurrent re-index.
type Engine struct {
	parser      *parser.Parser
	logger      *slog.Logger
	cfg         config.Config
	useParallel bool

	// analyses memoizes per-file analysis keyed by content hash, so an
	// unchanged file is not re-walked on the next run. The Index itself
	// is still rebuilt wholesale every run.
	mu       sync.Mutex
	analyses map[string]cachedAnalysis
}

type cachedAnalysis struct {
	hash uint64
	res  *index.AnalysisResult
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithConfig applies an engine configuration.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithParallel controls the parallel analysis pass. When true (default),
// Run analyzes files on a bounded worker pool and merges results
// serially in deterministic order. Set to false for serial analysis.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// New creates an Engine. Grammar initialization is the only hard failure.
func New(opts ...Option) (*Engine, error) {
	p, err := parser.New()
	if err != nil {
		return nil, fmt.Errorf("loupe: create parser: %w", err)
	}
	e := &Engine{
		parser:      p,
		logger:      slog.Default(),
		cfg:         config.Default(),
		useParallel: true,
		analyses:    make(map[string]cachedAnalysis),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Parser exposes the engine's parser for document reparsing.
func (e *Engine) Parser() *parser.Parser {
	return e.parser
}

// Config returns the engine configuration.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Run analyzes files into a new Index. Two passes, in order: the export
// pass collects every module's export set (main module files first), then
// the merge pass folds each file's full analysis into the Index,
// filtering dependency-file symbols down to their module's export set.
func (e *Engine) Run(ctx context.Context, files []source.Item) (*index.Index, error) {
	return e.RunWithIndex(ctx, files, index.New())
}

// RunWithIndex runs the pipeline merging into base, which is how
// workspace files are layered on top of a pre-computed standard-library
// snapshot. The base Index is returned; it must not be an Index other
// goroutines are querying.
func (e *Engine) RunWithIndex(ctx context.Context, files []source.Item, base *index.Index) (*index.Index, error) {
	ordered := orderForExportPass(files)

	results, err := e.analyzeAll(ctx, ordered)
	if err != nil {
		return nil, fmt.Errorf("loupe: analyze workspace: %w", err)
	}

	// Export pass: record each file's export set keyed by its inferred
	// module before any symbol filtering decisions are made.
	for _, item := range ordered {
		res := results[item.Path]
		if res == nil {
			continue
		}
		if len(res.Exports) > 0 {
			base.AddExports(analyze.ModuleForPath(item.Path), res.Exports)
		}
	}

	// Merge pass: dependency files keep only exported symbols; a
	// package's main module file and plain workspace files merge
	// unfiltered.
	for _, item := range ordered {
		res := results[item.Path]
		if res == nil {
			continue
		}
		if analyze.IsPackageFile(item.Path) && !analyze.IsMainModuleFile(item.Path) {
			module := analyze.ModuleForPath(item.Path)
			allowed := make(map[string]bool)
			for _, name := range base.ModuleExports(module) {
				allowed[name] = true
			}
			base.MergeFileFiltered(item.Path, res, allowed)
		} else {
			base.MergeFile(item.Path, res)
		}
	}
	return base, nil
}

// orderForExportPass sorts files so main module files are analyzed first,
// with stable path ordering inside each group for deterministic runs.
func orderForExportPass(files []source.Item) []source.Item {
	ordered := make([]source.Item, len(files))
	copy(ordered, files)
	sort.SliceStable(ordered, func(i, j int) bool {
		mi, mj := analyze.IsMainModuleFile(ordered[i].Path), analyze.IsMainModuleFile(ordered[j].Path)
		if mi != mj {
			return mi
		}
		return ordered[i].Path < ordered[j].Path
	})
	return ordered
}

// analyzeAll parses and analyzes every file, reusing memoized results for
// unchanged content. A single file's failure is logged and dropped; it
// never aborts the rest of the workspace.
func (e *Engine) analyzeAll(ctx context.Context, files []source.Item) (map[string]*index.AnalysisResult, error) {
	results := make(map[string]*index.AnalysisResult, len(files))
	var resultsMu sync.Mutex

	record := func(path string, res *index.AnalysisResult) {
		resultsMu.Lock()
		results[path] = res
		resultsMu.Unlock()
	}

	if !e.useParallel {
		for _, item := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if res := e.analyzeOne(ctx, item); res != nil {
				record(item.Path, res)
			}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, item := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if res := e.analyzeOne(gctx, item); res != nil {
				record(item.Path, res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// analyzeOne produces one file's analysis result, or nil when the file
// must be skipped.
func (e *Engine) analyzeOne(ctx context.Context, item source.Item) *index.AnalysisResult {
	hash := xxhash.Sum64(item.Content)

	e.mu.Lock()
	cached, ok := e.analyses[item.Path]
	e.mu.Unlock()
	if ok && cached.hash == hash {
		return cached.res
	}

	parsed, err := e.parser.Parse(ctx, item.Path, item.Content)
	if err != nil {
		e.logger.Warn("skipping file: parse failed", "path", item.Path, "error", err)
		return nil
	}
	res, err := analyze.Analyze(parsed)
	if err != nil {
		e.logger.Warn("skipping file: analysis failed", "path", item.Path, "error", err)
		return nil
	}

	e.mu.Lock()
	e.analyses[item.Path] = cachedAnalysis{hash: hash, res: res}
	e.mu.Unlock()
	return res
}
