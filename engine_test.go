package loupe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/source"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	return e
}

func runFiles(t *testing.T, e *Engine, files map[string]string) *Index {
	t.Helper()
	items := make([]source.Item, 0, len(files))
	for path, text := range files {
		items = append(items, source.FromString(path, text))
	}
	ix, err := e.Run(context.Background(), items)
	require.NoError(t, err)
	return ix
}

func TestRun_ExtractsFunctionSymbol(t *testing.T) {
	e := newTestEngine(t)
	ix := runFiles(t, e, map[string]string{
		"a.jl": "function my_function(x)\n    return x + 1\nend\n",
	})

	sym, ok := ix.FindSymbol("my_function")
	require.True(t, ok)
	assert.Equal(t, index.SymbolFunction, sym.Kind)
	assert.Equal(t, 0, sym.Range.Start.Line)
	assert.Equal(t, "a.jl", sym.URI)
}

func TestRun_SameInputSameCounts(t *testing.T) {
	files := map[string]string{
		"a.jl": "f(x) = x + 1\ng(y) = f(y) * 2\n",
		"b.jl": "struct Point\n    x\nend\n",
	}

	first := runFiles(t, newTestEngine(t), files)
	second := runFiles(t, newTestEngine(t), files)
	assert.Equal(t, first.Stats(), second.Stats())
}

func TestRun_SerialMatchesParallel(t *testing.T) {
	files := map[string]string{
		"a.jl": "f(x) = x + 1\n",
		"b.jl": "g(y) = f(y)\n",
		"c.jl": "const LIMIT = 3\n",
	}

	parallel := runFiles(t, newTestEngine(t), files)
	serial := runFiles(t, newTestEngine(t, WithParallel(false)), files)
	assert.Equal(t, parallel.Stats(), serial.Stats())
}

func TestRun_DependencySymbolsFilteredToExports(t *testing.T) {
	e := newTestEngine(t)
	ix := runFiles(t, e, map[string]string{
		"packages/Foo/src/Foo.jl":  "module Foo\nexport bar\nend\n",
		"packages/Foo/src/util.jl": "bar() = 1\nbaz() = 2\n",
	})

	_, ok := ix.FindSymbol("bar")
	assert.True(t, ok, "exported dependency symbols are kept")
	_, ok = ix.FindSymbol("baz")
	assert.False(t, ok, "unexported dependency symbols are filtered")
	assert.Equal(t, []string{"bar"}, ix.ModuleExports("Foo"))
}

func TestRun_WorkspaceFilesAreNeverFiltered(t *testing.T) {
	e := newTestEngine(t)
	ix := runFiles(t, e, map[string]string{
		"src/app.jl": "internal_helper() = 1\n",
	})

	_, ok := ix.FindSymbol("internal_helper")
	assert.True(t, ok)
}

func TestRun_MalformedFileDoesNotAbortOthers(t *testing.T) {
	e := newTestEngine(t)
	ix := runFiles(t, e, map[string]string{
		"broken.jl": "function oops(x\n    x +\n",
		"good.jl":   "fine() = 1\n",
	})

	_, ok := ix.FindSymbol("fine")
	assert.True(t, ok)
}

func TestRunWithIndex_LayersOverSnapshotBase(t *testing.T) {
	base := index.New()
	base.AddExports("Statistics", []string{"mean"})

	e := newTestEngine(t)
	ix, err := e.RunWithIndex(context.Background(), []source.Item{
		source.FromString("a.jl", "f(x) = x\n"),
	}, base)
	require.NoError(t, err)

	_, ok := ix.FindSymbol("f")
	assert.True(t, ok)
	assert.Equal(t, []string{"mean"}, ix.ModuleExports("Statistics"))
}

func TestRun_FreshIndexPerRun(t *testing.T) {
	e := newTestEngine(t)
	first := runFiles(t, e, map[string]string{"a.jl": "f(x) = x\n"})
	second := runFiles(t, e, map[string]string{"b.jl": "g(y) = y\n"})

	_, ok := second.FindSymbol("f")
	assert.False(t, ok, "a new Run starts from an empty Index")
	_, ok = first.FindSymbol("f")
	assert.True(t, ok, "the old Index is untouched")
}
