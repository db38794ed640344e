package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/lsp"
)

func scopedIndex() *index.Index {
	parentID := 0
	inner := &index.ScopeNode{
		ID:       1,
		ParentID: &parentID,
		Range:    lsp.Range{Start: lsp.Position{Line: 2}, End: lsp.Position{Line: 6}},
		URI:      "a.jl",
	}
	tree := &index.ScopeTree{URI: "a.jl", Root: &index.ScopeNode{
		ID:       0,
		Range:    lsp.Range{Start: lsp.Position{Line: 0}, End: lsp.Position{Line: 10}},
		URI:      "a.jl",
		Children: []*index.ScopeNode{inner},
	}}

	ix := index.New()
	ix.MergeFile("a.jl", &index.AnalysisResult{
		Symbols: []index.Symbol{
			{Name: "x", Kind: index.SymbolVariable, ScopeID: 0, URI: "a.jl",
				Range: lsp.Range{Start: lsp.Position{Line: 0}, End: lsp.Position{Line: 0, Character: 1}}},
			{Name: "x", Kind: index.SymbolVariable, ScopeID: 1, URI: "a.jl",
				Range: lsp.Range{Start: lsp.Position{Line: 3}, End: lsp.Position{Line: 3, Character: 1}}},
			{Name: "helper", Kind: index.SymbolFunction, ScopeID: 0, URI: "a.jl",
				Range: lsp.Range{Start: lsp.Position{Line: 8}, End: lsp.Position{Line: 8, Character: 6}}},
		},
		Scopes: tree,
	})
	ix.MergeFile("b.jl", &index.AnalysisResult{
		Symbols: []index.Symbol{
			{Name: "shared", Kind: index.SymbolFunction, ScopeID: 0, URI: "b.jl"},
		},
	})
	return ix
}

func TestResolveSymbolAt_InnermostScopeWins(t *testing.T) {
	q := SymbolQuery{Index: scopedIndex()}

	sym, err := q.ResolveSymbolAt("x", "a.jl", lsp.Position{Line: 4})
	require.NoError(t, err)
	assert.Equal(t, 1, sym.ScopeID)

	sym, err = q.ResolveSymbolAt("x", "a.jl", lsp.Position{Line: 8})
	require.NoError(t, err)
	assert.Equal(t, 0, sym.ScopeID)
}

func TestResolveSymbolAt_OuterScopeVisibleFromInner(t *testing.T) {
	q := SymbolQuery{Index: scopedIndex()}

	sym, err := q.ResolveSymbolAt("helper", "a.jl", lsp.Position{Line: 4})
	require.NoError(t, err)
	assert.Equal(t, "helper", sym.Name)
	assert.Equal(t, 0, sym.ScopeID)
}

func TestResolveSymbolAt_GlobalFallbackAcrossFiles(t *testing.T) {
	q := SymbolQuery{Index: scopedIndex()}

	sym, err := q.ResolveSymbolAt("shared", "a.jl", lsp.Position{Line: 1})
	require.NoError(t, err)
	assert.Equal(t, "b.jl", sym.URI)
}

func TestResolveSymbolAt_QualifiedLastSegmentFallback(t *testing.T) {
	q := SymbolQuery{Index: scopedIndex()}

	sym, err := q.ResolveSymbolAt("Other.shared", "a.jl", lsp.Position{Line: 1})
	require.NoError(t, err)
	assert.Equal(t, "shared", sym.Name)
}

func TestResolveSymbolAt_NotFound(t *testing.T) {
	q := SymbolQuery{Index: scopedIndex()}

	_, err := q.ResolveSymbolAt("nope", "a.jl", lsp.Position{Line: 1})
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestReferenceQuery_IncludeDeclaration(t *testing.T) {
	ix := index.New()
	declRange := lsp.Range{Start: lsp.Position{Line: 0, Character: 9}, End: lsp.Position{Line: 0, Character: 10}}
	useRange := lsp.Range{Start: lsp.Position{Line: 3, Character: 0}, End: lsp.Position{Line: 3, Character: 1}}
	ix.MergeFile("a.jl", &index.AnalysisResult{
		Symbols: []index.Symbol{
			{Name: "f", Kind: index.SymbolFunction, Range: declRange, URI: "a.jl"},
		},
		References: []index.Reference{
			{Name: "f", Kind: index.RefCall, Range: useRange, URI: "a.jl"},
		},
	})
	q := ReferenceQuery{Index: ix}

	locs := q.Locations("f", false)
	require.Len(t, locs, 1)
	assert.Equal(t, useRange, locs[0].Range)

	locs = q.Locations("f", true)
	require.Len(t, locs, 2)

	// Including the declaration twice must not duplicate it.
	ix.MergeFile("b.jl", &index.AnalysisResult{References: []index.Reference{
		{Name: "f", Kind: index.RefCall, Range: declRange, URI: "a.jl"},
	}})
	locs = q.Locations("f", true)
	assert.Len(t, locs, 2)
}
