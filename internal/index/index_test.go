package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/loupe/internal/lsp"
)

func rangeAt(line, start, end int) lsp.Range {
	return lsp.Range{
		Start: lsp.Position{Line: line, Character: start},
		End:   lsp.Position{Line: line, Character: end},
	}
}

func testResult() *AnalysisResult {
	return &AnalysisResult{
		Symbols: []Symbol{
			{Name: "compute", Kind: SymbolFunction, Range: rangeAt(0, 9, 16), URI: "a.jl"},
			{Name: "compact", Kind: SymbolFunction, Range: rangeAt(4, 9, 16), URI: "a.jl"},
			{Name: "x", Kind: SymbolVariable, Range: rangeAt(8, 0, 1), URI: "a.jl"},
		},
		References: []Reference{
			{Name: "compute", Kind: RefCall, Range: rangeAt(10, 0, 7), URI: "a.jl"},
		},
		Types: []TypeDefinition{
			{Module: "A", Name: "Point", Kind: TypeStruct, URI: "a.jl", Range: rangeAt(12, 0, 20)},
		},
		Signatures: []FunctionSignature{
			{Module: "A", Name: "compute", Parameters: []Parameter{{Name: "x", Type: "Int"}}, URI: "a.jl"},
		},
		Scopes:          &ScopeTree{URI: "a.jl", Root: &ScopeNode{ID: 0, Range: rangeAt(0, 0, 100)}},
		Exports:         []string{"compute"},
		ExportsByModule: map[string][]string{"A": {"compute"}},
		Modules:         []string{"A"},
	}
}

func TestMergeFile_RegistersAllFacts(t *testing.T) {
	ix := New()
	ix.MergeFile("a.jl", testResult())

	sym, ok := ix.FindSymbol("compute")
	require.True(t, ok)
	assert.Equal(t, SymbolFunction, sym.Kind)
	assert.Equal(t, "a.jl", sym.URI)

	assert.Len(t, ix.FindReferences("compute"), 1)
	assert.True(t, ix.HasModule("A"))
	assert.Equal(t, []string{"compute"}, ix.ModuleExports("A"))

	td, ok := ix.FindType("A", "Point")
	require.True(t, ok)
	assert.Equal(t, TypeStruct, td.Kind)

	require.NotNil(t, ix.ScopeTreeFor("a.jl"))
	assert.Nil(t, ix.ScopeTreeFor("b.jl"))
}

func TestMergeFileFiltered_DropsUnexportedSymbols(t *testing.T) {
	ix := New()
	ix.MergeFileFiltered("a.jl", testResult(), map[string]bool{"compute": true})

	_, ok := ix.FindSymbol("compute")
	assert.True(t, ok)
	_, ok = ix.FindSymbol("compact")
	assert.False(t, ok)
	_, ok = ix.FindSymbol("x")
	assert.False(t, ok)

	// Non-symbol facts are not filtered.
	assert.Len(t, ix.FindReferences("compute"), 1)
	assert.True(t, ix.HasModule("A"))
}

func TestFindSymbolsWithPrefix_SortedByName(t *testing.T) {
	ix := New()
	ix.MergeFile("a.jl", testResult())

	syms := ix.FindSymbolsWithPrefix("comp")
	require.Len(t, syms, 2)
	assert.Equal(t, "compact", syms[0].Name)
	assert.Equal(t, "compute", syms[1].Name)

	assert.Empty(t, ix.FindSymbolsWithPrefix("zz"))
}

func TestFindSymbol_FirstIndexedWinsForDuplicates(t *testing.T) {
	ix := New()
	ix.MergeFile("a.jl", &AnalysisResult{Symbols: []Symbol{
		{Name: "f", Kind: SymbolFunction, URI: "a.jl"},
	}})
	ix.MergeFile("b.jl", &AnalysisResult{Symbols: []Symbol{
		{Name: "f", Kind: SymbolFunction, URI: "b.jl"},
	}})

	sym, ok := ix.FindSymbol("f")
	require.True(t, ok)
	assert.Equal(t, "a.jl", sym.URI)
	assert.Len(t, ix.FindSymbols("f"), 2)
}

func TestAddExports_Dedupes(t *testing.T) {
	ix := New()
	ix.AddExports("A", []string{"f", "g"})
	ix.AddExports("A", []string{"g", "h"})

	assert.Equal(t, []string{"f", "g", "h"}, ix.ModuleExports("A"))
}

func TestAllModules_FirstSeenOrder(t *testing.T) {
	ix := New()
	ix.AddExports("B", []string{"x"})
	ix.AddExports("A", []string{"y"})
	ix.AddExports("B", []string{"z"})

	assert.Equal(t, []string{"B", "A"}, ix.AllModules())
}

func TestStats_CountsEverything(t *testing.T) {
	ix := New()
	ix.MergeFile("a.jl", testResult())

	st := ix.Stats()
	assert.Equal(t, 3, st.Symbols)
	assert.Equal(t, 1, st.References)
	assert.Equal(t, 1, st.Types)
	assert.Equal(t, 1, st.Signatures)
	assert.Equal(t, 1, st.Exports)
	assert.Equal(t, 1, st.Modules)
	assert.Equal(t, 1, st.Files)
}

func TestFiles_SortedUnion(t *testing.T) {
	ix := New()
	ix.MergeFile("b.jl", testResult())
	ix.MergeFile("a.jl", &AnalysisResult{
		Scopes: &ScopeTree{URI: "a.jl", Root: &ScopeNode{ID: 0}},
	})

	assert.Equal(t, []string{"a.jl", "b.jl"}, ix.Files())
}

func TestScopeTree_InnermostAt(t *testing.T) {
	child := &ScopeNode{
		ID:    1,
		Range: lsp.Range{Start: lsp.Position{Line: 2}, End: lsp.Position{Line: 5}},
	}
	parentID := 0
	child.ParentID = &parentID
	tree := &ScopeTree{Root: &ScopeNode{
		ID:       0,
		Range:    lsp.Range{Start: lsp.Position{Line: 0}, End: lsp.Position{Line: 10}},
		Children: []*ScopeNode{child},
	}}

	inner := tree.InnermostAt(lsp.Position{Line: 3})
	require.NotNil(t, inner)
	assert.Equal(t, 1, inner.ID)

	outer := tree.InnermostAt(lsp.Position{Line: 8})
	require.NotNil(t, outer)
	assert.Equal(t, 0, outer.ID)

	assert.Nil(t, tree.InnermostAt(lsp.Position{Line: 20}))
	assert.Same(t, child, tree.NodeByID(1))
	assert.Nil(t, tree.NodeByID(9))
}
