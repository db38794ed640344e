package query

import (
	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/lsp"
)

// ReferenceQuery performs flat name-based reference lookups.
type ReferenceQuery struct {
	Index *index.Index
}

// Locations returns the locations of every reference to name. With
// includeDeclaration, the resolved definition location is unioned in,
// unless a reference at the exact same position is already present.
func (q ReferenceQuery) Locations(name string, includeDeclaration bool) []lsp.Location {
	var locs []lsp.Location
	for _, ref := range q.Index.FindReferences(name) {
		locs = append(locs, lsp.Location{URI: ref.URI, Range: ref.Range})
	}
	if includeDeclaration {
		if sym, ok := q.Index.FindSymbol(name); ok {
			decl := lsp.Location{URI: sym.URI, Range: sym.Range}
			if !containsLocation(locs, decl) {
				locs = append(locs, decl)
			}
		}
	}
	return locs
}

func containsLocation(locs []lsp.Location, loc lsp.Location) bool {
	for _, l := range locs {
		if l == loc {
			return true
		}
	}
	return false
}

// TypeQuery performs module-qualified type lookups.
type TypeQuery struct {
	Index *index.Index
}

// Find looks up one type definition.
func (q TypeQuery) Find(module, name string) (index.TypeDefinition, bool) {
	return q.Index.FindType(module, name)
}

// InModule lists every type definition in module.
func (q TypeQuery) InModule(module string) []index.TypeDefinition {
	return q.Index.ModuleTypes(module)
}
