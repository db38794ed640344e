package index

import (
	"sort"
	"strings"
)

// Index is the aggregated fact base for a workspace. It is built by a
// pipeline run and treated as immutable afterwards: a re-index produces a
// new Index rather than mutating one queries may be reading.
type Index struct {
	symbolsByName map[string][]Symbol
	refsByName    map[string][]Reference
	typesByModule map[string][]TypeDefinition
	sigsByModule  map[string][]FunctionSignature
	exports       map[string][]string
	scopesByURI   map[string]*ScopeTree
	symbolsByURI  map[string][]Symbol

	// moduleOrder preserves first-seen module ordering for listings.
	moduleOrder []string
}

// New creates an empty Index.
func New() *Index {
	return &Index{
		symbolsByName: make(map[string][]Symbol),
		refsByName:    make(map[string][]Reference),
		typesByModule: make(map[string][]TypeDefinition),
		sigsByModule:  make(map[string][]FunctionSignature),
		exports:       make(map[string][]string),
		scopesByURI:   make(map[string]*ScopeTree),
		symbolsByURI:  make(map[string][]Symbol),
	}
}

// MergeFile folds one file's analysis result into the Index.
func (ix *Index) MergeFile(path string, res *AnalysisResult) {
	ix.mergeFile(path, res, nil)
}

// MergeFileFiltered folds one file's analysis result into the Index,
// retaining only symbols whose name appears in allowed. References,
// scopes, types, and signatures are kept unfiltered: they are keyed by
// module or file and do not contribute completion/hover noise the way
// private dependency symbols do.
func (ix *Index) MergeFileFiltered(path string, res *AnalysisResult, allowed map[string]bool) {
	ix.mergeFile(path, res, allowed)
}

func (ix *Index) mergeFile(path string, res *AnalysisResult, allowed map[string]bool) {
	if res == nil {
		return
	}
	for _, sym := range res.Symbols {
		if allowed != nil && !allowed[sym.Name] {
			continue
		}
		ix.symbolsByName[sym.Name] = append(ix.symbolsByName[sym.Name], sym)
		ix.symbolsByURI[path] = append(ix.symbolsByURI[path], sym)
	}
	for _, ref := range res.References {
		ix.refsByName[ref.Name] = append(ix.refsByName[ref.Name], ref)
	}
	for _, td := range res.Types {
		ix.addModule(td.Module)
		ix.typesByModule[td.Module] = append(ix.typesByModule[td.Module], td)
	}
	for _, sig := range res.Signatures {
		ix.addModule(sig.Module)
		ix.sigsByModule[sig.Module] = append(ix.sigsByModule[sig.Module], sig)
	}
	if res.Scopes != nil {
		ix.scopesByURI[path] = res.Scopes
	}
	for _, module := range res.Modules {
		ix.addModule(module)
	}
	for module, names := range res.ExportsByModule {
		ix.AddExports(module, names)
	}
}

// AddExports records module's export set, de-duplicating names.
func (ix *Index) AddExports(module string, names []string) {
	if len(names) == 0 {
		return
	}
	ix.addModule(module)
	seen := make(map[string]bool, len(ix.exports[module]))
	for _, existing := range ix.exports[module] {
		seen[existing] = true
	}
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			ix.exports[module] = append(ix.exports[module], name)
		}
	}
}

func (ix *Index) addModule(module string) {
	if module == "" {
		return
	}
	for _, m := range ix.moduleOrder {
		if m == module {
			return
		}
	}
	ix.moduleOrder = append(ix.moduleOrder, module)
}

// FindSymbol returns the first indexed symbol with the given name.
// Multiple-dispatch methods share a name; resolving to the first indexed
// match is an accepted ambiguity.
func (ix *Index) FindSymbol(name string) (Symbol, bool) {
	syms := ix.symbolsByName[name]
	if len(syms) == 0 {
		return Symbol{}, false
	}
	return syms[0], true
}

// FindSymbols returns every indexed symbol with the given name.
func (ix *Index) FindSymbols(name string) []Symbol {
	return ix.symbolsByName[name]
}

// FindSymbolsWithPrefix returns symbols whose name starts with prefix,
// sorted by name for deterministic presentation.
func (ix *Index) FindSymbolsWithPrefix(prefix string) []Symbol {
	var out []Symbol
	for name, syms := range ix.symbolsByName {
		if strings.HasPrefix(name, prefix) {
			out = append(out, syms...)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].URI < out[j].URI
	})
	return out
}

// SymbolsInFile returns the symbols indexed for one file.
func (ix *Index) SymbolsInFile(uri string) []Symbol {
	return ix.symbolsByURI[uri]
}

// FindType looks up a type definition by module and name.
func (ix *Index) FindType(module, name string) (TypeDefinition, bool) {
	for _, td := range ix.typesByModule[module] {
		if td.Name == name {
			return td, true
		}
	}
	return TypeDefinition{}, false
}

// FindSignatures returns every signature for (module, name); multiple
// entries are multiple-dispatch methods.
func (ix *Index) FindSignatures(module, name string) []FunctionSignature {
	var out []FunctionSignature
	for _, sig := range ix.sigsByModule[module] {
		if sig.Name == name {
			out = append(out, sig)
		}
	}
	return out
}

// FindReferences returns every reference to name across the workspace.
func (ix *Index) FindReferences(name string) []Reference {
	return ix.refsByName[name]
}

// AllSymbols returns all indexed symbols, ordered by name.
func (ix *Index) AllSymbols() []Symbol {
	names := make([]string, 0, len(ix.symbolsByName))
	for name := range ix.symbolsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []Symbol
	for _, name := range names {
		out = append(out, ix.symbolsByName[name]...)
	}
	return out
}

// AllReferences returns all indexed references, ordered by name.
func (ix *Index) AllReferences() []Reference {
	names := make([]string, 0, len(ix.refsByName))
	for name := range ix.refsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []Reference
	for _, name := range names {
		out = append(out, ix.refsByName[name]...)
	}
	return out
}

// AllModules returns every known module in first-seen order.
func (ix *Index) AllModules() []string {
	out := make([]string, len(ix.moduleOrder))
	copy(out, ix.moduleOrder)
	return out
}

// HasModule reports whether module is known to the Index.
func (ix *Index) HasModule(module string) bool {
	for _, m := range ix.moduleOrder {
		if m == module {
			return true
		}
	}
	return false
}

// ModuleFunctions returns the function signatures declared in module.
func (ix *Index) ModuleFunctions(module string) []FunctionSignature {
	return ix.sigsByModule[module]
}

// ModuleTypes returns the type definitions declared in module.
func (ix *Index) ModuleTypes(module string) []TypeDefinition {
	return ix.typesByModule[module]
}

// ModuleExports returns module's export set.
func (ix *Index) ModuleExports(module string) []string {
	return ix.exports[module]
}

// Files returns every file path the Index has facts for, sorted.
func (ix *Index) Files() []string {
	seen := make(map[string]bool, len(ix.symbolsByURI))
	for uri := range ix.symbolsByURI {
		seen[uri] = true
	}
	for uri := range ix.scopesByURI {
		seen[uri] = true
	}
	out := make([]string, 0, len(seen))
	for uri := range seen {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

// ScopeTreeFor returns the scope tree of one file, or nil.
func (ix *Index) ScopeTreeFor(uri string) *ScopeTree {
	return ix.scopesByURI[uri]
}

// Stats summarizes Index contents, used for determinism checks and the
// CLI stats output.
type Stats struct {
	Symbols    int `json:"symbols"`
	References int `json:"references"`
	Types      int `json:"types"`
	Signatures int `json:"signatures"`
	Exports    int `json:"exports"`
	Modules    int `json:"modules"`
	Files      int `json:"files"`
}

// Stats counts the Index contents.
func (ix *Index) Stats() Stats {
	var st Stats
	for _, syms := range ix.symbolsByName {
		st.Symbols += len(syms)
	}
	for _, refs := range ix.refsByName {
		st.References += len(refs)
	}
	for _, tds := range ix.typesByModule {
		st.Types += len(tds)
	}
	for _, sigs := range ix.sigsByModule {
		st.Signatures += len(sigs)
	}
	for _, names := range ix.exports {
		st.Exports += len(names)
	}
	st.Modules = len(ix.moduleOrder)
	st.Files = len(ix.symbolsByURI)
	return st
}
