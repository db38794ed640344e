// Package index aggregates the analyzers' outputs into the queryable fact
// base for a workspace: symbols, references, type definitions, function
// signatures, scope trees, and export sets.
package index

import "github.com/jward/loupe/internal/lsp"

// SymbolKind classifies an indexed definition.
type SymbolKind string

const (
	SymbolFunction SymbolKind = "function"
	SymbolType     SymbolKind = "type"
	SymbolVariable SymbolKind = "variable"
	SymbolConstant SymbolKind = "constant"
	SymbolModule   SymbolKind = "module"
	SymbolMacro    SymbolKind = "macro"
)

// Symbol is one named definition.
type Symbol struct {
	Name      string     `json:"name"`
	Kind      SymbolKind `json:"kind"`
	Range     lsp.Range  `json:"range"`
	ScopeID   int        `json:"scope_id"`
	Doc       string     `json:"doc,omitempty"`
	Signature string     `json:"signature,omitempty"`
	URI       string     `json:"uri"`
}

// ReferenceKind classifies a use of a name.
type ReferenceKind string

const (
	RefVariable ReferenceKind = "variable"
	RefCall     ReferenceKind = "function_call"
	RefType     ReferenceKind = "type_reference"
	RefModule   ReferenceKind = "module_reference"
)

// Reference is one use of a name at a location.
type Reference struct {
	Name  string        `json:"name"`
	Range lsp.Range     `json:"range"`
	URI   string        `json:"uri"`
	Kind  ReferenceKind `json:"kind"`
}

// TypeKind classifies a type definition.
type TypeKind string

const (
	TypeStruct    TypeKind = "struct"
	TypeAbstract  TypeKind = "abstract"
	TypePrimitive TypeKind = "primitive"
	TypeUnion     TypeKind = "union"
)

// TypeDefinition is one struct/abstract/primitive/union definition,
// attributed to a module.
type TypeDefinition struct {
	Module string    `json:"module"`
	Name   string    `json:"name"`
	Kind   TypeKind  `json:"kind"`
	Doc    string    `json:"doc,omitempty"`
	URI    string    `json:"uri"`
	Range  lsp.Range `json:"range"`
}

// Parameter is one function parameter with an optional type annotation.
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// FunctionSignature is one method signature attributed to a module.
// Multiple-dispatch methods share a (module, name) key.
type FunctionSignature struct {
	Module     string      `json:"module"`
	Name       string      `json:"name"`
	Parameters []Parameter `json:"parameters"`
	ReturnType string      `json:"return_type,omitempty"`
	Doc        string      `json:"doc,omitempty"`
	URI        string      `json:"uri"`
	Range      lsp.Range   `json:"range"`
}

// ScopeNode is one lexical scope. Child ranges are properly nested inside
// the parent range; only function and module bodies introduce scopes.
type ScopeNode struct {
	ID       int          `json:"id"`
	ParentID *int         `json:"parent_id,omitempty"`
	Range    lsp.Range    `json:"range"`
	URI      string       `json:"uri"`
	Children []*ScopeNode `json:"children,omitempty"`
}

// ScopeTree is the scope hierarchy of one file. Root covers the whole
// file (module-level scope).
type ScopeTree struct {
	URI  string     `json:"uri"`
	Root *ScopeNode `json:"root"`
}

// NodeByID finds a scope node by id, or nil.
func (t *ScopeTree) NodeByID(id int) *ScopeNode {
	if t == nil || t.Root == nil {
		return nil
	}
	stack := []*ScopeNode{t.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.ID == id {
			return n
		}
		stack = append(stack, n.Children...)
	}
	return nil
}

// InnermostAt returns the deepest scope containing pos, or nil.
func (t *ScopeTree) InnermostAt(pos lsp.Position) *ScopeNode {
	if t == nil || t.Root == nil || !t.Root.Range.Contains(pos) {
		return nil
	}
	node := t.Root
	for {
		descended := false
		for _, child := range node.Children {
			if child.Range.Contains(pos) {
				node = child
				descended = true
				break
			}
		}
		if !descended {
			return node
		}
	}
}

// AnalysisResult is the combined output of the six analyzer passes for one
// file. Transient: consumed immediately by Index.MergeFile.
type AnalysisResult struct {
	Symbols    []Symbol
	References []Reference
	Types      []TypeDefinition
	Signatures []FunctionSignature
	Scopes     *ScopeTree

	// Exports is the file's flat export set; ExportsByModule keys the
	// same names by the nested-module context they were declared in.
	Exports         []string
	ExportsByModule map[string][]string

	// Modules lists the composed module names declared in the file.
	Modules []string
}
