// Package query implements position-to-node resolution, scope-aware name
// resolution, completion context classification, and reference/type
// lookups over the Index.
package query

import (
	"errors"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/lsp"
	"github.com/jward/loupe/internal/parser"
)

var (
	// ErrSymbolNotFound is returned when a name resolves to nothing.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrInvalidPosition is returned when a position falls outside the
	// document.
	ErrInvalidPosition = errors.New("invalid position")
)

// NodeAt finds the smallest node whose span contains pos: a depth-first
// containment search where the first matching child wins, so the answer
// is deterministic. Descent is iterative; malformed input can nest
// arbitrarily deep.
func NodeAt(root *sitter.Node, pos lsp.Position) (*sitter.Node, error) {
	if root == nil || !parser.NodeContains(root, pos) {
		return nil, ErrInvalidPosition
	}
	node := root
	for {
		descended := false
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child != nil && parser.NodeContains(child, pos) {
				node = child
				descended = true
				break
			}
		}
		if !descended {
			return node, nil
		}
	}
}

// SymbolNameAt extracts the symbol name under pos. Identifiers yield
// their own text; an identifier inside a qualified access yields the
// qualified name (`Module.function`).
func SymbolNameAt(item *parser.ParsedItem, pos lsp.Position) (string, *sitter.Node, error) {
	node, err := NodeAt(item.Root(), pos)
	if err != nil {
		return "", nil, err
	}
	if parser.Classify(node.Type()) != parser.ClassIdentifier {
		// The position may sit on punctuation inside an identifier's
		// parent; accept the nearest enclosing identifier.
		if parent := node.Parent(); parent != nil && parser.Classify(parent.Type()) == parser.ClassIdentifier {
			node = parent
		} else {
			return "", node, ErrSymbolNotFound
		}
	}
	name := node.Content(item.Content)
	if parent := node.Parent(); parent != nil && parser.Classify(parent.Type()) == parser.ClassFieldAccess {
		name = parent.Content(item.Content)
	}
	return name, node, nil
}

// SymbolQuery resolves names against the Index with lexical scoping.
type SymbolQuery struct {
	Index *index.Index
}

// ResolveSymbolAt resolves name as seen from (uri, pos): first the
// nearest enclosing scope containing a local definition of the name, then
// a global lookup. When multiple globals share the name (multiple
// dispatch), the first indexed match wins — an accepted ambiguity.
func (q SymbolQuery) ResolveSymbolAt(name, uri string, pos lsp.Position) (index.Symbol, error) {
	if tree := q.Index.ScopeTreeFor(uri); tree != nil {
		local := q.Index.SymbolsInFile(uri)
		for scope := tree.InnermostAt(pos); scope != nil; scope = parentScope(tree, scope) {
			for _, sym := range local {
				if sym.Name == name && sym.ScopeID == scope.ID {
					return sym, nil
				}
			}
		}
	}
	if sym, ok := q.Index.FindSymbol(name); ok {
		return sym, nil
	}
	// Qualified names fall back to their final segment.
	if base := lastSegment(name); base != name {
		if sym, ok := q.Index.FindSymbol(base); ok {
			return sym, nil
		}
	}
	return index.Symbol{}, ErrSymbolNotFound
}

func parentScope(tree *index.ScopeTree, scope *index.ScopeNode) *index.ScopeNode {
	if scope.ParentID == nil {
		return nil
	}
	return tree.NodeByID(*scope.ParentID)
}

func lastSegment(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
