package parser

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/loupe/internal/lsp"
)

// Walk visits node and all descendants in document order using an explicit
// work stack. Deeply nested or malformed input is expected here, so native
// recursion is avoided. visit returning false prunes the subtree.
func Walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	stack := []*sitter.Node{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(n) {
			continue
		}
		// Push children in reverse so the leftmost child pops first.
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if child := n.Child(i); child != nil {
				stack = append(stack, child)
			}
		}
	}
}

// NamedChildren returns the named children of node as a slice.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	count := int(node.NamedChildCount())
	children := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if child := node.NamedChild(i); child != nil {
			children = append(children, child)
		}
	}
	return children
}

// FirstChildOfClass returns node's first (depth-one) child of the given
// class, or nil.
func FirstChildOfClass(node *sitter.Node, class NodeClass) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && Classify(child.Type()) == class {
			return child
		}
	}
	return nil
}

// NameOf extracts the defined name of a definition node. Returns "" when
// no name is present (malformed input).
func NameOf(node *sitter.Node, content []byte) string {
	if name := DefinitionNameNode(node); name != nil {
		return nameText(name, content)
	}
	return ""
}

// DefinitionNameNode returns the identifier (or qualified access) node in
// a definition's name position: the "name" field when the grammar exposes
// one, otherwise the defining identifier reached by descending through
// the header nesting. Function headers nest the name under signature and
// call nodes (`function f(x)` is function_definition → signature → call →
// identifier), and type annotations and where clauses wrap the call
// further; the descent crosses all of those but never another definition.
func DefinitionNameNode(node *sitter.Node) *sitter.Node {
	if named := node.ChildByFieldName("name"); named != nil {
		switch Classify(named.Type()) {
		case ClassIdentifier, ClassFieldAccess:
			return named
		}
		return DefinitionNameNode(named)
	}
	if Classify(node.Type()) == ClassAssignment {
		// Only the left side can name anything; a plain identifier on the
		// right is a use, not a definition.
		lhs := node.Child(0)
		if lhs == nil {
			return nil
		}
		switch Classify(lhs.Type()) {
		case ClassIdentifier, ClassFieldAccess:
			return lhs
		case ClassCall:
			if head := lhs.Child(0); head != nil {
				switch Classify(head.Type()) {
				case ClassIdentifier, ClassFieldAccess:
					return head
				}
			}
		}
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch Classify(child.Type()) {
		case ClassIdentifier, ClassFieldAccess:
			return child
		case ClassCall:
			// The callee names the function, in long and short form alike.
			if head := child.Child(0); head != nil {
				switch Classify(head.Type()) {
				case ClassIdentifier, ClassFieldAccess:
					return head
				}
				return DefinitionNameNode(child)
			}
		}
		if isHeaderWrapper(child.Type()) {
			if found := DefinitionNameNode(child); found != nil {
				return found
			}
		}
	}
	return nil
}

// isHeaderWrapper reports whether kind is one of the nodes the grammar
// nests between a definition and its defining identifier.
func isHeaderWrapper(kind string) bool {
	switch kind {
	case "signature", "type_head", "typed_expression", "where_expression",
		"parenthesized_expression", "unary_typed_expression":
		return true
	}
	return false
}

func nameText(node *sitter.Node, content []byte) string {
	return node.Content(content)
}

// RangeOf converts a node span to a protocol Range.
func RangeOf(node *sitter.Node) lsp.Range {
	start := node.StartPoint()
	end := node.EndPoint()
	return lsp.Range{
		Start: lsp.Position{Line: int(start.Row), Character: int(start.Column)},
		End:   lsp.Position{Line: int(end.Row), Character: int(end.Column)},
	}
}

// NodeContains reports whether the node's span contains pos.
func NodeContains(node *sitter.Node, pos lsp.Position) bool {
	return RangeOf(node).Contains(pos)
}
