package analyze

import (
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/parser"
)

// References extracts every use of a name in the file. An identifier is a
// reference unless it occupies the name slot of a definition node; the
// callee of a call expression is reported as a FunctionCall reference.
func References(item *parser.ParsedItem) []index.Reference {
	var refs []index.Reference

	parser.Walk(item.Root(), func(node *sitter.Node) bool {
		if parser.Classify(node.Type()) != parser.ClassIdentifier {
			return true
		}
		if isDefinitionName(node) {
			return true
		}
		refs = append(refs, index.Reference{
			Name:  node.Content(item.Content),
			Range: parser.RangeOf(node),
			URI:   item.Path,
			Kind:  referenceKind(node, item.Content),
		})
		return true
	})
	return refs
}

// isDefinitionName reports whether the identifier occupies the name slot
// of its nearest enclosing definition. The climb crosses whatever header
// nesting the grammar puts between them (signature, call, type
// annotations); DefinitionNameNode is the single authority on which
// identifier a definition names.
func isDefinitionName(node *sitter.Node) bool {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		class := parser.Classify(parent.Type())
		if class.IsDefinition() || class == parser.ClassMacro {
			return sameNode(parser.DefinitionNameNode(parent), node)
		}
		if class == parser.ClassSourceFile {
			return false
		}
	}
	return false
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

// referenceKind classifies a reference by its syntactic position.
func referenceKind(node *sitter.Node, content []byte) index.ReferenceKind {
	parent := node.Parent()
	if parent == nil {
		return index.RefVariable
	}
	switch parser.Classify(parent.Type()) {
	case parser.ClassCall:
		if sameNode(parent.Child(0), node) {
			return index.RefCall
		}
	case parser.ClassImport:
		return index.RefModule
	case parser.ClassFieldAccess:
		// The qualifier of `Module.name` is a module reference when it
		// follows the capitalized-module naming convention.
		if sameNode(parent.Child(0), node) && startsUpper(node.Content(content)) {
			return index.RefModule
		}
	}
	if isTypePosition(node) {
		return index.RefType
	}
	return index.RefVariable
}

// isTypePosition reports whether the identifier sits in a type annotation
// (`x::T`, `::T`) or a subtype clause (`Foo <: Bar`).
func isTypePosition(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "typed_parameter", "typed_expression", "type_clause", "subtype_clause", "binary_expression":
		prev := node.PrevSibling()
		if prev != nil {
			switch prev.Type() {
			case "::", "<:", ">:":
				return true
			}
		}
	}
	return false
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
