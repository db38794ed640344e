package analyze

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/parser"
)

// Types extracts struct, abstract-type, primitive-type, and union-alias
// definitions, each attributed to its composed module name. It also
// returns the composed names of the modules declared in the file. Module
// names compose hierarchically, and a module whose declared name matches
// the module inferred from the file path is not doubled.
func Types(item *parser.ParsedItem, fileModule string) ([]index.TypeDefinition, []string) {
	var types []index.TypeDefinition
	var modules []string

	add := func(node *sitter.Node, module, name string, kind index.TypeKind) {
		if name == "" {
			return
		}
		types = append(types, index.TypeDefinition{
			Module: module,
			Name:   name,
			Kind:   kind,
			Doc:    docFor(node, item.Content),
			URI:    item.Path,
			Range:  parser.RangeOf(node),
		})
	}

	walkModules(item, fileModule, func(node *sitter.Node, module string, stack []string) bool {
		switch parser.Classify(node.Type()) {
		case parser.ClassModule:
			name := parser.NameOf(node, item.Content)
			if name != "" {
				modules = append(modules, composeModule(fileModule, append(append([]string(nil), stack...), name)))
			}
		case parser.ClassStruct:
			add(node, module, parser.NameOf(node, item.Content), index.TypeStruct)
		case parser.ClassAbstract:
			add(node, module, parser.NameOf(node, item.Content), index.TypeAbstract)
		case parser.ClassPrimitive:
			add(node, module, parser.NameOf(node, item.Content), index.TypePrimitive)
		case parser.ClassConst:
			// `const T = Union{A,B}` declares a union alias.
			if name, ok := unionAlias(node, item.Content); ok {
				add(node, module, name, index.TypeUnion)
			}
			return false
		}
		return true
	})
	return types, modules
}

// unionAlias recognizes `const Name = Union{...}` and returns Name.
func unionAlias(node *sitter.Node, content []byte) (string, bool) {
	name := constName(node, content)
	if name == "" {
		return "", false
	}
	text := node.Content(content)
	if eq := strings.IndexByte(text, '='); eq >= 0 {
		rhs := strings.TrimSpace(text[eq+1:])
		if strings.HasPrefix(rhs, "Union{") {
			return name, true
		}
	}
	return "", false
}
