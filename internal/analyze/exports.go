package analyze

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/loupe/internal/parser"
)

// Exports collects `export` statements keyed by the nested-module context
// they appear in. Qualified re-exports (`export Other.symbol`) are
// reduced to the unqualified name, since the export surface is flat.
func Exports(item *parser.ParsedItem, fileModule string) map[string][]string {
	exports := make(map[string][]string)

	walkModules(item, fileModule, func(node *sitter.Node, module string, _ []string) bool {
		if parser.Classify(node.Type()) != parser.ClassExport {
			return true
		}
		names := exportedNames(node, item.Content)
		if len(names) > 0 {
			exports[module] = append(exports[module], names...)
		}
		return false
	})

	if len(exports) == 0 {
		return nil
	}
	return exports
}

// exportedNames lists the names in one export statement. Identifier
// children are preferred; a textual fallback covers grammar variants that
// flatten the statement.
func exportedNames(node *sitter.Node, content []byte) []string {
	var names []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch parser.Classify(child.Type()) {
		case parser.ClassIdentifier:
			names = append(names, child.Content(content))
		case parser.ClassFieldAccess:
			names = append(names, unqualify(child.Content(content)))
		}
	}
	if len(names) > 0 {
		return names
	}

	text := strings.TrimSpace(node.Content(content))
	text = strings.TrimPrefix(text, "export")
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		names = append(names, unqualify(part))
	}
	return names
}

func unqualify(name string) string {
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		return name[dot+1:]
	}
	return name
}
