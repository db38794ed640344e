package analyze

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/parser"
)

// Symbols extracts the file's definitions: functions (long and
// assignment form), structs, abstract and primitive types, modules,
// macros, constants, and variable assignments. Function symbols carry
// their signature text and any immediately preceding triple-quoted doc
// string.
func Symbols(item *parser.ParsedItem, scopes *index.ScopeTree) []index.Symbol {
	var symbols []index.Symbol

	add := func(node *sitter.Node, name string, kind index.SymbolKind, signature string) {
		if name == "" {
			return
		}
		symbols = append(symbols, index.Symbol{
			Name:      name,
			Kind:      kind,
			Range:     parser.RangeOf(node),
			ScopeID:   owningScope(scopes, node),
			Doc:       docFor(node, item.Content),
			Signature: signature,
			URI:       item.Path,
		})
	}

	parser.Walk(item.Root(), func(node *sitter.Node) bool {
		switch parser.Classify(node.Type()) {
		case parser.ClassFunction:
			add(node, parser.NameOf(node, item.Content), index.SymbolFunction, functionSignatureText(node, item.Content))
		case parser.ClassMacro:
			add(node, parser.NameOf(node, item.Content), index.SymbolMacro, firstLine(node, item.Content))
		case parser.ClassStruct, parser.ClassAbstract, parser.ClassPrimitive:
			add(node, parser.NameOf(node, item.Content), index.SymbolType, "")
		case parser.ClassModule:
			add(node, parser.NameOf(node, item.Content), index.SymbolModule, "")
		case parser.ClassConst:
			add(node, constName(node, item.Content), index.SymbolConstant, "")
			return false // the inner assignment is part of the constant
		case parser.ClassAssignment:
			name, kind, sig := assignmentSymbol(node, item.Content)
			add(node, name, kind, sig)
		}
		return true
	})
	return symbols
}

// owningScope finds the scope a definition belongs to. A node that opens
// its own scope (function, module) is owned by the enclosing scope, not
// the one it introduces.
func owningScope(scopes *index.ScopeTree, node *sitter.Node) int {
	if scopes == nil || scopes.Root == nil {
		return 0
	}
	r := parser.RangeOf(node)
	scope := scopes.InnermostAt(r.Start)
	if scope == nil {
		return 0
	}
	if scope.Range == r && scope.ParentID != nil {
		return *scope.ParentID
	}
	return scope.ID
}

// constName digs the defined name out of a const statement's inner
// assignment.
func constName(node *sitter.Node, content []byte) string {
	if assign := parser.FirstChildOfClass(node, parser.ClassAssignment); assign != nil {
		if lhs := assign.Child(0); lhs != nil && parser.Classify(lhs.Type()) == parser.ClassIdentifier {
			return lhs.Content(content)
		}
	}
	// Some grammar versions flatten `const x = v` without a nested
	// assignment node.
	if ident := parser.FirstChildOfClass(node, parser.ClassIdentifier); ident != nil {
		return ident.Content(content)
	}
	return ""
}

// assignmentSymbol classifies an assignment statement: a call on the left
// is an assignment-form function definition, a plain identifier is a
// variable binding. Anything else (tuple destructuring, field writes,
// index writes) contributes no symbol.
func assignmentSymbol(node *sitter.Node, content []byte) (string, index.SymbolKind, string) {
	if node.Parent() != nil && parser.Classify(node.Parent().Type()) == parser.ClassConst {
		return "", index.SymbolVariable, ""
	}
	lhs := node.Child(0)
	if lhs == nil {
		return "", index.SymbolVariable, ""
	}
	switch parser.Classify(lhs.Type()) {
	case parser.ClassCall:
		callee := lhs.Child(0)
		if callee == nil || parser.Classify(callee.Type()) != parser.ClassIdentifier {
			return "", index.SymbolVariable, ""
		}
		sig := firstLine(node, content)
		if eq := strings.Index(sig, "="); eq > 0 {
			sig = strings.TrimSpace(sig[:eq])
		}
		return callee.Content(content), index.SymbolFunction, sig
	case parser.ClassIdentifier:
		return lhs.Content(content), index.SymbolVariable, ""
	}
	return "", index.SymbolVariable, ""
}

// functionSignatureText renders the displayed signature of a function
// definition: the header line without the `function` keyword for the long
// form, the text before the top-level `=` for the short form.
func functionSignatureText(node *sitter.Node, content []byte) string {
	line := firstLine(node, content)
	if rest := strings.TrimPrefix(line, "function"); rest != line {
		return strings.TrimSpace(rest)
	}
	depth := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth == 0 && (i+1 >= len(line) || line[i+1] != '=') {
				return strings.TrimSpace(line[:i])
			}
		}
	}
	return strings.TrimSpace(line)
}
