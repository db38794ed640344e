package analyze

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/parser"
)

// Signatures extracts function signatures: ordered parameters with
// optional type annotations and an optional return type. Module
// attribution uses path heuristics (package segment, stdlib table,
// capitalized stem) rather than the declared module nesting, matching
// how signatures are queried for dependency trees.
func Signatures(item *parser.ParsedItem) []index.FunctionSignature {
	module := ModuleForPath(item.Path)
	var sigs []index.FunctionSignature

	parser.Walk(item.Root(), func(node *sitter.Node) bool {
		switch parser.Classify(node.Type()) {
		case parser.ClassFunction:
			if sig, ok := signatureFrom(node, item, module, functionSignatureText(node, item.Content)); ok {
				sigs = append(sigs, sig)
			}
		case parser.ClassAssignment:
			// Assignment-form definitions: `f(x) = x + 1`.
			name, kind, text := assignmentSymbol(node, item.Content)
			if kind == index.SymbolFunction && name != "" {
				if sig, ok := signatureFrom(node, item, module, text); ok {
					sigs = append(sigs, sig)
				}
			}
		}
		return true
	})
	return sigs
}

func signatureFrom(node *sitter.Node, item *parser.ParsedItem, module, header string) (index.FunctionSignature, bool) {
	name := parser.NameOf(node, item.Content)
	if name == "" {
		return index.FunctionSignature{}, false
	}
	params, returnType := parseSignatureText(header)
	return index.FunctionSignature{
		Module:     module,
		Name:       name,
		Parameters: params,
		ReturnType: returnType,
		Doc:        docFor(node, item.Content),
		URI:        item.Path,
		Range:      parser.RangeOf(node),
	}, true
}

// parseSignatureText splits a signature header like
// `f(x::Int, y=2; verbose::Bool=false)::Bool` into parameters and return
// type. Parsing is textual: it only needs balanced delimiters, which
// holds even when the body failed to parse.
func parseSignatureText(header string) ([]index.Parameter, string) {
	open := strings.IndexByte(header, '(')
	if open < 0 {
		return nil, ""
	}
	depth := 0
	closeIdx := -1
	for i := open; i < len(header); i++ {
		switch header[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 && header[i] == ')' {
				closeIdx = i
			}
		}
		if closeIdx >= 0 {
			break
		}
	}
	if closeIdx < 0 {
		return nil, ""
	}

	params := parseParameterList(header[open+1 : closeIdx])

	var returnType string
	rest := header[closeIdx+1:]
	if strings.HasPrefix(rest, "::") {
		returnType = strings.TrimSpace(trimAfterTypeExpr(rest[2:]))
	}
	return params, returnType
}

// parseParameterList splits a parameter list on top-level commas and
// semicolons (keyword arguments follow the semicolon but are parameters
// all the same).
func parseParameterList(list string) []index.Parameter {
	var params []index.Parameter
	for _, part := range splitTopLevel(list) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		params = append(params, parseParameter(part))
	}
	return params
}

func parseParameter(text string) index.Parameter {
	// Drop default values: `x::Int = 3` / `y=2`.
	if eq := topLevelIndex(text, '='); eq >= 0 {
		text = strings.TrimSpace(text[:eq])
	}
	// Drop slurp markers: `args...`.
	text = strings.TrimSuffix(text, "...")

	if sep := strings.Index(text, "::"); sep >= 0 {
		return index.Parameter{
			Name: strings.TrimSpace(text[:sep]),
			Type: strings.TrimSpace(text[sep+2:]),
		}
	}
	return index.Parameter{Name: strings.TrimSpace(text)}
}

// splitTopLevel splits on commas and semicolons not nested inside
// brackets.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',', ';':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// topLevelIndex finds the first occurrence of c outside brackets, or -1.
func topLevelIndex(s string, c byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		default:
			if s[i] == c && depth == 0 {
				return i
			}
		}
	}
	return -1
}

// trimAfterTypeExpr cuts a return type expression at the first top-level
// token that cannot belong to it (`=` of an assignment-form body,
// `where` clauses keep their expression).
func trimAfterTypeExpr(s string) string {
	if eq := topLevelIndex(s, '='); eq >= 0 {
		s = s[:eq]
	}
	return s
}
