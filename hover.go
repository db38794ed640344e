package loupe

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/loupe/internal/analyze"
	"github.com/jward/loupe/internal/cache"
	"github.com/jward/loupe/internal/document"
	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/lsp"
	"github.com/jward/loupe/internal/parser"
	"github.com/jward/loupe/internal/query"
)

// HoverProvider produces hover content for the symbol under a position.
// The content is specialized per symbol kind; variables get a flow-
// insensitive value heuristic rather than real type inference.
type HoverProvider struct {
	Parser *parser.Parser
}

// Hover resolves the symbol at pos and renders markdown hover content.
// Results are memoized by exact position in the hover cache; variable
// value lookups additionally go through the inferred-range cache.
func (p HoverProvider) Hover(ctx context.Context, idx *index.Index, doc *document.Document, pos lsp.Position, caches *cache.Manager) (*lsp.Hover, error) {
	key := cache.PositionKey{URI: doc.URI, Line: pos.Line, Character: pos.Character}
	if caches != nil {
		if h, ok := caches.Hover(key); ok {
			return h, nil
		}
	}

	item, err := doc.Parsed(ctx, p.Parser)
	if err != nil {
		return nil, fmt.Errorf("hover: %w", err)
	}
	name, node, err := query.SymbolNameAt(item, pos)
	if err != nil {
		if errors.Is(err, query.ErrSymbolNotFound) {
			return nil, nil
		}
		return nil, err
	}

	sym, err := query.SymbolQuery{Index: idx}.ResolveSymbolAt(name, doc.URI, pos)
	if err != nil {
		if caches == nil {
			return nil, nil
		}
		cached, ok := caches.Symbol(name)
		if !ok {
			return nil, nil
		}
		sym = cached
	} else if caches != nil {
		caches.SetSymbol(name, sym)
	}

	var content string
	switch sym.Kind {
	case index.SymbolVariable:
		content = p.variableHover(item, name, pos, node, sym, caches, doc.URI)
	case index.SymbolFunction:
		content = functionHover(idx, name, sym, caches)
	case index.SymbolType:
		content = typeHover(idx, name, sym, caches)
	case index.SymbolModule:
		content = headerHover("module "+sym.Name, sym, docText(sym, caches))
	case index.SymbolMacro:
		content = headerHover("macro "+strings.TrimPrefix(sym.Name, "@"), sym, docText(sym, caches))
	case index.SymbolConstant:
		content = headerHover("const "+sym.Name, sym, docText(sym, caches))
	default:
		content = headerHover(sym.Name, sym, docText(sym, caches))
	}
	if content == "" {
		return nil, nil
	}

	rng := parser.RangeOf(node)
	h := &lsp.Hover{
		Contents: lsp.MarkupContent{Kind: "markdown", Value: content},
		Range:    &rng,
	}
	if caches != nil {
		caches.SetHover(key, h)
	}
	return h, nil
}

// functionHover renders a fenced signature block, the definition site, and
// the doc string.
func functionHover(idx *index.Index, name string, sym index.Symbol, caches *cache.Manager) string {
	sig := sym.Signature
	if sig == "" {
		module := analyze.ModuleForPath(sym.URI)
		if sigs := idx.FindSignatures(module, sym.Name); len(sigs) > 0 {
			sig = renderSignature(sigs[0])
		}
	}
	if sig == "" {
		sig = "function " + sym.Name
	}
	return headerHover(sig, sym, docText(sym, caches))
}

// typeHover renders the type declaration form (struct, abstract type,
// primitive type) when the type table knows it, else a bare name.
func typeHover(idx *index.Index, name string, sym index.Symbol, caches *cache.Manager) string {
	header := sym.Name
	module := analyze.ModuleForPath(sym.URI)
	if td, ok := idx.FindType(module, sym.Name); ok {
		switch td.Kind {
		case index.TypeStruct:
			header = "struct " + td.Name
		case index.TypeAbstract:
			header = "abstract type " + td.Name
		case index.TypePrimitive:
			header = "primitive type " + td.Name
		case index.TypeUnion:
			header = "const " + td.Name + " = Union{...}"
		}
	}
	return headerHover(header, sym, docText(sym, caches))
}

// headerHover assembles the common hover layout: fenced julia block,
// definition link, doc string.
func headerHover(header string, sym index.Symbol, doc string) string {
	var b strings.Builder
	b.WriteString("```julia\n")
	b.WriteString(header)
	b.WriteString("\n```")
	if sym.URI != "" {
		fmt.Fprintf(&b, "\n\nDefined in %s:%d", filepath.Base(sym.URI), sym.Range.Start.Line+1)
	}
	if doc != "" {
		b.WriteString("\n\n")
		b.WriteString(doc)
	}
	return b.String()
}

func docText(sym index.Symbol, caches *cache.Manager) string {
	if caches != nil {
		if doc, ok := caches.Docs(sym.Name); ok {
			return doc
		}
	}
	if sym.Doc != "" && caches != nil {
		caches.SetDocs(sym.Name, sym.Doc)
	}
	return sym.Doc
}

func renderSignature(sig index.FunctionSignature) string {
	params := make([]string, 0, len(sig.Parameters))
	for _, p := range sig.Parameters {
		if p.Type != "" {
			params = append(params, p.Name+"::"+p.Type)
		} else {
			params = append(params, p.Name)
		}
	}
	text := sig.Name + "(" + strings.Join(params, ", ") + ")"
	if sig.ReturnType != "" {
		text += "::" + sig.ReturnType
	}
	return text
}

// variableHover renders the most recent assigned value visible at pos.
// This is a lexical heuristic, not data-flow analysis: the latest
// assignment to the name in the same scope region before pos wins; with
// no preceding assignment, the nearest preceding sibling if statement
// contributes the union of values assigned across its branches.
func (p HoverProvider) variableHover(item *parser.ParsedItem, name string, pos lsp.Position, node *sitter.Node, sym index.Symbol, caches *cache.Manager, uri string) string {
	if caches != nil {
		if ranges, ok := caches.Inferred(uri); ok {
			for _, ir := range ranges {
				if ir.Range.Contains(pos) && strings.HasPrefix(ir.Label, name+" ") {
					return headerHover(ir.Label, sym, docText(sym, caches))
				}
			}
		}
	}

	label := ""
	if assign := latestAssignmentBefore(item, name, pos, node); assign != nil {
		label = assignmentLine(assign, item.Content)
	} else if values := branchValues(item, name, node); len(values) == 1 {
		label = name + " = " + values[0]
	} else if len(values) > 1 {
		label = name + " = one of [" + strings.Join(values, ", ") + "]"
	}
	if label == "" {
		return headerHover(name, sym, docText(sym, caches))
	}

	if caches != nil {
		ranges, _ := caches.Inferred(uri)
		ranges = append(ranges, cache.InferredRange{
			Range: lsp.Range{Start: pos, End: pos},
			Label: label,
		})
		caches.SetInferred(uri, ranges)
	}
	return headerHover(label, sym, docText(sym, caches))
}

// latestAssignmentBefore finds the assignment to name with the greatest
// start position that still precedes pos, restricted to the scope region
// containing pos.
func latestAssignmentBefore(item *parser.ParsedItem, name string, pos lsp.Position, at *sitter.Node) *sitter.Node {
	region := scopeAncestor(at)
	var best *sitter.Node
	parser.Walk(item.Root(), func(n *sitter.Node) bool {
		if parser.Classify(n.Type()) != parser.ClassAssignment {
			return true
		}
		if !assignsTo(n, name, item.Content) {
			return true
		}
		start := parser.RangeOf(n).Start
		if start.Line > pos.Line || (start.Line == pos.Line && start.Character > pos.Character) {
			return true
		}
		if !sameNode(scopeAncestor(n), region) {
			return true
		}
		if best == nil || byteAfter(n, best) {
			best = n
		}
		return true
	})
	return best
}

// branchValues collects the distinct right-hand sides assigned to name
// across the branches of the nearest preceding sibling if statement.
func branchValues(item *parser.ParsedItem, name string, at *sitter.Node) []string {
	cond := precedingIf(at)
	if cond == nil {
		return nil
	}
	var values []string
	seen := make(map[string]bool)
	parser.Walk(cond, func(n *sitter.Node) bool {
		if parser.Classify(n.Type()) != parser.ClassAssignment {
			return true
		}
		if !assignsTo(n, name, item.Content) {
			return true
		}
		if rhs := assignmentRHS(n, item.Content); rhs != "" && !seen[rhs] {
			seen[rhs] = true
			values = append(values, rhs)
		}
		return true
	})
	return values
}

// precedingIf scans backwards through preceding siblings, climbing out of
// enclosing statements up to the nearest scope root, for an if statement.
func precedingIf(at *sitter.Node) *sitter.Node {
	for cur := at; cur != nil; cur = cur.Parent() {
		for sib := cur.PrevNamedSibling(); sib != nil; sib = sib.PrevNamedSibling() {
			if parser.Classify(sib.Type()) == parser.ClassIf {
				return sib
			}
		}
		if parser.Classify(cur.Type()).IsScopeRoot() {
			return nil
		}
	}
	return nil
}

// scopeAncestor returns the nearest enclosing scope-root node, or nil for
// file scope.
func scopeAncestor(n *sitter.Node) *sitter.Node {
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		if parser.Classify(cur.Type()).IsScopeRoot() {
			return cur
		}
	}
	return nil
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

func byteAfter(a, b *sitter.Node) bool {
	return a.StartByte() > b.StartByte()
}

// assignsTo reports whether the assignment's left-hand side is exactly the
// identifier name.
func assignsTo(assign *sitter.Node, name string, content []byte) bool {
	lhs := assign.ChildByFieldName("left")
	if lhs == nil {
		lhs = assign.NamedChild(0)
	}
	if lhs == nil || parser.Classify(lhs.Type()) != parser.ClassIdentifier {
		return false
	}
	return lhs.Content(content) == name
}

// assignmentRHS extracts the assigned value's text.
func assignmentRHS(assign *sitter.Node, content []byte) string {
	if rhs := assign.ChildByFieldName("right"); rhs != nil {
		return strings.TrimSpace(rhs.Content(content))
	}
	text := assign.Content(content)
	if i := strings.IndexByte(text, '='); i >= 0 {
		return strings.TrimSpace(firstTextLine(text[i+1:]))
	}
	return ""
}

// assignmentLine renders the assignment as a single display line.
func assignmentLine(assign *sitter.Node, content []byte) string {
	return firstTextLine(assign.Content(content))
}

func firstTextLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
