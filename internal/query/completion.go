package query

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/lsp"
)

// Keywords is the Julia keyword set offered by completion.
var Keywords = []string{
	"abstract type", "baremodule", "begin", "break", "catch", "const",
	"continue", "do", "else", "elseif", "end", "export", "false", "finally",
	"for", "function", "global", "if", "import", "in", "isa", "let",
	"local", "macro", "missing", "module", "mutable struct", "nothing",
	"primitive type", "quote", "return", "struct", "true", "try", "using",
	"where", "while",
}

// generalFallbackLimit bounds how many symbols pad the fallback result.
const generalFallbackLimit = 20

// CompletionContext describes what the cursor is completing.
type CompletionContext struct {
	// Qualified is true when the text immediately left of the cursor
	// contains a dot with no intervening whitespace: member completion.
	Qualified bool
	// Qualifier is the name left of the dot when Qualified.
	Qualifier string
	// Prefix is the partial word being typed.
	Prefix string
}

// ContextAt classifies the cursor context from the document text.
func ContextAt(text string, pos lsp.Position) CompletionContext {
	line := lineAt(text, pos.Line)
	col := pos.Character
	if col > len(line) {
		col = len(line)
	}
	// Columns are byte offsets; never split a multi-byte identifier rune.
	for col > 0 && col < len(line) && !utf8.RuneStart(line[col]) {
		col--
	}
	left := line[:col]

	start := len(left)
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(left[:start])
		if !isWordRune(r) {
			break
		}
		start -= size
	}
	prefix := left[start:]

	if start > 0 && left[start-1] == '.' {
		qualStart := start - 1
		for qualStart > 0 {
			r, size := utf8.DecodeLastRuneInString(left[:qualStart])
			if !isWordRune(r) && r != '.' {
				break
			}
			qualStart -= size
		}
		qualifier := strings.TrimSuffix(left[qualStart:start-1], ".")
		if qualifier != "" {
			return CompletionContext{Qualified: true, Qualifier: qualifier, Prefix: prefix}
		}
	}
	return CompletionContext{Prefix: prefix}
}

func lineAt(text string, line int) string {
	rest := text
	for i := 0; i < line; i++ {
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			return ""
		}
		rest = rest[nl+1:]
	}
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return rest
}

// isWordRune matches Julia identifier characters: letters in any script,
// digits, underscore, and the bang of mutating names.
func isWordRune(r rune) bool {
	return r == '_' || r == '!' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// CompletionQuery produces completion candidates from the Index.
type CompletionQuery struct {
	Index *index.Index
}

// Complete returns the completion list for cctx. Keyword matches order
// before symbol matches; duplicates are removed by label. An empty
// filtered set falls back to all keywords plus the first symbols in the
// Index, so the UI is never presented with nothing.
func (q CompletionQuery) Complete(cctx CompletionContext) lsp.CompletionList {
	var items []lsp.CompletionItem
	if cctx.Qualified {
		items = q.memberItems(cctx.Qualifier, cctx.Prefix)
	} else {
		items = q.generalItems(cctx.Prefix)
	}

	if len(items) == 0 {
		items = q.fallbackItems()
	}
	return lsp.CompletionList{IsIncomplete: false, Items: dedupeByLabel(items)}
}

func (q CompletionQuery) generalItems(prefix string) []lsp.CompletionItem {
	var items []lsp.CompletionItem
	for _, kw := range Keywords {
		if strings.HasPrefix(kw, prefix) {
			items = append(items, keywordItem(kw))
		}
	}
	for _, sym := range q.Index.FindSymbolsWithPrefix(prefix) {
		items = append(items, symbolItem(sym))
	}
	return items
}

// memberItems completes `Module.<prefix>` from the module's functions,
// types, and export set.
func (q CompletionQuery) memberItems(qualifier, prefix string) []lsp.CompletionItem {
	var items []lsp.CompletionItem
	for _, sig := range q.Index.ModuleFunctions(qualifier) {
		if strings.HasPrefix(sig.Name, prefix) {
			items = append(items, lsp.CompletionItem{
				Label:         sig.Name,
				Kind:          lsp.CompletionKindFunction,
				Detail:        qualifier,
				Documentation: sig.Doc,
				SortText:      "1_" + sig.Name,
			})
		}
	}
	for _, td := range q.Index.ModuleTypes(qualifier) {
		if strings.HasPrefix(td.Name, prefix) {
			items = append(items, lsp.CompletionItem{
				Label:         td.Name,
				Kind:          lsp.CompletionKindStruct,
				Detail:        qualifier,
				Documentation: td.Doc,
				SortText:      "1_" + td.Name,
			})
		}
	}
	for _, name := range q.Index.ModuleExports(qualifier) {
		if strings.HasPrefix(name, prefix) {
			items = append(items, lsp.CompletionItem{
				Label:    name,
				Kind:     lsp.CompletionKindVariable,
				Detail:   qualifier,
				SortText: "1_" + name,
			})
		}
	}
	if len(items) > 0 {
		return items
	}
	// Unknown qualifier: fall back to a general prefix search on the
	// member prefix alone.
	return q.generalItems(prefix)
}

func (q CompletionQuery) fallbackItems() []lsp.CompletionItem {
	var items []lsp.CompletionItem
	for _, kw := range Keywords {
		items = append(items, keywordItem(kw))
	}
	for i, sym := range q.Index.AllSymbols() {
		if i >= generalFallbackLimit {
			break
		}
		items = append(items, symbolItem(sym))
	}
	return items
}

func keywordItem(kw string) lsp.CompletionItem {
	return lsp.CompletionItem{
		Label:    kw,
		Kind:     lsp.CompletionKindKeyword,
		SortText: "0_" + kw,
	}
}

func symbolItem(sym index.Symbol) lsp.CompletionItem {
	kind := lsp.CompletionKindVariable
	switch sym.Kind {
	case index.SymbolFunction:
		kind = lsp.CompletionKindFunction
	case index.SymbolType:
		kind = lsp.CompletionKindStruct
	case index.SymbolModule:
		kind = lsp.CompletionKindModule
	case index.SymbolConstant:
		kind = lsp.CompletionKindConstant
	case index.SymbolMacro:
		kind = lsp.CompletionKindFunction
	}
	return lsp.CompletionItem{
		Label:         sym.Name,
		Kind:          kind,
		Detail:        sym.Signature,
		Documentation: sym.Doc,
		SortText:      "1_" + sym.Name,
	}
}

func dedupeByLabel(items []lsp.CompletionItem) []lsp.CompletionItem {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		if seen[item.Label] {
			continue
		}
		seen[item.Label] = true
		out = append(out, item)
	}
	return out
}
