package loupe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	edlib "github.com/hbollon/go-edlib"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/loupe/internal/analyze"
	"github.com/jward/loupe/internal/cache"
	"github.com/jward/loupe/internal/document"
	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/lsp"
	"github.com/jward/loupe/internal/parser"
	"github.com/jward/loupe/internal/query"
)

// Diagnostic codes attached to lsp.Diagnostic.Code. Quick fixes dispatch
// on these.
const (
	CodeUnexpectedEnd    = "unexpected_end"
	CodeMissingEnd       = "missing_end"
	CodeSyntaxError      = "syntax_error"
	CodeUnmatchedParen   = "unmatched_parenthesis"
	CodeUnmatchedBracket = "unmatched_bracket"
	CodeUnmatchedBrace   = "unmatched_brace"
	CodeUnusedVariable   = "unused_variable"
	CodeUnresolvedImport = "unresolved_import"
	CodeUndefinedVar     = "undefined_variable"
)

const diagnosticSource = "loupe"

// suggestionThreshold is the minimum Jaro-Winkler similarity for a
// did-you-mean candidate.
const suggestionThreshold = 0.84

// Debouncer gates diagnostics recomputation: with an unchanged document
// version, recomputation is suppressed until the window elapses. A version
// change recomputes immediately and restarts the window.
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	entries map[string]debounceEntry
}

type debounceEntry struct {
	version int
	at      time.Time
}

// NewDebouncer creates a Debouncer with the given window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		entries: make(map[string]debounceEntry),
	}
}

// ShouldRecompute reports whether diagnostics for (uri, version) should be
// recomputed at time now, and records the decision.
func (d *Debouncer) ShouldRecompute(uri string, version int, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.entries[uri]
	if !ok || version != entry.version || now.Sub(entry.at) >= d.window {
		d.entries[uri] = debounceEntry{version: version, at: now}
		return true
	}
	return false
}

// Forget drops the debounce state for a closed document.
func (d *Debouncer) Forget(uri string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, uri)
}

// DiagnosticsProvider computes syntactic and semantic diagnostics for a
// single document. Syntax problems are Errors; the semantic pass (unused
// variables, unresolved imports, undefined variables) reports Warnings.
type DiagnosticsProvider struct {
	Parser *parser.Parser
}

// Diagnostics computes the document's diagnostics, memoized by
// (URI, version).
func (p DiagnosticsProvider) Diagnostics(ctx context.Context, idx *index.Index, doc *document.Document, caches *cache.Manager) ([]lsp.Diagnostic, error) {
	key := cache.VersionKey{URI: doc.URI, Version: doc.Version}
	if caches != nil {
		if diags, ok := caches.Diagnostics(key); ok {
			return diags, nil
		}
	}

	item, err := doc.Parsed(ctx, p.Parser)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}

	diags := syntaxDiagnostics(item, doc.Text)
	diags = append(diags, semanticDiagnostics(item, idx, doc.URI)...)

	if caches != nil {
		caches.SetDiagnostics(key, diags)
	}
	return diags, nil
}

// syntaxDiagnostics reports parse errors, missing tokens, and unmatched
// delimiters.
func syntaxDiagnostics(item *parser.ParsedItem, text string) []lsp.Diagnostic {
	// A file that is nothing but a stray `end` produces a cascade of
	// error nodes; collapse it to the one diagnostic that matters.
	if strings.TrimSpace(text) == "end" {
		return []lsp.Diagnostic{{
			Range:    parser.RangeOf(item.Root()),
			Severity: lsp.SeverityError,
			Code:     CodeUnexpectedEnd,
			Source:   diagnosticSource,
			Message:  "unexpected 'end'",
		}}
	}

	var diags []lsp.Diagnostic
	parser.Walk(item.Root(), func(n *sitter.Node) bool {
		if n.IsMissing() {
			code := CodeSyntaxError
			if n.Type() == "end" {
				code = CodeMissingEnd
			}
			diags = append(diags, lsp.Diagnostic{
				Range:    parser.RangeOf(n),
				Severity: lsp.SeverityError,
				Code:     code,
				Source:   diagnosticSource,
				Message:  fmt.Sprintf("missing '%s'", n.Type()),
			})
			return false
		}
		if n.IsError() {
			content := strings.TrimSpace(n.Content(item.Content))
			if content == "end" {
				diags = append(diags, lsp.Diagnostic{
					Range:    parser.RangeOf(n),
					Severity: lsp.SeverityError,
					Code:     CodeUnexpectedEnd,
					Source:   diagnosticSource,
					Message:  "unexpected 'end'",
				})
			} else {
				diags = append(diags, lsp.Diagnostic{
					Range:    parser.RangeOf(n),
					Severity: lsp.SeverityError,
					Code:     CodeSyntaxError,
					Source:   diagnosticSource,
					Message:  "syntax error",
				})
			}
			return false
		}
		return true
	})
	diags = append(diags, delimiterDiagnostics(text)...)
	return diags
}

// delimiterDiagnostics counts unclosed delimiters textually, outside of
// strings and comments, so the quick fix knows the exact number of
// closers to append.
func delimiterDiagnostics(text string) []lsp.Diagnostic {
	type delim struct {
		open, close byte
		code        string
		name        string
	}
	delims := []delim{
		{'(', ')', CodeUnmatchedParen, "parenthesis"},
		{'[', ']', CodeUnmatchedBracket, "bracket"},
		{'{', '}', CodeUnmatchedBrace, "brace"},
	}
	counts := make(map[byte]int)
	lastOpenLine := make(map[byte]int)

	line := 0
	inString := false
	inComment := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\n':
			line++
			inComment = false
		case inComment:
		case inString && c == '\\':
			// Escapes inside strings: \" must not close the string and a
			// bracket after the backslash must not count.
			i++
		case c == '"':
			inString = !inString
		case inString:
		case c == '#':
			inComment = true
		case c == '\'':
			// Char literals: skip 'x' and '\x' so delimiter characters
			// inside them never count. A lone quote (the adjoint operator)
			// is left alone.
			if end := charLiteralEnd(text, i); end > i {
				i = end
			}
		default:
			for _, d := range delims {
				if c == d.open {
					counts[d.open]++
					lastOpenLine[d.open] = line
				} else if c == d.close && counts[d.open] > 0 {
					counts[d.open]--
				}
			}
		}
	}

	var diags []lsp.Diagnostic
	for _, d := range delims {
		n := counts[d.open]
		if n <= 0 {
			continue
		}
		at := lastOpenLine[d.open]
		diags = append(diags, lsp.Diagnostic{
			Range: lsp.Range{
				Start: lsp.Position{Line: at, Character: 0},
				End:   lsp.Position{Line: at, Character: lineLength(text, at)},
			},
			Severity: lsp.SeverityError,
			Code:     d.code,
			Source:   diagnosticSource,
			Message:  fmt.Sprintf("missing %d closing '%c' (%s)", n, d.close, d.name),
		})
	}
	return diags
}

// charLiteralEnd returns the index of the closing quote of a char literal
// opening at i, or i when the quote is not a char literal.
func charLiteralEnd(text string, i int) int {
	j := i + 1
	escaped := false
	if j < len(text) && text[j] == '\\' {
		escaped = true
		j++
	}
	if j >= len(text) || text[j] == '\n' || (!escaped && text[j] == '\'') {
		return i
	}
	_, size := utf8.DecodeRuneInString(text[j:])
	j += size
	if j < len(text) && text[j] == '\'' {
		return j
	}
	return i
}

func lineLength(text string, line int) int {
	cur := 0
	length := 0
	for i := 0; i < len(text); i++ {
		if cur == line {
			if text[i] == '\n' {
				break
			}
			length++
		} else if text[i] == '\n' {
			cur++
		}
	}
	return length
}

// builtinNames are identifiers always considered defined; without this,
// every Base call in a small workspace reads as undefined.
var builtinNames = map[string]bool{
	"println": true, "print": true, "push!": true, "pop!": true,
	"length": true, "size": true, "typeof": true, "error": true,
	"throw": true, "string": true, "sqrt": true, "abs": true,
	"min": true, "max": true, "sum": true, "map": true, "filter": true,
	"zeros": true, "ones": true, "collect": true, "sort": true,
	"keys": true, "values": true, "get": true, "haskey": true,
	"isempty": true, "first": true, "last": true, "rand": true,
	"nothing": true, "missing": true, "true": true, "false": true,
}

// semanticDiagnostics reports unused local variables, unresolved imports,
// and undefined variables. Everything here is a Warning: the code still
// parses, it just looks wrong.
func semanticDiagnostics(item *parser.ParsedItem, idx *index.Index, uri string) []lsp.Diagnostic {
	res, err := analyze.Analyze(item)
	if err != nil {
		return nil
	}

	var diags []lsp.Diagnostic

	reads := make(map[string]bool, len(res.References))
	for _, ref := range res.References {
		reads[ref.Name] = true
	}
	for _, sym := range res.Symbols {
		if sym.Kind != index.SymbolVariable {
			continue
		}
		if reads[sym.Name] {
			continue
		}
		diags = append(diags, lsp.Diagnostic{
			Range:    sym.Range,
			Severity: lsp.SeverityWarning,
			Code:     CodeUnusedVariable,
			Source:   diagnosticSource,
			Message:  fmt.Sprintf("unused variable '%s'", sym.Name),
		})
	}

	diags = append(diags, importDiagnostics(item, idx)...)
	diags = append(diags, undefinedDiagnostics(res, idx)...)
	return diags
}

// importDiagnostics flags using/import statements whose module the index
// does not know and that is not a standard-library module.
func importDiagnostics(item *parser.ParsedItem, idx *index.Index) []lsp.Diagnostic {
	var diags []lsp.Diagnostic
	parser.Walk(item.Root(), func(n *sitter.Node) bool {
		if parser.Classify(n.Type()) != parser.ClassImport {
			return true
		}
		ident := parser.FirstChildOfClass(n, parser.ClassIdentifier)
		if ident == nil {
			if qualified := parser.FirstChildOfClass(n, parser.ClassFieldAccess); qualified != nil {
				ident = qualified.Child(0)
			}
		}
		if ident == nil {
			return false
		}
		name := ident.Content(item.Content)
		if analyze.IsStdlibModule(name) || idx.HasModule(name) {
			return false
		}
		diags = append(diags, lsp.Diagnostic{
			Range:    parser.RangeOf(n),
			Severity: lsp.SeverityWarning,
			Code:     CodeUnresolvedImport,
			Source:   diagnosticSource,
			Message:  fmt.Sprintf("unresolved import '%s'", name),
		})
		return false
	})
	return diags
}

// undefinedDiagnostics flags references to names with no definition in the
// file, the index, the keyword set, or the builtin set, with a near-
// spelling suggestion when one is close enough. Function parameters count
// as definitions: they never appear in the symbol table, but a reference
// to one is not undefined.
func undefinedDiagnostics(res *index.AnalysisResult, idx *index.Index) []lsp.Diagnostic {
	defined := make(map[string]bool, len(res.Symbols))
	candidates := make([]string, 0, len(res.Symbols)+len(query.Keywords))
	for _, sym := range res.Symbols {
		if !defined[sym.Name] {
			defined[sym.Name] = true
			candidates = append(candidates, sym.Name)
		}
	}
	for _, sig := range res.Signatures {
		for _, param := range sig.Parameters {
			defined[param.Name] = true
		}
	}
	keywords := make(map[string]bool, len(query.Keywords))
	for _, kw := range query.Keywords {
		keywords[kw] = true
		candidates = append(candidates, kw)
	}

	var diags []lsp.Diagnostic
	flagged := make(map[string]bool)
	for _, ref := range res.References {
		if ref.Kind != index.RefVariable && ref.Kind != index.RefCall {
			continue
		}
		name := ref.Name
		if flagged[name] || defined[name] || builtinNames[name] || keywords[name] {
			continue
		}
		if strings.Contains(name, ".") {
			continue
		}
		if _, ok := idx.FindSymbol(name); ok {
			continue
		}
		flagged[name] = true

		msg := fmt.Sprintf("undefined variable '%s'", name)
		if suggestion := closestName(name, candidates); suggestion != "" {
			msg = fmt.Sprintf("undefined variable '%s', did you mean '%s'?", name, suggestion)
		}
		diags = append(diags, lsp.Diagnostic{
			Range:    ref.Range,
			Severity: lsp.SeverityWarning,
			Code:     CodeUndefinedVar,
			Source:   diagnosticSource,
			Message:  msg,
		})
	}
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Range.Start.Line != diags[j].Range.Start.Line {
			return diags[i].Range.Start.Line < diags[j].Range.Start.Line
		}
		return diags[i].Range.Start.Character < diags[j].Range.Start.Character
	})
	return diags
}

// closestName returns the candidate most similar to name above the
// suggestion threshold, or "".
func closestName(name string, candidates []string) string {
	best := ""
	var bestScore float32
	for _, cand := range candidates {
		if cand == name {
			continue
		}
		score, err := edlib.StringsSimilarity(name, cand, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = cand
		}
	}
	if bestScore >= suggestionThreshold {
		return best
	}
	return ""
}
