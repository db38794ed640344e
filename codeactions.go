package loupe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jward/loupe/internal/document"
	"github.com/jward/loupe/internal/lsp"
)

// CodeActionProvider derives quick fixes from diagnostics. Every fix is a
// single text edit in the diagnostic's own file; anything needing more
// than that is out of reach for a syntactic fixer and gets no action.
type CodeActionProvider struct{}

// Actions returns one quick fix per fixable diagnostic.
func (CodeActionProvider) Actions(doc *document.Document, diags []lsp.Diagnostic) []lsp.CodeAction {
	var actions []lsp.CodeAction
	for _, diag := range diags {
		var action *lsp.CodeAction
		switch diag.Code {
		case CodeMissingEnd:
			action = missingEndAction(doc, diag)
		case CodeUnmatchedParen:
			action = closerAction(doc, diag, ')')
		case CodeUnmatchedBracket:
			action = closerAction(doc, diag, ']')
		case CodeUnmatchedBrace:
			action = closerAction(doc, diag, '}')
		case CodeUnusedVariable:
			action = deleteLineAction(doc, diag)
		case CodeUnresolvedImport:
			action = insertImportAction(doc, diag)
		case CodeUndefinedVar:
			action = renameToSuggestionAction(doc, diag)
		}
		if action != nil {
			actions = append(actions, *action)
		}
	}
	return actions
}

func quickFix(doc *document.Document, diag lsp.Diagnostic, title string, edit lsp.TextEdit) *lsp.CodeAction {
	return &lsp.CodeAction{
		Title:       title,
		Kind:        "quickfix",
		Diagnostics: []lsp.Diagnostic{diag},
		Edit: lsp.WorkspaceEdit{
			Changes: map[string][]lsp.TextEdit{
				doc.URI: {edit},
			},
		},
	}
}

// missingEndAction inserts an `end` where the parser expected one: at the
// diagnostic's position when the unterminated block is followed by more
// code, after the last line otherwise. Indentation matches the flagged
// line.
func missingEndAction(doc *document.Document, diag lsp.Diagnostic) *lsp.CodeAction {
	lines := strings.Split(doc.Text, "\n")
	indent := ""
	if diag.Range.Start.Line < len(lines) {
		indent = leadingWhitespace(lines[diag.Range.Start.Line])
	}
	last := len(lines) - 1
	if line := diag.Range.End.Line; line < last {
		at := lsp.Position{Line: line, Character: 0}
		return quickFix(doc, diag, "Insert missing 'end'", lsp.TextEdit{
			Range:   lsp.Range{Start: at, End: at},
			NewText: indent + "end\n",
		})
	}
	end := lsp.Position{Line: last, Character: len(lines[last])}
	return quickFix(doc, diag, "Insert missing 'end'", lsp.TextEdit{
		Range:   lsp.Range{Start: end, End: end},
		NewText: "\n" + indent + "end",
	})
}

// closerAction appends exactly as many closing delimiters as the
// diagnostic counted, at the end of the flagged line.
func closerAction(doc *document.Document, diag lsp.Diagnostic, closer byte) *lsp.CodeAction {
	n := firstInt(diag.Message)
	if n <= 0 {
		n = 1
	}
	at := lsp.Position{Line: diag.Range.End.Line, Character: diag.Range.End.Character}
	return quickFix(doc, diag,
		fmt.Sprintf("Insert %d missing '%c'", n, closer),
		lsp.TextEdit{
			Range:   lsp.Range{Start: at, End: at},
			NewText: strings.Repeat(string(closer), n),
		})
}

// deleteLineAction removes the unused assignment's whole line.
func deleteLineAction(doc *document.Document, diag lsp.Diagnostic) *lsp.CodeAction {
	line := diag.Range.Start.Line
	return quickFix(doc, diag,
		"Remove unused variable",
		lsp.TextEdit{
			Range: lsp.Range{
				Start: lsp.Position{Line: line, Character: 0},
				End:   lsp.Position{Line: line + 1, Character: 0},
			},
			NewText: "",
		})
}

// insertImportAction inserts `using Module` after the last existing
// using/import line, or at the top of the file when there is none.
func insertImportAction(doc *document.Document, diag lsp.Diagnostic) *lsp.CodeAction {
	module := firstQuoted(diag.Message)
	if module == "" {
		return nil
	}
	lines := strings.Split(doc.Text, "\n")
	insertAt := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "using ") || strings.HasPrefix(trimmed, "import ") {
			insertAt = i + 1
		}
	}
	at := lsp.Position{Line: insertAt, Character: 0}
	return quickFix(doc, diag,
		fmt.Sprintf("Add 'using %s'", module),
		lsp.TextEdit{
			Range:   lsp.Range{Start: at, End: at},
			NewText: "using " + module + "\n",
		})
}

// renameToSuggestionAction replaces the misspelled identifier with the
// diagnostic's did-you-mean candidate.
func renameToSuggestionAction(doc *document.Document, diag lsp.Diagnostic) *lsp.CodeAction {
	suggestion := secondQuoted(diag.Message)
	if suggestion == "" {
		return nil
	}
	return quickFix(doc, diag,
		fmt.Sprintf("Change to '%s'", suggestion),
		lsp.TextEdit{
			Range:   diag.Range,
			NewText: suggestion,
		})
}

func leadingWhitespace(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return line[:i]
		}
	}
	return line
}

// firstInt extracts the first decimal integer in s, or 0.
func firstInt(s string) int {
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] >= '0' && s[i] <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, _ := strconv.Atoi(s[start:i])
			return n
		}
	}
	return 0
}

// firstQuoted extracts the first single-quoted token in s.
func firstQuoted(s string) string {
	open := strings.IndexByte(s, '\'')
	if open < 0 {
		return ""
	}
	rest := s[open+1:]
	stop := strings.IndexByte(rest, '\'')
	if stop < 0 {
		return ""
	}
	return rest[:stop]
}

// secondQuoted extracts the second single-quoted token in s.
func secondQuoted(s string) string {
	first := firstQuoted(s)
	if first == "" {
		return ""
	}
	idx := strings.Index(s, "'"+first+"'")
	return firstQuoted(s[idx+len(first)+2:])
}
