package loupe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/loupe/internal/cache"
	"github.com/jward/loupe/internal/document"
	"github.com/jward/loupe/internal/lsp"
	"github.com/jward/loupe/internal/parser"
	"github.com/jward/loupe/internal/query"
)

type providerFixture struct {
	parser *parser.Parser
	index  *Index
	caches *cache.Manager
}

func newProviderFixture(t *testing.T, files map[string]string) *providerFixture {
	t.Helper()
	p, err := parser.New()
	require.NoError(t, err)
	return &providerFixture{
		parser: p,
		index:  runFiles(t, newTestEngine(t), files),
		caches: cache.NewManager(cache.Options{}),
	}
}

func (f *providerFixture) open(files map[string]string, uri string) *document.Document {
	return document.New(uri, files[uri])
}

func TestDefinition_CallSiteResolvesToDeclaration(t *testing.T) {
	files := map[string]string{
		"a.jl": "function my_function(x)\n    return x + 1\nend\nmy_function(2)\n",
	}
	f := newProviderFixture(t, files)
	doc := f.open(files, "a.jl")

	locs, err := DefinitionProvider{Parser: f.parser}.Definition(
		context.Background(), f.index, doc, lsp.Position{Line: 3, Character: 2})
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "a.jl", locs[0].URI)
	assert.Equal(t, 0, locs[0].Range.Start.Line)
}

func TestDefinition_NothingUnderCursor(t *testing.T) {
	files := map[string]string{"a.jl": "x = 1\n"}
	f := newProviderFixture(t, files)
	doc := f.open(files, "a.jl")

	locs, err := DefinitionProvider{Parser: f.parser}.Definition(
		context.Background(), f.index, doc, lsp.Position{Line: 0, Character: 2})
	require.NoError(t, err)
	assert.Empty(t, locs, "the '=' sign is not a symbol")
}

func TestReferences_UsageSitesAndDeclaration(t *testing.T) {
	files := map[string]string{"a.jl": "x = 10\ny = x + 5\n"}
	f := newProviderFixture(t, files)
	doc := f.open(files, "a.jl")
	pos := lsp.Position{Line: 1, Character: 4}

	locs, err := ReferencesProvider{Parser: f.parser}.References(
		context.Background(), f.index, doc, pos, false)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, 1, locs[0].Range.Start.Line)

	locs, err = ReferencesProvider{Parser: f.parser}.References(
		context.Background(), f.index, doc, pos, true)
	require.NoError(t, err)
	assert.Len(t, locs, 2)
}

func TestHover_VariableShowsLatestAssignment(t *testing.T) {
	files := map[string]string{"a.jl": "x = 10\ny = x + 5\n"}
	f := newProviderFixture(t, files)
	doc := f.open(files, "a.jl")

	h, err := HoverProvider{Parser: f.parser}.Hover(
		context.Background(), f.index, doc, lsp.Position{Line: 1, Character: 4}, f.caches)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Contains(t, h.Contents.Value, "x = 10")
	assert.Equal(t, "markdown", h.Contents.Kind)
}

func TestHover_VariableReassignmentWins(t *testing.T) {
	files := map[string]string{"a.jl": "x = 1\nx = 2\ny = x\n"}
	f := newProviderFixture(t, files)
	doc := f.open(files, "a.jl")

	h, err := HoverProvider{Parser: f.parser}.Hover(
		context.Background(), f.index, doc, lsp.Position{Line: 2, Character: 4}, f.caches)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Contains(t, h.Contents.Value, "x = 2")
	assert.NotContains(t, h.Contents.Value, "x = 1")
}

func TestHover_FunctionShowsSignatureAndDefinitionSite(t *testing.T) {
	files := map[string]string{
		"src/a.jl": "function my_function(x)\n    return x + 1\nend\n\nmy_function(2)\n",
	}
	f := newProviderFixture(t, files)
	doc := f.open(files, "src/a.jl")

	h, err := HoverProvider{Parser: f.parser}.Hover(
		context.Background(), f.index, doc, lsp.Position{Line: 4, Character: 2}, f.caches)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Contains(t, h.Contents.Value, "```julia\nmy_function(x)\n```")
	assert.Contains(t, h.Contents.Value, "Defined in a.jl:1")
}

func TestHover_RepeatedRequestHitsCache(t *testing.T) {
	files := map[string]string{"a.jl": "x = 10\ny = x + 5\n"}
	f := newProviderFixture(t, files)
	doc := f.open(files, "a.jl")
	pos := lsp.Position{Line: 1, Character: 4}
	provider := HoverProvider{Parser: f.parser}

	first, err := provider.Hover(context.Background(), f.index, doc, pos, f.caches)
	require.NoError(t, err)
	second, err := provider.Hover(context.Background(), f.index, doc, pos, f.caches)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	stats := f.caches.StatsByCache()["hover"]
	assert.GreaterOrEqual(t, stats.Hits, int64(1))
}

func TestCompletion_EmptyPrefixListsAllKeywords(t *testing.T) {
	files := map[string]string{}
	f := newProviderFixture(t, files)
	doc := document.New("a.jl", "")

	list, err := CompletionProvider{}.Complete(
		context.Background(), f.index, doc, lsp.Position{Line: 0, Character: 0})
	require.NoError(t, err)

	labels := make(map[string]bool, len(list.Items))
	for _, item := range list.Items {
		labels[item.Label] = true
	}
	for _, kw := range query.Keywords {
		assert.True(t, labels[kw], "keyword %q must be offered", kw)
	}
}

func TestCompletion_QualifiedMemberAccess(t *testing.T) {
	files := map[string]string{
		"Tables.jl": "module Tables\nexport rows\nrows(t) = t\nend\n",
	}
	f := newProviderFixture(t, files)
	doc := document.New("b.jl", "Tables.ro")

	list, err := CompletionProvider{}.Complete(
		context.Background(), f.index, doc, lsp.Position{Line: 0, Character: 9})
	require.NoError(t, err)

	var labels []string
	for _, item := range list.Items {
		labels = append(labels, item.Label)
	}
	assert.Contains(t, labels, "rows")
}

func TestDiagnostics_BareEndIsSingleError(t *testing.T) {
	files := map[string]string{"a.jl": "end"}
	f := newProviderFixture(t, map[string]string{})
	doc := f.openText("a.jl", files["a.jl"])

	diags, err := DiagnosticsProvider{Parser: f.parser}.Diagnostics(
		context.Background(), f.index, doc, f.caches)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnexpectedEnd, diags[0].Code)
	assert.Equal(t, lsp.SeverityError, diags[0].Severity)
}

func (f *providerFixture) openText(uri, text string) *document.Document {
	return document.New(uri, text)
}

func TestDiagnostics_UnusedVariableWarning(t *testing.T) {
	f := newProviderFixture(t, map[string]string{})
	doc := f.openText("a.jl", "function f()\n    temp = 1\n    return 2\nend\n")

	diags, err := DiagnosticsProvider{Parser: f.parser}.Diagnostics(
		context.Background(), f.index, doc, f.caches)
	require.NoError(t, err)

	unused := diagsWithCode(diags, CodeUnusedVariable)
	require.Len(t, unused, 1)
	assert.Equal(t, lsp.SeverityWarning, unused[0].Severity)
	assert.Contains(t, unused[0].Message, "'temp'")
}

func TestDiagnostics_UnresolvedImport(t *testing.T) {
	f := newProviderFixture(t, map[string]string{})
	doc := f.openText("a.jl", "using SomeMissingPkg\nusing Base\n")

	diags, err := DiagnosticsProvider{Parser: f.parser}.Diagnostics(
		context.Background(), f.index, doc, f.caches)
	require.NoError(t, err)

	imports := diagsWithCode(diags, CodeUnresolvedImport)
	require.Len(t, imports, 1, "stdlib imports must not be flagged")
	assert.Contains(t, imports[0].Message, "'SomeMissingPkg'")
}

func TestDiagnostics_UndefinedVariableWithSuggestion(t *testing.T) {
	f := newProviderFixture(t, map[string]string{})
	doc := f.openText("a.jl", "total = 1\nprintln(totl + total)\n")

	diags, err := DiagnosticsProvider{Parser: f.parser}.Diagnostics(
		context.Background(), f.index, doc, f.caches)
	require.NoError(t, err)

	undefined := diagsWithCode(diags, CodeUndefinedVar)
	require.Len(t, undefined, 1, "println is a builtin and total is defined")
	assert.Contains(t, undefined[0].Message, "'totl'")
	assert.Contains(t, undefined[0].Message, "did you mean 'total'?")
}

func TestDiagnostics_FunctionParametersAreDefined(t *testing.T) {
	f := newProviderFixture(t, map[string]string{})
	doc := f.openText("a.jl", "function my_function(x)\n    return x + 1\nend\nmy_function(5)\n")

	diags, err := DiagnosticsProvider{Parser: f.parser}.Diagnostics(
		context.Background(), f.index, doc, f.caches)
	require.NoError(t, err)
	assert.Empty(t, diagsWithCode(diags, CodeUndefinedVar),
		"neither the parameter nor the function's own name is undefined")
}

func TestDiagnostics_ShortFormParametersAreDefined(t *testing.T) {
	f := newProviderFixture(t, map[string]string{})
	doc := f.openText("a.jl", "double(x) = x * 2\ndouble(3)\n")

	diags, err := DiagnosticsProvider{Parser: f.parser}.Diagnostics(
		context.Background(), f.index, doc, f.caches)
	require.NoError(t, err)
	assert.Empty(t, diagsWithCode(diags, CodeUndefinedVar))
}

func TestDiagnostics_CharLiteralDelimiterNotCounted(t *testing.T) {
	f := newProviderFixture(t, map[string]string{})
	doc := f.openText("a.jl", "c = '('\nprintln(c)\n")

	diags, err := DiagnosticsProvider{Parser: f.parser}.Diagnostics(
		context.Background(), f.index, doc, f.caches)
	require.NoError(t, err)
	assert.Empty(t, diagsWithCode(diags, CodeUnmatchedParen),
		"a parenthesis inside a char literal is not an opener")
}

func TestDiagnostics_EscapedQuoteKeepsStringClosed(t *testing.T) {
	f := newProviderFixture(t, map[string]string{})
	doc := f.openText("a.jl", "msg = \"say \\\" ( hi\"\nprintln(msg)\n")

	diags, err := DiagnosticsProvider{Parser: f.parser}.Diagnostics(
		context.Background(), f.index, doc, f.caches)
	require.NoError(t, err)
	assert.Empty(t, diagsWithCode(diags, CodeUnmatchedParen),
		"the escaped quote does not end the string, so its paren stays invisible")
}

func TestDiagnostics_MemoizedByVersion(t *testing.T) {
	f := newProviderFixture(t, map[string]string{})
	doc := f.openText("a.jl", "temp = 1\n")
	provider := DiagnosticsProvider{Parser: f.parser}

	first, err := provider.Diagnostics(context.Background(), f.index, doc, f.caches)
	require.NoError(t, err)
	second, err := provider.Diagnostics(context.Background(), f.index, doc, f.caches)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	stats := f.caches.StatsByCache()["diagnostics"]
	assert.GreaterOrEqual(t, stats.Hits, int64(1))
}

func diagsWithCode(diags []lsp.Diagnostic, code string) []lsp.Diagnostic {
	var out []lsp.Diagnostic
	for _, d := range diags {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

func TestDebouncer_SuppressesWithinWindow(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)
	t0 := time.Now()

	assert.True(t, d.ShouldRecompute("a.jl", 1, t0), "first request always computes")
	assert.False(t, d.ShouldRecompute("a.jl", 1, t0.Add(10*time.Millisecond)))
	assert.False(t, d.ShouldRecompute("a.jl", 1, t0.Add(90*time.Millisecond)))
	assert.True(t, d.ShouldRecompute("a.jl", 1, t0.Add(150*time.Millisecond)))
}

func TestDebouncer_VersionChangeRecomputesImmediately(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)
	t0 := time.Now()

	require.True(t, d.ShouldRecompute("a.jl", 1, t0))
	assert.True(t, d.ShouldRecompute("a.jl", 2, t0.Add(5*time.Millisecond)))
	assert.False(t, d.ShouldRecompute("a.jl", 2, t0.Add(10*time.Millisecond)),
		"the window restarts from the version change")
}

func TestDebouncer_PerDocumentState(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)
	t0 := time.Now()

	require.True(t, d.ShouldRecompute("a.jl", 1, t0))
	assert.True(t, d.ShouldRecompute("b.jl", 1, t0), "documents do not share windows")

	d.Forget("a.jl")
	assert.True(t, d.ShouldRecompute("a.jl", 1, t0.Add(time.Millisecond)),
		"forgotten documents start fresh")
}

func singleEdit(t *testing.T, action lsp.CodeAction, uri string) lsp.TextEdit {
	t.Helper()
	edits := action.Edit.Changes[uri]
	require.Len(t, edits, 1)
	return edits[0]
}

func TestCodeActions_MissingEndAtEOF(t *testing.T) {
	doc := document.New("a.jl", "function f()\n    x = 1")
	diag := lsp.Diagnostic{
		Code:    CodeMissingEnd,
		Range:   lsp.Range{Start: lsp.Position{Line: 0}, End: lsp.Position{Line: 1, Character: 9}},
		Message: "missing 'end'",
	}

	actions := CodeActionProvider{}.Actions(doc, []lsp.Diagnostic{diag})
	require.Len(t, actions, 1)
	assert.Equal(t, "Insert missing 'end'", actions[0].Title)
	assert.Equal(t, "quickfix", actions[0].Kind)

	edit := singleEdit(t, actions[0], "a.jl")
	assert.Equal(t, "\nend", edit.NewText)
	assert.Equal(t, lsp.Position{Line: 1, Character: 9}, edit.Range.Start, "appended after the last line")
}

func TestCodeActions_MissingEndBeforeFollowingCode(t *testing.T) {
	doc := document.New("a.jl", "function f()\n    x = 1\nprintln(2)\nprintln(3)\n")
	diag := lsp.Diagnostic{
		Code:    CodeMissingEnd,
		Range:   lsp.Range{Start: lsp.Position{Line: 2}, End: lsp.Position{Line: 2}},
		Message: "missing 'end'",
	}

	actions := CodeActionProvider{}.Actions(doc, []lsp.Diagnostic{diag})
	require.Len(t, actions, 1)
	edit := singleEdit(t, actions[0], "a.jl")
	assert.Equal(t, "end\n", edit.NewText)
	assert.Equal(t, lsp.Position{Line: 2, Character: 0}, edit.Range.Start,
		"the end closes the block where the parser expected it, not at EOF")
	assert.Equal(t, edit.Range.Start, edit.Range.End)
}

func TestCodeActions_UnmatchedDelimiterCountsFromMessage(t *testing.T) {
	doc := document.New("a.jl", "f(g(x\n")
	diag := lsp.Diagnostic{
		Code:    CodeUnmatchedParen,
		Range:   lsp.Range{End: lsp.Position{Line: 0, Character: 5}},
		Message: "missing 2 closing ')' (parenthesis)",
	}

	actions := CodeActionProvider{}.Actions(doc, []lsp.Diagnostic{diag})
	require.Len(t, actions, 1)
	edit := singleEdit(t, actions[0], "a.jl")
	assert.Equal(t, "))", edit.NewText)
	assert.Equal(t, lsp.Position{Line: 0, Character: 5}, edit.Range.Start)
}

func TestCodeActions_RemoveUnusedVariableDeletesLine(t *testing.T) {
	doc := document.New("a.jl", "x = 1\ntemp = 2\ny = x\n")
	diag := lsp.Diagnostic{
		Code:    CodeUnusedVariable,
		Range:   lsp.Range{Start: lsp.Position{Line: 1}},
		Message: "unused variable 'temp'",
	}

	actions := CodeActionProvider{}.Actions(doc, []lsp.Diagnostic{diag})
	require.Len(t, actions, 1)
	edit := singleEdit(t, actions[0], "a.jl")
	assert.Equal(t, "", edit.NewText)
	assert.Equal(t, lsp.Position{Line: 1, Character: 0}, edit.Range.Start)
	assert.Equal(t, lsp.Position{Line: 2, Character: 0}, edit.Range.End)
}

func TestCodeActions_InsertImportAfterLastImport(t *testing.T) {
	doc := document.New("a.jl", "using Bar\n\nFoo.thing()\n")
	diag := lsp.Diagnostic{
		Code:    CodeUnresolvedImport,
		Range:   lsp.Range{Start: lsp.Position{Line: 2}},
		Message: "unresolved import 'Foo'",
	}

	actions := CodeActionProvider{}.Actions(doc, []lsp.Diagnostic{diag})
	require.Len(t, actions, 1)
	assert.Equal(t, "Add 'using Foo'", actions[0].Title)
	edit := singleEdit(t, actions[0], "a.jl")
	assert.Equal(t, "using Foo\n", edit.NewText)
	assert.Equal(t, lsp.Position{Line: 1, Character: 0}, edit.Range.Start)
}

func TestCodeActions_RenameToSuggestion(t *testing.T) {
	doc := document.New("a.jl", "total = 1\nprintln(totl)\n")
	rng := lsp.Range{
		Start: lsp.Position{Line: 1, Character: 8},
		End:   lsp.Position{Line: 1, Character: 12},
	}
	diag := lsp.Diagnostic{
		Code:    CodeUndefinedVar,
		Range:   rng,
		Message: "undefined variable 'totl', did you mean 'total'?",
	}

	actions := CodeActionProvider{}.Actions(doc, []lsp.Diagnostic{diag})
	require.Len(t, actions, 1)
	assert.Equal(t, "Change to 'total'", actions[0].Title)
	edit := singleEdit(t, actions[0], "a.jl")
	assert.Equal(t, "total", edit.NewText)
	assert.Equal(t, rng, edit.Range)
}

func TestCodeActions_NoSuggestionNoRename(t *testing.T) {
	doc := document.New("a.jl", "println(zzqq)\n")
	diag := lsp.Diagnostic{
		Code:    CodeUndefinedVar,
		Message: "undefined variable 'zzqq'",
	}

	actions := CodeActionProvider{}.Actions(doc, []lsp.Diagnostic{diag})
	assert.Empty(t, actions)
}

func TestCodeActions_UnknownCodeIgnored(t *testing.T) {
	doc := document.New("a.jl", "end")
	diag := lsp.Diagnostic{Code: CodeSyntaxError, Message: "syntax error"}

	actions := CodeActionProvider{}.Actions(doc, []lsp.Diagnostic{diag})
	assert.Empty(t, actions)
}
