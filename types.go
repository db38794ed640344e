package loupe

import (
	"github.com/jward/loupe/internal/cache"
	"github.com/jward/loupe/internal/config"
	"github.com/jward/loupe/internal/document"
	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/lsp"
	"github.com/jward/loupe/internal/source"
)

// Public type aliases for the internal types used in the provider API.
// These are Go type aliases (=) — identical to the internal types at
// compile time. External consumers use these names; no conversion is
// needed.

type Index = index.Index
type Symbol = index.Symbol
type SymbolKind = index.SymbolKind
type Reference = index.Reference
type TypeDefinition = index.TypeDefinition
type FunctionSignature = index.FunctionSignature
type Parameter = index.Parameter
type ScopeTree = index.ScopeTree
type ScopeNode = index.ScopeNode
type AnalysisResult = index.AnalysisResult
type IndexStats = index.Stats
type Snapshot = index.Snapshot

type SourceItem = source.Item
type Document = document.Document
type DocumentStore = document.Store

type Position = lsp.Position
type Range = lsp.Range
type Location = lsp.Location
type Hover = lsp.Hover
type CompletionItem = lsp.CompletionItem
type CompletionList = lsp.CompletionList
type Diagnostic = lsp.Diagnostic
type DiagnosticSeverity = lsp.DiagnosticSeverity
type TextEdit = lsp.TextEdit
type WorkspaceEdit = lsp.WorkspaceEdit
type CodeAction = lsp.CodeAction

const (
	SeverityError       = lsp.SeverityError
	SeverityWarning     = lsp.SeverityWarning
	SeverityInformation = lsp.SeverityInformation
	SeverityHint        = lsp.SeverityHint
)

type CacheManager = cache.Manager
type CacheOptions = cache.Options
type CacheStats = cache.Stats

type Config = config.Config
