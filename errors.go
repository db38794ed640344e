package loupe

import (
	"github.com/jward/loupe/internal/analyze"
	"github.com/jward/loupe/internal/document"
	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/parser"
	"github.com/jward/loupe/internal/query"
)

// The engine's failure kinds. Feature providers return empty results for
// "legitimately nothing to show" and reserve errors for genuine faults;
// callers must not render an error message for an empty result.
var (
	// ErrParse covers grammar/parser setup failures only. Malformed
	// source is not an error; it parses to a tree with error nodes.
	ErrParse = parser.ErrGrammar

	// ErrSymbolNotFound reports a name that resolves to nothing.
	ErrSymbolNotFound = query.ErrSymbolNotFound

	// ErrInvalidPosition reports a position outside the document.
	ErrInvalidPosition = query.ErrInvalidPosition

	// ErrDocumentNotFound reports an operation on a URI that is not open.
	ErrDocumentNotFound = document.ErrNotFound

	// ErrIO reports snapshot load/save failures.
	ErrIO = index.ErrSnapshotIO

	// ErrInternal reports analyzer-internal failures.
	ErrInternal = analyze.ErrInternal
)
