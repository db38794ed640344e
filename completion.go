package loupe

import (
	"context"

	"github.com/jward/loupe/internal/document"
	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/lsp"
	"github.com/jward/loupe/internal/query"
)

// CompletionProvider produces completion lists. Stateless: every call is
// a pure function of (Index, Document, Position).
type CompletionProvider struct{}

// Complete classifies the cursor context from the document text (member
// completion after a dot, bare word prefix otherwise) and returns keyword
// and symbol candidates, keywords first, de-duplicated by label. The
// result is never empty: an empty filtered set falls back to all keywords
// plus the first few indexed symbols.
func (CompletionProvider) Complete(_ context.Context, idx *index.Index, doc *document.Document, pos lsp.Position) (lsp.CompletionList, error) {
	cctx := query.ContextAt(doc.Text, pos)
	return query.CompletionQuery{Index: idx}.Complete(cctx), nil
}
