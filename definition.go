package loupe

import (
	"context"
	"errors"
	"fmt"

	"github.com/jward/loupe/internal/document"
	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/lsp"
	"github.com/jward/loupe/internal/parser"
	"github.com/jward/loupe/internal/query"
)

// DefinitionProvider resolves go-to-definition requests.
type DefinitionProvider struct {
	Parser *parser.Parser
}

// Definition returns the definition location for the symbol under pos.
// An empty result means there is legitimately nothing to go to; errors
// are reserved for broken requests.
func (p DefinitionProvider) Definition(ctx context.Context, idx *index.Index, doc *document.Document, pos lsp.Position) ([]lsp.Location, error) {
	item, err := doc.Parsed(ctx, p.Parser)
	if err != nil {
		return nil, fmt.Errorf("definition: %w", err)
	}
	name, _, err := query.SymbolNameAt(item, pos)
	if err != nil {
		if errors.Is(err, query.ErrSymbolNotFound) {
			return nil, nil
		}
		return nil, err
	}
	sym, err := query.SymbolQuery{Index: idx}.ResolveSymbolAt(name, doc.URI, pos)
	if err != nil {
		if errors.Is(err, query.ErrSymbolNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []lsp.Location{{URI: sym.URI, Range: sym.Range}}, nil
}
