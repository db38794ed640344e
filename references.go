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

// ReferencesProvider resolves find-references requests.
type ReferencesProvider struct {
	Parser *parser.Parser
}

// References returns every location referencing the symbol under pos.
// With includeDeclaration, the definition location is unioned in unless a
// reference already sits at that exact position.
func (p ReferencesProvider) References(ctx context.Context, idx *index.Index, doc *document.Document, pos lsp.Position, includeDeclaration bool) ([]lsp.Location, error) {
	item, err := doc.Parsed(ctx, p.Parser)
	if err != nil {
		return nil, fmt.Errorf("references: %w", err)
	}
	name, _, err := query.SymbolNameAt(item, pos)
	if err != nil {
		if errors.Is(err, query.ErrSymbolNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return query.ReferenceQuery{Index: idx}.Locations(name, includeDeclaration), nil
}
