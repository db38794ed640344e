package analyze

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/parser"
)

// Scopes builds the file's scope tree. The root scope spans the whole
// file; only function and module definitions open nested scopes, so
// control-flow blocks share their enclosing scope.
func Scopes(item *parser.ParsedItem) *index.ScopeTree {
	root := &index.ScopeNode{
		ID:    0,
		Range: parser.RangeOf(item.Root()),
		URI:   item.Path,
	}
	tree := &index.ScopeTree{URI: item.Path, Root: root}

	nextID := 1

	type frame struct {
		node  *sitter.Node
		scope *index.ScopeNode
	}
	work := []frame{{node: item.Root(), scope: root}}
	for len(work) > 0 {
		fr := work[len(work)-1]
		work = work[:len(work)-1]

		scope := fr.scope
		if fr.node != item.Root() && parser.Classify(fr.node.Type()).IsScopeRoot() {
			parentID := fr.scope.ID
			child := &index.ScopeNode{
				ID:       nextID,
				ParentID: &parentID,
				Range:    parser.RangeOf(fr.node),
				URI:      item.Path,
			}
			nextID++
			fr.scope.Children = append(fr.scope.Children, child)
			scope = child
		}

		for i := int(fr.node.ChildCount()) - 1; i >= 0; i-- {
			if c := fr.node.Child(i); c != nil {
				work = append(work, frame{node: c, scope: scope})
			}
		}
	}
	return tree
}
