package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/loupe/internal/lsp"
)

func parse(t *testing.T, src string) *ParsedItem {
	t.Helper()
	p, err := New()
	require.NoError(t, err)
	item, err := p.ParseString(context.Background(), "test.jl", src)
	require.NoError(t, err)
	return item
}

func TestParse_WellFormed(t *testing.T) {
	item := parse(t, "function f(x)\n    x + 1\nend\n")
	root := item.Root()
	require.NotNil(t, root)
	assert.Equal(t, ClassSourceFile, Classify(root.Type()))
	assert.False(t, root.HasError())
}

func TestParse_MalformedIsNotAnError(t *testing.T) {
	item := parse(t, "function f(x\n    x +\n")
	require.NotNil(t, item.Root())
	assert.True(t, item.Root().HasError(), "syntax errors live in the tree, not in err")
}

func TestClassify_AliasSpellings(t *testing.T) {
	// The grammar renamed nodes across releases; both spellings classify
	// the same.
	assert.Equal(t, ClassAssignment, Classify("assignment"))
	assert.Equal(t, ClassAssignment, Classify("assignment_expression"))
	assert.Equal(t, ClassCall, Classify("call"))
	assert.Equal(t, ClassCall, Classify("call_expression"))
	assert.Equal(t, ClassFieldAccess, Classify("field_expression"))
	assert.Equal(t, ClassFieldAccess, Classify("field_access"))
	assert.Equal(t, ClassOther, Classify("no_such_kind"))
}

func TestNodeClass_Predicates(t *testing.T) {
	assert.True(t, ClassFunction.IsDefinition())
	assert.True(t, ClassAssignment.IsDefinition())
	assert.False(t, ClassCall.IsDefinition())

	assert.True(t, ClassFunction.IsScopeRoot())
	assert.True(t, ClassModule.IsScopeRoot())
	assert.False(t, ClassIf.IsScopeRoot())
	assert.False(t, ClassMacro.IsScopeRoot())
}

func TestWalk_VisitsInDocumentOrderAndPrunes(t *testing.T) {
	item := parse(t, "x = 1\ny = 2\n")

	var kinds []NodeClass
	Walk(item.Root(), func(n *sitter.Node) bool {
		kinds = append(kinds, Classify(n.Type()))
		return true
	})
	assert.Equal(t, ClassSourceFile, kinds[0])

	// Pruning at the root yields exactly one visit.
	visits := 0
	Walk(item.Root(), func(n *sitter.Node) bool {
		visits++
		return false
	})
	assert.Equal(t, 1, visits)
}

func TestNameOf_Definitions(t *testing.T) {
	item := parse(t, "function my_func(x)\n    x\nend\n")
	fn := FirstChildOfClass(item.Root(), ClassFunction)
	require.NotNil(t, fn)
	assert.Equal(t, "my_func", NameOf(fn, item.Content))
}

func TestNameOf_AssignmentFormFunction(t *testing.T) {
	// Depending on the grammar release this parses as a short function
	// definition or as an assignment with a call on the left; either way
	// the callee names the function.
	item := parse(t, "double(x) = x * 2\n")
	var def *sitter.Node
	Walk(item.Root(), func(n *sitter.Node) bool {
		if def != nil {
			return false
		}
		switch Classify(n.Type()) {
		case ClassFunction, ClassAssignment:
			def = n
			return false
		}
		return true
	})
	require.NotNil(t, def)
	assert.Equal(t, "double", NameOf(def, item.Content))
}

func TestNameOf_TypedHeaderDescendsToIdentifier(t *testing.T) {
	item := parse(t, "function add(x::Int)::Int\n    x + 1\nend\n")
	fn := FirstChildOfClass(item.Root(), ClassFunction)
	require.NotNil(t, fn)
	assert.Equal(t, "add", NameOf(fn, item.Content))
}

func TestRangeOf_And_NodeContains(t *testing.T) {
	item := parse(t, "x = 1\n")
	r := RangeOf(item.Root())
	assert.Equal(t, lsp.Position{Line: 0, Character: 0}, r.Start)

	assert.True(t, NodeContains(item.Root(), lsp.Position{Line: 0, Character: 3}))
	assert.False(t, NodeContains(item.Root(), lsp.Position{Line: 5, Character: 0}))
}
