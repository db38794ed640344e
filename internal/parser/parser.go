// Package parser wraps the tree-sitter Julia grammar behind an
// error-tolerant parse contract: malformed source never fails, it yields a
// tree containing explicit error/missing nodes. Only grammar setup can
// produce a hard error.
package parser

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	tree_sitter_julia "github.com/tree-sitter/tree-sitter-julia/bindings/go"
)

// ErrGrammar is returned when the Julia grammar cannot be initialized.
// This is the only hard parse failure; malformed input is not an error.
var ErrGrammar = errors.New("julia grammar unavailable")

// ParsedItem is one parsed file: path, syntax tree, and the exact bytes
// the tree was built from. Immutable; analyzers share it read-only.
type ParsedItem struct {
	Path    string
	Tree    *sitter.Tree
	Content []byte
}

// Root returns the tree's root node.
func (p *ParsedItem) Root() *sitter.Node {
	return p.Tree.RootNode()
}

// Parser parses Julia source into concrete syntax trees. Each Parse call
// creates its own tree-sitter parser, so a Parser is safe for concurrent
// use.
type Parser struct {
	language *sitter.Language
}

// New creates a Parser, verifying the grammar is available.
func New() (*Parser, error) {
	ptr := tree_sitter_julia.Language()
	if ptr == nil {
		return nil, ErrGrammar
	}
	lang := sitter.NewLanguage(ptr)
	if lang == nil {
		return nil, ErrGrammar
	}
	return &Parser{language: lang}, nil
}

// Parse builds a concrete syntax tree for content. Syntax errors in the
// input are represented as error/missing nodes inside the returned tree,
// never as a Go error.
func (p *Parser) Parse(ctx context.Context, path string, content []byte) (*ParsedItem, error) {
	inner := sitter.NewParser()
	inner.SetLanguage(p.language)
	tree, err := inner.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &ParsedItem{Path: path, Tree: tree, Content: content}, nil
}

// ParseString is a convenience wrapper over Parse for string input.
func (p *Parser) ParseString(ctx context.Context, path, text string) (*ParsedItem, error) {
	return p.Parse(ctx, path, []byte(text))
}
