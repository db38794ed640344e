// Package document tracks open editor buffers: mutable text with a
// version counter and a lazily rebuilt syntax tree. Documents are owned
// by the editing session, one writer per document, and are independent of
// the workspace Index.
package document

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jward/loupe/internal/parser"
)

// ErrNotFound is returned when an operation names a URI that is not open.
var ErrNotFound = errors.New("document not found")

// Document is one open buffer.
type Document struct {
	URI          string
	Text         string
	Version      int
	LastModified time.Time
	Dirty        bool

	parsed *parser.ParsedItem
}

// New creates a Document at version 0 with a clean parse state.
func New(uri, text string) *Document {
	return &Document{
		URI:          uri,
		Text:         text,
		Version:      0,
		LastModified: time.Now(),
	}
}

// ApplyChange replaces the document text, bumps the version, and marks
// the cached tree stale.
func (d *Document) ApplyChange(text string) {
	d.Text = text
	d.Version++
	d.LastModified = time.Now()
	d.Dirty = true
	d.parsed = nil
}

// Parsed returns the document's syntax tree, reparsing only when the text
// changed since the last parse.
func (d *Document) Parsed(ctx context.Context, p *parser.Parser) (*parser.ParsedItem, error) {
	if d.parsed != nil && !d.Dirty {
		return d.parsed, nil
	}
	item, err := p.ParseString(ctx, d.URI, d.Text)
	if err != nil {
		return nil, err
	}
	d.parsed = item
	d.Dirty = false
	return item, nil
}

// Store holds the open documents for one editing session. The session
// layer is the single writer per document; the Store only guards its own
// map.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewStore creates an empty document store.
func NewStore() *Store {
	return &Store{docs: make(map[string]*Document)}
}

// Open registers a document for uri at version 0, replacing any previous
// entry for the same uri.
func (s *Store) Open(uri, text string) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := New(uri, text)
	s.docs[uri] = doc
	return doc
}

// Change applies a full-content replacement to an open document.
func (s *Store) Change(uri, text string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uri]
	if !ok {
		return nil, ErrNotFound
	}
	doc.ApplyChange(text)
	return doc, nil
}

// Close forgets an open document.
func (s *Store) Close(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[uri]; !ok {
		return ErrNotFound
	}
	delete(s.docs, uri)
	return nil
}

// Get returns the open document for uri.
func (s *Store) Get(uri string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

// Len reports how many documents are open.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
