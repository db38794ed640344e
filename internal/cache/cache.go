// Package cache provides the engine's layered memoization: six
// independent bounded caches with per-cache hit/miss accounting. Each
// cache locks independently, so a write to one never blocks another.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/lsp"
)

// Default capacities, overridable through Options.
const (
	DefaultValidityCapacity    = 512
	DefaultSymbolCapacity      = 2048
	DefaultDocsCapacity        = 2048
	DefaultHoverCapacity       = 1024
	DefaultInferredCapacity    = 256
	DefaultDiagnosticsCapacity = 128
)

// Options sets per-cache capacities. Zero fields keep defaults.
type Options struct {
	Validity    int
	Symbols     int
	Docs        int
	Hover       int
	Inferred    int
	Diagnostics int
}

// PositionKey keys hover results by exact request position.
type PositionKey struct {
	URI       string
	Line      int
	Character int
}

// VersionKey keys diagnostics by document version.
type VersionKey struct {
	URI     string
	Version int
}

// InferredRange is one heuristically inferred "type-like" annotation for
// a span of a file.
type InferredRange struct {
	Range lsp.Range
	Label string
}

// Stats is one cache's hit/miss accounting.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

type counter struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *counter) record(ok bool) {
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

func (c *counter) stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Manager owns the six caches. Hosts create one Manager and pass it into
// provider calls; there is no process-wide default instance.
type Manager struct {
	validity *lru.Cache[string, time.Time]
	symbols  *lru.Cache[string, index.Symbol]
	docs     *lru.Cache[string, string]
	hover    *lru.Cache[PositionKey, *lsp.Hover]
	inferred *lru.Cache[string, []InferredRange]
	diags    *diagnosticsCache

	validityStats counter
	symbolStats   counter
	docsStats     counter
	hoverStats    counter
	inferredStats counter
	diagStats     counter
}

// NewManager creates a Manager with the given capacities.
func NewManager(opts Options) *Manager {
	validity, _ := lru.New[string, time.Time](capacityOr(opts.Validity, DefaultValidityCapacity))
	symbols, _ := lru.New[string, index.Symbol](capacityOr(opts.Symbols, DefaultSymbolCapacity))
	docs, _ := lru.New[string, string](capacityOr(opts.Docs, DefaultDocsCapacity))
	hover, _ := lru.New[PositionKey, *lsp.Hover](capacityOr(opts.Hover, DefaultHoverCapacity))
	inferred, _ := lru.New[string, []InferredRange](capacityOr(opts.Inferred, DefaultInferredCapacity))
	return &Manager{
		validity: validity,
		symbols:  symbols,
		docs:     docs,
		hover:    hover,
		inferred: inferred,
		diags:    newDiagnosticsCache(capacityOr(opts.Diagnostics, DefaultDiagnosticsCapacity)),
	}
}

func capacityOr(n, fallback int) int {
	if n > 0 {
		return n
	}
	return fallback
}

// --- document validity ---

// Validity returns the recorded last-modified time for uri.
func (m *Manager) Validity(uri string) (time.Time, bool) {
	t, ok := m.validity.Get(uri)
	m.validityStats.record(ok)
	return t, ok
}

// SetValidity records uri's last-modified time.
func (m *Manager) SetValidity(uri string, lastModified time.Time) {
	m.validity.Add(uri, lastModified)
}

// --- resolved symbols ---

// Symbol returns a cached name resolution.
func (m *Manager) Symbol(name string) (index.Symbol, bool) {
	sym, ok := m.symbols.Get(name)
	m.symbolStats.record(ok)
	return sym, ok
}

// SetSymbol caches a name resolution. Keyed on stable symbol identity,
// not file content, so per-edit invalidation is unnecessary — but the
// entry goes stale if the identity changes without invalidation, a known
// limitation.
func (m *Manager) SetSymbol(name string, sym index.Symbol) {
	m.symbols.Add(name, sym)
}

// --- symbol docs ---

// Docs returns cached documentation text for a symbol name.
func (m *Manager) Docs(name string) (string, bool) {
	doc, ok := m.docs.Get(name)
	m.docsStats.record(ok)
	return doc, ok
}

// SetDocs caches documentation text for a symbol name.
func (m *Manager) SetDocs(name, doc string) {
	m.docs.Add(name, doc)
}

// --- hover results ---

// Hover returns a cached hover result for an exact position.
func (m *Manager) Hover(key PositionKey) (*lsp.Hover, bool) {
	h, ok := m.hover.Get(key)
	m.hoverStats.record(ok)
	return h, ok
}

// SetHover caches a hover result.
func (m *Manager) SetHover(key PositionKey, h *lsp.Hover) {
	m.hover.Add(key, h)
}

// --- inferred type ranges ---

// Inferred returns the cached inferred-type ranges for a file.
func (m *Manager) Inferred(uri string) ([]InferredRange, bool) {
	r, ok := m.inferred.Get(uri)
	m.inferredStats.record(ok)
	return r, ok
}

// SetInferred caches a file's inferred-type ranges.
func (m *Manager) SetInferred(uri string, ranges []InferredRange) {
	m.inferred.Add(uri, ranges)
}

// --- diagnostics ---

// Diagnostics returns cached diagnostics for (uri, version).
func (m *Manager) Diagnostics(key VersionKey) ([]lsp.Diagnostic, bool) {
	d, ok := m.diags.get(key)
	m.diagStats.record(ok)
	return d, ok
}

// SetDiagnostics caches diagnostics for (uri, version).
func (m *Manager) SetDiagnostics(key VersionKey, diags []lsp.Diagnostic) {
	m.diags.set(key, diags)
}

// InvalidateFile drops uri's document-validity, hover, inferred-range,
// and diagnostics entries. Symbol and docs caches are workspace-global
// and are deliberately left alone.
func (m *Manager) InvalidateFile(uri string) {
	m.validity.Remove(uri)
	m.inferred.Remove(uri)
	for _, key := range m.hover.Keys() {
		if key.URI == uri {
			m.hover.Remove(key)
		}
	}
	m.diags.invalidateURI(uri)
}

// StatsByCache reports hit/miss counts per cache.
func (m *Manager) StatsByCache() map[string]Stats {
	return map[string]Stats{
		"validity":    m.validityStats.stats(),
		"symbols":     m.symbolStats.stats(),
		"docs":        m.docsStats.stats(),
		"hover":       m.hoverStats.stats(),
		"inferred":    m.inferredStats.stats(),
		"diagnostics": m.diagStats.stats(),
	}
}

// diagnosticsCache is a capacity-bounded map with oldest-key eviction.
// Diagnostics turn over with every edit, so plain insertion-order
// eviction is good enough here.
type diagnosticsCache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[VersionKey][]lsp.Diagnostic
	order    []VersionKey
}

func newDiagnosticsCache(capacity int) *diagnosticsCache {
	return &diagnosticsCache{
		capacity: capacity,
		entries:  make(map[VersionKey][]lsp.Diagnostic, capacity),
	}
}

func (c *diagnosticsCache) get(key VersionKey) ([]lsp.Diagnostic, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[key]
	return d, ok
}

func (c *diagnosticsCache) set(key VersionKey, diags []lsp.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.capacity && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = diags
}

func (c *diagnosticsCache) invalidateURI(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.order[:0]
	for _, key := range c.order {
		if key.URI == uri {
			delete(c.entries, key)
			continue
		}
		kept = append(kept, key)
	}
	c.order = kept
}
