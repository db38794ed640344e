package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrSnapshotIO wraps snapshot load/save failures.
var ErrSnapshotIO = errors.New("snapshot io")

// snapshotVersion guards against reading snapshots written by an
// incompatible layout.
const snapshotVersion = 1

// DefaultSnapshotMaxAge is how old a snapshot may be before consumers
// should treat it as stale and re-index the underlying files.
const DefaultSnapshotMaxAge = 7 * 24 * time.Hour

// Snapshot is the reduced persistent form of an Index: module-qualified
// type definitions, function signatures, and export sets. Symbols,
// references, and scopes are intentionally not persisted — the snapshot
// exists to avoid re-walking an enormous, slow-changing standard library,
// and those facts are cheap to rebuild for workspace files.
type Snapshot struct {
	Version    int                            `json:"version"`
	CreatedAt  time.Time                      `json:"created_at"`
	Types      map[string][]TypeDefinition    `json:"types"`
	Signatures map[string][]FunctionSignature `json:"signatures"`
	Exports    map[string][]string            `json:"exports"`
	Modules    []string                       `json:"modules"`
}

// Snapshot captures the persistable portion of the Index.
func (ix *Index) Snapshot() *Snapshot {
	snap := &Snapshot{
		Version:    snapshotVersion,
		CreatedAt:  time.Now(),
		Types:      make(map[string][]TypeDefinition, len(ix.typesByModule)),
		Signatures: make(map[string][]FunctionSignature, len(ix.sigsByModule)),
		Exports:    make(map[string][]string, len(ix.exports)),
		Modules:    ix.AllModules(),
	}
	for module, tds := range ix.typesByModule {
		snap.Types[module] = append([]TypeDefinition(nil), tds...)
	}
	for module, sigs := range ix.sigsByModule {
		snap.Signatures[module] = append([]FunctionSignature(nil), sigs...)
	}
	for module, names := range ix.exports {
		snap.Exports[module] = append([]string(nil), names...)
	}
	return snap
}

// FromSnapshot builds an Index holding the snapshot's types, signatures,
// and exports. Symbol, reference, and scope queries against the result
// are empty by design.
func FromSnapshot(snap *Snapshot) (*Index, error) {
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	ix := New()
	for _, module := range snap.Modules {
		ix.addModule(module)
	}
	for module, tds := range snap.Types {
		ix.addModule(module)
		ix.typesByModule[module] = append([]TypeDefinition(nil), tds...)
	}
	for module, sigs := range snap.Signatures {
		ix.addModule(module)
		ix.sigsByModule[module] = append([]FunctionSignature(nil), sigs...)
	}
	for module, names := range snap.Exports {
		ix.AddExports(module, names)
	}
	return ix, nil
}

// Stale reports whether the snapshot is older than maxAge. A non-positive
// maxAge falls back to DefaultSnapshotMaxAge.
func (s *Snapshot) Stale(maxAge time.Duration) bool {
	if maxAge <= 0 {
		maxAge = DefaultSnapshotMaxAge
	}
	return time.Since(s.CreatedAt) > maxAge
}

// SaveSnapshot serializes the snapshot to path as JSON.
func SaveSnapshot(snap *Snapshot, path string) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrSnapshotIO, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrSnapshotIO, path, err)
	}
	return nil
}

// LoadSnapshot reads a snapshot from path.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrSnapshotIO, path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrSnapshotIO, path, err)
	}
	return &snap, nil
}
