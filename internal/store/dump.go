package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jward/loupe/internal/index"
)

// DumpIndex writes the full contents of ix into the database in a single
// transaction. The dump is additive; callers wanting a fresh artifact
// should dump into a new database file.
func (s *Store) DumpIndex(ix *index.Index) (TableCounts, error) {
	var counts TableCounts

	tx, err := s.db.Begin()
	if err != nil {
		return counts, fmt.Errorf("begin dump: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	fileIDs := make(map[string]int64)
	fileID := func(path string) (int64, error) {
		if id, ok := fileIDs[path]; ok {
			return id, nil
		}
		res, err := tx.Exec("INSERT INTO files (path, last_indexed) VALUES (?, ?)", path, now)
		if err != nil {
			return 0, fmt.Errorf("insert file: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("last insert id: %w", err)
		}
		fileIDs[path] = id
		counts.Files++
		return id, nil
	}

	for _, path := range ix.Files() {
		if _, err := fileID(path); err != nil {
			return counts, err
		}
	}

	for _, path := range ix.Files() {
		fid := fileIDs[path]
		for _, sym := range ix.SymbolsInFile(path) {
			_, err := tx.Exec(
				`INSERT INTO symbols (file_id, name, kind, scope_id, signature, doc,
					start_line, start_col, end_line, end_col)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				fid, sym.Name, string(sym.Kind), sym.ScopeID, sym.Signature, sym.Doc,
				sym.Range.Start.Line, sym.Range.Start.Character,
				sym.Range.End.Line, sym.Range.End.Character,
			)
			if err != nil {
				return counts, fmt.Errorf("insert symbol: %w", err)
			}
			counts.Symbols++
		}
	}

	for _, ref := range ix.AllReferences() {
		fid, err := fileID(ref.URI)
		if err != nil {
			return counts, err
		}
		_, err = tx.Exec(
			`INSERT INTO refs (file_id, name, kind, start_line, start_col, end_line, end_col)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			fid, ref.Name, string(ref.Kind),
			ref.Range.Start.Line, ref.Range.Start.Character,
			ref.Range.End.Line, ref.Range.End.Character,
		)
		if err != nil {
			return counts, fmt.Errorf("insert reference: %w", err)
		}
		counts.References++
	}

	for pos, module := range ix.AllModules() {
		if _, err := tx.Exec("INSERT INTO modules (name, position) VALUES (?, ?)", module, pos); err != nil {
			return counts, fmt.Errorf("insert module: %w", err)
		}
		counts.Modules++

		for _, td := range ix.ModuleTypes(module) {
			fid, err := fileID(td.URI)
			if err != nil {
				return counts, err
			}
			_, err = tx.Exec(
				`INSERT INTO typedefs (module, name, kind, file_id, start_line, start_col, end_line, end_col)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				td.Module, td.Name, string(td.Kind), fid,
				td.Range.Start.Line, td.Range.Start.Character,
				td.Range.End.Line, td.Range.End.Character,
			)
			if err != nil {
				return counts, fmt.Errorf("insert typedef: %w", err)
			}
			counts.TypeDefs++
		}

		for _, sig := range ix.ModuleFunctions(module) {
			fid, err := fileID(sig.URI)
			if err != nil {
				return counts, err
			}
			res, err := tx.Exec(
				`INSERT INTO signatures (module, name, return_type, doc, file_id,
					start_line, start_col, end_line, end_col)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				sig.Module, sig.Name, sig.ReturnType, sig.Doc, fid,
				sig.Range.Start.Line, sig.Range.Start.Character,
				sig.Range.End.Line, sig.Range.End.Character,
			)
			if err != nil {
				return counts, fmt.Errorf("insert signature: %w", err)
			}
			sigID, err := res.LastInsertId()
			if err != nil {
				return counts, fmt.Errorf("last insert id: %w", err)
			}
			for i, p := range sig.Parameters {
				_, err := tx.Exec(
					"INSERT INTO signature_params (signature_id, position, name, type) VALUES (?, ?, ?, ?)",
					sigID, i, p.Name, p.Type,
				)
				if err != nil {
					return counts, fmt.Errorf("insert parameter: %w", err)
				}
			}
			counts.Signatures++
		}

		for _, name := range ix.ModuleExports(module) {
			if _, err := tx.Exec("INSERT INTO exports (module, name) VALUES (?, ?)", module, name); err != nil {
				return counts, fmt.Errorf("insert export: %w", err)
			}
			counts.Exports++
		}
	}

	for _, path := range ix.Files() {
		tree := ix.ScopeTreeFor(path)
		if tree == nil || tree.Root == nil {
			continue
		}
		fid := fileIDs[path]
		n, err := dumpScopes(tx, fid, tree)
		if err != nil {
			return counts, err
		}
		counts.Scopes += n
	}

	if err := tx.Commit(); err != nil {
		return counts, fmt.Errorf("commit dump: %w", err)
	}
	return counts, nil
}

func dumpScopes(tx *sql.Tx, fileID int64, tree *index.ScopeTree) (int, error) {
	count := 0
	stack := []*index.ScopeNode{tree.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		var parent any
		if n.ParentID != nil {
			parent = *n.ParentID
		}
		_, err := tx.Exec(
			`INSERT INTO scopes (file_id, scope_id, parent_scope_id, start_line, start_col, end_line, end_col)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			fileID, n.ID, parent,
			n.Range.Start.Line, n.Range.Start.Character,
			n.Range.End.Line, n.Range.End.Character,
		)
		if err != nil {
			return count, fmt.Errorf("insert scope: %w", err)
		}
		count++
		stack = append(stack, n.Children...)
	}
	return count, nil
}
