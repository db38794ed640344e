package store

import (
	"database/sql"
	"fmt"
)

// FileByPath looks up a file row, or nil when absent.
func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT id, path, last_indexed FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.LastIndexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

const symbolCols = `id, file_id, name, kind, scope_id, signature, doc,
	start_line, start_col, end_line, end_col`

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var symbols []*Symbol
	for rows.Next() {
		sym := &Symbol{}
		err := rows.Scan(
			&sym.ID, &sym.FileID, &sym.Name, &sym.Kind, &sym.ScopeID,
			&sym.Signature, &sym.Doc,
			&sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.EndCol,
		)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// SymbolsByName returns every symbol row with the given name.
func (s *Store) SymbolsByName(name string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE name = ?", name)
}

// SymbolsByFile returns every symbol row for one file.
func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE file_id = ?", fileID)
}

// SignaturesByModule returns module's signatures with parameters attached.
func (s *Store) SignaturesByModule(module string) ([]*Signature, error) {
	rows, err := s.db.Query(
		`SELECT id, module, name, return_type, doc, file_id,
			start_line, start_col, end_line, end_col
		 FROM signatures WHERE module = ? ORDER BY name, id`, module,
	)
	if err != nil {
		return nil, fmt.Errorf("signatures by module: %w", err)
	}
	defer rows.Close()
	var sigs []*Signature
	for rows.Next() {
		sig := &Signature{}
		err := rows.Scan(
			&sig.ID, &sig.Module, &sig.Name, &sig.ReturnType, &sig.Doc, &sig.FileID,
			&sig.StartLine, &sig.StartCol, &sig.EndLine, &sig.EndCol,
		)
		if err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		sigs = append(sigs, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, sig := range sigs {
		params, err := s.paramsBySignature(sig.ID)
		if err != nil {
			return nil, err
		}
		sig.Params = params
	}
	return sigs, nil
}

func (s *Store) paramsBySignature(sigID int64) ([]Param, error) {
	rows, err := s.db.Query(
		"SELECT id, signature_id, position, name, type FROM signature_params WHERE signature_id = ? ORDER BY position",
		sigID,
	)
	if err != nil {
		return nil, fmt.Errorf("params by signature: %w", err)
	}
	defer rows.Close()
	var params []Param
	for rows.Next() {
		var p Param
		if err := rows.Scan(&p.ID, &p.SignatureID, &p.Position, &p.Name, &p.Type); err != nil {
			return nil, fmt.Errorf("scan parameter: %w", err)
		}
		params = append(params, p)
	}
	return params, rows.Err()
}

// ExportsByModule returns module's exported names.
func (s *Store) ExportsByModule(module string) ([]string, error) {
	rows, err := s.db.Query("SELECT name FROM exports WHERE module = ? ORDER BY id", module)
	if err != nil {
		return nil, fmt.Errorf("exports by module: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Counts returns row counts per table.
func (s *Store) Counts() (TableCounts, error) {
	var counts TableCounts
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"files", &counts.Files},
		{"symbols", &counts.Symbols},
		{"refs", &counts.References},
		{"typedefs", &counts.TypeDefs},
		{"signatures", &counts.Signatures},
		{"exports", &counts.Exports},
		{"modules", &counts.Modules},
		{"scopes", &counts.Scopes},
	} {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + q.table).Scan(q.dst); err != nil {
			return counts, fmt.Errorf("count %s: %w", q.table, err)
		}
	}
	return counts, nil
}
