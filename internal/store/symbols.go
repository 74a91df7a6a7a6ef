package store

import (
	"database/sql"
	"fmt"

	"github.com/jward/gildash/internal/model"
)

// Symbols is the symbols repository of §4.3.
type Symbols struct{ s *Store }

func (s *Store) Symbols() *Symbols { return &Symbols{s: s} }

// ReplaceFileSymbols replaces a file's symbol rows as a unit. contentHash
// is not stored with the rows; it only has to be non-empty for the no-op
// check: if the incoming rows match the stored rows one-for-one by name and
// fingerprint, the call is a no-op — reindexing unchanged content must not
// touch updated_at-equivalent state or create additional rows.
func (r *Symbols) ReplaceFileSymbols(tx *Tx, project, path, contentHash string, rows []model.Symbol) error {
	existing, err := r.GetFileSymbols(tx, project, path)
	if err != nil {
		return err
	}
	if contentHash != "" && symbolsUnchanged(existing, rows) {
		return nil
	}
	if _, err := tx.Exec(`DELETE FROM symbols WHERE project = ? AND file_path = ?`, project, path); err != nil {
		return fmt.Errorf("clear symbols for %s/%s: %w", project, path, err)
	}
	for _, row := range rows {
		if _, err := tx.Exec(`
			INSERT INTO symbols (project, file_path, name, kind, span_start, span_end, is_exported, signature, fingerprint, detail_json, modifiers)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			project, path, row.Name, string(row.Kind), row.StartLine, row.EndLine, boolToInt(row.Exported),
			row.Signature, row.Fingerprint, row.DetailJSON, int64(row.Modifiers)); err != nil {
			return fmt.Errorf("insert symbol %s/%s#%s: %w", project, path, row.Name, err)
		}
	}
	return nil
}

func symbolsUnchanged(existing, incoming []model.Symbol) bool {
	if len(existing) != len(incoming) {
		return false
	}
	seen := make(map[string]string, len(existing))
	for _, e := range existing {
		seen[e.Name] = e.Fingerprint
	}
	for _, n := range incoming {
		fp, ok := seen[n.Name]
		if !ok || fp != n.Fingerprint {
			return false
		}
	}
	return true
}

// GetFileSymbols returns the current symbol rows for one file.
func (r *Symbols) GetFileSymbols(tx *Tx, project, path string) ([]model.Symbol, error) {
	rows, err := tx.Query(`
		SELECT id, project, file_path, name, kind, span_start, span_end, is_exported, signature, fingerprint, detail_json, modifiers
		FROM symbols WHERE project = ? AND file_path = ?`, project, path)
	if err != nil {
		return nil, fmt.Errorf("get file symbols: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// SearchExact returns symbol rows with exactly this name, optionally scoped
// to a project.
func (r *Symbols) SearchExact(tx *Tx, name, project string) ([]model.Symbol, error) {
	query := `SELECT id, project, file_path, name, kind, span_start, span_end, is_exported, signature, fingerprint, detail_json, modifiers FROM symbols WHERE name = ?`
	args := []any{name}
	if project != "" {
		query += " AND project = ?"
		args = append(args, project)
	}
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search exact: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// SearchByPrefix resolves a symbol-name lookup through the companion FTS5
// index (symbols_fts), optionally narrowed by kind and project.
func (r *Symbols) SearchByPrefix(tx *Tx, text, kind, project string) ([]model.Symbol, error) {
	query := `
		SELECT s.id, s.project, s.file_path, s.name, s.kind, s.span_start, s.span_end, s.is_exported, s.signature, s.fingerprint, s.detail_json, s.modifiers
		FROM symbols_fts f
		JOIN symbols s ON s.id = f.rowid
		WHERE f.name MATCH ?`
	args := []any{text + "*"}
	if kind != "" {
		query += " AND s.kind = ?"
		args = append(args, kind)
	}
	if project != "" {
		query += " AND s.project = ?"
		args = append(args, project)
	}
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search by prefix: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// Stats reports aggregate counts for a project, grouped by kind.
func (r *Symbols) Stats(tx *Tx, project string) (map[model.SymbolKind]int, error) {
	rows, err := tx.Query(`SELECT kind, COUNT(*) FROM symbols WHERE project = ? GROUP BY kind`, project)
	if err != nil {
		return nil, fmt.Errorf("symbol stats: %w", err)
	}
	defer rows.Close()
	out := map[model.SymbolKind]int{}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		out[model.SymbolKind(kind)] = n
	}
	return out, rows.Err()
}

func scanSymbols(rows *sql.Rows) ([]model.Symbol, error) {
	var out []model.Symbol
	for rows.Next() {
		var sym model.Symbol
		var kind string
		var exported int
		var modifiers int64
		if err := rows.Scan(&sym.ID, &sym.Project, &sym.FilePath, &sym.Name, &kind, &sym.StartLine, &sym.EndLine,
			&exported, &sym.Signature, &sym.Fingerprint, &sym.DetailJSON, &modifiers); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		sym.Kind = model.SymbolKind(kind)
		sym.Exported = exported != 0
		sym.Modifiers = model.Modifier(modifiers)
		out = append(out, sym)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
