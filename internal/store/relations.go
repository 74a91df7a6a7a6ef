package store

import (
	"database/sql"
	"fmt"

	"github.com/jward/gildash/internal/model"
)

// Relations is the relations repository of §4.3.
type Relations struct{ s *Store }

func (s *Store) Relations() *Relations { return &Relations{s: s} }

// ReplaceFileRelations implements invariant 3: DELETE-then-INSERT for one
// source file inside the caller's transaction.
func (r *Relations) ReplaceFileRelations(tx *Tx, project, path string, rows []model.Relation) error {
	if _, err := tx.Exec(`DELETE FROM relations WHERE project = ? AND src_file_path = ?`, project, path); err != nil {
		return fmt.Errorf("clear relations for %s/%s: %w", project, path, err)
	}
	for _, row := range rows {
		if _, err := tx.Exec(`
			INSERT INTO relations (project, type, src_file_path, src_symbol_name, dst_project, dst_file_path, dst_symbol_name, meta_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			project, string(row.Type), path, row.SrcSymbolName, row.DstProject, row.DstFilePath, row.DstSymbolName, row.MetaJSON); err != nil {
			return fmt.Errorf("insert relation %s/%s -> %s/%s: %w", project, path, row.DstProject, row.DstFilePath, err)
		}
	}
	return nil
}

// GetOutgoing returns every relation whose source is this file.
func (r *Relations) GetOutgoing(tx *Tx, project, path string) ([]model.Relation, error) {
	rows, err := tx.Query(`
		SELECT id, project, type, src_file_path, src_symbol_name, dst_project, dst_file_path, dst_symbol_name, meta_json
		FROM relations WHERE project = ? AND src_file_path = ?`, project, path)
	if err != nil {
		return nil, fmt.Errorf("get outgoing: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

// GetIncoming returns every relation whose destination is this file.
func (r *Relations) GetIncoming(tx *Tx, dstProject, dstPath string) ([]model.Relation, error) {
	rows, err := tx.Query(`
		SELECT id, project, type, src_file_path, src_symbol_name, dst_project, dst_file_path, dst_symbol_name, meta_json
		FROM relations WHERE dst_project = ? AND dst_file_path = ?`, dstProject, dstPath)
	if err != nil {
		return nil, fmt.Errorf("get incoming: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

// GetByType returns every relation of a given type within a project.
func (r *Relations) GetByType(tx *Tx, project string, typ model.RelationType) ([]model.Relation, error) {
	rows, err := tx.Query(`
		SELECT id, project, type, src_file_path, src_symbol_name, dst_project, dst_file_path, dst_symbol_name, meta_json
		FROM relations WHERE project = ? AND type = ?`, project, string(typ))
	if err != nil {
		return nil, fmt.Errorf("get by type: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

// AllOfTypes returns every relation of any of the given types, optionally
// scoped to a set of projects — the load query behind the graph engine's
// build() (§4.7), which needs imports/type-references/re-exports in bulk.
func (r *Relations) AllOfTypes(tx *Tx, projects []string, types []model.RelationType) ([]model.Relation, error) {
	typeArgs := make([]any, len(types))
	for i, t := range types {
		typeArgs[i] = string(t)
	}
	query := `
		SELECT id, project, type, src_file_path, src_symbol_name, dst_project, dst_file_path, dst_symbol_name, meta_json
		FROM relations WHERE type IN (` + placeholderList(len(types)) + `)`
	args := typeArgs
	if len(projects) > 0 {
		query += ` AND project IN (` + placeholderList(len(projects)) + `)`
		args = append(args, stringsToArgs(projects)...)
	}
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("load relations for graph: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

// Search applies a RelationFilter, matching only the fields that are set.
func (r *Relations) Search(tx *Tx, filter model.RelationFilter) ([]model.Relation, error) {
	query := `SELECT id, project, type, src_file_path, src_symbol_name, dst_project, dst_file_path, dst_symbol_name, meta_json FROM relations WHERE 1=1`
	var args []any
	if filter.Project != "" {
		query += " AND project = ?"
		args = append(args, filter.Project)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, string(filter.Type))
	}
	if filter.SrcFilePath != "" {
		query += " AND src_file_path = ?"
		args = append(args, filter.SrcFilePath)
	}
	if filter.DstProject != "" {
		query += " AND dst_project = ?"
		args = append(args, filter.DstProject)
	}
	if filter.DstFilePath != "" {
		query += " AND dst_file_path = ?"
		args = append(args, filter.DstFilePath)
	}
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search relations: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

// Retarget rewrites relation rows whose destination matches the old
// (file, symbol) pair to the new one, for the §4.6 "symbol renamed inside
// a file" incremental case.
func (r *Relations) Retarget(tx *Tx, dstProject, oldFile string, oldSymbol *string, newFile string, newSymbol *string, newDstProject string) error {
	if newDstProject == "" {
		newDstProject = dstProject
	}
	query := `UPDATE relations SET dst_project = ?, dst_file_path = ?, dst_symbol_name = ? WHERE dst_project = ? AND dst_file_path = ?`
	args := []any{newDstProject, newFile, newSymbol, dstProject, oldFile}
	if oldSymbol != nil {
		query += " AND dst_symbol_name = ?"
		args = append(args, *oldSymbol)
	} else {
		query += " AND dst_symbol_name IS NULL"
	}
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("retarget relations: %w", err)
	}
	return nil
}

func scanRelations(rows *sql.Rows) ([]model.Relation, error) {
	var out []model.Relation
	for rows.Next() {
		var rel model.Relation
		var typ string
		if err := rows.Scan(&rel.ID, &rel.Project, &typ, &rel.SrcFilePath, &rel.SrcSymbolName,
			&rel.DstProject, &rel.DstFilePath, &rel.DstSymbolName, &rel.MetaJSON); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		rel.Type = model.RelationType(typ)
		out = append(out, rel)
	}
	return out, rows.Err()
}
