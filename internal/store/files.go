package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jward/gildash/internal/model"
)

// Files is the files repository of §4.3: get/upsert/listAll/mapByPath/delete.
type Files struct{ s *Store }

func (s *Store) Files() *Files { return &Files{s: s} }

func (r *Files) Get(tx *Tx, project, path string) (*model.File, error) {
	return scanFileRow(tx.QueryRow(
		`SELECT project, file_path, mtime_ms, size, content_hash, updated_at, line_count
		 FROM files WHERE project = ? AND file_path = ?`, project, path))
}

// Upsert inserts or updates a file row. updated_at is written from
// f.UpdatedAt as stamped by the caller.
func (r *Files) Upsert(tx *Tx, f model.File) error {
	_, err := tx.Exec(`
		INSERT INTO files (project, file_path, mtime_ms, size, content_hash, updated_at, line_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project, file_path) DO UPDATE SET
			mtime_ms = excluded.mtime_ms,
			size = excluded.size,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at,
			line_count = excluded.line_count`,
		f.Project, f.Path, f.MTimeMillis, f.Size, f.ContentHash, f.UpdatedAt.UTC().Format(time.RFC3339Nano), f.LineCount)
	if err != nil {
		return fmt.Errorf("upsert file %s/%s: %w", f.Project, f.Path, err)
	}
	return nil
}

// ListAll returns every file row for a project.
func (r *Files) ListAll(tx *Tx, project string) ([]model.File, error) {
	rows, err := tx.Query(`
		SELECT project, file_path, mtime_ms, size, content_hash, updated_at, line_count
		FROM files WHERE project = ?`, project)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	var out []model.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// MapByPath returns the current file rows for a project keyed by path —
// the basis for the known-files set of §4.6 step 4.
func (r *Files) MapByPath(tx *Tx, project string) (map[string]model.File, error) {
	files, err := r.ListAll(tx, project)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.File, len(files))
	for _, f := range files {
		out[f.Path] = f
	}
	return out, nil
}

// Delete removes a file row; cascading foreign keys purge its symbol and
// relation rows per invariant 1.
func (r *Files) Delete(tx *Tx, project, path string) error {
	_, err := tx.Exec(`DELETE FROM files WHERE project = ? AND file_path = ?`, project, path)
	if err != nil {
		return fmt.Errorf("delete file %s/%s: %w", project, path, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(s rowScanner) (*model.File, error) {
	return scanFileRow(s)
}

func scanFileRow(s rowScanner) (*model.File, error) {
	var f model.File
	var updatedAt string
	err := s.Scan(&f.Project, &f.Path, &f.MTimeMillis, &f.Size, &f.ContentHash, &updatedAt, &f.LineCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	f.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &f, nil
}
