package index_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jward/gildash/internal/index"
	"github.com/jward/gildash/internal/model"
	"github.com/jward/gildash/internal/store"
	"github.com/jward/gildash/internal/watch"
)

func newTestProject(t *testing.T) (root string, s *store.Store, c *index.Coordinator) {
	t.Helper()
	root = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0o644))

	dbPath := filepath.Join(root, ".gildash", "gildash.db")
	require.NoError(t, os.MkdirAll(filepath.Dir(dbPath), 0o755))

	var err error
	s, err = store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	c = index.New(s, index.Config{ProjectRoot: root})
	return root, s, c
}

func writeSource(t *testing.T, root, rel, src string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(src), 0o644))
}

func TestFullIndexIndexesSymbolsAndRelations(t *testing.T) {
	root, s, c := newTestProject(t)
	writeSource(t, root, "src/util.ts", "export function helper(): void {}\n")
	writeSource(t, root, "src/app.ts", `import { helper } from "./util";
helper();
`)

	result, err := c.FullIndex(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Changed, 2)
	require.Empty(t, result.Deleted)

	err = s.Transaction(func(tx *store.Tx) error {
		syms, err := s.Symbols().GetFileSymbols(tx, ".", "src/util.ts")
		require.NoError(t, err)
		require.Len(t, syms, 1)
		require.Equal(t, "helper", syms[0].Name)

		rels, err := s.Relations().GetOutgoing(tx, ".", "src/app.ts")
		require.NoError(t, err)

		var imports, calls bool
		for _, r := range rels {
			switch r.Type {
			case model.RelationImports:
				imports = true
				require.Equal(t, "src/util.ts", r.DstFilePath)
			case model.RelationCalls:
				calls = true
			}
		}
		require.True(t, imports)
		require.True(t, calls)
		return nil
	})
	require.NoError(t, err)
}

func TestFullIndexIsIdempotentWhenContentUnchanged(t *testing.T) {
	root, s, c := newTestProject(t)
	writeSource(t, root, "src/app.ts", "export const version = \"1.0\";\n")

	_, err := c.FullIndex(context.Background())
	require.NoError(t, err)

	var firstID int64
	err = s.Transaction(func(tx *store.Tx) error {
		syms, err := s.Symbols().GetFileSymbols(tx, ".", "src/app.ts")
		require.NoError(t, err)
		require.Len(t, syms, 1)
		firstID = syms[0].ID
		return nil
	})
	require.NoError(t, err)

	result, err := c.FullIndex(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Changed)

	err = s.Transaction(func(tx *store.Tx) error {
		syms, err := s.Symbols().GetFileSymbols(tx, ".", "src/app.ts")
		require.NoError(t, err)
		require.Len(t, syms, 1)
		require.Equal(t, firstID, syms[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestFullIndexDeletesRowsForRemovedFiles(t *testing.T) {
	root, s, c := newTestProject(t)
	appPath := filepath.Join(root, "src", "app.ts")
	writeSource(t, root, "src/app.ts", "export const x = 1;\n")

	_, err := c.FullIndex(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(appPath))

	result, err := c.FullIndex(context.Background())
	require.NoError(t, err)
	require.Contains(t, result.Deleted, ".::src/app.ts")

	err = s.Transaction(func(tx *store.Tx) error {
		f, err := s.Files().Get(tx, ".", "src/app.ts")
		require.NoError(t, err)
		require.Nil(t, f)
		return nil
	})
	require.NoError(t, err)
}

func TestFullIndexRecordsPerFileReadFailureAndContinues(t *testing.T) {
	root, s, c := newTestProject(t)
	writeSource(t, root, "src/good.ts", "export const ok = 1;\n")

	// A dangling symlink is discovered (it matches the extension filter and
	// isn't itself a directory) but fails to read — a reliable, root-proof
	// way to force the os.ReadFile error path without touching permissions.
	require.NoError(t, os.Symlink(
		filepath.Join(root, "src", "missing-target.ts"),
		filepath.Join(root, "src", "broken.ts"),
	))

	result, err := c.FullIndex(context.Background())
	require.NoError(t, err)
	require.Contains(t, result.Changed, ".::src/good.ts")
	require.Len(t, result.Failures, 1)
	require.Equal(t, "src/broken.ts", result.Failures[0].Path)

	err = s.Transaction(func(tx *store.Tx) error {
		syms, err := s.Symbols().GetFileSymbols(tx, ".", "src/good.ts")
		require.NoError(t, err)
		require.Len(t, syms, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestIncrementalUpsertsChangedFile(t *testing.T) {
	root, s, c := newTestProject(t)
	writeSource(t, root, "src/app.ts", "export const x = 1;\n")
	_, err := c.FullIndex(context.Background())
	require.NoError(t, err)

	writeSource(t, root, "src/app.ts", "export const x = 2;\nexport function helper() {}\n")
	err = c.Incremental(context.Background(), []watch.Change{
		{Path: filepath.Join(root, "src", "app.ts"), Kind: watch.ChangeUpsert},
	})
	require.NoError(t, err)

	err = s.Transaction(func(tx *store.Tx) error {
		syms, err := s.Symbols().GetFileSymbols(tx, ".", "src/app.ts")
		require.NoError(t, err)
		require.Len(t, syms, 2)
		return nil
	})
	require.NoError(t, err)
}

func TestIncrementalRecordsPerFileReadFailureAndContinues(t *testing.T) {
	root, s, c := newTestProject(t)
	writeSource(t, root, "src/app.ts", "export const x = 1;\n")
	_, err := c.FullIndex(context.Background())
	require.NoError(t, err)

	writeSource(t, root, "src/app.ts", "export const x = 2;\nexport function helper() {}\n")

	var captured index.Result
	c.OnIndexed = func(r index.Result) { captured = r }

	err = c.Incremental(context.Background(), []watch.Change{
		{Path: filepath.Join(root, "src", "app.ts"), Kind: watch.ChangeUpsert},
		{Path: filepath.Join(root, "src", "missing.ts"), Kind: watch.ChangeUpsert},
	})
	require.NoError(t, err)
	require.Len(t, captured.Failures, 1)
	require.Equal(t, "src/missing.ts", captured.Failures[0].Path)

	err = s.Transaction(func(tx *store.Tx) error {
		syms, err := s.Symbols().GetFileSymbols(tx, ".", "src/app.ts")
		require.NoError(t, err)
		require.Len(t, syms, 2)
		return nil
	})
	require.NoError(t, err)
}

func TestIncrementalDeletesFile(t *testing.T) {
	root, s, c := newTestProject(t)
	writeSource(t, root, "src/app.ts", "export const x = 1;\n")
	_, err := c.FullIndex(context.Background())
	require.NoError(t, err)

	err = c.Incremental(context.Background(), []watch.Change{
		{Path: filepath.Join(root, "src", "app.ts"), Kind: watch.ChangeDelete},
	})
	require.NoError(t, err)

	err = s.Transaction(func(tx *store.Tx) error {
		f, err := s.Files().Get(tx, ".", "src/app.ts")
		require.NoError(t, err)
		require.Nil(t, f)
		return nil
	})
	require.NoError(t, err)
}
