package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jward/gildash/internal/extract"
)

func parseFixture(t *testing.T, src string) *extract.AST {
	t.Helper()
	ast, err := extract.Parse(context.Background(), []byte(src), "typescript")
	require.NoError(t, err)
	return ast
}

func TestASTCachePutAndGetRoundTrips(t *testing.T) {
	c := newASTCache(4)
	ast := parseFixture(t, "export const x = 1;\n")
	c.put("proj", "src/app.ts", ast)

	got, ok := c.get("proj", "src/app.ts")
	require.True(t, ok)
	require.Same(t, ast, got)
}

func TestASTCacheGetMissReturnsFalse(t *testing.T) {
	c := newASTCache(4)
	_, ok := c.get("proj", "src/missing.ts")
	require.False(t, ok)
}

func TestASTCachePutReplacesPriorEntry(t *testing.T) {
	c := newASTCache(4)
	first := parseFixture(t, "export const x = 1;\n")
	second := parseFixture(t, "export const x = 2;\n")

	c.put("proj", "src/app.ts", first)
	c.put("proj", "src/app.ts", second)

	got, ok := c.get("proj", "src/app.ts")
	require.True(t, ok)
	require.Same(t, second, got)
}

func TestASTCacheRemoveEvictsEntry(t *testing.T) {
	c := newASTCache(4)
	c.put("proj", "src/app.ts", parseFixture(t, "export const x = 1;\n"))
	c.remove("proj", "src/app.ts")

	_, ok := c.get("proj", "src/app.ts")
	require.False(t, ok)
}

func TestASTCacheDefaultsCapacityWhenNonPositive(t *testing.T) {
	c := newASTCache(0)
	require.NotNil(t, c.cache)
	c.put("proj", "src/app.ts", parseFixture(t, "export const x = 1;\n"))
	_, ok := c.get("proj", "src/app.ts")
	require.True(t, ok)
}
