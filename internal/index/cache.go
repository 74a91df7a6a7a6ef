package index

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jward/gildash/internal/extract"
)

// astKey identifies one cached parse by project and path.
type astKey struct {
	project string
	path    string
}

// astCache is the parsed-AST LRU of §4.6 Pass 1 ("stash the parsed AST in
// an LRU cache, capacity configurable, default 500").
type astCache struct {
	cache *lru.Cache[astKey, *extract.AST]
}

// DefaultParserCacheCapacity is the §6 option-table default.
const DefaultParserCacheCapacity = 500

func newASTCache(capacity int) *astCache {
	if capacity <= 0 {
		capacity = DefaultParserCacheCapacity
	}
	c, _ := lru.NewWithEvict[astKey, *extract.AST](capacity, func(_ astKey, ast *extract.AST) {
		ast.Close()
	})
	return &astCache{cache: c}
}

func (c *astCache) put(project, path string, ast *extract.AST) {
	if old, ok := c.cache.Get(astKey{project, path}); ok {
		old.Close()
	}
	c.cache.Add(astKey{project, path}, ast)
}

func (c *astCache) get(project, path string) (*extract.AST, bool) {
	return c.cache.Get(astKey{project, path})
}

func (c *astCache) remove(project, path string) {
	c.cache.Remove(astKey{project, path})
}
