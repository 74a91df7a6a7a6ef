package gildash

import (
	"time"

	"github.com/jward/gildash/internal/graph"
	"github.com/jward/gildash/internal/model"
	"github.com/jward/gildash/internal/store"
)

// graphRelationTypes is the §4.7 build() relation-type filter: imports,
// type-references, and re-exports count as dependency edges.
var graphRelationTypes = []model.RelationType{
	model.RelationImports, model.RelationTypeRef, model.RelationReexports,
}

// graphCacheTTL is the reader-side fallback invalidation of §4.7's cache
// policy: "reader coordinators expire after a TTL (default 15 seconds)".
const graphCacheTTL = 15 * time.Second

// scopeKey keys the graph cache: one entry per project scope, plus a
// dedicated cross-project scope.
func scopeKey(projects []string) string {
	if len(projects) == 0 {
		return "*"
	}
	key := ""
	for _, p := range projects {
		key += p + "|"
	}
	return key
}

// graphFor returns the cached graph for the given project scope, building
// it from the store if absent or past its TTL. An owner coordinator (watch
// mode on) never hits the TTL branch because OnIndexed invalidates the
// cache on every commit; a reader relies on the TTL.
func (e *Engine) graphFor(projects []string) (*graph.Graph, error) {
	key := scopeKey(projects)
	if entry, ok := e.graphCache[key]; ok {
		if e.watchMode || time.Since(entry.builtAt) < graphCacheTTL {
			return entry.g, nil
		}
	}

	// singleflight collapses concurrent rebuilds of the same scope into one
	// query + Build() call, so a burst of reader queries against a just-
	// expired cache entry doesn't each re-run the relations load.
	v, err, _ := e.graphBuilds.Do(key, func() (interface{}, error) {
		var rels []model.Relation
		err := e.store.Transaction(func(tx *store.Tx) error {
			r, err := e.store.Relations().AllOfTypes(tx, projects, graphRelationTypes)
			if err != nil {
				return err
			}
			rels = r
			return nil
		})
		if err != nil {
			return nil, err
		}

		edges := make([]graph.Edge, 0, len(rels))
		for _, r := range rels {
			edges = append(edges, graph.Edge{
				From: graph.Key{Project: r.Project, Path: r.SrcFilePath},
				To:   graph.Key{Project: r.DstProject, Path: r.DstFilePath},
			})
		}
		g := graph.Build(edges)
		e.graphCache[key] = &graphCacheEntry{g: g, builtAt: time.Now()}
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*graph.Graph), nil
}

// Dependencies returns the direct out-neighbors of a file within its own
// project's graph scope.
func (e *Engine) Dependencies(project, path string, limit int) ([]graph.Key, error) {
	g, err := e.graphFor([]string{project})
	if err != nil {
		return nil, err
	}
	return g.Dependencies(graph.Key{Project: project, Path: path}, limit), nil
}

// Dependents returns the direct in-neighbors of a file.
func (e *Engine) Dependents(project, path string, limit int) ([]graph.Key, error) {
	g, err := e.graphFor([]string{project})
	if err != nil {
		return nil, err
	}
	return g.Dependents(graph.Key{Project: project, Path: path}, limit), nil
}

// TransitiveDependencies returns every file forward-reachable from path.
func (e *Engine) TransitiveDependencies(project, path string) ([]graph.Key, error) {
	g, err := e.graphFor([]string{project})
	if err != nil {
		return nil, err
	}
	return g.TransitiveDependencies(graph.Key{Project: project, Path: path}), nil
}

// TransitiveDependents returns every file backward-reachable from path.
func (e *Engine) TransitiveDependents(project, path string) ([]graph.Key, error) {
	g, err := e.graphFor([]string{project})
	if err != nil {
		return nil, err
	}
	return g.TransitiveDependents(graph.Key{Project: project, Path: path}), nil
}

// Affected returns the union of transitiveDependents for each changed file,
// plus the changed files themselves.
func (e *Engine) Affected(project string, changed []string) ([]graph.Key, error) {
	g, err := e.graphFor([]string{project})
	if err != nil {
		return nil, err
	}
	keys := make([]graph.Key, len(changed))
	for i, c := range changed {
		keys[i] = graph.Key{Project: project, Path: c}
	}
	return g.Affected(keys), nil
}

// HasCycle reports whether the project's dependency graph has a cycle.
func (e *Engine) HasCycle(project string) (bool, error) {
	g, err := e.graphFor([]string{project})
	if err != nil {
		return false, err
	}
	return g.HasCycle(), nil
}

// CyclePaths enumerates simple cycles in the project's dependency graph.
func (e *Engine) CyclePaths(project string, opts *graph.CycleOptions) ([][]graph.Key, error) {
	g, err := e.graphFor([]string{project})
	if err != nil {
		return nil, err
	}
	return g.CyclePaths(opts), nil
}

// FanMetrics reports fan-in/fan-out metrics for a file.
func (e *Engine) FanMetrics(project, path string) (graph.FanMetrics, error) {
	g, err := e.graphFor([]string{project})
	if err != nil {
		return graph.FanMetrics{}, err
	}
	return g.FanMetrics(graph.Key{Project: project, Path: path}), nil
}
