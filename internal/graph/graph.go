// Package graph implements the dependency graph engine of §4.7: adjacency
// maps built from imports/type-references/re-exports relations, with
// traversal, cycle-detection, and incremental-patch operations.
package graph

import "sort"

// Key identifies a file within a project scope.
type Key struct {
	Project string
	Path    string
}

// Graph holds forward and reverse adjacency maps over Key nodes.
type Graph struct {
	forward map[Key]map[Key]struct{}
	reverse map[Key]map[Key]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		forward: make(map[Key]map[Key]struct{}),
		reverse: make(map[Key]map[Key]struct{}),
	}
}

// Edge is one dependency edge, from a file to the file it imports.
type Edge struct {
	From Key
	To   Key
}

// Build assembles both adjacency maps from a flat edge list. Self-loops are
// preserved — they are cycles, per §4.7.
func Build(edges []Edge) *Graph {
	g := New()
	for _, e := range edges {
		g.addEdge(e.From, e.To)
	}
	return g
}

func (g *Graph) addEdge(from, to Key) {
	if g.forward[from] == nil {
		g.forward[from] = make(map[Key]struct{})
	}
	g.forward[from][to] = struct{}{}
	if g.reverse[to] == nil {
		g.reverse[to] = make(map[Key]struct{})
	}
	g.reverse[to][from] = struct{}{}
	// Ensure both endpoints exist as nodes even with no edges in the other
	// direction, so Dependencies/Dependents on a leaf return an empty slice
	// rather than behaving as if the node were absent.
	if g.forward[to] == nil {
		g.forward[to] = make(map[Key]struct{})
	}
	if g.reverse[from] == nil {
		g.reverse[from] = make(map[Key]struct{})
	}
}

func sortedKeys(set map[Key]struct{}, limit int) []Key {
	out := make([]Key, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Project != out[j].Project {
			return out[i].Project < out[j].Project
		}
		return out[i].Path < out[j].Path
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Dependencies returns the direct out-neighbors of f.
func (g *Graph) Dependencies(f Key, limit int) []Key {
	return sortedKeys(g.forward[f], limit)
}

// Dependents returns the direct in-neighbors of f.
func (g *Graph) Dependents(f Key, limit int) []Key {
	return sortedKeys(g.reverse[f], limit)
}

func (g *Graph) dfs(start Key, adjacency map[Key]map[Key]struct{}) map[Key]struct{} {
	visited := make(map[Key]struct{})
	var stack []Key
	for n := range adjacency[start] {
		stack = append(stack, n)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == start {
			continue
		}
		if _, ok := visited[n]; ok {
			continue
		}
		visited[n] = struct{}{}
		for next := range adjacency[n] {
			stack = append(stack, next)
		}
	}
	return visited
}

// TransitiveDependencies returns every file reachable forward from f,
// excluding f itself.
func (g *Graph) TransitiveDependencies(f Key) []Key {
	return sortedKeys(g.dfs(f, g.forward), 0)
}

// TransitiveDependents returns every file reachable backward from f,
// excluding f itself.
func (g *Graph) TransitiveDependents(f Key) []Key {
	return sortedKeys(g.dfs(f, g.reverse), 0)
}

// Affected returns the union of transitiveDependents(x) for each x in
// changed, plus changed itself.
func (g *Graph) Affected(changed []Key) []Key {
	set := make(map[Key]struct{}, len(changed))
	for _, c := range changed {
		set[c] = struct{}{}
		for d := range g.dfs(c, g.reverse) {
			set[d] = struct{}{}
		}
	}
	return sortedKeys(set, 0)
}

// FanMetrics is the §4.7 fanIn/fanOut/transitiveIn/transitiveOut summary.
type FanMetrics struct {
	FanIn          int
	FanOut         int
	TransitiveIn   int
	TransitiveOut  int
}

// FanMetrics computes the fan-in/fan-out summary for f.
func (g *Graph) FanMetrics(f Key) FanMetrics {
	return FanMetrics{
		FanIn:         len(g.reverse[f]),
		FanOut:        len(g.forward[f]),
		TransitiveIn:  len(g.dfs(f, g.reverse)),
		TransitiveOut: len(g.dfs(f, g.forward)),
	}
}

// GetAdjacencyList returns a read-only copy of the forward adjacency map.
func (g *Graph) GetAdjacencyList() map[Key][]Key {
	out := make(map[Key][]Key, len(g.forward))
	for k, set := range g.forward {
		out[k] = sortedKeys(set, 0)
	}
	return out
}

// PatchFiles applies an incremental update: for every file in changed or
// deleted, its outgoing edges and reverse-map membership are removed; a
// deleted file's incoming edges are removed as well; for every file in
// changed, relationsFor(file) supplies its new outgoing edges. The result must be bit-identical to a fresh Build() over the full
// relation set (§4.7).
func (g *Graph) PatchFiles(changed, deleted []Key, relationsFor func(Key) []Key) {
	isDeleted := make(map[Key]struct{}, len(deleted))
	for _, f := range deleted {
		isDeleted[f] = struct{}{}
	}
	touch := make(map[Key]struct{}, len(changed)+len(deleted))
	for _, f := range changed {
		touch[f] = struct{}{}
	}
	for _, f := range deleted {
		touch[f] = struct{}{}
	}
	for f := range touch {
		// Drop f's own outgoing-edge footprint: remove f from the reverse
		// set of everything it used to point to, then clear its forward
		// entry so the loop below (for changed files) rebuilds it fresh.
		for to := range g.forward[f] {
			if g.reverse[to] != nil {
				delete(g.reverse[to], f)
			}
		}
		delete(g.forward, f)
		// reverse[f] holds *other* nodes' edges into f, untouched by f's own
		// change — only when f is actually leaving the graph are those edges
		// dropped from their sources' forward sets and reverse[f] cleared.
		if _, ok := isDeleted[f]; ok {
			for from := range g.reverse[f] {
				if g.forward[from] != nil {
					delete(g.forward[from], f)
				}
			}
			delete(g.reverse, f)
		}
	}
	for _, f := range changed {
		for _, to := range relationsFor(f) {
			g.addEdge(f, to)
		}
		if g.forward[f] == nil {
			g.forward[f] = make(map[Key]struct{})
		}
		if g.reverse[f] == nil {
			g.reverse[f] = make(map[Key]struct{})
		}
	}
}
