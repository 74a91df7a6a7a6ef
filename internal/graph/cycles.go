package graph

import "sort"

// tarjanSCC returns the graph's strongly connected components via Tarjan's
// algorithm, each as a slice of Keys.
func (g *Graph) tarjanSCC() [][]Key {
	index := 0
	indices := make(map[Key]int)
	lowlink := make(map[Key]int)
	onStack := make(map[Key]bool)
	var stack []Key
	var sccs [][]Key

	var nodes []Key
	for n := range g.forward {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Project != nodes[j].Project {
			return nodes[i].Project < nodes[j].Project
		}
		return nodes[i].Path < nodes[j].Path
	})

	var strongconnect func(v Key)
	strongconnect = func(v Key) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		neighbors := sortedKeys(g.forward[v], 0)
		for _, w := range neighbors {
			if _, ok := indices[w]; !ok {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var scc []Key
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, n := range nodes {
		if _, ok := indices[n]; !ok {
			strongconnect(n)
		}
	}
	return sccs
}

// HasCycle is true iff Tarjan SCC produces a component of size > 1 or any
// self-loop exists. Must satisfy HasCycle() ⇔ len(CyclePaths(nil)) > 0.
func (g *Graph) HasCycle() bool {
	for n, set := range g.forward {
		if _, ok := set[n]; ok {
			return true
		}
	}
	for _, scc := range g.tarjanSCC() {
		if len(scc) > 1 {
			return true
		}
	}
	return false
}

// CycleOptions bounds CyclePaths's enumeration.
type CycleOptions struct {
	MaxCount  int
	MaxLength int
}

// CyclePaths enumerates simple cycles using Johnson's algorithm over each
// non-trivial strongly connected component, optionally bounded by count or
// length.
func (g *Graph) CyclePaths(opts *CycleOptions) [][]Key {
	var maxCount, maxLength int
	if opts != nil {
		maxCount = opts.MaxCount
		maxLength = opts.MaxLength
	}

	var all [][]Key
	for n, set := range g.forward {
		if _, ok := set[n]; ok {
			all = append(all, []Key{n})
		}
	}

	for _, scc := range g.tarjanSCC() {
		if len(scc) <= 1 {
			continue
		}
		all = append(all, johnsonCycles(g, scc, maxLength, remaining(maxCount, len(all)))...)
		if maxCount > 0 && len(all) >= maxCount {
			all = all[:maxCount]
			return all
		}
	}
	return all
}

func remaining(maxCount, used int) int {
	if maxCount <= 0 {
		return 0
	}
	r := maxCount - used
	if r < 0 {
		return 0
	}
	return r
}

// johnsonCycles enumerates simple cycles within one SCC using Johnson's
// algorithm: blocked-set DFS with dynamic unblocking, restricted to the
// component's own nodes.
func johnsonCycles(g *Graph, component []Key, maxLength, maxCount int) [][]Key {
	// active shrinks by one node per outer iteration (the just-processed
	// start vertex is removed) so a cycle is only ever discovered once, at
	// the iteration of its least vertex in ordered.
	active := make(map[Key]bool, len(component))
	for _, k := range component {
		active[k] = true
	}

	blocked := make(map[Key]bool)
	blockMap := make(map[Key]map[Key]bool)
	var stack []Key
	var results [][]Key

	unblock := func(u Key) {
		var queue []Key
		queue = append(queue, u)
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			if !blocked[v] {
				continue
			}
			blocked[v] = false
			for w := range blockMap[v] {
				queue = append(queue, w)
			}
			blockMap[v] = nil
		}
	}

	var circuit func(v, start Key) bool
	circuit = func(v, start Key) bool {
		found := false
		stack = append(stack, v)
		blocked[v] = true

		for w := range g.forward[v] {
			if !active[w] {
				continue
			}
			if maxLength > 0 && len(stack) >= maxLength {
				continue
			}
			if w == start {
				if len(stack) == 1 {
					// Self-loops are already collected separately in
					// CyclePaths; skip them here to avoid duplicates.
					continue
				}
				cycle := make([]Key, len(stack))
				copy(cycle, stack)
				results = append(results, cycle)
				found = true
				if maxCount > 0 && len(results) >= maxCount {
					stack = stack[:len(stack)-1]
					return true
				}
				continue
			}
			if !blocked[w] {
				if circuit(w, start) {
					found = true
					if maxCount > 0 && len(results) >= maxCount {
						stack = stack[:len(stack)-1]
						return true
					}
				}
			}
		}

		if found {
			unblock(v)
		} else {
			for w := range g.forward[v] {
				if !active[w] {
					continue
				}
				if blockMap[w] == nil {
					blockMap[w] = make(map[Key]bool)
				}
				blockMap[w][v] = true
			}
		}
		stack = stack[:len(stack)-1]
		return found
	}

	ordered := sortedKeys(func() map[Key]struct{} {
		m := make(map[Key]struct{}, len(component))
		for _, k := range component {
			m[k] = struct{}{}
		}
		return m
	}(), 0)

	for _, start := range ordered {
		if maxCount > 0 && len(results) >= maxCount {
			break
		}
		blocked = make(map[Key]bool)
		blockMap = make(map[Key]map[Key]bool)
		circuit(start, start)
		active[start] = false
	}
	return results
}
