package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasCycleFalseOnDAG(t *testing.T) {
	g := Build([]Edge{
		{From: k("a.ts"), To: k("b.ts")},
		{From: k("b.ts"), To: k("c.ts")},
	})
	require.False(t, g.HasCycle())
	require.Empty(t, g.CyclePaths(nil))
}

func TestHasCycleDetectsSelfLoop(t *testing.T) {
	g := Build([]Edge{{From: k("a.ts"), To: k("a.ts")}})
	require.True(t, g.HasCycle())
	paths := g.CyclePaths(nil)
	require.Len(t, paths, 1)
	require.Equal(t, []Key{k("a.ts")}, paths[0])
}

func TestHasCycleDetectsSimpleCycle(t *testing.T) {
	g := Build([]Edge{
		{From: k("a.ts"), To: k("b.ts")},
		{From: k("b.ts"), To: k("c.ts")},
		{From: k("c.ts"), To: k("a.ts")},
	})
	require.True(t, g.HasCycle())
	paths := g.CyclePaths(nil)
	require.Len(t, paths, 1)
	require.ElementsMatch(t, []Key{k("a.ts"), k("b.ts"), k("c.ts")}, paths[0])
}

func TestCyclePathsFindsEachSimpleCycleExactlyOnce(t *testing.T) {
	// Two overlapping cycles sharing node b: a->b->a and b->c->b.
	g := Build([]Edge{
		{From: k("a.ts"), To: k("b.ts")},
		{From: k("b.ts"), To: k("a.ts")},
		{From: k("b.ts"), To: k("c.ts")},
		{From: k("c.ts"), To: k("b.ts")},
	})
	paths := g.CyclePaths(nil)
	require.Len(t, paths, 2)

	seen := map[string]bool{}
	for _, p := range paths {
		key := ""
		for _, n := range p {
			key += n.Path + ","
		}
		require.False(t, seen[key], "cycle %v reported more than once", p)
		seen[key] = true
	}
}

func TestCyclePathsHonorsMaxLength(t *testing.T) {
	g := Build([]Edge{
		{From: k("a.ts"), To: k("b.ts")},
		{From: k("b.ts"), To: k("c.ts")},
		{From: k("c.ts"), To: k("d.ts")},
		{From: k("d.ts"), To: k("a.ts")},
	})
	paths := g.CyclePaths(&CycleOptions{MaxLength: 3})
	require.Empty(t, paths)
}

func TestCyclePathsHonorsMaxCount(t *testing.T) {
	g := Build([]Edge{
		{From: k("a.ts"), To: k("b.ts")},
		{From: k("b.ts"), To: k("a.ts")},
		{From: k("c.ts"), To: k("d.ts")},
		{From: k("d.ts"), To: k("c.ts")},
	})
	paths := g.CyclePaths(&CycleOptions{MaxCount: 1})
	require.Len(t, paths, 1)
}

func TestHasCycleMatchesCyclePathsPresence(t *testing.T) {
	dag := Build([]Edge{{From: k("a.ts"), To: k("b.ts")}})
	require.Equal(t, dag.HasCycle(), len(dag.CyclePaths(nil)) > 0)

	cyclic := Build([]Edge{
		{From: k("a.ts"), To: k("b.ts")},
		{From: k("b.ts"), To: k("a.ts")},
	})
	require.Equal(t, cyclic.HasCycle(), len(cyclic.CyclePaths(nil)) > 0)
}
