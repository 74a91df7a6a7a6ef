package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func k(path string) Key { return Key{Project: "proj", Path: path} }

func TestDependenciesAndDependents(t *testing.T) {
	g := Build([]Edge{
		{From: k("a.ts"), To: k("b.ts")},
		{From: k("a.ts"), To: k("c.ts")},
		{From: k("b.ts"), To: k("c.ts")},
	})

	require.ElementsMatch(t, []Key{k("b.ts"), k("c.ts")}, g.Dependencies(k("a.ts"), 0))
	require.ElementsMatch(t, []Key{k("a.ts")}, g.Dependents(k("b.ts"), 0))
	require.ElementsMatch(t, []Key{k("a.ts"), k("b.ts")}, g.Dependents(k("c.ts"), 0))
	require.Empty(t, g.Dependencies(k("c.ts"), 0))
}

func TestDependenciesRespectsLimit(t *testing.T) {
	g := Build([]Edge{
		{From: k("a.ts"), To: k("b.ts")},
		{From: k("a.ts"), To: k("c.ts")},
		{From: k("a.ts"), To: k("d.ts")},
	})
	require.Len(t, g.Dependencies(k("a.ts"), 2), 2)
}

func TestTransitiveDependencies(t *testing.T) {
	g := Build([]Edge{
		{From: k("a.ts"), To: k("b.ts")},
		{From: k("b.ts"), To: k("c.ts")},
		{From: k("c.ts"), To: k("d.ts")},
	})
	require.ElementsMatch(t, []Key{k("b.ts"), k("c.ts"), k("d.ts")}, g.TransitiveDependencies(k("a.ts")))
	require.ElementsMatch(t, []Key{k("a.ts"), k("b.ts"), k("c.ts")}, g.TransitiveDependents(k("d.ts")))
}

func TestAffectedUnionsTransitiveDependentsWithChanged(t *testing.T) {
	g := Build([]Edge{
		{From: k("a.ts"), To: k("b.ts")},
		{From: k("b.ts"), To: k("c.ts")},
		{From: k("x.ts"), To: k("y.ts")},
	})
	affected := g.Affected([]Key{k("c.ts")})
	require.ElementsMatch(t, []Key{k("a.ts"), k("b.ts"), k("c.ts")}, affected)
}

func TestFanMetrics(t *testing.T) {
	g := Build([]Edge{
		{From: k("a.ts"), To: k("c.ts")},
		{From: k("b.ts"), To: k("c.ts")},
		{From: k("c.ts"), To: k("d.ts")},
	})
	m := g.FanMetrics(k("c.ts"))
	require.Equal(t, 2, m.FanIn)
	require.Equal(t, 1, m.FanOut)
}

func TestPatchFilesMatchesFreshBuild(t *testing.T) {
	edges := []Edge{
		{From: k("a.ts"), To: k("b.ts")},
		{From: k("b.ts"), To: k("c.ts")},
		{From: k("c.ts"), To: k("a.ts")},
	}
	g := Build(edges)

	// a.ts now imports only d.ts; b.ts and c.ts are unchanged.
	newEdges := []Edge{
		{From: k("a.ts"), To: k("d.ts")},
		{From: k("b.ts"), To: k("c.ts")},
		{From: k("c.ts"), To: k("a.ts")},
	}
	relationsFor := func(f Key) []Key {
		var out []Key
		for _, e := range newEdges {
			if e.From == f {
				out = append(out, e.To)
			}
		}
		return out
	}
	g.PatchFiles([]Key{k("a.ts")}, nil, relationsFor)

	want := Build(newEdges)
	require.Equal(t, want.GetAdjacencyList(), g.GetAdjacencyList())
}

func TestPatchFilesPreservesUntouchedDependentsOfAChangedFile(t *testing.T) {
	edges := []Edge{
		{From: k("a.ts"), To: k("b.ts")},
		{From: k("b.ts"), To: k("c.ts")},
		{From: k("c.ts"), To: k("a.ts")},
	}
	g := Build(edges)

	// a.ts now imports only d.ts; b.ts and c.ts (including c.ts's edge back
	// into a.ts) are unchanged.
	newEdges := []Edge{
		{From: k("a.ts"), To: k("d.ts")},
		{From: k("b.ts"), To: k("c.ts")},
		{From: k("c.ts"), To: k("a.ts")},
	}
	relationsFor := func(f Key) []Key {
		var out []Key
		for _, e := range newEdges {
			if e.From == f {
				out = append(out, e.To)
			}
		}
		return out
	}
	g.PatchFiles([]Key{k("a.ts")}, nil, relationsFor)

	want := Build(newEdges)
	require.ElementsMatch(t, want.Dependents(k("a.ts"), 0), g.Dependents(k("a.ts"), 0))
	require.ElementsMatch(t, []Key{k("c.ts")}, g.Dependents(k("a.ts"), 0))
}

func TestPatchFilesRemovesDeletedFile(t *testing.T) {
	g := Build([]Edge{
		{From: k("a.ts"), To: k("b.ts")},
		{From: k("b.ts"), To: k("c.ts")},
	})
	g.PatchFiles(nil, []Key{k("b.ts")}, func(Key) []Key { return nil })

	require.Empty(t, g.Dependencies(k("a.ts"), 0))
	_, stillPresent := g.GetAdjacencyList()[k("b.ts")]
	require.False(t, stillPresent)
}
