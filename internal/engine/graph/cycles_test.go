package graph_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/graph"
)

func completeGraph(n int) *domain.BuildGraph {
	g := domain.NewBuildGraph("/p")
	for i := range n {
		g.AddModule(&domain.ModuleNode{ID: domain.ModuleID(fmt.Sprintf("/p/m%d", i))})
	}
	for i := range n {
		for j := range n {
			if i != j {
				g.AddEdge(i, j)
			}
		}
	}
	return g
}

func TestFindCycles_Acyclic(t *testing.T) {
	g := domain.NewBuildGraph("/p")
	a, _ := g.AddModule(&domain.ModuleNode{ID: "/p/a"})
	b, _ := g.AddModule(&domain.ModuleNode{ID: "/p/b"})
	g.AddEdge(a, b)

	assert.Empty(t, graph.FindCycles(g, graph.MaxReportedCycles))
}

func TestFindCycles_CanonicalRotation(t *testing.T) {
	// Inserted so the smallest id is discovered last.
	g := domain.NewBuildGraph("/p")
	c, _ := g.AddModule(&domain.ModuleNode{ID: "/p/c"})
	b, _ := g.AddModule(&domain.ModuleNode{ID: "/p/b"})
	a, _ := g.AddModule(&domain.ModuleNode{ID: "/p/a"})
	g.AddEdge(c, a)
	g.AddEdge(a, b)
	g.AddEdge(b, c)

	assert.Equal(t, [][]domain.ModuleID{{"/p/a", "/p/b", "/p/c", "/p/a"}}, graph.FindCycles(g, 10))
}

func TestFindCycles_Limit(t *testing.T) {
	cycles := graph.FindCycles(completeGraph(6), graph.MaxReportedCycles)
	assert.Len(t, cycles, graph.MaxReportedCycles)

	seen := make(map[string]bool)
	for _, cycle := range cycles {
		assert.Equal(t, cycle[0], cycle[len(cycle)-1])
		key := fmt.Sprint(cycle)
		assert.False(t, seen[key], "duplicate cycle %v", cycle)
		seen[key] = true
	}
}

func TestFindCycles_AllCyclesOfSmallComponent(t *testing.T) {
	// K3 has three two-cycles and two three-cycles.
	assert.Len(t, graph.FindCycles(completeGraph(3), graph.MaxReportedCycles), 5)
}

func TestFindCycles_DeadEndPathsStayPolynomial(t *testing.T) {
	// a <-> b, and b feeds a ladder of 40 layers two modules wide that
	// leads back to b. From a there are 2^40 paths through the ladder,
	// none of which returns to a.
	const layers = 40
	g := domain.NewBuildGraph("/p")
	a, _ := g.AddModule(&domain.ModuleNode{ID: "/p/a"})
	b, _ := g.AddModule(&domain.ModuleNode{ID: "/p/b"})
	g.AddEdge(a, b)
	g.AddEdge(b, a)

	prev := []int{b}
	for i := range layers {
		var layer []int
		for j := range 2 {
			idx, _ := g.AddModule(&domain.ModuleNode{ID: domain.ModuleID(fmt.Sprintf("/p/l%02d_%d", i, j))})
			layer = append(layer, idx)
		}
		for _, from := range prev {
			for _, to := range layer {
				g.AddEdge(from, to)
			}
		}
		prev = layer
	}
	for _, from := range prev {
		g.AddEdge(from, b)
	}

	cycles := graph.FindCycles(g, graph.MaxReportedCycles)
	assert.Len(t, cycles, graph.MaxReportedCycles)
	assert.Equal(t, []domain.ModuleID{"/p/a", "/p/b", "/p/a"}, cycles[0])
}
