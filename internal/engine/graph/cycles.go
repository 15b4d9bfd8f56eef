package graph

import (
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
)

// MaxReportedCycles bounds the number of cycles listed in a CycleError.
const MaxReportedCycles = 64

// FindCycles returns up to limit elementary cycles of g. Each cycle starts at
// its smallest module id and repeats that module at the end. The result is
// sorted and free of duplicates.
func FindCycles(g *domain.BuildGraph, limit int) [][]domain.ModuleID {
	f := &cycleFinder{g: g, limit: limit, seen: make(map[string]bool)}
	for _, scc := range stronglyConnected(g) {
		if len(scc) == 1 && !slices.Contains(g.Deps(scc[0]), scc[0]) {
			continue
		}
		if !f.component(scc) {
			break
		}
	}

	slices.SortFunc(f.cycles, func(a, b []domain.ModuleID) int {
		return slices.Compare(a, b)
	})
	return f.cycles
}

// stronglyConnected returns the strongly connected components of g using
// Tarjan's algorithm.
func stronglyConnected(g *domain.BuildGraph) [][]int {
	t := &tarjan{
		g:       g,
		index:   make([]int, g.Len()),
		low:     make([]int, g.Len()),
		onStack: make([]bool, g.Len()),
	}
	for i := range t.index {
		t.index[i] = -1
	}
	for v := range g.Len() {
		if t.index[v] < 0 {
			t.visit(v)
		}
	}
	return t.sccs
}

type tarjan struct {
	g       *domain.BuildGraph
	index   []int
	low     []int
	onStack []bool
	stack   []int
	next    int
	sccs    [][]int
}

func (t *tarjan) visit(v int) {
	t.index[v] = t.next
	t.low[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.Deps(v) {
		switch {
		case t.index[w] < 0:
			t.visit(w)
			t.low[v] = min(t.low[v], t.low[w])
		case t.onStack[w]:
			t.low[v] = min(t.low[v], t.index[w])
		}
	}

	if t.low[v] != t.index[v] {
		return
	}
	var scc []int
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	t.sccs = append(t.sccs, scc)
}

// cycleFinder enumerates the elementary cycles of one component at a time
// with Johnson's algorithm. A cycle is only reported from its smallest
// member, so every cycle is found exactly once and already in canonical
// rotation. The blocked sets keep the work per reported cycle polynomial.
type cycleFinder struct {
	g      *domain.BuildGraph
	limit  int
	cycles [][]domain.ModuleID
	seen   map[string]bool

	rank    map[int]int
	path    []int
	blocked map[int]bool
	waiting map[int]map[int]bool
}

// component reports the cycles of scc. It returns false once the limit is reached.
func (f *cycleFinder) component(scc []int) bool {
	members := slices.Clone(scc)
	slices.SortFunc(members, func(a, b int) int {
		return strings.Compare(string(f.g.Node(a).ID), string(f.g.Node(b).ID))
	})

	f.rank = make(map[int]int, len(members))
	for i, idx := range members {
		f.rank[idx] = i
	}

	for i, start := range members {
		f.path = f.path[:0]
		f.blocked = make(map[int]bool, len(members)-i)
		f.waiting = make(map[int]map[int]bool, len(members)-i)
		if _, ok := f.circuit(start, start, i); !ok {
			return false
		}
	}
	return true
}

// circuit extends the current path with v and reports whether a cycle back
// to start was found below it. ok is false once the limit is reached.
func (f *cycleFinder) circuit(start, v, minRank int) (found, ok bool) {
	f.path = append(f.path, v)
	f.blocked[v] = true
	defer func() {
		f.path = f.path[:len(f.path)-1]
	}()

	for _, w := range f.successors(v, minRank) {
		switch {
		case w == start:
			found = true
			if !f.record() {
				return found, false
			}
		case !f.blocked[w]:
			sub, ok := f.circuit(start, w, minRank)
			if !ok {
				return found, false
			}
			found = found || sub
		}
	}

	if found {
		f.unblock(v)
		return true, true
	}
	for _, w := range f.successors(v, minRank) {
		if f.waiting[w] == nil {
			f.waiting[w] = make(map[int]bool)
		}
		f.waiting[w][v] = true
	}
	return false, true
}

// successors lists the imports of v inside the component with rank >= minRank.
func (f *cycleFinder) successors(v, minRank int) []int {
	var out []int
	for _, w := range f.g.Deps(v) {
		if r, ok := f.rank[w]; ok && r >= minRank {
			out = append(out, w)
		}
	}
	return out
}

func (f *cycleFinder) unblock(v int) {
	f.blocked[v] = false
	waiting := f.waiting[v]
	delete(f.waiting, v)
	for w := range waiting {
		if f.blocked[w] {
			f.unblock(w)
		}
	}
}

func (f *cycleFinder) record() bool {
	cycle := make([]domain.ModuleID, 0, len(f.path)+1)
	for _, idx := range f.path {
		cycle = append(cycle, f.g.Node(idx).ID)
	}
	cycle = append(cycle, cycle[0])

	parts := make([]string, len(cycle))
	for i, id := range cycle {
		parts[i] = string(id)
	}
	key := strings.Join(parts, "\x00")
	if !f.seen[key] {
		f.seen[key] = true
		f.cycles = append(f.cycles, cycle)
	}
	return len(f.cycles) < f.limit
}
