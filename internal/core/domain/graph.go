package domain

import (
	"container/heap"
	"slices"

	"go.trai.ch/zerr"
)

// BuildGraph owns the modules and import edges of one build invocation.
// Modules live in a flat arena and edges are stored as index lists.
type BuildGraph struct {
	root       string
	nodes      []*ModuleNode
	index      map[ModuleID]int
	dependents [][]int
	entries    []int
	order      []int
}

// NewBuildGraph creates an empty graph for the project rooted at root.
func NewBuildGraph(root string) *BuildGraph {
	return &BuildGraph{
		root:  root,
		index: make(map[ModuleID]int),
	}
}

// Root returns the project root used for display paths.
func (g *BuildGraph) Root() string {
	return g.root
}

// AddModule inserts a module and returns its arena index.
// If the module is already present its existing index is returned with false.
func (g *BuildGraph) AddModule(node *ModuleNode) (int, bool) {
	if idx, ok := g.index[node.ID]; ok {
		return idx, false
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, node)
	g.dependents = append(g.dependents, nil)
	g.index[node.ID] = idx
	g.order = nil
	return idx, true
}

// AddEdge records that the module at importer imports the module at imported.
func (g *BuildGraph) AddEdge(importer, imported int) {
	n := g.nodes[importer]
	if pos, found := slices.BinarySearch(n.Deps, imported); !found {
		n.Deps = slices.Insert(n.Deps, pos, imported)
		g.dependents[imported] = append(g.dependents[imported], importer)
		slices.Sort(g.dependents[imported])
	}
	g.order = nil
}

// MarkEntry flags the module at idx as a build entry point.
func (g *BuildGraph) MarkEntry(idx int) {
	if !slices.Contains(g.entries, idx) {
		g.entries = append(g.entries, idx)
	}
}

// Entries returns the arena indices of the entry modules.
func (g *BuildGraph) Entries() []int {
	return g.entries
}

// Lookup returns the arena index of the module with the given id.
func (g *BuildGraph) Lookup(id ModuleID) (int, bool) {
	idx, ok := g.index[id]
	return idx, ok
}

// Len returns the number of modules.
func (g *BuildGraph) Len() int {
	return len(g.nodes)
}

// Node returns the module at idx.
func (g *BuildGraph) Node(idx int) *ModuleNode {
	return g.nodes[idx]
}

// Deps returns the direct dependencies of the module at idx.
func (g *BuildGraph) Deps(idx int) []int {
	return g.nodes[idx].Deps
}

// Dependents returns the modules that directly import the module at idx.
func (g *BuildGraph) Dependents(idx int) []int {
	return g.dependents[idx]
}

// Order returns the topological order computed by Seal: every module
// appears after all of its dependencies.
func (g *BuildGraph) Order() []int {
	return g.order
}

// Seal computes the topological order with Kahn's algorithm.
// Ties are broken by module id so the order is stable across runs.
// It fails with ErrImportCycle if any module is left unordered.
func (g *BuildGraph) Seal() error {
	inDegree := make([]int, len(g.nodes))
	ready := &idHeap{graph: g}
	for i, n := range g.nodes {
		inDegree[i] = len(n.Deps)
		if inDegree[i] == 0 {
			ready.items = append(ready.items, i)
		}
	}
	heap.Init(ready)

	order := make([]int, 0, len(g.nodes))
	for ready.Len() > 0 {
		idx := heap.Pop(ready).(int) //nolint:forcetypeassert // heap only holds ints
		order = append(order, idx)
		for _, dep := range g.dependents[idx] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				heap.Push(ready, dep)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return zerr.With(ErrImportCycle, "unordered_modules", len(g.nodes)-len(order))
	}
	g.order = order
	return nil
}

// Modules returns the module ids in topological order.
func (g *BuildGraph) Modules() []ModuleID {
	ids := make([]ModuleID, 0, len(g.order))
	for _, idx := range g.order {
		ids = append(ids, g.nodes[idx].ID)
	}
	return ids
}

type idHeap struct {
	graph *BuildGraph
	items []int
}

func (h *idHeap) Len() int { return len(h.items) }

func (h *idHeap) Less(i, j int) bool {
	return h.graph.nodes[h.items[i]].ID < h.graph.nodes[h.items[j]].ID
}

func (h *idHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *idHeap) Push(x any) {
	h.items = append(h.items, x.(int)) //nolint:forcetypeassert // heap only holds ints
}

func (h *idHeap) Pop() any {
	n := len(h.items)
	x := h.items[n-1]
	h.items = h.items[:n-1]
	return x
}
