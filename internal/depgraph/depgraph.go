// Package depgraph implements the dependency graph: an
// in-memory, insertion-ordered adjacency list tracking which files import
// which, with cycle rejection on insert and Kahn's-algorithm topological
// sort for load ordering.
package depgraph

import "github.com/chtl-lang/chtl/internal/pathkey"

// Graph is a synchronous, single-job dependency graph over canonicalized
// file paths. It is not safe for concurrent mutation.
type Graph struct {
	cwd       string
	adjacency map[string][]string // insertion order preserved
	nodeOrder []string            // first-seen order, for deterministic DFS/Kahn iteration
	nodeSeen  map[string]bool
	imported  map[string]bool
	cyclePath []string
}

func New(cwd string) *Graph {
	return &Graph{
		cwd:       cwd,
		adjacency: make(map[string][]string),
		nodeSeen:  make(map[string]bool),
		imported:  make(map[string]bool),
	}
}

func (g *Graph) canon(p string) string {
	return pathkey.Canonicalize(g.cwd, p)
}

// Canon exposes the graph's path canonicalization so callers can compare
// the paths they pass in against TopoOrder's output without re-deriving
// the same cwd-relative logic.
func (g *Graph) Canon(p string) string {
	return g.canon(p)
}

func (g *Graph) touch(node string) {
	if !g.nodeSeen[node] {
		g.nodeSeen[node] = true
		g.nodeOrder = append(g.nodeOrder, node)
	}
}

// AddDependency records that "from" depends on "to". A self-edge is
// rejected outright. The edge is inserted tentatively; if DFS cycle
// detection finds a cycle reachable through it, the edge is rolled back
// and AddDependency returns false with CyclePath() populated.
func (g *Graph) AddDependency(from, to string) bool {
	from, to = g.canon(from), g.canon(to)
	if from == to {
		g.cyclePath = []string{from, to}
		return false
	}
	g.touch(from)
	g.touch(to)
	if g.hasEdge(from, to) {
		g.cyclePath = nil
		return true
	}
	g.adjacency[from] = append(g.adjacency[from], to)

	if cycle := g.detectCycle(); cycle != nil {
		g.removeEdge(from, to)
		g.cyclePath = cycle
		return false
	}
	g.cyclePath = nil
	return true
}

func (g *Graph) hasEdge(from, to string) bool {
	for _, n := range g.adjacency[from] {
		if n == to {
			return true
		}
	}
	return false
}

func (g *Graph) removeEdge(from, to string) {
	neighbors := g.adjacency[from]
	for i, n := range neighbors {
		if n == to {
			g.adjacency[from] = append(neighbors[:i], neighbors[i+1:]...)
			return
		}
	}
}

type color int

const (
	white color = iota
	gray
	black
)

// detectCycle runs standard three-color DFS over every node, returning the
// offending path (from the cycle's entry node back to itself) or nil.
func (g *Graph) detectCycle() []string {
	colors := make(map[string]color)
	var path []string
	var cycle []string

	var visit func(node string) bool
	visit = func(node string) bool {
		colors[node] = gray
		path = append(path, node)
		for _, next := range g.adjacency[node] {
			switch colors[next] {
			case gray:
				// Found the back-edge; extract the cycle suffix of path.
				for i, n := range path {
					if n == next {
						cycle = append(append([]string{}, path[i:]...), next)
						return true
					}
				}
			case white:
				if visit(next) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		colors[node] = black
		return false
	}

	for _, node := range g.nodeOrder {
		if colors[node] == white {
			if visit(node) {
				return cycle
			}
		}
	}
	return nil
}

func (g *Graph) HasCycle() bool {
	return g.detectCycle() != nil
}

// CyclePath returns the cycle path recorded by the most recent rejected
// AddDependency call, or nil if the last call succeeded.
func (g *Graph) CyclePath() []string {
	return g.cyclePath
}

// TopoOrder runs Kahn's algorithm over a copy of the graph. Returns nil if
// a cycle exists. Iteration order over zero-indegree nodes follows
// insertion order, so results are stable for a given sequence of
// AddDependency calls.
func (g *Graph) TopoOrder() []string {
	nodes := g.nodeOrder
	indegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		indegree[n] = 0
	}
	for _, tos := range g.adjacency {
		for _, to := range tos {
			indegree[to]++
		}
	}

	var queue []string
	for _, n := range nodes {
		if indegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	var order []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, next := range g.adjacency[n] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil
	}
	return order
}

func (g *Graph) IsImported(p string) bool {
	return g.imported[g.canon(p)]
}

func (g *Graph) MarkAsImported(p string) {
	g.imported[g.canon(p)] = true
}
