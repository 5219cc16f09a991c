// Package graph provides the typed dependency graph used to reason about
// skeleton structure.
//
// Graph is a mutable directed graph whose nodes live in one arena keyed by
// id. Iteration follows node insertion order and, per node, edge insertion
// order, so every traversal is deterministic. A Graph is not safe for
// concurrent use; callers serialize access.
package graph

import (
	"fmt"
	"strconv"
)

// DefaultMaxDepth bounds AllPaths when no depth is given.
const DefaultMaxDepth = 20

// Option configures a Graph.
type Option func(*Graph)

// WithRootKind sets the kind that head nodes must have to pass validation.
func WithRootKind(kind NodeKind) Option {
	return func(g *Graph) { g.rootKind = kind }
}

// WithForbiddenChildren sets, per parent kind, the child kinds it rejects.
// Each node copies its entry when it is created.
func WithForbiddenChildren(rules map[NodeKind][]NodeKind) Option {
	return func(g *Graph) {
		g.rules = make(map[NodeKind][]NodeKind, len(rules))
		for k, v := range rules {
			g.rules[k] = append([]NodeKind(nil), v...)
		}
	}
}

// Graph is a directed graph of typed nodes.
type Graph struct {
	nodes map[string]*Node
	order []string

	// counter feeds both fresh ids and Node.Order.
	counter  int
	rootKind NodeKind
	rules    map[NodeKind][]NodeKind
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes:    make(map[string]*Node),
		rootKind: DefaultRootKind,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RootKind returns the kind that valid head nodes carry.
func (g *Graph) RootKind() NodeKind { return g.rootKind }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node { return g.nodes[id] }

// Has reports whether id is in the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// NodesOfKind returns the nodes of one kind in insertion order.
func (g *Graph) NodesOfKind(kind NodeKind) []*Node {
	var out []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// AddNode adds a node. An empty id requests a fresh one; an explicit id that
// is already in use fails with ErrDuplicateNodeID. An empty kind becomes
// DefaultKind.
func (g *Graph) AddNode(id string, kind NodeKind, payload any) (*Node, error) {
	if id != "" {
		if _, ok := g.nodes[id]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNodeID, id)
		}
	}

	fresh := g.nextID()
	if id == "" {
		id = fresh
	}
	if kind == "" {
		kind = DefaultKind
	}

	n := &Node{
		ID:        id,
		Kind:      kind,
		Payload:   payload,
		Order:     g.counter,
		forbidden: make(map[NodeKind]struct{}),
	}
	for _, k := range g.rules[kind] {
		n.forbidden[k] = struct{}{}
	}

	g.nodes[id] = n
	g.order = append(g.order, id)
	return n, nil
}

// nextID advances the counter past any id already in use.
func (g *Graph) nextID() string {
	g.counter++
	for g.Has(strconv.Itoa(g.counter)) {
		g.counter++
	}
	return strconv.Itoa(g.counter)
}

// AddEdge links parent -> child. Every check runs before anything is
// mutated: both ids must exist, they must differ and the parent must not
// forbid the child's kind. Adding an existing edge is a no-op.
func (g *Graph) AddEdge(parentID, childID string) error {
	parent, ok := g.nodes[parentID]
	if !ok {
		return fmt.Errorf("%w: parent %q", ErrUnknownNodeID, parentID)
	}
	child, ok := g.nodes[childID]
	if !ok {
		return fmt.Errorf("%w: child %q", ErrUnknownNodeID, childID)
	}
	if parentID == childID {
		return fmt.Errorf("%w: %q", ErrSelfEdge, parentID)
	}
	if parent.Forbids(child.Kind) {
		return fmt.Errorf("%w: %s %q cannot have %s child %q",
			ErrForbiddenEdge, parent.Kind, parentID, child.Kind, childID)
	}

	parent.children.add(childID)
	child.parents.add(parentID)
	return nil
}

// RemoveEdge unlinks parent -> child on both sides.
func (g *Graph) RemoveEdge(parentID, childID string) error {
	parent, ok := g.nodes[parentID]
	if !ok {
		return fmt.Errorf("%w: parent %q", ErrUnknownNodeID, parentID)
	}
	child, ok := g.nodes[childID]
	if !ok {
		return fmt.Errorf("%w: child %q", ErrUnknownNodeID, childID)
	}
	parent.children.remove(childID)
	child.parents.remove(parentID)
	return nil
}

// RemoveNode unlinks a node from all its neighbours and deletes it.
func (g *Graph) RemoveNode(id string) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeID, id)
	}

	for _, c := range n.children.order {
		g.nodes[c].parents.remove(id)
	}
	for _, p := range n.parents.order {
		g.nodes[p].children.remove(id)
	}

	delete(g.nodes, id)
	for i, v := range g.order {
		if v == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return n, nil
}

// Heads returns the nodes without parents.
func (g *Graph) Heads() []string {
	return g.sweep(func(n *Node) *idSet { return &n.parents })
}

// Tails returns the nodes without children.
func (g *Graph) Tails() []string {
	return g.sweep(func(n *Node) *idSet { return &n.children })
}

// sweep walks from every node along the selected relation and collects the
// nodes where the relation is empty, in discovery order. Starting from every
// node covers disconnected components.
func (g *Graph) sweep(rel func(*Node) *idSet) []string {
	var out []string
	visited := make(map[string]struct{}, len(g.nodes))

	var visit func(n *Node)
	visit = func(n *Node) {
		if _, seen := visited[n.ID]; seen {
			return
		}
		visited[n.ID] = struct{}{}

		related := rel(n)
		if related.len() == 0 {
			out = append(out, n.ID)
			return
		}
		for _, id := range related.order {
			visit(g.nodes[id])
		}
	}

	for _, id := range g.order {
		visit(g.nodes[id])
	}
	return out
}

// AllPaths returns every simple path from start to end no longer than
// maxDepth nodes (DefaultMaxDepth when maxDepth <= 0). The graph must pass
// validation. Paths are returned in depth-first discovery order.
func (g *Graph) AllPaths(start, end string, maxDepth int) ([][]string, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if res := Validate(g); !res.Valid() {
		return nil, &InvalidGraphError{Result: res}
	}
	if !g.Has(start) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeID, start)
	}
	if !g.Has(end) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeID, end)
	}

	var paths [][]string
	onPath := make(map[string]struct{})
	var path []string

	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		if depth > maxDepth {
			return
		}
		if id == end {
			found := make([]string, len(path), len(path)+1)
			copy(found, path)
			paths = append(paths, append(found, id))
			return
		}

		onPath[id] = struct{}{}
		path = append(path, id)
		for _, child := range g.nodes[id].children.order {
			if _, seen := onPath[child]; !seen {
				walk(child, depth+1)
			}
		}
		path = path[:len(path)-1]
		delete(onPath, id)
	}

	walk(start, 1)
	return paths, nil
}

// SequentialOrder lists every node once such that a node's unvisited parents
// come (recursively) right before it and its unvisited children right after
// it, starting from each head in order. The result is a topological order
// only for acyclic graphs.
func (g *Graph) SequentialOrder() []string {
	out := make([]string, 0, len(g.nodes))
	visited := make(map[string]struct{}, len(g.nodes))

	var visit func(n *Node)
	visit = func(n *Node) {
		visited[n.ID] = struct{}{}
		for _, p := range n.parents.order {
			if _, seen := visited[p]; !seen {
				visit(g.nodes[p])
			}
		}
		out = append(out, n.ID)
		for _, c := range n.children.order {
			if _, seen := visited[c]; !seen {
				visit(g.nodes[c])
			}
		}
	}

	for _, id := range g.Heads() {
		if _, seen := visited[id]; !seen {
			visit(g.nodes[id])
		}
	}
	return out
}
