// Package graph provides the typed dependency graph used to reason about
// skeleton structure.
//
// It defines the node model (an id, a kind tag, an opaque payload and a set of
// child kinds the node refuses) and a directed graph that stores nodes in a
// single arena keyed by id. Edges are kept as id sets on both endpoints, so
// removing a node always repairs its neighbours.
package graph

// NodeKind tags what a node represents (bone, slot, attachment, ...).
type NodeKind string

// DefaultKind is assigned to nodes added without a kind.
const DefaultKind NodeKind = "DEFAULT"

// DefaultRootKind is the kind a head node must have for the graph to be
// considered connected, unless overridden with WithRootKind.
const DefaultRootKind NodeKind = "INPUT_ROOT"

// Node is a vertex of the graph.
type Node struct {
	// ID is unique within its graph.
	ID string

	// Kind is the node-kind tag.
	Kind NodeKind

	// Payload is caller data; the graph never inspects it.
	Payload any

	// Order is the value of the graph's creation counter when the node was added.
	Order int

	// forbidden holds child kinds this node rejects; fixed at creation.
	forbidden map[NodeKind]struct{}

	parents  idSet
	children idSet
}

// Parents returns parent ids in the order the edges were added.
func (n *Node) Parents() []string { return n.parents.list() }

// Children returns child ids in the order the edges were added.
func (n *Node) Children() []string { return n.children.list() }

func (n *Node) HasParent(id string) bool { return n.parents.has(id) }

func (n *Node) HasChild(id string) bool { return n.children.has(id) }

func (n *Node) NumParents() int { return n.parents.len() }

func (n *Node) NumChildren() int { return n.children.len() }

// Forbids reports whether a child of the given kind would be rejected.
func (n *Node) Forbids(kind NodeKind) bool {
	_, ok := n.forbidden[kind]
	return ok
}

// idSet is an insertion-ordered set of node ids.
type idSet struct {
	order []string
	index map[string]struct{}
}

func (s *idSet) add(id string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

func (s *idSet) remove(id string) {
	if _, ok := s.index[id]; !ok {
		return
	}
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func (s *idSet) has(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *idSet) len() int { return len(s.order) }

func (s *idSet) list() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
