package graph

import (
	"fmt"
	"strings"
)

// ErrorTag classifies a validation finding.
type ErrorTag string

const (
	TagCircularRefs     ErrorTag = "CIRCULAR_REFS"
	TagUnconnectedNodes ErrorTag = "UNCONNECTED_NODES"
)

// ValidationError is one tagged finding with the node ids it concerns.
type ValidationError struct {
	Tag ErrorTag `json:"tag"`
	IDs []string `json:"ids"`
}

// ValidationResult is the ordered list of findings for one graph.
type ValidationResult struct {
	Errors []ValidationError `json:"errors"`
}

// Valid reports whether no findings were made.
func (r ValidationResult) Valid() bool { return len(r.Errors) == 0 }

// Of returns the findings carrying tag.
func (r ValidationResult) Of(tag ErrorTag) []ValidationError {
	var out []ValidationError
	for _, e := range r.Errors {
		if e.Tag == tag {
			out = append(out, e)
		}
	}
	return out
}

func (r ValidationResult) String() string {
	if r.Valid() {
		return "valid"
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s[%s]", e.Tag, strings.Join(e.IDs, ", ")))
	}
	return strings.Join(parts, "; ")
}

// Validate runs cycle and connectivity checks. Each cycle gets its own
// CIRCULAR_REFS entry; all unconnected heads share one UNCONNECTED_NODES entry.
func Validate(g *Graph) ValidationResult {
	var res ValidationResult
	for _, cycle := range CircularRefs(g) {
		res.Errors = append(res.Errors, ValidationError{Tag: TagCircularRefs, IDs: cycle})
	}
	if heads := UnconnectedNodes(g); len(heads) > 0 {
		res.Errors = append(res.Errors, ValidationError{Tag: TagUnconnectedNodes, IDs: heads})
	}
	return res
}

// CircularRefs finds cycles with a depth-first search from every node in
// insertion order, sharing one visited set. When a child already on the
// current path is reached, the path from that child onward is one cycle and
// the node that closed it explores no further children. Cycles are listed in
// reverse discovery order and each cycle's ids in reverse of the order they
// were discovered walking back from the closing child.
func CircularRefs(g *Graph) [][]string {
	f := cycleFinder{
		g:       g,
		visited: make(map[string]struct{}, g.Len()),
		onPath:  make(map[string]int),
	}
	for _, id := range g.order {
		f.visit(id)
	}

	out := make([][]string, 0, len(f.cycles))
	for i := len(f.cycles) - 1; i >= 0; i-- {
		out = append(out, f.cycles[i])
	}
	return out
}

type cycleFinder struct {
	g       *Graph
	visited map[string]struct{}
	onPath  map[string]int
	path    []string
	cycles  [][]string
}

func (f *cycleFinder) visit(id string) {
	if _, seen := f.visited[id]; seen {
		return
	}
	f.visited[id] = struct{}{}
	f.onPath[id] = len(f.path)
	f.path = append(f.path, id)

	for _, child := range f.g.nodes[id].children.order {
		if pos, ok := f.onPath[child]; ok {
			// Discovery runs child, path[last], ..., path[pos+1]; store it reversed.
			cycle := make([]string, 0, len(f.path)-pos)
			cycle = append(cycle, f.path[pos+1:]...)
			cycle = append(cycle, child)
			f.cycles = append(f.cycles, cycle)
			break
		}
		f.visit(child)
	}

	f.path = f.path[:len(f.path)-1]
	delete(f.onPath, id)
}

// UnconnectedNodes returns the heads whose kind is not the graph's root kind.
func UnconnectedNodes(g *Graph) []string {
	var out []string
	for _, id := range g.Heads() {
		if g.nodes[id].Kind != g.rootKind {
			out = append(out, id)
		}
	}
	return out
}
