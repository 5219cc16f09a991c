package skeleton

import (
	"github.com/Benny93/spine-editor/internal/graph"
)

// RemoveHeadsOfKind repeatedly removes parentless nodes of kind until none
// remain and returns their base names in removal order.
func RemoveHeadsOfKind(g *graph.Graph, kind graph.NodeKind) ([]string, error) {
	return removeRepeatedly(g, kind, g.Heads)
}

// RemoveLeavesOfKind repeatedly removes childless nodes of kind until none
// remain and returns their base names in removal order.
func RemoveLeavesOfKind(g *graph.Graph, kind graph.NodeKind) ([]string, error) {
	return removeRepeatedly(g, kind, g.Tails)
}

func removeRepeatedly(g *graph.Graph, kind graph.NodeKind, candidates func() []string) ([]string, error) {
	var removed []string
	for {
		var round []string
		for _, id := range candidates() {
			if n := g.Node(id); n != nil && n.Kind == kind {
				round = append(round, id)
			}
		}
		if len(round) == 0 {
			return removed, nil
		}
		for _, id := range round {
			if _, err := g.RemoveNode(id); err != nil {
				return removed, err
			}
			removed = append(removed, BaseName(kind, id))
		}
	}
}

// RemoveSlots removes the named slot nodes. Unknown names are an error.
func RemoveSlots(g *graph.Graph, names []string) error {
	return removeNamed(g, KindSlot, names)
}

// RemoveAttachments removes the attachment nodes with the given identities.
func RemoveAttachments(g *graph.Graph, identities []string) error {
	return removeNamed(g, KindAttachment, identities)
}

func removeNamed(g *graph.Graph, kind graph.NodeKind, names []string) error {
	for _, name := range names {
		if _, err := g.RemoveNode(NodeID(kind, name)); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the base names of every node of kind, in insertion order.
func Names(g *graph.Graph, kind graph.NodeKind) []string {
	nodes := g.NodesOfKind(kind)
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, BaseName(kind, n.ID))
	}
	return out
}
