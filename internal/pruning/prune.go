package pruning

import (
	"github.com/Benny93/spine-editor/internal/graph"
	"github.com/Benny93/spine-editor/internal/skeleton"
)

// Result lists what Prune removed from the graph.
type Result struct {
	// Slots holds removed slot names: the unused ones, then slots left
	// without attachments by the attachment removal.
	Slots []string

	// Attachments holds removed attachment identities.
	Attachments []string
}

// Prune removes u's slots from g, then every attachment identity all of
// whose skin keys are unused, then any slot that lost its last attachment in
// the previous step.
func Prune(g *graph.Graph, u Usage) (Result, error) {
	var res Result

	if err := skeleton.RemoveSlots(g, u.Slots); err != nil {
		return res, err
	}
	res.Slots = append(res.Slots, u.Slots...)

	var withAttachments []*graph.Node
	for _, n := range g.NodesOfKind(skeleton.KindSlot) {
		if n.NumChildren() > 0 {
			withAttachments = append(withAttachments, n)
		}
	}

	unused := make(set, len(u.Attachments))
	for _, key := range u.Attachments {
		unused.add(key)
	}
	for _, n := range g.NodesOfKind(skeleton.KindAttachment) {
		p := skeleton.PayloadOf(n)
		if p == nil || !allUnused(p.Refs, unused) {
			continue
		}
		if _, err := g.RemoveNode(n.ID); err != nil {
			return res, err
		}
		res.Attachments = append(res.Attachments, p.Name)
	}

	for _, n := range withAttachments {
		if n.NumChildren() > 0 {
			continue
		}
		if _, err := g.RemoveNode(n.ID); err != nil {
			return res, err
		}
		res.Slots = append(res.Slots, skeleton.BaseName(skeleton.KindSlot, n.ID))
	}
	return res, nil
}

func allUnused(refs []skeleton.AttachmentRef, unused set) bool {
	if len(refs) == 0 {
		return false
	}
	for _, r := range refs {
		if !unused.has(r.Key) {
			return false
		}
	}
	return true
}
