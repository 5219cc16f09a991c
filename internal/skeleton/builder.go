// Package skeleton maps a loaded skeleton document onto a typed dependency
// graph and back.
//
// Bones, slots, ik constraints and attachment identities become nodes whose
// ids carry a kind suffix ("hip_BONE", "hip_SLOT") so names never collide
// across kinds. Flatten turns the graph back into the bones/slots/ik arrays in
// their original declaration order.
package skeleton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Benny93/spine-editor/internal/graph"
	"github.com/Benny93/spine-editor/internal/schema"
)

// Node kinds.
const (
	KindBone       graph.NodeKind = "BONE"
	KindSlot       graph.NodeKind = "SLOT"
	KindPath       graph.NodeKind = "PATH"
	KindIk         graph.NodeKind = "IK"
	KindAttachment graph.NodeKind = "ATTACHMENT"
)

// ForbiddenChildren lists, per kind, the child kinds it rejects.
var ForbiddenChildren = map[graph.NodeKind][]graph.NodeKind{
	KindBone:       {KindAttachment},
	KindSlot:       {KindBone, KindPath, KindIk},
	KindIk:         {KindPath, KindIk, KindAttachment},
	KindAttachment: {graph.DefaultKind, KindBone, KindSlot, KindPath, KindIk, KindAttachment},
}

// AttachmentRef locates one skin entry that resolves to an attachment identity.
type AttachmentRef struct {
	Skin string
	Slot string
	Key  string
}

// Payload is stored on every node built from a document.
type Payload struct {
	// Index is the position in the source array, -1 for attachments.
	Index int

	// Name is the unsuffixed name: bone/slot/ik name or attachment identity.
	Name string

	// Record is a private copy of the source record. For attachments it is the
	// first skin entry seen with this identity.
	Record *schema.Record

	// Refs lists every skin entry resolving to this attachment identity.
	Refs []AttachmentRef

	// DefaultAttachments holds the attachment node ids the slot's setup
	// attachment resolved to when the graph was built.
	DefaultAttachments []string
}

// NodeID returns the graph id for a name of the given kind.
func NodeID(kind graph.NodeKind, name string) string {
	return name + "_" + string(kind)
}

// BaseName strips the kind suffix from a graph id.
func BaseName(kind graph.NodeKind, id string) string {
	return strings.TrimSuffix(id, "_"+string(kind))
}

// AttachmentIdentity is the name an attachment is known by across skins:
// its path, else its name, else its skin key.
func AttachmentIdentity(key string, att *schema.Record) string {
	if att != nil {
		if p := att.Str("path"); p != "" {
			return p
		}
		if n := att.Str("name"); n != "" {
			return n
		}
	}
	return key
}

// PayloadOf returns the node payload, or nil for nodes not built here.
func PayloadOf(n *graph.Node) *Payload {
	if n == nil {
		return nil
	}
	p, _ := n.Payload.(*Payload)
	return p
}

// NewGraph returns an empty graph with the skeleton kind rules.
func NewGraph() *graph.Graph {
	return graph.New(
		graph.WithRootKind(KindBone),
		graph.WithForbiddenChildren(ForbiddenChildren),
	)
}

// Build creates the structure graph of doc: bone -> child bone,
// bone -> slot, slot -> attachment identity (deduplicated across skins),
// target bone -> ik and ik -> constrained bone. References to names that do
// not exist are skipped.
func Build(doc *schema.Document) (*graph.Graph, error) {
	g := NewGraph()

	bones := doc.Bones()
	for i, b := range bones {
		name := b.Str("name")
		if _, err := g.AddNode(NodeID(KindBone, name), KindBone, &Payload{Index: i, Name: name, Record: b.Clone()}); err != nil {
			return nil, fmt.Errorf("bone %q: %w", name, err)
		}
	}
	for _, b := range bones {
		parent := b.Str("parent")
		if parent == "" || !g.Has(NodeID(KindBone, parent)) {
			continue
		}
		if err := g.AddEdge(NodeID(KindBone, parent), NodeID(KindBone, b.Str("name"))); err != nil {
			return nil, err
		}
	}

	skins := doc.Skins()
	for i, s := range doc.Slots() {
		if err := addSlot(g, i, s, skins); err != nil {
			return nil, err
		}
	}

	for i, ik := range doc.Iks() {
		if err := addIk(g, i, ik); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func addSlot(g *graph.Graph, idx int, slot *schema.Record, skins []*schema.Record) error {
	name := slot.Str("name")
	id := NodeID(KindSlot, name)
	payload := &Payload{Index: idx, Name: name, Record: slot.Clone()}
	if _, err := g.AddNode(id, KindSlot, payload); err != nil {
		return fmt.Errorf("slot %q: %w", name, err)
	}

	setup := slot.Str("attachment")
	for _, skin := range skins {
		entries, ok := skin.Mapping("attachments").Get(name)
		if !ok {
			continue
		}
		m := entries.AsMapping()
		for _, key := range m.Keys() {
			v, _ := m.Get(key)
			att := v.AsRecord()
			identity := AttachmentIdentity(key, att)
			attID := NodeID(KindAttachment, identity)
			ref := AttachmentRef{Skin: skin.Str("name"), Slot: name, Key: key}

			if n := g.Node(attID); n != nil {
				p := PayloadOf(n)
				p.Refs = append(p.Refs, ref)
			} else {
				var rec *schema.Record
				if att != nil {
					rec = att.Clone()
				}
				if _, err := g.AddNode(attID, KindAttachment, &Payload{Index: -1, Name: identity, Record: rec, Refs: []AttachmentRef{ref}}); err != nil {
					return err
				}
			}
			if err := g.AddEdge(id, attID); err != nil {
				return err
			}
			if setup != "" && key == setup && !contains(payload.DefaultAttachments, attID) {
				payload.DefaultAttachments = append(payload.DefaultAttachments, attID)
			}
		}
	}

	bone := NodeID(KindBone, slot.Str("bone"))
	if g.Has(bone) {
		return g.AddEdge(bone, id)
	}
	return nil
}

func addIk(g *graph.Graph, idx int, ik *schema.Record) error {
	name := ik.Str("name")
	id := NodeID(KindIk, name)
	if _, err := g.AddNode(id, KindIk, &Payload{Index: idx, Name: name, Record: ik.Clone()}); err != nil {
		return fmt.Errorf("ik %q: %w", name, err)
	}

	for _, b := range ik.Items("bones") {
		bone, _ := b.AsString()
		if child := NodeID(KindBone, bone); g.Has(child) {
			if err := g.AddEdge(id, child); err != nil {
				return err
			}
		}
	}
	if target := ik.Str("target"); target != "" {
		if parent := NodeID(KindBone, target); g.Has(parent) {
			return g.AddEdge(parent, id)
		}
	}
	return nil
}

// Arrays are the schema arrays reconstructed from a graph.
type Arrays struct {
	Bones []*schema.Record
	Slots []*schema.Record
	Iks   []*schema.Record
}

// Flatten rebuilds the bones, slots and ik arrays from the nodes still in g,
// in original declaration order. Attachment nodes are ignored. A slot whose
// setup attachment no longer has any of its attachment nodes as a child
// loses its "attachment" field.
func Flatten(g *graph.Graph) Arrays {
	type indexed struct {
		idx int
		rec *schema.Record
	}
	var bones, slots, iks []indexed

	for _, n := range g.Nodes() {
		p := PayloadOf(n)
		if p == nil || p.Record == nil {
			continue
		}
		rec := p.Record.Clone()

		switch n.Kind {
		case KindBone:
			bones = append(bones, indexed{p.Index, rec})
		case KindSlot:
			if len(p.DefaultAttachments) > 0 && !hasAnyChild(n, p.DefaultAttachments) {
				_ = rec.Set("attachment", schema.Null())
			}
			slots = append(slots, indexed{p.Index, rec})
		case KindIk:
			iks = append(iks, indexed{p.Index, rec})
		}
	}

	collect := func(in []indexed) []*schema.Record {
		sort.SliceStable(in, func(i, j int) bool { return in[i].idx < in[j].idx })
		out := make([]*schema.Record, 0, len(in))
		for _, e := range in {
			out = append(out, e.rec)
		}
		return out
	}
	return Arrays{Bones: collect(bones), Slots: collect(slots), Iks: collect(iks)}
}

func hasAnyChild(n *graph.Node, ids []string) bool {
	for _, id := range ids {
		if n.HasChild(id) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
