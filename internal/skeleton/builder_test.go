package skeleton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/spine-editor/internal/graph"
	"github.com/Benny93/spine-editor/internal/schema"
)

const rig = `{
	"skeleton": {"spine": "3.8.99"},
	"bones": [
		{"name": "root"},
		{"name": "body", "parent": "root"},
		{"name": "arm", "parent": "body"},
		{"name": "target", "parent": "root"}
	],
	"slots": [
		{"name": "body", "bone": "body", "attachment": "torso"},
		{"name": "arm", "bone": "arm", "attachment": "arm"},
		{"name": "fx", "bone": "root"}
	],
	"ik": [{"name": "reach", "bones": ["arm"], "target": "target"}],
	"skins": [
		{"name": "default", "attachments": {
			"body": {"torso": {"path": "images/torso"}},
			"arm": {"arm": {}, "arm-alt": {"name": "arm2"}}
		}},
		{"name": "winter", "attachments": {
			"body": {"torso": {"path": "images/torso"}}
		}}
	]
}`

func loadRig(t *testing.T, src string) *schema.Document {
	t.Helper()
	doc, err := schema.Load([]byte(src))
	require.NoError(t, err)
	return doc
}

func buildRig(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := Build(loadRig(t, rig))
	require.NoError(t, err)
	return g
}

func names(records []*schema.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Str("name"))
	}
	return out
}

func TestNodeID(t *testing.T) {
	t.Parallel()

	id := NodeID(KindSlot, "hip")
	assert.Equal(t, "hip_SLOT", id)
	assert.Equal(t, "hip", BaseName(KindSlot, id))
	assert.Equal(t, "hip_SLOT", BaseName(KindBone, id))
}

func TestAttachmentIdentity(t *testing.T) {
	t.Parallel()

	mk := func(fields string) *schema.Record {
		m, err := schema.Decode([]byte(fields))
		require.NoError(t, err)
		r, err := schema.NewRecord(schema.RegionAttachment, m.AsMapping())
		require.NoError(t, err)
		return r
	}

	tests := []struct {
		name string
		att  *schema.Record
		want string
	}{
		{"path wins", mk(`{"path": "p", "name": "n"}`), "p"},
		{"name when no path", mk(`{"name": "n"}`), "n"},
		{"key otherwise", mk(`{}`), "key"},
		{"nil record", nil, "key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, AttachmentIdentity("key", tt.att))
		})
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()
	g := buildRig(t)

	t.Run("Nodes", func(t *testing.T) {
		assert.Equal(t, []string{"root", "body", "arm", "target"}, Names(g, KindBone))
		assert.Equal(t, []string{"body", "arm", "fx"}, Names(g, KindSlot))
		assert.Equal(t, []string{"reach"}, Names(g, KindIk))
		assert.Equal(t, []string{"images/torso", "arm", "arm2"}, Names(g, KindAttachment))
	})

	t.Run("Edges", func(t *testing.T) {
		assert.True(t, g.Node("root_BONE").HasChild("body_BONE"))
		assert.True(t, g.Node("body_BONE").HasChild("body_SLOT"))
		assert.True(t, g.Node("body_SLOT").HasChild("images/torso_ATTACHMENT"))
		assert.Equal(t, []string{"arm_ATTACHMENT", "arm2_ATTACHMENT"}, g.Node("arm_SLOT").Children())
		assert.True(t, g.Node("target_BONE").HasChild("reach_IK"))
		assert.True(t, g.Node("reach_IK").HasChild("arm_BONE"))
	})

	t.Run("AttachmentsDeduplicatedAcrossSkins", func(t *testing.T) {
		p := PayloadOf(g.Node("images/torso_ATTACHMENT"))
		require.NotNil(t, p)
		assert.Equal(t, -1, p.Index)
		assert.Equal(t, []AttachmentRef{
			{Skin: "default", Slot: "body", Key: "torso"},
			{Skin: "winter", Slot: "body", Key: "torso"},
		}, p.Refs)
	})

	t.Run("SetupAttachments", func(t *testing.T) {
		assert.Equal(t, []string{"images/torso_ATTACHMENT"}, PayloadOf(g.Node("body_SLOT")).DefaultAttachments)
		assert.Equal(t, []string{"arm_ATTACHMENT"}, PayloadOf(g.Node("arm_SLOT")).DefaultAttachments)
		assert.Empty(t, PayloadOf(g.Node("fx_SLOT")).DefaultAttachments)
	})

	t.Run("Valid", func(t *testing.T) {
		assert.True(t, graph.Validate(g).Valid())
	})

	t.Run("PayloadIsACopy", func(t *testing.T) {
		doc := loadRig(t, rig)
		g, err := Build(doc)
		require.NoError(t, err)
		require.NoError(t, PayloadOf(g.Node("root_BONE")).Record.Set("x", schema.Number(5)))
		_, ok := doc.Bones()[0].Num("x")
		assert.True(t, ok)
		x, _ := doc.Bones()[0].Num("x")
		assert.Zero(t, x)
	})
}

func TestBuild_DuplicateBone(t *testing.T) {
	t.Parallel()

	doc := loadRig(t, `{"skeleton": {"spine": "3.8.99"}, "bones": [{"name": "root"}, {"name": "root"}]}`)
	_, err := Build(doc)
	assert.ErrorIs(t, err, graph.ErrDuplicateNodeID)
}

func TestBuild_SkipsDanglingReferences(t *testing.T) {
	t.Parallel()

	doc := loadRig(t, `{
		"skeleton": {"spine": "3.8.99"},
		"bones": [{"name": "root"}, {"name": "orphan", "parent": "missing"}],
		"slots": [{"name": "s", "bone": "nowhere"}],
		"ik": [{"name": "k", "bones": ["ghost"], "target": "ghost"}]
	}`)
	g, err := Build(doc)
	require.NoError(t, err)
	assert.Equal(t, 0, g.Node("orphan_BONE").NumParents())
	assert.Equal(t, 0, g.Node("s_SLOT").NumParents())
	assert.Equal(t, 0, g.Node("k_IK").NumChildren())
}

func TestNewGraph_ForbiddenEdges(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	for _, n := range []struct {
		id   string
		kind graph.NodeKind
	}{
		{"b", KindBone}, {"s", KindSlot}, {"a", KindAttachment}, {"k", KindIk},
	} {
		_, err := g.AddNode(n.id, n.kind, nil)
		require.NoError(t, err)
	}

	tests := []struct {
		parent, child string
		allowed       bool
	}{
		{"b", "s", true},
		{"s", "a", true},
		{"b", "k", true},
		{"k", "b", true},
		{"b", "a", false},
		{"s", "b", false},
		{"s", "k", false},
		{"k", "a", false},
		{"a", "b", false},
	}
	for _, tt := range tests {
		err := g.AddEdge(tt.parent, tt.child)
		if tt.allowed {
			assert.NoError(t, err, "%s -> %s", tt.parent, tt.child)
		} else {
			assert.ErrorIs(t, err, graph.ErrForbiddenEdge, "%s -> %s", tt.parent, tt.child)
		}
	}
}

func TestFlatten(t *testing.T) {
	t.Parallel()

	t.Run("RestoresDeclarationOrder", func(t *testing.T) {
		t.Parallel()
		doc := loadRig(t, rig)
		g, err := Build(doc)
		require.NoError(t, err)

		arrays := Flatten(g)
		assert.Equal(t, names(doc.Bones()), names(arrays.Bones))
		assert.Equal(t, names(doc.Slots()), names(arrays.Slots))
		assert.Equal(t, []string{"reach"}, names(arrays.Iks))
		for i, s := range arrays.Slots {
			assert.True(t, schema.Equal(schema.Rec(doc.Slots()[i]), schema.Rec(s)))
		}
	})

	t.Run("SkipsRemovedNodes", func(t *testing.T) {
		t.Parallel()
		g := buildRig(t)
		require.NoError(t, RemoveSlots(g, []string{"body"}))

		arrays := Flatten(g)
		assert.Equal(t, []string{"arm", "fx"}, names(arrays.Slots))
	})

	t.Run("ClearsRemovedSetupAttachment", func(t *testing.T) {
		t.Parallel()
		g := buildRig(t)
		require.NoError(t, RemoveAttachments(g, []string{"arm"}))

		arrays := Flatten(g)
		arm := schema.FindByName(arrays.Slots, "arm")
		require.NotNil(t, arm)
		assert.False(t, arm.Has("attachment"))
		assert.Equal(t, "torso", schema.FindByName(arrays.Slots, "body").Str("attachment"))
	})

	t.Run("KeepsSetupAttachmentWhileAnyNodeRemains", func(t *testing.T) {
		t.Parallel()
		g := buildRig(t)
		require.NoError(t, RemoveAttachments(g, []string{"arm2"}))

		arrays := Flatten(g)
		assert.Equal(t, "arm", schema.FindByName(arrays.Slots, "arm").Str("attachment"))
	})

	t.Run("DoesNotMutateGraph", func(t *testing.T) {
		t.Parallel()
		g := buildRig(t)
		require.NoError(t, RemoveAttachments(g, []string{"arm"}))
		_ = Flatten(g)
		assert.Equal(t, "arm", PayloadOf(g.Node("arm_SLOT")).Record.Str("attachment"))
	})
}
