package skeleton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/spine-editor/internal/graph"
)

func TestRemoveHeadsOfKind(t *testing.T) {
	t.Parallel()
	g := buildRig(t)
	require.NoError(t, RemoveSlots(g, []string{"body", "arm"}))

	removed, err := RemoveHeadsOfKind(g, KindAttachment)
	require.NoError(t, err)
	assert.Equal(t, []string{"images/torso", "arm", "arm2"}, removed)
	assert.Empty(t, g.NodesOfKind(KindAttachment))

	removed, err = RemoveHeadsOfKind(g, KindAttachment)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestRemoveLeavesOfKind(t *testing.T) {
	t.Parallel()

	t.Run("Slots", func(t *testing.T) {
		t.Parallel()
		g := buildRig(t)
		removed, err := RemoveLeavesOfKind(g, KindSlot)
		require.NoError(t, err)
		assert.Equal(t, []string{"fx"}, removed)
	})

	t.Run("Iterates", func(t *testing.T) {
		t.Parallel()
		doc := loadRig(t, `{
			"skeleton": {"spine": "3.8.99"},
			"bones": [{"name": "root"}, {"name": "a", "parent": "root"}, {"name": "b", "parent": "a"}]
		}`)
		g, err := Build(doc)
		require.NoError(t, err)

		removed, err := RemoveLeavesOfKind(g, KindBone)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a", "root"}, removed)
		assert.Zero(t, g.Len())
	})
}

func TestRemoveNamed_Unknown(t *testing.T) {
	t.Parallel()
	g := buildRig(t)

	assert.ErrorIs(t, RemoveSlots(g, []string{"nope"}), graph.ErrUnknownNodeID)
	assert.ErrorIs(t, RemoveAttachments(g, []string{"nope"}), graph.ErrUnknownNodeID)
}
