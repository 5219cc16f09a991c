package pruning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/spine-editor/internal/graph"
	"github.com/Benny93/spine-editor/internal/skeleton"
)

func TestPrune(t *testing.T) {
	t.Parallel()

	doc := load(t, stage)
	g, err := skeleton.Build(doc)
	require.NoError(t, err)

	res, err := Prune(g, Analyze(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"ghost", "spark", "wing"}, res.Slots)
	assert.Equal(t, []string{"body-old", "ghost", "fx2", "spark", "wingA"}, res.Attachments)

	assert.Equal(t, []string{"body", "fx", "blink", "fade", "marker"}, skeleton.Names(g, skeleton.KindSlot))
	assert.Equal(t, []string{"body", "fx1", "eyes", "eyes-closed", "fade"}, skeleton.Names(g, skeleton.KindAttachment))
	assert.True(t, graph.Validate(g).Valid())
}

func TestPrune_KeepsSharedIdentity(t *testing.T) {
	t.Parallel()

	doc := load(t, `{
		"skeleton": {"spine": "3.8.99"},
		"bones": [{"name": "root"}],
		"slots": [
			{"name": "a", "bone": "root", "attachment": "shown"},
			{"name": "b", "bone": "root", "attachment": "hidden"}
		],
		"skins": [{"name": "default", "attachments": {
			"a": {"shown": {"path": "shared"}},
			"b": {"hidden": {"path": "shared"}, "extra": {}}
		}}]
	}`)
	g, err := skeleton.Build(doc)
	require.NoError(t, err)

	res, err := Prune(g, Usage{Attachments: []string{"hidden", "extra"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"extra"}, res.Attachments)
	assert.Empty(t, res.Slots)
	assert.True(t, g.Has(skeleton.NodeID(skeleton.KindAttachment, "shared")))
}

func TestPrune_UnknownSlot(t *testing.T) {
	t.Parallel()

	g, err := skeleton.Build(load(t, stage))
	require.NoError(t, err)

	_, err = Prune(g, Usage{Slots: []string{"nope"}})
	assert.ErrorIs(t, err, graph.ErrUnknownNodeID)
}
