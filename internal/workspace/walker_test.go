package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalker_Walk(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"hero.json":              skeleton,
		"chars/goblin.JSON":      skeleton,
		"chars/goblin.atlas":     "goblin.png",
		"config.json":            `{"name": "not a skeleton"}`,
		"list.json":              `[1, 2, 3]`,
		"broken.json":            `{"skeleton": `,
		"numeric.json":           `{"skeleton": {"spine": 3.8}}`,
		"build/out.json":         skeleton,
		".cache/hero.json":       skeleton,
		"node_modules/pkg.json":  skeleton,
		".gitignore":             "build/\n# comment\n\n*.bak.json\n",
		"chars/goblin.bak.json":  skeleton,
	})

	entries, err := NewWalker().Walk(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"chars/goblin.JSON", "hero.json"}, relPaths(entries))

	t.Run("Entry", func(t *testing.T) {
		e := entries[1]
		assert.Equal(t, filepath.Join(root, "hero.json"), e.Path)
		assert.Equal(t, "3.8.99", e.Version)
		assert.Equal(t, hash([]byte(skeleton)), e.SHA256)
	})
}

func TestWalker_ExtraPatterns(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"hero.json":     skeleton,
		"out/hero.json": skeleton,
	})

	entries, err := NewWalker("out/").Walk(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"hero.json"}, relPaths(entries))
}

func TestWalker_MissingRoot(t *testing.T) {
	t.Parallel()

	_, err := NewWalker().Walk(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSkeletonVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
		ok      bool
	}{
		{"Skeleton", `{"skeleton": {"spine": "4.0.31"}}`, "4.0.31", true},
		{"NoSpine", `{"skeleton": {"hash": "x"}}`, "", false},
		{"NoSkeleton", `{"bones": []}`, "", false},
		{"NotAnObject", `"skeleton"`, "", false},
		{"Empty", ``, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := SkeletonVersion([]byte(tt.content))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
