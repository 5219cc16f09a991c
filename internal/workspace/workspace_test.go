package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// skeleton has one used slot and one fully transparent one.
const skeleton = `{
    "skeleton": {"spine": "3.8.99", "images": "./images/"},
    "bones": [{"name": "root"}],
    "slots": [
        {"name": "body", "bone": "root", "attachment": "body"},
        {"name": "ghost", "bone": "root", "color": "ffffff00", "attachment": "ghost"}
    ],
    "skins": [
        {
            "name": "default",
            "attachments": {
                "body": {"body": {"width": 10, "height": 10}},
                "ghost": {"ghost": {"width": 5, "height": 5}}
            }
        }
    ]
}`

// writeTree creates files under a fresh temp dir and returns its path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func relPaths(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = filepath.ToSlash(e.RelPath)
	}
	return out
}
