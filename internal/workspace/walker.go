// Package workspace finds skeleton files under a directory tree and applies
// editor operations to them in batches or whenever they change.
package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	jsoniter "github.com/json-iterator/go"
)

// FileEntry represents a skeleton file to be processed.
type FileEntry struct {
	// Path is the absolute file path.
	Path string

	// RelPath is the path relative to the walked root.
	RelPath string

	// Version is the skeleton.spine value of the file.
	Version string

	// SHA256 is the hash of the file content.
	SHA256 string
}

// Default patterns to ignore (in addition to .gitignore).
var defaultIgnorePatterns = []string{
	".git/",
	"node_modules/",
	".spine-editor/",
	".DS_Store",
}

// Walker discovers skeleton files.
type Walker struct {
	patterns []gitignore.Pattern
}

// NewWalker returns a walker that skips the default patterns plus extra.
func NewWalker(extra ...string) *Walker {
	w := &Walker{}
	for _, p := range append(append([]string(nil), defaultIgnorePatterns...), extra...) {
		w.patterns = append(w.patterns, gitignore.ParsePattern(p, nil))
	}
	return w
}

// Walk returns every skeleton JSON file under root in lexical order. Hidden
// directories and paths matched by root's .gitignore are skipped.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	matcher, err := w.matcher(root)
	if err != nil {
		return nil, err
	}

	var entries []FileEntry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && shouldSkipDir(d.Name(), path, root, matcher) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isCandidate(d.Name()) || ignored(path, root, matcher) {
			return nil
		}

		entry, ok, err := readEntry(root, path)
		if err != nil {
			return err
		}
		if ok {
			entries = append(entries, entry)
		}
		return nil
	})

	return entries, err
}

// matcher combines the walker patterns with root's .gitignore.
func (w *Walker) matcher(root string) (gitignore.Matcher, error) {
	patterns, err := loadGitignore(root)
	if err != nil {
		return nil, err
	}
	return gitignore.NewMatcher(append(append([]gitignore.Pattern(nil), w.patterns...), patterns...)), nil
}

// readEntry reads path and reports whether it holds a skeleton.
func readEntry(root, path string) (FileEntry, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return FileEntry{}, false, err
	}

	version, ok := SkeletonVersion(content)
	if !ok {
		return FileEntry{}, false, nil
	}

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return FileEntry{}, false, err
	}

	return FileEntry{
		Path:    path,
		RelPath: relPath,
		Version: version,
		SHA256:  hash(content),
	}, true, nil
}

// SkeletonVersion returns skeleton.spine when content is a JSON object
// carrying one.
func SkeletonVersion(content []byte) (string, bool) {
	spine := jsoniter.Get(content, "skeleton", "spine")
	if spine.LastError() != nil || spine.ValueType() != jsoniter.StringValue {
		return "", false
	}
	return spine.ToString(), true
}

func hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// loadGitignore loads .gitignore patterns from root.
func loadGitignore(root string) ([]gitignore.Pattern, error) {
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns, nil
}

func isCandidate(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}

// shouldSkipDir checks if a directory should be skipped.
func shouldSkipDir(name, path, root string, matcher gitignore.Matcher) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return matcher.Match(splitPath(relPath), true)
}

func ignored(path, root string, matcher gitignore.Matcher) bool {
	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return true
	}
	return matcher.Match(splitPath(relPath), false)
}

// splitPath splits a path into its components.
func splitPath(path string) []string {
	return strings.Split(path, string(filepath.Separator))
}
