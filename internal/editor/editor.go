// Package editor loads a skeleton document and applies whole-document edits
// to it: erasing animations and skins, pruning what can never be seen,
// scaling and collecting image references.
package editor

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Benny93/spine-editor/internal/graph"
	"github.com/Benny93/spine-editor/internal/schema"
	"github.com/Benny93/spine-editor/internal/skeleton"
)

// DefaultImagesFolder is used when the skeleton header names no images folder.
const DefaultImagesFolder = "./images/"

// Editor is an editing session over one document. It is not safe for
// concurrent use.
type Editor struct {
	doc          *schema.Document
	graph        *graph.Graph
	images       map[string]ImageRef
	imagesFolder string
	indent       int
	log          *zap.Logger
}

type Option func(*Editor)

// WithLogger sets the logger edits are reported to.
func WithLogger(l *zap.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithImagesFolder sets the folder image paths are resolved against when the
// skeleton header has no "images" entry.
func WithImagesFolder(dir string) Option {
	return func(e *Editor) {
		if dir != "" {
			e.imagesFolder = dir
		}
	}
}

// WithIndent sets the indentation used by JSON.
func WithIndent(n int) Option {
	return func(e *Editor) { e.indent = n }
}

// Open parses a skeleton document.
func Open(data []byte, opts ...Option) (*Editor, error) {
	doc, err := schema.Load(data)
	if err != nil {
		return nil, err
	}

	e := &Editor{
		doc:          doc,
		imagesFolder: DefaultImagesFolder,
		indent:       schema.DefaultIndent,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.images, err = e.collectImages(); err != nil {
		return nil, err
	}
	if err := e.rebuild(); err != nil {
		return nil, err
	}
	return e, nil
}

// OpenFile reads and parses the skeleton document at path.
func OpenFile(path string, opts ...Option) (*Editor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	e, err := Open(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

func (e *Editor) rebuild() error {
	g, err := skeleton.Build(e.doc)
	if err != nil {
		return err
	}
	e.graph = g
	return nil
}

// Document returns the document being edited.
func (e *Editor) Document() *schema.Document { return e.doc }

// Version returns the document's format version.
func (e *Editor) Version() schema.Version { return e.doc.Version }

// Validate checks the current structure graph.
func (e *Editor) Validate() graph.ValidationResult {
	return graph.Validate(e.graph)
}

// Order returns the structure graph's node ids parents first.
func (e *Editor) Order() []string {
	return e.graph.SequentialOrder()
}

// Paths enumerates the paths between two node ids of the structure graph.
func (e *Editor) Paths(from, to string, maxDepth int) ([][]string, error) {
	return e.graph.AllPaths(from, to, maxDepth)
}

// Convert retargets the document to another format version.
func (e *Editor) Convert(to schema.Version) {
	e.log.Info("converting document", zap.Stringer("from", e.doc.Version), zap.Stringer("to", to))
	e.doc.Convert(to)
}

// JSON serializes the document with defaults elided.
func (e *Editor) JSON() ([]byte, error) {
	return e.doc.JSON(e.indent)
}

// WriteFile writes JSON to path, creating parent directories.
func (e *Editor) WriteFile(path string) error {
	data, err := e.JSON()
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
