package workspace

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Benny93/spine-editor/internal/editor"
	"github.com/Benny93/spine-editor/internal/storage"
)

// DefaultConcurrency is used when no positive limit is configured.
const DefaultConcurrency = 4

// ProgressCallback is called after each file with the number of files done
// so far, the total and the file just finished.
type ProgressCallback func(done, total int, path string)

// FileResult is the outcome for one file.
type FileResult struct {
	Entry FileEntry

	// Output is the written path, empty when nothing was written.
	Output string

	// Changed reports whether the output differs from the file content.
	Changed bool

	Report editor.Report
	Err    error
}

// PipelineResult summarizes a pipeline run.
type PipelineResult struct {
	Files        []FileResult
	Changed      int
	Failed       int
	DurationSecs float64
}

// Pipeline applies an operation to many skeleton files.
type Pipeline struct {
	store       storage.StorageBackend
	concurrency int
	outputDir   string
	editorOpts  []editor.Option
	progress    ProgressCallback
	log         *zap.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithStore persists an edit record for every changed file.
func WithStore(s storage.StorageBackend) PipelineOption {
	return func(p *Pipeline) { p.store = s }
}

// WithConcurrency bounds how many files are processed at once.
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithOutputDir writes results under dir, mirroring each file's relative
// path, instead of overwriting the sources.
func WithOutputDir(dir string) PipelineOption {
	return func(p *Pipeline) { p.outputDir = dir }
}

// WithEditorOptions passes opts to every editor session.
func WithEditorOptions(opts ...editor.Option) PipelineOption {
	return func(p *Pipeline) { p.editorOpts = append(p.editorOpts, opts...) }
}

// WithProgress registers a progress callback. Calls are serialized.
func WithProgress(fn ProgressCallback) PipelineOption {
	return func(p *Pipeline) { p.progress = fn }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPipeline creates a pipeline.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{concurrency: DefaultConcurrency, log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run applies op to every file. A failing file is reported in its
// FileResult and does not stop the others; only cancellation of ctx aborts
// the run.
func (p *Pipeline) Run(ctx context.Context, files []FileEntry, op Operation) (*PipelineResult, error) {
	start := time.Now()
	result := &PipelineResult{Files: make([]FileResult, len(files))}

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, entry := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := p.Process(gctx, entry, op)
			result.Files[i] = res

			mu.Lock()
			defer mu.Unlock()
			done++
			if p.progress != nil {
				p.progress(done, len(files), entry.RelPath)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, res := range result.Files {
		switch {
		case res.Err != nil:
			result.Failed++
		case res.Changed:
			result.Changed++
		}
	}
	result.DurationSecs = time.Since(start).Seconds()

	p.log.Info("batch finished",
		zap.String("operation", op.Name),
		zap.Int("files", len(files)),
		zap.Int("changed", result.Changed),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// Process applies op to a single file. An in-place edit that leaves the
// document byte-identical writes nothing and records nothing.
func (p *Pipeline) Process(ctx context.Context, entry FileEntry, op Operation) FileResult {
	res := FileResult{Entry: entry}
	log := p.log.With(zap.String("file", entry.RelPath), zap.String("operation", op.Name))

	original, err := os.ReadFile(entry.Path)
	if err != nil {
		res.Err = err
		return res
	}

	e, err := editor.Open(original, append([]editor.Option{editor.WithLogger(log)}, p.editorOpts...)...)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", entry.RelPath, err)
		return res
	}

	report, err := op.Apply(e)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", entry.RelPath, err)
		return res
	}
	res.Report = report

	out, err := e.JSON()
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", entry.RelPath, err)
		return res
	}
	res.Changed = !bytes.Equal(out, original)

	target := entry.Path
	if p.outputDir != "" {
		target = filepath.Join(p.outputDir, entry.RelPath)
	} else if !res.Changed {
		return res
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		res.Err = err
		return res
	}
	if err := os.WriteFile(target, out, 0o644); err != nil {
		res.Err = err
		return res
	}
	res.Output = target

	if p.store != nil {
		rec := &storage.EditRecord{
			Source:             entry.Path,
			Operation:          op.Name,
			Args:               op.Args,
			RemovedSlots:       report.RemovedSlots,
			RemovedAttachments: report.RemovedAttachments,
			RemovedImages:      report.RemovedImages,
		}
		if p.outputDir != "" {
			rec.Output = target
		}
		if err := p.store.SaveEdit(ctx, rec); err != nil {
			res.Err = fmt.Errorf("saving edit: %w", err)
			return res
		}
	}

	log.Debug("file processed", zap.Bool("changed", res.Changed), zap.String("output", res.Output))
	return res
}
