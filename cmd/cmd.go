// Package cmd provides CLI command implementations for the skeleton editor.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/Benny93/spine-editor/internal/config"
	"github.com/Benny93/spine-editor/internal/editor"
	"github.com/Benny93/spine-editor/internal/observability"
	"github.com/Benny93/spine-editor/internal/schema"
	"github.com/Benny93/spine-editor/internal/storage"
	"github.com/Benny93/spine-editor/internal/workspace"
	"github.com/Benny93/spine-editor/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ErrInvalidSkeleton is returned by validate when findings were made.
var ErrInvalidSkeleton = errors.New("skeleton structure is invalid")

// Runtime carries what every command needs. It is built after flags are
// parsed and bound into each command's Run method.
type Runtime struct {
	Config *config.Config
	Log    *zap.Logger
	Out    io.Writer
	Err    io.Writer
}

func (rt *Runtime) editorOptions() []editor.Option {
	return []editor.Option{
		editor.WithLogger(rt.Log),
		editor.WithImagesFolder(rt.Config.Editor.ImagesFolder),
		editor.WithIndent(rt.Config.Editor.Indent),
	}
}

func (rt *Runtime) open(path string) (*editor.Editor, error) {
	return editor.OpenFile(path, rt.editorOptions()...)
}

// openStore opens the edit history. Failing to open it only disables
// history.
func (rt *Runtime) openStore(readOnly bool) storage.StorageBackend {
	if !rt.Config.Storage.InMemory {
		if err := os.MkdirAll(rt.Config.Storage.Path, 0o755); err != nil {
			rt.Log.Warn("edit history unavailable", zap.Error(err))
			return nil
		}
	}
	store, err := storage.Open(rt.Config.Storage, readOnly)
	if err != nil {
		rt.Log.Warn("edit history unavailable", zap.Error(err))
		return nil
	}
	return store
}

// record saves one edit to the history, if available.
func (rt *Runtime) record(source, output, op string, args []string, r editor.Report) {
	store := rt.openStore(false)
	if store == nil {
		return
	}
	defer func() { _ = store.Close() }()

	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}
	rec := &storage.EditRecord{
		Source:             abs,
		Operation:          op,
		Args:               args,
		RemovedSlots:       r.RemovedSlots,
		RemovedAttachments: r.RemovedAttachments,
		RemovedImages:      r.RemovedImages,
	}
	if output != "" && output != source {
		rec.Output, _ = filepath.Abs(output)
	}
	if err := store.SaveEdit(context.Background(), rec); err != nil {
		rt.Log.Warn("saving edit", zap.Error(err))
	}
}

// writeResult writes e to output, or back to path when output is empty.
func (rt *Runtime) writeResult(e *editor.Editor, path, output string) (string, error) {
	target := path
	if output != "" {
		target = output
	}
	if err := e.WriteFile(target); err != nil {
		return "", fmt.Errorf("writing %s: %w", target, err)
	}
	return target, nil
}

func (rt *Runtime) printReport(op, target string, r editor.Report) {
	color.New(color.FgGreen).Fprintf(rt.Out, "✓ %s → %s\n", op, target)
	line := func(label string, items []string, c color.Attribute) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(rt.Out, "  %-22s", label+":")
		color.New(c).Fprintf(rt.Out, "%s\n", strings.Join(items, ", "))
	}
	line("Erased", r.Erased, color.FgCyan)
	line("Missing", r.Missing, color.FgYellow)
	line("Removed slots", r.RemovedSlots, color.FgRed)
	line("Removed attachments", r.RemovedAttachments, color.FgRed)
	line("Removed images", r.RemovedImages, color.FgRed)
}

// EditFlags holds the arguments shared by commands that rewrite one file.
type EditFlags struct {
	Path   string `arg:"" type:"existingfile" help:"Skeleton JSON file"`
	Output string `short:"o" type:"path" help:"Write the result here instead of overwriting the input"`
}

func (c *EditFlags) apply(rt *Runtime, op string, args []string, fn func(*editor.Editor) (editor.Report, error)) error {
	e, err := rt.open(c.Path)
	if err != nil {
		return err
	}
	report, err := fn(e)
	if err != nil {
		return err
	}
	target, err := rt.writeResult(e, c.Path, c.Output)
	if err != nil {
		return err
	}
	rt.record(c.Path, target, op, args, report)
	rt.printReport(op, target, report)
	return nil
}

// EraseFlags select strictness and the clean pass for erase commands.
type EraseFlags struct {
	Lenient bool `help:"Report missing names instead of failing"`
	Strict  bool `help:"Fail when a name is missing (overrides config)"`
	Safe    bool `help:"Skip the clean pass after erasing"`
}

func (f EraseFlags) options(cfg *config.Config) editor.EraseOptions {
	strict := cfg.Editor.Strict
	if f.Strict {
		strict = true
	}
	if f.Lenient {
		strict = false
	}
	return editor.EraseOptions{Strict: strict, Safe: f.Safe || cfg.Editor.SafeMode}
}

// CleanCmd removes slots and attachments that are never visible.
type CleanCmd struct {
	EditFlags
}

// Run executes the clean command.
func (c *CleanCmd) Run(rt *Runtime) error {
	return c.apply(rt, "clean", nil, func(e *editor.Editor) (editor.Report, error) {
		return e.Clean()
	})
}

// EraseAnimationsCmd erases animations by name.
type EraseAnimationsCmd struct {
	EditFlags
	Names []string `arg:"" help:"Animation names"`
	EraseFlags
}

// Run executes the erase-animations command.
func (c *EraseAnimationsCmd) Run(rt *Runtime) error {
	opts := c.options(rt.Config)
	return c.apply(rt, "erase-animations", c.Names, func(e *editor.Editor) (editor.Report, error) {
		return e.EraseAnimations(c.Names, opts)
	})
}

// EraseSkinsCmd erases skins by name.
type EraseSkinsCmd struct {
	EditFlags
	Names []string `arg:"" help:"Skin names"`
	EraseFlags
}

// Run executes the erase-skins command.
func (c *EraseSkinsCmd) Run(rt *Runtime) error {
	opts := c.options(rt.Config)
	return c.apply(rt, "erase-skins", c.Names, func(e *editor.Editor) (editor.Report, error) {
		return e.EraseSkins(c.Names, opts)
	})
}

// ScaleCmd scales the skeleton.
type ScaleCmd struct {
	EditFlags
	X float64 `arg:"" help:"Horizontal factor"`
	Y float64 `arg:"" optional:"" help:"Vertical factor (defaults to X)"`
}

// Run executes the scale command.
func (c *ScaleCmd) Run(rt *Runtime) error {
	if c.X == 0 {
		return fmt.Errorf("scale factor must not be zero")
	}
	y := c.Y
	if y == 0 {
		y = c.X
	}
	op := workspace.Scale(c.X, y)
	return c.apply(rt, op.Name, op.Args, op.Apply)
}

// ConvertCmd rewrites the skeleton for another format version.
type ConvertCmd struct {
	EditFlags
	To string `arg:"" help:"Target version, e.g. 3.8.99"`
}

// Run executes the convert command.
func (c *ConvertCmd) Run(rt *Runtime) error {
	to, err := schema.ParseVersion(c.To)
	if err != nil {
		return err
	}
	op := workspace.Convert(to)
	return c.apply(rt, op.Name, op.Args, op.Apply)
}

// ImagesCmd lists image references.
type ImagesCmd struct {
	Path   string `arg:"" type:"existingfile" help:"Skeleton JSON file"`
	Output string `short:"o" type:"path" help:"Write the JSON to this file instead of stdout"`
}

// Run executes the images command.
func (c *ImagesCmd) Run(rt *Runtime) error {
	e, err := rt.open(c.Path)
	if err != nil {
		return err
	}
	if c.Output != "" {
		if err := e.WriteImages(c.Output); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(rt.Out, "✓ %d image(s) → %s\n", len(e.Images()), c.Output)
		return nil
	}
	data, err := e.ImagesJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(rt.Out, string(data))
	return nil
}

// ValidateCmd checks the structure graph.
type ValidateCmd struct {
	Path string `arg:"" type:"existingfile" help:"Skeleton JSON file"`
}

// Run executes the validate command.
func (c *ValidateCmd) Run(rt *Runtime) error {
	e, err := rt.open(c.Path)
	if err != nil {
		return err
	}
	res := e.Validate()
	if res.Valid() {
		color.New(color.FgGreen).Fprintf(rt.Out, "✓ %s is valid (spine %s)\n", c.Path, e.Version())
		return nil
	}
	for _, verr := range res.Errors {
		color.New(color.FgRed).Fprintf(rt.Out, "✗ %s", verr.Tag)
		fmt.Fprintf(rt.Out, ": %s\n", strings.Join(verr.IDs, ", "))
	}
	return ErrInvalidSkeleton
}

// OrderCmd prints the structure in dependency order.
type OrderCmd struct {
	Path string `arg:"" type:"existingfile" help:"Skeleton JSON file"`
}

// Run executes the order command.
func (c *OrderCmd) Run(rt *Runtime) error {
	e, err := rt.open(c.Path)
	if err != nil {
		return err
	}
	for _, id := range e.Order() {
		fmt.Fprintln(rt.Out, id)
	}
	return nil
}

// PathsCmd enumerates paths between two structure nodes.
type PathsCmd struct {
	Path     string `arg:"" type:"existingfile" help:"Skeleton JSON file"`
	From     string `arg:"" help:"Start node id, e.g. root_BONE"`
	To       string `arg:"" help:"End node id, e.g. body_SLOT"`
	MaxDepth int    `short:"d" help:"Maximum path length in nodes (0 uses the default)"`
}

// Run executes the paths command.
func (c *PathsCmd) Run(rt *Runtime) error {
	e, err := rt.open(c.Path)
	if err != nil {
		return err
	}
	paths, err := e.Paths(c.From, c.To, c.MaxDepth)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(rt.Out, "No paths found")
		return nil
	}
	for _, p := range paths {
		fmt.Fprintln(rt.Out, strings.Join(p, " → "))
	}
	return nil
}

// OpFlags select the operation run by batch and watch.
type OpFlags struct {
	Op     string   `default:"clean" enum:"clean,erase-animations,erase-skins,scale" help:"Operation to apply (${enum})"`
	Names  []string `help:"Animation or skin names for erase operations"`
	Factor float64  `default:"1" help:"Factor for the scale operation"`
	EraseFlags
}

func (f OpFlags) operation(cfg *config.Config) (workspace.Operation, error) {
	switch f.Op {
	case "clean":
		return workspace.Clean(), nil
	case "erase-animations", "erase-skins":
		if len(f.Names) == 0 {
			return workspace.Operation{}, fmt.Errorf("%s needs --names", f.Op)
		}
		if f.Op == "erase-animations" {
			return workspace.EraseAnimations(f.Names, f.options(cfg)), nil
		}
		return workspace.EraseSkins(f.Names, f.options(cfg)), nil
	case "scale":
		if f.Factor == 0 {
			return workspace.Operation{}, fmt.Errorf("scale factor must not be zero")
		}
		return workspace.Scale(f.Factor, f.Factor), nil
	default:
		return workspace.Operation{}, fmt.Errorf("unknown operation %q", f.Op)
	}
}

// BatchCmd applies an operation to every skeleton under a directory.
type BatchCmd struct {
	Root      string `arg:"" optional:"" default:"." type:"existingdir" help:"Directory to scan"`
	OutputDir string `short:"o" type:"path" help:"Write results under this directory instead of in place"`
	OpFlags
}

// Run executes the batch command.
func (c *BatchCmd) Run(rt *Runtime) error {
	op, err := c.operation(rt.Config)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-osSignalChannel():
			cancel()
		case <-ctx.Done():
		}
	}()

	var extra []string
	if c.OutputDir != "" {
		if rel, err := filepath.Rel(c.Root, c.OutputDir); err == nil && !strings.HasPrefix(rel, "..") {
			extra = append(extra, filepath.ToSlash(rel)+"/")
		}
	}
	files, err := workspace.NewWalker(extra...).Walk(c.Root)
	if err != nil {
		return fmt.Errorf("walking %s: %w", c.Root, err)
	}
	if len(files) == 0 {
		fmt.Fprintln(rt.Out, "No skeleton files found")
		return nil
	}

	store := rt.openStore(false)
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	opts := []workspace.PipelineOption{
		workspace.WithConcurrency(rt.Config.Workspace.Concurrency),
		workspace.WithOutputDir(c.OutputDir),
		workspace.WithEditorOptions(rt.editorOptions()...),
		workspace.WithLogger(rt.Log),
		workspace.WithProgress(func(done, total int, path string) {
			fmt.Fprintf(rt.Err, "\r\033[K[%d/%d] %s", done, total, path)
		}),
	}
	if store != nil {
		opts = append(opts, workspace.WithStore(store))
	}

	result, err := workspace.NewPipeline(opts...).Run(ctx, files, op)
	fmt.Fprintln(rt.Err)
	if err != nil {
		return fmt.Errorf("running batch: %w", err)
	}

	for _, f := range result.Files {
		if f.Err != nil {
			color.New(color.FgRed).Fprintf(rt.Out, "✗ %s: %v\n", f.Entry.RelPath, f.Err)
		}
	}
	color.New(color.FgGreen).Fprintf(rt.Out, "✓ %s complete\n", op.Name)
	fmt.Fprintf(rt.Out, "  Files:     %d\n", len(result.Files))
	fmt.Fprintf(rt.Out, "  Changed:   %d\n", result.Changed)
	fmt.Fprintf(rt.Out, "  Failed:    %d\n", result.Failed)
	fmt.Fprintf(rt.Out, "  Duration:  %.2fs\n", result.DurationSecs)

	if result.Failed > 0 {
		return fmt.Errorf("%d file(s) failed", result.Failed)
	}
	return nil
}

// WatchCmd re-applies an operation whenever a skeleton changes.
type WatchCmd struct {
	Root string `arg:"" optional:"" default:"." type:"existingdir" help:"Directory to watch"`
	OpFlags
}

// Run executes the watch command.
func (c *WatchCmd) Run(rt *Runtime) error {
	op, err := c.operation(rt.Config)
	if err != nil {
		return err
	}

	store := rt.openStore(false)
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	opts := []workspace.PipelineOption{
		workspace.WithEditorOptions(rt.editorOptions()...),
		workspace.WithLogger(rt.Log),
	}
	if store != nil {
		opts = append(opts, workspace.WithStore(store))
	}
	w := workspace.NewWatcher(workspace.NewPipeline(opts...), nil, rt.Config.Workspace.Debounce)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle Ctrl+C
	go func() {
		select {
		case <-osSignalChannel():
			fmt.Fprintln(rt.Out, "\nStopping watch mode...")
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Fprintf(rt.Out, "Watching %s (%s, Ctrl+C to stop)\n", c.Root, op.Name)
	err = w.Watch(ctx, c.Root, op)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch error: %w", err)
	}
	fmt.Fprintln(rt.Out, "Watch mode stopped.")
	return nil
}

// HistoryCmd shows or clears the edit history.
type HistoryCmd struct {
	Path  string `arg:"" optional:"" help:"Only show edits of this file"`
	Clear bool   `help:"Delete the edits of the given file"`
	Limit int    `short:"n" default:"20" help:"Maximum entries (0 for all)"`
}

// Run executes the history command.
func (c *HistoryCmd) Run(rt *Runtime) error {
	source := ""
	if c.Path != "" {
		abs, err := filepath.Abs(c.Path)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}
		source = abs
	}
	if c.Clear && source == "" {
		return fmt.Errorf("--clear needs a file path")
	}

	if !rt.Config.Storage.InMemory {
		if _, err := os.Stat(rt.Config.Storage.Path); os.IsNotExist(err) {
			fmt.Fprintln(rt.Out, "No edits recorded")
			return nil
		}
	}

	store, err := storage.Open(rt.Config.Storage, !c.Clear)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if c.Clear {
		n, err := store.DeleteEdits(ctx, source)
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(rt.Out, "Deleted %d edit(s) of %s\n", n, source)
		return nil
	}

	recs, err := store.ListEdits(ctx, source)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(rt.Out, "No edits recorded")
		return nil
	}
	if c.Limit > 0 && len(recs) > c.Limit {
		recs = recs[:c.Limit]
	}
	for _, r := range recs {
		color.New(color.FgCyan).Fprintf(rt.Out, "%s ", r.CreatedAt.Local().Format(time.DateTime))
		fmt.Fprintf(rt.Out, "%-17s %s", r.Operation, r.Source)
		if len(r.Args) > 0 {
			fmt.Fprintf(rt.Out, " [%s]", strings.Join(r.Args, ", "))
		}
		if r.Output != "" {
			fmt.Fprintf(rt.Out, " → %s", r.Output)
		}
		fmt.Fprintln(rt.Out)
		if len(r.RemovedSlots) > 0 {
			fmt.Fprintf(rt.Out, "    slots: %s\n", strings.Join(r.RemovedSlots, ", "))
		}
		if len(r.RemovedAttachments) > 0 {
			fmt.Fprintf(rt.Out, "    attachments: %s\n", strings.Join(r.RemovedAttachments, ", "))
		}
	}
	return nil
}

// MCPCmd starts the MCP server over stdio.
type MCPCmd struct{}

// Run executes the mcp command.
func (c *MCPCmd) Run(rt *Runtime) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-osSignalChannel():
			cancel()
		case <-ctx.Done():
		}
	}()

	opts := []mcp.Option{
		mcp.WithSessionCacheSize(rt.Config.MCP.SessionCacheSize),
		mcp.WithStrict(rt.Config.Editor.Strict),
		mcp.WithEditorOptions(
			editor.WithImagesFolder(rt.Config.Editor.ImagesFolder),
			editor.WithIndent(rt.Config.Editor.Indent),
		),
		mcp.WithLogger(rt.Log),
	}

	// Note: No output to stdout - MCP server uses stdio for JSON-RPC only
	var server *mcp.Server
	if store := rt.openStore(false); store != nil {
		defer func() { _ = store.Close() }()
		server = mcp.NewServer(store, opts...)
	} else {
		server = mcp.NewServer(nil, opts...)
	}

	err := server.Run(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// VersionCmd prints the version.
type VersionCmd struct{}

// Run executes the version command.
func (c *VersionCmd) Run(rt *Runtime) error {
	fmt.Fprintf(rt.Out, "spine-editor %s\n", Version)
	return nil
}

// Helper functions

// osSignalChannel returns a channel that receives OS signals for graceful shutdown.
func osSignalChannel() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}

// CLI is the root Kong command structure.
type CLI struct {
	ConfigFile string `name:"config" short:"c" type:"path" help:"Config file (default ./spine-editor.yaml)"`
	LogLevel   string `name:"log-level" help:"Override the configured log level (debug, info, warn, error)"`

	// Commands
	Clean           CleanCmd           `cmd:"" help:"Remove slots and attachments that are never visible"`
	EraseAnimations EraseAnimationsCmd `cmd:"" name:"erase-animations" help:"Erase animations and clean what they alone used"`
	EraseSkins      EraseSkinsCmd      `cmd:"" name:"erase-skins" help:"Erase skins and clean what they alone used"`
	Scale           ScaleCmd           `cmd:"" help:"Scale the skeleton"`
	Convert         ConvertCmd         `cmd:"" help:"Rewrite the skeleton for another format version"`
	Images          ImagesCmd          `cmd:"" help:"List referenced image files"`
	Validate        ValidateCmd        `cmd:"" help:"Check the skeleton structure"`
	Order           OrderCmd           `cmd:"" help:"Print the structure in dependency order"`
	Paths           PathsCmd           `cmd:"" help:"Enumerate paths between two structure nodes"`
	Batch           BatchCmd           `cmd:"" help:"Apply an operation to every skeleton under a directory"`
	Watch           WatchCmd           `cmd:"" help:"Re-apply an operation whenever a skeleton changes"`
	History         HistoryCmd         `cmd:"" help:"Show or clear the edit history"`
	MCP             MCPCmd             `cmd:"" name:"mcp" help:"Start MCP server (stdio transport)"`
	Version         VersionCmd         `cmd:"" help:"Show version information"`

	out io.Writer `kong:"-"`
	err io.Writer `kong:"-"`
}

// NewCLI creates a new CLI instance writing to stdout and stderr.
func NewCLI() *CLI {
	return &CLI{out: os.Stdout, err: os.Stderr}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("spine-editor"),
		kong.Description("Clean, trim and inspect Spine skeleton JSON files"),
		kong.UsageOnError(),
		kong.Writers(c.out, c.err),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.ConfigFile)
	if err != nil {
		return err
	}
	if c.LogLevel != "" {
		cfg.Logger.Level = c.LogLevel
	}

	observability.InitializeLogger(cfg.Logger)
	defer observability.Sync()

	return kongCtx.Run(&Runtime{
		Config: cfg,
		Log:    observability.GetLogger(),
		Out:    c.out,
		Err:    c.err,
	})
}
