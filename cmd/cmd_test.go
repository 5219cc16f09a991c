package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Benny93/spine-editor/internal/config"
	"github.com/Benny93/spine-editor/internal/editor"
	"github.com/Benny93/spine-editor/internal/storage"
)

// newRuntime returns a runtime whose history lives in a temp dir.
func newRuntime(t *testing.T) (*Runtime, *bytes.Buffer) {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "history")

	var out bytes.Buffer
	return &Runtime{Config: cfg, Log: zap.NewNop(), Out: &out, Err: &bytes.Buffer{}}, &out
}

// heroFile copies the fixture into dir and returns its path.
func heroFile(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "hero.json"))
	require.NoError(t, err)
	path := filepath.Join(dir, "hero.json")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func history(t *testing.T, rt *Runtime, source string) []*storage.EditRecord {
	t.Helper()
	store, err := storage.Open(rt.Config.Storage, true)
	require.NoError(t, err)
	defer store.Close()

	recs, err := store.ListEdits(context.Background(), source)
	require.NoError(t, err)
	return recs
}

func TestCleanCmd_Run(t *testing.T) {
	t.Parallel()

	rt, out := newRuntime(t)
	path := heroFile(t, t.TempDir())

	cmd := &CleanCmd{EditFlags{Path: path}}
	require.NoError(t, cmd.Run(rt))

	assert.Contains(t, out.String(), "✓ clean → "+path)
	assert.Contains(t, out.String(), "Removed slots:")
	assert.Contains(t, out.String(), "ghost")

	e, err := editor.OpenFile(path)
	require.NoError(t, err)
	for _, slot := range e.Document().Slots() {
		assert.NotEqual(t, "ghost", slot.Str("name"))
	}

	recs := history(t, rt, path)
	require.Len(t, recs, 1)
	assert.Equal(t, "clean", recs[0].Operation)
	assert.Equal(t, []string{"ghost"}, recs[0].RemovedSlots)
	assert.Empty(t, recs[0].Output)
}

func TestEraseAnimationsCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("Output", func(t *testing.T) {
		rt, out := newRuntime(t)
		path := heroFile(t, t.TempDir())
		output := filepath.Join(t.TempDir(), "trimmed.json")

		cmd := &EraseAnimationsCmd{EditFlags: EditFlags{Path: path, Output: output}, Names: []string{"idle"}}
		require.NoError(t, cmd.Run(rt))
		assert.Contains(t, out.String(), "Erased:")

		e, err := editor.OpenFile(output)
		require.NoError(t, err)
		assert.False(t, e.Document().Animations().Has("idle"))

		recs := history(t, rt, path)
		require.Len(t, recs, 1)
		assert.Equal(t, output, recs[0].Output)
		assert.Equal(t, []string{"idle"}, recs[0].Args)
	})

	t.Run("StrictMissing", func(t *testing.T) {
		rt, _ := newRuntime(t)
		path := heroFile(t, t.TempDir())

		cmd := &EraseAnimationsCmd{EditFlags: EditFlags{Path: path}, Names: []string{"dance"}}
		err := cmd.Run(rt)
		assert.ErrorIs(t, err, editor.ErrNotFound)
	})

	t.Run("LenientMissing", func(t *testing.T) {
		rt, out := newRuntime(t)
		path := heroFile(t, t.TempDir())

		cmd := &EraseAnimationsCmd{
			EditFlags:  EditFlags{Path: path},
			Names:      []string{"dance"},
			EraseFlags: EraseFlags{Lenient: true, Safe: true},
		}
		require.NoError(t, cmd.Run(rt))
		assert.Contains(t, out.String(), "Missing:")
		assert.Contains(t, out.String(), "dance")
	})
}

func TestEraseFlags_Options(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	lenientCfg := config.Default()
	lenientCfg.Editor.Strict = false
	lenientCfg.Editor.SafeMode = true

	tests := []struct {
		name  string
		flags EraseFlags
		cfg   *config.Config
		want  editor.EraseOptions
	}{
		{"Defaults", EraseFlags{}, cfg, editor.EraseOptions{Strict: true}},
		{"Lenient", EraseFlags{Lenient: true}, cfg, editor.EraseOptions{}},
		{"Safe", EraseFlags{Safe: true}, cfg, editor.EraseOptions{Strict: true, Safe: true}},
		{"ConfigLenient", EraseFlags{}, lenientCfg, editor.EraseOptions{Safe: true}},
		{"StrictOverridesConfig", EraseFlags{Strict: true}, lenientCfg, editor.EraseOptions{Strict: true, Safe: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.flags.options(tt.cfg))
		})
	}
}

func TestScaleCmd_Run(t *testing.T) {
	t.Parallel()

	rt, _ := newRuntime(t)
	path := heroFile(t, t.TempDir())

	require.NoError(t, (&ScaleCmd{EditFlags: EditFlags{Path: path}, X: 2}).Run(rt))

	e, err := editor.OpenFile(path)
	require.NoError(t, err)
	sy, ok := e.Document().Bones()[0].Num("scaleY")
	require.True(t, ok)
	assert.Equal(t, 2.0, sy)

	assert.Error(t, (&ScaleCmd{EditFlags: EditFlags{Path: path}}).Run(rt))
}

func TestConvertCmd_Run(t *testing.T) {
	t.Parallel()

	rt, _ := newRuntime(t)
	path := heroFile(t, t.TempDir())

	require.NoError(t, (&ConvertCmd{EditFlags: EditFlags{Path: path}, To: "3.7.94"}).Run(rt))
	e, err := editor.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, "3.7.94", e.Version().String())

	assert.Error(t, (&ConvertCmd{EditFlags: EditFlags{Path: path}, To: "latest"}).Run(rt))
}

func TestImagesCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("Stdout", func(t *testing.T) {
		rt, out := newRuntime(t)
		path := heroFile(t, t.TempDir())

		require.NoError(t, (&ImagesCmd{Path: path}).Run(rt))
		assert.Contains(t, out.String(), `"./assets/arm"`)
	})

	t.Run("File", func(t *testing.T) {
		rt, out := newRuntime(t)
		path := heroFile(t, t.TempDir())
		output := filepath.Join(t.TempDir(), "images.json")

		require.NoError(t, (&ImagesCmd{Path: path, Output: output}).Run(rt))
		assert.Contains(t, out.String(), "image(s) → "+output)

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"./assets/arm"`)
	})
}

func TestInspectCmds_Run(t *testing.T) {
	t.Parallel()

	path := heroFile(t, t.TempDir())

	t.Run("Validate", func(t *testing.T) {
		rt, out := newRuntime(t)
		require.NoError(t, (&ValidateCmd{Path: path}).Run(rt))
		assert.Contains(t, out.String(), "is valid (spine 3.8.99)")
	})

	t.Run("Order", func(t *testing.T) {
		rt, out := newRuntime(t)
		require.NoError(t, (&OrderCmd{Path: path}).Run(rt))
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		assert.Equal(t, "root_BONE", lines[0])
		assert.Contains(t, lines, "body_SLOT")
	})

	t.Run("Paths", func(t *testing.T) {
		rt, out := newRuntime(t)
		require.NoError(t, (&PathsCmd{Path: path, From: "root_BONE", To: "body_SLOT"}).Run(rt))
		assert.Equal(t, "root_BONE → body_BONE → body_SLOT\n", out.String())
	})

	t.Run("PathsUnknownNode", func(t *testing.T) {
		rt, _ := newRuntime(t)
		assert.Error(t, (&PathsCmd{Path: path, From: "root_BONE", To: "nope_SLOT"}).Run(rt))
	})

	t.Run("MissingFile", func(t *testing.T) {
		rt, _ := newRuntime(t)
		err := (&ValidateCmd{Path: filepath.Join(t.TempDir(), "none.json")}).Run(rt)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestBatchCmd_Run(t *testing.T) {
	t.Parallel()

	rt, out := newRuntime(t)
	root := t.TempDir()
	heroFile(t, root)
	heroFile(t, filepath.Join(root, "chars"))
	outputDir := filepath.Join(root, "out")

	cmd := &BatchCmd{Root: root, OutputDir: outputDir, OpFlags: OpFlags{Op: "clean"}}
	require.NoError(t, cmd.Run(rt))

	assert.Contains(t, out.String(), "Files:     2")
	assert.Contains(t, out.String(), "Changed:   2")
	assert.FileExists(t, filepath.Join(outputDir, "hero.json"))
	assert.FileExists(t, filepath.Join(outputDir, "chars", "hero.json"))
	assert.Len(t, history(t, rt, ""), 2)

	t.Run("RerunSkipsOutputDir", func(t *testing.T) {
		rt, out := newRuntime(t)
		require.NoError(t, cmd.Run(rt))
		assert.Contains(t, out.String(), "Files:     2")
	})
}

func TestOpFlags_Operation(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	tests := []struct {
		name    string
		flags   OpFlags
		want    string
		wantErr bool
	}{
		{"Clean", OpFlags{Op: "clean"}, "clean", false},
		{"EraseAnimations", OpFlags{Op: "erase-animations", Names: []string{"idle"}}, "erase-animations", false},
		{"EraseSkinsNeedsNames", OpFlags{Op: "erase-skins"}, "", true},
		{"Scale", OpFlags{Op: "scale", Factor: 0.5}, "scale", false},
		{"ScaleZero", OpFlags{Op: "scale"}, "", true},
		{"Unknown", OpFlags{Op: "explode"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			op, err := tt.flags.operation(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, op.Name)
		})
	}
}

func TestHistoryCmd_Run(t *testing.T) {
	t.Parallel()

	rt, out := newRuntime(t)
	path := heroFile(t, t.TempDir())

	require.NoError(t, (&HistoryCmd{}).Run(rt))
	assert.Contains(t, out.String(), "No edits recorded")

	require.NoError(t, (&CleanCmd{EditFlags{Path: path}}).Run(rt))
	out.Reset()

	require.NoError(t, (&HistoryCmd{Path: path}).Run(rt))
	assert.Contains(t, out.String(), "clean")
	assert.Contains(t, out.String(), "slots: ghost")

	t.Run("Clear", func(t *testing.T) {
		out.Reset()
		require.NoError(t, (&HistoryCmd{Path: path, Clear: true}).Run(rt))
		assert.Contains(t, out.String(), "Deleted 1 edit(s)")
		assert.Empty(t, history(t, rt, path))
	})

	t.Run("ClearNeedsPath", func(t *testing.T) {
		assert.Error(t, (&HistoryCmd{Clear: true}).Run(rt))
	})
}

func TestVersionCmd_Run(t *testing.T) {
	t.Parallel()

	rt, out := newRuntime(t)
	require.NoError(t, (&VersionCmd{}).Run(rt))
	assert.Equal(t, "spine-editor "+Version+"\n", out.String())
}

func TestCLI_Execute(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := heroFile(t, dir)
	cfgPath := filepath.Join(dir, "spine-editor.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"storage:\n  path: "+filepath.ToSlash(filepath.Join(dir, "history"))+"\nlogger:\n  level: error\n",
	), 0o644))

	run := func(args ...string) (string, error) {
		var out, errOut bytes.Buffer
		cli := &CLI{out: &out, err: &errOut}
		err := cli.Execute(append([]string{"--config", cfgPath}, args...))
		return out.String(), err
	}

	t.Run("Validate", func(t *testing.T) {
		out, err := run("validate", path)
		require.NoError(t, err)
		assert.Contains(t, out, "is valid")
	})

	t.Run("EraseSkins", func(t *testing.T) {
		output := filepath.Join(dir, "out.json")
		out, err := run("erase-skins", path, "winter", "--output", output)
		require.NoError(t, err)
		assert.Contains(t, out, "✓ erase-skins → "+output)
	})

	t.Run("UnknownCommand", func(t *testing.T) {
		_, err := run("explode")
		assert.Error(t, err)
	})

	t.Run("MissingConfig", func(t *testing.T) {
		var out bytes.Buffer
		cli := &CLI{out: &out, err: &out}
		err := cli.Execute([]string{"--config", filepath.Join(dir, "none.yaml"), "version"})
		assert.Error(t, err)
	})
}
