package workspace

import (
	"strconv"

	"github.com/Benny93/spine-editor/internal/editor"
	"github.com/Benny93/spine-editor/internal/schema"
)

// Operation is an edit applied to one editor session.
type Operation struct {
	// Name is recorded in the edit history.
	Name string

	// Args are recorded alongside Name.
	Args []string

	Apply func(e *editor.Editor) (editor.Report, error)
}

// Clean returns the clean operation.
func Clean() Operation {
	return Operation{
		Name:  "clean",
		Apply: func(e *editor.Editor) (editor.Report, error) { return e.Clean() },
	}
}

// EraseAnimations returns an operation erasing the named animations.
func EraseAnimations(names []string, opts editor.EraseOptions) Operation {
	return Operation{
		Name: "erase-animations",
		Args: names,
		Apply: func(e *editor.Editor) (editor.Report, error) {
			return e.EraseAnimations(names, opts)
		},
	}
}

// EraseSkins returns an operation erasing the named skins.
func EraseSkins(names []string, opts editor.EraseOptions) Operation {
	return Operation{
		Name: "erase-skins",
		Args: names,
		Apply: func(e *editor.Editor) (editor.Report, error) {
			return e.EraseSkins(names, opts)
		},
	}
}

// Scale returns an operation scaling the skeleton by sx, sy.
func Scale(sx, sy float64) Operation {
	return Operation{
		Name: "scale",
		Args: []string{formatFloat(sx), formatFloat(sy)},
		Apply: func(e *editor.Editor) (editor.Report, error) {
			e.Scale(sx, sy)
			return editor.Report{}, nil
		},
	}
}

// Convert returns an operation rewriting the skeleton for version to.
func Convert(to schema.Version) Operation {
	return Operation{
		Name: "convert",
		Args: []string{to.String()},
		Apply: func(e *editor.Editor) (editor.Report, error) {
			e.Convert(to)
			return editor.Report{}, nil
		},
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
