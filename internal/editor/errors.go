package editor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is wrapped by NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrDanglingLinkedMesh is returned when a linked mesh points at a skin
	// being erased that does not hold its parent mesh.
	ErrDanglingLinkedMesh = errors.New("linked mesh parent not found")
)

// NotFoundError names the animations or skins that could not be found.
type NotFoundError struct {
	What  string
	Names []string
}

func (e *NotFoundError) Error() string {
	quoted := make([]string, len(e.Names))
	for i, n := range e.Names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return fmt.Sprintf("%s %s could not be found", e.What, strings.Join(quoted, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
