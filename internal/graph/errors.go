package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error checking via errors.Is().
var (
	// ErrDuplicateNodeID indicates an explicit id that is already in use.
	ErrDuplicateNodeID = errors.New("duplicate node id")

	// ErrUnknownNodeID indicates an id that does not resolve to a node.
	ErrUnknownNodeID = errors.New("unknown node id")

	// ErrSelfEdge indicates an attempt to make a node its own parent or child.
	ErrSelfEdge = errors.New("node cannot be its own parent or child")

	// ErrForbiddenEdge indicates a child whose kind the parent forbids.
	ErrForbiddenEdge = errors.New("child kind is forbidden for this node")

	// ErrGraphInvalid indicates an operation that requires a valid graph.
	ErrGraphInvalid = errors.New("graph is invalid")
)

// InvalidGraphError carries the validation result that blocked an operation.
// Wraps ErrGraphInvalid for errors.Is() compatibility.
type InvalidGraphError struct {
	Result ValidationResult
}

func (e *InvalidGraphError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", ErrGraphInvalid.Error(), e.Result.String())
}

func (e *InvalidGraphError) Unwrap() error { return ErrGraphInvalid }
