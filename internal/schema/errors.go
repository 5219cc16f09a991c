package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic error checking via errors.Is().
var (
	// ErrSchemaMismatch indicates a record carried fields its kind does not declare.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrMissingRequired indicates a record lacked a field its kind requires.
	ErrMissingRequired = errors.New("missing required field")

	// ErrInvalidVersion indicates a version string that is not int.int[.int].
	ErrInvalidVersion = errors.New("invalid version")

	// ErrUnknownAttachmentType indicates a skin attachment with an unsupported "type".
	ErrUnknownAttachmentType = errors.New("unknown attachment type")

	// ErrMalformedDocument indicates JSON that does not have the shape of a skeleton document.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrInvalidTag indicates a malformed, repeated or unsupported name tag.
	ErrInvalidTag = errors.New("invalid name tag")
)

// MismatchError names the undeclared fields supplied to a record kind.
// Wraps ErrSchemaMismatch for errors.Is() compatibility.
type MismatchError struct {
	Kind   string
	Fields []string
}

func (e *MismatchError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: fields [%s] are not supported in %s",
		ErrSchemaMismatch.Error(), strings.Join(e.Fields, ", "), e.Kind)
}

func (e *MismatchError) Unwrap() error { return ErrSchemaMismatch }
