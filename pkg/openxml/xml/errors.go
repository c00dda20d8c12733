package xml

import (
	"errors"
	"fmt"
)

var (
	// ErrParentNotFound is returned when a child is added under an id that
	// is not a live element.
	ErrParentNotFound = errors.New("xml: parent not found")
	// ErrElementNotFound is returned when an id or path does not resolve to
	// a live element.
	ErrElementNotFound = errors.New("xml: element not found")
	// ErrRootExists is returned by CreateRoot on a document that has a root.
	ErrRootExists = errors.New("xml: root already exists")
	// ErrMalformedXML is the class of every parse failure.
	ErrMalformedXML = errors.New("xml: malformed document")
	// ErrSerializeLoopSafety is returned when the serializer visits more
	// nodes than the tree can hold, or meets a dangling child reference.
	ErrSerializeLoopSafety = errors.New("xml: serializer loop safety exceeded")
)

// SyntaxError describes a parse failure at a byte offset of the input.
// It matches ErrMalformedXML under errors.Is.
type SyntaxError struct {
	Offset  int64
	Message string
	Err     error
}

func (e *SyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("xml: offset %d: %s: %v", e.Offset, e.Message, e.Err)
	}
	return fmt.Sprintf("xml: offset %d: %s", e.Offset, e.Message)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Is reports ErrMalformedXML as a match.
func (e *SyntaxError) Is(target error) bool { return target == ErrMalformedXML }
