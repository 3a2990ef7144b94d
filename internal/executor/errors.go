package executor

import (
	"fmt"
	"strconv"
)

// Path addresses a position in the response tree from the data root.
// Elements are response keys (string) or list indices (int).
type Path []PathElement

type PathElement any

// Child returns a copy of the path extended by elem.
func (p Path) Child(elem PathElement) Path {
	next := make(Path, len(p)+1)
	copy(next, p)
	next[len(p)] = elem
	return next
}

// String renders the path in dotted notation, e.g. "a.items[2].name".
func (p Path) String() string {
	out := ""
	for i, elem := range p {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				out += "."
			}
			out += v
		case int:
			out += "[" + strconv.Itoa(v) + "]"
		}
	}
	return out
}

// ErrorKind classifies engine errors.
type ErrorKind string

const (
	// KindDocumentShape: zero or multiple operations, or a subscription.
	KindDocumentShape ErrorKind = "DOCUMENT_SHAPE"
	// KindCoercion: a value does not satisfy its declared type.
	KindCoercion ErrorKind = "COERCION"
	// KindFieldResolution: the server reported a field error.
	KindFieldResolution ErrorKind = "FIELD_RESOLUTION"
	// KindNonNullViolation: a non-null field resolved to null.
	KindNonNullViolation ErrorKind = "NON_NULL_VIOLATION"
	// KindAbstractTypeResolution: missing/unknown/non-conforming discriminator.
	KindAbstractTypeResolution ErrorKind = "ABSTRACT_TYPE_RESOLUTION"
	// KindListShape: expected an array, got something else.
	KindListShape ErrorKind = "LIST_SHAPE"
	// KindProtocol: malformed or out-of-order incremental chunk.
	KindProtocol ErrorKind = "PROTOCOL"
)

// Error is a located engine error.
type Error struct {
	Kind       ErrorKind      `json:"-"`
	Message    string         `json:"message"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s (at %s)", e.Message, e.Path)
	}
	return e.Message
}

// Errorf builds a located error of the given kind.
func Errorf(kind ErrorKind, path Path, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Path: path}
}

// Result is one publishable snapshot of an in-progress response.
type Result struct {
	Data       any            `json:"data"`
	Errors     []*Error       `json:"errors,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}
