package driver

import "fmt"

// TypeError reports a semantic failure raised while resolving or
// dispatching a comparison (spec.md §4.4's "error" outcomes: "Cannot
// compare two constants", unsupported ordered list comparison, type
// mismatch between the two sides, and so on).
type TypeError struct {
	Message string
}

func (e *TypeError) Error() string { return e.Message }

// UnknownProperty reports that a path segment or terminal identifier did
// not resolve to any column on Table, per spec.md §7's distinct
// UnknownProperty error kind.
type UnknownProperty struct {
	Property string
	Table    string
}

func (e *UnknownProperty) Error() string {
	return fmt.Sprintf("no property %q on object of type %q", e.Property, e.Table)
}

// ArgumentError reports a failure resolving a "$N" argument placeholder:
// an out-of-range index or a value the declared type cannot produce,
// per spec.md §7's distinct ArgumentError error kind.
type ArgumentError struct {
	Index   int
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument $%d: %s", e.Index, e.Message)
}
