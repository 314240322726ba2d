package model

import "fmt"

// SetupError reports a fatal construction or parameter-update problem:
// malformed mesh, incompatible spaces, or a mismatched parameter vector.
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup: %s: %v", e.Op, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// DimensionError reports mismatched shapes between the operator and the
// excitation/extraction data, checked eagerly before any solve.
type DimensionError struct {
	What      string
	Got, Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch in %s: have %d, want %d", e.What, e.Got, e.Want)
}

func setupErr(op string, format string, a ...interface{}) error {
	return &SetupError{Op: op, Err: fmt.Errorf(format, a...)}
}
