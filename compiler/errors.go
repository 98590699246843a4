package compiler

import "fmt"

// BindingError reports a binding site whose field could not be resolved.
type BindingError struct {
	Kind Kind
	Key  string
	Path string
	Err  error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("signalbind: %s binding %q at %s: %v", e.Kind, e.Key, e.Path, e.Err)
}

func (e *BindingError) Unwrap() error {
	return e.Err
}
