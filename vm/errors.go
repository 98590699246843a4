package vm

import (
	"errors"
	"fmt"
)

var (
	ErrRootNotFound    = errors.New("signalbind: root element not found")
	ErrElementNotFound = errors.New("signalbind: element not found")
)

// ConfigurationError reports invalid Options.
type ConfigurationError struct {
	Option string
	Value  string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("signalbind: invalid %s %q: %v", e.Option, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
