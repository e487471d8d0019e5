package stage

import (
	"fmt"
	"strings"
)

// ErrProviderNotFound is an error indicating that a provider kind was not
// found.
type ErrProviderNotFound struct {
	Kind       string
	ValidKinds []string
}

// Error returns the error message.
func (e ErrProviderNotFound) Error() string {
	return fmt.Sprintf(
		"the following stage provider is not supported: %s (only the following providers are supported: %s)",
		e.Kind,
		strings.Join(e.ValidKinds, ", "),
	)
}

// ErrDuplicateProviderKind is an error indicating that two providers tried
// to register the same kind.
type ErrDuplicateProviderKind struct {
	Kind string
}

// Error returns the error message.
func (e ErrDuplicateProviderKind) Error() string {
	return fmt.Sprintf("duplicate stage provider kind: %s", e.Kind)
}
