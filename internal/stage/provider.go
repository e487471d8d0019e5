// Package stage defines the contract between the pipeline engine and the
// stage providers that implement the individual pipeline steps.
package stage

import (
	"context"

	"go.flow.arcalot.io/pluginsdk/schema"
)

// Outputs holds the values a finished stage reports for the run log.
type Outputs map[string]any

// Provider implements one stage kind.
type Provider interface {
	// Kind returns the identifier that uniquely identifies this provider,
	// e.g. "publish".
	Kind() string

	// InputSchema describes the fields of the stage's literal input block.
	// The engine validates the input against this schema before Load is
	// called.
	InputSchema() map[string]*schema.PropertySchema

	// Load binds the validated input and the run environment into a
	// runnable stage.
	Load(input map[string]any, env *Environment) (Runnable, error)
}

// Runnable is a stage that has been bound to its input and is ready to run.
type Runnable interface {
	// Run executes the stage. A non-nil error aborts the remaining
	// pipeline.
	Run(ctx context.Context) (Outputs, error)
}

// Registry holds the providers for possible stages in pipelines.
type Registry interface {
	// GetByKind returns a provider by its kind value.
	GetByKind(kind string) (Provider, error)
	// SchemaByKind returns the input object schema of a single provider.
	SchemaByKind(kind string) (schema.Object, error)
	// List returns a map of all stage providers mapped by their kind
	// values.
	List() map[string]Provider
}
