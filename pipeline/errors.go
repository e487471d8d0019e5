package pipeline

import "fmt"

// ErrEmptyPipelineFile signals that the pipeline file is empty.
var ErrEmptyPipelineFile = fmt.Errorf("empty pipeline file")

// ErrInvalidPipelineYAML signals that the pipeline file could not be parsed
// as YAML.
type ErrInvalidPipelineYAML struct {
	Cause error
}

// Error returns the error message.
func (e ErrInvalidPipelineYAML) Error() string {
	return fmt.Sprintf("invalid pipeline YAML (%v)", e.Cause)
}

// Unwrap returns the underlying parse error.
func (e ErrInvalidPipelineYAML) Unwrap() error {
	return e.Cause
}

// ErrInvalidPipeline signals that the pipeline document does not match the
// pipeline schema.
type ErrInvalidPipeline struct {
	Cause error
}

// Error returns the error message.
func (e ErrInvalidPipeline) Error() string {
	return fmt.Sprintf("invalid pipeline (%v)", e.Cause)
}

// Unwrap returns the underlying schema error.
func (e ErrInvalidPipeline) Unwrap() error {
	return e.Cause
}
