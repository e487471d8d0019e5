package deckhand

import "fmt"

// ErrNoPipelineFile signals that no pipeline file was provided in the context.
var ErrNoPipelineFile = fmt.Errorf("no pipeline file provided in context")

// ErrDuplicateStageID signals that two stages declare the same ID.
type ErrDuplicateStageID struct {
	StageID string
}

// Error returns the error message.
func (e ErrDuplicateStageID) Error() string {
	return fmt.Sprintf("duplicate stage ID: %s", e.StageID)
}

// ErrDuplicateArtifact signals that two stages both declare that they produce
// the same artifact.
type ErrDuplicateArtifact struct {
	Artifact    string
	FirstStage  string
	SecondStage string
}

// Error returns the error message.
func (e ErrDuplicateArtifact) Error() string {
	return fmt.Sprintf(
		"artifact %s is produced by both stage %s and stage %s",
		e.Artifact,
		e.FirstStage,
		e.SecondStage,
	)
}

// ErrUnknownArtifact signals that a stage needs an artifact no stage
// declares.
type ErrUnknownArtifact struct {
	StageID  string
	Artifact string
}

// Error returns the error message.
func (e ErrUnknownArtifact) Error() string {
	return fmt.Sprintf("stage %s needs artifact %s, which no stage produces", e.StageID, e.Artifact)
}

// ErrArtifactOrder signals that a stage needs an artifact whose producer is
// declared after it. Stages run strictly in declared order, so the artifact
// could never exist in time.
type ErrArtifactOrder struct {
	StageID    string
	Artifact   string
	ProducerID string
}

// Error returns the error message.
func (e ErrArtifactOrder) Error() string {
	return fmt.Sprintf(
		"stage %s needs artifact %s, but its producer %s is declared later in the pipeline",
		e.StageID,
		e.Artifact,
		e.ProducerID,
	)
}

// ErrStageFailed signals that a stage failed and aborted the rest of the
// pipeline run.
type ErrStageFailed struct {
	StageID string
	Cause   error
}

// Error returns the error message.
func (e ErrStageFailed) Error() string {
	return fmt.Sprintf("stage %s failed (%v)", e.StageID, e.Cause)
}

// Unwrap returns the underlying stage error.
func (e ErrStageFailed) Unwrap() error {
	return e.Cause
}

// ErrInvalidStageInput signals that a stage's input block does not match the
// input schema of its provider.
type ErrInvalidStageInput struct {
	StageID string
	Cause   error
}

// Error returns the error message.
func (e ErrInvalidStageInput) Error() string {
	return fmt.Sprintf("invalid input for stage %s (%v)", e.StageID, e.Cause)
}

// Unwrap returns the underlying schema error.
func (e ErrInvalidStageInput) Unwrap() error {
	return e.Cause
}
