// Package deckhand implements the pipeline engine. It loads a pipeline
// document, validates its stages and artifact references, and executes the
// stages strictly sequentially against a workspace directory.
package deckhand

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	log "go.arcalot.io/log/v2"

	"github.com/deckhand-ci/deckhand/config"
	"github.com/deckhand-ci/deckhand/internal/artifact"
	"github.com/deckhand-ci/deckhand/internal/gitref"
	"github.com/deckhand-ci/deckhand/internal/stage"
	"github.com/deckhand-ci/deckhand/pipeline"
)

// Status describes the outcome of a single stage in a run report.
type Status string

const (
	// StatusSucceeded marks a stage that ran and finished without error.
	StatusSucceeded Status = "succeeded"
	// StatusSkipped marks a stage skipped by its branch guard.
	StatusSkipped Status = "skipped"
	// StatusFailed marks the stage whose error aborted the run.
	StatusFailed Status = "failed"
)

// StageResult is the per-stage entry of a run report.
type StageResult struct {
	// ID is the stage identifier from the pipeline document.
	ID string `json:"id" yaml:"id"`
	// Kind is the stage provider that ran.
	Kind string `json:"kind" yaml:"kind"`
	// Status is the stage outcome.
	Status Status `json:"status" yaml:"status"`
	// Outputs holds the values the stage reported. Nil for skipped and
	// failed stages.
	Outputs stage.Outputs `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	// Error holds the failure message of a failed stage.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result is the report of a pipeline run.
type Result struct {
	// Pipeline is the name from the pipeline document.
	Pipeline string `json:"pipeline" yaml:"pipeline"`
	// Ref is the push reference the run was started for.
	Ref string `json:"ref" yaml:"ref"`
	// Branch is the bare branch name of the reference.
	Branch string `json:"branch" yaml:"branch"`
	// SHA is the commit the push points at.
	SHA string `json:"sha" yaml:"sha"`
	// Triggered reports whether the reference matched the pipeline trigger.
	// An untriggered run executes no stages and is not an error.
	Triggered bool `json:"triggered" yaml:"triggered"`
	// Stages lists the per-stage outcomes in execution order.
	Stages []StageResult `json:"stages" yaml:"stages"`
}

// PipelineEngine is responsible for executing deployment pipelines and
// returning their run report.
type PipelineEngine interface {
	// RunPipeline executes a pipeline from the passed context files. One of
	// the files must be designated as the pipeline file, which is parsed
	// from the YAML format. The workspace directory is where stages operate
	// and exchange artifacts; the push reference selects the trigger and
	// drives the branch guards. A failed stage aborts the run, and both the
	// partial report and the failure are returned.
	RunPipeline(
		ctx context.Context,
		files map[string][]byte,
		pipelineFileName string,
		workDir string,
		ref gitref.Ref,
	) (*Result, error)
}

type pipelineEngine struct {
	logger        log.Logger
	stageRegistry stage.Registry
	config        *config.Config
}

func (e pipelineEngine) RunPipeline(
	ctx context.Context,
	files map[string][]byte,
	pipelineFileName string,
	workDir string,
	ref gitref.Ref,
) (*Result, error) {
	p, err := e.loadPipeline(pipelineFileName, files)
	if err != nil {
		return nil, err
	}

	// Validate stage kinds and inputs before anything runs, so a mistyped
	// late stage cannot abort a half-deployed run.
	inputs, err := e.validateStages(p)
	if err != nil {
		return nil, err
	}
	if _, err := buildArtifactGraph(p.Stages); err != nil {
		return nil, err
	}

	result := &Result{
		Pipeline: p.Name,
		Ref:      ref.Name,
		Branch:   ref.Branch(),
		SHA:      ref.SHA,
	}
	if !p.Trigger.Matches(ref.Name) {
		e.logger.Infof("Reference %s does not match the pipeline trigger, not running.", ref.Name)
		return result, nil
	}
	result.Triggered = true

	fs := osfs.New(workDir)
	artifacts := artifact.NewStore(fs, e.logger)

	for _, s := range p.Stages {
		if s.SkippedFor(ref.Name) {
			e.logger.Infof("Skipping stage %s on branch %s.", s.ID, ref.Branch())
			for _, produced := range s.Produces {
				artifacts.RegisterSkipped(produced, s.ID)
			}
			result.Stages = append(result.Stages, StageResult{
				ID:     s.ID,
				Kind:   s.Kind,
				Status: StatusSkipped,
			})
			continue
		}

		e.logger.Infof("Starting stage %s...", s.ID)
		outputs, err := e.runStage(ctx, s, inputs[s.ID], fs, workDir, ref, artifacts)
		if err != nil {
			stageErr := &ErrStageFailed{StageID: s.ID, Cause: err}
			e.logger.Errorf("Stage %s failed (%v), aborting the run.", s.ID, err)
			result.Stages = append(result.Stages, StageResult{
				ID:     s.ID,
				Kind:   s.Kind,
				Status: StatusFailed,
				Error:  err.Error(),
			})
			return result, stageErr
		}
		e.logger.Infof("Stage %s has finished.", s.ID)
		result.Stages = append(result.Stages, StageResult{
			ID:      s.ID,
			Kind:    s.Kind,
			Status:  StatusSucceeded,
			Outputs: outputs,
		})
	}
	return result, nil
}

func (e pipelineEngine) runStage(
	ctx context.Context,
	s *pipeline.Stage,
	input map[string]any,
	fs billy.Filesystem,
	workDir string,
	ref gitref.Ref,
	artifacts *artifact.Store,
) (stage.Outputs, error) {
	if err := artifacts.Verify(s.ID, s.Needs); err != nil {
		return nil, err
	}
	provider, err := e.stageRegistry.GetByKind(s.Kind)
	if err != nil {
		return nil, err
	}
	env := &stage.Environment{
		Logger:    e.logger.WithLabel("stage", s.ID),
		FS:        fs,
		WorkDir:   workDir,
		Ref:       ref,
		Artifacts: artifacts,
	}
	runnable, err := provider.Load(input, env)
	if err != nil {
		return nil, err
	}
	outputs, err := runnable.Run(ctx)
	if err != nil {
		return nil, err
	}
	for _, produced := range s.Produces {
		if err := artifacts.Register(produced, s.ID); err != nil {
			return nil, err
		}
	}
	return outputs, nil
}

// validateStages checks every stage's kind against the registry and its
// input block against the provider's input schema. It returns the
// unserialized input per stage ID.
func (e pipelineEngine) validateStages(p *pipeline.Pipeline) (map[string]map[string]any, error) {
	inputs := make(map[string]map[string]any, len(p.Stages))
	for _, s := range p.Stages {
		inputSchema, err := e.stageRegistry.SchemaByKind(s.Kind)
		if err != nil {
			return nil, err
		}
		unserialized, err := inputSchema.Unserialize(s.With)
		if err != nil {
			return nil, &ErrInvalidStageInput{StageID: s.ID, Cause: err}
		}
		input, err := inputMap(unserialized)
		if err != nil {
			return nil, &ErrInvalidStageInput{StageID: s.ID, Cause: err}
		}
		inputs[s.ID] = input
	}
	return inputs, nil
}

// loadPipeline unserializes the pipeline in accordance with the pipeline
// schema from the context files.
func (e pipelineEngine) loadPipeline(
	pipelineFileName string,
	files map[string][]byte,
) (*pipeline.Pipeline, error) {
	if pipelineFileName == "" {
		pipelineFileName = "pipeline.yaml"
	}
	pipelineContents, ok := files[pipelineFileName]
	if !ok {
		return nil, ErrNoPipelineFile
	}
	return pipeline.FromYAML(pipelineContents)
}

// inputMap normalizes an unserialized input block into a string-keyed map.
func inputMap(value any) (map[string]any, error) {
	switch m := value.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return m, nil
	case map[any]any:
		result := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("input block has a non-string key")
			}
			result[ks] = v
		}
		return result, nil
	default:
		return nil, fmt.Errorf("input block is not a map")
	}
}
