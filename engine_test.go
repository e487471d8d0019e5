package deckhand_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.arcalot.io/assert"
	log "go.arcalot.io/log/v2"

	"github.com/deckhand-ci/deckhand"
	"github.com/deckhand-ci/deckhand/config"
	"github.com/deckhand-ci/deckhand/internal/gitref"
	"github.com/deckhand-ci/deckhand/internal/stage/dummy"
	"github.com/deckhand-ci/deckhand/internal/stage/registry"
	"github.com/deckhand-ci/deckhand/pipeline"
)

func createTestEngine(t *testing.T) deckhand.PipelineEngine {
	cfg := config.Default()
	cfg.Log.T = t
	cfg.Log.Level = log.LevelDebug
	cfg.Log.Destination = log.DestinationTest
	stageRegistry, err := registry.New(dummy.New())
	assert.NoError(t, err)
	engine, err := deckhand.New(cfg, stageRegistry)
	assert.NoError(t, err)
	return engine
}

func mainRef() gitref.Ref {
	return gitref.Ref{Name: "refs/heads/main", SHA: "aaaabbbbccccddddeeeeffff0000111122223333"}
}

func TestNoPipelineFile(t *testing.T) {
	_, err := createTestEngine(t).RunPipeline(
		context.Background(),
		map[string][]byte{},
		"",
		t.TempDir(),
		mainRef(),
	)
	assert.Error(t, err)
	if !errors.Is(err, deckhand.ErrNoPipelineFile) {
		t.Fatalf("Incorrect error returned.")
	}
}

func TestEmptyPipelineFile(t *testing.T) {
	_, err := createTestEngine(t).RunPipeline(
		context.Background(),
		map[string][]byte{
			"pipeline.yaml": {},
		},
		"",
		t.TempDir(),
		mainRef(),
	)
	assert.Error(t, err)
	if !errors.Is(err, pipeline.ErrEmptyPipelineFile) {
		t.Fatalf("Incorrect error returned.")
	}
}

func TestRunPipeline(t *testing.T) {
	workDir := t.TempDir()
	result, err := createTestEngine(t).RunPipeline(
		context.Background(),
		map[string][]byte{
			"pipeline.yaml": []byte(`
name: deploy
trigger:
  branches:
    - main
stages:
  - id: greet
    kind: dummy
    produces:
      - greeting.txt
    with:
      message: hello
      write_to: greeting.txt
  - id: consume
    kind: dummy
    needs:
      - greeting.txt
`),
		},
		"",
		workDir,
		mainRef(),
	)
	assert.NoError(t, err)
	assert.Equals(t, result.Triggered, true)
	assert.Equals(t, result.Pipeline, "deploy")
	assert.Equals(t, result.Branch, "main")
	assert.Equals(t, len(result.Stages), 2)
	assert.Equals(t, result.Stages[0].Status, deckhand.StatusSucceeded)
	assert.Equals(t, result.Stages[0].Outputs["message"].(string), "hello")
	assert.Equals(t, result.Stages[1].Status, deckhand.StatusSucceeded)

	written := assert.NoErrorR[[]byte](t)(os.ReadFile(filepath.Join(workDir, "greeting.txt")))
	assert.Equals(t, string(written), "hello")
}

func TestRunPipelineNotTriggered(t *testing.T) {
	result, err := createTestEngine(t).RunPipeline(
		context.Background(),
		map[string][]byte{
			"pipeline.yaml": []byte(`
name: deploy
trigger:
  branches:
    - main
stages:
  - id: greet
    kind: dummy
`),
		},
		"",
		t.TempDir(),
		gitref.Ref{Name: "refs/heads/feature", SHA: "aaaabbbbccccddddeeeeffff0000111122223333"},
	)
	assert.NoError(t, err)
	assert.Equals(t, result.Triggered, false)
	assert.Equals(t, len(result.Stages), 0)
}

func TestRunPipelineBranchGuard(t *testing.T) {
	result, err := createTestEngine(t).RunPipeline(
		context.Background(),
		map[string][]byte{
			"pipeline.yaml": []byte(`
name: deploy
trigger:
  branches:
    - main
    - 1.0-dev
stages:
  - id: main-only
    kind: dummy
    only:
      - main
  - id: always
    kind: dummy
`),
		},
		"",
		t.TempDir(),
		gitref.Ref{Name: "refs/heads/1.0-dev", SHA: "aaaabbbbccccddddeeeeffff0000111122223333"},
	)
	assert.NoError(t, err)
	assert.Equals(t, result.Stages[0].Status, deckhand.StatusSkipped)
	assert.Equals(t, result.Stages[1].Status, deckhand.StatusSucceeded)
}

func TestRunPipelineSkippedArtifact(t *testing.T) {
	result, err := createTestEngine(t).RunPipeline(
		context.Background(),
		map[string][]byte{
			"pipeline.yaml": []byte(`
name: deploy
trigger:
  branches:
    - main
    - 1.0-dev
stages:
  - id: main-only
    kind: dummy
    only:
      - main
    produces:
      - report.txt
    with:
      write_to: report.txt
  - id: consume
    kind: dummy
    needs:
      - report.txt
`),
		},
		"",
		t.TempDir(),
		gitref.Ref{Name: "refs/heads/1.0-dev", SHA: "aaaabbbbccccddddeeeeffff0000111122223333"},
	)
	assert.Error(t, err)
	var stageErr *deckhand.ErrStageFailed
	if !errors.As(err, &stageErr) {
		t.Fatalf("Incorrect error returned.")
	}
	assert.Equals(t, stageErr.StageID, "consume")
	assert.Equals(t, result.Stages[0].Status, deckhand.StatusSkipped)
	assert.Equals(t, result.Stages[1].Status, deckhand.StatusFailed)
}

func TestRunPipelineFailFast(t *testing.T) {
	result, err := createTestEngine(t).RunPipeline(
		context.Background(),
		map[string][]byte{
			"pipeline.yaml": []byte(`
name: deploy
trigger:
  branches:
    - main
stages:
  - id: boom
    kind: dummy
    with:
      fail: true
  - id: never
    kind: dummy
`),
		},
		"",
		t.TempDir(),
		mainRef(),
	)
	assert.Error(t, err)
	assert.Equals(t, len(result.Stages), 1)
	assert.Equals(t, result.Stages[0].ID, "boom")
	assert.Equals(t, result.Stages[0].Status, deckhand.StatusFailed)
}

func TestRunPipelineUnknownKind(t *testing.T) {
	_, err := createTestEngine(t).RunPipeline(
		context.Background(),
		map[string][]byte{
			"pipeline.yaml": []byte(`
name: deploy
trigger:
  branches:
    - main
stages:
  - id: greet
    kind: nonexistent
`),
		},
		"",
		t.TempDir(),
		mainRef(),
	)
	assert.Error(t, err)
}

func TestRunPipelineInvalidInput(t *testing.T) {
	_, err := createTestEngine(t).RunPipeline(
		context.Background(),
		map[string][]byte{
			"pipeline.yaml": []byte(`
name: deploy
trigger:
  branches:
    - main
stages:
  - id: greet
    kind: dummy
    with:
      unknown_field: true
`),
		},
		"",
		t.TempDir(),
		mainRef(),
	)
	assert.Error(t, err)
	var inputErr *deckhand.ErrInvalidStageInput
	if !errors.As(err, &inputErr) {
		t.Fatalf("Incorrect error returned.")
	}
	assert.Equals(t, inputErr.StageID, "greet")
}
