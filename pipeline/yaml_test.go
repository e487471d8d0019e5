package pipeline_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.arcalot.io/assert"

	"github.com/deckhand-ci/deckhand/pipeline"
)

const validPipeline = `---
name: deploy-latest
trigger:
  branches:
    - main
    - 1.0-dev
stages:
  - id: build-fixtures
    kind: fixtures
    produces:
      - fixtures.db
      - extra_database.db
    with:
      spec: tests/fixtures.json
      database: fixtures.db
      extra_database: extra_database.db
      plugins_dir: plugins
  - id: deploy
    kind: publish
    needs:
      - fixtures.db
      - extra_database.db
    with:
      databases:
        - fixtures.db
        - extra_database.db
      service: datasette-latest
`

func TestFromYAML(t *testing.T) {
	p := assert.NoErrorR[*pipeline.Pipeline](t)(pipeline.FromYAML([]byte(validPipeline)))
	assert.Equals(t, p.Name, "deploy-latest")
	assert.Equals(t, len(p.Trigger.Branches), 2)
	assert.Equals(t, len(p.Stages), 2)
	assert.Equals(t, p.Stages[0].ID, "build-fixtures")
	assert.Equals(t, p.Stages[0].Kind, "fixtures")
	assert.Equals(t, p.Stages[1].Needs, []string{"fixtures.db", "extra_database.db"})
}

func TestFromYAMLDeployLatestExample(t *testing.T) {
	data := assert.NoErrorR[[]byte](t)(os.ReadFile(filepath.Join("..", "examples", "deploy-latest", "pipeline.yaml")))
	p := assert.NoErrorR[*pipeline.Pipeline](t)(pipeline.FromYAML(data))
	assert.Equals(t, p.Trigger.Branches, []string{"main", "1.0-dev"})

	stages := map[string]*pipeline.Stage{}
	for _, s := range p.Stages {
		stages[s.ID] = s
	}
	for _, id := range []string{
		"checkout", "restore-deps", "install-deps", "install-docs-tools",
		"save-deps", "tests", "tests-serial", "fixtures", "docs",
		"demo-plugin", "metadata", "cloud-auth", "publish-latest", "publish-docs",
	} {
		assert.MapContainsKey(t, id, stages)
	}
	// The serial suite runs alone after the parallel pass, on the
	// primary branch only.
	assert.Equals(t, stages["tests"].Only, []string{"main"})
	assert.Equals(t, stages["tests-serial"].Only, []string{"main"})
	install := stages["install-deps"].With["argv"].([]any)
	assert.Equals(t, install[len(install)-1].(string), ".[test,docs]")
	tools := stages["install-docs-tools"].With["argv"].([]any)
	assert.Equals(t, tools[len(tools)-1].(string), "sphinx-to-sqlite==0.1a1")
}

func TestFromYAMLEmpty(t *testing.T) {
	_, err := pipeline.FromYAML(nil)
	assert.Error(t, err)
	if !errors.Is(err, pipeline.ErrEmptyPipelineFile) {
		t.Fatalf("expected ErrEmptyPipelineFile, got %v", err)
	}
}

func TestFromYAMLBrokenYAML(t *testing.T) {
	_, err := pipeline.FromYAML([]byte("{"))
	assert.Error(t, err)
	var yamlErr *pipeline.ErrInvalidPipelineYAML
	if !errors.As(err, &yamlErr) {
		t.Fatalf("expected ErrInvalidPipelineYAML, got %T", err)
	}
}

var invalidPipelines = map[string]string{
	"no-stages": `
name: deploy-latest
trigger:
  branches: [main]
`,
	"no-trigger": `
name: deploy-latest
stages:
  - id: a
    kind: command
`,
	"bad-stage-id": `
name: deploy-latest
trigger:
  branches: [main]
stages:
  - id: "not a valid id"
    kind: command
`,
	"missing-kind": `
name: deploy-latest
trigger:
  branches: [main]
stages:
  - id: a
`,
}

func TestFromYAMLInvalid(t *testing.T) {
	for name, input := range invalidPipelines {
		input := input
		t.Run(name, func(t *testing.T) {
			_, err := pipeline.FromYAML([]byte(input))
			assert.Error(t, err)
			var invalidErr *pipeline.ErrInvalidPipeline
			if !errors.As(err, &invalidErr) {
				t.Fatalf("expected ErrInvalidPipeline, got %T (%v)", err, err)
			}
		})
	}
}
