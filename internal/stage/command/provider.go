// Package command provides the generic stage that runs an external tool with
// literal arguments. The toolchain setup, dependency installation, and both
// test-runner invocations are expressed through it.
package command

import (
	"context"
	"fmt"

	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/pluginsdk/schema"

	"github.com/deckhand-ci/deckhand/internal/runner"
	"github.com/deckhand-ci/deckhand/internal/stage"
)

// New creates a new command provider running tools through the passed
// runner.
func New(logger log.Logger, run runner.Runner) stage.Provider {
	return &commandProvider{
		logger: logger,
		runner: run,
	}
}

type commandProvider struct {
	logger log.Logger
	runner runner.Runner
}

func (p *commandProvider) Kind() string {
	return "command"
}

func (p *commandProvider) InputSchema() map[string]*schema.PropertySchema {
	return map[string]*schema.PropertySchema{
		"argv": schema.NewPropertySchema(
			schema.NewListSchema(
				schema.NewStringSchema(schema.IntPointer(1), nil, nil),
				schema.IntPointer(1),
				nil,
			),
			schema.NewDisplayValue(
				schema.PointerTo("Command"),
				schema.PointerTo("The program and its literal arguments."),
				nil,
			),
			true,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"dir": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Directory"),
				schema.PointerTo("Workspace-relative working directory."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"env": schema.NewPropertySchema(
			schema.NewMapSchema(
				schema.NewStringSchema(schema.IntPointer(1), schema.IntPointer(255), nil),
				schema.NewStringSchema(nil, nil, nil),
				nil,
				nil,
			),
			schema.NewDisplayValue(
				schema.PointerTo("Environment"),
				schema.PointerTo("Additional environment variables for the invocation."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			schema.PointerTo("{}"),
			nil,
		),
	}
}

func (p *commandProvider) Load(input map[string]any, env *stage.Environment) (stage.Runnable, error) {
	argv, err := stage.StringListValue(input, "argv")
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("missing required input field: argv")
	}
	dir, err := stage.OptionalStringValue(input, "dir", "")
	if err != nil {
		return nil, err
	}
	environment, err := stage.StringMapValue(input, "env")
	if err != nil {
		return nil, err
	}
	workingDir := env.WorkDir
	if dir != "" {
		workingDir = env.Abs(dir)
	}
	return &runnableStage{
		cmd: runner.Command{
			Argv: argv,
			Dir:  workingDir,
			Env:  environment,
		},
		runner: p.runner,
	}, nil
}

type runnableStage struct {
	cmd    runner.Command
	runner runner.Runner
}

func (r *runnableStage) Run(ctx context.Context) (stage.Outputs, error) {
	result, err := r.runner.Run(ctx, r.cmd)
	if err != nil {
		return nil, err
	}
	return stage.Outputs{"exit_code": result.ExitCode}, nil
}
