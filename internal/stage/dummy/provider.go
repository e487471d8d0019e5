// Package dummy is a stage provider that records that it ran and optionally
// writes a file into the workspace. This is intended as a test provider as
// well as an implementation guide for providers.
package dummy

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5/util"
	"go.flow.arcalot.io/pluginsdk/schema"

	"github.com/deckhand-ci/deckhand/internal/stage"
)

// New creates a new dummy provider.
func New() stage.Provider {
	return &dummyProvider{}
}

type dummyProvider struct {
}

func (p *dummyProvider) Kind() string {
	// This value will uniquely identify the provider.
	return "dummy"
}

func (p *dummyProvider) InputSchema() map[string]*schema.PropertySchema {
	return map[string]*schema.PropertySchema{
		"message": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Message"),
				nil,
				nil,
			),
			false,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"write_to": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Write to"),
				schema.PointerTo("Workspace path to write the message to."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"fail": schema.NewPropertySchema(
			schema.NewBoolSchema(),
			schema.NewDisplayValue(
				schema.PointerTo("Fail"),
				schema.PointerTo("Fail instead of succeeding."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
	}
}

func (p *dummyProvider) Load(input map[string]any, env *stage.Environment) (stage.Runnable, error) {
	message, err := stage.OptionalStringValue(input, "message", "dummy stage ran")
	if err != nil {
		return nil, err
	}
	writeTo, err := stage.OptionalStringValue(input, "write_to", "")
	if err != nil {
		return nil, err
	}
	fail, err := stage.BoolValue(input, "fail", false)
	if err != nil {
		return nil, err
	}
	return &runnableStage{
		message: message,
		writeTo: writeTo,
		fail:    fail,
		env:     env,
	}, nil
}

type runnableStage struct {
	message string
	writeTo string
	fail    bool
	env     *stage.Environment
}

func (r *runnableStage) Run(_ context.Context) (stage.Outputs, error) {
	if r.fail {
		return nil, fmt.Errorf("dummy stage failed on request")
	}
	if r.writeTo != "" {
		if err := util.WriteFile(r.env.FS, r.writeTo, []byte(r.message), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s (%w)", r.writeTo, err)
		}
	}
	r.env.Logger.Infof("%s", r.message)
	return stage.Outputs{"message": r.message}, nil
}
