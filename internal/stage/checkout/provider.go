// Package checkout provides the stage that fetches the repository contents
// at the triggering commit into the workspace.
package checkout

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/pluginsdk/schema"

	"github.com/deckhand-ci/deckhand/internal/gitref"
	"github.com/deckhand-ci/deckhand/internal/stage"
)

// New creates a new checkout provider.
func New(logger log.Logger) stage.Provider {
	return &checkoutProvider{
		logger: logger,
	}
}

type checkoutProvider struct {
	logger log.Logger
}

func (p *checkoutProvider) Kind() string {
	return "checkout"
}

func (p *checkoutProvider) InputSchema() map[string]*schema.PropertySchema {
	return map[string]*schema.PropertySchema{
		"repository": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Repository"),
				schema.PointerTo("Clone URL or local path of the repository."),
				nil,
			),
			true,
			nil,
			nil,
			nil,
			nil,
			nil,
		),
		"target": schema.NewPropertySchema(
			schema.NewStringSchema(schema.IntPointer(1), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Target"),
				schema.PointerTo("Workspace directory to clone into."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			schema.PointerTo(`"source"`),
			nil,
		),
		"depth": schema.NewPropertySchema(
			schema.NewIntSchema(schema.IntPointer(0), nil, nil),
			schema.NewDisplayValue(
				schema.PointerTo("Depth"),
				schema.PointerTo("Shallow clone depth. Zero clones the full history."),
				nil,
			),
			false,
			nil,
			nil,
			nil,
			schema.PointerTo("0"),
			nil,
		),
	}
}

func (p *checkoutProvider) Load(input map[string]any, env *stage.Environment) (stage.Runnable, error) {
	repository, err := stage.StringValue(input, "repository")
	if err != nil {
		return nil, err
	}
	target, err := stage.OptionalStringValue(input, "target", "source")
	if err != nil {
		return nil, err
	}
	depth, err := stage.IntValue(input, "depth", 0)
	if err != nil {
		return nil, err
	}
	return &runnableStage{
		repository: repository,
		target:     target,
		depth:      int(depth),
		ref:        env.Ref,
		targetAbs:  env.Abs(target),
		logger:     env.Logger,
	}, nil
}

type runnableStage struct {
	repository string
	target     string
	depth      int
	ref        gitref.Ref
	targetAbs  string
	logger     log.Logger
}

func (r *runnableStage) Run(ctx context.Context) (stage.Outputs, error) {
	cloneOptions := &git.CloneOptions{
		URL:   r.repository,
		Depth: r.depth,
	}
	if r.ref.Name != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(r.ref.Branch())
		cloneOptions.SingleBranch = true
	}
	r.logger.Infof("Cloning %s into %s...", r.repository, r.target)
	repo, err := git.PlainCloneContext(ctx, r.targetAbs, false, cloneOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s (%w)", r.repository, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD of %s (%w)", r.repository, err)
	}
	commit := head.Hash().String()

	// Pin the worktree to the triggering commit when the push points at an
	// older commit than the branch tip.
	if r.ref.SHA != "" && r.ref.SHA != commit {
		worktree, err := repo.Worktree()
		if err != nil {
			return nil, fmt.Errorf("failed to open worktree (%w)", err)
		}
		if err := worktree.Checkout(&git.CheckoutOptions{
			Hash: plumbing.NewHash(r.ref.SHA),
		}); err != nil {
			return nil, fmt.Errorf("failed to check out commit %s (%w)", r.ref.SHA, err)
		}
		commit = r.ref.SHA
	}
	r.logger.Infof("Checked out %s at %s.", r.repository, commit)
	return stage.Outputs{"commit": commit}, nil
}
