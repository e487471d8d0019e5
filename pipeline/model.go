// Package pipeline defines the deployment pipeline document format: a
// trigger plus an ordered list of stages with branch guards and artifact
// declarations.
package pipeline

import (
	"regexp"

	"go.flow.arcalot.io/pluginsdk/schema"

	"github.com/deckhand-ci/deckhand/internal/gitref"
)

// Pipeline is the primary data structure describing a pipeline run.
type Pipeline struct {
	// Name identifies the pipeline in run reports.
	Name string `json:"name"`
	// Trigger restricts which push references start a run.
	Trigger *Trigger `json:"trigger"`
	// Stages are executed strictly sequentially in declared order.
	Stages []*Stage `json:"stages"`
}

// Trigger describes the push events that start a pipeline run.
type Trigger struct {
	// Branches lists the branch names a push must target.
	Branches []string `json:"branches"`
}

// Matches reports whether a push reference starts a run.
func (t *Trigger) Matches(ref string) bool {
	branch := gitref.Branch(ref)
	for _, b := range t.Branches {
		if b == branch {
			return true
		}
	}
	return false
}

// Stage is a single pipeline step: one provider invocation with literal
// inputs.
type Stage struct {
	// ID uniquely identifies the stage within the pipeline.
	ID string `json:"id"`
	// Kind selects the stage provider.
	Kind string `json:"kind"`
	// Only restricts the stage to pushes on the listed branches. An empty
	// list means the stage runs on every triggering push.
	Only []string `json:"only"`
	// Needs lists workspace artifacts that must exist before the stage runs.
	Needs []string `json:"needs"`
	// Produces lists workspace artifacts the stage creates. Their existence
	// is verified after the stage finishes.
	Produces []string `json:"produces"`
	// With holds the literal provider input.
	With map[string]any `json:"with"`
}

// SkippedFor reports whether the stage's branch guard skips it for a push
// reference.
func (s *Stage) SkippedFor(ref string) bool {
	if len(s.Only) == 0 {
		return false
	}
	branch := gitref.Branch(ref)
	for _, b := range s.Only {
		if b == branch {
			return false
		}
	}
	return true
}

// GetSchema returns the entire pipeline schema.
func GetSchema() *schema.TypedScopeSchema[*Pipeline] {
	return schema.NewTypedScopeSchema[*Pipeline](
		schema.NewStructMappedObjectSchema[*Pipeline](
			"Pipeline",
			map[string]*schema.PropertySchema{
				"name": schema.NewPropertySchema(
					schema.NewStringSchema(schema.IntPointer(1), schema.IntPointer(255), nil),
					schema.NewDisplayValue(
						schema.PointerTo("Name"),
						schema.PointerTo("Pipeline name used in run reports."),
						nil,
					),
					true,
					nil,
					nil,
					nil,
					nil,
					nil,
				),
				"trigger": schema.NewPropertySchema(
					schema.NewRefSchema("Trigger", nil),
					schema.NewDisplayValue(
						schema.PointerTo("Trigger"),
						schema.PointerTo("Push events that start a run."),
						nil,
					),
					true,
					nil,
					nil,
					nil,
					nil,
					nil,
				),
				"stages": schema.NewPropertySchema(
					schema.NewListSchema(
						schema.NewRefSchema("Stage", nil),
						schema.IntPointer(1),
						nil,
					),
					schema.NewDisplayValue(
						schema.PointerTo("Stages"),
						schema.PointerTo("Stages to execute, in order."),
						nil,
					),
					true,
					nil,
					nil,
					nil,
					nil,
					nil,
				),
			},
		),
		schema.NewStructMappedObjectSchema[*Trigger](
			"Trigger",
			map[string]*schema.PropertySchema{
				"branches": schema.NewPropertySchema(
					schema.NewListSchema(
						schema.NewStringSchema(schema.IntPointer(1), nil, nil),
						schema.IntPointer(1),
						nil,
					),
					schema.NewDisplayValue(
						schema.PointerTo("Branches"),
						schema.PointerTo("Branch names a push must target to start a run."),
						nil,
					),
					true,
					nil,
					nil,
					nil,
					nil,
					nil,
				),
			},
		),
		schema.NewStructMappedObjectSchema[*Stage](
			"Stage",
			map[string]*schema.PropertySchema{
				"id": schema.NewPropertySchema(
					schema.NewStringSchema(
						schema.IntPointer(1),
						schema.IntPointer(255),
						regexp.MustCompile("^[$@a-zA-Z0-9-_]+$"),
					),
					schema.NewDisplayValue(
						schema.PointerTo("ID"),
						schema.PointerTo("Unique stage identifier."),
						nil,
					),
					true,
					nil,
					nil,
					nil,
					nil,
					nil,
				),
				"kind": schema.NewPropertySchema(
					schema.NewStringSchema(schema.IntPointer(1), schema.IntPointer(255), nil),
					schema.NewDisplayValue(
						schema.PointerTo("Kind"),
						schema.PointerTo("The stage provider to run."),
						nil,
					),
					true,
					nil,
					nil,
					nil,
					nil,
					nil,
				),
				"only": schema.NewPropertySchema(
					schema.NewListSchema(
						schema.NewStringSchema(schema.IntPointer(1), nil, nil),
						nil,
						nil,
					),
					schema.NewDisplayValue(
						schema.PointerTo("Only"),
						schema.PointerTo("Branch guard: run the stage only on these branches."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					nil,
					nil,
				),
				"needs": schema.NewPropertySchema(
					schema.NewListSchema(
						schema.NewStringSchema(schema.IntPointer(1), nil, nil),
						nil,
						nil,
					),
					schema.NewDisplayValue(
						schema.PointerTo("Needs"),
						schema.PointerTo("Workspace artifacts that must exist before the stage runs."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					nil,
					nil,
				),
				"produces": schema.NewPropertySchema(
					schema.NewListSchema(
						schema.NewStringSchema(schema.IntPointer(1), nil, nil),
						nil,
						nil,
					),
					schema.NewDisplayValue(
						schema.PointerTo("Produces"),
						schema.PointerTo("Workspace artifacts the stage creates."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					nil,
					nil,
				),
				"with": schema.NewPropertySchema(
					schema.NewMapSchema(
						schema.NewStringSchema(schema.IntPointer(1), schema.IntPointer(255), nil),
						schema.NewAnySchema(),
						nil,
						nil,
					),
					schema.NewDisplayValue(
						schema.PointerTo("With"),
						schema.PointerTo("Literal provider input."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					schema.PointerTo("{}"),
					nil,
				),
			},
		),
	)
}
