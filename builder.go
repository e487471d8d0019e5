package deckhand

import (
	"fmt"

	"go.arcalot.io/dgraph"

	"github.com/deckhand-ci/deckhand/pipeline"
)

// buildArtifactGraph builds the artifact dependency graph between the
// pipeline's stages and validates it against the declared stage order.
// Stages run strictly sequentially, so the graph is not used for scheduling;
// it exists to reject pipelines whose artifact references could never be
// satisfied.
func buildArtifactGraph(stages []*pipeline.Stage) (dgraph.DirectedGraph[*pipeline.Stage], error) {
	dag := dgraph.New[*pipeline.Stage]()
	position := make(map[string]int, len(stages))
	producers := map[string]string{}

	for i, s := range stages {
		if _, ok := position[s.ID]; ok {
			return nil, &ErrDuplicateStageID{StageID: s.ID}
		}
		position[s.ID] = i
		if _, err := dag.AddNode(s.ID, s); err != nil {
			return nil, fmt.Errorf("failed to add stage %s to the artifact graph (%w)", s.ID, err)
		}
		for _, artifact := range s.Produces {
			if previous, ok := producers[artifact]; ok {
				return nil, &ErrDuplicateArtifact{
					Artifact:    artifact,
					FirstStage:  previous,
					SecondStage: s.ID,
				}
			}
			producers[artifact] = s.ID
		}
	}

	for _, s := range stages {
		for _, artifact := range s.Needs {
			producerID, ok := producers[artifact]
			if !ok {
				return nil, &ErrUnknownArtifact{StageID: s.ID, Artifact: artifact}
			}
			if position[producerID] >= position[s.ID] {
				return nil, &ErrArtifactOrder{
					StageID:    s.ID,
					Artifact:   artifact,
					ProducerID: producerID,
				}
			}
			producerNode, err := dag.GetNodeByID(producerID)
			if err != nil {
				return nil, fmt.Errorf("bug: producer node %s is not in the artifact graph (%w)", producerID, err)
			}
			if err := producerNode.Connect(s.ID); err != nil {
				return nil, fmt.Errorf(
					"failed to connect stage %s to stage %s in the artifact graph (%w)",
					producerID,
					s.ID,
					err,
				)
			}
		}
	}

	if dag.HasCycles() {
		return nil, fmt.Errorf("stage artifact graph has at least one cycle")
	}
	return dag, nil
}
