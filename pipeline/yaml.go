package pipeline

import (
	"gopkg.in/yaml.v3"
)

// FromYAML parses a pipeline document from its YAML form.
func FromYAML(data []byte) (*Pipeline, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPipelineFile
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ErrInvalidPipelineYAML{err}
	}
	p, err := GetSchema().UnserializeType(raw)
	if err != nil {
		return nil, &ErrInvalidPipeline{err}
	}
	return p, nil
}
