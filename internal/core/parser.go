package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParsePipeline parses YAML content into a PipelineManifest. The kind tag is
// checked before anything else is decoded.
func ParsePipeline(data []byte) (*PipelineManifest, error) {
	if err := checkKind(data, KindPipeline); err != nil {
		return nil, err
	}

	var pipeline PipelineManifest
	if err := yaml.Unmarshal(data, &pipeline); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &pipeline, nil
}

// LoadPipeline reads a pipeline manifest from path. Secret references are
// left unresolved.
func LoadPipeline(path string) (*PipelineManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline manifest: %w", err)
	}

	pipeline, err := ParsePipeline(data)
	if err != nil {
		return nil, withLocator(err, path)
	}
	return pipeline, nil
}

// LoadWebhookTokenName returns the name of the secret backing the pipeline's
// webhook token. ok is false when the manifest declares none.
func LoadWebhookTokenName(path string) (name string, ok bool, err error) {
	pipeline, err := LoadPipeline(path)
	if err != nil {
		return "", false, err
	}
	return pipeline.WebhookTokenName, pipeline.WebhookTokenName != "", nil
}

// requireFields fails when the mapping node lacks one of keys or maps it to
// null. Nodes of any other kind are left for Decode to reject.
func requireFields(node *yaml.Node, what string, keys ...string) error {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	present := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i+1].ShortTag() != "!!null" {
			present[node.Content[i].Value] = true
		}
	}
	for _, key := range keys {
		if !present[key] {
			return fmt.Errorf("line %d: %s is missing required field %q", node.Line, what, key)
		}
	}
	return nil
}
