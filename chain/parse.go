package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML pipeline definition and validates it. Unknown keys
// are rejected.
func Parse(data []byte) (*PipelineSpec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var spec PipelineSpec
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decoding pipeline: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// ParseFile reads and parses the pipeline definition at path.
func ParseFile(path string) (*PipelineSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline file: %w", err)
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Marshal encodes spec as YAML.
func Marshal(spec *PipelineSpec) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(spec); err != nil {
		return nil, fmt.Errorf("encoding pipeline: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Schema returns the JSON Schema describing pipeline files.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		FieldNameTag:   "yaml",
		DoNotReference: true,
	}
	schema := r.Reflect(&PipelineSpec{})
	schema.Title = "gochain pipeline"
	return json.MarshalIndent(schema, "", "  ")
}
