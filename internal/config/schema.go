package config

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var schemaYAML []byte

var matrixSchema = mustCompileSchema()

// mustCompileSchema compiles the embedded YAML schema. The schema is
// authored in YAML and round-tripped through JSON for the compiler.
func mustCompileSchema() *jsonschema.Schema {
	var doc any
	if err := yaml.Unmarshal(schemaYAML, &doc); err != nil {
		panic(fmt.Sprintf("config: parse embedded schema: %v", err))
	}
	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("config: marshal embedded schema: %v", err))
	}
	schema, err := jsonschema.CompileString("schema.yaml", string(jsonDoc))
	if err != nil {
		panic(fmt.Sprintf("config: compile embedded schema: %v", err))
	}
	return schema
}

// validateSchema checks the raw document structure before any
// decoding, so typos in key names and wrongly typed scalars fail with
// a schema path instead of a zero value.
func validateSchema(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("config file is empty")
	}

	// Round-trip through encoding/json so the validator sees JSON
	// types (float64 numbers, string-keyed maps), not YAML ones.
	raw, err := json.Marshal(toJSONTypes(doc))
	if err != nil {
		return fmt.Errorf("normalize document: %w", err)
	}
	var jsonDoc any
	if err := json.Unmarshal(raw, &jsonDoc); err != nil {
		return fmt.Errorf("normalize document: %w", err)
	}

	if err := matrixSchema.Validate(jsonDoc); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// toJSONTypes normalizes yaml.v3 decode output to the types the
// schema validator expects (string-keyed maps all the way down).
func toJSONTypes(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = toJSONTypes(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = toJSONTypes(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = toJSONTypes(val)
		}
		return out
	default:
		return v
	}
}
