// Package extravars serializes environment variable sets into the
// string form injected into containers. The in-container entrypoint
// forwards these values verbatim as Ansible extra-vars, so complex
// values must arrive as inline structured literals. JSON is used for
// that: every JSON document is also valid YAML, which is what Ansible
// parses extra-vars with.
package extravars

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Version identifies the encoding rules. Bump when the serialized form
// of any value kind changes, so entrypoints can detect a mismatch.
const Version = 1

// SkipImagesKey is matrix metadata inside an environment definition,
// never an injected variable.
const SkipImagesKey = "skip_images"

// Encode converts an environment's variables to container env values.
//
// Rules (version 1):
//   - string values pass through unchanged
//   - bool, integer and float values use their canonical Go formatting
//   - lists and mappings are encoded as compact JSON
//   - nil encodes as the empty string
//   - the skip_images key is dropped
func Encode(vars map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(vars))
	for name, value := range vars {
		if name == SkipImagesKey {
			continue
		}
		encoded, err := encodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("extravars: variable %q: %w", name, err)
		}
		out[name] = encoded
	}
	return out, nil
}

// EncodeList is Encode with the result flattened to NAME=value pairs
// in sorted name order, the shape container engines expect.
func EncodeList(vars map[string]any) ([]string, error) {
	encoded, err := Encode(vars)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(encoded))
	for name := range encoded {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+encoded[name])
	}
	return pairs, nil
}

func encodeValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return fmt.Sprintf("%t", v), nil
	case int, int64, uint64:
		return fmt.Sprintf("%d", v), nil
	case float64:
		// YAML decodes whole-number floats as float64; keep them
		// integral so playbooks comparing against ints still match.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v)), nil
		}
		return fmt.Sprintf("%g", v), nil
	case []any, map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}
