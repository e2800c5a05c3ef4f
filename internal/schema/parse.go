package schema

import (
	"encoding/json"
	"fmt"
	"io"
)

// rawNode mirrors the engine's /object_info entry for a single kind. Fields
// the validator has no use for (category, display name, ...) are ignored.
type rawNode struct {
	Input struct {
		Required map[string]json.RawMessage `json:"required"`
		Optional map[string]json.RawMessage `json:"optional"`
	} `json:"input"`
	Output []json.RawMessage `json:"output"`
}

// rawOptions carries the constraint attributes the engine attaches to
// scalar inputs.
type rawOptions struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// Parse decodes an engine capability document (the /object_info response)
// into a Model.
//
// Each input is declared as an array whose first element is either a type
// name (INT, FLOAT, STRING, BOOLEAN, or a connection type like MODEL) or a
// list of strings forming an enum, optionally followed by an options object
// with numeric bounds.
func Parse(r io.Reader) (Model, error) {
	var doc map[string]rawNode
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding capability document: %w", err)
	}

	model := make(Model, len(doc))
	for kind, raw := range doc {
		spec := NodeSpec{
			Required:    make(map[string]InputSpec, len(raw.Input.Required)),
			Optional:    make(map[string]InputSpec, len(raw.Input.Optional)),
			OutputArity: len(raw.Output),
		}
		for field, entry := range raw.Input.Required {
			in, err := parseInput(entry)
			if err != nil {
				return nil, fmt.Errorf("kind %q required input %q: %w", kind, field, err)
			}
			spec.Required[field] = in
		}
		for field, entry := range raw.Input.Optional {
			in, err := parseInput(entry)
			if err != nil {
				return nil, fmt.Errorf("kind %q optional input %q: %w", kind, field, err)
			}
			spec.Optional[field] = in
		}
		model[kind] = spec
	}
	return model, nil
}

func parseInput(entry json.RawMessage) (InputSpec, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(entry, &parts); err != nil {
		return InputSpec{}, fmt.Errorf("input declaration is not an array: %w", err)
	}
	if len(parts) == 0 {
		return InputSpec{}, fmt.Errorf("empty input declaration")
	}

	var spec InputSpec

	// First element: a type name, or a list of enum values.
	var typeName string
	if err := json.Unmarshal(parts[0], &typeName); err == nil {
		spec.Kind = kindForTypeName(typeName)
	} else {
		var enum []string
		if err := json.Unmarshal(parts[0], &enum); err != nil {
			return InputSpec{}, fmt.Errorf("unsupported input declaration head: %s", parts[0])
		}
		spec.Kind = Enum
		spec.Enum = enum
	}

	// Second element, when present, holds constraint options.
	if len(parts) > 1 {
		var opts rawOptions
		// Some kinds declare non-object option slots; those carry no
		// constraints we check, so a decode failure is not fatal.
		if err := json.Unmarshal(parts[1], &opts); err == nil {
			spec.Min = opts.Min
			spec.Max = opts.Max
		}
	}
	return spec, nil
}

func kindForTypeName(name string) ValueKind {
	switch name {
	case "INT":
		return Integer
	case "FLOAT":
		return Float
	case "STRING":
		return String
	case "BOOLEAN":
		return Boolean
	default:
		// Anything else (MODEL, CLIP, LATENT, IMAGE, AUDIO, ...) is a
		// connection type and must be fed by a reference.
		return Reference
	}
}
