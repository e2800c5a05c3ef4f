// Package schema models the execution engine's capability description:
// which node kinds exist, the inputs each kind accepts, and how many
// outputs it declares.
//
// The model is plain data. It is fetched once (from a live engine or the
// bundled snapshot) and then shared read-only across any number of
// concurrent validations.
package schema

// ValueKind classifies the value shape an input accepts.
type ValueKind int

const (
	Integer ValueKind = iota
	Float
	String
	Boolean
	Enum
	// Reference marks inputs that must be wired to another node's output
	// (the engine names these by their connection type: MODEL, CLIP, ...).
	Reference
)

// String returns the kind name used in validation diagnostics.
func (k ValueKind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Boolean:
		return "boolean"
	case Enum:
		return "enum"
	case Reference:
		return "reference"
	default:
		return "unknown"
	}
}

// InputSpec describes one accepted input value shape.
type InputSpec struct {
	Kind ValueKind
	// Enum lists the admissible values when Kind is Enum.
	Enum []string
	// Min and Max bound numeric inputs when the engine declares bounds.
	Min *float64
	Max *float64
}

// NodeSpec describes one node kind's contract.
type NodeSpec struct {
	Required    map[string]InputSpec
	Optional    map[string]InputSpec
	OutputArity int
}

// Model maps node kind to its contract.
type Model map[string]NodeSpec

// Lookup returns the spec for kind and whether the model knows it.
func (m Model) Lookup(kind string) (NodeSpec, bool) {
	spec, ok := m[kind]
	return spec, ok
}
