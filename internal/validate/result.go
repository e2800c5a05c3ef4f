package validate

import "fmt"

// Diagnostic records one contract violation found in a graph.
type Diagnostic struct {
	NodeID string
	// Field is the offending input name, or empty for node-level problems
	// such as an unknown kind.
	Field   string
	Message string
}

func (d Diagnostic) String() string {
	if d.Field == "" {
		return fmt.Sprintf("node %q: %s", d.NodeID, d.Message)
	}
	return fmt.Sprintf("node %q input %q: %s", d.NodeID, d.Field, d.Message)
}

// Stats summarizes the validated graph.
type Stats struct {
	// NodeCount is the number of nodes in the graph.
	NodeCount int
	// ConnectionCount is the total number of reference-valued inputs.
	ConnectionCount int
	// UnknownKinds lists, sorted, every kind the schema model did not know,
	// regardless of mode.
	UnknownKinds []string
}

// Result is the outcome of validating one graph against one schema model.
type Result struct {
	Valid       bool
	Diagnostics []Diagnostic
	Stats       Stats
}
