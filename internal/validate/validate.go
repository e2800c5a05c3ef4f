// Package validate checks a compiled workflow graph against the engine's
// capability schema before submission, so malformed graphs are caught
// without paying for an execution attempt.
//
// Validation is a single pass that collects every violation rather than
// stopping at the first one: a caller gets the complete list and can fix
// all problems in one rebuild cycle. It performs no I/O and touches no
// shared state, so a single schema model can serve arbitrarily many
// concurrent validations.
package validate

import (
	"fmt"
	"slices"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/promptweave/internal/schema"
	"github.com/vk/promptweave/internal/workflow"
)

// Mode selects how unknown node kinds are treated.
type Mode int

const (
	// Strict reports unknown kinds as violations.
	Strict Mode = iota
	// Permissive records unknown kinds in the stats but accepts them,
	// for templates using operations absent from a schema snapshot.
	Permissive
)

// Graph validates g against model and returns the full diagnostic set.
func Graph(g workflow.Graph, model schema.Model, mode Mode) Result {
	v := &checker{graph: g, model: model, mode: mode, unknown: map[string]bool{}}

	// Walk nodes in id order so diagnostics come out deterministically.
	ids := make([]string, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		v.checkNode(g[id])
	}

	unknown := make([]string, 0, len(v.unknown))
	for kind := range v.unknown {
		unknown = append(unknown, kind)
	}
	sort.Strings(unknown)

	return Result{
		Valid:       len(v.diags) == 0,
		Diagnostics: v.diags,
		Stats: Stats{
			NodeCount:       len(g),
			ConnectionCount: g.References(),
			UnknownKinds:    unknown,
		},
	}
}

type checker struct {
	graph   workflow.Graph
	model   schema.Model
	mode    Mode
	diags   []Diagnostic
	unknown map[string]bool
}

func (v *checker) report(nodeID, field, format string, args ...any) {
	v.diags = append(v.diags, Diagnostic{
		NodeID:  nodeID,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *checker) checkNode(n *workflow.Node) {
	spec, known := v.model.Lookup(n.Kind)
	if !known {
		v.unknown[n.Kind] = true
		if v.mode == Strict {
			v.report(n.ID, "", "unknown kind %q", n.Kind)
		}
		// References out of an unknown node still need target checks, but
		// permissive mode skips everything else for it.
		v.checkReferences(n)
		return
	}

	for _, field := range sortedKeys(spec.Required) {
		if _, ok := n.Inputs[field]; !ok {
			v.report(n.ID, field, "missing required input")
		}
	}

	for _, field := range sortedKeys(n.Inputs) {
		lit, ok := n.Inputs[field].(workflow.Literal)
		if !ok {
			continue
		}
		in, declared := spec.Required[field]
		if !declared {
			in, declared = spec.Optional[field]
		}
		if !declared {
			continue
		}
		v.checkLiteral(n.ID, field, lit.Val, in)
	}

	v.checkReferences(n)
}

// checkReferences verifies every reference-valued input points at an
// existing node and a declared output slot.
func (v *checker) checkReferences(n *workflow.Node) {
	for _, field := range sortedKeys(n.Inputs) {
		ref, ok := n.Inputs[field].(workflow.Reference)
		if !ok {
			continue
		}
		target, exists := v.graph[ref.Node]
		if !exists {
			v.report(n.ID, field, "reference to non-existent node %q", ref.Node)
			continue
		}
		targetSpec, known := v.model.Lookup(target.Kind)
		if !known {
			// Unknown target kind: arity is undeclared, nothing to check.
			continue
		}
		if ref.Slot >= targetSpec.OutputArity {
			v.report(n.ID, field, "output index out of range: slot %d, but %q declares %d output(s)",
				ref.Slot, target.Kind, targetSpec.OutputArity)
		}
	}
}

func (v *checker) checkLiteral(nodeID, field string, val cty.Value, in schema.InputSpec) {
	switch in.Kind {
	case schema.Integer:
		if !isWholeNumber(val) {
			v.report(nodeID, field, "type mismatch: expected integer, got %s", literalKind(val))
			return
		}
		v.checkRange(nodeID, field, val, in)
	case schema.Float:
		if val.Type() != cty.Number {
			v.report(nodeID, field, "type mismatch: expected float, got %s", literalKind(val))
			return
		}
		v.checkRange(nodeID, field, val, in)
	case schema.String:
		if val.Type() != cty.String {
			v.report(nodeID, field, "type mismatch: expected string, got %s", literalKind(val))
		}
	case schema.Boolean:
		if val.Type() != cty.Bool {
			v.report(nodeID, field, "type mismatch: expected boolean, got %s", literalKind(val))
		}
	case schema.Enum:
		if val.Type() != cty.String {
			v.report(nodeID, field, "type mismatch: expected enum value, got %s", literalKind(val))
			return
		}
		if !slices.Contains(in.Enum, val.AsString()) {
			v.report(nodeID, field, "value %q is not one of the allowed values %v", val.AsString(), in.Enum)
		}
	case schema.Reference:
		v.report(nodeID, field, "type mismatch: expected reference, got %s literal", literalKind(val))
	}
}

func (v *checker) checkRange(nodeID, field string, val cty.Value, in schema.InputSpec) {
	f, _ := val.AsBigFloat().Float64()
	if in.Min != nil && f < *in.Min {
		v.report(nodeID, field, "below minimum: %v < %v", f, *in.Min)
	}
	if in.Max != nil && f > *in.Max {
		v.report(nodeID, field, "above maximum: %v > %v", f, *in.Max)
	}
}

func isWholeNumber(val cty.Value) bool {
	return val.Type() == cty.Number && val.AsBigFloat().IsInt()
}

// literalKind names a literal's runtime kind for diagnostics.
func literalKind(val cty.Value) string {
	ty := val.Type()
	switch {
	case ty == cty.String:
		return "string"
	case ty == cty.Bool:
		return "boolean"
	case ty == cty.Number:
		if val.AsBigFloat().IsInt() {
			return "integer"
		}
		return "float"
	default:
		return ty.FriendlyName()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
