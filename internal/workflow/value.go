package workflow

import "github.com/zclconf/go-cty/cty"

// Input is one value in a node's input map: either a Literal supplied
// directly, or a Reference to another node's output slot. It is a closed
// union; no other implementations exist.
type Input interface {
	inputValue()
}

// Literal is a value handed to the engine as-is: a scalar or a small
// fixed-shape object, represented as a cty.Value so the validator can
// compare its type against the schema's declared value kind.
type Literal struct {
	Val cty.Value
}

func (Literal) inputValue() {}

// Reference points at output slot Slot of the node with id Node. A
// reference is not a value; the engine resolves it when the graph runs.
type Reference struct {
	Node string
	Slot int
}

func (Reference) inputValue() {}

// Str wraps a string literal.
func Str(s string) Literal { return Literal{Val: cty.StringVal(s)} }

// Int wraps an integer literal.
func Int(i int64) Literal { return Literal{Val: cty.NumberIntVal(i)} }

// Float wraps a float literal.
func Float(f float64) Literal { return Literal{Val: cty.NumberFloatVal(f)} }

// Bool wraps a boolean literal.
func Bool(b bool) Literal { return Literal{Val: cty.BoolVal(b)} }

// Ref is shorthand for a Reference input.
func Ref(node string, slot int) Reference {
	return Reference{Node: node, Slot: slot}
}
