package workflow

import (
	"encoding/json"
	"fmt"

	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// wireNode is the engine's on-the-wire shape for a single node.
type wireNode struct {
	ClassType string                     `json:"class_type"`
	Inputs    map[string]json.RawMessage `json:"inputs"`
}

// MarshalJSON encodes the graph as the engine's prompt document: a JSON
// object keyed by node id, each node carrying its class type and inputs.
// References encode as two-element ["<node>", <slot>] arrays; literals as
// plain JSON values.
func (g Graph) MarshalJSON() ([]byte, error) {
	doc := make(map[string]wireNode, len(g))
	for id, n := range g {
		inputs := make(map[string]json.RawMessage, len(n.Inputs))
		for name, in := range n.Inputs {
			raw, err := marshalInput(in)
			if err != nil {
				return nil, fmt.Errorf("node %q input %q: %w", id, name, err)
			}
			inputs[name] = raw
		}
		doc[id] = wireNode{ClassType: n.Kind, Inputs: inputs}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes an engine prompt document. A value that is a
// two-element [string, number] array decodes as a Reference; everything
// else decodes as a Literal.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var doc map[string]wireNode
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	out := make(Graph, len(doc))
	for id, wn := range doc {
		inputs := make(map[string]Input, len(wn.Inputs))
		for name, raw := range wn.Inputs {
			in, err := unmarshalInput(raw)
			if err != nil {
				return fmt.Errorf("node %q input %q: %w", id, name, err)
			}
			inputs[name] = in
		}
		out[id] = &Node{ID: id, Kind: wn.ClassType, Inputs: inputs}
	}
	*g = out
	return nil
}

func marshalInput(in Input) (json.RawMessage, error) {
	switch v := in.(type) {
	case Reference:
		return json.Marshal([]any{v.Node, v.Slot})
	case Literal:
		return ctyjson.SimpleJSONValue{Value: v.Val}.MarshalJSON()
	default:
		return nil, fmt.Errorf("unsupported input type %T", in)
	}
}

func unmarshalInput(raw json.RawMessage) (Input, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 2 {
		var node string
		var slot int
		if json.Unmarshal(arr[0], &node) == nil && json.Unmarshal(arr[1], &slot) == nil {
			return Reference{Node: node, Slot: slot}, nil
		}
	}
	var v ctyjson.SimpleJSONValue
	if err := v.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return Literal{Val: v.Value}, nil
}
