// Package workflow defines the typed processing-graph model shared by the
// compiler, the contract validator, and the engine client.
//
// A Graph is a flat mapping of node id to Node. Order carries no meaning;
// all data flow between nodes is expressed through Reference inputs that
// the execution engine resolves at run time.
package workflow

// Node is one typed operation instance in a graph.
type Node struct {
	// ID is the node's unique id within its graph. The engine uses numeric
	// strings for template nodes; injected nodes use descriptive ids like
	// "lora_0".
	ID string
	// Kind names the processing operation (the engine's class type).
	Kind string
	// Inputs maps input field names to literal values or references.
	Inputs map[string]Input
}

// Graph maps node id to node. The zero value is not usable; construct with
// New or by cloning.
type Graph map[string]*Node

// New returns an empty graph.
func New() Graph {
	return make(Graph)
}

// Add registers n under its own id and returns it, replacing any node
// already stored under that id.
func (g Graph) Add(n *Node) *Node {
	g[n.ID] = n
	return n
}

// Clone returns a deep copy of the graph. Templates are shared between
// concurrent compilations, so every structural edit must happen on a clone,
// never on the prototype itself.
func (g Graph) Clone() Graph {
	out := make(Graph, len(g))
	for id, n := range g {
		inputs := make(map[string]Input, len(n.Inputs))
		for name, in := range n.Inputs {
			inputs[name] = in
		}
		out[id] = &Node{ID: n.ID, Kind: n.Kind, Inputs: inputs}
	}
	return out
}

// Rewire repoints every input in the graph that currently references from
// at to, and reports how many inputs were rewired.
func (g Graph) Rewire(from, to Reference) int {
	count := 0
	for _, n := range g {
		for name, in := range n.Inputs {
			if ref, ok := in.(Reference); ok && ref == from {
				n.Inputs[name] = to
				count++
			}
		}
	}
	return count
}

// References returns the total number of Reference-valued inputs across all
// nodes.
func (g Graph) References() int {
	count := 0
	for _, n := range g {
		for _, in := range n.Inputs {
			if _, ok := in.(Reference); ok {
				count++
			}
		}
	}
	return count
}
