package compile

import (
	"fmt"

	"github.com/vk/promptweave/internal/workflow"
)

// carrierPair identifies the two outputs a style-adapter chain modifies:
// the model carrier and the clip carrier.
type carrierPair struct {
	Model workflow.Reference
	CLIP  workflow.Reference
}

// injectChain splices the ordered adapter list between base and its
// downstream consumers. Adapter i references the previous carrier pair
// (base for i=0), and after the fold every consumer that read base is
// rewired to the last adapter's outputs.
//
// An empty adapter list leaves the graph untouched, so a zero-modifier
// compile stays structurally identical to the cloned template.
func injectChain(g workflow.Graph, adapters []StyleAdapter, base carrierPair) {
	if len(adapters) == 0 {
		return
	}

	// Build the chain nodes first, against a graph that does not yet
	// contain them: Rewire below must only touch the template's original
	// consumers, never the chain's own inputs.
	prev := base
	nodes := make([]*workflow.Node, 0, len(adapters))
	for i, a := range adapters {
		id := fmt.Sprintf("lora_%d", i)
		nodes = append(nodes, &workflow.Node{ID: id, Kind: "LoraLoader", Inputs: map[string]workflow.Input{
			"model":          prev.Model,
			"clip":           prev.CLIP,
			"lora_name":      workflow.Str(a.Name),
			"strength_model": workflow.Float(a.StrengthModel),
			"strength_clip":  workflow.Float(a.StrengthCLIP),
		}})
		prev = carrierPair{Model: workflow.Ref(id, 0), CLIP: workflow.Ref(id, 1)}
	}

	g.Rewire(base.Model, prev.Model)
	g.Rewire(base.CLIP, prev.CLIP)
	for _, n := range nodes {
		g.Add(n)
	}
}
