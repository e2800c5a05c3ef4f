package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/promptweave/internal/schema"
	"github.com/vk/promptweave/internal/validate"
	"github.com/vk/promptweave/internal/workflow"
)

func TestGetUnknownMode(t *testing.T) {
	_, err := NewRepository().Get(Mode("mosaic"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"mosaic"`)
}

func TestGetReturnsOwnedClone(t *testing.T) {
	repo := NewRepository()

	first, err := repo.Get(TextToImage)
	require.NoError(t, err)

	// Mutate the clone aggressively; the prototype must be unaffected.
	first[SamplerNode].Inputs["steps"] = workflow.Int(999)
	first.Add(&workflow.Node{ID: "lora_0", Kind: "LoraLoader", Inputs: map[string]workflow.Input{}})
	delete(first, SaveNode)

	second, err := repo.Get(TextToImage)
	require.NoError(t, err)
	assert.True(t, second[SamplerNode].Inputs["steps"].(workflow.Literal).Val.RawEquals(cty.NumberIntVal(20)))
	assert.NotContains(t, second, "lora_0")
	assert.Contains(t, second, SaveNode)
}

// Every builtin prototype must pass strict validation against the bundled
// snapshot once its placeholder literals are in place.
func TestPrototypesValidateAgainstSnapshot(t *testing.T) {
	model, err := schema.Snapshot()
	require.NoError(t, err)
	repo := NewRepository()

	for _, mode := range repo.Modes() {
		g, err := repo.Get(mode)
		require.NoError(t, err)
		res := validate.Graph(g, model, validate.Strict)
		assert.True(t, res.Valid, "mode %s: %v", mode, res.Diagnostics)
	}
}
