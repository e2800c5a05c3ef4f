package validate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/promptweave/internal/schema"
	"github.com/vk/promptweave/internal/workflow"
)

func testModel(t *testing.T) schema.Model {
	t.Helper()
	model, err := schema.Snapshot()
	require.NoError(t, err)
	return model
}

// wellFormed builds a minimal text-to-image graph that passes strict
// validation against the snapshot model.
func wellFormed() workflow.Graph {
	g := workflow.New()
	g.Add(&workflow.Node{ID: "3", Kind: "KSampler", Inputs: map[string]workflow.Input{
		"seed":         workflow.Int(42),
		"steps":        workflow.Int(20),
		"cfg":          workflow.Float(7.0),
		"sampler_name": workflow.Str("euler_ancestral"),
		"scheduler":    workflow.Str("normal"),
		"denoise":      workflow.Float(1.0),
		"model":        workflow.Ref("4", 0),
		"positive":     workflow.Ref("6", 0),
		"negative":     workflow.Ref("7", 0),
		"latent_image": workflow.Ref("5", 0),
	}})
	g.Add(&workflow.Node{ID: "4", Kind: "CheckpointLoaderSimple", Inputs: map[string]workflow.Input{
		"ckpt_name": workflow.Str("sd_xl_base_1.0.safetensors"),
	}})
	g.Add(&workflow.Node{ID: "5", Kind: "EmptyLatentImage", Inputs: map[string]workflow.Input{
		"width":      workflow.Int(768),
		"height":     workflow.Int(1024),
		"batch_size": workflow.Int(1),
	}})
	g.Add(&workflow.Node{ID: "6", Kind: "CLIPTextEncode", Inputs: map[string]workflow.Input{
		"text": workflow.Str("a portrait"),
		"clip": workflow.Ref("4", 1),
	}})
	g.Add(&workflow.Node{ID: "7", Kind: "CLIPTextEncode", Inputs: map[string]workflow.Input{
		"text": workflow.Str("low quality"),
		"clip": workflow.Ref("4", 1),
	}})
	g.Add(&workflow.Node{ID: "8", Kind: "VAEDecode", Inputs: map[string]workflow.Input{
		"samples": workflow.Ref("3", 0),
		"vae":     workflow.Ref("4", 2),
	}})
	g.Add(&workflow.Node{ID: "9", Kind: "SaveImage", Inputs: map[string]workflow.Input{
		"filename_prefix": workflow.Str("portrait_42"),
		"images":          workflow.Ref("8", 0),
	}})
	return g
}

func TestWellFormedGraphIsValid(t *testing.T) {
	res := Graph(wellFormed(), testModel(t), Strict)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, 7, res.Stats.NodeCount)
	assert.Equal(t, 8, res.Stats.ConnectionCount)
	assert.Empty(t, res.Stats.UnknownKinds)
}

func TestValidationIsIdempotent(t *testing.T) {
	g := wellFormed()
	g["3"].Inputs["steps"] = workflow.Str("twenty") // force a diagnostic
	model := testModel(t)

	first := Graph(g, model, Strict)
	second := Graph(g, model, Strict)
	assert.Empty(t, cmp.Diff(first, second))
}

func TestAllViolationsAreCollected(t *testing.T) {
	g := wellFormed()
	// Three independent violations: two missing required inputs and one
	// out-of-range numeric field.
	delete(g["6"].Inputs, "text")
	delete(g["7"].Inputs, "clip")
	g["3"].Inputs["steps"] = workflow.Int(999999)

	res := Graph(g, testModel(t), Strict)
	assert.False(t, res.Valid)
	require.Len(t, res.Diagnostics, 3)

	messages := map[string]string{}
	for _, d := range res.Diagnostics {
		messages[d.NodeID+"/"+d.Field] = d.Message
	}
	assert.Contains(t, messages["6/text"], "missing required input")
	assert.Contains(t, messages["7/clip"], "missing required input")
	assert.Contains(t, messages["3/steps"], "above maximum")
}

func TestDanglingReference(t *testing.T) {
	g := wellFormed()
	g["9"].Inputs["images"] = workflow.Ref("99", 0)

	res := Graph(g, testModel(t), Strict)
	assert.False(t, res.Valid)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "9", res.Diagnostics[0].NodeID)
	assert.Contains(t, res.Diagnostics[0].Message, `non-existent node "99"`)
}

func TestNumericRangeBounds(t *testing.T) {
	model := testModel(t)

	over := wellFormed()
	over["3"].Inputs["steps"] = workflow.Int(999999)
	res := Graph(over, model, Strict)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "above maximum")
	assert.Contains(t, res.Diagnostics[0].Message, "999999")

	under := wellFormed()
	under["3"].Inputs["steps"] = workflow.Int(0)
	res = Graph(under, model, Strict)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "below minimum")
}

func TestTypeMismatch(t *testing.T) {
	g := wellFormed()
	g["3"].Inputs["steps"] = workflow.Str("twenty")
	g["5"].Inputs["width"] = workflow.Float(768.5)

	res := Graph(g, testModel(t), Strict)
	require.Len(t, res.Diagnostics, 2)
	for _, d := range res.Diagnostics {
		assert.Contains(t, d.Message, "expected integer")
	}
}

func TestEnumMembership(t *testing.T) {
	g := wellFormed()
	g["3"].Inputs["sampler_name"] = workflow.Str("not_a_sampler")

	res := Graph(g, testModel(t), Strict)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, `"not_a_sampler"`)
}

func TestUnknownKindModes(t *testing.T) {
	g := wellFormed()
	g.Add(&workflow.Node{ID: "10", Kind: "CustomUpscaler", Inputs: map[string]workflow.Input{
		"image": workflow.Ref("8", 0),
	}})
	model := testModel(t)

	strict := Graph(g, model, Strict)
	assert.False(t, strict.Valid)
	require.Len(t, strict.Diagnostics, 1)
	assert.Contains(t, strict.Diagnostics[0].Message, `unknown kind "CustomUpscaler"`)
	assert.Equal(t, []string{"CustomUpscaler"}, strict.Stats.UnknownKinds)

	permissive := Graph(g, model, Permissive)
	assert.True(t, permissive.Valid)
	assert.Equal(t, []string{"CustomUpscaler"}, permissive.Stats.UnknownKinds)
}

func TestUnknownTargetKindSkipsArityCheck(t *testing.T) {
	g := wellFormed()
	g.Add(&workflow.Node{ID: "10", Kind: "CustomUpscaler", Inputs: map[string]workflow.Input{}})
	// Slot 5 would be out of range for any known kind, but CustomUpscaler's
	// arity is undeclared so only the existence check applies.
	g["9"].Inputs["images"] = workflow.Ref("10", 5)

	res := Graph(g, testModel(t), Permissive)
	assert.True(t, res.Valid)
}

func TestOutputSlotOutOfRange(t *testing.T) {
	g := wellFormed()
	g["8"].Inputs["samples"] = workflow.Ref("3", 1) // KSampler declares one output

	res := Graph(g, testModel(t), Strict)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "output index out of range")
}

func TestReferencesFromUnknownNodesAreStillChecked(t *testing.T) {
	g := wellFormed()
	g.Add(&workflow.Node{ID: "10", Kind: "CustomUpscaler", Inputs: map[string]workflow.Input{
		"image": workflow.Ref("404", 0),
	}})

	res := Graph(g, testModel(t), Permissive)
	assert.False(t, res.Valid)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, `non-existent node "404"`)
}
