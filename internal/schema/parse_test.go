package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCapabilityDocument(t *testing.T) {
	doc := `{
		"KSampler": {
			"input": {
				"required": {
					"model": ["MODEL"],
					"steps": ["INT", {"default": 20, "min": 1, "max": 10000}],
					"sampler_name": [["euler", "ddim"]],
					"denoise": ["FLOAT", {"min": 0.0, "max": 1.0}]
				},
				"optional": {
					"mask": ["MASK"]
				}
			},
			"output": ["LATENT"]
		},
		"SaveImage": {
			"input": {
				"required": {
					"images": ["IMAGE"],
					"filename_prefix": ["STRING", {"default": "output"}]
				}
			},
			"output": []
		}
	}`

	model, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, model, 2)

	sampler, ok := model.Lookup("KSampler")
	require.True(t, ok)
	assert.Equal(t, 1, sampler.OutputArity)

	assert.Equal(t, Reference, sampler.Required["model"].Kind)

	steps := sampler.Required["steps"]
	assert.Equal(t, Integer, steps.Kind)
	require.NotNil(t, steps.Min)
	require.NotNil(t, steps.Max)
	assert.Equal(t, 1.0, *steps.Min)
	assert.Equal(t, 10000.0, *steps.Max)

	name := sampler.Required["sampler_name"]
	assert.Equal(t, Enum, name.Kind)
	assert.Equal(t, []string{"euler", "ddim"}, name.Enum)

	assert.Equal(t, Float, sampler.Required["denoise"].Kind)
	assert.Equal(t, Reference, sampler.Optional["mask"].Kind)

	save, ok := model.Lookup("SaveImage")
	require.True(t, ok)
	assert.Equal(t, 0, save.OutputArity)
	assert.Equal(t, String, save.Required["filename_prefix"].Kind)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"Broken": {"input": {"required": {"x": 42}}}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `input "x"`)
}

func TestSnapshotCoversBuiltinKinds(t *testing.T) {
	model, err := Snapshot()
	require.NoError(t, err)

	for _, kind := range []string{
		"CheckpointLoaderSimple", "CLIPTextEncode", "EmptyLatentImage",
		"KSampler", "VAEDecode", "SaveImage", "LoraLoader", "ImageBatch",
		"IPAdapterAdvanced", "ControlNetApplyAdvanced", "LoadAudio",
		"F5TTSAudioInputs", "SONICSampler", "VHS_VideoCombine",
	} {
		_, ok := model.Lookup(kind)
		assert.True(t, ok, "snapshot is missing kind %s", kind)
	}

	sampler, _ := model.Lookup("KSampler")
	require.NotNil(t, sampler.Required["steps"].Max)
	assert.Equal(t, 10000.0, *sampler.Required["steps"].Max)
	assert.Equal(t, 3, func() int { s, _ := model.Lookup("CheckpointLoaderSimple"); return s.OutputArity }())
}
