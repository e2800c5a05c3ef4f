package arch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBuiltinFamilies(t *testing.T) {
	r := Default()

	cases := []struct {
		model  string
		family string
	}{
		{"sd_xl_base_1.0.safetensors", "sdxl"},
		{"JuggernautXL_v9.safetensors", "sdxl"},
		{"realisticVision_v51.safetensors", "sd15"},
		{"flux1-dev.safetensors", "flux"},
		{"mystery_checkpoint.ckpt", "unknown"},
	}
	for _, tc := range cases {
		p, err := r.Resolve(tc.model)
		require.NoError(t, err)
		assert.Equal(t, tc.family, p.Family, "model %s", tc.model)
	}
}

func TestResolveDefaultsAndCapabilities(t *testing.T) {
	r := Default()

	sdxl, err := r.Resolve("sd_xl_base_1.0.safetensors")
	require.NoError(t, err)
	assert.Equal(t, 1024, sdxl.Defaults.Width)
	assert.True(t, sdxl.Capabilities.Control)
	assert.Greater(t, sdxl.Confidence, 0.5)

	unknown, err := r.Resolve("whoknows.safetensors")
	require.NoError(t, err)
	assert.Equal(t, "unknown", unknown.Family)
	assert.False(t, unknown.Capabilities.GuideImages)
	assert.Less(t, unknown.Confidence, 0.5)
	assert.NotZero(t, unknown.Defaults.Steps)
}

func TestNewTableResolverRequiresFallback(t *testing.T) {
	_, err := NewTableResolver(strings.NewReader(`
[[family]]
id = "sdxl"
patterns = ["sdxl"]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback")
}
