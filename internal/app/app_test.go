package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/promptweave/internal/arch"
	"github.com/vk/promptweave/internal/compile"
	"github.com/vk/promptweave/internal/config"
	"github.com/vk/promptweave/internal/engine"
	"github.com/vk/promptweave/internal/schema"
	"github.com/vk/promptweave/internal/storage"
	"github.com/vk/promptweave/internal/template"
	"github.com/vk/promptweave/internal/watch"
	"github.com/vk/promptweave/internal/workflow"
)

func newTestApp(t *testing.T, cfg config.Config, opts *Options) *App {
	t.Helper()
	model, err := schema.Snapshot()
	require.NoError(t, err)

	client := engine.NewClient(cfg.Engine.URL, nil)
	return &App{
		outW:    io.Discard,
		logger:  newLogger("error", "text", io.Discard),
		cfg:     cfg,
		opts:    opts,
		compile: compile.New(arch.Default(), template.NewRepository()),
		model:   model,
		client:  client,
		watcher: watch.New(client, nil, watch.Config{
			PollInterval: 10 * time.Millisecond,
			Settle:       time.Millisecond,
			Timeout:      2 * time.Second,
		}),
		store: storage.New(storage.Config{}, nil),
		probe: func(ctx context.Context, path string) (float64, error) {
			return 7.5, nil
		},
	}
}

func TestParseRequestDefaults(t *testing.T) {
	req, err := ParseRequest(strings.NewReader(`{"prompt": "a portrait"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionPortrait, req.Action)
	assert.Equal(t, int64(-1), req.Seed, "absent seed means a random draw")
}

func TestParseRequestRejectsUnknownFields(t *testing.T) {
	_, err := ParseRequest(strings.NewReader(`{"prmpt": "typo"}`))
	require.Error(t, err)
}

func TestRequestValidateCollectsEveryProblem(t *testing.T) {
	req := &Request{Action: ActionLipSync}
	err := req.Validate()
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Len(t, reqErr.Problems, 2)
	assert.Contains(t, reqErr.Problems[0], "portrait_image")
	assert.Contains(t, reqErr.Problems[1], "audio")
}

func TestBuildPortrait(t *testing.T) {
	a := newTestApp(t, config.Default(), &Options{})

	g, warnings, err := a.Build(context.Background(), &Request{
		Action: ActionPortrait,
		Prompt: "an oil painting of a lighthouse keeper",
		Model:  "sd_xl_base_1.0.safetensors",
		Seed:   42,
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Contains(t, g, template.SamplerNode)
	seed, ok := g[template.SamplerNode].Inputs["seed"].(workflow.Literal)
	require.True(t, ok)
	assert.True(t, seed.Val.RawEquals(workflow.Int(42).Val))
}

func TestBuildLipSyncProbesDuration(t *testing.T) {
	a := newTestApp(t, config.Default(), &Options{InputDir: "/engine/input"})

	g, warnings, err := a.Build(context.Background(), &Request{
		Action:        ActionLipSync,
		PortraitImage: "avatars/keeper.png",
		Audio:         "speech.wav",
		Duration:      3, // disagrees with the probed 7.5s
		Seed:          1,
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "using detected")
	duration, ok := g[template.PreDataNode].Inputs["duration"].(workflow.Literal)
	require.True(t, ok)
	assert.True(t, duration.Val.RawEquals(workflow.Float(7.5).Val))
}

func TestBuildRejectsInvalidGraph(t *testing.T) {
	a := newTestApp(t, config.Default(), &Options{})

	_, _, err := a.Build(context.Background(), &Request{
		Action: ActionPortrait,
		Prompt: "a portrait",
		Steps:  99999, // above the sampler's declared maximum
	})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.False(t, valErr.Result.Valid)
}

func TestBuildSkipsValidationWhenOff(t *testing.T) {
	cfg := config.Default()
	cfg.Validation = "off"
	a := newTestApp(t, cfg, &Options{})

	_, _, err := a.Build(context.Background(), &Request{
		Action: ActionPortrait,
		Prompt: "a portrait",
		Steps:  99999,
	})
	require.NoError(t, err)
}

func TestHandlePipeline(t *testing.T) {
	outputDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "portrait_1.png"), []byte("png"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/system_stats":
			w.Write([]byte(`{}`))
		case r.URL.Path == "/object_info":
			// Force the fallback to the bundled snapshot.
			w.WriteHeader(http.StatusInternalServerError)
		case r.URL.Path == "/prompt":
			w.Write([]byte(`{"prompt_id": "job-7"}`))
		case strings.HasPrefix(r.URL.Path, "/history/"):
			w.Write([]byte(`{"job-7": {
				"status": {"status_str": "success", "completed": true},
				"outputs": {"9": {"images": [{"filename": "portrait_1.png", "subfolder": ""}]}}
			}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Engine.URL = srv.URL
	cfg.Engine.StartTimeout = 2 * time.Second
	a := newTestApp(t, cfg, &Options{OutputDir: outputDir})

	resp, err := a.Handle(context.Background(), &Request{
		Action: ActionPortrait,
		Prompt: "a portrait",
		Seed:   1,
	})
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "job-7", resp.JobID)
	assert.Equal(t, "inline", resp.Storage)
	require.Len(t, resp.Files, 1)
	assert.Equal(t, "base64", resp.Files[0].Encoding)
}

func TestHandleSurfacesJobFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/system_stats":
			w.Write([]byte(`{}`))
		case r.URL.Path == "/object_info":
			w.WriteHeader(http.StatusInternalServerError)
		case r.URL.Path == "/prompt":
			w.Write([]byte(`{"prompt_id": "job-8"}`))
		case strings.HasPrefix(r.URL.Path, "/history/"):
			w.Write([]byte(`{"job-8": {"status": {"status_str": "error", "completed": false}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Engine.URL = srv.URL
	cfg.Engine.StartTimeout = 2 * time.Second
	a := newTestApp(t, cfg, &Options{})

	_, err := a.Handle(context.Background(), &Request{Action: ActionPortrait, Prompt: "x", Seed: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `status "error"`)
}
