package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/promptweave/internal/engine"
	"github.com/vk/promptweave/internal/storage"
	"github.com/vk/promptweave/internal/validate"
	"github.com/vk/promptweave/internal/workflow"
)

// Response is the terminal result of one handled request.
type Response struct {
	Status   string               `json:"status"`
	Action   string               `json:"action"`
	JobID    string               `json:"prompt_id,omitempty"`
	Files    []storage.StoredFile `json:"files,omitempty"`
	Warnings []string             `json:"warnings,omitempty"`
	// Storage names the delivery mechanism: "bucket" or "inline".
	Storage string `json:"storage,omitempty"`
}

// ValidationError reports a graph that failed contract validation before
// submission.
type ValidationError struct {
	Result validate.Result
}

func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Result.Diagnostics))
	for _, d := range e.Result.Diagnostics {
		lines = append(lines, d.String())
	}
	return fmt.Sprintf("graph failed validation with %d violation(s): %s",
		len(e.Result.Diagnostics), strings.Join(lines, "; "))
}

// Build compiles the request into an engine graph and runs the configured
// contract validation. The returned warnings are advisory (currently only
// the duration mismatch for lip-sync).
func (a *App) Build(ctx context.Context, req *Request) (workflow.Graph, []string, error) {
	ctx = a.bind(ctx)
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	var (
		g        workflow.Graph
		warnings []string
		err      error
	)
	switch req.Action {
	case ActionPortrait:
		if req.SourceImage != "" {
			g, err = a.compile.ImageToImage(req.imageParams())
		} else {
			g, err = a.compile.TextToImage(req.imageParams())
		}
	case ActionSpeech:
		g, err = a.compile.Speech(req.speechParams())
	case ActionLipSync:
		audioPath := filepath.Join(a.opts.InputDir, req.Audio)
		duration, warning, probeErr := resolveDuration(ctx, a.probe, audioPath, req.Duration)
		if probeErr != nil {
			return nil, nil, probeErr
		}
		if warning != "" {
			warnings = append(warnings, warning)
		}
		g, err = a.compile.LipSync(req.lipSyncParams(duration))
	default:
		err = fmt.Errorf("unknown action: %q", req.Action)
	}
	if err != nil {
		return nil, nil, err
	}

	if mode, on := a.validationMode(); on {
		result := validate.Graph(g, a.model, mode)
		if !result.Valid {
			return nil, nil, &ValidationError{Result: result}
		}
		a.logger.Debug("Graph validated.",
			"nodes", result.Stats.NodeCount,
			"connections", result.Stats.ConnectionCount,
			"unknown_kinds", result.Stats.UnknownKinds)
	}
	return g, warnings, nil
}

func (a *App) validationMode() (validate.Mode, bool) {
	switch a.cfg.Validation {
	case "permissive":
		return validate.Permissive, true
	case "off":
		return 0, false
	default:
		return validate.Strict, true
	}
}

// Handle runs the full pipeline for one request: compile, validate,
// submit, watch, collect and publish.
func (a *App) Handle(ctx context.Context, req *Request) (*Response, error) {
	ctx = a.bind(ctx)

	g, warnings, err := a.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := a.client.WaitReady(ctx, a.cfg.Engine.StartTimeout); err != nil {
		return nil, err
	}

	// Refresh the capability model from the live engine; the bundled
	// snapshot stays in place if the fetch fails.
	if model, err := a.client.FetchSchema(ctx); err != nil {
		a.logger.Warn("Could not refresh capability model from engine.", "error", err)
	} else {
		a.model = model
	}

	handle, err := a.client.Submit(ctx, g)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Job submitted.", "job_id", handle.ID, "action", req.Action)

	entry, err := a.watcher.Wait(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", handle.ID, err)
	}
	if !entry.Succeeded() {
		return nil, fmt.Errorf("job %s failed with status %q (messages: %v)",
			handle.ID, entry.Status.StatusStr, entry.Status.Messages)
	}

	produced := engine.OutputFiles(entry)
	if len(produced) == 0 {
		return nil, fmt.Errorf("job %s produced no output files", handle.ID)
	}

	local := make([]storage.LocalFile, 0, len(produced))
	for _, f := range produced {
		local = append(local, storage.LocalFile{
			Type:     f.Type,
			Filename: f.Filename,
			Path:     filepath.Join(a.opts.OutputDir, f.Subfolder, f.Filename),
		})
	}
	stored := a.store.Publish(ctx, local)

	delivery := "inline"
	if a.store.Enabled() {
		delivery = "bucket"
	}
	return &Response{
		Status:   "success",
		Action:   req.Action,
		JobID:    handle.ID,
		Files:    stored,
		Warnings: warnings,
		Storage:  delivery,
	}, nil
}
