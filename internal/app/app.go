// Package app wires the compiler, validator, engine client, watcher and
// storage into one request-handling pipeline.
package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/promptweave/internal/arch"
	"github.com/vk/promptweave/internal/compile"
	"github.com/vk/promptweave/internal/config"
	"github.com/vk/promptweave/internal/ctxlog"
	"github.com/vk/promptweave/internal/engine"
	"github.com/vk/promptweave/internal/schema"
	"github.com/vk/promptweave/internal/storage"
	"github.com/vk/promptweave/internal/template"
	"github.com/vk/promptweave/internal/watch"
)

// Options carries everything the CLI resolved for one invocation.
type Options struct {
	ConfigPath  string
	RequestPath string
	LogLevel    string
	LogFormat   string
	// DryRun compiles and validates but never submits.
	DryRun bool
	// InputDir is the engine's input directory; request file paths are
	// relative to it.
	InputDir string
	// OutputDir is where the engine writes produced files.
	OutputDir string
}

// App holds the wired pipeline for the lifetime of the process.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	cfg     config.Config
	opts    *Options
	compile *compile.Compiler
	model   schema.Model
	client  *engine.Client
	watcher *watch.Watcher
	store   *storage.Store
	probe   DurationProbe
}

// New builds the application from resolved options. The schema starts as
// the bundled snapshot; Run refreshes it from the live engine when one is
// reachable.
func New(outW io.Writer, opts *Options) (*App, error) {
	logger := newLogger(opts.LogLevel, opts.LogFormat, outW)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("Configuration resolved.", "engine_url", cfg.Engine.URL, "storage_enabled", cfg.Storage.URL != "")

	model, err := schema.Snapshot()
	if err != nil {
		return nil, err
	}

	client := engine.NewClient(cfg.Engine.URL, nil)
	return &App{
		outW:    outW,
		logger:  logger,
		cfg:     cfg,
		opts:    opts,
		compile: compile.New(arch.Default(), template.NewRepository()),
		model:   model,
		client:  client,
		watcher: watch.New(client, watch.ClientDialer(client), watch.Config{
			PollInterval: cfg.Watcher.PollInterval,
			Settle:       cfg.Watcher.Settle,
			Timeout:      cfg.Watcher.Timeout,
		}),
		store: storage.New(storage.Config{
			URL:    cfg.Storage.URL,
			Key:    cfg.Storage.Key,
			Bucket: cfg.Storage.Bucket,
		}, nil),
		probe: ProbeWithFFprobe,
	}, nil
}

// bind attaches the app logger to the context for everything downstream.
func (a *App) bind(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
