// Package watch resolves submitted jobs to their terminal history entry.
// It races the engine's push channel against status polling, because the
// push stream is best-effort: a dropped websocket would otherwise leave a
// finished job unobserved.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vk/promptweave/internal/ctxlog"
	"github.com/vk/promptweave/internal/engine"
)

// ErrTimeout is returned by Wait when the job does not reach a terminal
// state within the configured deadline.
var ErrTimeout = errors.New("job did not complete before the deadline")

// StatusSource answers "is this job terminal yet". *engine.Client
// satisfies it.
type StatusSource interface {
	History(ctx context.Context, jobID string) (*engine.HistoryEntry, bool, error)
}

// PushStream is an open push subscription. Events must be closed when the
// stream ends.
type PushStream interface {
	Events() <-chan engine.PushEvent
	Close() error
}

// PushDialer opens a push subscription. A failed dial is not fatal to a
// watch; polling carries it alone.
type PushDialer interface {
	Dial(ctx context.Context) (PushStream, error)
}

// DialerFunc adapts a dial function to PushDialer.
type DialerFunc func(ctx context.Context) (PushStream, error)

func (f DialerFunc) Dial(ctx context.Context) (PushStream, error) {
	return f(ctx)
}

// ClientDialer wraps *engine.Client so its concrete channel type satisfies
// PushStream.
func ClientDialer(c *engine.Client) PushDialer {
	return DialerFunc(func(ctx context.Context) (PushStream, error) {
		return c.Dial(ctx)
	})
}

// Config tunes one watcher. Zero values get defaults from DefaultConfig.
type Config struct {
	// PollInterval is the gap between history probes.
	PollInterval time.Duration
	// Settle is the grace period between a completion signal and the
	// authoritative history read. The engine writes history shortly
	// after emitting the terminal push frame, not atomically with it.
	Settle time.Duration
	// Timeout bounds the whole watch.
	Timeout time.Duration
}

// DefaultConfig matches the engine's observed write latencies.
func DefaultConfig() Config {
	return Config{
		PollInterval: 2 * time.Second,
		Settle:       250 * time.Millisecond,
		Timeout:      5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.Settle < 0 {
		c.Settle = def.Settle
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}

// Watcher waits for jobs to finish. One Watcher handles any number of
// sequential or concurrent Wait calls.
type Watcher struct {
	status StatusSource
	push   PushDialer
	cfg    Config
}

// New builds a watcher. A nil dialer disables the push path entirely and
// the watcher polls.
func New(status StatusSource, push PushDialer, cfg Config) *Watcher {
	return &Watcher{status: status, push: push, cfg: cfg.withDefaults()}
}

// transition is the one-shot completion latch. Both the push reader and
// the poll loop call complete; exactly one of them wins.
type transition struct {
	mu   sync.Mutex
	done bool
	// fired is closed by the winning complete call.
	fired chan struct{}
	cause string
}

func newTransition() *transition {
	return &transition{fired: make(chan struct{})}
}

// complete reports whether the caller won the race.
func (t *transition) complete(cause string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.cause = cause
	close(t.fired)
	return true
}

// Wait blocks until the job reaches a terminal state, then returns its
// history entry after an authoritative read. It rejects with ErrTimeout
// when the deadline passes first, and tears down the push channel and the
// poll loop on every exit path.
func (w *Watcher) Wait(ctx context.Context, handle engine.JobHandle) (*engine.HistoryEntry, error) {
	logger := ctxlog.FromContext(ctx).With("job_id", handle.ID)

	// Fast path: an already-terminal job needs no channel and no loop.
	if entry, ok, err := w.status.History(ctx, handle.ID); err == nil && ok {
		logger.Debug("Job already terminal on first probe.")
		return entry, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var stream PushStream
	if w.push != nil {
		var err error
		stream, err = w.push.Dial(ctx)
		if err != nil {
			// Push is an accelerator, not a requirement.
			logger.Warn("Push channel unavailable, relying on polling.", "error", err)
			stream = nil
		}
	}
	if stream != nil {
		defer stream.Close()
	}

	tr := newTransition()

	if stream != nil {
		go watchPush(stream, handle.ID, tr, logger)
	}
	go w.pollStatus(ctx, handle.ID, tr, logger)

	deadline := time.NewTimer(w.cfg.Timeout)
	defer deadline.Stop()

	select {
	case <-tr.fired:
	case <-deadline.C:
		return nil, fmt.Errorf("watching job %s: %w", handle.ID, ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	logger.Debug("Completion signalled.", "cause", tr.cause)
	return w.settleAndRead(ctx, handle.ID)
}

// watchPush drains the stream until it sees this job's terminal frame or
// the stream ends.
func watchPush(stream PushStream, jobID string, tr *transition, logger *slog.Logger) {
	for ev := range stream.Events() {
		if ev.Terminal() && ev.JobID == jobID {
			if tr.complete("push") {
				logger.Debug("Terminal push frame observed.")
			}
			return
		}
		if ev.Type == "progress" && ev.JobID == jobID {
			logger.Debug("Progress.", "value", ev.Value, "max", ev.Max)
		}
	}
	// Stream gone quiet; polling keeps the watch alive.
	logger.Debug("Push stream closed before completion.")
}

// pollStatus probes history on a fixed interval. Probe errors are
// transient by assumption and only logged.
func (w *Watcher) pollStatus(ctx context.Context, jobID string, tr *transition, logger *slog.Logger) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tr.fired:
			return
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return
		}
		_, ok, err := w.status.History(ctx, jobID)
		if err != nil {
			logger.Debug("History probe failed, will retry.", "error", err)
			continue
		}
		if ok {
			if tr.complete("poll") {
				logger.Debug("Terminal state observed by polling.")
			}
			return
		}
	}
}

// settleAndRead gives the engine its write window, then reads the entry
// that every caller of Wait gets as the single source of truth.
func (w *Watcher) settleAndRead(ctx context.Context, jobID string) (*engine.HistoryEntry, error) {
	if w.cfg.Settle > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(w.cfg.Settle):
		}
	}
	entry, ok, err := w.status.History(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("authoritative history read: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("job %s signalled completion but has no history entry", jobID)
	}
	return entry, nil
}
