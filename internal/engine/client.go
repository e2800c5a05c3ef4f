// Package engine is the client for the graph-execution engine's HTTP and
// websocket APIs: graph submission, job history, capability fetching, and
// the push notification channel.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vk/promptweave/internal/ctxlog"
	"github.com/vk/promptweave/internal/schema"
	"github.com/vk/promptweave/internal/workflow"
)

// Client talks to one engine instance. It is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	clientID string
}

// NewClient builds a client for the engine at baseURL (e.g.
// "http://127.0.0.1:8188"). A nil httpClient falls back to a client with a
// 30s request timeout. Each Client gets its own push-channel identity.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:  baseURL,
		http:     httpClient,
		clientID: uuid.NewString(),
	}
}

// ClientID returns the identity used on the push channel; push messages
// are routed back to the client that submitted with the same id.
func (c *Client) ClientID() string {
	return c.clientID
}

// Submit queues a compiled graph and returns the engine's job handle.
// Rejections carry the engine's error body verbatim, since it names the
// offending nodes.
func (c *Client) Submit(ctx context.Context, g workflow.Graph) (JobHandle, error) {
	payload, err := json.Marshal(map[string]any{
		"prompt":    g,
		"client_id": c.clientID,
	})
	if err != nil {
		return JobHandle{}, fmt.Errorf("encoding graph: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/prompt", bytes.NewReader(payload))
	if err != nil {
		return JobHandle{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return JobHandle{}, fmt.Errorf("submitting graph: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		return JobHandle{}, fmt.Errorf("engine rejected graph (%d): %s", resp.StatusCode, body)
	}

	var out struct {
		PromptID string `json:"prompt_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return JobHandle{}, fmt.Errorf("decoding submission response: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Graph queued.", "job_id", out.PromptID)
	return JobHandle{ID: out.PromptID}, nil
}

// History fetches the job's history entry. The boolean reports whether the
// entry exists yet; absence means the job has not reached a terminal state.
func (c *Client) History(ctx context.Context, jobID string) (*HistoryEntry, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history/"+jobID, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("querying history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("history query failed with status %d", resp.StatusCode)
	}

	var entries map[string]HistoryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, false, fmt.Errorf("decoding history: %w", err)
	}
	entry, ok := entries[jobID]
	if !ok {
		return nil, false, nil
	}
	return &entry, true, nil
}

// FetchSchema queries the engine's live capability description.
func (c *Client) FetchSchema(ctx context.Context) (schema.Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/object_info", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching capability document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("capability fetch failed with status %d", resp.StatusCode)
	}
	return schema.Parse(resp.Body)
}

// WaitReady polls the engine's stats endpoint until it responds or the
// timeout elapses, covering the engine's startup window.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) error {
	logger := ctxlog.FromContext(ctx)
	deadline := time.Now().Add(timeout)
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/system_stats", nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("engine not ready within %s", timeout)
		}
		logger.Debug("Engine not ready yet, retrying.")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
