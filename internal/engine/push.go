package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vk/promptweave/internal/ctxlog"
)

// PushEvent is one decoded message from the engine's push channel.
type PushEvent struct {
	// Type is the engine message type; only "progress" and "executing"
	// carry information the watcher uses.
	Type  string
	JobID string
	// Node is the node currently executing; empty on an "executing"
	// message is the engine's sentinel for "job finished".
	Node  string
	Value int
	Max   int
}

// Terminal reports whether the event signals job completion.
func (e PushEvent) Terminal() bool {
	return e.Type == "executing" && e.Node == ""
}

// PushChannel is an open push stream. Events is closed when the stream
// ends, whether by Close or by a connection error.
type PushChannel struct {
	conn   *websocket.Conn
	events chan PushEvent
	once   sync.Once
}

// Dial opens the engine's push channel for this client's identity. The
// stream is not delivery-guaranteed: connections can drop silently, which
// is exactly why the watcher races it against polling.
func (c *Client) Dial(ctx context.Context) (*PushChannel, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = "clientId=" + c.clientID

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	ch := &PushChannel{conn: conn, events: make(chan PushEvent, 16)}
	go ch.readLoop(ctxlog.FromContext(ctx))
	return ch, nil
}

// Events returns the decoded message stream.
func (ch *PushChannel) Events() <-chan PushEvent {
	return ch.events
}

// Close tears the connection down. Safe to call more than once and
// concurrently with the read loop.
func (ch *PushChannel) Close() error {
	var err error
	ch.once.Do(func() {
		err = ch.conn.Close()
	})
	return err
}

// wireMessage is the engine's push frame envelope.
type wireMessage struct {
	Type string `json:"type"`
	Data struct {
		PromptID string  `json:"prompt_id"`
		Node     *string `json:"node"`
		Value    int     `json:"value"`
		Max      int     `json:"max"`
	} `json:"data"`
}

func (ch *PushChannel) readLoop(logger *slog.Logger) {
	defer close(ch.events)
	for {
		msgType, data, err := ch.conn.ReadMessage()
		if err != nil {
			// Normal teardown and silent drops land here alike; the
			// consumer treats a closed stream as "push gone quiet".
			logger.Debug("Push channel read ended.", "error", err)
			return
		}
		if msgType != websocket.TextMessage {
			// Binary frames carry previews; nothing to decode.
			continue
		}
		var msg wireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Debug("Skipping undecodable push frame.", "error", err)
			continue
		}
		ev := PushEvent{
			Type:  msg.Type,
			JobID: msg.Data.PromptID,
			Value: msg.Data.Value,
			Max:   msg.Data.Max,
		}
		if msg.Data.Node != nil {
			ev.Node = *msg.Data.Node
		}
		select {
		case ch.events <- ev:
		default:
			// Consumer lagging. Push frames are advisory and polling is
			// the safety net, so dropping beats blocking the read loop.
		}
	}
}
