// Package relay implements the client side of the sync channel: a websocket
// connection to the warga daemon over which full collection values are
// published and received. The relay is optional - a nil *Relay is valid and
// every method on it degrades to a no-op, which is single-client mode.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// DefaultDialer is the gorilla dialer used for the sync channel.
var DefaultDialer = &gorilla.Dialer{
	Proxy:             gorilla.DefaultDialer.Proxy,
	HandshakeTimeout:  10 * time.Second,
	EnableCompression: true,
}

// Message is one sync-channel frame: the full current value of one
// collection. There are no deltas and no acknowledgements.
type Message struct {
	Collection string          `json:"collection"`
	Value      json.RawMessage `json:"value"`
}

// Handler receives remote updates, one collection value at a time.
type Handler func(collection string, value json.RawMessage)

// Relay is a live connection to the daemon's broadcast hub.
type Relay struct {
	baseURL string
	conn    *gorilla.Conn
	http    *http.Client
	log     zerolog.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	handler Handler
	closed  bool
}

// Dial connects to the daemon at baseURL (an http or https address) and
// starts the background read loop.
func Dial(ctx context.Context, baseURL string, log zerolog.Logger) (*Relay, error) {
	r := &Relay{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}

	wsURL := "ws" + strings.TrimPrefix(r.baseURL, "http") + "/ws"
	conn, res, err := DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	defer res.Body.Close()

	r.conn = conn
	go r.readLoop()
	return r, nil
}

// OnRemoteUpdate registers the handler invoked for every received frame.
func (r *Relay) OnRemoteUpdate(h Handler) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = h
}

// Publish sends one collection's full value to every other connected
// client. Best effort: there is no acknowledgement and no retry.
func (r *Relay) Publish(collection string, value json.RawMessage) error {
	if r == nil {
		return nil
	}

	data, err := json.Marshal(Message{Collection: collection, Value: value})
	if err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.conn.WriteMessage(gorilla.TextMessage, data)
}

// Snapshot fetches the daemon's latest value for every collection. This is
// the startup full-state fetch; the websocket itself never replays history.
func (r *Relay) Snapshot(ctx context.Context) (map[string]json.RawMessage, error) {
	if r == nil {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/state", nil)
	if err != nil {
		return nil, err
	}
	res, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch state: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch state: unexpected status %d", res.StatusCode)
	}

	var state map[string]json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

// BaseURL returns the daemon address this relay is connected to.
func (r *Relay) BaseURL() string {
	if r == nil {
		return ""
	}
	return r.baseURL
}

// Close shuts the connection down and stops the read loop.
func (r *Relay) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return r.conn.Close()
}

func (r *Relay) readLoop() {
	for {
		_, data, err := r.conn.ReadMessage()
		if err != nil {
			r.mu.Lock()
			closed := r.closed
			r.mu.Unlock()
			if !closed {
				r.log.Warn().Err(err).Msg("sync channel closed, continuing in local-only mode")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			r.log.Warn().Err(err).Msg("discarding malformed sync frame")
			continue
		}

		r.mu.Lock()
		handler := r.handler
		r.mu.Unlock()
		if handler != nil {
			handler(msg.Collection, msg.Value)
		}
	}
}
