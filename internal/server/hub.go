// Package server implements the warga daemon internals: the websocket
// broadcast hub that fans committed mutations out to every other client,
// and the HTTP handlers for the startup snapshot and the external
// integrations.
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/smartwarga-dev/warga-store/internal/engine"
	"github.com/smartwarga-dev/warga-store/internal/relay"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 20 // whole collections travel in one frame
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The daemon sits behind the same origin as the app in production and
	// on localhost in development; origin checks add nothing here.
	CheckOrigin: func(*http.Request) bool { return true },
}

type inbound struct {
	sender *client
	data   []byte
}

// Hub connects all clients of one neighborhood installation. It owns no
// state beyond the latest published value per collection, which it keeps
// only to serve the startup snapshot; messages are forwarded as-is with no
// history replay.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan inbound

	mu      sync.RWMutex
	clients map[*client]bool
	latest  map[string]json.RawMessage

	persister *engine.Persistence
	log       zerolog.Logger
}

// NewHub creates a hub. When a persister is given, the latest values are
// preloaded from it and every accepted publish is written back, so the
// snapshot survives a daemon restart.
func NewHub(p *engine.Persistence, log zerolog.Logger) *Hub {
	latest := make(map[string]json.RawMessage)
	if p != nil {
		latest = p.LoadAll()
	}
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan inbound, 64),
		clients:    make(map[*client]bool),
		latest:     latest,
		persister:  p,
		log:        log,
	}
}

// Run serializes all hub bookkeeping onto one goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.log.Info().Int("clients", h.clientCount()).Msg("sync client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.log.Info().Int("clients", h.clientCount()).Msg("sync client disconnected")

		case in := <-h.broadcast:
			h.accept(in)
		}
	}
}

func (h *Hub) accept(in inbound) {
	var msg relay.Message
	if err := json.Unmarshal(in.data, &msg); err != nil {
		h.log.Warn().Err(err).Msg("dropping malformed publish")
		return
	}
	if _, ok := engine.Spec(msg.Collection); !ok {
		h.log.Warn().Str("collection", msg.Collection).Msg("dropping publish for unknown collection")
		return
	}

	h.mu.Lock()
	h.latest[msg.Collection] = msg.Value
	h.mu.Unlock()

	if h.persister != nil {
		if err := h.persister.SaveCollection(msg.Collection, msg.Value); err != nil {
			h.log.Error().Err(err).Str("collection", msg.Collection).Msg("failed to persist latest value")
		}
	}

	// Fan out to everyone but the sender. Slow clients are dropped rather
	// than allowed to stall the hub.
	h.mu.Lock()
	for c := range h.clients {
		if c == in.sender {
			continue
		}
		select {
		case c.send <- in.data:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Latest returns a copy of the most recent value per collection.
func (h *Hub) Latest() map[string]json.RawMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(h.latest))
	for name, value := range h.latest {
		out[name] = value
	}
	return out
}

// ServeWS upgrades a request to a websocket and joins it to the hub.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	cl := &client{hub: h, conn: conn, send: make(chan []byte, 16)}
	h.register <- cl

	go cl.writePump()
	go cl.readPump()
}

type client struct {
	hub  *Hub
	conn *gorilla.Conn
	send chan []byte
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.hub.broadcast <- inbound{sender: c, data: data}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(gorilla.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(gorilla.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(gorilla.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
