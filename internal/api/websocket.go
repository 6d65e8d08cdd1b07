package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pistol-arena/internal/game"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	wsSendBuffer   = 256
	wsWriteTimeout = 5 * time.Second
	wsMaxMessage   = 4 << 10

	// DefaultStateInterval is how often the hub pushes a snapshot.
	DefaultStateInterval = 100 * time.Millisecond
)

// wsEnvelope is every frame the hub writes.
type wsEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// wsRequest is every frame a client may send.
type wsRequest struct {
	Type  string        `json:"type"` // "input" or "console"
	Input *inputRequest `json:"input,omitempty"`
	Line  string        `json:"line,omitempty"`
}

// wsClient is one connection, optionally bound to a game client.
type wsClient struct {
	conn     *websocket.Conn
	ip       string
	clientID game.ClientID
	send     chan []byte
}

// WebSocketHub fans replicated messages and snapshots out to connections.
// Run owns the connection set; HandleWebSocket only registers.
type WebSocketHub struct {
	engine   EngineAPI
	messages <-chan game.Message
	upgrader websocket.Upgrader
	interval time.Duration

	clients    map[*wsClient]struct{}
	mu         sync.RWMutex
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}

	wsLimiter *WebSocketRateLimiter
}

// WebSocketHubConfig configures a hub.
type WebSocketHubConfig struct {
	Engine EngineAPI

	// Messages is the engine's outbox. Messages addressed to nobody
	// connected are discarded.
	Messages <-chan game.Message

	// StateInterval defaults to DefaultStateInterval.
	StateInterval time.Duration

	// Origins are allowed in addition to localhost.
	Origins []string
}

func NewWebSocketHub(cfg WebSocketHubConfig) *WebSocketHub {
	interval := cfg.StateInterval
	if interval <= 0 {
		interval = DefaultStateInterval
	}
	h := &WebSocketHub{
		engine:     cfg.Engine,
		messages:   cfg.Messages,
		interval:   interval,
		clients:    make(map[*wsClient]struct{}),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
	origins := cfg.Origins
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if IsAllowedOrigin(origin, origins) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Run serves the hub until ctx is done, then closes every connection.
func (h *WebSocketHub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer close(h.done)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("📱 Connection from %s (%d total)", c.ip, count)
			UpdateWSConnections(count)

		case c := <-h.unregister:
			if h.remove(c) {
				log.Printf("📱 Connection closed (%d remaining)", h.ClientCount())
			}

		case m, ok := <-h.messages:
			if !ok {
				h.messages = nil
				continue
			}
			h.deliver(m)

		case <-ticker.C:
			if h.ClientCount() == 0 {
				continue
			}
			if snap := h.engine.Snapshot(); snap != nil {
				h.broadcast("state", snap)
			}
		}
	}
}

// deliver routes a replicated message by its recipient.
func (h *WebSocketHub) deliver(m game.Message) {
	frame, err := json.Marshal(wsEnvelope{Event: "message", Data: m})
	if err != nil {
		return
	}
	h.mu.RLock()
	var slow []*wsClient
	for c := range h.clients {
		if m.To != "" && c.clientID != m.To {
			continue
		}
		if !c.enqueue(frame) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range slow {
		h.remove(c)
	}
	recordWSMessage(string(m.Kind))
}

func (h *WebSocketHub) broadcast(event string, data any) {
	frame, err := json.Marshal(wsEnvelope{Event: event, Data: data})
	if err != nil {
		return
	}
	h.mu.RLock()
	var slow []*wsClient
	for c := range h.clients {
		if !c.enqueue(frame) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range slow {
		h.remove(c)
	}
	recordWSMessage(event)
}

func (c *wsClient) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// remove drops c from the hub. Only Run calls it.
func (h *WebSocketHub) remove(c *wsClient) bool {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
		h.wsLimiter.Release(c.ip)
	}
	count := len(h.clients)
	h.mu.Unlock()
	if ok {
		UpdateWSConnections(count)
	}
	return ok
}

func (h *WebSocketHub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		h.wsLimiter.Release(c.ip)
	}
	h.mu.Unlock()
	UpdateWSConnections(0)
}

// ClientCount returns the number of open connections
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades a connection. "?client=<id>" binds it to a
// joined client so it receives that client's messages and may send input.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	id := game.ClientID(r.URL.Query().Get("client"))
	if id != "" {
		if _, ok := h.engine.Client(id); !ok {
			writeError(w, "unknown client", http.StatusNotFound)
			return
		}
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	c := &wsClient{conn: conn, ip: ip, clientID: id, send: make(chan []byte, wsSendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		h.wsLimiter.Release(ip)
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

func (h *WebSocketHub) writePump(c *wsClient) {
	defer c.conn.Close()
	for frame := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			h.drop(c)
			for range c.send {
			}
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func (h *WebSocketHub) readPump(c *wsClient) {
	defer h.drop(c)
	c.conn.SetReadLimit(wsMaxMessage)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if err := h.handleRequest(c, data); err != nil {
			reply, _ := json.Marshal(wsEnvelope{Event: "error", Data: err.Error()})
			c.enqueueSafe(h, reply)
		}
	}
}

// drop asks Run to remove c.
func (h *WebSocketHub) drop(c *wsClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// enqueueSafe sends a reply without racing Run closing c.send.
func (c *wsClient) enqueueSafe(h *WebSocketHub, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; ok {
		c.enqueue(frame)
	}
}

var errUnboundConnection = errors.New("connection is not bound to a client")

func (h *WebSocketHub) handleRequest(c *wsClient, data []byte) error {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errors.New("invalid message")
	}
	if c.clientID == "" {
		return errUnboundConnection
	}
	switch req.Type {
	case "input":
		if req.Input == nil {
			return errors.New("missing input")
		}
		return h.engine.SetInput(c.clientID, req.Input.update())
	case "console":
		return h.engine.SubmitCommand(c.clientID, req.Line)
	default:
		return errors.New("unknown message type")
	}
}
