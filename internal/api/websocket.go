package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Use the centralized origin checker
		if IsAllowedOrigin(origin) {
			return true
		}

		// Log rejected origin for security monitoring
		log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// wsClient tracks a WebSocket connection with its source IP and a drop
// command limiter so one client cannot flood the board.
type wsClient struct {
	conn    *websocket.Conn
	ip      string
	dropLim *rate.Limiter
}

// WebSocketHub manages all WebSocket connections with DoS protection
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	// Connection limiting per IP
	wsLimiter *WebSocketRateLimiter

	// Per-connection drop commands per second
	maxDropsPerSec int
}

// NewWebSocketHub creates a new hub with connection limiting.
// maxDropsPerSec caps drop commands per connection; zero disables drops
// over the socket entirely.
func NewWebSocketHub(maxDropsPerSec int) *WebSocketHub {
	return &WebSocketHub{
		clients:        make(map[*websocket.Conn]*wsClient),
		broadcast:      make(chan []byte, 256),
		register:       make(chan *wsClient),
		unregister:     make(chan *websocket.Conn),
		wsLimiter:      NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		maxDropsPerSec: maxDropsPerSec,
	}
}

// Run starts the hub
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			h.mu.Unlock()

			count := len(h.clients)
			log.Printf("📱 Client connected from %s (%d total)", client.ip, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				// Release the connection slot for this IP
				h.wsLimiter.Release(client.ip)
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

			count := len(h.clients)
			log.Printf("📱 Client disconnected (%d remaining)", count)
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.clients {
				err := conn.WriteMessage(websocket.TextMessage, message)
				if err != nil {
					conn.Close()
					h.mu.RUnlock()
					h.mu.Lock()
					if client, ok := h.clients[conn]; ok {
						h.wsLimiter.Release(client.ip)
						delete(h.clients, conn)
					}
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
			IncrementWSMessages()
		}
	}
}

// Broadcast sends a message to all connected clients
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	msg := map[string]interface{}{
		"event": event,
		"data":  data,
	}

	jsonBytes, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- jsonBytes:
	default:
		// Channel full, skip (backpressure)
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop starts pushing game snapshots to connected clients
// at the given rate. Snapshots are read lock-free, so the loop never
// contends with the tick loop.
func (h *WebSocketHub) StartBroadcastLoop(engine EngineInterface, hz int) {
	if hz <= 0 {
		hz = 20
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))

	go func() {
		var lastSeq uint64
		for range ticker.C {
			if h.ClientCount() == 0 {
				continue
			}

			snap := engine.GetSnapshot()
			if snap == nil || snap.Sequence == lastSeq {
				continue
			}
			lastSeq = snap.Sequence
			UpdateBallCount(snap.BallCount)

			h.Broadcast("game:state", snap)
		}
	}()
}

// wsCommand is the envelope clients send over the socket.
type wsCommand struct {
	Action string   `json:"action"`
	X      *float64 `json:"x,omitempty"`
	Label  string   `json:"label,omitempty"`
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection.
// Clients may send commands: {"action":"drop","x":450}, {"action":"autoplay"},
// {"action":"speed","label":"x2"}.
func (h *WebSocketHub) HandleWebSocket(engine EngineInterface, w http.ResponseWriter, r *http.Request) {
	// Get client IP for rate limiting
	ip := GetClientIP(r)

	// Check total connection limit
	h.mu.RLock()
	totalConnections := len(h.clients)
	h.mu.RUnlock()

	if totalConnections >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", totalConnections)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	// Check per-IP connection limit
	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	// Upgrade to WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip) // Release the slot we reserved
		return
	}

	// Register the connection
	client := &wsClient{conn: conn, ip: ip}
	if h.maxDropsPerSec > 0 {
		client.dropLim = rate.NewLimiter(rate.Limit(h.maxDropsPerSec), h.maxDropsPerSec)
	}
	h.register <- client

	// Read messages (commands from client)
	go func() {
		defer func() {
			h.unregister <- conn
		}()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				break
			}

			var cmd wsCommand
			if err := json.Unmarshal(message, &cmd); err != nil {
				continue
			}

			h.handleCommand(engine, client, cmd)
		}
	}()
}

func (h *WebSocketHub) handleCommand(engine EngineInterface, client *wsClient, cmd wsCommand) {
	switch cmd.Action {
	case "drop":
		if client.dropLim == nil || !client.dropLim.Allow() {
			RecordConnectionRejected("rate_limit")
			return
		}
		x := -1.0
		if cmd.X != nil && *cmd.X >= 0 {
			x = *cmd.X
		}
		if engine.DropBall(x, "ws") {
			RecordDrop()
		}

	case "autoplay:on":
		engine.SetAutoplay(true)

	case "autoplay:off":
		engine.SetAutoplay(false)

	case "speed":
		if cmd.Label != "" {
			engine.SetSpeed(cmd.Label)
		}

	default:
		log.Printf("📨 Unknown WebSocket action from %s: %q", client.ip, cmd.Action)
	}
}
