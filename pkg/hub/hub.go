// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-blobot/internal/log"
	"github.com/teslashibe/go-blobot/pkg/protocol"
)

// WelcomeFunc returns the message a client receives when it connects.
// Returning nil sends nothing.
type WelcomeFunc func() []byte

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Name for logging
	name string

	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan []byte

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Mutex for client count (read-only access from outside)
	mu sync.RWMutex

	welcome WelcomeFunc
	running atomic.Bool
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// New creates a new Hub
func New(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Name returns the hub name.
func (h *Hub) Name() string {
	return h.name
}

// OnConnect sets the message queued for each new client. Call before Run.
func (h *Hub) OnConnect(fn WelcomeFunc) {
	h.welcome = fn
}

// Run is the hub's main loop. It returns nil once ctx is done, after
// disconnecting every client. Run must be called exactly once.
func (h *Hub) Run(ctx context.Context) error {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		h.mu.Lock()
		for client := range h.clients {
			delete(h.clients, client)
			close(client.send)
		}
		h.mu.Unlock()
		close(h.done)
		log.Debug("hub stopped", "hub", h.name)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			if h.welcome != nil {
				if data := h.welcome(); data != nil {
					client.send <- data
				}
			}
			h.mu.Unlock()
			log.Info("client connected", "hub", h.name, "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Info("client disconnected", "hub", h.name, "clients", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.sent.Add(1)
				default:
					// Client's buffer is full: drop the client
					close(client.send)
					delete(h.clients, client)
					log.Warn("dropped slow client", "hub", h.name)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends raw JSON to all connected clients
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.dropped.Add(1)
		log.Warn("broadcast channel full, dropping message", "hub", h.name)
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// Publish encodes and broadcasts a protocol message
func (h *Hub) Publish(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Stats is a snapshot of hub counters.
type Stats struct {
	Name    string `json:"name"`
	Clients int    `json:"clients"`
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
}

// Stats returns the hub counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Name:    h.name,
		Clients: h.ClientCount(),
		Sent:    h.sent.Load(),
		Dropped: h.dropped.Load(),
	}
}
