// Package notify streams notices and role-switch directives to the host plugin
// over server-sent events.
package notify

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/teamenforcer/internal/metrics"
	"github.com/mcoot/teamenforcer/internal/model"
)

// DeliverTimeout bounds how long Deliver waits for the hub to accept an event
const DeliverTimeout = 2 * time.Second

// delivery is an event whose sender waits for the number of clients reached
type delivery struct {
	message []byte
	reached chan int
}

// Hub fans messages out to every connected stream client
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	deliver    chan delivery
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a hub. Call Run on its own goroutine to start it.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "notify")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		deliver:    make(chan delivery),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("notify hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			metrics.SetStreamClients(clientCount)
			h.logger.Info("stream client registered",
				slog.String("remote", client.remote),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				metrics.SetStreamClients(clientCount)
				h.logger.Info("stream client unregistered",
					slog.String("remote", client.remote),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			if reached, clients := h.fanOut(message); reached < clients {
				h.logger.Warn("stream message dropped - client buffer full",
					slog.Int("dropped", clients-reached))
			}

		case d := <-h.deliver:
			reached, _ := h.fanOut(d.message)
			d.reached <- reached

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			metrics.SetStreamClients(0)
			h.logger.Info("notify hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// fanOut offers message to every client without blocking
func (h *Hub) fanOut(message []byte) (reached, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- message:
			reached++
		default:
		}
	}
	return reached, len(h.clients)
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastEvent sends an SSE event with a name and data to all clients
func (h *Hub) BroadcastEvent(eventName, data string) {
	select {
	case h.broadcast <- formatSSEMessage(eventName, data):
	default:
		h.logger.Warn("stream broadcast dropped - hub buffer full",
			slog.String("event", eventName))
	}
}

// Deliver sends an event that must reach the host. It fails with
// model.ErrHostUnreachable unless at least one client accepted it.
func (h *Hub) Deliver(eventName, data string) error {
	d := delivery{message: formatSSEMessage(eventName, data), reached: make(chan int, 1)}
	timeout := time.NewTimer(DeliverTimeout)
	defer timeout.Stop()

	select {
	case h.deliver <- d:
	case <-h.done:
		return fmt.Errorf("%w: hub closed", model.ErrHostUnreachable)
	case <-timeout.C:
		return fmt.Errorf("%w: hub busy", model.ErrHostUnreachable)
	}

	if reached := <-d.reached; reached == 0 {
		h.logger.Error("stream event not delivered",
			slog.String("event", eventName))
		return fmt.Errorf("%w: no stream client accepted %s", model.ErrHostUnreachable, eventName)
	}
	return nil
}

// Close shuts down the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatSSEMessage formats an SSE message, prefixing every data line
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits on \n, dropping \r and a trailing empty line
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
