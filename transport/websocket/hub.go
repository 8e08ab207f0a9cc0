package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (that *client) closeSend() {
	that.closeOnce.Do(func() {
		close(that.send)
	})
}

// Hub keeps the live connections and delivers events to them by connection id.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[string]*client),
	}
}

func (that *Hub) register(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[c.id] = c
}

func (that *Hub) unregister(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.clients[c.id]; ok && current == c {
		delete(that.clients, c.id)
	}

	c.closeSend()
}

// Notify queues event for connID without waiting for the write. A connection whose
// buffer is full is closed, which runs the usual disconnect path for it.
func (that *Hub) Notify(connID string, event entity.Event) {
	log := that.logger.With("method", "Notify", "connID", connID, "action", event.Action)

	data, err := json.Marshal(event)
	if err != nil {
		log.Error("failed to marshal event", "error", err)
		return
	}

	that.mu.RLock()
	c, ok := that.clients[connID]
	if !ok {
		that.mu.RUnlock()
		log.Debug("connection is gone, event dropped")
		return
	}

	// send is only closed under the write lock, so it is open here
	full := false
	select {
	case c.send <- data:
	default:
		full = true
	}
	that.mu.RUnlock()

	if full {
		log.Warn("send buffer is full, closing connection")
		that.unregister(c)
	}
}

// CloseAll asks every connection to close. Their read loops then run the disconnect path.
func (that *Hub) CloseAll() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for id, c := range that.clients {
		c.closeSend()
		delete(that.clients, id)
	}
}

func (that *Hub) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.clients)
}
