package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

type roomManager interface {
	CreateRoom(connID string) (string, error)
	JoinRoom(connID, code string) error
	MakeMove(connID string, cmd entity.MoveCommand) error
	RequestRestart(connID, code string) error
	RejectRestart(connID, code string) error
	Leave(connID string)
}

type Options struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	AllowedOrigins []string
}

func DefaultOptions() Options {
	return Options{
		SendBuffer:     256,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 4096,
	}
}

type Server struct {
	logger   *slog.Logger
	hub      *Hub
	manager  roomManager
	opts     Options
	upgrader websocket.Upgrader
	conns    sync.WaitGroup

	handlers map[string]func(c *client, msg *Message) error
}

func New(logger *slog.Logger, hub *Hub, manager roomManager, opts Options) *Server {
	server := &Server{
		logger:  logger,
		hub:     hub,
		manager: manager,
		opts:    opts,

		handlers: make(map[string]func(*client, *Message) error),
	}

	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     server.checkOrigin,
	}

	server.handlers[entity.ActionCreateRoom] = server.handleCreateRoom
	server.handlers[entity.ActionJoinRoom] = server.handleJoinRoom
	server.handlers[entity.ActionMakeMove] = server.handleMakeMove
	server.handlers[entity.ActionRequestRestart] = server.handleRequestRestart
	server.handlers[entity.ActionRejectRestart] = server.handleRejectRestart
	server.handlers[entity.ActionLeaveRoom] = server.handleLeaveRoom

	return server
}

// ServeHTTP upgrades the request and serves the connection until it drops.
func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	that.conns.Add(1)
	defer that.conns.Done()

	c := &client{
		id:   pkg.GenerateConnectionID(),
		conn: conn,
		send: make(chan []byte, that.opts.SendBuffer),
	}

	that.hub.register(c)
	that.hub.Notify(c.id, entity.Event{
		Action:  entity.ActionConnected,
		Payload: entity.ConnectedPayload{ConnectionID: c.id},
	})

	log.Info("WebSocket connection established", "connID", c.id, "remoteAddr", r.RemoteAddr)

	go that.writePump(c)
	that.readPump(c)
}

// Wait blocks until every served connection has run its disconnect path or ctx is done.
func (that *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		that.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for connections: %w", ctx.Err())
	}
}

func (that *Server) checkOrigin(r *http.Request) bool {
	if len(that.opts.AllowedOrigins) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	return slices.Contains(that.opts.AllowedOrigins, origin)
}

// readPump dispatches inbound messages. Whatever ends the loop, the connection's seat is
// released through the same path as leave_room.
func (that *Server) readPump(c *client) {
	log := that.logger.With("method", "readPump", "connID", c.id)

	defer func() {
		that.hub.unregister(c)
		that.manager.Leave(c.id)
		_ = c.conn.Close()

		log.Info("WebSocket connection closed")
	}()

	c.conn.SetReadLimit(that.opts.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(that.opts.PongWait)); err != nil {
		log.Error("failed to set read deadline", "error", err)
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(that.opts.PongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("unexpected close", "error", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			log.Debug("ignoring non-text message", "type", messageType)
			continue
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			continue
		}

		if err = handler(c, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) writePump(c *client) {
	log := that.logger.With("method", "writePump", "connID", c.id)

	ticker := time.NewTicker(that.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(that.opts.WriteWait)); err != nil {
				log.Error("failed to set write deadline", "error", err)
			}

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(that.opts.WriteWait)); err != nil {
				log.Error("failed to set write deadline", "error", err)
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
