package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096

	sendBufferSize = 64
)

// lobby is the registry surface the gateway needs.
type lobby interface {
	CreateRoom(host *entity.Player, roomName, password string) (*session.Session, error)
	GetRoom(id string) (*session.Session, error)
	ListRooms() []entity.RoomInfo
}

// Server is the connection gateway: it owns the mapping from transport
// connections to (room, player) bindings, detects disconnects and turns
// them into session-level departures after a grace period.
type Server struct {
	logger *slog.Logger
	lobby  lobby

	upgrader websocket.Upgrader
	grace    time.Duration

	mu       sync.RWMutex
	clients  map[string]*client
	detached map[string]*detachedPlayer

	handlers map[string]func(ctx context.Context, c *client, msg *Message) error
}

// detachedPlayer is a player whose connection dropped while bound to a
// room. If no reconnect arrives before the timer fires, the binding turns
// into a leave.
type detachedPlayer struct {
	roomID string
	timer  *time.Timer
}

type client struct {
	server *Server
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.Mutex
	closed bool
	id     string
	name   string
	roomID string
}

func New(logger *slog.Logger, lobby lobby, graceSeconds int) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		lobby:  lobby,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		grace:    time.Duration(graceSeconds) * time.Second,
		clients:  make(map[string]*client),
		detached: make(map[string]*detachedPlayer),
		handlers: make(map[string]func(context.Context, *client, *Message) error),
	}

	server.handlers["connect"] = server.handleConnect
	server.handlers["listRooms"] = server.handleListRooms
	server.handlers["createRoom"] = server.handleCreateRoom
	server.handlers["joinRoom"] = server.handleJoinRoom
	server.handlers["leaveRoom"] = server.handleLeaveRoom
	server.handlers["startGame"] = server.handleStartGame
	server.handlers["placePiece"] = server.handlePlacePiece
	server.handlers["requestRestart"] = server.handleRequestRestart
	server.handlers["sendMessage"] = server.handleSendMessage

	return server
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveConnection - upgrades the connection and runs its pumps.
func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	newClient := &client{
		id:     uuid.NewString(),
		server: that,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}

	that.register(newClient)

	log.Info("WebSocket connection established", "playerID", newClient.playerID())

	go newClient.writePump()
	newClient.readPump(ctx)
}

func (that *Server) register(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	id := c.playerID()
	if old, ok := that.clients[id]; ok && old != c {
		old.close()
	}
	that.clients[id] = c
}

// rebind - moves a client's identity to the one it used before the
// connection dropped, resuming the pending room binding. Only identities
// waiting out a disconnect grace period can be claimed; a live player's id
// cannot be taken over by a new connection. Reports whether a binding was
// resumed.
func (that *Server) rebind(c *client, playerID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	pending, ok := that.detached[playerID]
	if !ok {
		return false
	}

	pending.timer.Stop()
	delete(that.detached, playerID)

	delete(that.clients, c.playerID())
	c.setPlayerID(playerID)

	if old, ok := that.clients[playerID]; ok && old != c {
		old.close()
	}
	that.clients[playerID] = c
	c.setRoom(pending.roomID)

	return true
}

// handleDisconnect - runs when a connection's read pump exits. A client
// still bound to a room gets a grace period to reconnect; after that the
// binding becomes a leave. A binding already cleared by an explicit
// leaveRoom produces no second leave.
func (that *Server) handleDisconnect(c *client) {
	playerID := c.playerID()
	log := that.logger.With("method", "handleDisconnect", "playerID", playerID)

	c.close()

	that.mu.Lock()
	if current, ok := that.clients[playerID]; !ok || current != c {
		that.mu.Unlock()
		return
	}
	delete(that.clients, playerID)

	roomID := c.room()
	if roomID == "" {
		that.mu.Unlock()
		log.Info("player disconnected")
		return
	}

	that.detached[playerID] = &detachedPlayer{
		roomID: roomID,
		timer: time.AfterFunc(that.grace, func() {
			that.leaveAfterGrace(playerID, roomID)
		}),
	}
	that.mu.Unlock()

	log.Info("player disconnected, leave pending", "roomID", roomID)
}

func (that *Server) leaveAfterGrace(playerID, roomID string) {
	log := that.logger.With("method", "leaveAfterGrace", "playerID", playerID)

	that.mu.Lock()
	if _, ok := that.detached[playerID]; !ok {
		that.mu.Unlock()
		return
	}
	delete(that.detached, playerID)
	that.mu.Unlock()

	existing, err := that.lobby.GetRoom(roomID)
	if err != nil {
		log.Error("failed to find room for disconnected player", "error", err)
		return
	}

	if _, err = existing.Leave(playerID); err != nil {
		log.Error("failed to remove disconnected player", "error", err)
		return
	}

	log.Info("disconnected player removed from room", "roomID", roomID)
}

// Send - delivers a session event to one player. Part of the session.Sink
// contract. Events for players without a live connection are dropped; the
// room snapshot pushed on reconnect catches them up.
func (that *Server) Send(playerID, action string, payload any) {
	that.mu.RLock()
	target, ok := that.clients[playerID]
	that.mu.RUnlock()

	if !ok {
		return
	}

	target.enqueue(action, payload)
}

// BroadcastLobby - pushes the room list to every connected client that is
// not inside a room.
func (that *Server) BroadcastLobby(rooms []entity.RoomInfo) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, c := range that.clients {
		if c.room() != "" {
			continue
		}
		c.enqueue("updateRoomList", rooms)
	}
}

func (c *client) playerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

func (c *client) setPlayerID(id string) {
	c.mu.Lock()
	c.id = id
	c.mu.Unlock()
}

func (c *client) room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *client) setRoom(roomID string) {
	c.mu.Lock()
	c.roomID = roomID
	c.mu.Unlock()
}

func (c *client) playerName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *client) setPlayerName(name string) {
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
}

// enqueue - marshals and queues one outbound message. A client that
// cannot keep up has its message dropped rather than blocking the session
// that is broadcasting. The send itself happens under the client mutex so
// a broadcast racing close never hits a closed channel.
func (c *client) enqueue(action string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		c.server.logger.Error("failed to marshal payload", "action", action, "error", err)
		return
	}

	body, err := json.Marshal(Message{Action: action, Payload: raw})
	if err != nil {
		c.server.logger.Error("failed to marshal message", "action", action, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- body:
	default:
		c.server.logger.Warn("send buffer full, dropping message", "playerID", c.id, "action", action)
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.send)
}

// readPump - reads client intents and dispatches them to the action
// handlers until the connection drops.
func (c *client) readPump(ctx context.Context) {
	log := c.server.logger.With("method", "readPump")

	defer c.server.handleDisconnect(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, body, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("unexpected close", "playerID", c.playerID(), "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(body, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := c.server.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			continue
		}

		if err = handler(ctx, c, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// writePump - drains the send queue to the connection and keeps the
// connection alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case body, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
