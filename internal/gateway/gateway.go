package gateway

import (
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zazapalm3012/ito-gameweb/internal/codec"
	"github.com/zazapalm3012/ito-gameweb/internal/lobby"
	"github.com/zazapalm3012/ito-gameweb/internal/room"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: Restrict in production
	},
}

// Connection represents a WebSocket client connection
type Connection struct {
	PlayerID string
	Name     string
	Conn     *websocket.Conn
	Send     chan []byte
	Gateway  *Gateway
	LastPing time.Time

	// Current room association
	RoomID string
	Room   *room.Room
}

// Gateway manages WebSocket connections
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]map[string]*Connection // gameID -> playerID -> connection
	lobby       *lobby.Lobby
}

// New creates a new Gateway instance
func New(lby *lobby.Lobby) *Gateway {
	return &Gateway{
		connections: make(map[string]map[string]*Connection),
		lobby:       lby,
	}
}

// SendToPlayer delivers a message to one player's live connection in one
// game. Player ids are client-supplied and only unique within a session,
// so the registry is keyed by (gameID, playerID).
func (g *Gateway) SendToPlayer(gameID, playerID string, data []byte) {
	g.mu.RLock()
	var c *Connection
	if conns := g.connections[gameID]; conns != nil {
		c = conns[playerID]
	}
	g.mu.RUnlock()

	if c != nil {
		select {
		case c.Send <- data:
		default:
			// Drop if buffer full
		}
	}
}

// HandleWebSocket handles WebSocket upgrade and connection. Identity is
// carried in the query string: /ws/game?gameId=&playerId=&playerName=
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	gameID := strings.TrimSpace(query.Get("gameId"))
	playerID := strings.TrimSpace(query.Get("playerId"))
	playerName := strings.TrimSpace(query.Get("playerName"))
	if gameID == "" || playerID == "" {
		http.Error(w, "gameId and playerId are required", http.StatusBadRequest)
		return
	}

	rm := g.lobby.Get(gameID)
	if rm == nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade error: %v", err)
		return
	}

	c := &Connection{
		PlayerID: playerID,
		Name:     playerName,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Gateway:  g,
		LastPing: time.Now(),
		RoomID:   gameID,
		Room:     rm,
	}

	g.mu.Lock()
	conns := g.connections[gameID]
	if conns == nil {
		conns = make(map[string]*Connection)
		g.connections[gameID] = conns
	}
	if old := conns[playerID]; old != nil {
		// A reconnect to the same game supersedes the old socket. The
		// same player id in another game is a different connection.
		old.Conn.Close()
	}
	conns[playerID] = c
	g.mu.Unlock()

	log.Printf("[Gateway] Client connected: player=%s game=%s, total: %d", playerID, gameID, g.connectionCount())

	go c.writePump()
	go c.readPump()

	if err := rm.SubmitEvent(room.Event{
		Type:     room.EventAttach,
		PlayerID: playerID,
		Name:     playerName,
	}); err != nil {
		log.Printf("[Gateway] Attach rejected for player %s: %v", playerID, err)
		c.sendError(err.Error())
		// Give the write pump a moment to flush before closing.
		time.AfterFunc(time.Second, func() { c.Conn.Close() })
	}
}

func (g *Gateway) connectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	total := 0
	for _, conns := range g.connections {
		total += len(conns)
	}
	return total
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(65536)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		c.LastPing = time.Now()
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] Read error: %v", err)
			}
			break
		}

		if messageType == websocket.TextMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	msg, err := codec.DecodeClientMessage(data)
	if err != nil {
		log.Printf("[Gateway] Bad message from player %s: %v", c.PlayerID, err)
		c.sendError("invalid message format")
		return
	}

	// The connection's own identity drives every action. Ids claimed in
	// the message body are ignored.
	switch msg.Type {
	case codec.ClientPlayCard:
		err = c.Room.SubmitEvent(room.Event{
			Type:     room.EventPlayCard,
			PlayerID: c.PlayerID,
			Card:     msg.CardValue,
		})
	case codec.ClientChangeTopic:
		err = c.Room.SubmitEvent(room.Event{
			Type:     room.EventChangeTopic,
			PlayerID: c.PlayerID,
			Topic:    msg.Topic,
		})
	}
	if err != nil {
		c.sendError(err.Error())
	}
}

func (c *Connection) sendError(msg string) {
	select {
	case c.Send <- codec.ErrorMessage(msg):
	default:
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	conns := g.connections[c.RoomID]
	current := conns != nil && conns[c.PlayerID] == c
	if current {
		delete(conns, c.PlayerID)
		if len(conns) == 0 {
			delete(g.connections, c.RoomID)
		}
	}
	g.mu.Unlock()

	if !current {
		// Superseded by a reconnect; the room still has the player.
		return
	}
	log.Printf("[Gateway] Client disconnected: player=%s, total: %d", c.PlayerID, g.connectionCount())

	if c.Room != nil {
		_ = c.Room.SubmitEvent(room.Event{
			Type:     room.EventDetach,
			PlayerID: c.PlayerID,
		})
	}
}
