// Package ws is the live player transport. Each websocket connection is one
// player: opening it connects the player to matchmaking, frames sent on it
// submit moves, and closing the player's last connection disconnects them.
// The Hub also implements services.Notifier, pushing every feedback message
// to the connections of the player it is addressed to.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-tictactoe-backend/internal/domain"
	"github.com/tbourn/go-tictactoe-backend/internal/observability"
	"github.com/tbourn/go-tictactoe-backend/internal/services"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size.
	maxMessageSize = 512

	// Bound on each service call made on behalf of a connection.
	opTimeout = 5 * time.Second

	maxPlayerIDLen = 64
)

// Sessions is the matchmaking side used on open and close.
type Sessions interface {
	Connect(ctx context.Context, player string) (*domain.Game, error)
	Disconnect(ctx context.Context, player string) error
}

// Mover submits moves.
type Mover interface {
	Play(ctx context.Context, gameID uint32, player string, position int) (*services.PlayOutcome, error)
}

// Frame is an outbound message.
type Frame struct {
	Event   string     `json:"event"`
	Player  string     `json:"player,omitempty"`
	GameID  uint32     `json:"game_id,omitempty"`
	Message string     `json:"message,omitempty"`
	When    *time.Time `json:"when,omitempty"`
}

// Command is an inbound message.
type Command struct {
	Action   string `json:"action"`
	GameID   uint32 `json:"game_id"`
	Position *int   `json:"position"`
}

// Outbound event names.
const (
	EventHello    = "hello"
	EventFeedback = "feedback"
	EventError    = "error"
)

// Client is one player connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	player string
}

// outbound is a frame addressed to a single connection.
type outbound struct {
	client *Client
	data   []byte
}

// Hub tracks open connections per player. All map access, every send on a
// client's send channel and its close happen on the Run goroutine.
type Hub struct {
	players map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	deliver    chan domain.Feedback
	direct     chan outbound
	done       chan struct{}

	sessions Sessions
	mover    Mover
	upgrader websocket.Upgrader
}

// NewHub returns a hub dispatching to sessions and mover. allowedOrigins
// restricts the Origin header on upgrade; empty allows any origin.
func NewHub(sessions Sessions, mover Mover, allowedOrigins []string) *Hub {
	h := &Hub{
		players:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan domain.Feedback, 256),
		direct:     make(chan outbound),
		done:       make(chan struct{}),
		sessions:   sessions,
		mover:      mover,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimSpace(o)] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Run is the hub's event loop. It returns when ctx is cancelled, closing
// every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			// Shutdown closes connections without abandoning their games.
			for _, clients := range h.players {
				for c := range clients {
					h.remove(c)
				}
			}
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case fb := <-h.deliver:
			h.deliverFeedback(fb)
		case o := <-h.direct:
			h.sendTo(o.client, o.data)
		}
	}
}

// Deliver queues fb for the connections of fb.PlayerID. Players without a
// connection simply miss the live copy; the persisted one remains readable.
func (h *Hub) Deliver(fb domain.Feedback) {
	select {
	case h.deliver <- fb:
	case <-h.done:
	}
}

// ServeWS upgrades the request and starts the connection's pumps. The player
// is taken from the "player" query parameter, or a random id is assigned.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	player := strings.TrimSpace(r.URL.Query().Get("player"))
	if player == "" {
		player = uuid.NewString()
	}
	if len(player) > maxPlayerIDLen {
		http.Error(w, "player id too long", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		player: player,
	}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()

	c.push(Frame{Event: EventHello, Player: player})
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if _, err := h.sessions.Connect(ctx, player); err != nil {
		log.Error().Err(err).Str("player_id", player).Msg("connect")
		c.push(Frame{Event: EventError, Message: "could not join a game"})
	}

	go c.readPump()
}

func (h *Hub) registerClient(c *Client) {
	if h.players[c.player] == nil {
		h.players[c.player] = make(map[*Client]bool)
	}
	h.players[c.player][c] = true
	observability.LiveConnections.Inc()
	log.Debug().Str("player_id", c.player).Int("connections", len(h.players[c.player])).Msg("ws client registered")
}

// remove drops c and reports whether it was the player's last connection.
func (h *Hub) remove(c *Client) (last bool) {
	clients, ok := h.players[c.player]
	if !ok || !clients[c] {
		return false
	}
	delete(clients, c)
	close(c.send)
	observability.LiveConnections.Dec()

	if len(clients) > 0 {
		return false
	}
	delete(h.players, c.player)
	return true
}

func (h *Hub) unregisterClient(c *Client) {
	if !h.remove(c) {
		return
	}
	log.Debug().Str("player_id", c.player).Msg("ws player gone")

	// Disconnect delivers feedback through the hub, so it cannot run here.
	go func(player string) {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := h.sessions.Disconnect(ctx, player); err != nil {
			log.Error().Err(err).Str("player_id", player).Msg("disconnect")
		}
	}(c.player)
}

func (h *Hub) deliverFeedback(fb domain.Feedback) {
	clients := h.players[fb.PlayerID]
	if len(clients) == 0 {
		return
	}
	when := fb.When
	data, err := json.Marshal(Frame{Event: EventFeedback, GameID: fb.GameID, Message: fb.Message, When: &when})
	if err != nil {
		log.Error().Err(err).Msg("marshal feedback frame")
		return
	}
	for c := range clients {
		select {
		case c.send <- data:
		default:
			// Slow consumer; drop the connection rather than stall the hub.
			h.unregisterClient(c)
		}
	}
}

// sendTo queues data for c while c is still registered. A full buffer drops
// the frame.
func (h *Hub) sendTo(c *Client, data []byte) {
	if !h.players[c.player][c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// push hands a frame for this connection to the hub loop. It is dropped once
// the connection is unregistered or the hub has stopped.
func (c *Client) push(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	select {
	case c.hub.direct <- outbound{client: c, data: data}:
	case <-c.hub.done:
	}
}

func (c *Client) handle(raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.push(Frame{Event: EventError, Message: "malformed frame"})
		return
	}
	switch cmd.Action {
	case "play":
		if cmd.GameID == 0 || cmd.Position == nil {
			c.push(Frame{Event: EventError, Message: "play needs game_id and position"})
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		// Rule violations come back as feedback through the hub.
		if _, err := c.hub.mover.Play(ctx, cmd.GameID, c.player, *cmd.Position); err != nil {
			log.Error().Err(err).Str("player_id", c.player).Uint32("game_id", cmd.GameID).Msg("play")
			c.push(Frame{Event: EventError, GameID: cmd.GameID, Message: "move failed"})
		}
	default:
		c.push(Frame{Event: EventError, Message: "unknown action"})
	}
}

// readPump reads commands until the connection fails, then unregisters.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("player_id", c.player).Msg("websocket read")
			}
			return
		}
		c.handle(raw)
	}
}

// writePump writes queued frames, one websocket message each, and pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

var _ services.Notifier = (*Hub)(nil)
