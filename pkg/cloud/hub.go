// Package cloud accepts player connections over WebSocket. A player's browser
// streams its camera frames and control actions in, and receives the game
// events back.
package cloud

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-ballrunner/internal/log"
	"github.com/teslashibe/go-ballrunner/pkg/camera"
	"github.com/teslashibe/go-ballrunner/pkg/debug"
	"github.com/teslashibe/go-ballrunner/pkg/game"
	"github.com/teslashibe/go-ballrunner/pkg/protocol"
)

const (
	// maxMessageSize fits a base64 JPEG frame at 720p
	maxMessageSize = 1 << 20

	// sendBuffer is how many messages a player may fall behind before
	// messages to it are dropped
	sendBuffer = 128

	writeWait = 5 * time.Second
)

// Controller applies game control actions.
type Controller interface {
	Control(action string) (game.State, error)
}

// Player is a connected player
type Player struct {
	ID        string
	Connected time.Time

	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	dropped atomic.Uint64

	mu       sync.Mutex
	lastSeen time.Time
}

func newPlayer(id string, conn *websocket.Conn) *Player {
	now := time.Now()
	return &Player{
		ID:        id,
		Connected: now,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
		lastSeen:  now,
	}
}

// Send queues a message for the player. It never blocks; when the player is
// too far behind the message is dropped and false returned.
func (p *Player) Send(msg *protocol.Message) bool {
	data, err := msg.Bytes()
	if err != nil {
		return false
	}
	return p.enqueue(data)
}

func (p *Player) enqueue(data []byte) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.send <- data:
		return true
	default:
		p.dropped.Add(1)
		return false
	}
}

// writeLoop is the only goroutine that writes to the connection
func (p *Player) writeLoop() {
	for {
		select {
		case <-p.done:
			return
		case data := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				p.conn.Close()
				return
			}
		}
	}
}

func (p *Player) touch() {
	p.mu.Lock()
	p.lastSeen = time.Now()
	p.mu.Unlock()
}

// Hub manages WebSocket connections from players
type Hub struct {
	mu      sync.RWMutex
	players map[string]*Player

	feed    *camera.Feed
	control Controller
	logger  *slog.Logger

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	framesReceived   atomic.Uint64
	framesRejected   atomic.Uint64
}

// NewHub creates a player hub. Frames go to feed and control actions to
// control; either may be nil to refuse that kind of message.
func NewHub(feed *camera.Feed, control Controller) *Hub {
	return &Hub{
		players: make(map[string]*Player),
		feed:    feed,
		control: control,
		logger:  log.Component("cloud"),
	}
}

// RegisterRoutes registers WebSocket routes on a Fiber app
func (h *Hub) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/player", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/player", websocket.New(h.handlePlayer))
	app.Get("/ws/player/:id", websocket.New(h.handlePlayer))
}

// handlePlayer handles a player WebSocket connection
func (h *Hub) handlePlayer(c *websocket.Conn) {
	id := c.Params("id")
	if id == "" {
		id = uuid.NewString()
	}

	player := newPlayer(id, c)

	h.mu.Lock()
	if old, ok := h.players[id]; ok {
		// Same player reconnecting, the newer connection wins
		old.conn.Close()
	}
	h.players[id] = player
	count := len(h.players)
	h.mu.Unlock()

	h.logger.Info("player connected", "player", id, "players", count)

	go player.writeLoop()

	defer func() {
		close(player.done)

		h.mu.Lock()
		if h.players[id] == player {
			delete(h.players, id)
		}
		count := len(h.players)
		h.mu.Unlock()

		h.logger.Info("player disconnected", "player", id, "players", count,
			"dropped", player.dropped.Load())
	}()

	c.SetReadLimit(maxMessageSize)
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			debug.Log("player read ended", "player", id, "error", err)
			return
		}

		player.touch()
		h.messagesReceived.Add(1)
		h.handleMessage(player, data)
	}
}

// handleMessage processes an incoming message from a player
func (h *Hub) handleMessage(p *Player, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.reject(p, err.Error())
		return
	}

	switch msg.Type {
	case protocol.TypeFrame:
		h.handleFrame(p, msg)

	case protocol.TypeControl:
		ctrl, err := msg.GetControlData()
		if err != nil || !ctrl.Action.Valid() {
			h.reject(p, "invalid control action")
			return
		}
		if h.control == nil {
			h.reject(p, "control not available")
			return
		}
		state, err := h.control.Control(string(ctrl.Action))
		if err != nil {
			h.reject(p, err.Error())
			return
		}
		h.logger.Info("player control", "player", p.ID, "action", ctrl.Action, "state", state)

	case protocol.TypePing:
		ping, _ := msg.GetPingData()
		id := ""
		if ping != nil {
			id = ping.ID
		}
		pong, err := protocol.NewPongMessage(id, msg.Timestamp, time.Now().UnixMilli())
		if err == nil {
			h.sendTo(p, pong)
		}

	default:
		h.reject(p, "unsupported message type "+string(msg.Type))
	}
}

func (h *Hub) handleFrame(p *Player, msg *protocol.Message) {
	h.framesReceived.Add(1)
	if h.feed == nil {
		h.framesRejected.Add(1)
		h.reject(p, "frames not accepted")
		return
	}

	frame, err := msg.GetFrameData()
	if err != nil || (frame.Format != "" && frame.Format != "jpeg") {
		h.framesRejected.Add(1)
		h.reject(p, "frame must be base64 jpeg")
		return
	}
	jpegData, err := frame.DecodeFrameData()
	if err == nil {
		err = h.feed.Push(jpegData)
	}
	if err != nil {
		h.framesRejected.Add(1)
		h.reject(p, err.Error())
		return
	}
	debug.TrackLog("player frame", "player", p.ID, "bytes", len(jpegData))
}

func (h *Hub) reject(p *Player, text string) {
	debug.Log("player message rejected", "player", p.ID, "reason", text)
	msg, err := protocol.NewErrorMessage(text)
	if err == nil {
		h.sendTo(p, msg)
	}
}

func (h *Hub) sendTo(p *Player, msg *protocol.Message) {
	if p.Send(msg) {
		h.messagesSent.Add(1)
	}
}

// Broadcast queues a message for every connected player
func (h *Hub) Broadcast(msg *protocol.Message) {
	data, err := msg.Bytes()
	if err != nil {
		h.logger.Warn("broadcast encode failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.players {
		if p.enqueue(data) {
			h.messagesSent.Add(1)
		}
	}
}

func (h *Hub) broadcast(msg *protocol.Message, err error) {
	if err != nil {
		h.logger.Warn("event encode failed", "error", err)
		return
	}
	if h.PlayerCount() > 0 {
		h.Broadcast(msg)
	}
}

// Session sink: game events go to every player.

func (h *Hub) ScoreChanged(score int) {
	h.broadcast(protocol.NewScoreEvent(score))
}

func (h *Hub) SpeedChanged(multiplier float64) {
	h.broadcast(protocol.NewSpeedEvent(multiplier))
}

func (h *Hub) GameOver(final, best int, newRecord bool) {
	h.broadcast(protocol.NewGameOverEvent(final, best, newRecord))
}

func (h *Hub) BallUpdated(x, y, confidence float64) {
	h.broadcast(protocol.NewBallEvent(x, y, confidence))
}

func (h *Hub) StateChanged(from, to game.State) {
	h.broadcast(protocol.NewStateEvent(from.String(), to.String()))
}

// Preview is not sent to players; they already see their own camera.
func (h *Hub) Preview([]byte) {}

// GetPlayer returns a player by ID
func (h *Hub) GetPlayer(id string) *Player {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.players[id]
}

// PlayerCount returns the number of connected players
func (h *Hub) PlayerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.players)
}

// Stats contains hub statistics
type Stats struct {
	PlayerCount      int    `json:"player_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	FramesReceived   uint64 `json:"frames_received"`
	FramesRejected   uint64 `json:"frames_rejected"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		PlayerCount:      h.PlayerCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		FramesReceived:   h.framesReceived.Load(),
		FramesRejected:   h.framesRejected.Load(),
	}
}

// PlayerInfo contains info about a connected player
type PlayerInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
	Dropped   uint64    `json:"dropped"`
}

// GetPlayerInfos returns info about all connected players
func (h *Hub) GetPlayerInfos() []PlayerInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]PlayerInfo, 0, len(h.players))
	for _, p := range h.players {
		p.mu.Lock()
		infos = append(infos, PlayerInfo{
			ID:        p.ID,
			Connected: p.Connected,
			LastSeen:  p.lastSeen,
			Dropped:   p.dropped.Load(),
		})
		p.mu.Unlock()
	}
	return infos
}

// RegisterAPIRoutes registers API routes for player management
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	players := api.Group("/players")

	players.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"players": h.GetPlayerInfos(),
			"count":   h.PlayerCount(),
		})
	})

	players.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})
}
