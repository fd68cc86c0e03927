package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is how long a silent dashboard is kept before it is dropped
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds what dashboard clients may send; they only listen
	maxMessageSize = 4 * 1024

	// sendBuffer is how many messages a client may fall behind before it is dropped
	sendBuffer = 64
)

// Client is one dashboard viewer attached to a hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient creates a client and joins it to the hub. If the hub has
// already stopped, the client is closed right away and Run returns at once.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
	if !hub.join(c) {
		close(c.send)
	}
	return c
}

// Run serves the viewer until the connection closes, as fiber handlers must.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump discards viewer messages; reading is how disconnects and pongs
// are noticed.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only goroutine that writes to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			open := ok
			if ok {
				message, open = c.latest(message)
				if err := c.write(message); err != nil {
					return
				}
			}
			if !open {
				// Hub let go of the client
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// latest returns msg or, on a snapshot hub, the newest message queued behind
// it. Status and preview frames supersede each other, so a lagging viewer
// jumps to the present instead of replaying old frames. open is false once
// the hub has closed the queue.
func (c *Client) latest(msg Message) (Message, bool) {
	if !c.hub.keepLast {
		return msg, true
	}
	for {
		select {
		case newer, ok := <-c.send:
			if !ok {
				return msg, false
			}
			c.hub.skipped.Add(1)
			msg = newer
		default:
			return msg, true
		}
	}
}

func (c *Client) write(msg Message) error {
	wsType := websocket.TextMessage
	if msg.Type == BinaryMessage {
		wsType = websocket.BinaryMessage
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(wsType, msg.Data)
}
