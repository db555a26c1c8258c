package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-blobot/pkg/protocol"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum message size accepted from a client
	maxMessageSize = 4 * 1024
)

// Conn is the subset of a websocket connection the pumps use.
// *websocket.Conn from gofiber/websocket implements it.
type Conn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

// Client represents a single websocket connection
type Client struct {
	hub     *Hub
	conn    Conn
	send    chan []byte
	replies chan []byte
}

// NewClient creates a new client and registers it with the hub.
// It returns nil if the hub has stopped.
func NewClient(hub *Hub, conn Conn) *Client {
	client := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256), // Buffered channel for backpressure
		replies: make(chan []byte, 8),
	}
	select {
	case hub.register <- client:
		return client
	case <-hub.done:
		return nil
	}
}

// Run starts the client's read and write pumps
// This should be called in the websocket handler
func (c *Client) Run() {
	go c.writePump()
	c.readPump() // Blocks until connection closes
}

// readPump reads messages from the websocket connection. Clients only
// send protocol pings; everything else is ignored.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if reply := pong(data); reply != nil {
			select {
			case c.replies <- reply:
			default:
			}
		}
	}
}

// pong answers a protocol ping, or returns nil.
func pong(data []byte) []byte {
	msg, err := protocol.ParseMessage(data)
	if err != nil || msg.Type != protocol.TypePing {
		return nil
	}
	ping, err := msg.GetPingData()
	if err != nil {
		return nil
	}
	reply, err := protocol.NewPongMessage(ping.ID, ping.Timestamp, time.Now().UnixMilli())
	if err != nil {
		return nil
	}
	out, err := reply.Bytes()
	if err != nil {
		return nil
	}
	return out
}

// writePump writes messages to the websocket connection.
// Only this goroutine writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel - send close frame
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case reply := <-c.replies:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, reply); err != nil {
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
