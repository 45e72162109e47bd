package ws

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// Client is one authenticated websocket connection.
type Client struct {
	ID     string
	UserID string

	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func NewClient(id, userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
}

// Enqueue hands payload to the write pump without blocking; a slow consumer
// loses the frame rather than stalling the broadcaster.
func (c *Client) Enqueue(payload []byte) {
	select {
	case c.send <- payload:
	default:
	}
}

// Close stops the write pump. Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() { close(c.send) })
}

// WritePump drains the send queue onto the wire and keeps the connection
// alive with pings. It exits when Close is called or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
