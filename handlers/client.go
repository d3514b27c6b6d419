package handlers

import (
	"sync"

	"chatrelay/hub"
	"chatrelay/models"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection as seen by the hub.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan models.Outbound

	done chan struct{}
	once sync.Once
}

var _ hub.Sink = (*Client)(nil)

func newClient(id string, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan models.Outbound, buffer),
		done: make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

// Send queues ev without blocking. A client whose buffer is full is too
// slow to keep up and gets closed; its read loop then reports the
// disconnect.
func (c *Client) Send(ev models.Outbound) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- ev:
		return true
	default:
		c.Close()
		return false
	}
}

// Close asks the write pump to close the connection. Safe to call many
// times from any goroutine.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}
