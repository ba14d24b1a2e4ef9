package wsgateway

import (
	"sync"
)

type client struct {
	id   string
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(id string, buffer int) *client {
	return &client{id: id, send: make(chan []byte, buffer)}
}

func (c *client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
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
