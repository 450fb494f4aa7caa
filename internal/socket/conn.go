package socket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
)

// Conn is the part of a websocket connection the gateway uses. Both the
// fiber contrib connection and gorilla's satisfy it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// connection wraps one client socket. Writes are serialized because
// handlers for the same socket run concurrently.
type connection struct {
	conn     Conn
	writeMu  sync.Mutex
	mu       sync.Mutex
	session  string
	closed   bool
	inflight sync.WaitGroup
}

func newConnection(conn Conn) *connection {
	return &connection{conn: conn}
}

func (c *connection) send(resp domain.Response) {
	b, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[SOCKET] Failed to encode %s response: %v", resp.Action, err)
		b, _ = json.Marshal(domain.Response{
			Action:        resp.Action,
			Status:        domain.StatusError,
			Error:         "failed to encode response",
			CorrelationID: resp.CorrelationID,
		})
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.isClosed() {
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Printf("[SOCKET] Write failed: %v", err)
	}
}

func (c *connection) bind(sessionID string) {
	c.mu.Lock()
	c.session = sessionID
	c.mu.Unlock()
}

// unbind clears the binding only if it still points at sessionID.
func (c *connection) unbind(sessionID string) {
	c.mu.Lock()
	if c.session == sessionID {
		c.session = ""
	}
	c.mu.Unlock()
}

func (c *connection) boundTo() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *connection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// close is idempotent. It takes the write lock so a close never interleaves
// with a frame being written.
func (c *connection) close() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	if err := c.conn.Close(); err != nil {
		log.Printf("[SOCKET] Close failed: %v", err)
	}
}
