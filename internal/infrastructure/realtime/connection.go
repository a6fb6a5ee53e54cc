package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second

	defaultSendBuffer = 128
)

var (
	ErrConnectionClosed = errors.New("realtime: connection closed")
	ErrBufferExceeded   = errors.New("realtime: connection buffer exceeded")
)

// Socket is the subset of *websocket.Conn a Connection writes through.
type Socket interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

var _ Socket = (*websocket.Conn)(nil)

// Connection wraps a websocket and coordinates outbound writes via a buffered channel.
// A connection is uniquely identified per socket and is safe for concurrent use.
type Connection struct {
	ID     string
	UserID string

	ws      Socket
	send    chan []byte
	once    sync.Once
	start   sync.Once
	started chan struct{}
	close   chan struct{}

	mu          sync.Mutex
	closeCode   int
	closeReason string
}

// NewConnection constructs a Connection for the given user. A non-positive
// buffer falls back to the default outbound buffer size.
func NewConnection(userID string, ws Socket, buffer int) *Connection {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	return &Connection{
		ID:      uuid.NewString(),
		UserID:  userID,
		ws:      ws,
		send:    make(chan []byte, buffer),
		started: make(chan struct{}),
		close:   make(chan struct{}),
	}
}

// Start launches the write loop. Calls after the first are no-ops.
func (c *Connection) Start() {
	c.start.Do(func() {
		close(c.started)
		go c.writeLoop()
	})
}

// Send enqueues payload for delivery. If the client is slow and the buffer is full,
// the connection is closed to keep backpressure bounded.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.close:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		c.Close(websocket.ClosePolicyViolation, "send buffer full")
		return ErrBufferExceeded
	}
}

// Done is closed once the connection has been closed.
func (c *Connection) Done() <-chan struct{} {
	return c.close
}

// Closed reports whether Close has been called.
func (c *Connection) Closed() bool {
	select {
	case <-c.close:
		return true
	default:
		return false
	}
}

// Context returns a context canceled when the connection closes.
func (c *Connection) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-c.close:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Close terminates the connection and stops the write loop. It never blocks
// on the peer: the close handshake runs on the writer goroutine.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		c.mu.Lock()
		c.closeCode, c.closeReason = code, reason
		c.mu.Unlock()
		close(c.close)

		select {
		case <-c.started:
		default:
			go c.shutdown()
		}
	})
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.shutdown()

	for {
		select {
		case <-c.close:
			return
		case msg := <-c.send:
			if err := c.writeMessage(websocket.TextMessage, msg); err != nil {
				c.Close(websocket.CloseGoingAway, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.writeMessage(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseGoingAway, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) shutdown() {
	c.mu.Lock()
	code, reason := c.closeCode, c.closeReason
	c.mu.Unlock()
	if code == 0 {
		code = websocket.CloseNormalClosure
	}
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	_ = c.ws.Close()
}

func (c *Connection) writeMessage(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}
