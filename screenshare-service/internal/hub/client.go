package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	pkglog "github.com/psxio/the-platform/pkg/log"
	"github.com/psxio/the-platform/screenshare-service/internal/config"
	"github.com/psxio/the-platform/screenshare-service/internal/domain"
	"golang.org/x/time/rate"
)

// DisconnectHandler is called once when a client's read loop ends.
type DisconnectHandler func(*Client)

// Client is one WebSocket connection. The relay writes to it through Send;
// WritePump drains the send buffer onto the socket.
type Client struct {
	id   string
	Conn *websocket.Conn

	send    chan []byte
	config  config.WebSocketConfig
	limiter *rate.Limiter

	mu                sync.Mutex
	closed            bool
	disconnectHandler DisconnectHandler
}

// NewClient wraps an upgraded connection.
func NewClient(id string, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	c := &Client{
		id:     id,
		Conn:   conn,
		send:   make(chan []byte, cfg.SendBuffer),
		config: cfg,
	}
	if cfg.MaxFrameRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.MaxFrameRate), cfg.FrameBurst)
	}
	return c
}

func (c *Client) ID() string {
	return c.id
}

// Send enqueues data without blocking.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrConnClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return domain.ErrSendBufferFull
	}
}

// Close stops the write pump after it flushes what is already queued.
// Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// AllowFrame reports whether another screen-frame fits the rate limit.
func (c *Client) AllowFrame() bool {
	if c.limiter == nil {
		return true
	}
	return c.limiter.Allow()
}

// SetDisconnectHandler sets the handler to be called on disconnect.
func (c *Client) SetDisconnectHandler(handler DisconnectHandler) {
	c.disconnectHandler = handler
}

// ReadPump pumps messages from the WebSocket connection to handler. It
// returns when the connection fails or is closed.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		if c.disconnectHandler != nil {
			c.disconnectHandler(c)
		}
		c.Close()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l := pkglog.L()
				l.Warn().Err(err).Str(pkglog.FieldClientID, c.id).Msg("websocket read error")
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))

		handler(c, message)
	}
}

// WritePump pumps queued messages to the WebSocket connection and pings the
// peer every PingInterval.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				l := pkglog.L()
				l.Debug().Err(err).Str(pkglog.FieldClientID, c.id).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
