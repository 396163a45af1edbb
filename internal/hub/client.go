package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/codesync/backend/internal/logging"
)

const maxDecodeErrorsPerConn = 3

// ClientOptions tune a single websocket connection.
type ClientOptions struct {
	SendBuffer      int
	MaxMessageBytes int64
	EventsPerSecond int
	WriteTimeout    time.Duration
	PongTimeout     time.Duration
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 1 << 20
	}
	if o.EventsPerSecond <= 0 {
		o.EventsPerSecond = 40
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	return o
}

// Client adapts one gorilla websocket connection to the hub's Conn interface:
// a serial read loop that feeds the router, and a write pump draining a
// buffered send channel with ping keepalives.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	ctx  context.Context
	opts ClientOptions

	send      chan Event
	done      chan struct{}
	closeOnce sync.Once

	limiter *rate.Limiter
}

// NewClient wraps an upgraded connection. ctx carries the upgrade request's
// logging attributes and is retained for the connection's lifetime.
func NewClient(ctx context.Context, h *Hub, conn *websocket.Conn, opts ClientOptions) *Client {
	opts = opts.withDefaults()
	id := uuid.NewString()
	return &Client{
		id:      id,
		hub:     h,
		conn:    conn,
		ctx:     logging.WithConnectionID(ctx, id),
		opts:    opts,
		send:    make(chan Event, opts.SendBuffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(opts.EventsPerSecond), opts.EventsPerSecond*2),
	}
}

// ID returns the connection identifier assigned at upgrade time.
func (c *Client) ID() string { return c.id }

// Context returns the connection's logging context, derived from the upgrade
// request.
func (c *Client) Context() context.Context { return c.ctx }

// Enqueue places ev on the outbound buffer without blocking. Returns false if
// the buffer is full and the event was dropped. Safe to call after Kick; the
// event is simply never written.
func (c *Client) Enqueue(ev Event) bool {
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Kick asks the write pump to close the connection. The close is
// asynchronous: registry state is already gone by the time the peer notices.
func (c *Client) Kick() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Run services the connection until it closes, then tears down hub state.
// It blocks for the connection's lifetime.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.Kick()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	})

	decodeErrors := 0
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				slog.DebugContext(c.ctx, "client connection closed", slog.Any("error", err))
			}
			return
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			decodeErrors++
			logging.LogSecurityEvent(c.ctx, logging.SecurityEventBadFrame, "undecodable websocket frame")
			c.Enqueue(errorEvent("invalid event envelope"))
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if !c.limiter.Allow() {
			logging.LogSecurityEvent(c.ctx, logging.SecurityEventRateLimited, "websocket event rate limit exceeded")
			c.Enqueue(errorEvent("rate limit exceeded"))
			return
		}

		c.hub.Route(c, ev)
	}
}

func (c *Client) writePump() {
	pingInterval := c.opts.PongTimeout * 9 / 10
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			// Flush frames already queued (an error explaining the close,
			// typically) before the close frame.
			for {
				select {
				case ev := <-c.send:
					_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
					if err := c.conn.WriteJSON(ev); err != nil {
						return
					}
				default:
					_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
					_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				slog.DebugContext(c.ctx, "client write failed", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
