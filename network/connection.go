// network/connection.go
package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendQueueFull    = errors.New("send queue full")
	ErrMalformedMessage = errors.New("malformed message")
)

const writeWait = 10 * time.Second

// Connection is one client link. Send must not block on the network.
type Connection interface {
	Send(msg Message) error
	ReadMessage() (*Message, error)
	Close() error
	RemoteAddr() net.Addr
}

type Options struct {
	SendQueueSize  int
	PingInterval   time.Duration
	MaxMessageSize int64
}

// WSConnection carries JSON text frames over a gorilla websocket. Outbound
// frames go through a bounded queue drained by a single writer goroutine.
type WSConnection struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	ping      time.Duration
}

func NewWSConnection(conn *websocket.Conn, opts Options) *WSConnection {
	if opts.SendQueueSize <= 0 {
		opts.SendQueueSize = 64
	}
	c := &WSConnection{
		conn: conn,
		send: make(chan []byte, opts.SendQueueSize),
		done: make(chan struct{}),
		ping: opts.PingInterval,
	}
	if opts.MaxMessageSize > 0 {
		conn.SetReadLimit(opts.MaxMessageSize)
	}
	if c.ping > 0 {
		conn.SetReadDeadline(time.Now().Add(c.ping * 2))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(c.ping * 2))
		})
	}
	go c.writeLoop()
	return c
}

// Send queues msg. A client too slow to drain its queue is disconnected.
func (c *WSConnection) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	default:
		c.Close()
		return ErrSendQueueFull
	}
}

// ReadMessage blocks for the next frame. A frame that is not a JSON envelope
// yields ErrMalformedMessage and leaves the connection usable.
func (c *WSConnection) ReadMessage() (*Message, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return &msg, nil
}

func (c *WSConnection) writeLoop() {
	var pings <-chan time.Time
	if c.ping > 0 {
		ticker := time.NewTicker(c.ping)
		defer ticker.Stop()
		pings = ticker.C
	}

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.Close()
				return
			}
		case <-pings:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close flushes nothing further and closes the socket. Safe to call twice.
func (c *WSConnection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
