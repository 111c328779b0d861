package client

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

const closeWriteTimeout = 5 * time.Second

// Conn is the narrow surface the supervisor needs from a room websocket.
// Keeping it an interface lets tests drive the supervisor with a fake
// socket.
type Conn interface {
	// ReadMessage blocks until the next text frame or a read error.
	ReadMessage() ([]byte, error)
	// WriteMessage sends one text frame.
	WriteMessage(data []byte) error
	// Close sends a close frame with the given code and reason, then tears
	// down the transport.
	Close(code int, reason string) error
}

// Dialer opens a Conn to a room endpoint.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer is the production Dialer backed by gorilla/websocket.
type WebsocketDialer struct {
	dialer *websocket.Dialer
}

// NewWebsocketDialer returns a dialer with gorilla's defaults.
func NewWebsocketDialer() *WebsocketDialer {
	return &WebsocketDialer{dialer: websocket.DefaultDialer}
}

func (d *WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := d.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &websocketConn{conn: conn}, nil
}

type websocketConn struct {
	conn *websocket.Conn
}

func (c *websocketConn) ReadMessage() ([]byte, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType == websocket.TextMessage {
			return data, nil
		}
	}
}

func (c *websocketConn) WriteMessage(data []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *websocketConn) Close(code int, reason string) error {
	message := websocket.FormatCloseMessage(code, reason)
	deadline := time.Now().Add(closeWriteTimeout)
	// Best effort; the peer may already be gone.
	_ = c.conn.WriteControl(websocket.CloseMessage, message, deadline)
	return c.conn.Close()
}

// closeEvent is what the read pump reports when a connection ends.
type closeEvent struct {
	gen      int
	code     int
	reason   string
	wasClean bool
}

// frame is one inbound text frame tagged with the connection generation it
// arrived on, so frames from a torn-down socket are never applied.
type frame struct {
	gen  int
	data []byte
}

// classifyClose maps a read error to close metadata. A received close frame
// counts as a clean closure; anything else means the connection died.
func classifyClose(err error) (code int, reason string, wasClean bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return websocket.CloseAbnormalClosure, err.Error(), false
}
