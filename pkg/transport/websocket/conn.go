package websocket

import (
	"context"

	"golang.org/x/net/websocket"
)

// Conn is a byte stream carried in binary websocket frames.
type Conn struct {
	*websocket.Conn
}

// New wraps websocket.Conn and switches it to binary frames.
func New(conn *websocket.Conn) *Conn {
	conn.PayloadType = websocket.BinaryFrame
	return &Conn{Conn: conn}
}

// Dial connects to a websocket server.
func Dial(ctx context.Context, rawURL, origin string) (*Conn, error) {
	config, err := websocket.NewConfig(rawURL, origin)
	if err != nil {
		return nil, err
	}
	conn, err := config.DialContext(ctx)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// Handler serves websocket connections as byte streams.
func Handler(fn func(*Conn)) websocket.Handler {
	return func(conn *websocket.Conn) {
		fn(New(conn))
	}
}
