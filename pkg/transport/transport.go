// Package transport opens the byte streams a link runs on.
package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"

	"github.com/robotalks/fclink/pkg/transport/mqtt"
	"github.com/robotalks/fclink/pkg/transport/websocket"
)

// Options customizes Open.
type Options struct {
	// DeviceID selects the MQTT topics of the stream.
	DeviceID string
	// Origin is sent in the websocket handshake.
	Origin string
}

// Option sets Options.
type Option func(*Options)

// WithDeviceID sets the device whose MQTT stream is opened.
func WithDeviceID(id string) Option {
	return func(o *Options) {
		o.DeviceID = id
	}
}

// WithOrigin sets the websocket origin.
func WithOrigin(origin string) Option {
	return func(o *Options) {
		o.Origin = origin
	}
}

// DefaultDeviceID is used for MQTT streams when no device is given.
const DefaultDeviceID = "fc"

// Open opens the transport identified by rawURL:
//
//	mqtt://host:port/prefix   MQTT topics <prefix><device>/tx and /rx
//	ws://host/path, wss://    binary websocket frames
//	tcp://host:port           TCP connection
//	file:///dev/ttyX or path  device node opened read/write
func Open(ctx context.Context, rawURL string, opts ...Option) (io.ReadWriteCloser, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid link URL: %w", err)
	}
	switch u.Scheme {
	case "mqtt", "mqtts":
		device := o.DeviceID
		if val := u.Query().Get("device"); val != "" {
			device = val
		}
		if device == "" {
			device = DefaultDeviceID
		}
		conn, err := mqtt.Dial(ctx, rawURL, device)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case "ws", "wss":
		origin := o.Origin
		if origin == "" {
			origin = "http://" + u.Host
		}
		conn, err := websocket.Dial(ctx, rawURL, origin)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case "tcp":
		var d net.Dialer
		return d.DialContext(ctx, "tcp", u.Host)
	case "file":
		return openFile(u.Path)
	case "":
		return openFile(rawURL)
	default:
		return nil, fmt.Errorf("unknown link URL scheme: %q", u.Scheme)
	}
}

func openFile(path string) (io.ReadWriteCloser, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}
	return f, nil
}
