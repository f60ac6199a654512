package mqtt

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Topic suffixes of a device byte stream, seen from the device.
const (
	TopicTX = "tx"
	TopicRX = "rx"
)

// DefaultWriteTimeout bounds the wait for a publish to complete.
const DefaultWriteTimeout = 5 * time.Second

// DeviceTopic returns the topic for a device stream.
func DeviceTopic(device, stream string) string {
	return device + "/" + stream
}

// Conn carries a device byte stream over MQTT. Written chunks are
// published to <device>/tx and bytes published to <device>/rx are read.
type Conn struct {
	Queue        *Queue
	Device       string
	WriteTimeout time.Duration

	sub     *Subscription
	readCh  chan []byte
	pending []byte

	closeOnce sync.Once
	closeCh   chan struct{}
}

// NewConn creates a Conn on a connected Queue and subscribes the RX topic.
func NewConn(q *Queue, device string) *Conn {
	c := &Conn{
		Queue:        q,
		Device:       device,
		WriteTimeout: DefaultWriteTimeout,
		readCh:       make(chan []byte, 16),
		closeCh:      make(chan struct{}),
	}
	c.sub = q.Sub(DeviceTopic(device, TopicRX), c.handleMsg)
	return c
}

// Dial connects to the broker in brokerURL and opens the stream of device.
func Dial(ctx context.Context, brokerURL, device string) (*Conn, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if err := waitToken(ctx, q.Connect()); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", brokerURL, err)
	}
	c := NewConn(q, device)
	if err := waitToken(ctx, c.sub.Token); err != nil {
		c.Close()
		return nil, fmt.Errorf("mqtt subscribe: %w", err)
	}
	return c, nil
}

// Read implements io.Reader.
func (c *Conn) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		select {
		case b := <-c.readCh:
			c.pending = b
		case <-c.closeCh:
			return 0, io.EOF
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// Write implements io.Writer. p is published as one message.
func (c *Conn) Write(p []byte) (int, error) {
	select {
	case <-c.closeCh:
		return 0, io.ErrClosedPipe
	default:
	}
	payload := append([]byte(nil), p...)
	token := c.Queue.Pub(DeviceTopic(c.Device, TopicTX), payload)
	timeout := c.WriteTimeout
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	if !token.WaitTimeout(timeout) {
		return 0, fmt.Errorf("mqtt publish: timeout after %v", timeout)
	}
	if err := token.Error(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.sub.Close()
		c.Queue.Close()
	})
	return err
}

func (c *Conn) handleMsg(_ string, payload []byte) {
	if len(payload) == 0 {
		return
	}
	select {
	case c.readCh <- append([]byte(nil), payload...):
	case <-c.closeCh:
	}
}

func waitToken(ctx context.Context, token paho.Token) error {
	doneCh := make(chan struct{})
	go func() {
		token.Wait()
		close(doneCh)
	}()
	select {
	case <-doneCh:
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
