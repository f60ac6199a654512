// Package env provides configuration shared by fclink commands.
package env

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/robotalks/fclink/pkg/l0/comm"
	"github.com/robotalks/fclink/pkg/transport"
)

// Config provides common options to setup a link.
type Config struct {
	// DeviceID names the device on shared transports (MQTT topics, metric labels).
	DeviceID string

	// LinkURL specifies the transport.
	// e.g. mqtt://host:port/topic-prefix, tcp://host:port, /dev/ttyACM0
	LinkURL string

	// TxBufferSize is the storage size of the TX ring in bytes.
	TxBufferSize int

	// FlushInterval is the drain period of the TX ring.
	FlushInterval time.Duration

	// HeartbeatInterval is the period of heartbeat frames, 0 disables them.
	HeartbeatInterval time.Duration

	// MetricsAddr is the listen address of the metrics endpoint, empty disables it.
	MetricsAddr string
}

// DefaultTxBufferSize is the TX ring size used unless configured.
const DefaultTxBufferSize = 1024

var defaultConfig = Config{
	LinkURL:           "mqtt://localhost:1883/fclink/",
	TxBufferSize:      DefaultTxBufferSize,
	FlushInterval:     comm.DefaultFlushInterval,
	HeartbeatInterval: time.Second,
	MetricsAddr:       ":9464",
}

func init() {
	defaultConfig.DeviceID = DeviceID()
	loadEnv(&defaultConfig, os.LookupEnv)
}

func loadEnv(c *Config, lookup func(string) (string, bool)) {
	if val, _ := lookup("FCLINK_DEVICE_ID"); val != "" {
		c.DeviceID = val
	}
	if val, _ := lookup("FCLINK_URL"); val != "" {
		c.LinkURL = val
	}
	if val, _ := lookup("FCLINK_TX_BUFFER_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.TxBufferSize = n
		}
	}
	if val, _ := lookup("FCLINK_FLUSH_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.FlushInterval = d
		}
	}
	if val, _ := lookup("FCLINK_HEARTBEAT_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.HeartbeatInterval = d
		}
	}
	// set but empty disables the endpoint.
	if val, ok := lookup("FCLINK_METRICS_ADDR"); ok {
		c.MetricsAddr = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.DeviceID, "device", defaultConfig.DeviceID, "Device ID")
	flag.StringVar(&defaultConfig.LinkURL, "link", defaultConfig.LinkURL, "Link transport URL")
	flag.IntVar(&defaultConfig.TxBufferSize, "tx-size", defaultConfig.TxBufferSize, "TX ring buffer size in bytes")
	flag.DurationVar(&defaultConfig.FlushInterval, "flush", defaultConfig.FlushInterval, "TX drain interval")
	flag.DurationVar(&defaultConfig.HeartbeatInterval, "heartbeat", defaultConfig.HeartbeatInterval, "Heartbeat interval, 0 to disable")
	flag.StringVar(&defaultConfig.MetricsAddr, "metrics", defaultConfig.MetricsAddr, "Metrics listen address, empty to disable")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the config is usable.
func (c *Config) Validate() error {
	if c.LinkURL == "" {
		return fmt.Errorf("link URL must be specified")
	}
	if c.TxBufferSize < 8 {
		return fmt.Errorf("TX buffer size %d too small", c.TxBufferSize)
	}
	return nil
}

// OpenTransport opens the transport in LinkURL.
func (c *Config) OpenTransport(ctx context.Context) (io.ReadWriteCloser, error) {
	return transport.Open(ctx, c.LinkURL, transport.WithDeviceID(c.DeviceID))
}

// NewLink creates a Link over rw using the configured TX ring.
func (c *Config) NewLink(rw io.ReadWriter) *comm.Link {
	link := comm.NewLink(rw, c.TxBufferSize)
	link.FlushInterval = c.FlushInterval
	return link
}
