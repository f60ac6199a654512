package sh

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	fx "github.com/robotalks/fclink/pkg/framework"
	"github.com/robotalks/fclink/pkg/l0/comm"
)

// Session is an open link.
type Session struct {
	URL  string
	Conn io.ReadWriteCloser
	Link *comm.Link

	cancel func()
	doneCh chan struct{}
	err    error
}

// Stat is a snapshot of the session.
type Stat struct {
	URL             string  `json:"url"`
	TxCap           uint32  `json:"tx_cap"`
	TxPending       uint32  `json:"tx_pending"`
	TxSpaceLeft     uint32  `json:"tx_space_left"`
	FramesCommitted float64 `json:"frames_committed"`
	FramesDropped   float64 `json:"frames_dropped"`
	BytesDrained    float64 `json:"bytes_drained"`
	FramesReceived  float64 `json:"frames_received"`
}

// StartSession runs a Link over conn until Close or a transport error.
func StartSession(url string, conn io.ReadWriteCloser, txSize int, handler comm.FrameHandler) *Session {
	s := &Session{
		URL:    url,
		Conn:   conn,
		Link:   comm.NewLink(conn, txSize),
		doneCh: make(chan struct{}),
	}
	s.Link.Handler = handler
	s.Link.Metrics = comm.NewMetrics("fclink", nil)
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		defer close(s.doneCh)
		s.err = fx.RunWithContextCloser(ctx, conn, func() error {
			return s.Link.Run(ctx)
		})
	}()
	return s
}

// Done is closed when the link stops.
func (s *Session) Done() <-chan struct{} {
	return s.doneCh
}

// Err returns the error stopping the link.
func (s *Session) Err() error {
	select {
	case <-s.doneCh:
		return s.err
	default:
		return nil
	}
}

// Close flushes pending frames, stops the link and closes the transport.
// A transport error which already stopped the link is reported too.
func (s *Session) Close() error {
	var errs fx.AggregatedError
	errs.Add(s.Link.Flush())
	s.cancel()
	<-s.doneCh
	if !errors.Is(s.err, context.Canceled) {
		errs.Add(s.err)
	}
	return errs.Aggregate()
}

// Stat reports the TX ring and link counters.
func (s *Session) Stat() Stat {
	tx, m := s.Link.TX(), s.Link.Metrics
	return Stat{
		URL:             s.URL,
		TxCap:           tx.Cap(),
		TxPending:       tx.Len(),
		TxSpaceLeft:     tx.SpaceLeft(),
		FramesCommitted: counterValue(m.FramesCommitted),
		FramesDropped:   counterValue(m.FramesDropped),
		BytesDrained:    counterValue(m.BytesDrained),
		FramesReceived:  counterValue(m.FramesReceived),
	}
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// ParseFrame parses CMD [HEX...] into a frame. CMD accepts 0x prefix and
// HEX arguments are concatenated.
func ParseFrame(args []string) (*comm.Frame, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("CMD required")
	}
	cmd, err := strconv.ParseUint(args[0], 0, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid CMD: %v", err)
	}
	f := &comm.Frame{Cmd: byte(cmd)}
	if len(args) > 1 {
		if f.Data, err = hex.DecodeString(strings.Join(args[1:], "")); err != nil {
			return nil, fmt.Errorf("invalid data: %v", err)
		}
	}
	return f, f.Validate()
}
