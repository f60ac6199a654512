// Package telemetry provides periodic producers staging frames into a link.
package telemetry

import (
	"errors"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	"github.com/golang/protobuf/ptypes/timestamp"
	"github.com/golang/protobuf/ptypes/wrappers"

	fx "github.com/robotalks/fclink/pkg/framework"
	"github.com/robotalks/fclink/pkg/l0/comm"
	"github.com/robotalks/fclink/pkg/l0/ring"
)

// Telemetry commands.
const (
	CmdHeartbeat byte = 0x01
	CmdTxStatus  byte = 0x02
)

// Sender queues frames for transmission.
type Sender interface {
	Send(*comm.Frame) error
}

// SpaceReporter reports free space of a buffer.
type SpaceReporter interface {
	SpaceLeft() uint32
}

type period struct {
	interval time.Duration
	last     time.Time
}

func (p *period) due(now time.Time) bool {
	if p.interval > 0 && !p.last.IsZero() && now.Sub(p.last) < p.interval {
		return false
	}
	p.last = now
	return true
}

func send(s Sender, f *comm.Frame) error {
	err := s.Send(f)
	if errors.Is(err, ring.ErrNoSpace) {
		glog.V(2).Infof("telemetry cmd=%#x dropped: %v", f.Cmd, err)
		return nil
	}
	return err
}

// Heartbeat sends the time of the scheduler iteration.
type Heartbeat struct {
	Sender Sender
	period period
}

// NewHeartbeat creates a Heartbeat sending at most once per interval.
func NewHeartbeat(s Sender, interval time.Duration) *Heartbeat {
	return &Heartbeat{Sender: s, period: period{interval: interval}}
}

// RunTask implements fx.Task.
func (h *Heartbeat) RunTask(ctx fx.TaskContext) error {
	if !h.period.due(ctx.Time()) {
		return nil
	}
	f, err := HeartbeatFrame(ctx.Time())
	if err != nil {
		return err
	}
	return send(h.Sender, f)
}

// AddToScheduler implements fx.SchedulerAdder.
func (h *Heartbeat) AddToScheduler(s *fx.Scheduler) {
	s.AddTask(fx.PrLvTelemetry, h)
}

// HeartbeatFrame creates a heartbeat frame carrying t.
func HeartbeatFrame(t time.Time) (*comm.Frame, error) {
	ts, err := ptypes.TimestampProto(t)
	if err != nil {
		return nil, err
	}
	data, err := proto.Marshal(ts)
	if err != nil {
		return nil, err
	}
	return &comm.Frame{Cmd: CmdHeartbeat, Data: data}, nil
}

// DecodeHeartbeat decodes the data of a heartbeat frame.
func DecodeHeartbeat(data []byte) (time.Time, error) {
	var ts timestamp.Timestamp
	if err := proto.Unmarshal(data, &ts); err != nil {
		return time.Time{}, err
	}
	return ptypes.Timestamp(&ts)
}

// TxStatus reports the free space of the TX ring.
type TxStatus struct {
	Sender Sender
	TX     SpaceReporter
	period period
}

// NewTxStatus creates a TxStatus sending at most once per interval.
func NewTxStatus(s Sender, tx SpaceReporter, interval time.Duration) *TxStatus {
	return &TxStatus{Sender: s, TX: tx, period: period{interval: interval}}
}

// RunTask implements fx.Task.
func (t *TxStatus) RunTask(ctx fx.TaskContext) error {
	if !t.period.due(ctx.Time()) {
		return nil
	}
	f, err := TxStatusFrame(t.TX.SpaceLeft())
	if err != nil {
		return err
	}
	return send(t.Sender, f)
}

// AddToScheduler implements fx.SchedulerAdder.
func (t *TxStatus) AddToScheduler(s *fx.Scheduler) {
	s.AddTask(fx.PrLvIdle, t)
}

// TxStatusFrame creates a TX status frame reporting spaceLeft.
func TxStatusFrame(spaceLeft uint32) (*comm.Frame, error) {
	data, err := proto.Marshal(&wrappers.UInt32Value{Value: spaceLeft})
	if err != nil {
		return nil, err
	}
	return &comm.Frame{Cmd: CmdTxStatus, Data: data}, nil
}

// DecodeTxStatus decodes the data of a TX status frame.
func DecodeTxStatus(data []byte) (uint32, error) {
	var v wrappers.UInt32Value
	if err := proto.Unmarshal(data, &v); err != nil {
		return 0, err
	}
	return v.Value, nil
}
