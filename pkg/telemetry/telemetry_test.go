package telemetry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/fclink/pkg/l0/comm"
	"github.com/robotalks/fclink/pkg/l0/ring"
)

type fakeSender struct {
	frames []*comm.Frame
	err    error
}

func (s *fakeSender) Send(f *comm.Frame) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, f)
	return nil
}

type taskCtx struct {
	now time.Time
}

func (c *taskCtx) Context() context.Context { return context.Background() }
func (c *taskCtx) Time() time.Time          { return c.now }
func (c *taskCtx) PriorityLevel() int       { return 0 }
func (c *taskCtx) TriggerNext()             {}

type space uint32

func (s space) SpaceLeft() uint32 { return uint32(s) }

func TestHeartbeat(t *testing.T) {
	var sender fakeSender
	hb := NewHeartbeat(&sender, time.Second)
	start := time.Unix(1700000000, 123000000)
	ctx := &taskCtx{now: start}

	require.NoError(t, hb.RunTask(ctx))
	ctx.now = start.Add(500 * time.Millisecond)
	require.NoError(t, hb.RunTask(ctx))
	ctx.now = start.Add(time.Second)
	require.NoError(t, hb.RunTask(ctx))

	require.Len(t, sender.frames, 2)
	for i, f := range sender.frames {
		require.Equal(t, CmdHeartbeat, f.Cmd)
		ts, err := DecodeHeartbeat(f.Data)
		require.NoError(t, err)
		require.True(t, start.Add(time.Duration(i)*time.Second).Equal(ts))
	}
}

func TestHeartbeatDropIsNotError(t *testing.T) {
	sender := fakeSender{err: fmt.Errorf("stage: %w", ring.ErrNoSpace)}
	require.NoError(t, NewHeartbeat(&sender, 0).RunTask(&taskCtx{now: time.Now()}))

	sender.err = errors.New("closed")
	require.EqualError(t, NewHeartbeat(&sender, 0).RunTask(&taskCtx{now: time.Now()}), "closed")
}

func TestTxStatus(t *testing.T) {
	var sender fakeSender
	ctx := &taskCtx{now: time.Now()}
	require.NoError(t, NewTxStatus(&sender, space(1000), 0).RunTask(ctx))
	require.NoError(t, NewTxStatus(&sender, space(0), 0).RunTask(ctx))
	require.Len(t, sender.frames, 2)

	val, err := DecodeTxStatus(sender.frames[0].Data)
	require.NoError(t, err)
	require.Equal(t, uint32(1000), val)
	require.Empty(t, sender.frames[1].Data)
	val, err = DecodeTxStatus(sender.frames[1].Data)
	require.NoError(t, err)
	require.Zero(t, val)
}

func TestHeartbeatThroughLink(t *testing.T) {
	link := comm.NewLink(nil, 64)
	now := time.Unix(1700000000, 0)
	require.NoError(t, NewHeartbeat(link, 0).RunTask(&taskCtx{now: now}))

	var d comm.Decoder
	var got []*comm.Frame
	d.Feed(link.TX().ReadableSpan(), func(pr comm.ParseResult) {
		require.NoError(t, pr.Err)
		got = append(got, pr.Frame)
	})
	require.Len(t, got, 1)
	ts, err := DecodeHeartbeat(got[0].Data)
	require.NoError(t, err)
	require.True(t, now.Equal(ts))
}

func TestDescribe(t *testing.T) {
	require.Equal(t, "heartbeat 1970-01-01T00:00:00Z", Describe(&comm.Frame{Cmd: CmdHeartbeat}))
	require.Equal(t, "tx_status space_left=0", Describe(&comm.Frame{Cmd: CmdTxStatus}))
	require.Equal(t, "cmd=0x05 len=2 a601", Describe(&comm.Frame{Cmd: 5, Data: []byte{0xa6, 1}}))
}
