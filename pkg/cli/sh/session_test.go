package sh

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/fclink/pkg/l0/comm"
)

func TestParseFrame(t *testing.T) {
	testCases := []struct {
		name   string
		args   []string
		expect *comm.Frame
		err    bool
	}{
		{name: "cmd only", args: []string{"5"}, expect: &comm.Frame{Cmd: 5}},
		{name: "hex cmd", args: []string{"0xa6", "a6", "01ff"}, expect: &comm.Frame{Cmd: 0xa6, Data: []byte{0xa6, 1, 0xff}}},
		{name: "no args", err: true},
		{name: "cmd overflow", args: []string{"256"}, err: true},
		{name: "bad hex", args: []string{"1", "abc"}, err: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := ParseFrame(tc.args)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, f)
		})
	}
}

func TestSession(t *testing.T) {
	local, remote := net.Pipe()
	frameCh := make(chan *comm.Frame, 1)
	s := StartSession("pipe", local, 64, comm.HandleFrameFunc(func(_ context.Context, f *comm.Frame) {
		frameCh <- f
	}))

	out := &comm.Frame{Cmd: 3, Data: []byte{0xa6}}
	wire, err := out.Bytes()
	require.NoError(t, err)
	readCh := make(chan []byte, 1)
	go func() {
		buf := make([]byte, len(wire))
		if _, err := io.ReadFull(remote, buf); err == nil {
			readCh <- buf
		}
	}()
	require.NoError(t, s.Link.Send(out))
	select {
	case got := <-readCh:
		require.Equal(t, wire, got)
	case <-time.After(time.Second):
		t.Fatal("frame not written")
	}

	in, err := (&comm.Frame{Cmd: 9, Data: []byte{1, 2}}).Bytes()
	require.NoError(t, err)
	_, err = remote.Write(in)
	require.NoError(t, err)
	select {
	case f := <-frameCh:
		require.Equal(t, byte(9), f.Cmd)
		require.Equal(t, []byte{1, 2}, f.Data)
	case <-time.After(time.Second):
		t.Fatal("frame not received")
	}

	require.Eventually(t, func() bool {
		return s.Stat().BytesDrained == float64(len(wire))
	}, time.Second, time.Millisecond)
	st := s.Stat()
	require.Equal(t, "pipe", st.URL)
	require.Equal(t, uint32(64), st.TxCap)
	require.Equal(t, uint32(0), st.TxPending)
	require.Equal(t, uint32(63), st.TxSpaceLeft)
	require.Equal(t, 1.0, st.FramesCommitted)
	require.Equal(t, 1.0, st.FramesReceived)

	require.NoError(t, s.Close())
	remote.Close()
	select {
	case <-s.Done():
	default:
		t.Fatal("session not done")
	}
}

func TestSessionCloseReportsErrors(t *testing.T) {
	local, remote := net.Pipe()
	s := StartSession("pipe", local, 64, nil)
	remote.Close()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session not stopped")
	}
	require.Equal(t, io.EOF, s.Err())

	require.NoError(t, s.Link.Send(&comm.Frame{Cmd: 1}))
	err := s.Close()
	require.True(t, errors.Is(err, io.ErrClosedPipe), "%v", err)
	require.True(t, errors.Is(err, io.EOF), "%v", err)
}
