package ring

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClaimBeforeInitLock(t *testing.T) {
	e := NewExclusive(make([]byte, 8))
	require.PanicsWithValue(t, ErrLockNotReady, func() { e.Claim() })

	// the raw buffer is usable before the lock exists.
	st := e.BeginSync(0)
	require.NoError(t, st.Commit())
	require.Equal(t, uint32(1), e.Len())
}

func TestClaimRelease(t *testing.T) {
	e := NewExclusive(make([]byte, 8))
	e.InitLock()

	g := e.Claim()
	_, ok := e.TryClaim()
	require.False(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := e.ClaimContext(ctx)
	require.Equal(t, context.DeadlineExceeded, err)

	g.Release()
	g.Release()
	g2, ok := e.TryClaim()
	require.True(t, ok)
	g2.Release()

	var zero Guard
	zero.Release()
}

func TestWithClaimAlwaysReleases(t *testing.T) {
	e := NewExclusive(make([]byte, 8))
	e.InitLock()

	errFailed := errors.New("failed")
	err := e.WithClaim(func(g *Guard) error {
		st := g.BeginSync(CRC8)
		st.Write([]byte{1, 2, 3, 4, 5, 6})
		if err := st.Commit(); err != nil {
			return err
		}
		return errFailed
	})
	require.True(t, errors.Is(err, ErrNoSpace))

	require.Panics(t, func() {
		e.WithClaim(func(*Guard) error { panic("boom") })
	})

	err = e.WithClaimContext(context.Background(), func(g *Guard) error {
		require.Same(t, &e.Buffer, g.Buffer())
		return errFailed
	})
	require.Equal(t, errFailed, err)

	g, ok := e.TryClaim()
	require.True(t, ok, "lock leaked")
	g.Release()
}

func TestGuardNotClaimed(t *testing.T) {
	e := NewExclusive(make([]byte, 8))
	e.InitLock()

	held := e.Claim()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	failed, err := e.ClaimContext(ctx)
	require.Equal(t, context.Canceled, err)
	held.Release()

	released := e.Claim()
	released.Release()

	testCases := []struct {
		name string
		g    Guard
	}{
		{name: "failed claim", g: failed},
		{name: "released", g: released},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := tc.g
			require.False(t, g.Held())
			st := g.BeginSync(CRC8)
			require.Equal(t, ErrNotClaimed, st.AppendByte(1))
			require.Equal(t, ErrNotClaimed, st.Commit())
			require.Equal(t, uint32(0), e.Len())
			require.Equal(t, uint32(0), e.Head())
			require.PanicsWithValue(t, ErrNotClaimed, func() { g.Buffer() })
		})
	}

	g, ok := e.TryClaim()
	require.True(t, ok)
	require.True(t, g.Held())
	g.Release()
	require.False(t, g.Held())
}

// TestConcurrentProducers stages frames from many goroutines while a
// consumer drains concurrently and checks frame boundaries strictly.
// Frame: SYNC, id, n, n bytes of id. Ids and lengths never equal SYNC.
func TestConcurrentProducers(t *testing.T) {
	const (
		producers = 8
		frames    = 300
	)
	e := NewExclusive(make([]byte, 61))
	e.InitLock()

	var wg sync.WaitGroup
	for id := 1; id <= producers; id++ {
		wg.Add(1)
		go func(id byte) {
			defer wg.Done()
			for i := 0; i < frames; i++ {
				n := byte(i%20 + 1)
				for {
					g := e.Claim()
					st := g.BeginSync(CRC8 | CRC16)
					st.AppendByte(id)
					st.AppendByte(n)
					for k := byte(0); k < n; k++ {
						st.AppendByte(id)
					}
					err := st.Commit()
					g.Release()
					if err == nil {
						break
					}
					if !errors.Is(err, ErrNoSpace) {
						t.Errorf("producer %d: %v", id, err)
						return
					}
					runtime.Gosched()
				}
			}
		}(byte(id))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	counts := make(map[byte]int)
	var frame []byte
	received := 0
	deadline := time.After(10 * time.Second)
	for received < producers*frames {
		span := e.ReadableSpan()
		if len(span) == 0 {
			select {
			case <-deadline:
				t.Fatalf("timeout, received %d frames", received)
			default:
			}
			runtime.Gosched()
			continue
		}
		for _, c := range span {
			frame = append(frame, c)
			if len(frame) < 3 || len(frame) < 3+int(frame[2]) {
				continue
			}
			require.Equal(t, SyncByte, frame[0])
			id := frame[1]
			for _, d := range frame[3:] {
				require.Equal(t, id, d, "interleaved frame")
			}
			require.Equal(t, byte(counts[id]%20+1), frame[2], "frame order of producer %d", id)
			counts[id]++
			received++
			frame = frame[:0]
		}
		e.AdvanceTail(uint32(len(span)))
	}
	<-done
	require.Empty(t, frame)
	require.Equal(t, uint32(0), e.Len())
	for id := byte(1); id <= producers; id++ {
		require.Equal(t, frames, counts[id])
	}
}
