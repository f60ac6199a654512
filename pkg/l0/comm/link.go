package comm

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/fclink/pkg/l0/ring"
)

// FrameHandler is called when a frame is received.
type FrameHandler interface {
	HandleFrame(context.Context, *Frame)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, *Frame)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, frame *Frame) {
	f(ctx, frame)
}

// DefaultFlushInterval is the drain period when no producer wakes the link.
const DefaultFlushInterval = 10 * time.Millisecond

// Link sends frames through a TX ring buffer and receives frames from
// the same transport.
type Link struct {
	ReadWriter    io.ReadWriter
	Handler       FrameHandler
	Metrics       *Metrics
	FlushInterval time.Duration

	tx      *ring.Exclusive
	wakeCh  chan struct{}
	decoder Decoder

	// drainLock makes Flush safe to call besides Run: both are the
	// single consumer of tx.
	drainLock sync.Mutex
}

// NewLink creates a Link with a TX ring of txSize bytes.
func NewLink(rw io.ReadWriter, txSize int) *Link {
	tx := ring.NewExclusive(make([]byte, txSize))
	tx.InitLock()
	return &Link{
		ReadWriter:    rw,
		FlushInterval: DefaultFlushInterval,
		tx:            tx,
		wakeCh:        make(chan struct{}, 1),
	}
}

// TX returns the TX ring buffer.
func (l *Link) TX() *ring.Exclusive {
	return l.tx
}

// Send stages a frame into the TX ring. It fails with an error wrapping
// ring.ErrNoSpace when the ring can't take the whole frame, in which
// case nothing is queued.
func (l *Link) Send(f *Frame) error {
	return l.SendContext(context.Background(), f)
}

// SendContext is Send with the wait for the TX lock bounded by ctx.
func (l *Link) SendContext(ctx context.Context, f *Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	err := l.tx.WithClaimContext(ctx, func(g *ring.Guard) error {
		st := g.BeginSync(f.Checksums())
		f.StageInto(&st)
		return st.Commit()
	})
	if err != nil {
		if errors.Is(err, ring.ErrNoSpace) {
			l.Metrics.frameDropped()
			glog.V(2).Infof("drop frame cmd=%#x len=%d: %v", f.Cmd, len(f.Data), err)
		}
		return err
	}
	l.Metrics.frameCommitted()
	select {
	case l.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

// Flush drains committed frames to the transport.
func (l *Link) Flush() error {
	l.drainLock.Lock()
	defer l.drainLock.Unlock()
	n, err := l.tx.WriteTo(l.ReadWriter)
	l.Metrics.drained(n, l.tx.SpaceLeft())
	if n > 0 {
		glog.V(4).Infof("drained %d bytes", n)
	}
	return err
}

// Run drains the TX ring and processes received bytes until ctx is
// canceled or the transport fails.
func (l *Link) Run(ctx context.Context) error {
	byteCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(subCtx, byteCh, errCh)

	interval := l.FlushInterval
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wakeCh:
			if err := l.Flush(); err != nil {
				return err
			}
		case <-ticker.C:
			if err := l.Flush(); err != nil {
				return err
			}
		case p := <-byteCh:
			l.decoder.Feed(p, func(pr ParseResult) {
				l.applyParseResult(ctx, pr)
			})
		case err := <-errCh:
			return err
		}
	}
}

func (l *Link) readLoop(ctx context.Context, byteCh chan []byte, errCh chan error) {
	buf := make([]byte, 256)
	for {
		n, err := l.ReadWriter.Read(buf)
		if n > 0 {
			select {
			case byteCh <- append([]byte(nil), buf[:n]...):
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func (l *Link) applyParseResult(ctx context.Context, pr ParseResult) {
	if pr.Err != nil {
		l.Metrics.decodeError(pr.Err)
		glog.V(2).Infof("receive error: %v", pr.Err)
	}
	if pr.Frame != nil {
		l.Metrics.frameReceived()
		if h := l.Handler; h != nil {
			h.HandleFrame(ctx, pr.Frame)
		}
	}
}
