package ring

import "context"

// Exclusive pairs a Buffer with the lock serializing its producers.
// The buffer is usable right after NewExclusive (e.g. before the
// scheduler runs, with a single producer); the lock must be set up with
// InitLock before any Claim.
//
// Only the write side is serialized. Reading stays single consumer.
type Exclusive struct {
	Buffer
	lock chan struct{}
}

// Guard is a claimed write side. Release it on every exit path,
// typically with defer. Release is idempotent.
type Guard struct {
	e        *Exclusive
	released bool
}

// NewExclusive creates an Exclusive over storage without the lock.
func NewExclusive(storage []byte) *Exclusive {
	e := &Exclusive{}
	e.Init(storage)
	return e
}

// InitLock initializes the write lock.
func (e *Exclusive) InitLock() {
	e.lock = make(chan struct{}, 1)
}

func (e *Exclusive) mustLock() chan struct{} {
	if e.lock == nil {
		panic(ErrLockNotReady)
	}
	return e.lock
}

// Claim blocks until the write side is acquired.
func (e *Exclusive) Claim() Guard {
	e.mustLock() <- struct{}{}
	return Guard{e: e}
}

// ClaimContext is Claim bounded by ctx.
func (e *Exclusive) ClaimContext(ctx context.Context) (Guard, error) {
	select {
	case e.mustLock() <- struct{}{}:
		return Guard{e: e}, nil
	case <-ctx.Done():
		return Guard{}, ctx.Err()
	}
}

// TryClaim acquires the write side only if it's free.
func (e *Exclusive) TryClaim() (Guard, bool) {
	select {
	case e.mustLock() <- struct{}{}:
		return Guard{e: e}, true
	default:
		return Guard{}, false
	}
}

// WithClaim runs fn with the write side claimed, releasing it when fn
// returns or panics.
func (e *Exclusive) WithClaim(fn func(*Guard) error) error {
	g := e.Claim()
	defer g.Release()
	return fn(&g)
}

// WithClaimContext is WithClaim with a bounded acquisition.
func (e *Exclusive) WithClaimContext(ctx context.Context, fn func(*Guard) error) error {
	g, err := e.ClaimContext(ctx)
	if err != nil {
		return err
	}
	defer g.Release()
	return fn(&g)
}

// Held tells if the guard still holds the write side.
func (g *Guard) Held() bool {
	return g.e != nil && !g.released
}

// Buffer returns the claimed buffer. It panics with ErrNotClaimed on a
// failed claim or a released guard.
func (g *Guard) Buffer() *Buffer {
	if !g.Held() {
		panic(ErrNotClaimed)
	}
	return &g.e.Buffer
}

// BeginSync starts a stage on the claimed buffer. On a failed claim or a
// released guard the stage is poisoned with ErrNotClaimed and nothing is
// written.
func (g *Guard) BeginSync(sums Checksums) Stage {
	if !g.Held() {
		return Stage{err: ErrNotClaimed}
	}
	return g.e.Buffer.BeginSync(sums)
}

// Release gives up the write side.
func (g *Guard) Release() {
	if !g.Held() {
		return
	}
	g.released = true
	<-g.e.lock
}
