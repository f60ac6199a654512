package ring

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSpace indicates the buffer can't take the bytes being written.
	ErrNoSpace = errors.New("ring: insufficient space")
	// ErrStageClosed indicates the stage was already committed or aborted.
	ErrStageClosed = errors.New("ring: stage closed")
	// ErrLockNotReady indicates the write lock is used before InitLock.
	ErrLockNotReady = errors.New("ring: write lock not initialized")
	// ErrNotClaimed indicates a Guard is used without holding the write side.
	ErrNotClaimed = errors.New("ring: write side not claimed")
)

// StageError reports why a staged write was poisoned.
type StageError struct {
	// Op is the staging operation which ran out of space.
	Op string
	// Need is the free space the operation required beyond pending bytes.
	Need uint32
	// Space is SpaceLeft at the time of the failure.
	Space uint32
	// Pending is the number of bytes staged before the failure.
	Pending uint32
}

// Error implements error.
func (e *StageError) Error() string {
	return fmt.Sprintf("ring: %s needs %d bytes, space %d, pending %d", e.Op, e.Need, e.Space, e.Pending)
}

// Unwrap makes errors.Is(err, ErrNoSpace) hold.
func (e *StageError) Unwrap() error {
	return ErrNoSpace
}
