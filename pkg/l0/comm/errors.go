package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameTooLarge indicates frame data exceeds MaxDataLen.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrFrameAborted indicates a frame was cut short by the SYNC of the
	// next frame.
	ErrFrameAborted = errors.New("frame aborted")
)

// ChecksumError indicates a received frame failed checksum verification.
type ChecksumError struct {
	// Field is either "header" (CRC8) or "data" (CRC16).
	Field string
	Want  uint16
	Got   uint16
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s checksum mismatch: want %#x, got %#x", e.Field, e.Want, e.Got)
}

// errorKind classifies decode errors for metrics and logs.
func errorKind(err error) string {
	var csErr *ChecksumError
	switch {
	case errors.As(err, &csErr):
		return csErr.Field + "_crc"
	case errors.Is(err, ErrFrameAborted):
		return "aborted"
	default:
		return "other"
	}
}
