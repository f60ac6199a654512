package comm

import (
	"io"

	"github.com/robotalks/fclink/pkg/l0/ring"
)

// MaxDataLen is the largest data a frame can carry.
const MaxDataLen = 0xff

// Frame is one unit on the link.
type Frame struct {
	Cmd  byte
	Data []byte
}

// Validate checks the frame can be encoded.
func (f *Frame) Validate() error {
	if len(f.Data) > MaxDataLen {
		return ErrFrameTooLarge
	}
	return nil
}

// Checksums returns the checksums needed to stage the frame.
func (f *Frame) Checksums() ring.Checksums {
	if len(f.Data) == 0 {
		return ring.CRC8
	}
	return ring.CRC8 | ring.CRC16
}

// MaxWireLen returns the wire size of the frame if every byte after
// the leading SYNC had to be doubled.
func (f *Frame) MaxWireLen() int {
	n := 3 + len(f.Data)
	if len(f.Data) > 0 {
		n += 2
	}
	return 1 + 2*n
}

// StageInto appends the frame after the SYNC of a stage begun with
// f.Checksums(). It returns the stage error, if any.
func (f *Frame) StageInto(st *ring.Stage) error {
	if err := f.Validate(); err != nil {
		return err
	}
	// Stage errors are sticky: after the first failure every append is a
	// no-op returning the same error, reported once by st.Err.
	st.AppendByte(f.Cmd)
	st.AppendByte(byte(len(f.Data)))
	st.AppendByte(st.CRC8())
	if len(f.Data) > 0 {
		st.Write(f.Data)
		sum := st.CRC16()
		st.AppendByte(byte(sum >> 8))
		st.AppendByte(byte(sum))
	}
	return st.Err()
}

// Bytes returns the wire encoding.
func (f *Frame) Bytes() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	// two extra slots: the empty slot and the stuffing reserve.
	b := ring.New(make([]byte, f.MaxWireLen()+2))
	st := b.BeginSync(f.Checksums())
	if err := f.StageInto(&st); err != nil {
		return nil, err
	}
	if err := st.Commit(); err != nil {
		return nil, err
	}
	return b.ReadableSpan(), nil
}

// WriteTo writes the wire encoding.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	p, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(p)
	return int64(n), err
}
