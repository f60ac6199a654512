package ring

import "github.com/robotalks/fclink/pkg/l0/crc"

const (
	// SyncByte delimits frames. It's doubled when it appears in payload.
	SyncByte byte = 0xa6
	// MinFrameSpace is the free space BeginSync requires (SYNC + header).
	MinFrameSpace uint32 = 4
)

// Checksums selects the checksums accumulated by a Stage.
type Checksums uint8

const (
	// CRC8 tracks the CRC8 over the logical bytes.
	CRC8 Checksums = 1 << iota
	// CRC16 tracks the CRC16 over the logical bytes.
	CRC16
)

// Has tells if sums includes c.
func (sums Checksums) Has(c Checksums) bool {
	return sums&c == c
}

// Stage is a write session appending a frame beyond the committed head.
// Bytes are stored immediately but become visible to the reader only on
// Commit. Once a stage runs out of space it's poisoned: further appends
// are ignored and Commit reports the error without moving head.
//
// A Stage must only be used while the producer side is held.
type Stage struct {
	buf     *Buffer
	pending uint32
	err     error
	sums    Checksums
	crc8    uint8
	crc16   uint16
}

// BeginSync starts a stage with a SYNC byte at the current head.
// At least MinFrameSpace bytes must be free, otherwise the returned
// stage is poisoned and nothing is written.
func (b *Buffer) BeginSync(sums Checksums) Stage {
	s := Stage{buf: b, sums: sums}
	if space := b.SpaceLeft(); space < MinFrameSpace {
		s.err = &StageError{Op: "sync", Need: MinFrameSpace, Space: space}
		return s
	}
	s.put(SyncByte)
	if sums.Has(CRC8) {
		s.crc8 = crc.Step8(SyncByte, crc.Init8)
	}
	if sums.Has(CRC16) {
		s.crc16 = crc.Step16(SyncByte, crc.Init16)
	}
	return s
}

func (s *Stage) put(c byte) {
	b := s.buf
	b.data[b.advance(b.head.Load(), s.pending)] = c
	s.pending++
}

// AppendByte appends one logical byte, doubling it if it's SyncByte.
// It implements io.ByteWriter and returns the sticky stage error.
func (s *Stage) AppendByte(c byte) error {
	if s.err != nil {
		return s.err
	}
	// reserve for the worst case: c == SyncByte needs two slots.
	if space := s.buf.SpaceLeft(); space < s.pending || space-s.pending < 2 {
		s.err = &StageError{Op: "append", Need: 2, Space: space, Pending: s.pending}
		return s.err
	}
	s.put(c)
	if s.sums.Has(CRC8) {
		s.crc8 = crc.Step8(c, s.crc8)
	}
	if s.sums.Has(CRC16) {
		s.crc16 = crc.Step16(c, s.crc16)
	}
	if c == SyncByte {
		s.put(SyncByte)
	}
	return nil
}

// Write implements io.Writer by appending p byte by byte.
// n counts logical bytes accepted before the stage got poisoned.
func (s *Stage) Write(p []byte) (n int, err error) {
	for _, c := range p {
		if err = s.AppendByte(c); err != nil {
			return
		}
		n++
	}
	return
}

// Pending returns the number of bytes staged beyond head, stuffing included.
func (s *Stage) Pending() uint32 {
	return s.pending
}

// Err returns the error which poisoned or closed the stage.
func (s *Stage) Err() error {
	return s.err
}

// CRC8 returns the CRC8 accumulated so far.
func (s *Stage) CRC8() uint8 {
	return s.crc8
}

// CRC16 returns the CRC16 accumulated so far.
func (s *Stage) CRC16() uint16 {
	return s.crc16
}

// Commit publishes the staged bytes by advancing head.
// A poisoned stage is rolled back: head is left untouched and the
// poisoning error is returned. The stage is closed afterwards.
func (s *Stage) Commit() error {
	if s.err != nil {
		err := s.err
		s.close()
		return err
	}
	b := s.buf
	b.head.Store(b.advance(b.head.Load(), s.pending))
	s.close()
	return nil
}

// Abort discards the staged bytes and closes the stage.
func (s *Stage) Abort() {
	s.close()
}

func (s *Stage) close() {
	s.pending = 0
	s.err = ErrStageClosed
}
