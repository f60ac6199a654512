package comm

import (
	"github.com/robotalks/fclink/pkg/l0/crc"
	"github.com/robotalks/fclink/pkg/l0/ring"
)

// Decoder reassembles frames from received bytes.
type Decoder struct {
	state  parseState
	escape bool // SYNC seen inside a frame, waiting for its pair

	cmd   byte
	size  byte
	data  []byte
	crc8  uint8
	crc16 uint16
	recv  uint16
}

// ParseResult is the outcome of one parsing step. At most one of Frame
// and Err is set, except when a SYNC aborts a frame: then Err is
// ErrFrameAborted and a new frame is already in progress.
type ParseResult struct {
	Frame *Frame
	Err   error
}

type parseState int

const (
	stateSync      parseState = iota // waiting for SYNC
	stateCmd                         // waiting for command
	stateSize                        // waiting for data size
	stateHeaderCRC                   // waiting for CRC8
	stateData                        // receiving data
	stateCRCHi                       // waiting for CRC16 high byte
	stateCRCLo                       // waiting for CRC16 low byte
)

// Receiving tells if a frame is partially received.
func (d *Decoder) Receiving() bool {
	return d.state != stateSync
}

// Reset drops any partially received frame.
func (d *Decoder) Reset() {
	d.state, d.escape = stateSync, false
	d.data = d.data[:0]
}

// Parse consumes one byte.
func (d *Decoder) Parse(b byte) (pr ParseResult) {
	if d.state == stateSync {
		if b == ring.SyncByte {
			d.begin()
		}
		return
	}
	if d.escape {
		d.escape = false
		if b != ring.SyncByte {
			// the lone SYNC started a new frame.
			d.begin()
			d.accept(b)
			pr.Err = ErrFrameAborted
			return
		}
	} else if b == ring.SyncByte {
		d.escape = true
		return
	}
	return d.accept(b)
}

// Feed parses p and reports completed frames and errors to fn.
func (d *Decoder) Feed(p []byte, fn func(ParseResult)) {
	for _, b := range p {
		if pr := d.Parse(b); pr.Frame != nil || pr.Err != nil {
			fn(pr)
		}
	}
}

func (d *Decoder) begin() {
	d.state, d.escape = stateCmd, false
	d.data = d.data[:0]
	d.crc8 = crc.Step8(ring.SyncByte, crc.Init8)
	d.crc16 = crc.Step16(ring.SyncByte, crc.Init16)
}

func (d *Decoder) accept(b byte) (pr ParseResult) {
	switch d.state {
	case stateCmd:
		d.cmd = b
		d.crc8, d.crc16 = crc.Step8(b, d.crc8), crc.Step16(b, d.crc16)
		d.state = stateSize
	case stateSize:
		d.size = b
		d.crc8, d.crc16 = crc.Step8(b, d.crc8), crc.Step16(b, d.crc16)
		d.state = stateHeaderCRC
	case stateHeaderCRC:
		if b != d.crc8 {
			d.state = stateSync
			pr.Err = &ChecksumError{Field: "header", Want: uint16(d.crc8), Got: uint16(b)}
			return
		}
		d.crc16 = crc.Step16(b, d.crc16)
		if d.size == 0 {
			return d.complete()
		}
		d.state = stateData
	case stateData:
		d.data = append(d.data, b)
		d.crc16 = crc.Step16(b, d.crc16)
		if len(d.data) == int(d.size) {
			d.state = stateCRCHi
		}
	case stateCRCHi:
		d.recv = uint16(b) << 8
		d.state = stateCRCLo
	case stateCRCLo:
		d.recv |= uint16(b)
		if d.recv != d.crc16 {
			d.state = stateSync
			pr.Err = &ChecksumError{Field: "data", Want: d.crc16, Got: d.recv}
			return
		}
		return d.complete()
	}
	return
}

func (d *Decoder) complete() (pr ParseResult) {
	pr.Frame = &Frame{Cmd: d.cmd}
	if len(d.data) > 0 {
		pr.Frame.Data = append([]byte(nil), d.data...)
	}
	d.state = stateSync
	return
}
