// Package comm provides the framed serial link between the flight
// controller and its peer.
//
// Outbound frames are staged into a TX ring buffer by any number of
// producers and drained to the transport by a single consumer (Link.Run).
// Inbound bytes are de-stuffed and validated by Decoder.
//
// Frame layout, before stuffing:
//
//	SYNC | CMD | SIZE | CRC8 | DATA[SIZE] | CRC16 hi | CRC16 lo
//
// CRC8 covers SYNC, CMD and SIZE. CRC16 covers everything from SYNC to the
// last data byte and is omitted when SIZE is 0. On the wire every SYNC
// after the leading one is doubled.
//
// This package doesn't interpret CMD or DATA.
package comm
