// Package crc provides the incremental checksums used on the flight controller link.
package crc

const (
	// Init8 is the conventional initial CRC8 accumulator.
	Init8 uint8 = 0x00
	// Init16 is the conventional initial CRC16 accumulator.
	Init16 uint16 = 0xffff
)

// Step8 folds one byte into a CRC-8 accumulator (poly 0x07, MSB first).
func Step8(b byte, crc uint8) uint8 {
	crc ^= b
	for i := 0; i < 8; i++ {
		if crc&0x80 != 0 {
			crc = (crc << 1) ^ 0x07
		} else {
			crc <<= 1
		}
	}
	return crc
}

// Step16 folds one byte into a CRC-16 CCITT accumulator.
// This is the byte-step form used by MCU firmware (reflected poly 0x8408):
//
//	data ^= crc & 0xff
//	data ^= data << 4
//	crc = ((data << 8) | (crc >> 8)) ^ (data >> 4) ^ (data << 3)
func Step16(b byte, crc uint16) uint16 {
	data := b ^ uint8(crc&0xff)
	data ^= data << 4
	return ((uint16(data) << 8) | (crc >> 8)) ^ uint16(data>>4) ^ (uint16(data) << 3)
}

// Checksum8 computes CRC8 of p from Init8.
func Checksum8(p []byte) uint8 {
	crc := Init8
	for _, b := range p {
		crc = Step8(b, crc)
	}
	return crc
}

// Checksum16 computes CRC16 of p from Init16.
func Checksum16(p []byte) uint16 {
	crc := Init16
	for _, b := range p {
		crc = Step16(b, crc)
	}
	return crc
}
