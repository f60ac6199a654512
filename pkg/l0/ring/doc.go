// Package ring provides the transmit ring buffer of the flight controller link.
//
// The buffer serializes outbound frames. Producers claim the write side,
// stage a frame byte by byte beyond the committed head (SYNC first, then
// payload bytes with every literal SYNC doubled) while CRC8/CRC16 are
// accumulated over the logical bytes, and finally commit. A stage that
// runs out of space is poisoned and committing it leaves the buffer
// untouched, so a reader never sees a partial frame.
//
// The read side is a single consumer (the transport driver). It takes a
// zero-copy span of committed bytes, transmits it and advances the tail.
// It is not serialized against producers: head only moves forward on
// Commit and is published atomically after the staged bytes are stored.
//
// Storage is supplied by the caller and never resized. Nothing in the
// write or read path allocates.
package ring
