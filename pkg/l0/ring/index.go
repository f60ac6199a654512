package ring

// All wraparound arithmetic lives here.

// advance returns i moved forward by n slots.
func (b *Buffer) advance(i, n uint32) uint32 {
	return uint32((uint64(i) + uint64(n)) % uint64(b.size))
}

// distance returns the number of slots from i forward to j.
func (b *Buffer) distance(i, j uint32) uint32 {
	return uint32((uint64(j) + uint64(b.size) - uint64(i)) % uint64(b.size))
}

// spaceLeft keeps one slot empty to tell full from empty.
func (b *Buffer) spaceLeft(head, tail uint32) uint32 {
	return uint32((uint64(tail) + uint64(b.size) - uint64(head) - 1) % uint64(b.size))
}

// spanLen is the length of the contiguous committed run starting at tail.
func (b *Buffer) spanLen(head, tail uint32) uint32 {
	if head < tail {
		return b.size - tail
	}
	return head - tail
}
