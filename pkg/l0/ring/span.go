package ring

import "io"

// ReadableSpan returns a zero-copy view of committed bytes starting at
// tail. When committed data wraps past the end of storage only the part
// up to the end is returned; the rest is returned by the next call after
// AdvanceTail. The view is empty when nothing is committed.
//
// The returned slice aliases the buffer storage. It stays valid until
// AdvanceTail releases it to producers.
func (b *Buffer) ReadableSpan() []byte {
	tail := b.tail.Load()
	n := b.spanLen(b.head.Load(), tail)
	return b.data[tail : tail+n : tail+n]
}

// AdvanceTail marks n bytes of the last returned span as consumed.
// n must not exceed the length of that span.
func (b *Buffer) AdvanceTail(n uint32) {
	tail := b.tail.Load()
	if contractChecks {
		span := b.spanLen(b.head.Load(), tail)
		contract(n <= span, "AdvanceTail(%d) past readable span of %d", n, span)
	}
	b.tail.Store(b.advance(tail, n))
}

// WriteTo implements io.WriterTo. It transmits committed bytes to w
// until the buffer is drained or w fails, advancing tail by what w
// accepted.
func (b *Buffer) WriteTo(w io.Writer) (total int64, err error) {
	for {
		span := b.ReadableSpan()
		if len(span) == 0 {
			return
		}
		n, werr := w.Write(span)
		b.AdvanceTail(uint32(n))
		total += int64(n)
		if werr != nil {
			return total, werr
		}
		if n < len(span) {
			return total, io.ErrShortWrite
		}
	}
}
