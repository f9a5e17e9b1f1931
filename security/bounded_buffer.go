package security

import "bytes"

// BoundedBuffer is an io.Writer that keeps at most limit bytes and
// silently discards the rest, recording how much was dropped. Write
// never reports a short count, so exec.Cmd output streams do not fail
// when the cap is reached.
type BoundedBuffer struct {
	buf     bytes.Buffer
	limit   int
	dropped int
}

// NewBoundedBuffer creates a buffer capped at limit bytes.
func NewBoundedBuffer(limit int) *BoundedBuffer {
	return &BoundedBuffer{limit: limit}
}

// Write implements io.Writer.
func (b *BoundedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.buf.Len()
	if room <= 0 {
		b.dropped += len(p)
		return len(p), nil
	}
	if len(p) <= room {
		return b.buf.Write(p)
	}
	if _, err := b.buf.Write(p[:room]); err != nil {
		return 0, err
	}
	b.dropped += len(p) - room
	return len(p), nil
}

// Truncated reports whether any bytes were discarded.
func (b *BoundedBuffer) Truncated() bool { return b.dropped > 0 }

// Dropped returns the number of discarded bytes.
func (b *BoundedBuffer) Dropped() int { return b.dropped }

// String returns the retained contents as a string.
func (b *BoundedBuffer) String() string { return b.buf.String() }

// Bytes returns the retained contents.
func (b *BoundedBuffer) Bytes() []byte { return b.buf.Bytes() }

// Len returns the number of retained bytes.
func (b *BoundedBuffer) Len() int { return b.buf.Len() }

// Reset empties the buffer and clears the drop count.
func (b *BoundedBuffer) Reset() {
	b.buf.Reset()
	b.dropped = 0
}
