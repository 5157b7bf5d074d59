/*
Package cursor implements bounds-checked little-endian integer reads over a
byte slice.

Reads that would run past the end of the slice return zero rather than
panicking; decoders are expected to validate the overall size up front and
use these helpers for the individual fields.
*/
package cursor

import "encoding/binary"

// Uint16 returns the little-endian uint16 at offset off in b, or zero if
// fewer than two bytes are available.
func Uint16(b []byte, off int) uint16 {
	if off < 0 || off > len(b)-2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b[off:])
}

// Uint32 returns the little-endian uint32 at offset off in b, or zero if
// fewer than four bytes are available.
func Uint32(b []byte, off int) uint32 {
	if off < 0 || off > len(b)-4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b[off:])
}

// Cursor walks forward through a byte slice.
type Cursor struct {
	b   []byte
	off int
}

// New returns a Cursor positioned at the start of b.
func New(b []byte) *Cursor {
	return &Cursor{b: b}
}

// Offset returns the current read position.
func (c *Cursor) Offset() int { return c.off }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	if c.off >= len(c.b) {
		return 0
	}
	return len(c.b) - c.off
}

// Uint16 reads a uint16 and advances by two bytes.
func (c *Cursor) Uint16() uint16 {
	v := Uint16(c.b, c.off)
	c.off += 2
	return v
}

// Uint32 reads a uint32 and advances by four bytes.
func (c *Cursor) Uint32() uint32 {
	v := Uint32(c.b, c.off)
	c.off += 4
	return v
}

// Bytes returns the next n bytes without copying and advances past them. It
// returns nil if fewer than n bytes remain.
func (c *Cursor) Bytes(n int) []byte {
	if n < 0 {
		return nil
	}
	if n > c.Remaining() {
		c.off += n
		return nil
	}
	b := c.b[c.off : c.off+n : c.off+n]
	c.off += n
	return b
}
