package nbt

import (
	"encoding/binary"
	"math"
)

// cursor is a forward-only, big-endian view over a byte slice. Every read
// fails with ErrTruncated when fewer bytes remain than requested, and the
// position is left unadvanced on failure.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, ErrTruncated
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) readU8() (uint8, error) {
	b, err := c.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readI8() (int8, error) {
	v, err := c.readU8()
	return int8(v), err
}

func (c *cursor) readU16BE() (uint16, error) {
	b, err := c.readBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) readI16BE() (int16, error) {
	v, err := c.readU16BE()
	return int16(v), err
}

func (c *cursor) readI32BE() (int32, error) {
	b, err := c.readBytes(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (c *cursor) readI64BE() (int64, error) {
	b, err := c.readBytes(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (c *cursor) readF32BE() (float32, error) {
	v, err := c.readI32BE()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

func (c *cursor) readF64BE() (float64, error) {
	v, err := c.readI64BE()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}
