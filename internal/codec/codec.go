// Package codec packs fixed-width scalars and length-prefixed byte strings.
//
// All scalars are little-endian. Strings carry a 16-bit length prefix; the
// prefix 0xFFFF marks an empty (absent) string and no bytes follow it.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/xzrunner/playdb/internal/base"
)

const (
	// EmptyString is the length prefix written for an empty string.
	EmptyString uint16 = 0xFFFF
	// MaxStringLen is the longest string that can be packed.
	MaxStringLen = 0xFFFE
)

// StringSize returns the packed size of s.
func StringSize(s []byte) (int, error) {
	if len(s) > MaxStringLen {
		return 0, fmt.Errorf("%w: string too long (%d bytes)", base.ErrIllegalArgument, len(s))
	}
	return 2 + len(s), nil
}

func AppendUint8(b []byte, v uint8) []byte { return append(b, v) }

func AppendUint16(b []byte, v uint16) []byte { return binary.LittleEndian.AppendUint16(b, v) }

func AppendUint32(b []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(b, v) }

func AppendUint64(b []byte, v uint64) []byte { return binary.LittleEndian.AppendUint64(b, v) }

func AppendInt32(b []byte, v int32) []byte { return AppendUint32(b, uint32(v)) }

func AppendInt64(b []byte, v int64) []byte { return AppendUint64(b, uint64(v)) }

func AppendFloat64(b []byte, v float64) []byte { return AppendUint64(b, math.Float64bits(v)) }

func AppendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

// AppendString appends s with its 16-bit length prefix.
func AppendString(b []byte, s []byte) ([]byte, error) {
	if len(s) > MaxStringLen {
		return b, fmt.Errorf("%w: string too long (%d bytes)", base.ErrIllegalArgument, len(s))
	}
	if len(s) == 0 {
		return AppendUint16(b, EmptyString), nil
	}
	b = AppendUint16(b, uint16(len(s)))
	return append(b, s...), nil
}

// Decoder reads packed values sequentially from a buffer. The first
// underrun is sticky: every later read returns the zero value and Err
// reports base.ErrShortBuffer.
type Decoder struct {
	buf []byte
	off int
	err error
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Err returns the first decode error, if any.
func (d *Decoder) Err() error { return d.err }

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int { return d.off }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }

func (d *Decoder) next(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.buf) {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", base.ErrShortBuffer, n, d.off, len(d.buf)-d.off)
		return nil
	}
	p := d.buf[d.off : d.off+n]
	d.off += n
	return p
}

func (d *Decoder) Uint8() uint8 {
	p := d.next(1)
	if p == nil {
		return 0
	}
	return p[0]
}

func (d *Decoder) Uint16() uint16 {
	p := d.next(2)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(p)
}

func (d *Decoder) Uint32() uint32 {
	p := d.next(4)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(p)
}

func (d *Decoder) Uint64() uint64 {
	p := d.next(8)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(p)
}

func (d *Decoder) Int32() int32 { return int32(d.Uint32()) }

func (d *Decoder) Int64() int64 { return int64(d.Uint64()) }

func (d *Decoder) Float64() float64 { return math.Float64frombits(d.Uint64()) }

func (d *Decoder) Bool() bool { return d.Uint8() != 0 }

// String reads a length-prefixed string. The result is a copy.
func (d *Decoder) String() []byte {
	n := d.Uint16()
	if d.err != nil || n == EmptyString {
		return nil
	}
	p := d.next(int(n))
	if p == nil {
		return nil
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out
}
