/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package buffer

import (
	"encoding/binary"
	"math"
)

// Fixed-width scalar accessors. All multi-byte scalars are little-endian,
// independent of the frame header's big-endian wire fields (codec.Header
// encodes those directly with encoding/binary.BigEndian).

func (b *Buffer) WriteU8(v uint8) { _, _ = b.Write([]byte{v}) }

func (b *Buffer) ReadU8() (uint8, error) {
	var tmp [1]byte
	if n, err := b.Read(tmp[:]); n != 1 || err != nil {
		return 0, ErrShortRead
	}
	return tmp[0], nil
}

func (b *Buffer) WriteI8(v int8) { b.WriteU8(uint8(v)) }

func (b *Buffer) ReadI8() (int8, error) {
	v, err := b.ReadU8()
	return int8(v), err
}

func (b *Buffer) WriteU16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	_, _ = b.Write(tmp[:])
}

func (b *Buffer) ReadU16() (uint16, error) {
	var tmp [2]byte
	if n, err := b.Read(tmp[:]); n != 2 || err != nil {
		return 0, ErrShortRead
	}
	return binary.LittleEndian.Uint16(tmp[:]), nil
}

func (b *Buffer) WriteI16(v int16) { b.WriteU16(uint16(v)) }

func (b *Buffer) ReadI16() (int16, error) {
	v, err := b.ReadU16()
	return int16(v), err
}

func (b *Buffer) WriteU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	_, _ = b.Write(tmp[:])
}

func (b *Buffer) ReadU32() (uint32, error) {
	var tmp [4]byte
	if n, err := b.Read(tmp[:]); n != 4 || err != nil {
		return 0, ErrShortRead
	}
	return binary.LittleEndian.Uint32(tmp[:]), nil
}

func (b *Buffer) WriteI32(v int32) { b.WriteU32(uint32(v)) }

func (b *Buffer) ReadI32() (int32, error) {
	v, err := b.ReadU32()
	return int32(v), err
}

func (b *Buffer) WriteU64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	_, _ = b.Write(tmp[:])
}

func (b *Buffer) ReadU64() (uint64, error) {
	var tmp [8]byte
	if n, err := b.Read(tmp[:]); n != 8 || err != nil {
		return 0, ErrShortRead
	}
	return binary.LittleEndian.Uint64(tmp[:]), nil
}

func (b *Buffer) WriteI64(v int64) { b.WriteU64(uint64(v)) }

func (b *Buffer) ReadI64() (int64, error) {
	v, err := b.ReadU64()
	return int64(v), err
}

func (b *Buffer) WriteF32(v float32) { b.WriteU32(math.Float32bits(v)) }

func (b *Buffer) ReadF32() (float32, error) {
	v, err := b.ReadU32()
	return math.Float32frombits(v), err
}

func (b *Buffer) WriteF64(v float64) { b.WriteU64(math.Float64bits(v)) }

func (b *Buffer) ReadF64() (float64, error) {
	v, err := b.ReadU64()
	return math.Float64frombits(v), err
}

func (b *Buffer) WriteBool(v bool) {
	if v {
		b.WriteU8(1)
	} else {
		b.WriteU8(0)
	}
}

func (b *Buffer) ReadBool() (bool, error) {
	v, err := b.ReadU8()
	return v != 0, err
}
