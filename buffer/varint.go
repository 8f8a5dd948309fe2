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

// WriteVarint32 encodes v as an unsigned LEB128 varint: 7 bits per byte,
// little-endian, high bit set while more bytes follow.
func (b *Buffer) WriteVarint32(v uint32) {
	b.writeVarint(uint64(v))
}

// WriteVarint64 encodes v as an unsigned LEB128 varint.
func (b *Buffer) WriteVarint64(v uint64) {
	b.writeVarint(v)
}

func (b *Buffer) writeVarint(v uint64) {
	var tmp [10]byte
	n := 0
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		tmp[n] = c
		n++
		if v == 0 {
			break
		}
	}
	_, _ = b.Write(tmp[:n])
}

// ReadVarint32 decodes an unsigned LEB128 varint, rejecting values that do
// not fit in 32 bits.
func (b *Buffer) ReadVarint32() (uint32, error) {
	v, err := b.readVarint(5)
	if err != nil {
		return 0, err
	}
	if v > 0xffffffff {
		return 0, ErrVarintOverflow
	}
	return uint32(v), nil
}

// ReadVarint64 decodes an unsigned LEB128 varint of up to 64 bits.
func (b *Buffer) ReadVarint64() (uint64, error) {
	return b.readVarint(10)
}

func (b *Buffer) readVarint(maxBytes int) (uint64, error) {
	var (
		result uint64
		shift  uint
		one    [1]byte
	)
	for i := 0; i < maxBytes; i++ {
		n, err := b.Read(one[:])
		if n == 0 || err != nil {
			return 0, ErrShortRead
		}
		result |= uint64(one[0]&0x7f) << shift
		if one[0]&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, ErrVarintOverflow
}

// ZigZag32 maps a signed 32-bit integer onto an unsigned range so small
// magnitude negative numbers still encode short: (n << 1) ^ (n >> 31).
func ZigZag32(n int32) uint32 {
	return uint32((n << 1) ^ (n >> 31))
}

// UnZigZag32 is the inverse of ZigZag32.
func UnZigZag32(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

// ZigZag64 maps a signed 64-bit integer onto an unsigned range.
func ZigZag64(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

// UnZigZag64 is the inverse of ZigZag64.
func UnZigZag64(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// WriteSVarint32 encodes a signed 32-bit integer as a zig-zag varint.
func (b *Buffer) WriteSVarint32(v int32) {
	b.WriteVarint32(ZigZag32(v))
}

// ReadSVarint32 decodes a zig-zag varint into a signed 32-bit integer.
func (b *Buffer) ReadSVarint32() (int32, error) {
	v, err := b.ReadVarint32()
	if err != nil {
		return 0, err
	}
	return UnZigZag32(v), nil
}

// WriteSVarint64 encodes a signed 64-bit integer as a zig-zag varint.
func (b *Buffer) WriteSVarint64(v int64) {
	b.WriteVarint64(ZigZag64(v))
}

// ReadSVarint64 decodes a zig-zag varint into a signed 64-bit integer.
func (b *Buffer) ReadSVarint64() (int64, error) {
	v, err := b.ReadVarint64()
	if err != nil {
		return 0, err
	}
	return UnZigZag64(v), nil
}

// VarintLen32 returns the encoded length, in bytes, of v as an unsigned
// LEB128 varint: ceil(bits(v)/7), minimum 1.
func VarintLen32(v uint32) int {
	return varintLen(uint64(v))
}

// VarintLen64 returns the encoded length, in bytes, of v as an unsigned
// LEB128 varint.
func VarintLen64(v uint64) int {
	return varintLen(v)
}

func varintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
