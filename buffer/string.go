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

// WriteStringVarint writes a varint length prefix followed by the string's
// bytes. This is the prefix form used for method names and service names
// on the wire.
func (b *Buffer) WriteStringVarint(s string) {
	b.WriteVarint64(uint64(len(s)))
	_, _ = b.Write([]byte(s))
}

// ReadStringVarint reads a varint-length-prefixed string.
func (b *Buffer) ReadStringVarint() (string, error) {
	n, err := b.ReadVarint64()
	if err != nil {
		return "", err
	}
	return b.readRawString(int(n))
}

// WriteStringU16 writes a fixed 16-bit length prefix followed by the
// string's bytes.
func (b *Buffer) WriteStringU16(s string) {
	b.WriteU16(uint16(len(s)))
	_, _ = b.Write([]byte(s))
}

func (b *Buffer) ReadStringU16() (string, error) {
	n, err := b.ReadU16()
	if err != nil {
		return "", err
	}
	return b.readRawString(int(n))
}

// WriteStringU32 writes a fixed 32-bit length prefix followed by the
// string's bytes.
func (b *Buffer) WriteStringU32(s string) {
	b.WriteU32(uint32(len(s)))
	_, _ = b.Write([]byte(s))
}

func (b *Buffer) ReadStringU32() (string, error) {
	n, err := b.ReadU32()
	if err != nil {
		return "", err
	}
	return b.readRawString(int(n))
}

// WriteStringU64 writes a fixed 64-bit length prefix followed by the
// string's bytes.
func (b *Buffer) WriteStringU64(s string) {
	b.WriteU64(uint64(len(s)))
	_, _ = b.Write([]byte(s))
}

func (b *Buffer) ReadStringU64() (string, error) {
	n, err := b.ReadU64()
	if err != nil {
		return "", err
	}
	return b.readRawString(int(n))
}

func (b *Buffer) readRawString(n int) (string, error) {
	if n == 0 {
		return "", nil
	}
	p := make([]byte, n)
	got, err := b.Read(p)
	if got != n || err != nil {
		return "", ErrShortRead
	}
	return string(p), nil
}
