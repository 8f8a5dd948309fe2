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

package codec

import "github.com/suololololo/AsyncRPC/buffer"

// The sender and receiver of a frame must agree on the declared type of
// every field; there is no type tag on the wire. The helpers below
// apply the container rules transitively to whatever element encoder the
// caller supplies.

// WriteSeq writes a varint length prefix followed by each element in
// iteration order, using writeElem for each. Used for both "sequence of
// T" and "set of T" — the wire form is identical, only iteration order
// for a set is caller-defined.
func WriteSeq[T any](b *buffer.Buffer, items []T, writeElem func(*buffer.Buffer, T)) {
	b.WriteVarint64(uint64(len(items)))
	for _, it := range items {
		writeElem(b, it)
	}
}

// ReadSeq reads a varint length prefix then that many elements via
// readElem.
func ReadSeq[T any](b *buffer.Buffer, readElem func(*buffer.Buffer) (T, error)) ([]T, error) {
	n, err := b.ReadVarint64()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := readElem(b)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// WritePair writes first then second, with no prefix.
func WritePair[A, B any](buf *buffer.Buffer, a A, b B, writeA func(*buffer.Buffer, A), writeB func(*buffer.Buffer, B)) {
	writeA(buf, a)
	writeB(buf, b)
}

// ReadPair reads a pair written by WritePair.
func ReadPair[A, B any](buf *buffer.Buffer, readA func(*buffer.Buffer) (A, error), readB func(*buffer.Buffer) (B, error)) (A, B, error) {
	var zeroA A
	var zeroB B
	a, err := readA(buf)
	if err != nil {
		return zeroA, zeroB, err
	}
	b, err := readB(buf)
	if err != nil {
		return zeroA, zeroB, err
	}
	return a, b, nil
}

// WriteMap writes a varint count followed by that many key/value pairs in
// map iteration order.
func WriteMap[K comparable, V any](b *buffer.Buffer, m map[K]V, writeKey func(*buffer.Buffer, K), writeVal func(*buffer.Buffer, V)) {
	b.WriteVarint64(uint64(len(m)))
	for k, v := range m {
		writeKey(b, k)
		writeVal(b, v)
	}
}

// ReadMap reads a map written by WriteMap.
func ReadMap[K comparable, V any](b *buffer.Buffer, readKey func(*buffer.Buffer) (K, error), readVal func(*buffer.Buffer) (V, error)) (map[K]V, error) {
	n, err := b.ReadVarint64()
	if err != nil {
		return nil, err
	}
	out := make(map[K]V, n)
	for i := uint64(0); i < n; i++ {
		k, err := readKey(b)
		if err != nil {
			return nil, err
		}
		v, err := readVal(b)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// WriteString/ReadString are the varint-length-prefixed string forms used
// throughout the RPC wire format (method names, service names, keys).
func WriteString(b *buffer.Buffer, s string) { b.WriteStringVarint(s) }

func ReadString(b *buffer.Buffer) (string, error) { return b.ReadStringVarint() }
