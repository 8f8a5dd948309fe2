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

import "io"

// DefaultChunkSize is the capacity, in bytes, of each chunk allocated by a
// Buffer. Chosen to match a typical socket read size so that one recv(2)
// into a gathered write-iovec set rarely spans more than one chunk.
const DefaultChunkSize = 4096

// chunk is one fixed-capacity link in the buffer's chunk chain.
type chunk struct {
	data []byte // len(data) == cap, cap fixed at allocation
	next *chunk
}

// Buffer is a chunked, growable byte store with a single read/write cursor.
//
// Invariants: cursor <= committed <= capacity; chunks form a singly linked
// list; growth always allocates a whole chunk. active caches the chunk
// most recently located by chunkAt, as a lookup hint: it is not kept on
// the chunk containing cursor (Seek and the Gather*Iovecs calls leave it
// elsewhere).
type Buffer struct {
	chunkSize int
	head      *chunk
	tail      *chunk
	active    *chunk
	activeOff int64 // logical offset of active chunk's first byte
	cursor    int64
	committed int64
	capacity  int64
}

// New returns an empty Buffer using DefaultChunkSize chunks.
func New() *Buffer {
	return NewSize(DefaultChunkSize)
}

// NewSize returns an empty Buffer using the given chunk size.
func NewSize(chunkSize int) *Buffer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	b := &Buffer{chunkSize: chunkSize}
	b.growChunk()
	return b
}

func (b *Buffer) growChunk() *chunk {
	c := &chunk{data: make([]byte, b.chunkSize)}
	if b.head == nil {
		b.head = c
		b.active = c
		b.activeOff = 0
	} else {
		b.tail.next = c
	}
	b.tail = c
	b.capacity += int64(b.chunkSize)
	return c
}

// chunkAt returns the chunk containing logical offset pos, and the offset
// within that chunk, growing the chain if pos lands past current capacity.
func (b *Buffer) chunkAt(pos int64) (*chunk, int) {
	// fast path: still within the active chunk
	if pos >= b.activeOff && pos < b.activeOff+int64(b.chunkSize) {
		return b.active, int(pos - b.activeOff)
	}

	// walk from head; relink active/activeOff as we pass through
	off := int64(0)
	c := b.head
	for c != nil {
		if pos >= off && pos < off+int64(b.chunkSize) {
			b.active = c
			b.activeOff = off
			return c, int(pos - off)
		}
		if c.next == nil && pos >= off+int64(b.chunkSize) {
			nc := b.growChunk()
			c.next = nc
		}
		off += int64(b.chunkSize)
		c = c.next
	}
	// pos == capacity exactly: return a fresh chunk boundary
	nc := b.growChunk()
	b.active = nc
	b.activeOff = off
	return nc, 0
}

// Cap returns the buffer's total allocated capacity in bytes.
func (b *Buffer) Cap() int64 { return b.capacity }

// Len returns the committed high-water mark (total bytes ever written that
// are still within the readable region).
func (b *Buffer) Len() int64 { return b.committed }

// ReadableSize returns the number of bytes between the cursor and the
// committed high-water mark.
func (b *Buffer) ReadableSize() int64 { return b.committed - b.cursor }

// Seek moves the cursor to an absolute position within [0, committed].
// Seeking past the committed region fails with ErrOutOfRange.
func (b *Buffer) Seek(pos int64) error {
	if pos < 0 || pos > b.committed {
		return ErrOutOfRange
	}
	b.cursor = pos
	return nil
}

// Position returns the current cursor offset.
func (b *Buffer) Position() int64 { return b.cursor }

// Reset clears the buffer back to its just-allocated state, keeping the
// first chunk so the next write does not need to allocate immediately.
func (b *Buffer) Reset() {
	b.cursor = 0
	b.committed = 0
	b.active = b.head
	b.activeOff = 0
}

// Write appends p at the cursor, advancing the cursor and, if the cursor
// runs past the prior high-water mark, the committed size too. It never
// fails short: the chunk chain grows on demand.
func (b *Buffer) Write(p []byte) (n int, err error) {
	for len(p) > 0 {
		c, off := b.chunkAt(b.cursor)
		k := copy(c.data[off:], p)
		p = p[k:]
		b.cursor += int64(k)
		n += k
		if b.cursor > b.committed {
			b.committed = b.cursor
		}
	}
	return n, nil
}

// Read copies from the cursor forward, never crossing the committed-size
// boundary. Returns io.EOF once the cursor reaches the committed mark.
func (b *Buffer) Read(p []byte) (n int, err error) {
	avail := b.ReadableSize()
	if avail <= 0 {
		return 0, io.EOF
	}
	want := int64(len(p))
	if want > avail {
		want = avail
	}
	for int64(n) < want {
		c, off := b.chunkAt(b.cursor)
		remain := int64(b.chunkSize - off)
		step := want - int64(n)
		if step > remain {
			step = remain
		}
		copy(p[n:], c.data[off:off+int(step)])
		n += int(step)
		b.cursor += step
	}
	return n, nil
}

// Bytes materializes the readable region [cursor, committed) into a single
// contiguous slice. Intended for small payloads (e.g. a decoded frame
// body) — large transfers should use GatherReadIovecs instead.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, b.ReadableSize())
	saved := b.cursor
	_, _ = b.Read(out)
	b.cursor = saved
	return out
}

// GatherReadIovecs returns up to length bytes of the readable region as a
// sequence of slices aliasing the underlying chunks, suitable for a
// writev(2)-style scatter write to a transport. The sum of returned slice
// lengths never exceeds min(length, ReadableSize()).
func (b *Buffer) GatherReadIovecs(length int) [][]byte {
	avail := b.ReadableSize()
	if int64(length) > avail {
		length = int(avail)
	}
	var out [][]byte
	pos := b.cursor
	remaining := length
	for remaining > 0 {
		c, off := b.chunkAt(pos)
		chunkRemain := b.chunkSize - off
		take := remaining
		if take > chunkRemain {
			take = chunkRemain
		}
		out = append(out, c.data[off:off+take])
		pos += int64(take)
		remaining -= take
	}
	return out
}

// GatherWriteIovecs expands the buffer as needed to provide at least
// length bytes of free space past the committed mark, and returns that
// space as a sequence of slices aliasing the underlying chunks, suitable
// for a readv(2)-style scatter read from a transport. The caller must
// call CommitWrite with the number of bytes actually filled.
func (b *Buffer) GatherWriteIovecs(length int) [][]byte {
	var out [][]byte
	pos := b.committed
	remaining := length
	for remaining > 0 {
		c, off := b.chunkAt(pos)
		chunkRemain := b.chunkSize - off
		take := remaining
		if take > chunkRemain {
			take = chunkRemain
		}
		out = append(out, c.data[off:off+take])
		pos += int64(take)
		remaining -= take
	}
	return out
}

// CommitWrite advances the committed high-water mark by exactly n bytes,
// as required after a transport fills space obtained from
// GatherWriteIovecs. The cursor does not move: the filled bytes become
// readable from the reader's current position.
func (b *Buffer) CommitWrite(n int) {
	b.committed += int64(n)
}

// CommitRead advances the cursor by exactly n bytes, as required after a
// transport drains space obtained from GatherReadIovecs.
func (b *Buffer) CommitRead(n int) {
	b.cursor += int64(n)
}
