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

package buffer_test

import (
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suololololo/AsyncRPC/buffer"
)

func TestCursorRoundTrip(t *testing.T) {
	b := buffer.NewSize(8) // small chunks to force chaining
	k1 := []byte("hello")
	k2 := []byte("world!!")

	_, _ = b.Write(k1)
	_, _ = b.Write(k2)

	require.NoError(t, b.Seek(0))

	got1 := make([]byte, len(k1))
	n, err := b.Read(got1)
	require.NoError(t, err)
	require.Equal(t, len(k1), n)
	require.Equal(t, k1, got1)

	got2 := make([]byte, len(k2))
	n, err = b.Read(got2)
	require.NoError(t, err)
	require.Equal(t, len(k2), n)
	require.Equal(t, k2, got2)

	require.Zero(t, b.ReadableSize())
}

func TestSeekOutOfRange(t *testing.T) {
	b := buffer.New()
	_, _ = b.Write([]byte("abc"))
	require.Error(t, b.Seek(100))
	require.NoError(t, b.Seek(3))
	require.NoError(t, b.Seek(0))
}

func TestReadEOF(t *testing.T) {
	b := buffer.New()
	p := make([]byte, 4)
	_, err := b.Read(p)
	require.ErrorIs(t, err, io.EOF)
}

func TestScalarRoundTrip(t *testing.T) {
	b := buffer.New()
	b.WriteU8(200)
	b.WriteI16(-1234)
	b.WriteU32(0xdeadbeef)
	b.WriteI64(-9223372036854775808)
	b.WriteF32(3.14)
	b.WriteF64(2.71828)
	b.WriteBool(true)

	require.NoError(t, b.Seek(0))

	u8, err := b.ReadU8()
	require.NoError(t, err)
	require.EqualValues(t, 200, u8)

	i16, err := b.ReadI16()
	require.NoError(t, err)
	require.EqualValues(t, -1234, i16)

	u32, err := b.ReadU32()
	require.NoError(t, err)
	require.EqualValues(t, 0xdeadbeef, u32)

	i64, err := b.ReadI64()
	require.NoError(t, err)
	require.EqualValues(t, -9223372036854775808, i64)

	f32, err := b.ReadF32()
	require.NoError(t, err)
	require.InDelta(t, 3.14, f32, 1e-6)

	f64, err := b.ReadF64()
	require.NoError(t, err)
	require.InDelta(t, 2.71828, f64, 1e-12)

	bl, err := b.ReadBool()
	require.NoError(t, err)
	require.True(t, bl)
}

func TestVarintRoundTripUnsigned(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 16383, 16384, math.MaxUint32, math.MaxUint64}
	for _, v := range values {
		b := buffer.New()
		b.WriteVarint64(v)
		require.NoError(t, b.Seek(0))
		got, err := b.ReadVarint64()
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestVarintRoundTripSigned(t *testing.T) {
	values := []int64{0, -1, 1, -127, 127, math.MinInt32, math.MaxInt32, math.MinInt64, math.MaxInt64}
	for _, v := range values {
		b := buffer.New()
		b.WriteSVarint64(v)
		require.NoError(t, b.Seek(0))
		got, err := b.ReadSVarint64()
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestVarintEncodedLength(t *testing.T) {
	require.Equal(t, 1, buffer.VarintLen64(0))
	require.Equal(t, 1, buffer.VarintLen64((1<<7)-1))
	require.Equal(t, 2, buffer.VarintLen64(1<<7))
	require.Equal(t, 2, buffer.VarintLen64((1<<14)-1))
	require.Equal(t, 3, buffer.VarintLen64(1<<14))
}

func TestStringVarintRoundTrip(t *testing.T) {
	b := buffer.New()
	b.WriteStringVarint("add")
	b.WriteStringVarint("")
	b.WriteStringVarint("a longer service name")
	require.NoError(t, b.Seek(0))

	s1, err := b.ReadStringVarint()
	require.NoError(t, err)
	require.Equal(t, "add", s1)

	s2, err := b.ReadStringVarint()
	require.NoError(t, err)
	require.Equal(t, "", s2)

	s3, err := b.ReadStringVarint()
	require.NoError(t, err)
	require.Equal(t, "a longer service name", s3)
}

func TestGatherIovecsRoundTrip(t *testing.T) {
	b := buffer.NewSize(4)
	iovs := b.GatherWriteIovecs(10)
	total := 0
	for _, v := range iovs {
		for i := range v {
			v[i] = byte(total)
			total++
		}
	}
	b.CommitWrite(10)
	require.EqualValues(t, 10, b.Len())

	riov := b.GatherReadIovecs(10)
	got := make([]byte, 0, 10)
	for _, v := range riov {
		got = append(got, v...)
	}
	require.Len(t, got, 10)
	for i, v := range got {
		require.EqualValues(t, byte(i), v)
	}
}
