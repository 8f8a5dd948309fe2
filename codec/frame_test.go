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

package codec_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/suololololo/AsyncRPC/buffer"
	"github.com/suololololo/AsyncRPC/codec"
)

var _ = Describe("frame", func() {
	It("Encode/Decode roundtrips header fields and body", func() {
		cases := []codec.Frame{
			{Type: codec.Heartbeat, Seq: 0, Body: nil},
			{Type: codec.MethodRequest, Seq: 1, Body: []byte("x")},
			{Type: codec.MethodResponse, Seq: 0xffffffff, Body: []byte("a longer body used to exercise chunking")},
		}
		for _, f := range cases {
			raw, err := codec.Encode(f)
			Expect(err).ToNot(HaveOccurred())
			Expect(raw).To(HaveLen(codec.HeaderSize + len(f.Body)))

			got, err := codec.Decode(raw)
			Expect(err).ToNot(HaveOccurred())
			Expect(got.Type).To(Equal(f.Type))
			Expect(got.Seq).To(Equal(f.Seq))
			Expect(got.Body).To(Equal(f.Body))
		}
	})

	It("DecodeHeader rejects a bad magic byte", func() {
		raw := codec.EncodeHeader(codec.Heartbeat, 0, 0)
		raw[0] = 0x00
		_, err := codec.DecodeHeader(raw)
		Expect(err).To(MatchError(codec.ErrBadMagic))
	})

	It("Decode rejects short input", func() {
		_, err := codec.DecodeHeader(make([]byte, 3))
		Expect(err).To(MatchError(codec.ErrShortBuffer))

		_, err = codec.Decode(make([]byte, 3))
		Expect(err).To(MatchError(codec.ErrShortBuffer))
	})

	It("Decode rejects a body shorter than the header promises", func() {
		raw := codec.EncodeHeader(codec.Heartbeat, 1, 5)
		raw = append(raw, []byte("ab")...) // only 2 of the promised 5 bytes
		_, err := codec.Decode(raw)
		Expect(err).To(MatchError(codec.ErrShortBuffer))
	})

	It("EncodeHeader lays fields out big-endian in wire order", func() {
		raw := codec.EncodeHeader(codec.MethodRequest, 0x01020304, 0x05060708)
		Expect(raw[0]).To(Equal(codec.Magic))
		Expect(raw[1]).To(Equal(codec.Version))
		Expect(raw[2]).To(Equal(uint8(codec.MethodRequest)))
		Expect(raw[3:7]).To(Equal([]byte{0x01, 0x02, 0x03, 0x04}))
		Expect(raw[7:11]).To(Equal([]byte{0x05, 0x06, 0x07, 0x08}))
	})
})

var _ = Describe("containers", func() {
	It("WriteSeq/ReadSeq roundtrip in element order", func() {
		b := buffer.New()
		items := []int32{1, -2, 3, -4, 5}
		codec.WriteSeq(b, items, func(buf *buffer.Buffer, v int32) { buf.WriteSVarint32(v) })
		Expect(b.Seek(0)).To(Succeed())
		got, err := codec.ReadSeq(b, func(buf *buffer.Buffer) (int32, error) { return buf.ReadSVarint32() })
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(items))
	})

	It("WritePair/ReadPair roundtrip first then second", func() {
		b := buffer.New()
		codec.WritePair(b, "add", int32(42),
			func(buf *buffer.Buffer, s string) { buf.WriteStringVarint(s) },
			func(buf *buffer.Buffer, v int32) { buf.WriteSVarint32(v) })
		Expect(b.Seek(0)).To(Succeed())
		s, v, err := codec.ReadPair(b,
			func(buf *buffer.Buffer) (string, error) { return buf.ReadStringVarint() },
			func(buf *buffer.Buffer) (int32, error) { return buf.ReadSVarint32() })
		Expect(err).ToNot(HaveOccurred())
		Expect(s).To(Equal("add"))
		Expect(v).To(BeEquivalentTo(42))
	})

	It("WriteMap/ReadMap roundtrip all pairs", func() {
		b := buffer.New()
		m := map[string]int32{"a": 1, "b": 2, "c": 3}
		codec.WriteMap(b, m,
			func(buf *buffer.Buffer, k string) { buf.WriteStringVarint(k) },
			func(buf *buffer.Buffer, v int32) { buf.WriteSVarint32(v) })
		Expect(b.Seek(0)).To(Succeed())
		got, err := codec.ReadMap(b,
			func(buf *buffer.Buffer) (string, error) { return buf.ReadStringVarint() },
			func(buf *buffer.Buffer) (int32, error) { return buf.ReadSVarint32() })
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(m))
	})
})

var _ = Describe("result", func() {
	It("a Success result carries its value", func() {
		b := buffer.New()
		codec.WriteResult(b, codec.Success, "", int32(7), func(buf *buffer.Buffer, v int32) { buf.WriteSVarint32(v) })
		Expect(b.Seek(0)).To(Succeed())
		code, msg, v, err := codec.ReadResult(b, func(buf *buffer.Buffer) (int32, error) { return buf.ReadSVarint32() })
		Expect(err).ToNot(HaveOccurred())
		Expect(code).To(Equal(codec.Success))
		Expect(msg).To(BeEmpty())
		Expect(v).To(BeEquivalentTo(7))
	})

	It("a non-Success result omits the value and never invokes readValue", func() {
		b := buffer.New()
		codec.WriteResultHeader(b, codec.NoMethod, "no such method: add")
		Expect(b.Seek(0)).To(Succeed())
		invoked := false
		code, msg, v, err := codec.ReadResult(b, func(buf *buffer.Buffer) (int32, error) {
			invoked = true
			return 0, nil
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(invoked).To(BeFalse())
		Expect(code).To(Equal(codec.NoMethod))
		Expect(msg).To(Equal("no such method: add"))
		Expect(v).To(BeZero())
	})
})
