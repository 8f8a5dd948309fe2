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

var _ = Describe("value", func() {
	It("scalar wrappers roundtrip through one buffer in order", func() {
		b := buffer.New()
		codec.String("hello").MarshalRPC(b)
		codec.Int64(-42).MarshalRPC(b)
		codec.Bool(true).MarshalRPC(b)
		Expect(b.Seek(0)).To(Succeed())

		var s codec.String
		Expect(s.UnmarshalRPC(b)).To(Succeed())
		Expect(s).To(Equal(codec.String("hello")))

		var i codec.Int64
		Expect(i.UnmarshalRPC(b)).To(Succeed())
		Expect(i).To(Equal(codec.Int64(-42)))

		var v codec.Bool
		Expect(v.UnmarshalRPC(b)).To(Succeed())
		Expect(bool(v)).To(BeTrue())
	})

	It("Void marshals as exactly one dummy byte", func() {
		b := buffer.New()
		codec.Void{}.MarshalRPC(b)
		Expect(b.Len()).To(BeEquivalentTo(1))
		Expect(b.Seek(0)).To(Succeed())

		var v codec.Void
		Expect(v.UnmarshalRPC(b)).To(Succeed())
	})
})
