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

// String, Int64 and Bool are Marshaler/Unmarshaler wrappers around the
// scalar types method handlers reach for most often, so a handler
// signature like `func(codec.String, codec.Int64) (codec.String, error)`
// needs no bespoke type just to cross the wire.

type String string

func (s String) MarshalRPC(b *buffer.Buffer) { b.WriteStringVarint(string(s)) }
func (s *String) UnmarshalRPC(b *buffer.Buffer) error {
	v, err := b.ReadStringVarint()
	if err != nil {
		return err
	}
	*s = String(v)
	return nil
}

type Int64 int64

func (i Int64) MarshalRPC(b *buffer.Buffer) { b.WriteSVarint64(int64(i)) }
func (i *Int64) UnmarshalRPC(b *buffer.Buffer) error {
	v, err := b.ReadSVarint64()
	if err != nil {
		return err
	}
	*i = Int64(v)
	return nil
}

type Bool bool

func (v Bool) MarshalRPC(b *buffer.Buffer) { b.WriteBool(bool(v)) }
func (v *Bool) UnmarshalRPC(b *buffer.Buffer) error {
	r, err := b.ReadBool()
	if err != nil {
		return err
	}
	*v = Bool(r)
	return nil
}
