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

// Marshaler and Unmarshaler let the RPC layer encode/decode argument and
// return-value tuples without knowing their concrete types at compile
// time: rpc/server builds its per-method closures by reflecting over a
// handler's argument list and calling these through a
// reflect.Value, the same way the generic container helpers in
// container.go take an explicit element codec instead of a type switch.
type Marshaler interface {
	MarshalRPC(b *buffer.Buffer)
}

// Unmarshaler is implemented on a pointer receiver so UnmarshalRPC can
// populate the zero value reflect.New allocates.
type Unmarshaler interface {
	UnmarshalRPC(b *buffer.Buffer) error
}

// Void stands in for a handler's argument tuple or return value when it
// takes or returns nothing. It marshals to the single dummy byte a
// void-returning target substitutes for its missing value.
type Void struct{}

func (Void) MarshalRPC(b *buffer.Buffer) { b.WriteU8(0) }
func (v *Void) UnmarshalRPC(b *buffer.Buffer) error {
	_, err := b.ReadU8()
	return err
}
