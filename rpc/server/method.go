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

package server

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/suololololo/AsyncRPC/buffer"
	"github.com/suololololo/AsyncRPC/codec"
)

// ErrBadHandler is returned by Register when fn's signature doesn't fit
// the RPC shape: func(args... codec.Unmarshaler-by-pointer) (R
// codec.Marshaler, error).
var ErrBadHandler = errors.New("server: handler signature must be func(args...) (R, error) with args implementing codec.Unmarshaler by pointer and R implementing codec.Marshaler")

var (
	unmarshalerType = reflect.TypeOf((*codec.Unmarshaler)(nil)).Elem()
	marshalerType   = reflect.TypeOf((*codec.Marshaler)(nil)).Elem()
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
)

// method is the reflected, type-erased form of one registered handler.
type method struct {
	fn       reflect.Value
	argTypes []reflect.Type
}

func newMethod(fn any) (*method, error) {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func || t.NumOut() != 2 || !t.Out(1).Implements(errorType) {
		return nil, ErrBadHandler
	}
	if !t.Out(0).Implements(marshalerType) {
		return nil, fmt.Errorf("%w: return type %s does not implement codec.Marshaler", ErrBadHandler, t.Out(0))
	}
	argTypes := make([]reflect.Type, t.NumIn())
	for i := 0; i < t.NumIn(); i++ {
		at := t.In(i)
		if !reflect.PointerTo(at).Implements(unmarshalerType) {
			return nil, fmt.Errorf("%w: argument %d type %s does not implement codec.Unmarshaler by pointer", ErrBadHandler, i, at)
		}
		argTypes[i] = at
	}
	return &method{fn: v, argTypes: argTypes}, nil
}

// invoke decodes body into the handler's argument tuple, calls it, and
// returns the already-framed Result body.
func (m *method) invoke(body []byte) []byte {
	resp := buffer.New()

	argBuf := buffer.New()
	_, _ = argBuf.Write(body)
	_ = argBuf.Seek(0)

	args := make([]reflect.Value, len(m.argTypes))
	for i, at := range m.argTypes {
		ptr := reflect.New(at)
		if err := ptr.Interface().(codec.Unmarshaler).UnmarshalRPC(argBuf); err != nil {
			codec.WriteResultHeader(resp, codec.ArgsNotMatch, err.Error())
			_ = resp.Seek(0)
			return resp.Bytes()
		}
		args[i] = ptr.Elem()
	}

	out := m.fn.Call(args)
	if errVal := out[1]; !errVal.IsNil() {
		codec.WriteResultHeader(resp, codec.Fail, errVal.Interface().(error).Error())
		_ = resp.Seek(0)
		return resp.Bytes()
	}

	codec.WriteResultHeader(resp, codec.Success, "")
	out[0].Interface().(codec.Marshaler).MarshalRPC(resp)
	_ = resp.Seek(0)
	return resp.Bytes()
}
