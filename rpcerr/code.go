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

// Package rpcerr provides the RPC call-outcome error codes and an
// Error type carrying a code, a message, and an optional parent error for
// chaining, in the style of a code-to-message registry rather than one
// sentinel per failure.
package rpcerr

import (
	"github.com/suololololo/AsyncRPC/codec"
)

// Code mirrors codec.ResultCode: the six outcomes a method call can
// resolve to. Kept as a distinct type so callers reason about it as an
// error classification, not a wire value.
type Code uint16

const (
	Success      Code = Code(codec.Success)
	Fail         Code = Code(codec.Fail)
	ArgsNotMatch Code = Code(codec.ArgsNotMatch)
	NoMethod     Code = Code(codec.NoMethod)
	Closed       Code = Code(codec.Closed)
	Timeout      Code = Code(codec.Timeout)
)

var message = map[Code]string{
	Success:      "success",
	Fail:         "call failed",
	ArgsNotMatch: "argument types do not match the registered method signature",
	NoMethod:     "no method registered under that name",
	Closed:       "session closed",
	Timeout:      "call timed out waiting for a response",
}

// Message returns the default message registered for code, or "unknown
// error code" if none is registered.
func (c Code) Message() string {
	if m, ok := message[c]; ok {
		return m
	}
	return "unknown error code"
}

func (c Code) String() string {
	return codec.ResultCode(c).String()
}

// ResultCode converts c to its wire representation.
func (c Code) ResultCode() codec.ResultCode {
	return codec.ResultCode(c)
}

// FromResultCode converts a decoded wire code back to Code.
func FromResultCode(c codec.ResultCode) Code {
	return Code(c)
}

// Error builds a new *Error for code, using the registered default
// message and the given parents.
func (c Code) Error(parent ...error) *Error {
	return New(c, c.Message(), parent...)
}

// Errorf builds a new *Error for code with a custom message.
func (c Code) Errorf(message string, parent ...error) *Error {
	return New(c, message, parent...)
}
