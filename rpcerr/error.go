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

package rpcerr

import (
	"errors"
	"fmt"
)

// Error is the concrete error type returned by the client and server for
// any non-Success call outcome. It carries a Code, a message, and an
// optional parent for chaining (e.g. a Fail wrapping the handler's own
// error, or a Timeout wrapping a context.DeadlineExceeded).
type Error struct {
	code    Code
	message string
	parent  error
}

// New builds an Error with the given code, message and optional parent.
// Only the first parent is kept; pass an already-joined error (e.g. via
// errors.Join) to attach more than one.
func New(code Code, message string, parent ...error) *Error {
	var p error
	if len(parent) > 0 {
		p = parent[0]
	}
	return &Error{code: code, message: message, parent: p}
}

// Newf builds an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.parent != nil {
		return fmt.Sprintf("[%s] %s: %s", e.code, e.message, e.parent.Error())
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

// Code returns the error's classification.
func (e *Error) Code() Code { return e.code }

// Parent returns the wrapped cause, or nil if there is none.
func (e *Error) Parent() error { return e.parent }

// Unwrap gives errors.Is/errors.As access to the parent chain.
func (e *Error) Unwrap() error { return e.parent }

// IsCode reports whether err is an *Error with the given code, searching
// the full parent chain.
func IsCode(err error, code Code) bool {
	for err != nil {
		var e *Error
		if errors.As(err, &e) {
			if e.code == code {
				return true
			}
			err = e.parent
			continue
		}
		return false
	}
	return false
}

// Get returns the first *Error found in err's Unwrap chain (err itself
// included), nil otherwise.
func Get(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
