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

package reactor

import "errors"

// Event is a readiness direction. A descriptor may be armed for either
// or both directions independently.
type Event uint8

const (
	Read Event = 1 << iota
	Write
)

func (e Event) has(o Event) bool { return e&o != 0 }

// Waker is called exactly once when the event it was registered for
// fires (or is canceled). err is non-nil only for a canceled
// registration or a poller-reported error condition translated to the
// direction(s) the caller had armed.
type Waker func(fired Event, err error)

// ErrDuplicate is returned by AddEvent when that (fd, event) pair is
// already armed.
var ErrDuplicate = errors.New("reactor: event already registered for descriptor")

// ErrCanceled is the error a Waker receives when its registration was
// removed via CancelEvent/CancelAll rather than firing naturally.
var ErrCanceled = errors.New("reactor: event canceled")
