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

package scheduler

import "time"

// Idler supplies the scheduler's "idle-task fiber" behavior. Reactor overrides it with an epoll wait; the plain scheduler uses
// a channel-based default that just sleeps until notified or timed out.
type Idler interface {
	// Wait blocks until Notify is called or timeout elapses, whichever
	// comes first.
	Wait(timeout time.Duration)
	// Notify wakes at least one blocked Wait call.
	Notify()
	// NextTimeout bounds how long the next Wait may block.
	NextTimeout() time.Duration
}

const defaultIdleTimeout = 50 * time.Millisecond

type defaultIdler struct {
	ch chan struct{}
}

func newDefaultIdler() *defaultIdler {
	return &defaultIdler{ch: make(chan struct{}, 1)}
}

func (d *defaultIdler) Wait(timeout time.Duration) {
	select {
	case <-d.ch:
	case <-time.After(timeout):
	}
}

func (d *defaultIdler) Notify() {
	select {
	case d.ch <- struct{}{}:
	default:
	}
}

func (d *defaultIdler) NextTimeout() time.Duration { return defaultIdleTimeout }
