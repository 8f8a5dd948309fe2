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

package synctask

import (
	"errors"
	"time"

	"github.com/suololololo/AsyncRPC/task"
	"github.com/suololololo/AsyncRPC/timer"
)

// ErrChanClosed is returned by Send on a closed channel.
var ErrChanClosed = errors.New("synctask: send on closed channel")

// Chan is a bounded FIFO channel of T for tasks: Send suspends while
// full, Recv suspends while empty, and Close lets every queued value
// drain in order before Recv starts reporting closed.
type Chan[T any] struct {
	mu       *Mutex
	notEmpty *Cond
	notFull  *Cond

	buf      []T
	capacity int
	closed   bool
}

// NewChan returns an empty Chan with the given capacity (must be >= 1).
func NewChan[T any](capacity int, resubmit Resubmit, wheel *timer.Wheel) *Chan[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Chan[T]{
		mu:       NewMutex(resubmit),
		notEmpty: NewCond(wheel),
		notFull:  NewCond(wheel),
		capacity: capacity,
	}
}

// Send enqueues v, suspending self while the channel is full. Returns
// ErrChanClosed if the channel is already closed.
func (c *Chan[T]) Send(self *task.Task, v T, resubmit Resubmit) error {
	c.mu.Lock(self)
	for len(c.buf) >= c.capacity && !c.closed {
		c.notFull.Wait(self, c.mu)
	}
	if c.closed {
		c.mu.Unlock(self)
		return ErrChanClosed
	}
	c.buf = append(c.buf, v)
	c.mu.Unlock(self)
	c.notEmpty.NotifyOne(resubmit)
	return nil
}

// Recv dequeues the oldest value, suspending self while the channel is
// empty. The second return is false once the channel is closed and
// drained, matching a closed Go channel's zero-value/false read.
func (c *Chan[T]) Recv(self *task.Task, resubmit Resubmit) (T, bool) {
	c.mu.Lock(self)
	for len(c.buf) == 0 && !c.closed {
		c.notEmpty.Wait(self, c.mu)
	}
	if len(c.buf) == 0 {
		c.mu.Unlock(self)
		var zero T
		return zero, false
	}
	v := c.buf[0]
	c.buf = c.buf[1:]
	c.mu.Unlock(self)
	c.notFull.NotifyOne(resubmit)
	return v, true
}

// RecvFor is Recv with a deadline. The third return is true when d
// elapsed with nothing to deliver; the caller distinguishes that from a
// closed-and-drained channel (ok=false, timedOut=false).
func (c *Chan[T]) RecvFor(self *task.Task, d time.Duration, resubmit Resubmit) (v T, ok bool, timedOut bool) {
	deadline := time.Now().Add(d)
	c.mu.Lock(self)
	for len(c.buf) == 0 && !c.closed {
		remain := time.Until(deadline)
		if remain <= 0 || !c.notEmpty.WaitFor(self, c.mu, remain) {
			// deadline hit; a value or a close may still have slipped
			// in between the timer firing and this task resuming
			if len(c.buf) > 0 || c.closed {
				break
			}
			c.mu.Unlock(self)
			return v, false, true
		}
	}
	if len(c.buf) == 0 {
		c.mu.Unlock(self)
		return v, false, false
	}
	v = c.buf[0]
	c.buf = c.buf[1:]
	c.mu.Unlock(self)
	c.notFull.NotifyOne(resubmit)
	return v, true, false
}

// Close marks the channel closed: queued values already in buf are
// still delivered by subsequent Recv calls, but Send starts failing and
// Recv starts returning ok=false once the buffer is empty. Every task
// parked on Send or Recv is woken so it can observe the new state.
func (c *Chan[T]) Close(self *task.Task, resubmit Resubmit) {
	c.mu.Lock(self)
	c.closed = true
	c.mu.Unlock(self)
	c.notEmpty.NotifyAll(resubmit)
	c.notFull.NotifyAll(resubmit)
}

// Len reports the number of values currently buffered.
func (c *Chan[T]) Len(self *task.Task) int {
	c.mu.Lock(self)
	defer c.mu.Unlock(self)
	return len(c.buf)
}
