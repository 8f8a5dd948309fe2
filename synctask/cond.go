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
	"sync"
	"sync/atomic"
	"time"

	"github.com/suololololo/AsyncRPC/task"
	"github.com/suololololo/AsyncRPC/timer"
)

// Cond is a condition variable for tasks, always used together with a
// Mutex the caller already holds: Wait/WaitFor release the mutex, park
// the task, and reacquire the mutex before returning.
//
// WaitFor's timeout and a concurrent Notify can fire around the same
// instant; the tie is resolved with a single atomic CAS per waiter:
// whichever of {Notify, the timeout callback} observes the waiter first
// wins, and the other is a no-op.
type Cond struct {
	wheel *timer.Wheel

	mu      sync.Mutex
	waiters []*condWaiter
}

type condWaiter struct {
	t                *task.Task
	done             atomic.Bool
	notifiedByNotify atomic.Bool
}

// NewCond returns a Cond whose WaitFor deadlines are scheduled on wheel.
func NewCond(wheel *timer.Wheel) *Cond {
	return &Cond{wheel: wheel}
}

// Wait releases m, suspends self until a Notify call claims it, then
// reacquires m before returning.
func (c *Cond) Wait(self *task.Task, m *Mutex) {
	w := &condWaiter{t: self}
	c.mu.Lock()
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	m.Unlock(self)
	self.YieldToSuspended()
	m.Lock(self)
}

// WaitFor is Wait with a deadline: it returns true if a Notify call
// claimed the waiter, false if d elapsed first. Either way m is held
// again on return.
func (c *Cond) WaitFor(self *task.Task, m *Mutex, d time.Duration) bool {
	w := &condWaiter{t: self}
	c.mu.Lock()
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	guard := timer.NewGuard()
	tm := c.wheel.AddConditional(d, guard, func() {
		if w.done.CompareAndSwap(false, true) {
			c.removeWaiter(w)
			if w.t.MarkReady() {
				m.resubmit(w.t)
			}
		}
	})

	m.Unlock(self)
	self.YieldToSuspended()
	guard.Invalidate()
	c.wheel.Cancel(tm)
	m.Lock(self)

	return w.done.Load() && c.wasNotified(w)
}

// wasNotified distinguishes "claimed by Notify" from "claimed by
// timeout" for a waiter that is already done by the time WaitFor
// resumes; Notify marks this explicitly since both paths set done.
func (c *Cond) wasNotified(w *condWaiter) bool {
	return w.notifiedByNotify.Load()
}

func (c *Cond) removeWaiter(w *condWaiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cand := range c.waiters {
		if cand == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

// NotifyOne wakes the longest-waiting task, if any.
func (c *Cond) NotifyOne(resubmit Resubmit) {
	for {
		c.mu.Lock()
		if len(c.waiters) == 0 {
			c.mu.Unlock()
			return
		}
		w := c.waiters[0]
		c.waiters = c.waiters[1:]
		c.mu.Unlock()

		if w.done.CompareAndSwap(false, true) {
			w.notifiedByNotify.Store(true)
			if w.t.MarkReady() {
				resubmit(w.t)
			}
			return
		}
		// already claimed by its own timeout; try the next waiter
	}
}

// NotifyAll wakes every waiter currently queued.
func (c *Cond) NotifyAll(resubmit Resubmit) {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	for _, w := range waiters {
		if w.done.CompareAndSwap(false, true) {
			w.notifiedByNotify.Store(true)
			if w.t.MarkReady() {
				resubmit(w.t)
			}
		}
	}
}
