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
	"time"

	"github.com/suololololo/AsyncRPC/task"
	"github.com/suololololo/AsyncRPC/timer"
)

// Semaphore is a counting semaphore for tasks, built on Mutex and Cond
// rather than golang.org/x/sync/semaphore: that package blocks the
// calling goroutine directly, which would also stall the worker that
// resumed the task (Resume doesn't return until the task yields), so it
// can't participate in cooperative scheduling. This one can.
type Semaphore struct {
	mu      *Mutex
	nonZero *Cond
	count   int
}

// NewSemaphore returns a Semaphore starting with n permits available.
func NewSemaphore(n int, resubmit Resubmit, wheel *timer.Wheel) *Semaphore {
	m := NewMutex(resubmit)
	return &Semaphore{mu: m, nonZero: NewCond(wheel), count: n}
}

// Acquire takes one permit, suspending self while none are available.
func (s *Semaphore) Acquire(self *task.Task) {
	s.mu.Lock(self)
	for s.count == 0 {
		s.nonZero.Wait(self, s.mu)
	}
	s.count--
	s.mu.Unlock(self)
}

// TryAcquireFor takes one permit, suspending self for at most d while
// none are available. Reports whether a permit was obtained.
func (s *Semaphore) TryAcquireFor(self *task.Task, d time.Duration) bool {
	deadline := time.Now().Add(d)
	s.mu.Lock(self)
	for s.count == 0 {
		remaining := time.Until(deadline)
		if remaining <= 0 || !s.nonZero.WaitFor(self, s.mu, remaining) {
			// deadline hit; a permit may still have slipped in between
			// the timer firing and this task resuming
			if s.count > 0 {
				break
			}
			s.mu.Unlock(self)
			return false
		}
	}
	s.count--
	s.mu.Unlock(self)
	return true
}

// Release returns one permit, waking a waiter if one is queued.
func (s *Semaphore) Release(self *task.Task, resubmit Resubmit) {
	s.mu.Lock(self)
	s.count++
	s.mu.Unlock(self)
	s.nonZero.NotifyOne(resubmit)
}

// Count reports the number of permits currently available. Advisory
// only: it can change the instant after it's read.
func (s *Semaphore) Count(self *task.Task) int {
	s.mu.Lock(self)
	defer s.mu.Unlock(self)
	return s.count
}
