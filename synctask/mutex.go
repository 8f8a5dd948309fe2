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
	"sync"

	"github.com/suololololo/AsyncRPC/task"
)

// ErrNotOwner is the value Unlock panics with when the calling task does
// not hold the mutex.
var ErrNotOwner = errors.New("synctask: unlock by non-owner")

// Resubmit hands a task that was just marked READY back to whatever
// scheduler is running it. Callers normally pass
// func(t *task.Task) { sched.Submit(scheduler.ForTask(t)) }.
type Resubmit func(*task.Task)

// Mutex is a reentrant lock for tasks: a task blocked on Lock suspends
// itself and is resubmitted by whoever holds the lock when it unlocks,
// rather than blocking an OS thread.
type Mutex struct {
	resubmit Resubmit

	mu        sync.Mutex
	locked    bool
	owner     *task.Task
	reentrant int
	waiters   []*task.Task
}

// NewMutex returns an unlocked Mutex that hands waiters back to
// resubmit.
func NewMutex(resubmit Resubmit) *Mutex {
	return &Mutex{resubmit: resubmit}
}

// Lock acquires the mutex for self, suspending it (and returning control
// to the caller's worker) for as long as another task holds it. Calling
// Lock again from the same task that already holds it just increments
// the reentrancy count.
func (m *Mutex) Lock(self *task.Task) {
	for {
		m.mu.Lock()
		if !m.locked {
			m.locked = true
			m.owner = self
			m.reentrant = 1
			m.mu.Unlock()
			return
		}
		if m.owner == self {
			m.reentrant++
			m.mu.Unlock()
			return
		}
		m.waiters = append(m.waiters, self)
		m.mu.Unlock()

		self.YieldToSuspended()
		// woken by Unlock; loop around and race for the lock again
		// rather than assuming we now own it (TryLock below may have
		// grabbed it first).
	}
}

// TryLock attempts to acquire the mutex without suspending. It reports
// whether it succeeded.
func (m *Mutex) TryLock(self *task.Task) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.locked {
		m.locked = true
		m.owner = self
		m.reentrant = 1
		return true
	}
	if m.owner == self {
		m.reentrant++
		return true
	}
	return false
}

// Unlock releases one level of self's hold on the mutex. Once the
// reentrancy count reaches zero, the oldest waiter (if any) is marked
// READY and resubmitted.
func (m *Mutex) Unlock(self *task.Task) {
	m.mu.Lock()
	if m.owner != self {
		m.mu.Unlock()
		panic(ErrNotOwner)
	}
	m.reentrant--
	if m.reentrant > 0 {
		m.mu.Unlock()
		return
	}
	m.locked = false
	m.owner = nil

	var woken *task.Task
	if len(m.waiters) > 0 {
		woken = m.waiters[0]
		m.waiters = m.waiters[1:]
	}
	m.mu.Unlock()

	if woken != nil && woken.MarkReady() {
		m.resubmit(woken)
	}
}
