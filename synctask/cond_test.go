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

package synctask_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/suololololo/AsyncRPC/scheduler"
	"github.com/suololololo/AsyncRPC/synctask"
	"github.com/suololololo/AsyncRPC/task"
	"github.com/suololololo/AsyncRPC/timer"
)

func newWheel(t *testing.T) *timer.Wheel {
	t.Helper()
	w := timer.New()
	stop := make(chan struct{})
	go w.Drive(stop)
	t.Cleanup(func() { close(stop) })
	return w
}

func TestCondWaitWakesOnNotify(t *testing.T) {
	s := newScheduler(t)
	resubmit := resubmitFor(s)
	m := synctask.NewMutex(resubmit)
	c := synctask.NewCond(newWheel(t))

	ready := false
	var wg sync.WaitGroup
	wg.Add(1)

	s.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		m.Lock(self)
		for !ready {
			c.Wait(self, m)
		}
		m.Unlock(self)
		wg.Done()
		return nil
	}))

	time.Sleep(20 * time.Millisecond)
	s.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		m.Lock(self)
		ready = true
		m.Unlock(self)
		c.NotifyOne(resubmit)
		return nil
	}))

	waitWithTimeout(t, &wg, 2*time.Second)
}

func TestCondWaitForTimesOut(t *testing.T) {
	s := newScheduler(t)
	resubmit := resubmitFor(s)
	m := synctask.NewMutex(resubmit)
	c := synctask.NewCond(newWheel(t))

	var wg sync.WaitGroup
	wg.Add(1)
	var notified bool

	s.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		m.Lock(self)
		notified = c.WaitFor(self, m, 30*time.Millisecond)
		m.Unlock(self)
		wg.Done()
		return nil
	}))

	waitWithTimeout(t, &wg, 2*time.Second)
	require.False(t, notified)
}

func TestCondNotifyAllWakesEveryWaiter(t *testing.T) {
	s := newScheduler(t)
	resubmit := resubmitFor(s)
	m := synctask.NewMutex(resubmit)
	c := synctask.NewCond(newWheel(t))

	ready := false
	const n = 5
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		s.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
			m.Lock(self)
			for !ready {
				c.Wait(self, m)
			}
			m.Unlock(self)
			wg.Done()
			return nil
		}))
	}

	time.Sleep(20 * time.Millisecond)
	s.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		m.Lock(self)
		ready = true
		m.Unlock(self)
		c.NotifyAll(resubmit)
		return nil
	}))

	waitWithTimeout(t, &wg, 2*time.Second)
}
