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
)

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()
	s := scheduler.New(4, nil, nil)
	s.Start()
	t.Cleanup(s.Stop)
	return s
}

func resubmitFor(s *scheduler.Scheduler) synctask.Resubmit {
	return func(t *task.Task) { s.Submit(scheduler.ForTask(t)) }
}

func TestMutexSerializesAccess(t *testing.T) {
	s := newScheduler(t)
	resubmit := resubmitFor(s)
	m := synctask.NewMutex(resubmit)

	var counter int
	var mu sync.Mutex // guards counter itself, independent of the synctask.Mutex under test
	var wg sync.WaitGroup
	const n = 20
	wg.Add(n)

	for i := 0; i < n; i++ {
		s.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
			m.Lock(self)
			mu.Lock()
			counter++
			mu.Unlock()
			m.Unlock(self)
			wg.Done()
			return nil
		}))
	}

	waitWithTimeout(t, &wg, 2*time.Second)
	require.Equal(t, n, counter)
}

func TestMutexIsReentrant(t *testing.T) {
	s := newScheduler(t)
	resubmit := resubmitFor(s)
	m := synctask.NewMutex(resubmit)

	var wg sync.WaitGroup
	wg.Add(1)
	s.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		m.Lock(self)
		m.Lock(self)
		m.Unlock(self)
		m.Unlock(self)
		wg.Done()
		return nil
	}))
	waitWithTimeout(t, &wg, time.Second)
}

func TestMutexUnlockByNonOwnerPanics(t *testing.T) {
	s := newScheduler(t)
	resubmit := resubmitFor(s)
	m := synctask.NewMutex(resubmit)

	var wg sync.WaitGroup
	wg.Add(1)
	var panicked bool
	s.Submit(scheduler.ForFunc(scheduler.NoWorker, func(self *task.Task) error {
		defer func() {
			if recover() != nil {
				panicked = true
			}
			wg.Done()
		}()
		m.Unlock(self)
		return nil
	}))
	waitWithTimeout(t, &wg, time.Second)
	require.True(t, panicked)
}

func waitWithTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out")
	}
}
