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

import (
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/suololololo/AsyncRPC/task"
)

// Scheduler is an M:N run-loop pool: Workers goroutines each loop
// popping the first entry addressed to them off a shared FIFO.
type Scheduler struct {
	Workers int
	Idler   Idler
	Log     logrus.FieldLogger

	mu      sync.Mutex
	queue   []*Entry
	stopped bool

	active int32

	wg sync.WaitGroup

	errMu sync.Mutex
	errs  *multierror.Error
}

// New creates a Scheduler with the given worker count. If idler is nil,
// a default channel-based idler is used (Reactor supplies its own).
func New(workers int, idler Idler, log logrus.FieldLogger) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	if idler == nil {
		idler = newDefaultIdler()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{Workers: workers, Idler: idler, Log: log}
}

// Start launches the worker run-loops. It does not block.
func (s *Scheduler) Start() {
	s.wg.Add(s.Workers)
	for id := 0; id < s.Workers; id++ {
		go s.runLoop(id)
	}
}

// Submit enqueues e at the back of the ready queue and wakes an idle
// worker if one might be waiting.
func (s *Scheduler) Submit(e *Entry) {
	s.mu.Lock()
	s.queue = append(s.queue, e)
	s.mu.Unlock()
	s.Idler.Notify()
}

// Errors returns the joined errors of every task that finished FAILED,
// or nil if none have.
func (s *Scheduler) Errors() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.errs.ErrorOrNil()
}

func (s *Scheduler) recordFailure(id string, err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	s.errs = multierror.Append(s.errs, &taskError{id: id, err: err})
}

type taskError struct {
	id  string
	err error
}

func (t *taskError) Error() string { return t.id + ": " + t.err.Error() }
func (t *taskError) Unwrap() error { return t.err }

// Stopping reports whether the stop flag is set, the queue is empty and
// no worker is currently running an entry.
func (s *Scheduler) Stopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped && len(s.queue) == 0 && atomic.LoadInt32(&s.active) == 0
}

// Stop sets the stop flag, wakes every worker once, and joins them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	for i := 0; i < s.Workers; i++ {
		s.Idler.Notify()
	}
	s.wg.Wait()
}

func (s *Scheduler) popFor(workerID int) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	tickleNeeded := false
	for i, e := range s.queue {
		if e.Worker == NoWorker || e.Worker == workerID {
			idx = i
			break
		}
		tickleNeeded = true
	}
	if idx == -1 {
		return nil, tickleNeeded
	}

	e := s.queue[idx]
	s.queue = append(s.queue[:idx], s.queue[idx+1:]...)
	if len(s.queue) > 0 {
		tickleNeeded = true
	}
	return e, tickleNeeded
}

func (s *Scheduler) runLoop(workerID int) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		done := s.stopped && len(s.queue) == 0 && atomic.LoadInt32(&s.active) == 0
		s.mu.Unlock()
		if done {
			return
		}

		entry, tickle := s.popFor(workerID)
		if tickle {
			s.Idler.Notify()
		}

		if entry == nil {
			s.mu.Lock()
			stopping := s.stopped
			s.mu.Unlock()
			if stopping {
				return
			}
			s.Idler.Wait(s.Idler.NextTimeout())
			continue
		}

		atomic.AddInt32(&s.active, 1)
		s.runEntry(entry)
		atomic.AddInt32(&s.active, -1)
	}
}

func (s *Scheduler) runEntry(e *Entry) {
	t := e.resolve()
	if t.State() == task.Init {
		_ = t.MarkReady()
	}

	st, err := t.Resume()
	if err != nil {
		s.Log.WithError(err).WithField("task", t.ID()).Warn("scheduler: resume rejected")
		return
	}

	switch st {
	case task.Ready:
		s.Submit(ForTask(t))
	case task.Suspended:
		// the task's owner (a waker, a reactor event, a mutex unlock)
		// is responsible for calling MarkReady and resubmitting it.
	case task.Failed:
		s.recordFailure(t.ID(), t.Err())
	case task.Done:
		// nothing to do
	}
}
