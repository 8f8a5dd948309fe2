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

package task

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-uuid"
)

var (
	// ErrNotResumable is returned by Resume when the task's state is not
	// READY or SUSPENDED.
	ErrNotResumable = errors.New("task: not in a resumable state")
	// ErrNotRunning reports that the caller is not the running task. No
	// function in this package returns it: the yield calls return nothing
	// and do not check their caller or the task's state.
	ErrNotRunning = errors.New("task: caller is not the running task")
	// ErrNotResettable is returned by Reset when the task is not
	// DONE, FAILED or INIT.
	ErrNotResettable = errors.New("task: not in a resettable state")
)

// Entry is the function a Task runs. It receives the Task itself so it
// can call Yield/YieldToSuspended/YieldToReady from inside its own flow
// of control, mirroring how a ucontext-based coroutine calls back into
// the scheduler without unwinding its stack.
type Entry func(self *Task) error

type yieldResult struct {
	state State
	err   error
}

// Task is a cooperatively-scheduled unit of work. The zero value is not
// usable; construct with New.
type Task struct {
	id     string
	worker int

	mu          sync.Mutex
	state       State
	entry       Entry
	started     bool
	err         error
	wakePending bool

	resumeCh chan struct{}
	yieldCh  chan yieldResult
}

// New creates a task in state INIT running entry once Resume is first
// called. worker is the pinned worker id, or -1 for unpinned.
func New(entry Entry, worker int) *Task {
	id, genErr := uuid.GenerateUUID()
	if genErr != nil {
		id = fmt.Sprintf("task-%p", entry)
	}
	return &Task{
		id:       id,
		worker:   worker,
		state:    Init,
		entry:    entry,
		resumeCh: make(chan struct{}),
		yieldCh:  make(chan yieldResult),
	}
}

// ID returns the task's unique identifier.
func (t *Task) ID() string { return t.id }

// Worker returns the pinned worker id, or -1 if the task floats freely.
func (t *Task) Worker() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.worker
}

// SetWorker re-pins the task to a different worker. Only meaningful
// between runs; the scheduler reads it when deciding who may pop the
// task off the ready queue.
func (t *Task) SetWorker(worker int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.worker = worker
}

// State returns the task's current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the error that made the task FAILED, if any.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Resume runs the task until it yields or finishes, returning the state
// it settled in. Preconditions: state is READY or SUSPENDED on entry.
// A wake that arrived while the task was still RUNNING (a waker racing
// the task's own suspension) is consumed here: the task settles READY
// instead of SUSPENDED and the caller resubmits it, so the wake is
// never lost and never queued twice.
func (t *Task) Resume() (State, error) {
	t.mu.Lock()
	if t.state != Ready && t.state != Suspended {
		st := t.state
		t.mu.Unlock()
		return st, ErrNotResumable
	}
	t.state = Running
	started := t.started
	t.started = true
	t.mu.Unlock()

	if !started {
		go t.run()
	}

	t.resumeCh <- struct{}{}
	res := <-t.yieldCh

	t.mu.Lock()
	st := res.state
	if st == Suspended && t.wakePending {
		t.wakePending = false
		st = Ready
	}
	t.state = st
	t.err = res.err
	t.mu.Unlock()
	return st, nil
}

func (t *Task) run() {
	defer func() {
		if r := recover(); r != nil {
			t.yieldCh <- yieldResult{state: Failed, err: fmt.Errorf("task panic: %v", r)}
		}
	}()

	<-t.resumeCh
	err := t.entry(t)
	if err != nil {
		t.yieldCh <- yieldResult{state: Failed, err: err}
		return
	}
	t.yieldCh <- yieldResult{state: Done}
}

// yield hands control back to whoever called Resume, reporting state,
// then blocks until the next Resume.
func (t *Task) yield(state State) {
	t.yieldCh <- yieldResult{state: state}
	<-t.resumeCh
}

// Yield suspends the task and marks it READY for immediate
// re-submission to the scheduler's ready queue.
func (t *Task) Yield() { t.yield(Ready) }

// YieldToSuspended suspends the task without re-submitting it; some
// other party (a waker, a mutex unlock, a reactor event) is responsible
// for moving it back to READY.
func (t *Task) YieldToSuspended() { t.yield(Suspended) }

// YieldToReady is an explicit alias of Yield, used where the call site
// wants to document that it is intentionally re-queueing rather than
// suspending.
func (t *Task) YieldToReady() { t.yield(Ready) }

// Reset rearms a DONE/FAILED/INIT task with a new entry point, ready for
// a fresh Resume. The old goroutine (if any) has already exited; Reset
// allocates fresh handoff channels for the next run.
func (t *Task) Reset(entry Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Done && t.state != Failed && t.state != Init {
		return ErrNotResettable
	}
	t.entry = entry
	t.state = Init
	t.err = nil
	t.started = false
	t.wakePending = false
	t.resumeCh = make(chan struct{})
	t.yieldCh = make(chan yieldResult)
	return nil
}

// MarkReady transitions an INIT or SUSPENDED task to READY, reporting
// whether it performed the transition: the caller resubmits the task to
// the scheduler only when it did. Used by wakers (mutex unlock, condvar
// notify, reactor event fire) that do not themselves call Resume.
//
// A wake racing the task's own suspension lands while the task is still
// RUNNING; it is recorded and consumed by the in-flight Resume instead,
// which resubmits on the waker's behalf. MarkReady on a READY task is a
// no-op: it is already queued.
func (t *Task) MarkReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case Suspended, Init:
		t.state = Ready
		return true
	case Running:
		t.wakePending = true
	}
	return false
}
